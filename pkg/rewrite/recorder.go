// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rewrite

import (
	"sort"
	"strings"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/sourcefix/pkg/pattern"
	"github.com/walteh/sourcefix/pkg/text"
)

const maxRenderDepth = 64

type pending struct {
	start, end uint32
	parts      []pattern.Part
	seq        int
}

func (p pending) contains(o pending) bool {
	return p.start <= o.start && o.end <= p.end
}

// 📝 Recorder collects the edits of one rule application
type Recorder struct {
	src      []byte
	compiler *pattern.Compiler
	pending  []pending
}

// NewRecorder creates a recorder for edits against src. compiler may be nil.
func NewRecorder(src []byte, compiler *pattern.Compiler) *Recorder {
	return &Recorder{src: src, compiler: compiler}
}

// Len returns the number of recorded edits
func (r *Recorder) Len() int {
	return len(r.pending)
}

func (r *Recorder) record(start, end uint32, parts []pattern.Part) {
	r.pending = append(r.pending, pending{start: start, end: end, parts: parts, seq: len(r.pending)})
}

func (r *Recorder) render(tmpl string, b pattern.Bindings) ([]pattern.Part, error) {
	var (
		p   *pattern.Pattern
		err error
	)
	if r.compiler != nil {
		p, err = r.compiler.Compile(tmpl)
	} else {
		p, err = pattern.Compile(tmpl)
	}
	if err != nil {
		return nil, errors.Errorf("compiling replacement: %w", err)
	}
	return pattern.Render(p, b)
}

// Edits flattens the recorded edits into top-level non-overlapping text
// edits. Edits nested inside another edit are folded into the text of the
// outer one wherever it reuses the nested source; for identical ranges the
// last recorded edit wins. Partially overlapping edits are an error.
func (r *Recorder) Edits() ([]text.Edit, error) {
	items := r.normalized()

	var top []pending
	for _, it := range items {
		if len(top) > 0 {
			last := top[len(top)-1]
			if last.contains(it) {
				continue
			}
			if it.start < last.end {
				return nil, errors.Errorf("edit [%d,%d) partially overlaps [%d,%d)", it.start, it.end, last.start, last.end)
			}
		}
		top = append(top, it)
	}

	edits := make([]text.Edit, 0, len(top))
	for _, t := range top {
		s, err := r.renderParts(t, items, 0)
		if err != nil {
			return nil, err
		}
		edits = append(edits, text.Edit{Start: int(t.start), End: int(t.end), Text: s})
	}
	return edits, nil
}

func (r *Recorder) normalized() []pending {
	type rng struct{ start, end uint32 }
	latest := make(map[rng]pending, len(r.pending))
	for _, p := range r.pending {
		latest[rng{p.start, p.end}] = p
	}

	items := make([]pending, 0, len(latest))
	for _, p := range latest {
		items = append(items, p)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].start != items[j].start {
			return items[i].start < items[j].start
		}
		if items[i].end != items[j].end {
			return items[i].end > items[j].end
		}
		return items[i].seq < items[j].seq
	})
	return items
}

func (r *Recorder) renderParts(container pending, items []pending, depth int) (string, error) {
	if depth > maxRenderDepth {
		return "", errors.New("replacements reference each other")
	}
	var sb strings.Builder
	for _, part := range container.parts {
		if !part.Source {
			sb.WriteString(part.Text)
			continue
		}
		s, err := r.renderRange(part.Start, part.End, container, items, depth)
		if err != nil {
			return "", err
		}
		sb.WriteString(s)
	}
	return sb.String(), nil
}

// renderRange returns src[start:end] with the edits inside it applied
func (r *Recorder) renderRange(start, end uint32, exclude pending, items []pending, depth int) (string, error) {
	var sb strings.Builder
	cursor := start
	var applied *pending
	for i := range items {
		it := items[i]
		if it.seq == exclude.seq || it.start < start || it.end > end {
			continue
		}
		if applied != nil && it.start < cursor {
			if applied.contains(it) {
				continue
			}
			return "", errors.Errorf("edit [%d,%d) partially overlaps [%d,%d)", it.start, it.end, applied.start, applied.end)
		}
		s, err := r.renderParts(it, items, depth+1)
		if err != nil {
			return "", err
		}
		sb.Write(r.src[cursor:it.start])
		sb.WriteString(s)
		cursor = it.end
		applied = &items[i]
	}
	sb.Write(r.src[cursor:end])
	return sb.String(), nil
}

func widenToLines(src []byte, start, end int) (int, int) {
	if s, e, ok := text.LineBounds(src, start, end); ok {
		return s, e
	}
	return start, end
}
