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

// Package text applies byte-range edits to source text.
package text

import (
	"bytes"
	"sort"

	"gitlab.com/tozd/go/errors"
)

// Edit replaces src[Start:End] with Text
type Edit struct {
	Start int
	End   int
	Text  string
}

// Overlaps reports whether two edits touch a common byte. Two insertions at
// the same offset overlap as well, since their order would be ambiguous.
func (e Edit) Overlaps(o Edit) bool {
	if e.Start == e.End && o.Start == o.End {
		return e.Start == o.Start
	}
	return e.Start < o.End && o.Start < e.End
}

// Contains reports whether o lies entirely inside e
func (e Edit) Contains(o Edit) bool {
	return e.Start <= o.Start && o.End <= e.End
}

// Result describes the outcome of Apply
type Result struct {
	OriginalContent []byte
	ModifiedContent []byte
	EditCount       int
	WasModified     bool
}

// Validate checks that every edit is within src and no two edits overlap
func Validate(src []byte, edits []Edit) error {
	sorted := sortEdits(edits)
	for i, e := range sorted {
		if e.Start < 0 || e.End < e.Start || e.End > len(src) {
			return errors.Errorf("edit %d: range [%d,%d) outside of content (len %d)", i, e.Start, e.End, len(src))
		}
		if i > 0 && sorted[i-1].Overlaps(e) {
			return errors.Errorf("edit %d: range [%d,%d) overlaps [%d,%d)", i, e.Start, e.End, sorted[i-1].Start, sorted[i-1].End)
		}
	}
	return nil
}

// Apply applies non-overlapping edits to src in one pass
func Apply(src []byte, edits []Edit) (*Result, error) {
	if err := Validate(src, edits); err != nil {
		return nil, errors.Errorf("applying edits: %w", err)
	}

	result := &Result{
		OriginalContent: src,
		ModifiedContent: src,
	}
	if len(edits) == 0 {
		return result, nil
	}

	var buf bytes.Buffer
	buf.Grow(len(src))
	cursor := 0
	for _, e := range sortEdits(edits) {
		buf.Write(src[cursor:e.Start])
		buf.WriteString(e.Text)
		cursor = e.End
	}
	buf.Write(src[cursor:])

	result.ModifiedContent = buf.Bytes()
	result.EditCount = len(edits)
	result.WasModified = !bytes.Equal(src, result.ModifiedContent)
	return result, nil
}

func sortEdits(edits []Edit) []Edit {
	sorted := append([]Edit(nil), edits...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})
	return sorted
}

// LineBounds returns the start of the line containing start and the end of
// the line containing end (past its newline), when the bytes between those
// bounds and the range are only whitespace. ok is false otherwise.
func LineBounds(src []byte, start, end int) (lineStart, lineEnd int, ok bool) {
	lineStart = start
	for lineStart > 0 && (src[lineStart-1] == ' ' || src[lineStart-1] == '\t') {
		lineStart--
	}
	if lineStart > 0 && src[lineStart-1] != '\n' {
		return start, end, false
	}

	lineEnd = end
	for lineEnd < len(src) && (src[lineEnd] == ' ' || src[lineEnd] == '\t' || src[lineEnd] == '\r') {
		lineEnd++
	}
	switch {
	case lineEnd == len(src):
	case src[lineEnd] == '\n':
		lineEnd++
	default:
		return start, end, false
	}
	return lineStart, lineEnd, true
}
