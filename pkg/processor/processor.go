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

// Package processor splits documents into code segments and splices the
// rewritten segments back.
package processor

import (
	"context"
	"path/filepath"
	"strings"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/sourcefix/pkg/place"
	"github.com/walteh/sourcefix/pkg/syntax"
)

// ✂️ Segment is one independently processable code region of a document
type Segment struct {
	Source   []byte
	Language syntax.Language
	// StartLine is the 1-based line of the parent document the code starts on
	StartLine int
	// Start and End are the byte range of Source in the parent document
	Start int
	End   int
	// Prefix is the container marker run stripped from each line of Source
	Prefix string
}

// ShiftPlaces maps places found in the segment to the parent document
func (s Segment) ShiftPlaces(places []place.Place) []place.Place {
	shifted := place.Shift(places, s.StartLine-1)
	if s.Prefix == "" {
		return shifted
	}
	for i := range shifted {
		shifted[i].Position.Column += len(s.Prefix)
	}
	return shifted
}

// 🔌 Processor extracts and reinserts the code of one kind of document
type Processor interface {
	Name() string
	Extensions() []string
	Extract(ctx context.Context, filename string, src []byte) ([]Segment, error)
	// Reinsert replaces every segment's range with the matching entry of
	// rewritten, in order. Everything else is copied verbatim.
	Reinsert(src []byte, segments []Segment, rewritten [][]byte) ([]byte, error)
}

var processors []Processor

// 📝 Register adds a processor. It is meant to be called from init().
func Register(p Processor) {
	processors = append(processors, p)
}

// ForFile returns the processor handling filename, or nil
func ForFile(filename string) Processor {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, p := range processors {
		for _, e := range p.Extensions() {
			if e == ext {
				return p
			}
		}
	}
	return nil
}

// Extensions lists every extension a registered processor handles
func Extensions() []string {
	var out []string
	for _, p := range processors {
		out = append(out, p.Extensions()...)
	}
	return out
}

// splice is the shared Reinsert implementation
func splice(src []byte, segments []Segment, rewritten [][]byte) ([]byte, error) {
	if len(segments) != len(rewritten) {
		return nil, errors.Errorf("got %d rewritten segments for %d segments", len(rewritten), len(segments))
	}

	out := make([]byte, 0, len(src))
	cursor := 0
	for i, seg := range segments {
		if seg.Start < cursor || seg.End < seg.Start || seg.End > len(src) {
			return nil, errors.Errorf("segment %d: range [%d,%d) out of order", i, seg.Start, seg.End)
		}
		out = append(out, src[cursor:seg.Start]...)
		out = append(out, rewritten[i]...)
		cursor = seg.End
	}
	out = append(out, src[cursor:]...)
	return out, nil
}
