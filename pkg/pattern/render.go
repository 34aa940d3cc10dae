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

package pattern

import (
	"strings"

	"gitlab.com/tozd/go/errors"
)

// Part is one piece of a rendered template: either literal text or a byte
// range of the matched source
type Part struct {
	Text   string
	Source bool
	Start  uint32
	End    uint32
}

// Render instantiates p with the captures in b. Every capture named in p
// must be bound.
func Render(p *Pattern, b Bindings) ([]Part, error) {
	src := p.file.Source
	cursor := p.root.StartByte()
	var parts []Part
	var literal strings.Builder

	flush := func() {
		if literal.Len() > 0 {
			parts = append(parts, Part{Text: literal.String()})
			literal.Reset()
		}
	}

	for _, o := range p.occurrences {
		literal.Write(src[cursor:o.start])
		cursor = o.end

		c, ok := b.Get(o.name)
		if !ok {
			return nil, errors.Errorf("rendering %q: capture %q is not bound", p.Template, o.name)
		}
		if len(c.Nodes) == 0 {
			// drop the separator left dangling by an empty list
			trimmed := strings.TrimRight(literal.String(), " \t\n")
			trimmed = strings.TrimSuffix(trimmed, ",")
			literal.Reset()
			literal.WriteString(trimmed)
			continue
		}

		flush()
		parts = append(parts, Part{
			Source: true,
			Start:  c.Nodes[0].StartByte(),
			End:    c.Nodes[len(c.Nodes)-1].EndByte(),
		})
	}
	literal.Write(src[cursor:p.root.EndByte()])
	flush()

	return parts, nil
}

// RenderString renders p and resolves source parts against the bindings'
// source text
func RenderString(p *Pattern, b Bindings) (string, error) {
	parts, err := Render(p, b)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, part := range parts {
		if part.Source {
			sb.Write(b.src[part.Start:part.End])
			continue
		}
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}
