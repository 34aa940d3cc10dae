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
	sitter "github.com/smacker/go-tree-sitter"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/sourcefix/pkg/pattern"
)

type replacementKind int

const (
	kindInPlace replacementKind = iota
	kindNode
	kindText
	kindTemplate
	kindDelete
)

// Replacement is what a replace function asks to happen to the matched node
type Replacement struct {
	kind     replacementKind
	node     *sitter.Node
	text     string
	template string
}

// WithNode replaces the matched node with another node of the same file
func WithNode(n *sitter.Node) Replacement {
	return Replacement{kind: kindNode, node: n}
}

// WithText replaces the matched node with literal text
func WithText(s string) Replacement {
	return Replacement{kind: kindText, text: s}
}

// WithTemplate replaces the matched node with a template rendered from the
// match's captures
func WithTemplate(tmpl string) Replacement {
	return Replacement{kind: kindTemplate, template: tmpl}
}

// Delete removes the matched node
func Delete() Replacement {
	return Replacement{kind: kindDelete}
}

// InPlace leaves the matched node alone; the replace function already
// recorded its edits through the path
func InPlace() Replacement {
	return Replacement{}
}

// IsDelete reports whether r removes the matched node
func (r Replacement) IsDelete() bool {
	return r.kind == kindDelete
}

// Apply records r against p using the match's captures
func (r Replacement) Apply(p *Path, b pattern.Bindings) error {
	switch r.kind {
	case kindNode:
		if r.node == nil {
			return errors.New("replacement node is nil")
		}
		p.ReplaceWith(r.node)
	case kindText:
		p.ReplaceWithText(r.text)
	case kindTemplate:
		if err := p.ReplaceWithTemplate(r.template, b); err != nil {
			return err
		}
	case kindDelete:
		p.Remove()
	}
	return nil
}
