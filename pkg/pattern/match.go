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
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/walteh/sourcefix/pkg/syntax"
)

// Match compares p against node, a node of a tree parsed from src. Capture
// slots always accept; everything else must be structurally equal.
func Match(p *Pattern, node *sitter.Node, src []byte) (Bindings, bool) {
	m := &matcher{p: p, src: src, out: Bindings{src: src}}
	if !m.match(p.root, node) {
		return Bindings{}, false
	}
	return m.out, true
}

type matcher struct {
	p   *Pattern
	src []byte
	out Bindings
}

func (m *matcher) match(pn, tn *sitter.Node) bool {
	if s, ok := m.p.slots[syntax.Key(pn)]; ok {
		return m.out.bind(s.name, Capture{Kind: s.kind, Nodes: []*sitter.Node{tn}})
	}

	if identifierTypes[pn.Type()] && identifierTypes[tn.Type()] {
		return m.p.file.Text(pn) == syntax.Text(tn, m.src)
	}
	if pn.Type() != tn.Type() {
		return false
	}

	pc, tc := structural(pn), structural(tn)
	if len(pc) == 0 {
		if listTypes[pn.Type()] {
			return len(tc) == 0
		}
		return len(tc) == 0 && m.p.file.Text(pn) == syntax.Text(tn, m.src)
	}

	for i, c := range pc {
		if s, ok := m.p.slots[syntax.Key(c)]; ok && i == len(pc)-1 && m.consumesRest(s, c, pn) {
			if i > len(tc) {
				return false
			}
			rest := append([]*sitter.Node(nil), tc[i:]...)
			return m.out.bind(s.name, Capture{Kind: s.kind, Nodes: rest})
		}
		if i >= len(tc) || !m.match(c, tc[i]) {
			return false
		}
	}
	return len(pc) == len(tc)
}

// consumesRest reports whether slot s, sitting last in parent, binds the
// remaining siblings rather than a single node
func (m *matcher) consumesRest(s slot, n, parent *sitter.Node) bool {
	switch s.kind {
	case SlotList:
		return true
	case SlotStatements:
		return listTypes[parent.Type()] && !syntax.IsField(parent, "body", n)
	}
	return false
}
