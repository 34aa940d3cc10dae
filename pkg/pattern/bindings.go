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

// Capture is what one slot bound to
type Capture struct {
	Kind  SlotKind
	Nodes []*sitter.Node
}

// Node returns the first bound node, or nil for an empty list
func (c Capture) Node() *sitter.Node {
	if len(c.Nodes) == 0 {
		return nil
	}
	return c.Nodes[0]
}

type binding struct {
	name    string
	capture Capture
}

// Bindings maps capture names to captures in the order they were bound
type Bindings struct {
	src     []byte
	entries []binding
}

// Source returns the text the bindings point into
func (b Bindings) Source() []byte {
	return b.src
}

// Get returns the capture bound to name
func (b Bindings) Get(name string) (Capture, bool) {
	for _, e := range b.entries {
		if e.name == name {
			return e.capture, true
		}
	}
	return Capture{}, false
}

// Node returns the single node bound to name, or nil
func (b Bindings) Node(name string) *sitter.Node {
	c, _ := b.Get(name)
	return c.Node()
}

// Nodes returns every node bound to name
func (b Bindings) Nodes(name string) []*sitter.Node {
	c, _ := b.Get(name)
	return c.Nodes
}

// Text returns the source text covered by the capture bound to name
func (b Bindings) Text(name string) string {
	nodes := b.Nodes(name)
	if len(nodes) == 0 {
		return ""
	}
	return string(b.src[nodes[0].StartByte():nodes[len(nodes)-1].EndByte()])
}

// Names returns bound capture names in binding order
func (b Bindings) Names() []string {
	names := make([]string, 0, len(b.entries))
	for _, e := range b.entries {
		names = append(names, e.name)
	}
	return names
}

// Len returns the number of bound captures
func (b Bindings) Len() int {
	return len(b.entries)
}

// bind records name, or checks that a repeated name captured the same shape
func (b *Bindings) bind(name string, c Capture) bool {
	if prev, ok := b.Get(name); ok {
		return sameShape(prev.Nodes, c.Nodes, b.src)
	}
	b.entries = append(b.entries, binding{name: name, capture: c})
	return true
}

func sameShape(a, b []*sitter.Node, src []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !equalTrees(a[i], b[i], src) {
			return false
		}
	}
	return true
}

// equalTrees compares two subtrees of the same source ignoring layout and
// comments. Identifier-family leaves compare by name only.
func equalTrees(a, b *sitter.Node, src []byte) bool {
	if identifierTypes[a.Type()] && identifierTypes[b.Type()] {
		return syntax.Text(a, src) == syntax.Text(b, src)
	}
	if a.Type() != b.Type() {
		return false
	}
	ac, bc := structural(a), structural(b)
	if len(ac) == 0 && len(bc) == 0 {
		return listTypes[a.Type()] || syntax.Text(a, src) == syntax.Text(b, src)
	}
	if len(ac) != len(bc) {
		return false
	}
	for i := range ac {
		if !equalTrees(ac[i], bc[i], src) {
			return false
		}
	}
	return true
}

// structural returns the children that take part in structural comparison
func structural(n *sitter.Node) []*sitter.Node {
	if listTypes[n.Type()] {
		return syntax.NamedChildren(n)
	}
	all := syntax.Children(n)
	out := all[:0]
	for _, c := range all {
		if !c.IsNamed() && c.Type() == ";" {
			continue
		}
		out = append(out, c)
	}
	return out
}
