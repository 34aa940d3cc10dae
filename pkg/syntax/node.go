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

package syntax

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/walteh/sourcefix/pkg/place"
)

// 🔑 NodeKey identifies a node inside one tree independent of the wrapper
// pointer tree-sitter hands out
type NodeKey struct {
	Start uint32
	End   uint32
	Type  string
}

// Key returns the identity of n
func Key(n *sitter.Node) NodeKey {
	return NodeKey{Start: n.StartByte(), End: n.EndByte(), Type: n.Type()}
}

// Text returns the source text covered by n
func Text(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	return string(src[n.StartByte():n.EndByte()])
}

// PositionOf converts the start point of n to a place position
func PositionOf(n *sitter.Node) place.Position {
	p := n.StartPoint()
	return place.Position{Line: int(p.Row) + 1, Column: int(p.Column)}
}

// IsComment reports whether n is a comment extra
func IsComment(n *sitter.Node) bool {
	return n.Type() == "comment" || n.Type() == "html_comment"
}

// Children returns all children of n except comments
func Children(n *sitter.Node) []*sitter.Node {
	out := make([]*sitter.Node, 0, n.ChildCount())
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c == nil || IsComment(c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// NamedChildren returns the named children of n except comments. For an
// array this is its element list, for a block its statement list.
func NamedChildren(n *sitter.Node) []*sitter.Node {
	out := make([]*sitter.Node, 0, n.NamedChildCount())
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		if c == nil || IsComment(c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// SameNode reports whether a and b are the same node of one tree
func SameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	return Key(a) == Key(b)
}

// Contains reports whether inner lies within outer
func Contains(outer, inner *sitter.Node) bool {
	return outer.StartByte() <= inner.StartByte() && inner.EndByte() <= outer.EndByte()
}

// IsField reports whether child is the node stored under field of parent
func IsField(parent *sitter.Node, field string, child *sitter.Node) bool {
	if parent == nil {
		return false
	}
	return SameNode(parent.ChildByFieldName(field), child)
}

// 🚶 Walk visits the named nodes below and including n in depth-first
// pre-order. Returning false from fn skips the children of that node.
func Walk(n *sitter.Node, fn func(*sitter.Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		Walk(n.NamedChild(i), fn)
	}
}
