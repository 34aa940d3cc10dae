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

// Package rewrite records the edits rules make to a parsed file. Nothing is
// mutated in place: edits are collected while scanning and flattened into
// plain byte-range edits afterwards.
package rewrite

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/walteh/sourcefix/pkg/pattern"
	"github.com/walteh/sourcefix/pkg/syntax"
)

// 📍 Path is a node of a parsed file together with the recorder its edits go to
type Path struct {
	Node *sitter.Node

	file *syntax.File
	rec  *Recorder
}

// NewPath creates a path for n whose edits are recorded by rec
func NewPath(file *syntax.File, n *sitter.Node, rec *Recorder) *Path {
	return &Path{Node: n, file: file, rec: rec}
}

// File returns the parsed file the path belongs to
func (p *Path) File() *syntax.File {
	return p.file
}

// Text returns the source text of the node
func (p *Path) Text() string {
	return p.file.Text(p.Node)
}

// Type returns the node type
func (p *Path) Type() string {
	return p.Node.Type()
}

// Parent returns the path of the parent node, or nil at the root
func (p *Path) Parent() *Path {
	parent := p.Node.Parent()
	if parent == nil {
		return nil
	}
	return p.At(parent)
}

// Scope returns the innermost lexical scope around the node
func (p *Path) Scope() *syntax.Scope {
	return p.file.Scopes().ScopeOf(p.Node)
}

// Binding resolves name from the node's scope
func (p *Path) Binding(name string) *syntax.Binding {
	return p.Scope().Binding(name)
}

// At returns a path for another node of the same file sharing p's recorder
func (p *Path) At(n *sitter.Node) *Path {
	return &Path{Node: n, file: p.file, rec: p.rec}
}

// ReplaceWith replaces the node with the source of n, another node of the
// same file. Edits recorded inside n are carried along.
func (p *Path) ReplaceWith(n *sitter.Node) {
	p.rec.record(p.Node.StartByte(), p.Node.EndByte(), []pattern.Part{{
		Source: true,
		Start:  n.StartByte(),
		End:    n.EndByte(),
	}})
}

// ReplaceWithText replaces the node with literal text
func (p *Path) ReplaceWithText(s string) {
	p.rec.record(p.Node.StartByte(), p.Node.EndByte(), []pattern.Part{{Text: s}})
}

// ReplaceWithTemplate renders tmpl with b and replaces the node with it
func (p *Path) ReplaceWithTemplate(tmpl string, b pattern.Bindings) error {
	parts, err := p.rec.render(tmpl, b)
	if err != nil {
		return err
	}
	p.rec.record(p.Node.StartByte(), p.Node.EndByte(), parts)
	return nil
}

// Remove deletes the node. A statement alone on its line takes its line
// with it. A statement that is the whole body of a loop or branch becomes
// an empty block so the owner stays valid.
func (p *Path) Remove() {
	if isBody(p.Node) {
		p.ReplaceWithText("{}")
		return
	}
	start, end := int(p.Node.StartByte()), int(p.Node.EndByte())
	if isStatement(p.Node) {
		start, end = widenToLines(p.file.Source, start, end)
	}
	p.rec.record(uint32(start), uint32(end), nil)
}

func isStatement(n *sitter.Node) bool {
	parent := n.Parent()
	if parent == nil {
		return false
	}
	switch parent.Type() {
	case "program", "statement_block", "class_body", "switch_case", "switch_default":
		return true
	}
	return false
}

// isBody reports whether n is the single statement a loop, branch or label
// owns, where dropping it would leave the owner without a body.
func isBody(n *sitter.Node) bool {
	parent := n.Parent()
	if parent == nil {
		return false
	}
	switch parent.Type() {
	case "else_clause":
		return n.IsNamed()
	case "if_statement":
		return sameNode(parent.ChildByFieldName("consequence"), n)
	case "while_statement", "do_statement", "for_statement", "for_in_statement", "with_statement", "labeled_statement":
		return sameNode(parent.ChildByFieldName("body"), n)
	}
	return false
}

func sameNode(a, b *sitter.Node) bool {
	return a != nil && b != nil && a.Equal(b)
}
