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
)

// 📦 Binding is one declared name and every site that reads or writes it
type Binding struct {
	Name       string
	Kind       string // var, let, const, param, function, class, import, catch
	Identifier *sitter.Node
	Scope      *Scope
	References []*sitter.Node
}

// Referenced returns how many times the binding is referenced
func (b *Binding) Referenced() int {
	return len(b.References)
}

// 🔭 Scope is one lexical scope
type Scope struct {
	Node     *sitter.Node
	Parent   *Scope
	Function bool

	bindings map[string]*Binding
	names    []string
}

// Binding resolves name in s or the nearest enclosing scope declaring it
func (s *Scope) Binding(name string) *Binding {
	for cur := s; cur != nil; cur = cur.Parent {
		if b, ok := cur.bindings[name]; ok {
			return b
		}
	}
	return nil
}

// Own returns the binding declared directly in s
func (s *Scope) Own(name string) *Binding {
	return s.bindings[name]
}

// Names returns the names declared directly in s in declaration order
func (s *Scope) Names() []string {
	return append([]string(nil), s.names...)
}

func (s *Scope) functionScope() *Scope {
	cur := s
	for cur.Parent != nil && !cur.Function {
		cur = cur.Parent
	}
	return cur
}

func (s *Scope) declare(id *sitter.Node, name, kind string) *Binding {
	if b, ok := s.bindings[name]; ok {
		return b
	}
	b := &Binding{Name: name, Kind: kind, Identifier: id, Scope: s}
	s.bindings[name] = b
	s.names = append(s.names, name)
	return b
}

// 🌲 ScopeTree holds every scope of a file
type ScopeTree struct {
	Root *Scope

	scopes   map[NodeKey]*Scope
	declared map[NodeKey]bool
}

// ScopeOf returns the innermost scope created at or around n
func (t *ScopeTree) ScopeOf(n *sitter.Node) *Scope {
	for cur := n; cur != nil; cur = cur.Parent() {
		if s, ok := t.scopes[Key(cur)]; ok {
			return s
		}
	}
	return t.Root
}

// IsDeclaration reports whether n is the identifier of a declaration
func (t *ScopeTree) IsDeclaration(n *sitter.Node) bool {
	return t.declared[Key(n)]
}

// Analyze builds the scope tree of a program: declarations first (so var
// and function hoisting resolve), then references.
func Analyze(root *sitter.Node, src []byte) *ScopeTree {
	a := &analyzer{
		src: src,
		tree: &ScopeTree{
			scopes:   make(map[NodeKey]*Scope),
			declared: make(map[NodeKey]bool),
		},
	}
	a.tree.Root = a.newScope(root, nil, true)
	a.declareChildren(root, a.tree.Root)
	a.resolve(root, a.tree.Root)
	return a.tree
}

type analyzer struct {
	src  []byte
	tree *ScopeTree
}

func (a *analyzer) newScope(n *sitter.Node, parent *Scope, function bool) *Scope {
	s := &Scope{
		Node:     n,
		Parent:   parent,
		Function: function,
		bindings: make(map[string]*Binding),
	}
	a.tree.scopes[Key(n)] = s
	return s
}

func (a *analyzer) declareChildren(n *sitter.Node, s *Scope) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		a.declare(n.NamedChild(i), s)
	}
}

func (a *analyzer) declare(n *sitter.Node, s *Scope) {
	switch n.Type() {
	case "function_declaration", "generator_function_declaration":
		if name := n.ChildByFieldName("name"); name != nil {
			a.bind(s, name, "function")
		}
		fs := a.newScope(n, s, true)
		a.declareParams(n, fs)
		a.declareChildren(n, fs)
		return

	case "function_expression", "function", "generator_function", "arrow_function", "method_definition":
		fs := a.newScope(n, s, true)
		if n.Type() != "method_definition" {
			if name := n.ChildByFieldName("name"); name != nil && name.Type() == "identifier" {
				a.bind(fs, name, "function")
			}
		}
		a.declareParams(n, fs)
		a.declareChildren(n, fs)
		return

	case "class_declaration":
		if name := n.ChildByFieldName("name"); name != nil {
			a.bind(s, name, "class")
		}

	case "statement_block":
		bs := a.newScope(n, s, false)
		a.declareChildren(n, bs)
		return

	case "for_statement", "for_in_statement":
		ls := a.newScope(n, s, false)
		if n.Type() == "for_in_statement" {
			if kind := loopKind(n); kind != "" {
				target := ls
				if kind == "var" {
					target = s.functionScope()
				}
				a.declarePattern(n.ChildByFieldName("left"), target, kind)
			}
		}
		a.declareChildren(n, ls)
		return

	case "catch_clause":
		cs := a.newScope(n, s, false)
		a.declarePattern(n.ChildByFieldName("parameter"), cs, "catch")
		a.declareChildren(n, cs)
		return

	case "variable_declaration", "lexical_declaration":
		kind := "var"
		target := s.functionScope()
		if n.Type() == "lexical_declaration" {
			kind = declarationKind(n)
			target = s
		}
		for _, d := range NamedChildren(n) {
			if d.Type() == "variable_declarator" {
				a.declarePattern(d.ChildByFieldName("name"), target, kind)
			}
		}

	case "import_statement":
		a.declareImports(n, a.tree.Root)
		return
	}

	a.declareChildren(n, s)
}

func (a *analyzer) declareParams(fn *sitter.Node, s *Scope) {
	if p := fn.ChildByFieldName("parameter"); p != nil {
		a.declarePattern(p, s, "param")
	}
	params := fn.ChildByFieldName("parameters")
	if params == nil {
		return
	}
	for _, p := range NamedChildren(params) {
		a.declarePattern(p, s, "param")
	}
}

// declarePattern declares every identifier bound by a (possibly
// destructuring) pattern. Default values and type annotations are skipped.
func (a *analyzer) declarePattern(n *sitter.Node, s *Scope, kind string) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "identifier", "shorthand_property_identifier_pattern":
		a.bind(s, n, kind)
		return
	case "type_annotation", "decorator", "accessibility_modifier":
		return
	case "assignment_pattern", "object_assignment_pattern":
		a.declarePattern(n.ChildByFieldName("left"), s, kind)
		return
	case "pair_pattern":
		a.declarePattern(n.ChildByFieldName("value"), s, kind)
		return
	case "required_parameter", "optional_parameter":
		a.declarePattern(n.ChildByFieldName("pattern"), s, kind)
		return
	}
	for _, c := range NamedChildren(n) {
		a.declarePattern(c, s, kind)
	}
}

func (a *analyzer) declareImports(n *sitter.Node, s *Scope) {
	Walk(n, func(c *sitter.Node) bool {
		switch c.Type() {
		case "string", "source":
			return false
		case "import_specifier":
			id := c.ChildByFieldName("alias")
			if id == nil {
				id = c.ChildByFieldName("name")
			}
			if id != nil && id.Type() == "identifier" {
				a.bind(s, id, "import")
			}
			return false
		case "identifier":
			a.bind(s, c, "import")
			return false
		}
		return true
	})
}

func (a *analyzer) bind(s *Scope, id *sitter.Node, kind string) {
	a.tree.declared[Key(id)] = true
	s.declare(id, Text(id, a.src), kind)
}

func (a *analyzer) resolve(n *sitter.Node, s *Scope) {
	if own, ok := a.tree.scopes[Key(n)]; ok {
		s = own
	}

	switch n.Type() {
	case "identifier", "shorthand_property_identifier":
		if !a.tree.declared[Key(n)] {
			if b := s.Binding(Text(n, a.src)); b != nil {
				b.References = append(b.References, n)
			}
		}
		return
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		a.resolve(n.NamedChild(i), s)
	}
}

// loopKind returns var/let/const for `for (<kind> x of y)` and "" for a
// bare left-hand side
func loopKind(n *sitter.Node) string {
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c.IsNamed() {
			continue
		}
		switch c.Type() {
		case "var", "let", "const":
			return c.Type()
		case "in", "of":
			return ""
		}
	}
	return ""
}

func declarationKind(n *sitter.Node) string {
	if n.ChildCount() > 0 {
		if first := n.Child(0); !first.IsNamed() {
			return first.Type()
		}
	}
	return "let"
}
