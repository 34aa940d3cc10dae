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

// Package pattern compiles source templates with `__name` capture slots and
// matches them structurally against parsed JavaScript.
package pattern

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/sourcefix/pkg/syntax"
)

// SlotKind records how a capture slot binds
type SlotKind int

const (
	// SlotNode binds exactly one node
	SlotNode SlotKind = iota
	// SlotList binds the remaining elements of a list (possibly none)
	SlotList
	// SlotStatements binds a loop/function body or the remaining statements of a block
	SlotStatements
)

func (k SlotKind) String() string {
	switch k {
	case SlotList:
		return "list"
	case SlotStatements:
		return "statements"
	default:
		return "node"
	}
}

var placeholderRe = regexp.MustCompile(`^__[A-Za-z0-9_]+$`)

var identifierTypes = map[string]bool{
	"identifier":                            true,
	"property_identifier":                   true,
	"shorthand_property_identifier":         true,
	"shorthand_property_identifier_pattern": true,
	"statement_identifier":                  true,
	"type_identifier":                       true,
	"private_property_identifier":           true,
}

// list parents compare by named children only; a trailing slot consumes the rest
var listTypes = map[string]bool{
	"program":           true,
	"statement_block":   true,
	"class_body":        true,
	"array":             true,
	"arguments":         true,
	"formal_parameters": true,
	"object":            true,
	"array_pattern":     true,
	"object_pattern":    true,
	"named_imports":     true,
	"export_clause":     true,
}

var bodyFields = []string{"body", "consequence", "alternative"}

// IsPlaceholder reports whether name is a capture slot name
func IsPlaceholder(name string) bool {
	return placeholderRe.MatchString(name)
}

// SyntaxError is returned when a template cannot be compiled
type SyntaxError struct {
	Template string
	Line     int
	Column   int
	Message  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("pattern %q: %s (%d:%d)", e.Template, e.Message, e.Line, e.Column)
}

type slot struct {
	name string
	kind SlotKind
}

type occurrence struct {
	slot
	start, end uint32
}

// 🧩 Pattern is a compiled template
type Pattern struct {
	Template string

	file        *syntax.File
	root        *sitter.Node
	slots       map[syntax.NodeKey]slot
	kinds       map[string]SlotKind
	occurrences []occurrence
}

// Root returns the skeleton node the pattern matches against
func (p *Pattern) Root() *sitter.Node {
	return p.root
}

// Type is the node type a target must have for the pattern to match, or ""
// when the root itself is a capture slot
func (p *Pattern) Type() string {
	if _, ok := p.slots[syntax.Key(p.root)]; ok {
		return ""
	}
	return p.root.Type()
}

// Slots returns capture names mapped to their slot kind
func (p *Pattern) Slots() map[string]SlotKind {
	out := make(map[string]SlotKind, len(p.kinds))
	for k, v := range p.kinds {
		out[k] = v
	}
	return out
}

// Names returns capture names in template order
func (p *Pattern) Names() []string {
	seen := make(map[string]bool)
	var names []string
	for _, o := range p.occurrences {
		if !seen[o.name] {
			seen[o.name] = true
			names = append(names, o.name)
		}
	}
	return names
}

// Compile parses template as JavaScript and records its capture slots.
// A single expression statement written without a trailing `;` compiles to
// the bare expression.
func Compile(template string) (*Pattern, error) {
	src := []byte(template)
	if strings.TrimSpace(template) == "" {
		return nil, &SyntaxError{Template: template, Line: 1, Message: "empty template"}
	}

	f, err := syntax.Parse(context.Background(), src, syntax.JavaScript)
	if err != nil {
		var perr *syntax.ParseError
		if errors.As(err, &perr) {
			return nil, &SyntaxError{Template: template, Line: perr.Line, Column: perr.Column, Message: perr.Message}
		}
		return nil, errors.Errorf("parsing template %q: %w", template, err)
	}

	stmts := syntax.NamedChildren(f.Root())
	if len(stmts) != 1 {
		f.Close()
		return nil, &SyntaxError{
			Template: template,
			Line:     1,
			Message:  fmt.Sprintf("expected exactly one top-level statement, found %d", len(stmts)),
		}
	}

	root := stmts[0]
	if root.Type() == "expression_statement" && !strings.HasSuffix(strings.TrimSpace(template), ";") {
		if inner := syntax.NamedChildren(root); len(inner) == 1 {
			root = inner[0]
		}
	}

	p := &Pattern{
		Template: template,
		file:     f,
		root:     root,
		slots:    make(map[syntax.NodeKey]slot),
		kinds:    make(map[string]SlotKind),
	}

	var cerr error
	syntax.Walk(root, func(n *sitter.Node) bool {
		if cerr != nil {
			return false
		}
		s, at, ok := p.classify(n)
		if !ok {
			return true
		}
		if prev, seen := p.kinds[s.name]; seen && prev != s.kind {
			pos := syntax.PositionOf(n)
			cerr = &SyntaxError{
				Template: template,
				Line:     pos.Line,
				Column:   pos.Column,
				Message:  fmt.Sprintf("capture %q used as both %s and %s", s.name, prev, s.kind),
			}
			return false
		}
		p.kinds[s.name] = s.kind
		p.slots[syntax.Key(at)] = s
		p.occurrences = append(p.occurrences, occurrence{slot: s, start: at.StartByte(), end: at.EndByte()})
		return false
	})
	if cerr != nil {
		f.Close()
		return nil, cerr
	}

	sort.SliceStable(p.occurrences, func(i, j int) bool {
		return p.occurrences[i].start < p.occurrences[j].start
	})

	return p, nil
}

// classify decides whether n is the outermost node of a capture slot. It
// returns the slot and the node the slot is anchored at.
func (p *Pattern) classify(n *sitter.Node) (slot, *sitter.Node, bool) {
	if n.Type() == "expression_statement" && !syntax.SameNode(n, p.root) {
		inner := syntax.NamedChildren(n)
		if len(inner) == 1 && p.isPlaceholderLeaf(inner[0]) {
			name := p.file.Text(inner[0])
			parent := n.Parent()
			for _, field := range bodyFields {
				if syntax.IsField(parent, field, n) {
					return slot{name: name, kind: SlotStatements}, n, true
				}
			}
			if parent != nil && (parent.Type() == "statement_block" || parent.Type() == "program") && isLastNamed(parent, n) {
				return slot{name: name, kind: SlotStatements}, n, true
			}
			return slot{name: name, kind: SlotNode}, n, true
		}
		return slot{}, nil, false
	}

	if !p.isPlaceholderLeaf(n) {
		return slot{}, nil, false
	}

	name := p.file.Text(n)
	if parent := n.Parent(); parent != nil && !syntax.SameNode(n, p.root) && listTypes[parent.Type()] && isLastNamed(parent, n) {
		return slot{name: name, kind: SlotList}, n, true
	}
	return slot{name: name, kind: SlotNode}, n, true
}

func (p *Pattern) isPlaceholderLeaf(n *sitter.Node) bool {
	return identifierTypes[n.Type()] && IsPlaceholder(p.file.Text(n))
}

func isLastNamed(parent, n *sitter.Node) bool {
	named := syntax.NamedChildren(parent)
	return len(named) > 0 && syntax.SameNode(named[len(named)-1], n)
}
