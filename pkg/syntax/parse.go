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

// Package syntax wraps tree-sitter for the languages sourcefix rewrites and
// provides the lexical scope facts that rule guards consult.
package syntax

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
	"gitlab.com/tozd/go/errors"
)

// 🗣️ Language selects the tree-sitter grammar used for a source
type Language int

const (
	JavaScript Language = iota
	TypeScript
)

// String returns the language name
func (l Language) String() string {
	switch l {
	case TypeScript:
		return "typescript"
	default:
		return "javascript"
	}
}

func (l Language) grammar() *sitter.Language {
	switch l {
	case TypeScript:
		return typescript.GetLanguage()
	default:
		return javascript.GetLanguage()
	}
}

// 🔍 LanguageFor picks the grammar from a file name
func LanguageFor(filename string) Language {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".ts", ".mts", ".cts":
		return TypeScript
	default:
		return JavaScript
	}
}

// ❌ ParseError is returned when a source does not parse cleanly
type ParseError struct {
	Line    int // 1-based
	Column  int // 0-based
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s (%d:%d)", e.Message, e.Line, e.Column)
}

// 🌳 File is a parsed source together with its lazily built scope tree
type File struct {
	Source   []byte
	Language Language

	tree   *sitter.Tree
	root   *sitter.Node
	scopes *ScopeTree
}

// 📝 Parse parses src with the grammar of lang. A tree containing error or
// missing nodes is reported as *ParseError.
func Parse(ctx context.Context, src []byte, lang Language) (*File, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang.grammar())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, errors.Errorf("tree-sitter parse failed: %w", err)
	}

	root := tree.RootNode()
	if root.HasError() {
		perr := describeError(firstError(root), src)
		tree.Close()
		return nil, perr
	}

	return &File{
		Source:   src,
		Language: lang,
		tree:     tree,
		root:     root,
	}, nil
}

// Root returns the program node
func (f *File) Root() *sitter.Node {
	return f.root
}

// Text returns the source text covered by n
func (f *File) Text(n *sitter.Node) string {
	return Text(n, f.Source)
}

// 🔭 Scopes returns the scope tree, analyzing the file on first use
func (f *File) Scopes() *ScopeTree {
	if f.scopes == nil {
		f.scopes = Analyze(f.root, f.Source)
	}
	return f.scopes
}

// Close releases the underlying tree. Nodes of f must not be used afterwards.
func (f *File) Close() {
	if f.tree != nil {
		f.tree.Close()
	}
}

func firstError(n *sitter.Node) *sitter.Node {
	if n == nil {
		return nil
	}
	if n.IsError() || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if found := firstError(n.Child(i)); found != nil {
			return found
		}
	}
	return nil
}

func describeError(n *sitter.Node, src []byte) *ParseError {
	if n == nil {
		return &ParseError{Line: 1, Column: 0, Message: "Unexpected token"}
	}

	pos := PositionOf(n)
	perr := &ParseError{Line: pos.Line, Column: pos.Column}

	if n.IsMissing() {
		perr.Message = fmt.Sprintf("Missing %q", n.Type())
		return perr
	}

	snippet := strings.TrimSpace(Text(n, src))
	if i := strings.IndexByte(snippet, '\n'); i >= 0 {
		snippet = snippet[:i]
	}
	if len(snippet) > 20 {
		snippet = snippet[:20]
	}
	if snippet == "" {
		perr.Message = "Unexpected token"
	} else {
		perr.Message = fmt.Sprintf("Unexpected token %q", snippet)
	}
	return perr
}
