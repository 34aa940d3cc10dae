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
	"context"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src string, lang Language) *File {
	t.Helper()
	f, err := Parse(context.Background(), []byte(src), lang)
	require.NoError(t, err, "parsing %q", src)
	t.Cleanup(f.Close)
	return f
}

// findIdentifier returns the nth identifier (or shorthand pattern) node whose text is name
func findIdentifier(f *File, name string, nth int) *sitter.Node {
	var found *sitter.Node
	seen := 0
	Walk(f.Root(), func(n *sitter.Node) bool {
		if found != nil {
			return false
		}
		isIdent := n.Type() == "identifier" || n.Type() == "shorthand_property_identifier_pattern"
		if isIdent && f.Text(n) == name {
			if seen == nth {
				found = n
				return false
			}
			seen++
		}
		return true
	})
	return found
}

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		src        string
		lang       Language
		wantErr    bool
		wantLine   int
		wantRootTy string
	}{
		{
			name:       "valid_javascript",
			src:        "const a = 1;\n",
			lang:       JavaScript,
			wantRootTy: "program",
		},
		{
			name:       "valid_typescript",
			src:        "const a: number = 1;\n",
			lang:       TypeScript,
			wantRootTy: "program",
		},
		{
			name:     "broken_javascript",
			src:      "const a = 1;\nconst = ;\n",
			lang:     JavaScript,
			wantErr:  true,
			wantLine: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse(context.Background(), []byte(tt.src), tt.lang)
			if tt.wantErr {
				require.Error(t, err, "expected a parse error")
				var perr *ParseError
				require.ErrorAs(t, err, &perr, "error should be a ParseError")
				assert.Equal(t, tt.wantLine, perr.Line, "error line should match")
				assert.NotEmpty(t, perr.Message, "error message should be set")
				return
			}
			require.NoError(t, err, "parse should succeed")
			defer f.Close()
			assert.Equal(t, tt.wantRootTy, f.Root().Type(), "root node type should match")
		})
	}
}

func TestLanguageFor(t *testing.T) {
	assert.Equal(t, TypeScript, LanguageFor("a/b.ts"), ".ts should be typescript")
	assert.Equal(t, TypeScript, LanguageFor("x.MTS"), ".mts should be typescript")
	assert.Equal(t, JavaScript, LanguageFor("x.js"), ".js should be javascript")
	assert.Equal(t, JavaScript, LanguageFor("README.md"), "unknown extensions default to javascript")
}

func TestScopes(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		ident    string
		nth      int
		wantKind string
		wantRefs int
		wantNone bool
	}{
		{
			name:     "const_with_two_references",
			src:      "const a = 1;\nfoo(a);\nbar(a);\n",
			ident:    "a",
			wantKind: "const",
			wantRefs: 2,
		},
		{
			name:     "for_of_binding_referenced_once",
			src:      "for (const a of [b]) {\n  console.log(a);\n}\n",
			ident:    "a",
			wantKind: "const",
			wantRefs: 1,
		},
		{
			name:     "for_of_binding_unreferenced",
			src:      "for (const a of []) {\n  doThing();\n}\n",
			ident:    "a",
			wantKind: "const",
			wantRefs: 0,
		},
		{
			name:     "var_hoisted_out_of_block",
			src:      "function f() {\n  if (x) { var v = 1; }\n  return v;\n}\n",
			ident:    "v",
			wantKind: "var",
			wantRefs: 1,
		},
		{
			name:     "shadowed_let_does_not_count_outer",
			src:      "let s = 1;\n{\n  let s = 2;\n  use(s);\n}\n",
			ident:    "s",
			wantKind: "let",
			wantRefs: 0,
		},
		{
			name:     "param_references",
			src:      "const f = (p) => p + p;\n",
			ident:    "p",
			wantKind: "param",
			wantRefs: 2,
		},
		{
			name:     "destructured_param",
			src:      "function g({ k, m = 1 }) { return k; }\n",
			ident:    "m",
			wantKind: "param",
			wantRefs: 0,
		},
		{
			name:     "import_binding",
			src:      "import { readFile as rf } from 'fs';\nrf('x');\n",
			ident:    "rf",
			wantKind: "import",
			wantRefs: 1,
		},
		{
			name:     "catch_binding",
			src:      "try { a(); } catch (e) { log(e); }\n",
			ident:    "e",
			wantKind: "catch",
			wantRefs: 1,
		},
		{
			name:     "function_declaration_hoisted",
			src:      "run();\nfunction run() {}\n",
			ident:    "run",
			nth:      1,
			wantKind: "function",
			wantRefs: 1,
		},
		{
			name:     "global_is_unbound",
			src:      "console.log(1);\n",
			ident:    "console",
			wantNone: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := mustParse(t, tt.src, JavaScript)
			id := findIdentifier(f, tt.ident, tt.nth)
			require.NotNil(t, id, "identifier %q should exist", tt.ident)

			scope := f.Scopes().ScopeOf(id)
			require.NotNil(t, scope, "every node should have a scope")

			b := scope.Binding(tt.ident)
			if tt.wantNone {
				assert.Nil(t, b, "identifier should not resolve to a binding")
				return
			}
			require.NotNil(t, b, "binding for %q should exist", tt.ident)
			assert.Equal(t, tt.wantKind, b.Kind, "binding kind should match")
			assert.Equal(t, tt.wantRefs, b.Referenced(), "reference count should match")
		})
	}
}

func TestScopeNames(t *testing.T) {
	f := mustParse(t, "var a; let b; function c() { var d; }\n", JavaScript)
	root := f.Scopes().Root
	assert.Equal(t, []string{"a", "b", "c"}, root.Names(), "program scope should list its own declarations in order")
	assert.Nil(t, root.Own("d"), "nested var should not leak into the program scope")
	assert.True(t, f.Scopes().IsDeclaration(findIdentifier(f, "a", 0)), "declaration site should be recorded")
}

func TestWalkSkipsChildren(t *testing.T) {
	f := mustParse(t, "foo(bar(baz));\n", JavaScript)
	var visited []string
	Walk(f.Root(), func(n *sitter.Node) bool {
		if n.Type() == "identifier" {
			visited = append(visited, f.Text(n))
		}
		return !(n.Type() == "call_expression" && f.Text(n) == "bar(baz)")
	})
	assert.Equal(t, []string{"foo"}, visited, "returning false should prune the subtree")
}
