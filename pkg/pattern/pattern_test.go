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
	"context"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/sourcefix/pkg/syntax"
)

// firstMatch parses src and returns the bindings of the first node p matches
func firstMatch(t *testing.T, p *Pattern, src string) (Bindings, bool) {
	t.Helper()
	f, err := syntax.Parse(context.Background(), []byte(src), syntax.JavaScript)
	require.NoError(t, err, "target should parse")
	t.Cleanup(f.Close)

	var (
		out   Bindings
		found bool
	)
	syntax.Walk(f.Root(), func(n *sitter.Node) bool {
		if found {
			return false
		}
		if b, ok := Match(p, n, f.Source); ok {
			out, found = b, true
			return false
		}
		return true
	})
	return out, found
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name        string
		template    string
		wantMessage string
	}{
		{
			name:        "syntax_error",
			template:    "const = ;",
			wantMessage: "",
		},
		{
			name:        "empty_template",
			template:    "   ",
			wantMessage: "empty template",
		},
		{
			name:        "two_statements",
			template:    "a(); b();",
			wantMessage: "expected exactly one top-level statement, found 2",
		},
		{
			name:        "conflicting_slot_kinds",
			template:    "foo(__a, __a)",
			wantMessage: `capture "__a" used as both node and list`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Compile(tt.template)
			require.Error(t, err, "compile should fail")
			assert.Nil(t, p, "no pattern should be returned")

			var serr *SyntaxError
			require.ErrorAs(t, err, &serr, "error should be a SyntaxError")
			assert.Equal(t, tt.template, serr.Template, "error should carry the template")
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, serr.Message, "error message should match")
			}
		})
	}
}

func TestCompile_Slots(t *testing.T) {
	tests := []struct {
		name      string
		template  string
		wantType  string
		wantSlots map[string]SlotKind
	}{
		{
			name:     "for_of_with_body",
			template: "for (const __a of __array) __c",
			wantType: "for_in_statement",
			wantSlots: map[string]SlotKind{
				"__a":     SlotNode,
				"__array": SlotNode,
				"__c":     SlotStatements,
			},
		},
		{
			name:     "array_rest",
			template: "[__first, __rest]",
			wantType: "array",
			wantSlots: map[string]SlotKind{
				"__first": SlotNode,
				"__rest":  SlotList,
			},
		},
		{
			name:     "block_tail",
			template: "{ setup(); __body }",
			wantType: "statement_block",
			wantSlots: map[string]SlotKind{
				"__body": SlotStatements,
			},
		},
		{
			name:     "trailing_semicolon_keeps_statement",
			template: "__a.__b();",
			wantType: "expression_statement",
			wantSlots: map[string]SlotKind{
				"__a": SlotNode,
				"__b": SlotNode,
			},
		},
		{
			name:      "bare_slot",
			template:  "__x",
			wantType:  "",
			wantSlots: map[string]SlotKind{"__x": SlotNode},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Compile(tt.template)
			require.NoError(t, err, "compile should succeed")
			assert.Equal(t, tt.wantType, p.Type(), "pattern root type should match")
			assert.Equal(t, tt.wantSlots, p.Slots(), "slot table should match")
		})
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name      string
		template  string
		target    string
		wantMatch bool
		wantText  map[string]string
	}{
		{
			name:      "for_of_single_element",
			template:  "for (const __a of __array) __c",
			target:    "for (const a of [b]) { console.log(a); }\n",
			wantMatch: true,
			wantText: map[string]string{
				"__a":     "a",
				"__array": "[b]",
				"__c":     "{ console.log(a); }",
			},
		},
		{
			name:      "repeated_capture_across_identifier_kinds",
			template:  "const __a = __b.__a",
			target:    "const x = obj.x;\n",
			wantMatch: true,
			wantText:  map[string]string{"__a": "x", "__b": "obj"},
		},
		{
			name:      "repeated_capture_mismatch",
			template:  "const __a = __b.__a",
			target:    "const x = obj.y;\n",
			wantMatch: false,
		},
		{
			name:      "list_rest",
			template:  "[1, __rest]",
			target:    "f([1, 2, 3]);\n",
			wantMatch: true,
			wantText:  map[string]string{"__rest": "2, 3"},
		},
		{
			name:      "list_rest_empty",
			template:  "[1, __rest]",
			target:    "f([1]);\n",
			wantMatch: true,
			wantText:  map[string]string{"__rest": ""},
		},
		{
			name:      "empty_array_ignores_layout",
			template:  "x = []",
			target:    "x = [ ];\n",
			wantMatch: true,
			wantText:  map[string]string{},
		},
		{
			name:      "literal_mismatch",
			template:  "foo(__a)",
			target:    "bar(1);\n",
			wantMatch: false,
		},
		{
			name:      "comments_ignored",
			template:  "foo(1)",
			target:    "foo(/* one */ 1);\n",
			wantMatch: true,
			wantText:  map[string]string{},
		},
		{
			name:      "optional_semicolon",
			template:  "debugger",
			target:    "debugger;\n",
			wantMatch: true,
			wantText:  map[string]string{},
		},
		{
			name:      "same_name_same_shape",
			template:  "__x === __x",
			target:    "if (a.b === a.b) {}\n",
			wantMatch: true,
			wantText:  map[string]string{"__x": "a.b"},
		},
		{
			name:      "same_name_different_shape",
			template:  "__x === __x",
			target:    "if (a === b) {}\n",
			wantMatch: false,
		},
		{
			name:      "block_tail_binds_remaining_statements",
			template:  "{ setup(); __body }",
			target:    "function f() { setup(); a(); b(); }\n",
			wantMatch: true,
			wantText:  map[string]string{"__body": "a(); b();"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Compile(tt.template)
			require.NoError(t, err, "compile should succeed")

			b, ok := firstMatch(t, p, tt.target)
			require.Equal(t, tt.wantMatch, ok, "match result should be as expected")
			if !tt.wantMatch {
				return
			}
			for name, want := range tt.wantText {
				assert.Equal(t, want, b.Text(name), "capture %s should bind the expected text", name)
			}
		})
	}
}

func TestRender(t *testing.T) {
	tests := []struct {
		name    string
		match   string
		replace string
		target  string
		want    string
		wantErr bool
	}{
		{
			name:    "destructuring",
			match:   "const __a = __b.__a",
			replace: "const {__a} = __b",
			target:  "const x = obj.x;\n",
			want:    "const {x} = obj",
		},
		{
			name:    "empty_list_drops_separator",
			match:   "[1, __rest]",
			replace: "[0, __rest]",
			target:  "f([1]);\n",
			want:    "[0]",
		},
		{
			name:    "list_keeps_source_separators",
			match:   "[1, __rest]",
			replace: "g(__rest)",
			target:  "f([1, 2,   3]);\n",
			want:    "g(2,   3)",
		},
		{
			name:    "unbound_capture",
			match:   "foo(__a)",
			replace: "bar(__b)",
			target:  "foo(1);\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mp, err := Compile(tt.match)
			require.NoError(t, err, "match template should compile")
			rp, err := Compile(tt.replace)
			require.NoError(t, err, "replace template should compile")

			b, ok := firstMatch(t, mp, tt.target)
			require.True(t, ok, "match template should match the target")

			got, err := RenderString(rp, b)
			if tt.wantErr {
				assert.Error(t, err, "rendering should fail")
				return
			}
			require.NoError(t, err, "rendering should succeed")
			assert.Equal(t, tt.want, got, "rendered text should match")
		})
	}
}

func TestCompiler_Caches(t *testing.T) {
	c, err := NewCompiler(0)
	require.NoError(t, err, "creating compiler should succeed")

	p1, err := c.Compile("foo(__a)")
	require.NoError(t, err, "first compile should succeed")
	p2, err := c.Compile("foo(__a)")
	require.NoError(t, err, "second compile should succeed")

	assert.Same(t, p1, p2, "the same template should return the cached pattern")
	assert.Equal(t, 1, c.Len(), "one template should be cached")

	_, err = c.Compile("foo(")
	assert.Error(t, err, "broken template should fail")
	assert.Equal(t, 1, c.Len(), "failed compilations should not be cached")
}
