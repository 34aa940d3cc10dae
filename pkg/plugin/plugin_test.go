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

package plugin

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/sourcefix/pkg/config"
	"github.com/walteh/sourcefix/pkg/pattern"
	"github.com/walteh/sourcefix/pkg/provider"
	"github.com/walteh/sourcefix/pkg/rewrite"
	"github.com/walteh/sourcefix/pkg/syntax"
)

type reportOnly struct {
	message  string
	template string
}

func (r reportOnly) Report() string { return r.message }

func (r reportOnly) Match() map[string]GuardFunc {
	return map[string]GuardFunc{r.template: nil}
}

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) ListFiles(ctx context.Context, args config.RemoteArgs) ([]string, error) {
	a := m.Called(ctx, args)
	files, _ := a.Get(0).([]string)
	return files, a.Error(1)
}

func (m *mockProvider) GetFile(ctx context.Context, args config.RemoteArgs, path string) (io.ReadCloser, error) {
	a := m.Called(ctx, args, path)
	rc, _ := a.Get(0).(io.ReadCloser)
	return rc, a.Error(1)
}

func (m *mockProvider) GetPermalink(ctx context.Context, args config.RemoteArgs, path string) (string, error) {
	a := m.Called(ctx, args, path)
	return a.String(0), a.Error(1)
}

func testContext() context.Context {
	return zerolog.New(io.Discard).WithContext(context.Background())
}

func init() {
	RegisterBuiltin("test-shadowed", func() Plugin { return reportOnly{message: "from builtin", template: "debugger"} })
	RegisterBuiltin("test-builtin", func() Plugin { return reportOnly{message: "builtin rule", template: "debugger"} })
}

func TestResolveOrder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sourcefix-plugin-test-shadowed.yaml"), []byte("report: from dir\nmatch: [debugger]\n"), 0o644), "writing rule file should succeed")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sourcefix-plugin-local.json"), []byte(`{"report": "from dir json", "match": ["debugger"]}`), 0o644), "writing rule file should succeed")

	inline := InlineResolver{"inline-only": reportOnly{message: "inline", template: "debugger"}}

	tests := []struct {
		name        string
		resolve     string
		wantReport  string
		wantMissing bool
	}{
		{
			name:       "inline_first",
			resolve:    "inline-only",
			wantReport: "inline",
		},
		{
			name:       "builtin_before_dir",
			resolve:    "test-shadowed",
			wantReport: "from builtin",
		},
		{
			name:       "builtin",
			resolve:    "test-builtin",
			wantReport: "builtin rule",
		},
		{
			name:       "user_dir",
			resolve:    "local",
			wantReport: "from dir json",
		},
		{
			name:        "missing",
			resolve:     "nope",
			wantMissing: true,
		},
	}

	reg := NewRegistry(nil, inline, BuiltinResolver{}, DirResolver{Dir: dir})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _, err := reg.Resolve(testContext(), tt.resolve)
			if tt.wantMissing {
				var nf *NotFoundError
				require.True(t, errors.As(err, &nf), "error should be a NotFoundError, got %v", err)
				assert.Equal(t, tt.resolve, nf.Name, "missing name should be reported")
				assert.Len(t, nf.Tried, 3, "every resolver should be listed")
				assert.Contains(t, nf.Tried, "sourcefix/plugin-nope", "builtin namespace should be listed")
				assert.True(t, errors.Is(err, ErrNotFound), "NotFoundError should match ErrNotFound")
				return
			}
			require.NoError(t, err, "Resolve should succeed")
			assert.Equal(t, tt.wantReport, p.Report(), "the first resolver should win")
		})
	}
}

func TestRemoteResolver(t *testing.T) {
	args := config.RemoteArgs{Repo: "github.com/acme/rules", Ref: "main", Path: "rules"}

	prov := &mockProvider{}
	prov.On("GetFile", mock.Anything, args, "sourcefix-plugin-strict.yaml").Return(nil, provider.ErrNotFound)
	prov.On("GetFile", mock.Anything, args, "sourcefix-plugin-strict.yml").
		Return(io.NopCloser(strings.NewReader("report: use ===\nreplace:\n  \"__a == __b\": \"__a === __b\"\n")), nil)
	prov.On("GetPermalink", mock.Anything, args, "sourcefix-plugin-strict.yml").
		Return("https://github.com/acme/rules/blob/main/rules/sourcefix-plugin-strict.yml", nil)
	prov.On("GetFile", mock.Anything, args, mock.Anything).Return(nil, provider.ErrNotFound)

	reg := NewRegistry(nil, BuiltinResolver{}, RemoteResolver{Provider: prov, Args: args})
	require.NoError(t, reg.Load(testContext(), []string{"strict"}, nil), "Load should succeed")

	rule, ok := reg.Rule("strict")
	require.True(t, ok, "remote rule should be loaded")
	assert.Equal(t, "use ===", rule.Report, "report should come from the remote file")
	assert.Equal(t, "https://github.com/acme/rules/blob/main/rules/sourcefix-plugin-strict.yml", rule.Source, "source should be the permalink")
	assert.True(t, rule.CanFix(), "replace templates make the rule fixable")

	err := reg.Load(testContext(), []string{"absent"}, nil)
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf), "missing remote rule should be a NotFoundError, got %v", err)
	assert.Equal(t, "github.com/acme/rules@main:rules/sourcefix-plugin-absent.*", nf.Tried[1], "remote location should be described")
}

func TestLoad(t *testing.T) {
	inline := InlineResolver{
		"a":   reportOnly{message: "a", template: "debugger"},
		"b":   reportOnly{message: "b", template: "__x == null"},
		"bad": reportOnly{message: "bad", template: "for ("},
	}

	tests := []struct {
		name      string
		names     []string
		rules     map[string]any
		wantNames []string
		wantErr   bool
		wantSyn   bool
	}{
		{
			name:      "loads_in_order",
			names:     []string{"b", "a", "b"},
			wantNames: []string{"b", "a"},
		},
		{
			name:      "skips_disabled_without_resolving",
			names:     []string{"a", "missing", "b"},
			rules:     map[string]any{"missing": false, "b": "off"},
			wantNames: []string{"a"},
		},
		{
			name:    "missing_is_fatal",
			names:   []string{"a", "missing"},
			wantErr: true,
		},
		{
			name:    "bad_template_is_fatal",
			names:   []string{"bad"},
			wantErr: true,
			wantSyn: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compiler, err := pattern.NewCompiler(0)
			require.NoError(t, err, "creating compiler should succeed")

			reg := NewRegistry(compiler, inline)
			err = reg.Load(testContext(), tt.names, tt.rules)
			if tt.wantErr {
				require.Error(t, err, "Load should fail")
				if tt.wantSyn {
					var se *pattern.SyntaxError
					assert.True(t, errors.As(err, &se), "error should carry the template syntax error, got %v", err)
				}
				return
			}
			require.NoError(t, err, "Load should succeed")
			assert.Equal(t, tt.wantNames, reg.Names(), "loaded rules should match")
		})
	}
}

func TestRulesFor(t *testing.T) {
	inline := InlineResolver{
		"a": reportOnly{message: "a", template: "debugger"},
		"b": reportOnly{message: "b", template: "debugger"},
		"c": reportOnly{message: "c", template: "debugger"},
	}
	reg := NewRegistry(nil, inline)
	require.NoError(t, reg.Load(testContext(), []string{"a", "b", "c"}, nil), "Load should succeed")

	tests := []struct {
		name string
		rs   config.RuleSet
		want []string
	}{
		{
			name: "all_enabled_by_default",
			rs:   config.RuleSet{},
			want: []string{"a", "b", "c"},
		},
		{
			name: "one_disabled",
			rs:   config.RuleSet{States: map[string]config.RuleState{"b": {Enabled: false}}},
			want: []string{"a", "c"},
		},
		{
			name: "all_off_then_one_on",
			rs:   config.RuleSet{AllOff: true, States: map[string]config.RuleState{"c": {Enabled: true}}},
			want: []string{"c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, rule := range reg.RulesFor(tt.rs) {
				got = append(got, rule.Name)
			}
			assert.Equal(t, tt.want, got, "enabled rules should match")
		})
	}
}

func TestParseDeclarative(t *testing.T) {
	tests := []struct {
		name         string
		file         string
		data         string
		wantReport   string
		wantMatches  int
		wantReplaces int
		wantErr      string
	}{
		{
			name:         "yaml",
			file:         "r.yaml",
			data:         "report: no debugger\nreplace:\n  debugger: \"\"\n",
			wantReport:   "no debugger",
			wantReplaces: 1,
		},
		{
			name:        "json",
			file:        "r.json",
			data:        `{"report": "x", "match": ["__a == null", "null == __a"]}`,
			wantReport:  "x",
			wantMatches: 2,
		},
		{
			name:         "hcl",
			file:         "r.hcl",
			data:         "report = \"strict\"\nreplace = {\n  \"__a == __b\" = \"__a === __b\"\n}\ntypes = {\n  \"__a\" = \"identifier\"\n}\n",
			wantReport:   "strict",
			wantReplaces: 1,
		},
		{
			name:    "unknown_field",
			file:    "r.yaml",
			data:    "report: x\nmatch: [debugger]\nextra: 1\n",
			wantErr: "extra",
		},
		{
			name:    "missing_report",
			file:    "r.json",
			data:    `{"match": ["debugger"]}`,
			wantErr: "report is required",
		},
		{
			name:    "no_templates",
			file:    "r.yaml",
			data:    "report: x\n",
			wantErr: "at least one match",
		},
		{
			name:    "bad_type_key",
			file:    "r.yaml",
			data:    "report: x\nmatch: [debugger]\ntypes:\n  a: identifier\n",
			wantErr: "not a capture name",
		},
		{
			name:    "unsupported_extension",
			file:    "r.toml",
			data:    "",
			wantErr: "unsupported rule file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseDeclarative(tt.file, []byte(tt.data))
			if tt.wantErr != "" {
				require.Error(t, err, "ParseDeclarative should fail")
				assert.Contains(t, err.Error(), tt.wantErr, "error should explain the problem")
				return
			}
			require.NoError(t, err, "ParseDeclarative should succeed")
			assert.Equal(t, tt.wantReport, d.Report(), "report should match")
			assert.Len(t, d.Matches, tt.wantMatches, "match templates should match")
			assert.Len(t, d.Replaces, tt.wantReplaces, "replace templates should match")
			assert.Equal(t, tt.file, d.Origin, "origin should be the file name")
		})
	}
}

func TestDeclarativeTypesGuard(t *testing.T) {
	d := &Declarative{
		Message: "compare identifiers strictly",
		Replaces: map[string]string{
			"__a == null": "__a === null",
		},
		Types: map[string]string{"__a": "identifier"},
	}
	require.NoError(t, d.Validate(), "rule should be valid")

	rule, err := Compile("strict-null", d, nil)
	require.NoError(t, err, "Compile should succeed")
	require.Len(t, rule.Entries, 1, "one template expected")
	entry := rule.Entries[0]
	require.NotNil(t, entry.Guard, "types should produce a guard")
	require.NotNil(t, entry.Replace, "replace should be set")

	src := []byte("x == null;\nf() == null;\n")
	file, err := syntax.Parse(context.Background(), src, syntax.JavaScript)
	require.NoError(t, err, "parsing should succeed")
	defer file.Close()

	var accepted []string
	syntax.Walk(file.Root(), func(n *sitter.Node) bool {
		b, ok := pattern.Match(entry.Pattern, n, src)
		if !ok {
			return true
		}
		path := rewrite.NewPath(file, n, rewrite.NewRecorder(src, nil))
		pass, err := entry.Guard(b, path)
		require.NoError(t, err, "guard should not fail")
		if pass {
			accepted = append(accepted, file.Text(n))
		}
		return true
	})

	assert.Equal(t, []string{"x == null"}, accepted, "only the identifier comparison should pass the guard")
}

func TestCompileRejects(t *testing.T) {
	_, err := Compile("empty", reportOnlyNoTemplates{}, nil)
	require.Error(t, err, "a rule without templates or find should be rejected")
	assert.Contains(t, err.Error(), "no match, replace or find", "error should explain the problem")
}

type reportOnlyNoTemplates struct{}

func (reportOnlyNoTemplates) Report() string { return "nothing" }
