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

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext() context.Context {
	logger := zerolog.Nop()
	return logger.WithContext(context.Background())
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644), "writing config")
	return path
}

const sampleYAMLConfig = `
plugins:
  - remove-useless-for-of
  - remove-debugger
rules:
  remove-debugger: off
  apply-destructuring: ["on", {strict: true}]
match:
  "test/**": "off"
  "test/fixtures/**":
    remove-debugger: on
  "src/**":
    remove-useless-for-of: false
ignore:
  - "dist/**"
fixCount: 4
rulesdir: rules
remote:
  repo: github.com/acme/rules
cache:
  backend: badger
`

const sampleJSONConfig = `{
  "plugins": ["remove-useless-for-of", "remove-debugger"],
  "rules": {"remove-debugger": "off", "apply-destructuring": ["on", {"strict": true}]},
  "match": {
    "test/**": "off",
    "test/fixtures/**": {"remove-debugger": "on"},
    "src/**": {"remove-useless-for-of": false}
  },
  "ignore": ["dist/**"],
  "fixCount": 4,
  "rulesdir": "rules",
  "remote": {"repo": "github.com/acme/rules"},
  "cache": {"backend": "badger"}
}`

const sampleHCLConfig = `
plugins   = ["remove-useless-for-of", "remove-debugger"]
rules     = { "remove-debugger" = "off", "apply-destructuring" = ["on", { strict = true }] }
ignore    = ["dist/**"]
fix_count = 4
rulesdir  = "rules"

match "test/**" {
  off = true
}

match "test/fixtures/**" {
  rules = { "remove-debugger" = "on" }
}

match "src/**" {
  rules = { "remove-useless-for-of" = false }
}

remote {
  repo = "github.com/acme/rules"
}

cache {
  backend = "badger"
}
`

func TestLoad_Formats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{name: "yaml", file: ".sourcefix.yaml", content: sampleYAMLConfig},
		{name: "json", file: ".sourcefix.json", content: sampleJSONConfig},
		{name: "hcl", file: ".sourcefix.hcl", content: sampleHCLConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.file, tt.content)
			cfg, err := Load(testContext(), path)
			require.NoError(t, err, "load should succeed")

			assert.Equal(t, []string{"remove-useless-for-of", "remove-debugger"}, cfg.Plugins, "plugins should match")
			assert.Equal(t, 4, cfg.FixCount, "fixCount should match")
			assert.Equal(t, []string{"dist/**"}, cfg.Ignore, "ignore should match")
			assert.Equal(t, filepath.Join(filepath.Dir(path), "rules"), cfg.RulesDir, "rulesdir should be resolved against the config dir")
			require.NotNil(t, cfg.Remote, "remote should be set")
			assert.Equal(t, "main", cfg.Remote.Ref, "remote ref should default to main")
			require.NotNil(t, cfg.Cache, "cache should be set")
			assert.Equal(t, "badger", cfg.Cache.Backend, "cache backend should match")
			assert.Equal(t, path, cfg.Location(), "location should be recorded")

			require.Len(t, cfg.Match, 3, "overlays should be decoded")
			assert.Equal(t, "test/**", cfg.Match[0].Glob, "overlays keep declaration order")
			assert.True(t, cfg.Match[0].Off, "first overlay is the off sentinel")
			assert.Equal(t, "test/fixtures/**", cfg.Match[1].Glob, "overlays keep declaration order")
			assert.Equal(t, "src/**", cfg.Match[2].Glob, "overlays keep declaration order")

			st, err := ParseRuleState(cfg.Rules["apply-destructuring"])
			require.NoError(t, err, "rule state should parse")
			assert.True(t, st.Enabled, "rule should be enabled")
			assert.Equal(t, map[string]any{"strict": true}, st.Options, "options should be decoded")
			assert.True(t, IsDisabled(cfg.Rules["remove-debugger"]), "rule should be disabled")
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		content     string
		errContains string
	}{
		{
			name:        "unknown_yaml_field",
			file:        ".sourcefix.yaml",
			content:     "plugins: []\nnope: 1\n",
			errContains: "parsing YAML",
		},
		{
			name:        "unknown_json_field",
			file:        ".sourcefix.json",
			content:     `{"nope": 1}`,
			errContains: "parsing JSON",
		},
		{
			name:        "invalid_rule_state",
			file:        ".sourcefix.yaml",
			content:     "rules:\n  remove-debugger: maybe\n",
			errContains: "rules.remove-debugger",
		},
		{
			name:        "invalid_overlay_value",
			file:        ".sourcefix.json",
			content:     `{"match": {"src/**": "sometimes"}}`,
			errContains: "expected \"off\" or a map of rules",
		},
		{
			name:        "invalid_cache_backend",
			file:        ".sourcefix.yaml",
			content:     "cache:\n  backend: redis\n",
			errContains: "cache.backend",
		},
		{
			name:        "remote_without_repo",
			file:        ".sourcefix.yaml",
			content:     "remote:\n  ref: main\n",
			errContains: "remote.repo is required",
		},
		{
			name:        "negative_fix_count",
			file:        ".sourcefix.json",
			content:     `{"fixCount": -1}`,
			errContains: "fixCount must not be negative",
		},
		{
			name:        "unsupported_extension",
			file:        "sourcefix.toml",
			content:     "",
			errContains: "no parser found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.file, tt.content)
			_, err := Load(testContext(), path)
			require.Error(t, err, "load should fail")
			assert.Contains(t, err.Error(), tt.errContains, "error should explain the problem")
		})
	}
}

func TestDefaultAndFind(t *testing.T) {
	dir := t.TempDir()
	assert.Empty(t, Find(dir), "no config should be found in an empty dir")

	cfg := Default(dir)
	assert.Equal(t, DefaultFixCount, cfg.FixCount, "default fixCount")
	assert.NotNil(t, cfg.Rules, "rules map should be initialized")

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".sourcefix.yml"), []byte("plugins: []\n"), 0644), "writing config")
	assert.Equal(t, filepath.Join(dir, ".sourcefix.yml"), Find(dir), "config should be found")
}

func TestParseRuleState(t *testing.T) {
	tests := []struct {
		name        string
		value       any
		wantEnabled bool
		wantOptions map[string]any
		wantErr     bool
	}{
		{name: "nil", value: nil, wantEnabled: true},
		{name: "true", value: true, wantEnabled: true},
		{name: "false", value: false, wantEnabled: false},
		{name: "on", value: "on", wantEnabled: true},
		{name: "off_uppercase", value: "OFF", wantEnabled: false},
		{name: "options", value: map[string]any{"a": 1.0}, wantEnabled: true, wantOptions: map[string]any{"a": 1.0}},
		{name: "list_with_options", value: []any{"off", map[string]any{"b": true}}, wantEnabled: false, wantOptions: map[string]any{"b": true}},
		{name: "list_state_only", value: []any{true}, wantEnabled: true},
		{name: "bad_string", value: "sometimes", wantErr: true},
		{name: "bad_list_options", value: []any{"on", "x"}, wantErr: true},
		{name: "empty_list", value: []any{}, wantErr: true},
		{name: "number", value: 1.0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := ParseRuleState(tt.value)
			if tt.wantErr {
				assert.Error(t, err, "parse should fail")
				return
			}
			require.NoError(t, err, "parse should succeed")
			assert.Equal(t, tt.wantEnabled, st.Enabled, "enabled should match")
			assert.Equal(t, tt.wantOptions, st.Options, "options should match")
		})
	}

	assert.True(t, IsDisabled(false), "false is disabled")
	assert.True(t, IsDisabled("off"), "off is disabled")
	assert.False(t, IsDisabled(map[string]any{}), "options are not disabled")
	assert.False(t, IsDisabled(nil), "absent is not disabled")
}

func TestForFile(t *testing.T) {
	path := writeConfig(t, ".sourcefix.yaml", sampleYAMLConfig)
	cfg, err := Load(testContext(), path)
	require.NoError(t, err, "load should succeed")

	tests := []struct {
		name         string
		file         string
		wantEnabled  []string
		wantDisabled []string
	}{
		{
			name:         "no_overlay",
			file:         "lib/a.js",
			wantEnabled:  []string{"remove-useless-for-of", "apply-destructuring"},
			wantDisabled: []string{"remove-debugger"},
		},
		{
			name:         "partial_overlay",
			file:         "src/a.js",
			wantEnabled:  []string{"apply-destructuring"},
			wantDisabled: []string{"remove-debugger", "remove-useless-for-of"},
		},
		{
			name:         "off_overlay_clears_everything",
			file:         "test/a.js",
			wantDisabled: []string{"remove-debugger", "remove-useless-for-of", "apply-destructuring"},
		},
		{
			name:         "later_overlay_reenables_after_off",
			file:         "test/fixtures/a.js",
			wantEnabled:  []string{"remove-debugger"},
			wantDisabled: []string{"remove-useless-for-of", "apply-destructuring"},
		},
		{
			name:         "absolute_path_inside_config_dir",
			file:         filepath.Join(filepath.Dir(path), "test", "a.js"),
			wantDisabled: []string{"remove-debugger", "remove-useless-for-of", "apply-destructuring"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs, err := cfg.ForFile(tt.file)
			require.NoError(t, err, "ForFile should succeed")
			for _, name := range tt.wantEnabled {
				assert.True(t, rs.Enabled(name), "%s should be enabled", name)
			}
			for _, name := range tt.wantDisabled {
				assert.False(t, rs.Enabled(name), "%s should be disabled", name)
			}
		})
	}
}

func TestIgnored(t *testing.T) {
	cfg := Default("/repo")
	cfg.Ignore = []string{"dist/**", "**/*.min.js"}

	for file, want := range map[string]bool{
		"dist/a.js":          true,
		"/repo/dist/x/y.js":  true,
		"src/vendor.min.js":  true,
		"src/app.js":         false,
		"/elsewhere/dist.js": false,
	} {
		got, err := cfg.Ignored(file)
		require.NoError(t, err, "Ignored should succeed for %s", file)
		assert.Equal(t, want, got, "ignore result for %s", file)
	}
}

func TestOptionsFingerprint(t *testing.T) {
	rs := RuleSet{States: map[string]RuleState{
		"a": {Enabled: true, Options: map[string]any{"x": 1.0}},
		"b": {Enabled: false},
	}}

	base, err := OptionsFingerprint(rs, []string{"a", "b"}, 10, false)
	require.NoError(t, err, "fingerprint should succeed")

	same, err := OptionsFingerprint(rs, []string{"b", "a"}, 10, false)
	require.NoError(t, err, "fingerprint should succeed")
	assert.Equal(t, base, same, "rule order should not matter")

	fix, err := OptionsFingerprint(rs, []string{"a", "b"}, 10, true)
	require.NoError(t, err, "fingerprint should succeed")
	assert.NotEqual(t, base, fix, "fix mode should change the fingerprint")

	rs.States["a"] = RuleState{Enabled: true, Options: map[string]any{"x": 2.0}}
	opts, err := OptionsFingerprint(rs, []string{"a", "b"}, 10, false)
	require.NoError(t, err, "fingerprint should succeed")
	assert.NotEqual(t, base, opts, "options should change the fingerprint")

	disabledOnly, err := OptionsFingerprint(rs, []string{"b"}, 10, false)
	require.NoError(t, err, "fingerprint should succeed")
	none, err := OptionsFingerprint(rs, nil, 10, false)
	require.NoError(t, err, "fingerprint should succeed")
	assert.Equal(t, none, disabledOnly, "disabled rules should not contribute")
}
