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

package engine

import (
	"context"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/sourcefix/pkg/config"
	"github.com/walteh/sourcefix/pkg/pattern"
	"github.com/walteh/sourcefix/pkg/place"
	"github.com/walteh/sourcefix/pkg/plugin"
	"github.com/walteh/sourcefix/pkg/plugins/applydestructuring"
	"github.com/walteh/sourcefix/pkg/plugins/removedebugger"
	"github.com/walteh/sourcefix/pkg/plugins/removeuselessforof"
	"github.com/walteh/sourcefix/pkg/rewrite"
	"github.com/walteh/sourcefix/pkg/syntax"
)

func testContext() context.Context {
	return zerolog.New(io.Discard).WithContext(context.Background())
}

func compile(t *testing.T, plugins ...namedPlugin) []*plugin.Rule {
	t.Helper()
	rules := make([]*plugin.Rule, 0, len(plugins))
	for _, np := range plugins {
		rule, err := plugin.Compile(np.name, np.plugin, nil)
		require.NoError(t, err, "compiling %s should succeed", np.name)
		rules = append(rules, rule)
	}
	return rules
}

type namedPlugin struct {
	name   string
	plugin plugin.Plugin
}

func forOf() namedPlugin {
	return namedPlugin{removeuselessforof.Name, removeuselessforof.New()}
}

// funcRule is a template rule built from closures
type funcRule struct {
	report   string
	guards   map[string]plugin.GuardFunc
	replaces map[string]plugin.ReplaceFunc
}

func (r funcRule) Report() string { return r.report }

func (r funcRule) Match() map[string]plugin.GuardFunc { return r.guards }

func (r funcRule) Replace() map[string]plugin.ReplaceFunc { return r.replaces }

func TestRemoveUselessForOf(t *testing.T) {
	tests := []struct {
		name       string
		src        string
		want       string
		wantPlaces int
	}{
		{
			name:       "one_element_one_reference",
			src:        "for (const item of [x]) console.log(item);\n",
			want:       "console.log(x);\n",
			wantPlaces: 1,
		},
		{
			name: "two_elements",
			src:  "for (const item of [x, y]) console.log(item);\n",
			want: "for (const item of [x, y]) console.log(item);\n",
		},
		{
			name:       "empty_array_keeps_body",
			src:        "for (const item of []) { doThing(); }\n",
			want:       "{ doThing(); }\n",
			wantPlaces: 1,
		},
		{
			name:       "no_references",
			src:        "for (const item of [x]) doThing();\n",
			want:       "doThing();\n",
			wantPlaces: 1,
		},
		{
			name: "two_references",
			src:  "for (const item of [x]) { log(item); log(item); }\n",
			want: "for (const item of [x]) { log(item); log(item); }\n",
		},
		{
			name: "not_identifier",
			src:  "for (const {a} of [x]) log(a);\n",
			want: "for (const {a} of [x]) log(a);\n",
		},
		{
			name: "spread",
			src:  "for (const item of [...xs]) log(item);\n",
			want: "for (const item of [...xs]) log(item);\n",
		},
		{
			name: "not_array",
			src:  "for (const item of items) log(item);\n",
			want: "for (const item of items) log(item);\n",
		},
		{
			name:       "shorthand_reference",
			src:        "for (const item of [x]) send({item});\n",
			want:       "send({item: x});\n",
			wantPlaces: 1,
		},
		{
			name:       "nested_in_function",
			src:        "function f() {\n  for (const item of [x]) {\n    use(item);\n  }\n}\n",
			want:       "function f() {\n  {\n    use(x);\n  }\n}\n",
			wantPlaces: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := compile(t, forOf())

			found, err := Run(testContext(), []byte(tt.src), Options{Rules: rules})
			require.NoError(t, err, "scan should succeed")
			assert.Len(t, found.Places, tt.wantPlaces, "scan places should match")
			assert.Equal(t, tt.src, string(found.Code), "scan must not change code")
			for _, p := range found.Places {
				assert.Equal(t, removeuselessforof.Name, p.Rule, "place rule should match")
				assert.Equal(t, "Avoid useless for-of", p.Message, "place message should match")
			}

			fixed, err := Run(testContext(), []byte(tt.src), Options{Fix: true, Rules: rules})
			require.NoError(t, err, "fix should succeed")
			assert.Equal(t, tt.want, string(fixed.Code), "fixed code should match")
			assert.Empty(t, fixed.Places, "nothing should remain after fixing")
		})
	}
}

func TestGuardErrors(t *testing.T) {
	tests := []struct {
		name    string
		guard   plugin.GuardFunc
		wantMsg string
	}{
		{
			name: "guard_returns_error",
			guard: func(pattern.Bindings, *rewrite.Path) (bool, error) {
				return false, errors.New("boom")
			},
			wantMsg: "boom",
		},
		{
			name: "guard_panics",
			guard: func(pattern.Bindings, *rewrite.Path) (bool, error) {
				panic("kaboom")
			},
			wantMsg: "kaboom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := compile(t,
				namedPlugin{"boom", funcRule{report: "never", guards: map[string]plugin.GuardFunc{"__a + __b": tt.guard}}},
				namedPlugin{removedebugger.Name, removedebugger.New()},
			)

			src := "a + b;\ndebugger;\n"
			res, err := Run(testContext(), []byte(src), Options{Rules: rules})
			require.NoError(t, err, "a failing guard must not fail the run")

			want := []place.Place{
				{Rule: "boom", Message: tt.wantMsg, Position: place.Position{Line: 1, Column: 0}},
				{Rule: removedebugger.Name, Message: "Unexpected \"debugger\" statement", Position: place.Position{Line: 2, Column: 0}},
			}
			assert.Equal(t, want, res.Places, "the failing rule should yield exactly one place and scanning should go on")
		})
	}
}

func TestReplaceError(t *testing.T) {
	rules := compile(t,
		namedPlugin{"broken", funcRule{
			report: "broken",
			replaces: map[string]plugin.ReplaceFunc{"debugger": func(pattern.Bindings, *rewrite.Path) (rewrite.Replacement, error) {
				return rewrite.Replacement{}, errors.New("cannot replace")
			}},
		}},
		forOf(),
	)

	src := "debugger;\nfor (const item of [x]) log(item);\n"
	res, err := Run(testContext(), []byte(src), Options{Fix: true, Rules: rules})
	require.NoError(t, err, "a failing replace must not fail the run")
	assert.Equal(t, "debugger;\nlog(x);\n", string(res.Code), "other rules should still fix")
	require.Len(t, res.Places, 1, "only the failure should remain")
	assert.Equal(t, place.Place{Rule: "broken", Message: "cannot replace", Position: place.Position{Line: 1, Column: 0}}, res.Places[0], "failure place should match")
}

func TestIdempotence(t *testing.T) {
	rules := compile(t,
		namedPlugin{applydestructuring.Name, applydestructuring.New()},
		forOf(),
		namedPlugin{removedebugger.Name, removedebugger.New()},
	)

	src := "const name = user.name;\nfor (const item of [x]) console.log(item);\ndebugger;\n"
	first, err := Run(testContext(), []byte(src), Options{Fix: true, Rules: rules})
	require.NoError(t, err, "first run should succeed")
	assert.Equal(t, "const {name} = user;\nconsole.log(x);\n", string(first.Code), "first run should fix everything")
	assert.Equal(t, 1, first.Rounds, "independent fixes should land in one round")

	second, err := Run(testContext(), first.Code, Options{Fix: true, Rules: rules})
	require.NoError(t, err, "second run should succeed")
	assert.Empty(t, second.Places, "settled output should have no places")
	assert.Equal(t, string(first.Code), string(second.Code), "settled output should be unchanged")
	assert.Equal(t, 0, second.Rounds, "settled output needs no rounds")
}

func TestTermination(t *testing.T) {
	rules := compile(t,
		namedPlugin{"to-bar", &plugin.Declarative{Message: "use bar", Replaces: map[string]string{"foo()": "bar()"}}},
		namedPlugin{"to-foo", &plugin.Declarative{Message: "use foo", Replaces: map[string]string{"bar()": "foo()"}}},
	)

	for _, n := range []int{1, 2, 3, 5} {
		reparses := 0
		opts := Options{
			Fix:      true,
			FixCount: n,
			Rules:    rules,
			OnTransition: func(s State) {
				if s == Reparsing {
					reparses++
				}
			},
		}

		res, err := Run(testContext(), []byte("foo();\n"), opts)
		require.NoError(t, err, "run should succeed")
		assert.Equal(t, n, reparses, "fixCount %d should bound the reparse transitions", n)
		assert.Equal(t, n, res.Rounds, "rounds should equal the bound")
		assert.Len(t, res.Places, 1, "the leftover match should be reported")

		again, err := Run(testContext(), res.Code, opts)
		require.NoError(t, err, "rerun should succeed")
		assert.Len(t, again.Places, len(res.Places), "leftover places should not grow on rerun")
	}
}

func TestDefaultFixCount(t *testing.T) {
	rules := compile(t,
		namedPlugin{"to-bar", &plugin.Declarative{Message: "use bar", Replaces: map[string]string{"foo()": "bar()"}}},
		namedPlugin{"to-foo", &plugin.Declarative{Message: "use foo", Replaces: map[string]string{"bar()": "foo()"}}},
	)

	res, err := Run(testContext(), []byte("foo();\n"), Options{Fix: true, Rules: rules})
	require.NoError(t, err, "run should succeed")
	assert.Equal(t, DefaultFixCount, res.Rounds, "unset fixCount should use the default")
	assert.Equal(t, "foo();\n", string(res.Code), "two swaps should return to the start")
}

func TestNonFixModeScansOnce(t *testing.T) {
	var states []State
	src := "for (const item of [x]) console.log(item);\n"
	res, err := Run(testContext(), []byte(src), Options{
		Rules:        compile(t, forOf()),
		OnTransition: func(s State) { states = append(states, s) },
	})
	require.NoError(t, err, "run should succeed")
	assert.Equal(t, []State{Parsed, Scanning, Settled}, states, "non-fix mode should scan exactly once")
	assert.Equal(t, src, string(res.Code), "code should be unchanged")
	assert.Equal(t, 0, res.Rounds, "no rounds should run")
	assert.Len(t, res.Places, 1, "the match should be reported")
}

func TestDisabledRulesNeverReport(t *testing.T) {
	reg := plugin.NewRegistry(nil, plugin.InlineResolver{
		removeuselessforof.Name: removeuselessforof.New(),
		removedebugger.Name:     removedebugger.New(),
	})
	require.NoError(t, reg.Load(testContext(), []string{removeuselessforof.Name, removedebugger.Name}, nil), "Load should succeed")

	rs := config.RuleSet{States: map[string]config.RuleState{removedebugger.Name: {Enabled: false}}}
	src := "debugger;\nfor (const item of [x]) log(item);\ndebugger;\n"

	for _, fix := range []bool{false, true} {
		res, err := Run(testContext(), []byte(src), Options{Fix: fix, Rules: reg.RulesFor(rs)})
		require.NoError(t, err, "run should succeed")
		for _, p := range res.Places {
			assert.NotEqual(t, removedebugger.Name, p.Rule, "disabled rule must not report")
		}
		if fix {
			assert.Equal(t, "debugger;\nlog(x);\ndebugger;\n", string(res.Code), "disabled rule must not fix")
		}
	}
}

func TestParseFailures(t *testing.T) {
	breaker := namedPlugin{"breaker", funcRule{
		report: "break it",
		replaces: map[string]plugin.ReplaceFunc{"foo()": func(pattern.Bindings, *rewrite.Path) (rewrite.Replacement, error) {
			return rewrite.WithText("foo("), nil
		}},
	}}

	tests := []struct {
		name       string
		src        string
		fix        bool
		wantRounds int
	}{
		{
			name: "initial_parse",
			src:  "const = ;\n",
		},
		{
			name:       "reparse_after_fix",
			src:        "foo();\n",
			fix:        true,
			wantRounds: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Run(testContext(), []byte(tt.src), Options{Fix: tt.fix, Rules: compile(t, breaker)})
			require.NoError(t, err, "parse failures are reported as places")
			require.Len(t, res.Places, 1, "exactly one crash place expected")
			assert.Equal(t, place.CrashParser, res.Places[0].Rule, "crash rule should be used")
			assert.NotEmpty(t, res.Places[0].Message, "parser diagnostic should be kept")
			assert.GreaterOrEqual(t, res.Places[0].Position.Line, 1, "line is 1-based")
			assert.Equal(t, tt.src, string(res.Code), "original code should be returned")
			assert.Equal(t, tt.wantRounds, res.Rounds, "rounds should match")
		})
	}
}

// Nested matches whose edits overlap are never applied in the same round:
// the inner loop waits for the reparse after the outer one is gone.
func TestOverlappingFixesAreDeferred(t *testing.T) {
	src := "for (const a of [x]) for (const b of [a]) log(b);\n"

	tests := []struct {
		name       string
		fixCount   int
		want       string
		wantPlaces int
		wantRounds int
	}{
		{
			name:       "one_round_fixes_outer_only",
			fixCount:   1,
			want:       "for (const b of [x]) log(b);\n",
			wantPlaces: 1,
			wantRounds: 1,
		},
		{
			name:       "second_round_fixes_inner",
			fixCount:   2,
			want:       "log(x);\n",
			wantRounds: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Run(testContext(), []byte(src), Options{Fix: true, FixCount: tt.fixCount, Rules: compile(t, forOf())})
			require.NoError(t, err, "run should succeed")
			assert.Equal(t, tt.want, string(res.Code), "code should match")
			assert.Len(t, res.Places, tt.wantPlaces, "leftover places should match")
			assert.Equal(t, tt.wantRounds, res.Rounds, "rounds should match")
		})
	}
}

func TestTypeScript(t *testing.T) {
	src := "const id: string = 'a';\nfor (const item of [id]) console.log(item);\n"
	res, err := Run(testContext(), []byte(src), Options{Fix: true, Language: syntax.TypeScript, Rules: compile(t, forOf())})
	require.NoError(t, err, "run should succeed")
	assert.Equal(t, "const id: string = 'a';\nconsole.log(id);\n", string(res.Code), "typescript sources should be fixed too")
}
