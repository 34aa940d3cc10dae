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

package removeuselessforof

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/sourcefix/pkg/engine"
	"github.com/walteh/sourcefix/pkg/place"
	"github.com/walteh/sourcefix/pkg/plugin"
)

func TestRemoveUselessForOf(t *testing.T) {
	tests := []struct {
		name       string
		src        string
		want       string
		wantPlaces []place.Position
	}{
		{
			name:       "single_element",
			src:        "for (const item of [x]) console.log(item);\n",
			want:       "console.log(x);\n",
			wantPlaces: []place.Position{{Line: 1, Column: 0}},
		},
		{
			name:       "empty_unused_binding",
			src:        "for (const item of []) { doThing(); }\n",
			want:       "{ doThing(); }\n",
			wantPlaces: []place.Position{{Line: 1, Column: 0}},
		},
		{
			name:       "empty_used_binding",
			src:        "for (const item of []) log(item);\n",
			want:       "",
			wantPlaces: []place.Position{{Line: 1, Column: 0}},
		},
		{
			name:       "empty_used_binding_keeps_neighbours",
			src:        "a();\nfor (const item of []) log(item);\nb();\n",
			want:       "a();\nb();\n",
			wantPlaces: []place.Position{{Line: 2, Column: 0}},
		},
		{
			name:       "if_consequence",
			src:        "if (c) for (const a of []) f(a);\n",
			want:       "if (c) {}\n",
			wantPlaces: []place.Position{{Line: 1, Column: 7}},
		},
		{
			name:       "while_body",
			src:        "while (c) for (const a of []) f(a);\n",
			want:       "while (c) {}\n",
			wantPlaces: []place.Position{{Line: 1, Column: 10}},
		},
		{
			name: "two_elements",
			src:  "for (const item of [a, b]) log(item);\n",
			want: "for (const item of [a, b]) log(item);\n",
		},
	}

	rule, err := plugin.Compile(Name, New(), nil)
	require.NoError(t, err, "rule should compile")
	assert.True(t, rule.CanFix(), "rule should be fixable")

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := engine.Run(context.Background(), []byte(tt.src), engine.Options{Rules: []*plugin.Rule{rule}})
			require.NoError(t, err, "scan should succeed")
			got := make([]place.Position, 0, len(found.Places))
			for _, p := range found.Places {
				assert.Equal(t, Name, p.Rule, "places should carry the rule name")
				got = append(got, p.Position)
			}
			assert.Equal(t, len(tt.wantPlaces), len(got), "place count should match")
			if len(tt.wantPlaces) > 0 {
				assert.Equal(t, tt.wantPlaces, got, "place positions should match")
			}

			fixed, err := engine.Run(context.Background(), []byte(tt.src), engine.Options{Fix: true, Rules: []*plugin.Rule{rule}})
			require.NoError(t, err, "fix should succeed")
			assert.Equal(t, tt.want, string(fixed.Code), "code should match")
			assert.Empty(t, fixed.Places, "fixed code should parse and leave nothing behind")
		})
	}
}
