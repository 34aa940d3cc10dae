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

package processor

import (
	"context"

	"github.com/walteh/sourcefix/pkg/syntax"
)

func init() {
	Register(JavaScript{})
}

// 📜 JavaScript handles plain source files: the whole file is one segment
type JavaScript struct{}

func (JavaScript) Name() string {
	return "javascript"
}

func (JavaScript) Extensions() []string {
	return []string{".js", ".mjs", ".cjs", ".jsx", ".ts", ".mts", ".cts"}
}

func (JavaScript) Extract(_ context.Context, filename string, src []byte) ([]Segment, error) {
	return []Segment{{
		Source:    src,
		Language:  syntax.LanguageFor(filename),
		StartLine: 1,
		Start:     0,
		End:       len(src),
	}}, nil
}

func (JavaScript) Reinsert(src []byte, segments []Segment, rewritten [][]byte) ([]byte, error) {
	return splice(src, segments, rewritten)
}
