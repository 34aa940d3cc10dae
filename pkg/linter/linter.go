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

// Package linter defines the secondary linter pass run after the engine.
// Its places are appended to the engine's, never deduplicated: rule names
// keep the two apart.
package linter

import (
	"context"

	"github.com/walteh/sourcefix/pkg/place"
)

// 🔍 Linter lints code, returning the possibly fixed code and its places
type Linter interface {
	Lint(ctx context.Context, name string, code []byte, fix bool) ([]byte, []place.Place, error)
}

// Noop returns the code unchanged and reports nothing
type Noop struct{}

func (Noop) Lint(_ context.Context, _ string, code []byte, _ bool) ([]byte, []place.Place, error) {
	return code, nil, nil
}
