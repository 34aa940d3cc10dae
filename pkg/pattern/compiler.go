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
	lru "github.com/hashicorp/golang-lru/v2"
	"gitlab.com/tozd/go/errors"
)

// DefaultCompilerSize is the number of compiled templates kept by NewCompiler(0)
const DefaultCompilerSize = 512

// 🗃️ Compiler compiles templates once and keeps them for reuse
type Compiler struct {
	cache *lru.Cache[string, *Pattern]
}

// NewCompiler creates a compiler caching up to size templates
func NewCompiler(size int) (*Compiler, error) {
	if size <= 0 {
		size = DefaultCompilerSize
	}
	cache, err := lru.New[string, *Pattern](size)
	if err != nil {
		return nil, errors.Errorf("creating pattern cache: %w", err)
	}
	return &Compiler{cache: cache}, nil
}

// Compile returns the cached pattern for template, compiling it on a miss.
// Failed compilations are not cached.
func (c *Compiler) Compile(template string) (*Pattern, error) {
	if p, ok := c.cache.Get(template); ok {
		return p, nil
	}
	p, err := Compile(template)
	if err != nil {
		return nil, err
	}
	c.cache.Add(template, p)
	return p, nil
}

// Len returns the number of cached patterns
func (c *Compiler) Len() int {
	return c.cache.Len()
}
