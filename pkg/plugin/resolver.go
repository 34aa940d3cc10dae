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
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/sourcefix/pkg/config"
	"github.com/walteh/sourcefix/pkg/provider"
)

const (
	// BuiltinNamespace prefixes rules shipped with sourcefix
	BuiltinNamespace = "sourcefix/plugin-"
	// UserPrefix prefixes declarative rule files
	UserPrefix = "sourcefix-plugin-"
)

// RuleFileExtensions are tried in order when looking up a declarative rule
var RuleFileExtensions = []string{".yaml", ".yml", ".json", ".hcl"}

// ErrNotFound is returned by a resolver that does not know the name
var ErrNotFound = errors.Base("plugin not found")

// 🚫 NotFoundError is returned when no resolver knows the name
type NotFoundError struct {
	Name  string
	Tried []string
}

func (e *NotFoundError) Error() string {
	return "plugin " + e.Name + " not found (tried " + strings.Join(e.Tried, ", ") + ")"
}

// Is lets errors.Is(err, ErrNotFound) hold for a NotFoundError
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// 🔍 Resolver is one strategy for finding a plugin by name
type Resolver interface {
	// Resolve returns ErrNotFound when the name is unknown to the resolver
	Resolve(ctx context.Context, name string) (Plugin, error)
	// Describe names the location the resolver would look at for name
	Describe(name string) string
}

var builtins = make(map[string]func() Plugin)

// 📝 RegisterBuiltin registers a rule shipped with sourcefix. It is meant to
// be called from init().
func RegisterBuiltin(name string, factory func() Plugin) {
	builtins[BuiltinNamespace+name] = factory
}

// BuiltinNames lists the registered builtin rules without their namespace
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for key := range builtins {
		names = append(names, strings.TrimPrefix(key, BuiltinNamespace))
	}
	sort.Strings(names)
	return names
}

// InlineResolver serves plugins supplied directly by the caller
type InlineResolver map[string]Plugin

func (r InlineResolver) Resolve(_ context.Context, name string) (Plugin, error) {
	if p, ok := r[name]; ok && p != nil {
		return p, nil
	}
	return nil, ErrNotFound
}

func (r InlineResolver) Describe(name string) string {
	return "inline:" + name
}

// BuiltinResolver serves rules registered with RegisterBuiltin
type BuiltinResolver struct{}

func (BuiltinResolver) Resolve(_ context.Context, name string) (Plugin, error) {
	factory, ok := builtins[BuiltinNamespace+name]
	if !ok {
		return nil, ErrNotFound
	}
	return factory(), nil
}

func (BuiltinResolver) Describe(name string) string {
	return BuiltinNamespace + name
}

// 📂 DirResolver loads declarative rule files from a local directory
type DirResolver struct {
	Dir string
}

func (r DirResolver) Resolve(_ context.Context, name string) (Plugin, error) {
	if r.Dir == "" {
		return nil, ErrNotFound
	}
	for _, ext := range RuleFileExtensions {
		file := filepath.Join(r.Dir, UserPrefix+name+ext)
		data, err := os.ReadFile(file)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, errors.Errorf("reading %s: %w", file, err)
		}
		d, err := ParseDeclarative(file, data)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
	return nil, ErrNotFound
}

func (r DirResolver) Describe(name string) string {
	return filepath.Join(r.Dir, UserPrefix+name+".{yaml,yml,json,hcl}")
}

// 🌐 RemoteResolver fetches declarative rule files through a provider
type RemoteResolver struct {
	Provider provider.Provider
	Args     config.RemoteArgs
}

func (r RemoteResolver) Resolve(ctx context.Context, name string) (Plugin, error) {
	if r.Provider == nil {
		return nil, ErrNotFound
	}
	for _, ext := range RuleFileExtensions {
		file := UserPrefix + name + ext
		data, err := provider.ReadFile(ctx, r.Provider, r.Args, file)
		if err != nil {
			if errors.Is(err, provider.ErrNotFound) {
				continue
			}
			return nil, errors.Errorf("fetching %s from %s: %w", file, r.Args.Repo, err)
		}
		d, err := ParseDeclarative(file, data)
		if err != nil {
			return nil, err
		}
		if link, err := r.Provider.GetPermalink(ctx, r.Args, file); err == nil {
			d.Origin = link
		}
		return d, nil
	}
	return nil, ErrNotFound
}

func (r RemoteResolver) Describe(name string) string {
	return r.Args.Repo + "@" + r.Args.Ref + ":" + filepath.ToSlash(filepath.Join(r.Args.Path, UserPrefix+name+".*"))
}
