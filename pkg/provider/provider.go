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

package provider

import (
	"context"
	"io"
	"sort"

	"github.com/walteh/sourcefix/pkg/config"
	"gitlab.com/tozd/go/errors"
)

// ErrNotFound is returned by providers when the requested file does not exist
// at the configured ref.
var ErrNotFound = errors.Base("file not found in remote")

// 🔌 Provider is the interface for remote rule pack sources
type Provider interface {
	// 📂 ListFiles returns the files below args.Path, relative to it
	ListFiles(ctx context.Context, args config.RemoteArgs) ([]string, error)

	// 📄 GetFile retrieves a single file relative to args.Path
	GetFile(ctx context.Context, args config.RemoteArgs, path string) (io.ReadCloser, error)

	// 🔗 GetPermalink returns a browsable link to the file at args.Ref
	GetPermalink(ctx context.Context, args config.RemoteArgs, path string) (string, error)
}

// 🏭 Factory creates a new provider
type Factory func(ctx context.Context) (Provider, error)

var (
	// 🗺️ providers is a map of provider names to factories
	providers = make(map[string]Factory)
)

// 📝 Register registers a provider factory
func Register(name string, factory Factory) {
	providers[name] = factory
}

// 🎯 Get returns a provider factory by name
func Get(name string) Factory {
	return providers[name]
}

// Names lists the registered providers.
func Names() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// 🔍 New builds the provider registered under name.
func New(ctx context.Context, name string) (Provider, error) {
	factory := Get(name)
	if factory == nil {
		return nil, errors.Errorf("unknown provider %q (have %v)", name, Names())
	}
	p, err := factory(ctx)
	if err != nil {
		return nil, errors.Errorf("creating %s provider: %w", name, err)
	}
	return p, nil
}

// ReadFile is a convenience wrapper that drains GetFile.
func ReadFile(ctx context.Context, p Provider, args config.RemoteArgs, path string) ([]byte, error) {
	rc, err := p.GetFile(ctx, args, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}
