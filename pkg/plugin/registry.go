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

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/walteh/sourcefix/pkg/config"
	"github.com/walteh/sourcefix/pkg/pattern"
)

// 🗂️ Registry resolves and compiles the rules of one run
type Registry struct {
	resolvers []Resolver
	compiler  *pattern.Compiler

	rules  []*Rule
	byName map[string]*Rule
}

// NewRegistry creates a registry that tries resolvers in order. compiler may
// be nil.
func NewRegistry(compiler *pattern.Compiler, resolvers ...Resolver) *Registry {
	return &Registry{
		resolvers: resolvers,
		compiler:  compiler,
		byName:    make(map[string]*Rule),
	}
}

// Compiler returns the pattern compiler shared by the registry's rules
func (r *Registry) Compiler() *pattern.Compiler {
	return r.compiler
}

// 🔍 Resolve asks every resolver in order; the first hit wins
func (r *Registry) Resolve(ctx context.Context, name string) (Plugin, Resolver, error) {
	tried := make([]string, 0, len(r.resolvers))
	for _, res := range r.resolvers {
		p, err := res.Resolve(ctx, name)
		if err == nil {
			return p, res, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, nil, errors.Errorf("resolving %s: %w", name, err)
		}
		tried = append(tried, res.Describe(name))
	}
	return nil, nil, &NotFoundError{Name: name, Tried: tried}
}

// 📥 Load resolves and compiles names. Names whose global rule value is the
// literal disabled value are skipped without being resolved. Any miss or
// compile failure fails the whole load.
func (r *Registry) Load(ctx context.Context, names []string, rules map[string]any) error {
	logger := zerolog.Ctx(ctx)

	wanted := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		if _, loaded := r.byName[name]; loaded {
			continue
		}
		if config.IsDisabled(rules[name]) {
			logger.Debug().Str("rule", name).Msg("rule disabled, not loading")
			continue
		}
		wanted = append(wanted, name)
	}

	compiled := make([]*Rule, len(wanted))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range wanted {
		g.Go(func() error {
			p, res, err := r.Resolve(gctx, name)
			if err != nil {
				return err
			}
			rule, err := Compile(name, p, r.compiler)
			if err != nil {
				return err
			}
			rule.Source = res.Describe(name)
			if d, ok := p.(*Declarative); ok && d.Origin != "" {
				rule.Source = d.Origin
			}
			compiled[i] = rule
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, rule := range compiled {
		r.rules = append(r.rules, rule)
		r.byName[rule.Name] = rule
		logger.Debug().Str("rule", rule.Name).Str("source", rule.Source).Int("templates", len(rule.Entries)).Msg("rule loaded")
	}
	return nil
}

// Rules returns every loaded rule in load order
func (r *Registry) Rules() []*Rule {
	return r.rules
}

// Names returns the loaded rule names in load order
func (r *Registry) Names() []string {
	out := make([]string, len(r.rules))
	for i, rule := range r.rules {
		out[i] = rule.Name
	}
	return out
}

// Rule returns a loaded rule by name
func (r *Registry) Rule(name string) (*Rule, bool) {
	rule, ok := r.byName[name]
	return rule, ok
}

// 🎚️ RulesFor returns the loaded rules enabled by rs, in load order
func (r *Registry) RulesFor(rs config.RuleSet) []*Rule {
	out := make([]*Rule, 0, len(r.rules))
	for _, rule := range r.rules {
		if rs.Enabled(rule.Name) {
			out = append(out, rule)
		}
	}
	return out
}
