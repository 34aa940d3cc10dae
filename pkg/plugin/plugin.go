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
	"sort"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/sourcefix/pkg/pattern"
	"github.com/walteh/sourcefix/pkg/rewrite"
)

// GuardFunc decides whether a structural match is accepted
type GuardFunc func(b pattern.Bindings, p *rewrite.Path) (bool, error)

// ReplaceFunc decides what happens to an accepted match in fix mode
type ReplaceFunc func(b pattern.Bindings, p *rewrite.Path) (rewrite.Replacement, error)

// 🔌 Plugin is the minimal rule contract
type Plugin interface {
	// Report returns the message attached to every place the rule finds
	Report() string
}

// Matcher supplies match templates with their guards. A nil guard accepts
// every structural match.
type Matcher interface {
	Match() map[string]GuardFunc
}

// Replacer supplies templates with their replacements. A template listed
// only here is matched without a guard.
type Replacer interface {
	Replace() map[string]ReplaceFunc
}

// Finder reports nodes directly, without templates
type Finder interface {
	Find(p *rewrite.Path) (bool, error)
}

// Fixer rewrites a node reported by Finder
type Fixer interface {
	Fix(p *rewrite.Path) error
}

// Entry is one compiled template of a rule
type Entry struct {
	Template string
	Pattern  *pattern.Pattern
	Guard    GuardFunc
	Replace  ReplaceFunc
}

// 📦 Rule is a resolved and compiled plugin
type Rule struct {
	Name    string
	Report  string
	Source  string
	Entries []Entry
	Finder  Finder
	Fixer   Fixer
}

// CanFix reports whether the rule has anything to apply in fix mode
func (r *Rule) CanFix() bool {
	if r.Fixer != nil {
		return true
	}
	for _, e := range r.Entries {
		if e.Replace != nil {
			return true
		}
	}
	return false
}

// Templates returns the rule's templates in entry order
func (r *Rule) Templates() []string {
	out := make([]string, len(r.Entries))
	for i, e := range r.Entries {
		out[i] = e.Template
	}
	return out
}

// 🏗️ Compile turns p into a rule. Every template is compiled once through
// compiler; a template that does not compile fails the whole rule.
func Compile(name string, p Plugin, compiler *pattern.Compiler) (*Rule, error) {
	rule := &Rule{Name: name, Report: p.Report()}

	var (
		guards   map[string]GuardFunc
		replaces map[string]ReplaceFunc
	)
	if m, ok := p.(Matcher); ok {
		guards = m.Match()
	}
	if r, ok := p.(Replacer); ok {
		replaces = r.Replace()
	}
	if f, ok := p.(Finder); ok {
		rule.Finder = f
	}
	if f, ok := p.(Fixer); ok {
		rule.Fixer = f
	}
	if rule.Fixer != nil && rule.Finder == nil {
		return nil, errors.Errorf("rule %s: fix without find", name)
	}

	seen := make(map[string]bool, len(guards)+len(replaces))
	templates := make([]string, 0, len(guards)+len(replaces))
	for t := range guards {
		if !seen[t] {
			seen[t] = true
			templates = append(templates, t)
		}
	}
	for t := range replaces {
		if !seen[t] {
			seen[t] = true
			templates = append(templates, t)
		}
	}
	sort.Strings(templates)

	if len(templates) == 0 && rule.Finder == nil {
		return nil, errors.Errorf("rule %s: no match, replace or find", name)
	}

	for _, t := range templates {
		var (
			pat *pattern.Pattern
			err error
		)
		if compiler != nil {
			pat, err = compiler.Compile(t)
		} else {
			pat, err = pattern.Compile(t)
		}
		if err != nil {
			return nil, errors.Errorf("rule %s: %w", name, err)
		}
		rule.Entries = append(rule.Entries, Entry{
			Template: t,
			Pattern:  pat,
			Guard:    guards[t],
			Replace:  replaces[t],
		})
	}

	return rule, nil
}
