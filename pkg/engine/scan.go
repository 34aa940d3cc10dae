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
	"fmt"

	"github.com/rs/zerolog"
	sitter "github.com/smacker/go-tree-sitter"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/sourcefix/pkg/pattern"
	"github.com/walteh/sourcefix/pkg/place"
	"github.com/walteh/sourcefix/pkg/plugin"
	"github.com/walteh/sourcefix/pkg/rewrite"
	"github.com/walteh/sourcefix/pkg/syntax"
	"github.com/walteh/sourcefix/pkg/text"
)

// scanner holds the state of one Scanning pass
type scanner struct {
	logger *zerolog.Logger
	file   *syntax.File
	opts   Options

	places   []place.Place
	edits    []text.Edit
	deferred int
}

func newScanner(ctx context.Context, file *syntax.File, opts Options) *scanner {
	return &scanner{logger: zerolog.Ctx(ctx), file: file, opts: opts}
}

func (s *scanner) scan() {
	syntax.Walk(s.file.Root(), func(n *sitter.Node) bool {
		for _, rule := range s.opts.Rules {
			for _, e := range rule.Entries {
				s.tryEntry(rule, e, n)
			}
			if rule.Finder != nil {
				s.tryFind(rule, n)
			}
		}
		return true
	})
}

func (s *scanner) tryEntry(rule *plugin.Rule, e plugin.Entry, n *sitter.Node) {
	b, ok := pattern.Match(e.Pattern, n, s.file.Source)
	if !ok {
		return
	}

	if e.Guard != nil {
		var accepted bool
		err := protect(func() error {
			var gerr error
			accepted, gerr = e.Guard(b, s.path(n, nil))
			return gerr
		})
		if err != nil {
			s.fail(rule, n, err)
			return
		}
		if !accepted {
			return
		}
	}

	if !s.opts.Fix || e.Replace == nil {
		s.report(rule, n)
		return
	}

	rec := rewrite.NewRecorder(s.file.Source, s.opts.Compiler)
	err := protect(func() error {
		path := s.path(n, rec)
		repl, err := e.Replace(b, path)
		if err != nil {
			return err
		}
		return repl.Apply(path, b)
	})
	if err != nil {
		s.fail(rule, n, err)
		return
	}

	s.report(rule, n)
	s.collect(rule, n, rec)
}

func (s *scanner) tryFind(rule *plugin.Rule, n *sitter.Node) {
	var found bool
	err := protect(func() error {
		var ferr error
		found, ferr = rule.Finder.Find(s.path(n, nil))
		return ferr
	})
	if err != nil {
		s.fail(rule, n, err)
		return
	}
	if !found {
		return
	}

	if !s.opts.Fix || rule.Fixer == nil {
		s.report(rule, n)
		return
	}

	rec := rewrite.NewRecorder(s.file.Source, s.opts.Compiler)
	if err := protect(func() error { return rule.Fixer.Fix(s.path(n, rec)) }); err != nil {
		s.fail(rule, n, err)
		return
	}

	s.report(rule, n)
	s.collect(rule, n, rec)
}

// path hands out a path whose edits go nowhere when rec is nil
func (s *scanner) path(n *sitter.Node, rec *rewrite.Recorder) *rewrite.Path {
	if rec == nil {
		rec = rewrite.NewRecorder(s.file.Source, s.opts.Compiler)
	}
	return rewrite.NewPath(s.file, n, rec)
}

func (s *scanner) report(rule *plugin.Rule, n *sitter.Node) {
	s.places = append(s.places, place.Place{
		Rule:     rule.Name,
		Message:  rule.Report,
		Position: syntax.PositionOf(n),
	})
}

func (s *scanner) fail(rule *plugin.Rule, n *sitter.Node, err error) {
	s.logger.Debug().Str("rule", rule.Name).Err(err).Msg("rule failed")
	s.places = append(s.places, place.Place{
		Rule:     rule.Name,
		Message:  err.Error(),
		Position: syntax.PositionOf(n),
	})
}

// collect keeps the match's edits unless one of them overlaps an edit
// already accepted this round
func (s *scanner) collect(rule *plugin.Rule, n *sitter.Node, rec *rewrite.Recorder) {
	edits, err := rec.Edits()
	if err != nil {
		s.fail(rule, n, err)
		return
	}
	for _, e := range edits {
		for _, accepted := range s.edits {
			if e.Overlaps(accepted) {
				s.deferred++
				s.logger.Debug().Str("rule", rule.Name).Int("start", e.Start).Int("end", e.End).Msg("overlapping fix deferred")
				return
			}
		}
	}
	s.edits = append(s.edits, edits...)
}

func (s *scanner) apply() ([]byte, error) {
	res, err := text.Apply(s.file.Source, s.edits)
	if err != nil {
		return nil, err
	}
	return res.ModifiedContent, nil
}

// protect runs fn, turning a panic into an error
func protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = errors.WithStack(e)
				return
			}
			err = errors.New(fmt.Sprint(r))
		}
	}()
	return fn()
}
