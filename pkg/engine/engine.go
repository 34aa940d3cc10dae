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

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/sourcefix/pkg/pattern"
	"github.com/walteh/sourcefix/pkg/place"
	"github.com/walteh/sourcefix/pkg/plugin"
	"github.com/walteh/sourcefix/pkg/syntax"
)

// DefaultFixCount bounds the mutate-reparse rounds when Options.FixCount is
// not set
const DefaultFixCount = 2

// State is a phase of the driver
type State int

const (
	Parsed State = iota
	Scanning
	Mutating
	Reparsing
	Settled
)

func (s State) String() string {
	switch s {
	case Parsed:
		return "parsed"
	case Scanning:
		return "scanning"
	case Mutating:
		return "mutating"
	case Reparsing:
		return "reparsing"
	case Settled:
		return "settled"
	}
	return "unknown"
}

// ⚙️ Options controls one run
type Options struct {
	Fix      bool
	FixCount int
	Language syntax.Language
	Rules    []*plugin.Rule
	Compiler *pattern.Compiler

	// OnTransition is called on every state change
	OnTransition func(State)
}

// 📊 Result is the outcome of one run
type Result struct {
	Code   []byte
	Places []place.Place
	Rounds int
}

// Changed reports whether the code differs from src
func (r *Result) Changed(src []byte) bool {
	return string(r.Code) != string(src)
}

// 🔄 Run scans src with opts.Rules and, in fix mode, rewrites it until no
// rule has anything left to apply or opts.FixCount rounds have run.
func Run(ctx context.Context, src []byte, opts Options) (*Result, error) {
	logger := zerolog.Ctx(ctx)

	fixCount := opts.FixCount
	if fixCount <= 0 {
		fixCount = DefaultFixCount
	}
	transition := func(s State) {
		if opts.OnTransition != nil {
			opts.OnTransition(s)
		}
	}

	code := src
	rounds := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, errors.Errorf("engine interrupted: %w", err)
		}

		file, err := syntax.Parse(ctx, code, opts.Language)
		if err != nil {
			var perr *syntax.ParseError
			if !errors.As(err, &perr) {
				return nil, err
			}
			logger.Debug().Int("round", rounds).Str("error", perr.Error()).Msg("parse failed")
			transition(Settled)
			return &Result{Code: src, Places: []place.Place{crashPlace(perr)}, Rounds: rounds}, nil
		}
		transition(Parsed)

		transition(Scanning)
		s := newScanner(ctx, file, opts)
		s.scan()
		file.Close()

		if !opts.Fix || len(s.edits) == 0 || rounds >= fixCount {
			logger.Debug().Int("rounds", rounds).Int("places", len(s.places)).Int("pending", len(s.edits)).Msg("settled")
			transition(Settled)
			return &Result{Code: code, Places: s.places, Rounds: rounds}, nil
		}

		transition(Mutating)
		applied, err := s.apply()
		if err != nil {
			return nil, errors.Errorf("round %d: %w", rounds+1, err)
		}
		rounds++
		logger.Debug().Int("round", rounds).Int("edits", len(s.edits)).Int("deferred", s.deferred).Msg("applied fixes")

		transition(Reparsing)
		code = applied
	}
}

func crashPlace(perr *syntax.ParseError) place.Place {
	return place.Place{
		Rule:     place.CrashParser,
		Message:  perr.Message,
		Position: place.Position{Line: perr.Line, Column: perr.Column},
	}
}
