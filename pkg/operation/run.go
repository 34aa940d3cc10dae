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

package operation

import (
	"bytes"
	"context"
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/sourcefix/pkg/cache"
	"github.com/walteh/sourcefix/pkg/config"
	"github.com/walteh/sourcefix/pkg/engine"
	"github.com/walteh/sourcefix/pkg/log"
	"github.com/walteh/sourcefix/pkg/place"
	"github.com/walteh/sourcefix/pkg/processor"
	"github.com/walteh/sourcefix/pkg/ruler"
	"github.com/walteh/sourcefix/pkg/status"
)

// 🏃 Run processes paths in order, reconciles the cache and runs the ruler.
// Per-file parse and rule errors end up as places; any other error aborts
// the batch.
func (r *Runner) Run(ctx context.Context, paths []string) (*Summary, error) {
	logger := zerolog.Ctx(ctx)
	summary := &Summary{}

	if r.opts.Ruler.Single() {
		return r.toggle(ctx, summary, nil)
	}

	r.opts.Status.StartOperation(ctx, len(paths))
	r.opts.Logger.StartRun(ctx, log.RunInfo{
		Dir:   r.opts.Config.Dir,
		Files: len(paths),
		Rules: len(r.opts.Registry.Rules()),
		Fix:   r.opts.Fix,
	})

	for i, path := range paths {
		res, err := r.ProcessFile(ctx, path)
		if err != nil {
			return nil, errors.Errorf("processing %s: %w", path, err)
		}
		summary.Files = append(summary.Files, res)

		r.opts.Status.TrackFile(ctx, path, status.FileInfo{
			Path:   path,
			Status: res.Status,
			Places: len(res.Places),
		})
		if res.Status != status.StatusIgnored {
			r.opts.Logger.LogFile(ctx, log.FileReport{Path: path, Status: res.Status, Places: res.Places})
		}
		r.opts.Status.UpdateProgress(ctx, i+1)
	}

	if err := r.opts.Cache.Reconcile(ctx); err != nil {
		return nil, errors.Errorf("reconciling cache: %w", err)
	}
	r.opts.Status.FinishOperation(ctx)
	r.opts.Logger.EndRun(ctx)

	logger.Debug().Int("files", len(summary.Files)).Int("places", len(summary.Places())).Msg("batch complete")

	if r.opts.Ruler.Bulk() {
		return r.toggle(ctx, summary, summary.Places())
	}
	return summary, nil
}

func (r *Runner) toggle(ctx context.Context, summary *Summary, places []place.Place) (*Summary, error) {
	summary.Edit = ruler.Apply(r.opts.Ruler, places)
	written, err := ruler.Write(ctx, r.opts.Config.Location(), r.opts.Config.Dir, summary.Edit)
	if err != nil {
		return nil, err
	}
	summary.ConfigWritten = written
	if len(summary.Edit) > 0 {
		r.opts.Logger.Successf("%d rules updated in %s", len(summary.Edit), written)
	}
	return summary, nil
}

// 📄 ProcessFile runs one file through the cache, the engine and the linter
// and writes the fix when there is one
func (r *Runner) ProcessFile(ctx context.Context, path string) (FileResult, error) {
	logger := zerolog.Ctx(ctx).With().Str("file", path).Logger()
	res := FileResult{Path: path}

	abs := path
	if !filepath.IsAbs(abs) && r.opts.Config.Dir != "" {
		abs = filepath.Join(r.opts.Config.Dir, path)
	}

	ignored, err := r.opts.Config.Ignored(abs)
	if err != nil {
		return res, err
	}
	proc := processor.ForFile(abs)
	if ignored || proc == nil {
		logger.Debug().Bool("ignored", ignored).Msg("skipping file")
		res.Status = status.StatusIgnored
		return res, nil
	}

	src, err := r.opts.Status.ReadFile(ctx, abs)
	if err != nil {
		return res, err
	}

	rs, err := r.opts.Config.ForFile(abs)
	if err != nil {
		return res, errors.Errorf("resolving rules: %w", err)
	}
	optionsFingerprint, err := config.OptionsFingerprint(rs, r.opts.Registry.Names(), r.opts.FixCount, r.opts.Fix)
	if err != nil {
		return res, err
	}
	contentFingerprint := cache.Fingerprint(src)

	if r.opts.Cache.CanUseCache(abs, contentFingerprint, optionsFingerprint, r.opts.Fix) {
		res.Places = r.opts.Cache.GetPlaces(abs)
		res.Status = status.StatusCached
		logger.Debug().Int("places", len(res.Places)).Msg("cache hit")
		return res, nil
	}

	code, places, err := r.processSegments(ctx, proc, abs, src, engine.Options{
		Fix:      r.opts.Fix,
		FixCount: r.opts.FixCount,
		Rules:    r.opts.Registry.RulesFor(rs),
		Compiler: r.opts.Registry.Compiler(),
	})
	if err != nil {
		return res, err
	}
	res.Places = places

	switch {
	case place.HasCrash(places):
		res.Status = status.StatusCrashed
	case r.opts.Fix && !bytes.Equal(code, src):
		r.opts.Cache.RemoveEntry(abs)
		if err := r.opts.Status.WriteFileAtomic(ctx, abs, code); err != nil {
			return res, errors.Errorf("writing fix: %w", err)
		}
		res.Status = status.StatusFixed
	case len(places) > 0:
		res.Status = status.StatusReported
	default:
		res.Status = status.StatusClean
	}

	if res.Status != status.StatusCrashed {
		r.opts.Cache.SetInfo(abs, cache.Fingerprint(code), optionsFingerprint, places)
	}

	logger.Debug().Str("status", res.Status.String()).Int("places", len(places)).Msg("file processed")
	return res, nil
}

// processSegments runs every segment in document order and splices the
// results back. Places come back in file coordinates.
func (r *Runner) processSegments(ctx context.Context, proc processor.Processor, path string, src []byte, opts engine.Options) ([]byte, []place.Place, error) {
	segments, err := proc.Extract(ctx, path, src)
	if err != nil {
		return src, []place.Place{{
			Rule:     place.CrashParser,
			Message:  err.Error(),
			Position: place.Position{Line: 1, Column: 0},
		}}, nil
	}

	var places []place.Place
	rewritten := make([][]byte, 0, len(segments))
	for _, seg := range segments {
		opts.Language = seg.Language
		out, err := engine.Run(ctx, seg.Source, opts)
		if err != nil {
			return nil, nil, err
		}

		code, segPlaces := out.Code, out.Places
		if !r.opts.Ruler.Bulk() && !place.HasCrash(segPlaces) {
			linted, lintPlaces, err := r.opts.Linter.Lint(ctx, path, code, r.opts.Fix)
			if err != nil {
				return nil, nil, errors.Errorf("linting: %w", err)
			}
			code = linted
			segPlaces = append(segPlaces, lintPlaces...)
		}

		places = append(places, seg.ShiftPlaces(segPlaces)...)
		rewritten = append(rewritten, code)
	}

	code, err := proc.Reinsert(src, segments, rewritten)
	if err != nil {
		return nil, nil, errors.Errorf("reinserting segments: %w", err)
	}
	return code, places, nil
}
