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
	"io"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/sourcefix/pkg/cache"
	"github.com/walteh/sourcefix/pkg/config"
	"github.com/walteh/sourcefix/pkg/linter"
	"github.com/walteh/sourcefix/pkg/log"
	"github.com/walteh/sourcefix/pkg/place"
	"github.com/walteh/sourcefix/pkg/plugin"
	"github.com/walteh/sourcefix/pkg/ruler"
	"github.com/walteh/sourcefix/pkg/status"
)

// 🔧 Options contains configuration for the runner
type Options struct {
	// Config is the loaded sourcefix configuration
	Config *config.Config
	// Registry holds the loaded rules
	Registry *plugin.Registry
	// Cache is the batch cache, already opened
	Cache *cache.FileCache
	// Linter runs after the engine on every segment
	Linter linter.Linter
	// Status reads, writes and tracks files
	Status *status.Manager
	// Logger prints the console report
	Logger *log.Logger

	Fix      bool
	FixCount int
	Ruler    ruler.Options
}

// 📄 FileResult is the outcome of one file
type FileResult struct {
	Path   string
	Status status.FileStatus
	Places []place.Place
}

// 📊 Summary is the outcome of one batch
type Summary struct {
	Files []FileResult
	// Edit holds the rule toggles computed by the ruler, if it ran
	Edit ruler.Edit
	// ConfigWritten is the config file the edit was written to
	ConfigWritten string
}

// Places returns every place of the batch, in file order
func (s *Summary) Places() []place.Place {
	lists := make([][]place.Place, 0, len(s.Files))
	for _, f := range s.Files {
		lists = append(lists, f.Places)
	}
	return place.Merge(lists...)
}

// ExitCode is 1 when any place is left, 0 otherwise
func (s *Summary) ExitCode() int {
	for _, f := range s.Files {
		if len(f.Places) > 0 {
			return 1
		}
	}
	return 0
}

// 🏃 Runner processes batches of files
type Runner struct {
	opts Options
}

// 🏭 New creates a new runner with the given options
func New(opts Options) (*Runner, error) {
	if opts.Config == nil {
		return nil, errors.Errorf("config is required")
	}
	if opts.Registry == nil {
		return nil, errors.Errorf("registry is required")
	}
	if opts.Status == nil {
		return nil, errors.Errorf("status manager is required")
	}
	if opts.Cache == nil {
		opts.Cache = &cache.FileCache{}
	}
	if opts.Linter == nil {
		opts.Linter = linter.Noop{}
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, zerolog.Disabled)
	}
	if opts.FixCount <= 0 {
		opts.FixCount = opts.Config.FixCount
	}
	if opts.FixCount <= 0 {
		opts.FixCount = config.DefaultFixCount
	}
	if opts.Ruler.Bulk() {
		opts.Fix = false
	}
	return &Runner{opts: opts}, nil
}
