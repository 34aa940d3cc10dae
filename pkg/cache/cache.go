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

package cache

import (
	"context"
	"encoding/json"
	"os"
	"sort"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/sourcefix/pkg/place"
	"github.com/walteh/sourcefix/pkg/status"
)

// 📦 Entry is the memoized outcome for one file
type Entry struct {
	ContentFingerprint string        `json:"contentFingerprint"`
	OptionsFingerprint string        `json:"optionsFingerprint"`
	Places             []place.Place `json:"places"`
}

func (e Entry) valid() bool {
	if e.ContentFingerprint == "" || e.OptionsFingerprint == "" {
		return false
	}
	for _, p := range e.Places {
		if p.Rule == "" || p.Position.Line < 1 || p.Position.Column < 0 {
			return false
		}
	}
	return true
}

// ⚙️ Options controls how the cache behaves for one batch
type Options struct {
	// Enabled turns the cache on
	Enabled bool
	// Fresh bypasses the cache for reads and writes
	Fresh bool
	Store Store
}

// 🗃️ FileCache is the process-scoped cache of one batch
type FileCache struct {
	opts   Options
	logger *zerolog.Logger

	entries    map[string]Entry
	removed    map[string]bool
	reconciled bool
}

// Fingerprint hashes file content or any other byte string
func Fingerprint(data []byte) string {
	return status.Checksum(data)
}

// 🔓 Open loads the store. A disabled or fresh cache never touches it.
func Open(ctx context.Context, opts Options) (*FileCache, error) {
	c := &FileCache{
		opts:    opts,
		logger:  zerolog.Ctx(ctx),
		entries: make(map[string]Entry),
		removed: make(map[string]bool),
	}
	if !c.active() {
		c.logger.Debug().Bool("enabled", opts.Enabled).Bool("fresh", opts.Fresh).Msg("cache bypassed")
		return c, nil
	}

	raw, err := opts.Store.Load(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Str("store", opts.Store.String()).Msg("cache unreadable, starting empty")
		return c, nil
	}

	for path, data := range raw {
		var e Entry
		if err := json.Unmarshal(data, &e); err != nil || !e.valid() {
			c.logger.Debug().Str("path", path).Msg("dropping malformed cache entry")
			continue
		}
		c.entries[path] = e
	}
	c.logger.Debug().Int("entries", len(c.entries)).Str("store", opts.Store.String()).Msg("cache loaded")

	return c, nil
}

func (c *FileCache) active() bool {
	return c.opts.Enabled && !c.opts.Fresh && c.opts.Store != nil
}

// ✅ CanUseCache reports whether the entry for path is still valid. In fix
// mode an entry with places is not used, the file has to be fixed.
func (c *FileCache) CanUseCache(path, contentFingerprint, optionsFingerprint string, fix bool) bool {
	if !c.active() {
		return false
	}
	e, ok := c.entries[path]
	if !ok {
		return false
	}
	if e.ContentFingerprint != contentFingerprint || e.OptionsFingerprint != optionsFingerprint {
		return false
	}
	if fix && len(e.Places) > 0 {
		return false
	}
	return true
}

// GetPlaces returns the cached places of path. Only meaningful after
// CanUseCache returned true.
func (c *FileCache) GetPlaces(path string) []place.Place {
	e := c.entries[path]
	return append([]place.Place(nil), e.Places...)
}

// 📝 SetInfo records the outcome for path. Outcomes containing a parser
// crash are not recorded.
func (c *FileCache) SetInfo(path, contentFingerprint, optionsFingerprint string, places []place.Place) {
	if !c.active() || place.HasCrash(places) {
		return
	}
	c.entries[path] = Entry{
		ContentFingerprint: contentFingerprint,
		OptionsFingerprint: optionsFingerprint,
		Places:             append([]place.Place{}, places...),
	}
	delete(c.removed, path)
}

// 🗑️ RemoveEntry forgets path. Call it before writing a fix to disk.
func (c *FileCache) RemoveEntry(path string) {
	if !c.active() {
		return
	}
	delete(c.entries, path)
	c.removed[path] = true
}

// Len returns the number of entries held in memory
func (c *FileCache) Len() int {
	return len(c.entries)
}

// Paths returns the cached paths, sorted
func (c *FileCache) Paths() []string {
	out := make([]string, 0, len(c.entries))
	for p := range c.entries {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// 💾 Reconcile writes every entry to the store. Entries of files that no
// longer exist are pruned first. It may only be called once per batch.
func (c *FileCache) Reconcile(ctx context.Context) error {
	if c.reconciled {
		return errors.New("cache already reconciled")
	}
	c.reconciled = true

	if !c.active() {
		return nil
	}

	for path := range c.entries {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			delete(c.entries, path)
			c.removed[path] = true
		}
	}

	data := make(map[string][]byte, len(c.entries))
	for path, e := range c.entries {
		b, err := json.Marshal(e)
		if err != nil {
			return errors.Errorf("encoding cache entry for %s: %w", path, err)
		}
		data[path] = b
	}

	removed := make([]string, 0, len(c.removed))
	for path := range c.removed {
		removed = append(removed, path)
	}
	sort.Strings(removed)

	if err := c.opts.Store.Save(ctx, data, removed); err != nil {
		return errors.Errorf("saving cache: %w", err)
	}
	c.logger.Debug().Int("entries", len(data)).Int("removed", len(removed)).Msg("cache reconciled")
	return nil
}

// Close releases the store
func (c *FileCache) Close() error {
	if c.opts.Store == nil {
		return nil
	}
	return c.opts.Store.Close()
}
