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
	"fmt"
	"os"
	"path/filepath"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/sourcefix/pkg/config"
	"github.com/walteh/sourcefix/pkg/status"
)

const (
	// DefaultFileName is the JSON store used when no path is configured
	DefaultFileName = ".sourcefixcache"
	// DefaultBadgerDir is the badger store used when no path is configured
	DefaultBadgerDir = ".sourcefixcache.d"
)

// 🗄️ Store persists raw cache entries keyed by path
type Store interface {
	// Load returns every persisted entry
	Load(ctx context.Context) (map[string][]byte, error)
	// Save persists entries, the complete current set, and forgets removed
	Save(ctx context.Context, entries map[string][]byte, removed []string) error
	// Clear deletes everything the store persisted
	Clear(ctx context.Context) error
	Close() error
	String() string
}

// 🏭 NewStore builds the store selected by args. Relative paths are resolved
// against dir.
func NewStore(ctx context.Context, args *config.CacheArgs, dir string) (Store, error) {
	backend, path := "file", ""
	if args != nil {
		if args.Backend != "" {
			backend = args.Backend
		}
		path = args.Path
	}

	switch backend {
	case "file":
		if path == "" {
			path = DefaultFileName
		}
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		return &FileStore{Path: path}, nil
	case "badger":
		if path == "" {
			path = DefaultBadgerDir
		}
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		return OpenBadger(ctx, path)
	}
	return nil, errors.Errorf("unknown cache backend %q", backend)
}

// 📄 FileStore keeps the cache in a single JSON file
type FileStore struct {
	Path string
}

func (s *FileStore) Load(_ context.Context) (map[string][]byte, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string][]byte{}, nil
		}
		return nil, errors.Errorf("reading %s: %w", s.Path, err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Errorf("decoding %s: %w", s.Path, err)
	}

	out := make(map[string][]byte, len(raw))
	for k, v := range raw {
		out[k] = v
	}
	return out, nil
}

func (s *FileStore) Save(_ context.Context, entries map[string][]byte, _ []string) error {
	raw := make(map[string]json.RawMessage, len(entries))
	for k, v := range entries {
		raw[k] = v
	}

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return errors.Errorf("encoding cache: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return errors.Errorf("creating cache directory: %w", err)
	}
	return status.WriteFileAtomic(s.Path, append(data, '\n'))
}

func (s *FileStore) Clear(_ context.Context) error {
	if err := os.Remove(s.Path); err != nil && !os.IsNotExist(err) {
		return errors.Errorf("removing %s: %w", s.Path, err)
	}
	return nil
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) String() string {
	return "file:" + s.Path
}

var entryPrefix = []byte("entry/")

// 🦡 BadgerStore keeps the cache in a badger database
type BadgerStore struct {
	Dir string
	db  *badger.DB
}

type badgerLogger struct {
	logger *zerolog.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error().Msg(fmt.Sprintf(format, args...))
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn().Msg(fmt.Sprintf(format, args...))
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Trace().Msg(fmt.Sprintf(format, args...))
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Trace().Msg(fmt.Sprintf(format, args...))
}

// OpenBadger opens (creating if needed) a badger store in dir. An empty dir
// opens an in-memory store.
func OpenBadger(ctx context.Context, dir string) (*BadgerStore, error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, errors.Errorf("creating cache directory %s: %w", dir, err)
		}
		opts = badger.DefaultOptions(dir)
	}
	opts = opts.WithNumVersionsToKeep(1).WithLogger(badgerLogger{logger: zerolog.Ctx(ctx)})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Errorf("opening badger cache: %w", err)
	}
	return &BadgerStore{Dir: dir, db: db}, nil
}

func (s *BadgerStore) Load(_ context.Context) (map[string][]byte, error) {
	out := make(map[string][]byte)
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: entryPrefix, PrefetchValues: true, PrefetchSize: 100})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			out[string(item.Key()[len(entryPrefix):])] = v
		}
		return nil
	})
	if err != nil {
		return nil, errors.Errorf("reading badger cache: %w", err)
	}
	return out, nil
}

func (s *BadgerStore) Save(_ context.Context, entries map[string][]byte, removed []string) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, path := range removed {
		if err := wb.Delete(key(path)); err != nil {
			return errors.Errorf("deleting %s: %w", path, err)
		}
	}
	for path, v := range entries {
		if err := wb.Set(key(path), v); err != nil {
			return errors.Errorf("writing %s: %w", path, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return errors.Errorf("flushing badger cache: %w", err)
	}
	return nil
}

func (s *BadgerStore) Clear(_ context.Context) error {
	if err := s.db.DropAll(); err != nil {
		return errors.Errorf("clearing badger cache: %w", err)
	}
	return nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func (s *BadgerStore) String() string {
	if s.Dir == "" {
		return "badger:memory"
	}
	return "badger:" + s.Dir
}

func key(path string) []byte {
	return append(append([]byte(nil), entryPrefix...), path...)
}
