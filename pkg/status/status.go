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

package status

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 📊 FileStatus represents the outcome of processing one file
type FileStatus int

const (
	StatusUnknown  FileStatus = iota
	StatusClean               // No places reported
	StatusReported            // Places reported, file left as is
	StatusFixed               // Fixes were written to disk
	StatusCached              // Places served from the cache
	StatusIgnored             // Skipped by an ignore pattern
	StatusCrashed             // Parser or processor failure
)

// String returns a string representation of FileStatus
func (s FileStatus) String() string {
	switch s {
	case StatusClean:
		return "clean"
	case StatusReported:
		return "reported"
	case StatusFixed:
		return "fixed"
	case StatusCached:
		return "cached"
	case StatusIgnored:
		return "ignored"
	case StatusCrashed:
		return "crashed"
	default:
		return "unknown"
	}
}

// 📄 FileInfo contains the processing result of a file
type FileInfo struct {
	Path     string     // Path as given on the command line
	Status   FileStatus // Outcome
	Places   int        // Number of places reported
	Checksum string     // Content hash after processing
	Error    error      // Any error associated with this file
}

// 💾 FileManager handles all file system operations
type FileManager interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
	WriteFile(ctx context.Context, path string, content []byte) error
	WriteFileAtomic(ctx context.Context, path string, content []byte) error
}

// 📈 StatusReporter tracks file status and reports progress
type StatusReporter interface {
	// Status tracking
	TrackFile(ctx context.Context, path string, info FileInfo)
	GetFileInfo(ctx context.Context, path string) (FileInfo, error)
	ListFiles(ctx context.Context) ([]FileInfo, error)

	// Progress reporting
	StartOperation(ctx context.Context, total int)
	UpdateProgress(ctx context.Context, processed int)
	FinishOperation(ctx context.Context)
}

// 🔧 Manager implements both FileManager and StatusReporter
type Manager struct {
	baseDir   string          // Base directory for relative paths
	logger    *zerolog.Logger // Logger for status updates
	formatter FileFormatter   // Formatter for status messages

	// Status tracking
	mu    sync.RWMutex
	files map[string]FileInfo
	order []string

	// Progress tracking
	total     int
	processed int
}

// 🏭 New creates a new status manager
func New(baseDir string, logger *zerolog.Logger) *Manager {
	return &Manager{
		baseDir:   filepath.Clean(baseDir),
		logger:    logger,
		formatter: NewDefaultFileFormatter(),
		files:     make(map[string]FileInfo),
	}
}

// 🔒 getAbsPath returns the absolute path for a given path
func (m *Manager) getAbsPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(m.baseDir, path)
}

// 🔍 Checksum generates a SHA-256 hash of the content
func Checksum(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

// 💾 WriteFileAtomic writes content next to path and renames it into place,
// keeping the mode of an existing file
func WriteFileAtomic(path string, content []byte) error {
	mode := os.FileMode(0644)
	if st, err := os.Stat(path); err == nil {
		mode = st.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Errorf("creating temp file: %w", err)
	}
	tempPath := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return errors.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tempPath, mode); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("setting temp file mode: %w", err)
	}

	// Rename temp file to target (atomic operation)
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath) // Clean up temp file
		return errors.Errorf("renaming temp file: %w", err)
	}

	return nil
}

// FileManager interface implementation

func (m *Manager) WriteFile(ctx context.Context, path string, content []byte) error {
	absPath := m.getAbsPath(path)

	// Create parent directories
	if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
		return errors.Errorf("creating parent directories: %w", err)
	}

	return m.WriteFileAtomic(ctx, path, content)
}

func (m *Manager) WriteFileAtomic(ctx context.Context, path string, content []byte) error {
	absPath := m.getAbsPath(path)
	zerolog.Ctx(ctx).Debug().Str("path", absPath).Int("bytes", len(content)).Msg("writing file")
	return WriteFileAtomic(absPath, content)
}

func (m *Manager) ReadFile(ctx context.Context, path string) ([]byte, error) {
	content, err := os.ReadFile(m.getAbsPath(path))
	if err != nil {
		return nil, errors.Errorf("reading file: %w", err)
	}
	return content, nil
}

// StatusReporter interface implementation

func (m *Manager) TrackFile(ctx context.Context, path string, info FileInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.files[path]; !ok {
		m.order = append(m.order, path)
	}
	m.files[path] = info

	msg := m.formatter.FormatFileOperation(path, info.Status, info.Places)
	if info.Error != nil {
		msg = m.formatter.FormatError(info.Error)
	}
	m.logger.Debug().Str("path", path).Str("status", info.Status.String()).Int("places", info.Places).Msg(msg)
}

func (m *Manager) GetFileInfo(ctx context.Context, path string) (FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info, ok := m.files[path]
	if !ok {
		return FileInfo{}, errors.Errorf("file not tracked: %s", path)
	}
	return info, nil
}

// ListFiles returns tracked files in the order they were first tracked
func (m *Manager) ListFiles(ctx context.Context) ([]FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	files := make([]FileInfo, 0, len(m.files))
	for _, path := range m.order {
		files = append(files, m.files[path])
	}
	return files, nil
}

// Counts returns how many tracked files ended in each status
func (m *Manager) Counts() map[FileStatus]int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[FileStatus]int)
	for _, info := range m.files {
		counts[info.Status]++
	}
	return counts
}

// TotalPlaces returns the number of places across all tracked files
func (m *Manager) TotalPlaces() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total := 0
	for _, info := range m.files {
		total += info.Places
	}
	return total
}

func (m *Manager) StartOperation(ctx context.Context, total int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.total = total
	m.processed = 0
	msg := m.formatter.FormatProgress(0, total)
	m.logger.Debug().Int("total", total).Msg(msg)
}

func (m *Manager) UpdateProgress(ctx context.Context, processed int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.processed = processed
	msg := m.formatter.FormatProgress(processed, m.total)
	m.logger.Debug().
		Int("processed", processed).
		Int("total", m.total).
		Msg(msg)
}

func (m *Manager) FinishOperation(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	msg := m.formatter.FormatProgress(m.total, m.total)
	m.logger.Debug().
		Int("processed", m.total).
		Int("total", m.total).
		Msg(msg)
}

// StatusNames returns the statuses present in counts, ordered by value
func StatusNames(counts map[FileStatus]int) []FileStatus {
	out := make([]FileStatus, 0, len(counts))
	for s := range counts {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
