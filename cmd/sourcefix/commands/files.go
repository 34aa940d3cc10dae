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

package commands

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/sourcefix/pkg/processor"
)

// FilesEnv adds comma separated file names to every run
const FilesEnv = "SOURCEFIX_FILES"

// skipDirs are never descended into when a directory is expanded
var skipDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
}

// 🔎 ExpandFiles turns files, directories and globs into the ordered list of
// files a processor can handle. Paths stay relative to dir when given so.
func ExpandFiles(ctx context.Context, dir string, args []string) ([]string, error) {
	logger := zerolog.Ctx(ctx)

	if env := os.Getenv(FilesEnv); env != "" {
		for _, name := range strings.Split(env, ",") {
			if name = strings.TrimSpace(name); name != "" {
				args = append(args, name)
			}
		}
	}
	if len(args) == 0 {
		args = []string{"."}
	}

	var files []string
	seen := make(map[string]bool)
	add := func(path string) {
		path = filepath.Clean(path)
		if seen[path] || processor.ForFile(path) == nil {
			return
		}
		seen[path] = true
		files = append(files, path)
	}

	for _, arg := range args {
		abs := arg
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(dir, arg)
		}

		info, err := os.Stat(abs)
		switch {
		case err == nil && info.IsDir():
			found, err := walkDir(dir, arg)
			if err != nil {
				return nil, err
			}
			for _, f := range found {
				add(f)
			}
		case err == nil:
			add(arg)
		case os.IsNotExist(err) && isGlob(arg):
			matches, err := doublestar.Glob(os.DirFS(dir), filepath.ToSlash(arg), doublestar.WithFilesOnly())
			if err != nil {
				return nil, errors.Errorf("expanding %q: %w", arg, err)
			}
			if len(matches) == 0 {
				logger.Warn().Str("pattern", arg).Msg("no files matched")
			}
			sort.Strings(matches)
			for _, m := range matches {
				add(filepath.FromSlash(m))
			}
		default:
			return nil, errors.Errorf("reading %s: %w", arg, err)
		}
	}

	logger.Debug().Int("files", len(files)).Strs("args", args).Msg("expanded files")
	return files, nil
}

func isGlob(arg string) bool {
	return strings.ContainsAny(arg, "*?[{") && doublestar.ValidatePattern(filepath.ToSlash(arg))
}

func walkDir(dir, root string) ([]string, error) {
	base := root
	if !filepath.IsAbs(base) {
		base = filepath.Join(dir, root)
	}

	var out []string
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != base && skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return err
		}
		out = append(out, filepath.Join(root, rel))
		return nil
	})
	if err != nil {
		return nil, errors.Errorf("walking %s: %w", root, err)
	}
	return out, nil
}
