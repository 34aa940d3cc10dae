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

package github

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/google/go-github/v60/github"
	"github.com/rs/zerolog"
	"github.com/walteh/sourcefix/pkg/config"
	"github.com/walteh/sourcefix/pkg/provider"
	"gitlab.com/tozd/go/errors"
)

func init() {
	provider.Register("github", New)
}

// 🎯 Provider implements the provider interface for GitHub
type Provider struct {
	client *github.Client
	logger zerolog.Logger
}

// 🏭 New creates a new GitHub provider. GITHUB_TOKEN is used when set, public
// rule packs work without it.
func New(ctx context.Context) (provider.Provider, error) {
	client := github.NewClient(nil)
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		client = client.WithAuthToken(token)
	}
	return NewWithClient(ctx, client), nil
}

// NewWithClient wraps an existing client, e.g. one pointed at an enterprise
// host or a test server.
func NewWithClient(ctx context.Context, client *github.Client) *Provider {
	return &Provider{
		client: client,
		logger: *zerolog.Ctx(ctx),
	}
}

// 🔍 parseRepo parses a GitHub repository reference. Accepted forms are
// owner/name, github.com/owner/name and https://github.com/owner/name.
func (p *Provider) parseRepo(repo string) (owner, name string, err error) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(repo), ".git")
	trimmed = strings.TrimPrefix(trimmed, "https://")
	trimmed = strings.TrimPrefix(trimmed, "http://")
	trimmed = strings.TrimPrefix(trimmed, "github.com/")
	trimmed = strings.Trim(trimmed, "/")

	parts := strings.Split(trimmed, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errors.Errorf("invalid GitHub repository URL: %s", repo)
	}

	return parts[0], parts[1], nil
}

// 📂 ListFiles returns the blobs below args.Path, relative to it
func (p *Provider) ListFiles(ctx context.Context, args config.RemoteArgs) ([]string, error) {
	owner, name, err := p.parseRepo(args.Repo)
	if err != nil {
		return nil, errors.Errorf("parsing repo: %w", err)
	}

	tree, _, err := p.client.Git.GetTree(ctx, owner, name, args.Ref, true)
	if err != nil {
		return nil, errors.Errorf("getting repository tree: %w", err)
	}

	prefix := strings.Trim(args.Path, "/")
	if prefix != "" {
		prefix += "/"
	}

	var files []string
	for _, entry := range tree.Entries {
		if entry.GetType() != "blob" {
			continue
		}

		file := entry.GetPath()
		if !strings.HasPrefix(file, prefix) {
			continue
		}

		files = append(files, strings.TrimPrefix(file, prefix))
	}
	sort.Strings(files)

	p.logger.Debug().Str("repo", args.Repo).Str("ref", args.Ref).Int("files", len(files)).Msg("listed remote rule pack")

	return files, nil
}

// 🔍 GetFile retrieves a single file's contents. A 404 is reported as
// provider.ErrNotFound.
func (p *Provider) GetFile(ctx context.Context, args config.RemoteArgs, file string) (io.ReadCloser, error) {
	owner, name, err := p.parseRepo(args.Repo)
	if err != nil {
		return nil, errors.Errorf("parsing repo: %w", err)
	}

	full := path.Join(args.Path, file)
	content, _, resp, err := p.client.Repositories.GetContents(ctx, owner, name, full, &github.RepositoryContentGetOptions{
		Ref: args.Ref,
	})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, errors.WithDetails(provider.ErrNotFound, "path", full, "repo", args.Repo)
		}
		return nil, errors.Errorf("getting file content: %w", err)
	}
	if content == nil {
		return nil, errors.Errorf("%s is a directory", full)
	}

	data, err := content.GetContent()
	if err != nil {
		return nil, errors.Errorf("decoding content: %w", err)
	}

	return io.NopCloser(strings.NewReader(data)), nil
}

// 🔗 GetPermalink returns a link to the file at the configured ref
func (p *Provider) GetPermalink(ctx context.Context, args config.RemoteArgs, file string) (string, error) {
	owner, name, err := p.parseRepo(args.Repo)
	if err != nil {
		return "", errors.Errorf("parsing repo: %w", err)
	}

	return fmt.Sprintf("https://github.com/%s/%s/blob/%s/%s", owner, name, args.Ref, path.Join(args.Path, file)), nil
}
