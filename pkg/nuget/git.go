// SPDX-License-Identifier: MPL-2.0

package nuget

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
	"github.com/go-git/go-git/v5/storage/memory"
)

// GitSource reads packages from a git repository whose tags are package
// versions. A package is the repository's `<id>/` directory when one
// exists, otherwise the whole tree.
type GitSource struct {
	url    string
	auth   transport.AuthMethod
	logger *log.Logger
}

// NewGitSource creates a GitSource for the repository at url.
func NewGitSource(url string, cfg SourceConfig) *GitSource {
	cfg = cfg.withDefaults()
	return &GitSource{url: url, auth: authFor(url, os.Getenv), logger: cfg.Logger}
}

// URL returns the repository URL.
func (s *GitSource) URL() string { return s.url }

// authFor picks credentials for url. SSH remotes use the first readable
// key in ~/.ssh; HTTPS remotes use a token from the environment.
func authFor(url string, getenv func(string) string) transport.AuthMethod {
	if strings.HasPrefix(url, "git@") || strings.HasPrefix(url, "ssh://") {
		return trySSHAuth()
	}
	return tryHTTPAuth(getenv)
}

func trySSHAuth() transport.AuthMethod {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	for _, name := range []string{"id_ed25519", "id_rsa", "id_ecdsa"} {
		keyPath := filepath.Join(homeDir, ".ssh", name)
		if _, err := os.Stat(keyPath); err != nil {
			continue
		}
		if auth, err := ssh.NewPublicKeysFromFile("git", keyPath, ""); err == nil {
			return auth
		}
	}
	return nil
}

func tryHTTPAuth(getenv func(string) string) transport.AuthMethod {
	for _, c := range []struct{ env, user string }{
		{"GITHUB_TOKEN", "x-access-token"},
		{"GITLAB_TOKEN", "gitlab-ci-token"},
		{"GIT_TOKEN", "git"},
	} {
		if token := getenv(c.env); token != "" {
			return &http.BasicAuth{Username: c.user, Password: token}
		}
	}
	return nil
}

// Versions implements Source. Tags that are not versions are ignored and a
// leading "v" is dropped.
func (s *GitSource) Versions(ctx context.Context, _ string) ([]string, error) {
	remote := git.NewRemote(memory.NewStorage(), &config.RemoteConfig{
		Name: "origin",
		URLs: []string{s.url},
	})
	refs, err := remote.ListContext(ctx, &git.ListOptions{Auth: s.auth})
	if err != nil {
		return nil, fmt.Errorf("failed to list remote refs: %w", err)
	}

	var versions []string
	for _, ref := range refs {
		if !ref.Name().IsTag() {
			continue
		}
		tag := strings.TrimPrefix(ref.Name().Short(), "v")
		if v, _ := semverOf(NormalizeVersion(tag)); v != "" {
			versions = append(versions, tag)
		}
	}
	if len(versions) == 0 {
		return nil, fmt.Errorf("%w: no version tags in %s", ErrPackageNotFound, s.url)
	}
	return SortVersions(versions), nil
}

// Fetch implements Source with a shallow clone of the version's tag.
func (s *GitSource) Fetch(ctx context.Context, id, version, dest string) error {
	tmp, err := os.MkdirTemp("", "loadremote-git-*")
	if err != nil {
		return fmt.Errorf("failed to create clone directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(tmp) }()

	if err := s.cloneShallow(ctx, version, tmp); err != nil {
		return err
	}
	if err := os.RemoveAll(filepath.Join(tmp, ".git")); err != nil {
		return err
	}

	src := tmp
	if items, err := os.ReadDir(tmp); err == nil {
		for _, item := range items {
			if item.IsDir() && strings.EqualFold(item.Name(), id) {
				src = filepath.Join(tmp, item.Name())
				break
			}
		}
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}
	return os.CopyFS(dest, os.DirFS(src))
}

// cloneShallow clones the tag for version, trying the v-prefixed and the
// bare tag name.
func (s *GitSource) cloneShallow(ctx context.Context, version, destPath string) error {
	tagNames := []string{"v" + version, version}
	if strings.HasPrefix(version, "v") {
		tagNames = []string{version, strings.TrimPrefix(version, "v")}
	}

	var lastErr error
	for _, tagName := range tagNames {
		s.logger.Debug("cloning package tag", "url", s.url, "tag", tagName)
		_, err := git.PlainCloneContext(ctx, destPath, false, &git.CloneOptions{
			URL:           s.url,
			Auth:          s.auth,
			ReferenceName: plumbing.NewTagReferenceName(tagName),
			SingleBranch:  true,
			Depth:         1,
		})
		if err == nil {
			return nil
		}
		lastErr = err
		// Clean up failed attempt (best-effort)
		_ = os.RemoveAll(destPath)
		_ = os.MkdirAll(destPath, 0o755)
	}
	return fmt.Errorf("failed to clone %s at version %s: %w", s.url, version, lastErr)
}
