// SPDX-License-Identifier: MPL-2.0

package nuget

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

type (
	// Source is a place packages are installed from.
	Source interface {
		// Versions lists the published versions of id.
		Versions(ctx context.Context, id string) ([]string, error)
		// Fetch writes the content of one version of id into dest.
		Fetch(ctx context.Context, id, version, dest string) error
	}

	// SourceConfig carries the settings shared by every source.
	SourceConfig struct {
		HTTPClient *http.Client
		// Token is sent as a bearer token to HTTP feeds.
		Token      string
		Retries    int
		RetryDelay time.Duration
		Logger     *log.Logger
	}
)

func (c SourceConfig) withDefaults() SourceConfig {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: DefaultTimeout}
	}
	if c.Retries <= 0 {
		c.Retries = DefaultRetries
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = time.Second
	}
	if c.Logger == nil {
		c.Logger = log.New(io.Discard)
	}
	return c
}

// IsGitLocation reports whether location names a git repository.
func IsGitLocation(location string) bool {
	return strings.HasPrefix(location, "git+") ||
		strings.HasPrefix(location, "git@") ||
		strings.HasSuffix(strings.TrimRight(location, "/"), ".git")
}

// OpenSource returns the Source for location: a git repository, an HTTP
// feed, a file:// URL or an existing directory.
func OpenSource(location string, cfg SourceConfig) (Source, error) {
	cfg = cfg.withDefaults()
	switch {
	case location == "":
		return nil, fmt.Errorf("empty package source")
	case IsGitLocation(location):
		return NewGitSource(strings.TrimPrefix(location, "git+"), cfg), nil
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		return NewHTTPSource(location, cfg), nil
	case strings.HasPrefix(location, "file://"):
		u, err := url.Parse(location)
		if err != nil {
			return nil, fmt.Errorf("invalid source %s: %w", location, err)
		}
		return NewDirSource(u.Path), nil
	}

	info, err := os.Stat(location)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("unsupported package source %q", location)
	}
	return NewDirSource(location), nil
}
