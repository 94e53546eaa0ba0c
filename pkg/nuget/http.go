// SPDX-License-Identifier: MPL-2.0

package nuget

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

const (
	// DefaultSource is the public NuGet service index.
	DefaultSource = "https://api.nuget.org/v3/index.json"

	// PackageBaseAddressType is the service index resource type of the
	// flat container.
	PackageBaseAddressType = "PackageBaseAddress/3.0.0"

	// DefaultRetries is the number of attempts for transient failures.
	DefaultRetries = 3
	// DefaultTimeout bounds a single HTTP request.
	DefaultTimeout = 30 * time.Second

	// maxJSONResponseBytes bounds index documents (10 MB).
	maxJSONResponseBytes = 10 << 20

	userAgent = "loadremote"
)

type (
	// HTTPSource reads packages from a NuGet v3 feed.
	HTTPSource struct {
		location   string
		httpClient *http.Client
		token      string
		retries    int
		retryDelay time.Duration
		logger     *log.Logger

		mu   sync.Mutex
		base string
	}

	serviceIndex struct {
		Resources []struct {
			ID   string `json:"@id"`
			Type string `json:"@type"`
		} `json:"resources"`
	}

	versionIndex struct {
		Versions []string `json:"versions"`
	}
)

// NewHTTPSource creates an HTTPSource for location, a service index URL
// (ending in index.json) or a flat container base URL.
func NewHTTPSource(location string, cfg SourceConfig) *HTTPSource {
	cfg = cfg.withDefaults()
	return &HTTPSource{
		location:   location,
		httpClient: cfg.HTTPClient,
		token:      cfg.Token,
		retries:    cfg.Retries,
		retryDelay: cfg.RetryDelay,
		logger:     cfg.Logger,
	}
}

// Location returns the feed URL the source was created for.
func (s *HTTPSource) Location() string { return s.location }

// Versions implements Source.
func (s *HTTPSource) Versions(ctx context.Context, id string) ([]string, error) {
	base, err := s.packageBase(ctx)
	if err != nil {
		return nil, err
	}

	var index versionIndex
	url := base + strings.ToLower(id) + "/index.json"
	if err := s.getJSON(ctx, url, &index); err != nil {
		if errors.Is(err, ErrPackageNotFound) {
			return nil, fmt.Errorf("%w: %s on %s", ErrPackageNotFound, id, s.location)
		}
		return nil, err
	}
	return index.Versions, nil
}

// Fetch implements Source by downloading the nupkg and extracting it.
func (s *HTTPSource) Fetch(ctx context.Context, id, version, dest string) (err error) {
	base, err := s.packageBase(ctx)
	if err != nil {
		return err
	}
	lid, lver := strings.ToLower(id), strings.ToLower(version)
	url := fmt.Sprintf("%s%s/%s/%s.%s%s", base, lid, lver, lid, lver, PackageExtension)

	tmp, err := os.CreateTemp("", "loadremote-*"+PackageExtension)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	defer func() {
		if closeErr := tmp.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	s.logger.Debug("downloading package", "url", url)
	err = Retry(ctx, s.retries, s.retryDelay, func() error {
		if _, err := tmp.Seek(0, io.SeekStart); err != nil {
			return err
		}
		if err := tmp.Truncate(0); err != nil {
			return err
		}
		body, err := s.get(ctx, url)
		if err != nil {
			return err
		}
		defer body.Close()
		if _, err := io.Copy(tmp, body); err != nil {
			return &RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrPackageNotFound) {
			return fmt.Errorf("%w: %s %s on %s", ErrPackageNotFound, id, version, s.location)
		}
		return err
	}

	info, err := tmp.Stat()
	if err != nil {
		return err
	}
	return Extract(tmp, info.Size(), dest)
}

// packageBase resolves the flat container base URL, reading the service
// index once.
func (s *HTTPSource) packageBase(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.base != "" {
		return s.base, nil
	}

	if !strings.HasSuffix(strings.ToLower(s.location), "index.json") {
		s.base = strings.TrimRight(s.location, "/") + "/"
		return s.base, nil
	}

	var index serviceIndex
	if err := s.getJSON(ctx, s.location, &index); err != nil {
		return "", fmt.Errorf("reading service index %s: %w", s.location, err)
	}
	for _, r := range index.Resources {
		if r.Type == PackageBaseAddressType && r.ID != "" {
			s.base = strings.TrimRight(r.ID, "/") + "/"
			return s.base, nil
		}
	}
	return "", fmt.Errorf("service index %s has no %s resource", s.location, PackageBaseAddressType)
}

func (s *HTTPSource) getJSON(ctx context.Context, url string, v any) error {
	return Retry(ctx, s.retries, s.retryDelay, func() error {
		body, err := s.get(ctx, url)
		if err != nil {
			return err
		}
		defer body.Close()
		if err := json.NewDecoder(io.LimitReader(body, maxJSONResponseBytes)).Decode(v); err != nil {
			return fmt.Errorf("decoding %s: %w", url, err)
		}
		return nil
	})
}

func (s *HTTPSource) get(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}
	if err := checkStatus(resp.StatusCode); err != nil {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	return resp.Body, nil
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return ErrPackageNotFound
	case code >= 500 || code == http.StatusTooManyRequests:
		return &RetryableError{Err: fmt.Errorf("%w: status %d", ErrNetwork, code)}
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}
