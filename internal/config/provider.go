// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"sync"
)

// LoadOptions selects where configuration is read from.
type LoadOptions struct {
	// ConfigFilePath forces a specific file, which must exist.
	ConfigFilePath string
	// ConfigDirPath replaces the user config directory in the lookup.
	ConfigDirPath string
	// EnvFile is the dotenv file read before the environment.
	// Empty means ".env"; "-" disables dotenv loading.
	EnvFile string
}

// Provider loads configuration with fixed options and remembers the file
// the last successful load read.
type Provider struct {
	opts LoadOptions

	mu   sync.Mutex
	path string
}

// NewProvider creates a Provider for opts.
func NewProvider(opts LoadOptions) *Provider {
	return &Provider{opts: opts}
}

// Load reads and validates the configuration.
func (p *Provider) Load(ctx context.Context) (*Config, error) {
	cfg, path, err := loadWithOptions(ctx, p.opts)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.path = path
	p.mu.Unlock()
	return cfg, nil
}

// Path is the file read by the last successful Load. It is empty when only
// defaults and the environment applied.
func (p *Provider) Path() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.path
}

// LoadWithPath loads once with opts and reports the file read.
func LoadWithPath(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	return loadWithOptions(ctx, opts)
}
