// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/invowk/loadremote/pkg/loadremote"
	"github.com/invowk/loadremote/pkg/nuget"
)

// Log levels accepted in log_level.
const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

const (
	// PackagesPathEnv overrides the default install root.
	PackagesPathEnv = "LOADREMOTE_PACKAGES_PATH"
	// DefaultTokenEnv names the variable holding the feed bearer token.
	DefaultTokenEnv = "LOADREMOTE_FEED_TOKEN"
)

// ErrInvalidConfig is returned when a loaded configuration fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

type (
	// LogLevel is the minimum level written by the logger.
	LogLevel string

	// Config is the effective loadremote configuration.
	Config struct {
		// InstallRoot is the directory packages are installed into.
		InstallRoot string `json:"install_root" mapstructure:"install_root"`
		// ScriptExtension selects which installed files are scripts.
		ScriptExtension string `json:"script_extension" mapstructure:"script_extension"`
		// DefaultSource is used for references without a location.
		DefaultSource string `json:"default_source" mapstructure:"default_source"`
		// MaxDepth bounds package nesting.
		MaxDepth int `json:"max_depth" mapstructure:"max_depth"`
		// PurgeCache empties the install root once before composing.
		PurgeCache bool `json:"purge_cache" mapstructure:"purge_cache"`
		// PurgeHook is a shell snippet run after a purge.
		PurgeHook string   `json:"purge_hook" mapstructure:"purge_hook"`
		LogLevel  LogLevel `json:"log_level" mapstructure:"log_level"`

		HTTP  HTTPConfig  `json:"http" mapstructure:"http"`
		Cache CacheConfig `json:"cache" mapstructure:"cache"`
	}

	// HTTPConfig configures feed access.
	HTTPConfig struct {
		Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
		Retries int           `json:"retries" mapstructure:"retries"`
		// TokenEnv names the environment variable holding a bearer token.
		TokenEnv string `json:"token_env" mapstructure:"token_env"`
	}

	// CacheConfig configures the package index cache.
	CacheConfig struct {
		MemoryEntries int           `json:"memory_entries" mapstructure:"memory_entries"`
		TTL           time.Duration `json:"ttl" mapstructure:"ttl"`
		// RedisURL enables a shared cache tier when set.
		RedisURL string `json:"redis_url" mapstructure:"redis_url"`
	}
)

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		InstallRoot:     DefaultInstallRoot(),
		ScriptExtension: loadremote.DefaultExtension,
		DefaultSource:   nuget.DefaultSource,
		MaxDepth:        loadremote.DefaultMaxDepth,
		LogLevel:        LogLevelInfo,
		HTTP: HTTPConfig{
			Timeout:  nuget.DefaultTimeout,
			Retries:  nuget.DefaultRetries,
			TokenEnv: DefaultTokenEnv,
		},
		Cache: CacheConfig{
			MemoryEntries: nuget.DefaultCacheEntries,
			TTL:           nuget.DefaultCacheTTL,
		},
	}
}

// DefaultInstallRoot returns $LOADREMOTE_PACKAGES_PATH, or
// ~/.loadremote/packages when it is unset.
func DefaultInstallRoot() string {
	if p := os.Getenv(PackagesPathEnv); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".loadremote", "packages")
	}
	return filepath.Join(home, ".loadremote", "packages")
}

// IsValid reports whether l is a known level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true
	}
	return false
}

// Level converts l to a charm log level, defaulting to info.
func (l LogLevel) Level() log.Level {
	lvl, err := log.ParseLevel(string(l))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// Token returns the bearer token from the variable named by TokenEnv.
func (c HTTPConfig) Token() string {
	if c.TokenEnv == "" {
		return ""
	}
	return os.Getenv(c.TokenEnv)
}

// Validate checks constraints that also apply to environment overrides,
// which bypass the CUE schema.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.InstallRoot) == "" {
		errs = append(errs, errors.New("install_root must not be empty"))
	}
	if !strings.HasPrefix(c.ScriptExtension, ".") || len(c.ScriptExtension) < 2 {
		errs = append(errs, fmt.Errorf("script_extension %q must start with '.'", c.ScriptExtension))
	}
	if c.DefaultSource == "" {
		errs = append(errs, errors.New("default_source must not be empty"))
	}
	if c.MaxDepth < 1 || c.MaxDepth > 256 {
		errs = append(errs, fmt.Errorf("max_depth %d out of range 1..256", c.MaxDepth))
	}
	if !c.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is not one of debug, info, warn, error", c.LogLevel))
	}
	if c.HTTP.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("http.timeout %s must be positive", c.HTTP.Timeout))
	}
	if c.HTTP.Retries < 1 || c.HTTP.Retries > 10 {
		errs = append(errs, fmt.Errorf("http.retries %d out of range 1..10", c.HTTP.Retries))
	}
	if c.Cache.MemoryEntries < 0 {
		errs = append(errs, fmt.Errorf("cache.memory_entries %d must not be negative", c.Cache.MemoryEntries))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}
