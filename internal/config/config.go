// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/invowk/loadremote/internal/issue"
)

const (
	// AppName is the application name.
	AppName = "loadremote"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// LocalConfigFile is looked up in the working directory.
	LocalConfigFile = ".loadremote.cue"
	// EnvPrefix prefixes environment overrides, e.g. LOADREMOTE_MAX_DEPTH.
	EnvPrefix = "LOADREMOTE"
	// MaxFileSize bounds the config file read.
	MaxFileSize = 1 << 20
)

//go:embed config_schema.cue
var configSchema string

// Dir returns the loadremote configuration directory under the user config
// directory.
func Dir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}
	return filepath.Join(base, AppName), nil
}

// Path returns the default config file path.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName+"."+ConfigFileExt), nil
}

func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	if err := loadEnvFile(opts.EnvFile); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("load environment file").
			WithResource(opts.EnvFile).
			WithSuggestion("Check the KEY=value syntax of the file").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(err).
			BuildError()
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, err := resolvePath(opts)
	if err != nil {
		return nil, "", err
	}
	if path != "" {
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the values match the schema printed by 'loadremote config show --schema'").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(path).
			WithSuggestion("Check LOADREMOTE_* environment variables for bad values").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(err).
			BuildError()
	}
	return &cfg, path, nil
}

// resolvePath picks the config file: the explicit path (which must exist),
// then the config directory, then the working directory. Empty means none.
func resolvePath(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'loadremote config init' to write a default configuration").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	dir := opts.ConfigDirPath
	if dir == "" {
		var err error
		if dir, err = Dir(); err != nil {
			return "", err
		}
	}
	if p := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt); fileExists(p) {
		return p, nil
	}
	if fileExists(LocalConfigFile) {
		return LocalConfigFile, nil
	}
	return "", nil
}

func loadEnvFile(path string) error {
	switch path {
	case "-":
		return nil
	case "":
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("install_root", d.InstallRoot)
	v.SetDefault("script_extension", d.ScriptExtension)
	v.SetDefault("default_source", d.DefaultSource)
	v.SetDefault("max_depth", d.MaxDepth)
	v.SetDefault("purge_cache", d.PurgeCache)
	v.SetDefault("purge_hook", d.PurgeHook)
	v.SetDefault("log_level", string(d.LogLevel))
	v.SetDefault("http.timeout", d.HTTP.Timeout)
	v.SetDefault("http.retries", d.HTTP.Retries)
	v.SetDefault("http.token_env", d.HTTP.TokenEnv)
	v.SetDefault("cache.memory_entries", d.Cache.MemoryEntries)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("cache.redis_url", d.Cache.RedisURL)
}

// loadCUEIntoViper validates the file against #Config and merges it into v.
// Fields are optional, so validation is not concrete.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if len(data) > MaxFileSize {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes", path, len(data), MaxFileSize)
	}

	ctx := cuecontext.New()
	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return formatCUEError(userValue.Err(), path)
	}

	unified := schemaValue.LookupPath(cue.ParsePath("#Config")).Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return formatCUEError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return formatCUEError(err, path)
	}
	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// WriteDefault writes the default configuration to path unless a file is
// already there. It reports whether a file was written.
func WriteDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return false, fmt.Errorf("failed to write config file: %w", err)
	}
	return true, nil
}

// Schema returns the embedded CUE schema.
func Schema() string {
	return configSchema
}

// GenerateCUE renders cfg as a config file accepted by the schema.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// loadremote configuration\n\n")
	fmt.Fprintf(&sb, "install_root:     %q\n", cfg.InstallRoot)
	fmt.Fprintf(&sb, "script_extension: %q\n", cfg.ScriptExtension)
	fmt.Fprintf(&sb, "default_source:   %q\n", cfg.DefaultSource)
	fmt.Fprintf(&sb, "max_depth:        %d\n", cfg.MaxDepth)
	fmt.Fprintf(&sb, "purge_cache:      %v\n", cfg.PurgeCache)
	if cfg.PurgeHook != "" {
		fmt.Fprintf(&sb, "purge_hook:       %q\n", cfg.PurgeHook)
	}
	fmt.Fprintf(&sb, "log_level:        %q\n", cfg.LogLevel)

	sb.WriteString("\nhttp: {\n")
	fmt.Fprintf(&sb, "\ttimeout:   %q\n", cfg.HTTP.Timeout.String())
	fmt.Fprintf(&sb, "\tretries:   %d\n", cfg.HTTP.Retries)
	fmt.Fprintf(&sb, "\ttoken_env: %q\n", cfg.HTTP.TokenEnv)
	sb.WriteString("}\n")

	sb.WriteString("\ncache: {\n")
	fmt.Fprintf(&sb, "\tmemory_entries: %d\n", cfg.Cache.MemoryEntries)
	fmt.Fprintf(&sb, "\tttl:            %q\n", cfg.Cache.TTL.String())
	if cfg.Cache.RedisURL != "" {
		fmt.Fprintf(&sb, "\tredis_url:      %q\n", cfg.Cache.RedisURL)
	}
	sb.WriteString("}\n")

	return sb.String()
}
