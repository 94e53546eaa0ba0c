// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/invowk/loadremote/internal/command"
	"github.com/invowk/loadremote/pkg/loadremote"
	"github.com/invowk/loadremote/pkg/nuget"
)

// PurgeCacheEnv toggles the purge before composing; an empty value means on.
const PurgeCacheEnv = "LOADREMOTE_PURGE_CACHE"

// installFlags are shared by commands that install packages.
type installFlags struct {
	root   string
	source string
}

func (f *installFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.root, "install-root", "", "directory packages are installed into (default from config)")
	cmd.Flags().StringVar(&f.source, "source", "", "default package source for references without one")
}

func (f *installFlags) installRoot() string {
	if f.root != "" {
		return f.root
	}
	return appConfig.InstallRoot
}

// newInstaller builds the package installer from the configuration. The
// returned cache must be closed by the caller.
func (f *installFlags) newInstaller(ctx context.Context) (*nuget.Installer, nuget.IndexCache) {
	cfg := appConfig

	var tiers []nuget.IndexCache
	if cfg.Cache.MemoryEntries > 0 {
		tiers = append(tiers, nuget.NewMemoryCache(cfg.Cache.MemoryEntries, cfg.Cache.TTL))
	}
	if cfg.Cache.RedisURL != "" {
		rc, err := nuget.NewRedisCache(ctx, cfg.Cache.RedisURL)
		if err != nil {
			logger.Warn("redis index cache unavailable, continuing without it", "url", cfg.Cache.RedisURL, "error", err)
		} else {
			tiers = append(tiers, rc)
		}
	}
	var cache nuget.IndexCache = nuget.NullCache{}
	if len(tiers) > 0 {
		cache = nuget.NewTieredCache(cfg.Cache.TTL, tiers...)
	}

	source := cfg.DefaultSource
	if f.source != "" {
		source = f.source
	}

	inst := nuget.NewInstaller(
		nuget.WithDefaultSource(source),
		nuget.WithSourceConfig(nuget.SourceConfig{
			HTTPClient: &http.Client{Timeout: cfg.HTTP.Timeout},
			Token:      cfg.HTTP.Token(),
			Retries:    cfg.HTTP.Retries,
			Logger:     logger,
		}),
		nuget.WithIndexCache(cache, cfg.Cache.TTL),
		nuget.WithInstallerLogger(logger),
	)
	return inst, cache
}

// composerOptions maps the configuration onto composition options.
func composerOptions() []loadremote.Option {
	return []loadremote.Option{
		loadremote.WithExtension(appConfig.ScriptExtension),
		loadremote.WithMaxDepth(appConfig.MaxDepth),
		loadremote.WithLogger(logger),
	}
}

// purgeRequested resolves the purge switch: the flag wins, then an empty
// LOADREMOTE_PURGE_CACHE, then the config value (which viper already
// overrides from a non-empty variable).
func purgeRequested(cmd *cobra.Command, flagValue string) (bool, error) {
	if cmd.Flags().Changed("purge-cache") {
		return command.ParseSwitch(flagValue)
	}
	if v, ok := os.LookupEnv(PurgeCacheEnv); ok && v == "" {
		return command.ParseSwitch(v)
	}
	return appConfig.PurgeCache, nil
}

// preCompose runs the side tasks due before a composition.
func preCompose(ctx context.Context, root string, purge bool) error {
	registry := command.NewRegistry()
	if purge {
		registry.Add(&command.PurgeCache{Root: root, Hook: appConfig.PurgeHook, Logger: logger}, command.RunOnce)
	}
	return registry.RunAll(ctx)
}
