// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the loadremote CLI commands.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/invowk/loadremote/internal/config"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	verbose bool
	cfgFile string

	// appConfig, appConfigPath and logger are set by the root pre-run hook.
	appConfig     *config.Config
	appConfigPath string

	logger = log.New(io.Discard)

	rootCmd = &cobra.Command{
		Use:   "loadremote",
		Short: "Expand remote #load directives into a single build script",
		Long: TitleStyle.Render("loadremote") + SubtitleStyle.Render(" - remote script loading for build scripts") + `

loadremote resolves '#load "nuget:..."' directives in a build script,
installs the referenced packages (recursively, in dependency order) and
writes the composed script with '#line' markers pointing back at every
original file.

` + SubtitleStyle.Render("Examples:") + `
  loadremote compose build.cake -o build.composed.cake
  loadremote compose build.cake --lock loadremote.lock --graph deps.svg
  loadremote install "nuget:?package=Cake.Recipe&version=3.1.1"
  loadremote inspect build.cake
  loadremote feed serve ./packages --addr :5555`,
		SilenceUsage:      true,
		PersistentPreRunE: initRootConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is <user config dir>/loadremote/config.cue)")

	rootCmd.AddCommand(composeCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(feedCmd)
	rootCmd.AddCommand(configCmd)
}

func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(func(w io.Writer, _ fang.Styles, err error) {
			renderError(w, err, verbose)
		}),
	); err != nil {
		os.Exit(exitCode(err))
	}
}

// initRootConfig loads the configuration and builds the logger shared by
// all subcommands.
func initRootConfig(cmd *cobra.Command, _ []string) error {
	opts := config.LoadOptions{ConfigFilePath: cfgFile}
	if cmd == configInitCmd {
		// The file is about to be created.
		opts.ConfigFilePath = ""
	}
	provider := config.NewProvider(opts)
	cfg, err := provider.Load(cmd.Context())
	if err != nil {
		return err
	}
	appConfig, appConfigPath = cfg, provider.Path()

	level := cfg.LogLevel.Level()
	if verbose {
		level = log.DebugLevel
	}
	logger = log.NewWithOptions(cmd.ErrOrStderr(), log.Options{
		Prefix: "loadremote",
		Level:  level,
	})
	return nil
}
