// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/invowk/loadremote/internal/command"
)

var (
	cacheRoot string

	cacheCmd = &cobra.Command{
		Use:   "cache",
		Short: "Manage the package install root",
	}

	cachePurgeCmd = &cobra.Command{
		Use:   "purge",
		Short: "Remove every installed package and run the purge hook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root := cacheInstallRoot()
			registry := command.NewRegistry()
			registry.Add(&command.PurgeCache{Root: root, Hook: appConfig.PurgeHook, Logger: logger}, command.RunOnce)
			if err := registry.RunAll(cmd.Context()); err != nil {
				return wrapFailure(err, "purge package cache", root)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s purged %s\n", successIcon, CmdStyle.Render(root))
			return nil
		},
	}

	cacheDirCmd = &cobra.Command{
		Use:   "dir",
		Short: "Print the install root",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), cacheInstallRoot())
		},
	}
)

func init() {
	cacheCmd.PersistentFlags().StringVar(&cacheRoot, "install-root", "", "install root to operate on (default from config)")
	cacheCmd.AddCommand(cachePurgeCmd)
	cacheCmd.AddCommand(cacheDirCmd)
}

func cacheInstallRoot() string {
	if cacheRoot != "" {
		return cacheRoot
	}
	return appConfig.InstallRoot
}
