// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/invowk/loadremote/internal/config"
)

var (
	configShowSchema bool

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Show or initialize the configuration",
	}

	configShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as CUE",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			if configShowSchema {
				fmt.Fprint(cmd.OutOrStdout(), config.Schema())
				return
			}
			out := cmd.OutOrStdout()
			if appConfigPath != "" {
				fmt.Fprintf(out, "// loaded from %s\n", appConfigPath)
			} else {
				fmt.Fprintln(out, "// defaults and environment")
			}
			fmt.Fprint(out, config.GenerateCUE(appConfig))
		},
	}

	configInitCmd = &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file if none exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := cfgFile
			if path == "" {
				var err error
				if path, err = config.Path(); err != nil {
					return err
				}
			}
			created, err := config.WriteDefault(path)
			if err != nil {
				return wrapFailure(err, "write configuration", path)
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "%s wrote %s\n", successIcon, CmdStyle.Render(path))
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s already exists\n", infoIcon, CmdStyle.Render(path))
			}
			return nil
		},
	}
)

func init() {
	configShowCmd.Flags().BoolVar(&configShowSchema, "schema", false, "print the configuration schema instead")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
