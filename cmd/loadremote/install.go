// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/invowk/loadremote/pkg/loadremote"
)

var (
	installOpts installFlags

	installCmd = &cobra.Command{
		Use:   "install <reference>",
		Short: "Install one package and list its script files",
		Long: `Install resolves a single package reference, installs it into the
install root and prints the script files it provides. Packages loaded by
those files are not installed.`,
		Example: `  loadremote install "nuget:?package=Cake.Recipe"
  loadremote install "nuget:https://my.feed/v3/index.json?package=Tools&version=2.0.0"`,
		Args: cobra.ExactArgs(1),
		RunE: runInstall,
	}
)

func init() {
	installOpts.register(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ref, err := loadremote.ParseReference(args[0])
	if err != nil {
		return wrapFailure(err, "parse package reference", args[0],
			`Use the form "nuget:?package=Id&version=1.2.3"`)
	}

	root := installOpts.installRoot()
	inst, cache := installOpts.newInstaller(ctx)
	defer cache.Close()

	files, err := inst.Install(ctx, ref, appConfig.ScriptExtension, root)
	if err != nil {
		return wrapFailure(err, "install package", ref.Name)
	}

	out := cmd.OutOrStdout()
	version := ""
	if len(files) > 0 {
		version = files[0].Version
	}
	fmt.Fprintf(out, "%s %s %s\n", successIcon, CmdStyle.Render(ref.Name), version)
	for _, f := range files {
		rel, relErr := filepath.Rel(root, f.Path)
		if relErr != nil {
			rel = f.Path
		}
		fmt.Fprintf(out, "  %s %s\n", infoIcon, filepath.ToSlash(rel))
	}
	if len(files) == 0 {
		fmt.Fprintln(out, WarningStyle.Render("  no files with extension "+appConfig.ScriptExtension))
	}
	return nil
}
