// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/invowk/loadremote/internal/dag"
	"github.com/invowk/loadremote/pkg/loadremote"
)

// graphName is the DOT graph name of rendered import graphs.
const graphName = "imports"

var (
	composeInstall installFlags
	composeOutput  string
	composeLock    string
	composeGraph   string
	composePurge   string

	composeCmd = &cobra.Command{
		Use:   "compose <script>",
		Short: "Compose a script with all remote loads expanded",
		Long: `Compose analyzes a script, installs every package referenced by a
'#load "nuget:..."' directive (and the packages those load), and writes the
expanded script to stdout or the file given with -o.`,
		Args: cobra.ExactArgs(1),
		RunE: runCompose,
	}
)

func init() {
	composeInstall.register(composeCmd)
	composeCmd.Flags().StringVarP(&composeOutput, "output", "o", "", "write the composed script to this file instead of stdout")
	composeCmd.Flags().StringVar(&composeLock, "lock", "", "write a lock file recording the installed packages")
	composeCmd.Flags().StringVar(&composeGraph, "graph", "", "write the package import graph (.dot, .svg or .png)")
	composeCmd.Flags().StringVar(&composePurge, "purge-cache", "", "purge the install root before composing (true|false)")
	composeCmd.Flags().Lookup("purge-cache").NoOptDefVal = "true"
}

func runCompose(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	scriptPath := args[0]

	// Checked before anything is installed.
	graphFormat := ""
	if composeGraph != "" {
		var err error
		if graphFormat, err = dag.FormatFor(composeGraph); err != nil {
			return err
		}
	}

	comp, root, err := compose(ctx, cmd, &composeInstall, composePurge, scriptPath)
	if err != nil {
		return err
	}

	if err := writeScript(cmd, composeOutput, comp.Result.Script()); err != nil {
		return wrapFailure(err, "write composed script", composeOutput)
	}
	if composeLock != "" {
		lf := loadremote.NewLockFile(root, comp.Packages, time.Now().UTC())
		if err := loadremote.WriteLockFile(composeLock, lf); err != nil {
			return wrapFailure(err, "write lock file", composeLock)
		}
		logger.Debug("wrote lock file", "path", composeLock, "packages", len(lf.Packages))
	}
	if composeGraph != "" {
		if err := writeGraph(ctx, comp, composeGraph, graphFormat); err != nil {
			return wrapFailure(err, "write import graph", composeGraph)
		}
	}

	logger.Info("composed script", "script", scriptPath, "packages", len(comp.Packages))
	return nil
}

// compose runs the pre-compose commands and the composition itself. It
// returns the install root used.
func compose(ctx context.Context, cmd *cobra.Command, flags *installFlags, purgeFlag, scriptPath string) (*loadremote.Composition, string, error) {
	root := flags.installRoot()

	purge, err := purgeRequested(cmd, purgeFlag)
	if err != nil {
		return nil, "", wrapFailure(err, "parse purge-cache switch", purgeFlag, "Use true or false")
	}
	if err := preCompose(ctx, root, purge); err != nil {
		return nil, "", wrapFailure(err, "purge package cache", root)
	}

	inst, cache := flags.newInstaller(ctx)
	defer func() {
		if cerr := cache.Close(); cerr != nil {
			logger.Debug("closing index cache", "error", cerr)
		}
	}()

	comp, err := loadremote.NewComposer(inst, root, composerOptions()...).Compose(ctx, scriptPath)
	if err != nil {
		return nil, "", wrapFailure(err, "compose script", scriptPath,
			"Re-run with --verbose to see the full error chain")
	}
	return comp, root, nil
}

func writeScript(cmd *cobra.Command, path, content string) error {
	if path == "" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), content)
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

func writeGraph(ctx context.Context, comp *loadremote.Composition, path, format string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	w := bufio.NewWriter(f)
	if err := comp.Graph.Render(ctx, graphName, format, w); err != nil {
		return err
	}
	return w.Flush()
}
