// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/invowk/loadremote/internal/feedserver"
	"github.com/invowk/loadremote/pkg/nuget"
)

var (
	feedAddr string

	feedCmd = &cobra.Command{
		Use:   "feed",
		Short: "Serve local packages as a NuGet v3 feed",
	}

	feedServeCmd = &cobra.Command{
		Use:   "serve <dir>",
		Short: "Serve a directory of packages over HTTP",
		Long: `Serve exposes a directory holding <id>.<version>.nupkg files or
<id>/<version>/ directories as a NuGet v3 feed. Unpacked directories are
packed on the fly. Point a reference at it with
"nuget:http://<addr>/v3/index.json?package=<id>".`,
		Args: cobra.ExactArgs(1),
		RunE: runFeedServe,
	}
)

func init() {
	feedServeCmd.Flags().StringVar(&feedAddr, "addr", ":5555", "listen address")
	feedCmd.AddCommand(feedServeCmd)
}

func runFeedServe(cmd *cobra.Command, args []string) error {
	info, err := os.Stat(args[0])
	if err != nil || !info.IsDir() {
		return wrapFailure(fmt.Errorf("%s is not a directory", args[0]), "serve feed", args[0])
	}

	srv := feedserver.New(nuget.NewDirSource(args[0]), feedserver.WithLogger(logger))
	if err := srv.Listen(feedAddr); err != nil {
		return wrapFailure(err, "listen", feedAddr, "Choose another address with --addr")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s serving %s at %s\n", successIcon, CmdStyle.Render(args[0]), srv.URL())

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return srv.Serve(ctx)
}
