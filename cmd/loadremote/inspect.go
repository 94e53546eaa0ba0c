// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/invowk/loadremote/pkg/loadremote"
)

var (
	inspectInstall installFlags

	inspectCmd = &cobra.Command{
		Use:   "inspect <script>",
		Short: "Compose a script and summarize what it pulls in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			comp, _, err := compose(cmd.Context(), cmd, &inspectInstall, "", args[0])
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), args[0], comp)
			return nil
		},
	}
)

func init() {
	inspectInstall.register(inspectCmd)
}

func printSummary(w io.Writer, scriptPath string, comp *loadremote.Composition) {
	fmt.Fprintln(w, TitleStyle.Render("Composition")+" "+CmdStyle.Render(scriptPath))
	fmt.Fprintf(w, "%s %d lines, %d packages\n\n", infoIcon, len(comp.Result.Lines), len(comp.Packages))

	if len(comp.Packages) > 0 {
		rows := make([][]string, 0, len(comp.Packages))
		for _, p := range comp.Packages {
			name := strings.Repeat("  ", p.Depth) + p.Reference.Name
			parent := "script"
			if p.Parent != "" {
				if ref, err := loadremote.ParseReference(p.Parent); err == nil {
					parent = ref.Name
				}
			}
			rows = append(rows, []string{name, p.Version, parent, strconv.Itoa(len(p.Files))})
		}
		t := table.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(tableBorderStyle).
			Headers("Package", "Version", "Loaded by", "Files").
			Rows(rows...).
			StyleFunc(func(row, _ int) lipgloss.Style {
				if row == -1 { // header
					return tableHeaderStyle
				}
				return tableCellStyle
			})
		fmt.Fprintln(w, t.Render())
		fmt.Fprintln(w)
	}

	res := comp.Result
	printList(w, "Tools", res.Tools)
	printList(w, "Addins", res.Addins)
	printList(w, "Namespaces", res.Namespaces)
	printList(w, "References", res.References)
}

func printList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintln(w, SubtitleStyle.Render(title+":"))
	for _, item := range items {
		fmt.Fprintf(w, "  %s %s\n", infoIcon, item)
	}
}
