package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"ies4ops/internal/application"
	"ies4ops/internal/application/commands"
)

var addCmd = &cobra.Command{
	Use:   "add <equipment> [database]",
	Short: "Add or update equipment in a database file",
	Long: `Add a catalog equipment record to a database file, or replace the
record that already represents it. The record's type definition is added
when missing.

Examples:
  ies4ops-cli add shahed136          # default database
  ies4ops-cli add bm21 OP3
  ies4ops-cli add su25 --db russia`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAdd(cmd, cmd.OutOrStdout(), args[0], databaseArg(args, 1))
	},
}

var removeCmd = &cobra.Command{
	Use:     "remove <equipment> [database]",
	Aliases: []string{"del", "rm"},
	Short:   "Remove equipment from a database file",
	Long: `Remove every record of a catalog equipment kind from a database file.
The type definition is removed too when no other record uses it.
Removing equipment that is not present changes nothing.

Examples:
  ies4ops-cli remove shahed136 OP7
  ies4ops-cli rm orlan10`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRemove(cmd, cmd.OutOrStdout(), args[0], databaseArg(args, 1))
	},
}

func runAdd(cmd *cobra.Command, out io.Writer, key, db string) error {
	ctx := cmdContext(cmd)

	result, err := commands.NewAddCommand(runner(), key, db).Execute(ctx)
	if err != nil {
		return explain(err, key)
	}

	fmt.Fprintln(out, result.Message)
	fmt.Fprintf(out, "  file:   %s\n", result.DataFile)
	fmt.Fprintf(out, "  backup: %s\n", result.BackupPath)
	printCounts(out, result.Counts)
	printRefresh(out, result.Refresh)
	printWarnings(out, result.Warnings)
	return nil
}

func runRemove(cmd *cobra.Command, out io.Writer, key, db string) error {
	ctx := cmdContext(cmd)

	result, err := commands.NewRemoveCommand(runner(), key, db).Execute(ctx)
	if err != nil {
		return explain(err, key)
	}

	fmt.Fprintln(out, result.Message)
	fmt.Fprintf(out, "  file:   %s\n", result.DataFile)
	fmt.Fprintf(out, "  backup: %s\n", result.BackupPath)
	if !result.NoOp {
		for _, id := range result.Delete.RemovedIDs {
			fmt.Fprintf(out, "  removed %s\n", id)
		}
		printCounts(out, result.Counts)
		printRefresh(out, result.Refresh)
	}
	printWarnings(out, result.Warnings)
	return nil
}

func printCounts(out io.Writer, counts map[string]int) {
	for _, name := range application.SortedCounts(counts) {
		fmt.Fprintf(out, "  %-16s %d\n", name, counts[name])
	}
}

func printRefresh(out io.Writer, r application.RefreshReport) {
	switch {
	case !r.Attempted:
		return
	case !r.Reachable:
		fmt.Fprintln(out, "  service: not reachable")
	case r.Reloaded && r.Analyzed:
		fmt.Fprintf(out, "  service: reloaded, %d nodes, %d edges\n", r.NodeCount, r.EdgeCount)
	default:
		fmt.Fprintf(out, "  service: reloaded=%t analyzed=%t\n", r.Reloaded, r.Analyzed)
	}
	if r.DelayedScheduled {
		fmt.Fprintln(out, "  service: second reload scheduled")
	}
}

func suggestKeys(key string) []string {
	return commands.Suggest(runner().Catalog(), key, 3)
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func init() {
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(removeCmd)
}
