package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ies4ops/internal/application/commands"
)

var diagnosticCmd = &cobra.Command{
	Use:   "diagnostic [database]",
	Short: "Explain where data files are looked for and their state",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDiagnostic(cmd, cmd.OutOrStdout(), databaseArg(args, 0))
	},
}

var backupsCmd = &cobra.Command{
	Use:   "backups [database]",
	Short: "List backups of a database file, newest first",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := commands.NewListBackupsCommand(runner(), databaseArg(args, 0)).Execute(cmdContext(cmd))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(result.Backups) == 0 {
			fmt.Fprintf(out, "No backups of %s\n", result.DataFile)
			return nil
		}
		for _, b := range result.Backups {
			fmt.Fprintf(out, "%10d  %s\n", b.Size, b.Path)
		}
		return nil
	},
}

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent add and remove operations",
	Long: `Show recent add and remove operations from the journal, newest first.
With --db only that database is shown.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := commands.NewHistoryCommand(runner(), historyLimit, overrides.DefaultDatabase).Execute(cmdContext(cmd))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, "No operations recorded.")
			return nil
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "WHEN\tACTION\tDB\tEQUIPMENT\tRECORD\tREFRESHED\tWARNINGS")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%t\t%d\n",
				e.At.Local().Format("2006-01-02 15:04:05"), e.Action, e.Database, e.Equipment,
				e.RecordID, e.Refreshed, len(e.Warnings))
		}
		return tw.Flush()
	},
}

func runDiagnostic(cmd *cobra.Command, out io.Writer, db string) error {
	d, err := commands.NewDiagnosticCommand(runner(), db).Execute(cmdContext(cmd))
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Database:  %s (%s)\n", d.Database.Code, d.Database.DataFile)
	fmt.Fprintf(out, "Data dir:  %s\n", d.DataDir)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, p := range d.Probes {
		state := "missing"
		if p.Exists {
			state = "found"
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", p.Candidate, p.Path, state)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "File:      %s\n", d.DataFile)
	switch {
	case d.FileErr != nil:
		fmt.Fprintf(out, "  %v\n", d.FileErr)
	case d.LoadErr != nil:
		fmt.Fprintf(out, "  %d bytes, modified %s\n", d.File.Size, d.File.ModTime.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(out, "  invalid: %v\n", d.LoadErr)
	default:
		fmt.Fprintf(out, "  %d bytes, modified %s\n", d.File.Size, d.File.ModTime.Format("2006-01-02 15:04:05"))
		printCounts(out, d.Counts)
	}
	for _, issue := range d.Issues {
		fmt.Fprintf(out, "  issue: %s\n", issue)
	}
	fmt.Fprintf(out, "Backups:   %d\n", len(d.Backups))
	fmt.Fprintf(out, "Catalog:   %d entries, %d databases registered\n", d.Catalog, d.Registry)
	fmt.Fprintf(out, "Journal:   %s\n", enabled(d.Journal))

	switch {
	case d.Service == nil:
		fmt.Fprintln(out, "Service:   disabled")
	case !d.Service.Reachable:
		fmt.Fprintf(out, "Service:   not reachable (%v)\n", d.Service.Err)
	default:
		fmt.Fprintln(out, "Service:   reachable")
		if fs := d.Service.FileStatus; fs != nil {
			fmt.Fprintf(out, "  loaded=%t sync=%s\n", fs.IsLoaded, fs.SyncStatus)
		}
	}
	fmt.Fprintln(out)
	return nil
}

func enabled(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "maximum entries (default 20)")
	rootCmd.AddCommand(diagnosticCmd)
	rootCmd.AddCommand(backupsCmd)
	rootCmd.AddCommand(historyCmd)
}
