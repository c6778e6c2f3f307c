package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ies4ops/internal/application"
	"ies4ops/internal/application/commands"
)

var listAll bool

var listCmd = &cobra.Command{
	Use:   "list [database]",
	Short: "Show which catalog equipment a database contains",
	Long: `Show every catalog entry with a marker for whether the database file
contains it, followed by the collection counts.

Examples:
  ies4ops-cli list
  ies4ops-cli list OP3
  ies4ops-cli list --all      # counts for every database`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if listAll {
			return runDatabases(cmd, cmd.OutOrStdout())
		}
		return runList(cmd, cmd.OutOrStdout(), databaseArg(args, 0))
	},
}

var databasesCmd = &cobra.Command{
	Use:   "databases",
	Short: "List registered databases with their record counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDatabases(cmd, cmd.OutOrStdout())
	},
}

var catalogCmd = &cobra.Command{
	Use:   "catalog [query]",
	Short: "List or search the equipment catalog",
	Long: `List the equipment catalog, or fuzzy search it by key, name or
designation.

Examples:
  ies4ops-cli catalog
  ies4ops-cli catalog grad`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := ""
		if len(args) > 0 {
			query = args[0]
		}
		results, err := commands.NewSearchCommand(runner().Catalog(), query).Execute(cmdContext(cmd))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(results) == 0 {
			fmt.Fprintln(out, "No results found.")
			return nil
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "KEY\tNAME\tCATEGORY\tTYPE\tCOLLECTION")
		for _, r := range results {
			eq := r.Equipment
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", eq.Key, eq.DisplayName, eq.Category, eq.Kind(), eq.Collection)
		}
		return tw.Flush()
	},
}

func runList(cmd *cobra.Command, out io.Writer, db string) error {
	result, err := commands.NewListEquipmentCommand(runner(), db).Execute(cmdContext(cmd))
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s  %s\n\n", result.Database.Code, result.DataFile)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, p := range result.Equipment {
		mark := " "
		if p.Present() {
			mark = "*"
		}
		detail := strings.Join(p.RecordIDs, ", ")
		if detail == "" && p.TypeDefined {
			detail = "(type only)"
		}
		fmt.Fprintf(tw, "%s %s\t%s\t%s\n", mark, p.Equipment.Key, p.Equipment.DisplayName, detail)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out)
	printCounts(out, result.Counts)
	for _, issue := range result.Issues {
		fmt.Fprintf(out, "warning: %s\n", issue)
	}
	return nil
}

func runDatabases(cmd *cobra.Command, out io.Writer) error {
	summaries, err := commands.NewListDatabasesCommand(runner()).Execute(cmdContext(cmd))
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tFILE\tRECORDS\tSTATUS")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Database.Code, s.Database.DataFile, recordCount(s), summaryStatus(s))
	}
	return tw.Flush()
}

func recordCount(s application.DatabaseSummary) string {
	if s.Err != nil {
		return "-"
	}
	return fmt.Sprint(s.Total)
}

func summaryStatus(s application.DatabaseSummary) string {
	switch {
	case s.Err == nil:
		return "ok"
	case application.IsMissingFile(s.Err):
		return "missing"
	default:
		return s.Err.Error()
	}
}

func init() {
	listCmd.Flags().BoolVar(&listAll, "all", false, "summarize every database")
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(databasesCmd)
	rootCmd.AddCommand(catalogCmd)
}
