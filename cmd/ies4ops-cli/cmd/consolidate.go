package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"ies4ops/internal/application"
	"ies4ops/internal/application/commands"
)

var consolidateInto string

var consolidateCmd = &cobra.Command{
	Use:   "consolidate [database...]",
	Short: "Merge database files into one",
	Long: `Merge the record collections of several database files into a single
file. Records are deduplicated by id; the copy with more filled-in fields
wins. Every record lists the files it came from in _sourceFiles.

With no databases named, every other registered database is merged.
Missing files are skipped. An existing target file is backed up first.

Examples:
  ies4ops-cli consolidate
  ies4ops-cli consolidate OP1 OP3 OP7 --into combined`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		result, err := commands.NewConsolidateCommand(runner(), args, consolidateInto).Execute(cmdContext(cmd))
		if err != nil {
			return err
		}

		fmt.Fprintln(out, result.Message)
		fmt.Fprintf(out, "  file:   %s\n", result.DataFile)
		if result.BackupPath != "" {
			fmt.Fprintf(out, "  backup: %s\n", result.BackupPath)
		}
		if result.Merge.Upgraded > 0 {
			fmt.Fprintf(out, "  %d duplicates replaced by a more complete record\n", result.Merge.Upgraded)
		}
		if result.Merge.MissingID > 0 {
			fmt.Fprintf(out, "  %d records without id dropped\n", result.Merge.MissingID)
		}
		printCounts(out, result.Counts)
		printRefresh(out, result.Refresh)
		printWarnings(out, result.Warnings)
		return nil
	},
}

func init() {
	consolidateCmd.Flags().StringVar(&consolidateInto, "into", application.DefaultConsolidationTarget, "database to write")
	rootCmd.AddCommand(consolidateCmd)
}
