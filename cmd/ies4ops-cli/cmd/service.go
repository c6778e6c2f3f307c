package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"ies4ops/internal/application/commands"
)

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Talk to the analysis service",
	Long: `Check, reload or query the analysis service that visualizes the
database files.

Examples:
  ies4ops-cli service status
  ies4ops-cli service reload OP7
  ies4ops-cli service report OP7 OP3
  ies4ops-cli service suggestions
  ies4ops-cli service entity uav-shahed136-drone-op7-001`,
}

var serviceStatusCmd = &cobra.Command{
	Use:   "status [database]",
	Short: "Check that the service is reachable and in sync",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := commands.NewServiceStatusCommand(runner(), databaseArg(args, 0)).Execute(cmdContext(cmd))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if !status.Reachable {
			fmt.Fprintf(out, "Service not reachable: %v\n", status.Err)
			return nil
		}
		fmt.Fprintln(out, "Service reachable")
		if status.Databases != nil {
			fmt.Fprintf(out, "  available: %s\n", strings.Join(status.Databases.Available, " "))
			fmt.Fprintf(out, "  loaded:    %s\n", strings.Join(status.Databases.Loaded, " "))
		}
		if status.FileErr != nil {
			fmt.Fprintf(out, "  %s: %v\n", status.Database, status.FileErr)
			return nil
		}
		if fs := status.FileStatus; fs != nil {
			fmt.Fprintf(out, "  %s: %s, loaded=%t, sync=%s\n", status.Database, fs.FilePath, fs.IsLoaded, fs.SyncStatus)
			fmt.Fprintf(out, "  file:   vehicles=%d areas=%d\n", fs.FileCounts.Vehicles, fs.FileCounts.Areas)
			if fs.MemoryCounts != nil {
				fmt.Fprintf(out, "  memory: vehicles=%d areas=%d\n", fs.MemoryCounts.Vehicles, fs.MemoryCounts.Areas)
			}
		}
		return nil
	},
}

var serviceReloadCmd = &cobra.Command{
	Use:   "reload [database]",
	Short: "Force the service to reload and re-analyze a database",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := commands.NewServiceReloadCommand(runner(), databaseArg(args, 0)).Execute(cmdContext(cmd))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, result.Message)
		printRefresh(out, *result.RefreshReport)
		printWarnings(out, result.Warnings)
		return nil
	},
}

var serviceReportCmd = &cobra.Command{
	Use:   "report [database...]",
	Short: "Print the comprehensive report as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := commands.NewServiceReportCommand(runner(), args).Execute(cmdContext(cmd))
		if err != nil {
			return err
		}

		return writeJSON(cmd, report.Report)
	},
}

var serviceSuggestionsCmd = &cobra.Command{
	Use:   "suggestions [database]",
	Short: "Print filter suggestions for a database",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := commands.NewServiceSuggestionsCommand(runner(), databaseArg(args, 0)).Execute(cmdContext(cmd))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		names := make([]string, 0, len(result.Suggestions))
		for name := range result.Suggestions {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(out, "%s: %s\n", name, strings.Join(result.Suggestions[name], ", "))
		}
		if result.Fallback {
			fmt.Fprintln(out, "(fallback suggestions)")
		}
		return nil
	},
}

var serviceEntityCmd = &cobra.Command{
	Use:   "entity <record-id> [database]",
	Short: "Print the service's copy of one record as JSON",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		entity, err := commands.NewServiceEntityCommand(runner(), args[0], databaseArg(args, 1)).Execute(cmdContext(cmd))
		if err != nil {
			return err
		}
		return writeJSON(cmd, entity)
	},
}

func writeJSON(cmd *cobra.Command, raw []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return fmt.Errorf("malformed response: %w", err)
	}
	buf.WriteByte('\n')
	_, err := cmd.OutOrStdout().Write(buf.Bytes())
	return err
}

func init() {
	serviceCmd.AddCommand(serviceStatusCmd)
	serviceCmd.AddCommand(serviceReloadCmd)
	serviceCmd.AddCommand(serviceReportCmd)
	serviceCmd.AddCommand(serviceSuggestionsCmd)
	serviceCmd.AddCommand(serviceEntityCmd)
	rootCmd.AddCommand(serviceCmd)
}
