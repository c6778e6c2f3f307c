package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"ies4ops/internal/application"
	"ies4ops/internal/application/commands"
	"ies4ops/internal/domain"
)

// RegisterReadTools adds all read-only tools to the MCP server.
func RegisterReadTools(s *server.MCPServer, runner *application.Runner) {
	s.AddTool(listDatabasesTool(), listDatabasesHandler(runner))
	s.AddTool(listEquipmentTool(), listEquipmentHandler(runner))
	s.AddTool(inspectDatabaseTool(), inspectDatabaseHandler(runner))
	s.AddTool(searchCatalogTool(), searchCatalogHandler(runner))
	s.AddTool(diagnosticTool(), diagnosticHandler(runner))
	s.AddTool(historyTool(), historyHandler(runner))
}

// --- list_databases ---

func listDatabasesTool() mcp.Tool {
	return mcp.NewTool("list_databases",
		mcp.WithDescription("List every registered database with its data file and record counts."),
	)
}

func listDatabasesHandler(runner *application.Runner) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		summaries, err := commands.NewListDatabasesCommand(runner).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return formatEntities(summaries, formatSummary)
	}
}

// --- list_equipment ---

func listEquipmentTool() mcp.Tool {
	return mcp.NewTool("list_equipment",
		mcp.WithDescription("Show which catalog equipment is present in a database, with collection counts."),
		mcp.WithString("database",
			mcp.Description("Database code (e.g. OP7, russia). Omit for the default database."),
		),
	)
}

func listEquipmentHandler(runner *application.Runner) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res, err := commands.NewListEquipmentCommand(runner, req.GetString("database", "")).Execute(ctx)
		if err != nil {
			return toolError(err)
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "%s  %s\n", res.Database.Code, res.DataFile)
		for _, p := range res.Equipment {
			mark := "-"
			if p.Present() {
				mark = "+"
			}
			fmt.Fprintf(&sb, "%s %s  %s", mark, p.Equipment.Key, p.Equipment.DisplayName)
			if len(p.RecordIDs) > 0 {
				fmt.Fprintf(&sb, "  [%s]", strings.Join(p.RecordIDs, ", "))
			}
			sb.WriteByte('\n')
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- inspect_database ---

func inspectDatabaseTool() mcp.Tool {
	return mcp.NewTool("inspect_database",
		mcp.WithDescription("Show the collection counts of a database file and any structural issues."),
		mcp.WithString("database",
			mcp.Description("Database code. Omit for the default database."),
		),
	)
}

func inspectDatabaseHandler(runner *application.Runner) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res, err := commands.NewListEquipmentCommand(runner, req.GetString("database", "")).Execute(ctx)
		if err != nil {
			return toolError(err)
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "%s  %s\n", res.Database.Code, res.DataFile)
		for _, name := range application.SortedCounts(res.Counts) {
			fmt.Fprintf(&sb, "%s: %d\n", name, res.Counts[name])
		}
		for _, issue := range res.Issues {
			fmt.Fprintf(&sb, "issue %s\n", issue)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- search_catalog ---

func searchCatalogTool() mcp.Tool {
	return mcp.NewTool("search_catalog",
		mcp.WithDescription("Fuzzy search the equipment catalog by key, name or designation."),
		mcp.WithString("query",
			mcp.Description("Search query"),
			mcp.Required(),
		),
	)
}

func searchCatalogHandler(runner *application.Runner) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := req.GetString("query", "")
		if query == "" {
			return toolError(fmt.Errorf("query is required"))
		}

		results, err := commands.NewSearchCommand(runner.Catalog(), query).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		if len(results) == 0 {
			return mcp.NewToolResultText("No results found."), nil
		}

		var sb strings.Builder
		for _, r := range results {
			fmt.Fprintf(&sb, "%s  %s  %s\n", r.Equipment.Key, r.Equipment.DisplayName, r.MatchedText)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- diagnostic ---

func diagnosticTool() mcp.Tool {
	return mcp.NewTool("diagnostic",
		mcp.WithDescription("Explain where data files are looked for and the state of a database file."),
		mcp.WithString("database",
			mcp.Description("Database code. Omit for the default database."),
		),
	)
}

func diagnosticHandler(runner *application.Runner) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		d, err := commands.NewDiagnosticCommand(runner, req.GetString("database", "")).Execute(ctx)
		if err != nil {
			return toolError(err)
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "data dir: %s\n", d.DataDir)
		for _, p := range d.Probes {
			fmt.Fprintf(&sb, "  probe %s -> %s exists=%t\n", p.Candidate, p.Path, p.Exists)
		}
		fmt.Fprintf(&sb, "file: %s\n", d.DataFile)
		switch {
		case d.FileErr != nil:
			fmt.Fprintf(&sb, "  error: %v\n", d.FileErr)
		case d.LoadErr != nil:
			fmt.Fprintf(&sb, "  size %d, invalid: %v\n", d.File.Size, d.LoadErr)
		default:
			fmt.Fprintf(&sb, "  size %d, modified %s\n", d.File.Size, d.File.ModTime.Format("2006-01-02 15:04:05"))
		}
		for _, issue := range d.Issues {
			fmt.Fprintf(&sb, "  issue %s\n", issue)
		}
		fmt.Fprintf(&sb, "backups: %d\n", len(d.Backups))
		if d.Service != nil {
			fmt.Fprintf(&sb, "service reachable: %t\n", d.Service.Reachable)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- history ---

func historyTool() mcp.Tool {
	return mcp.NewTool("history",
		mcp.WithDescription("List recent add and remove operations from the journal."),
		mcp.WithNumber("limit",
			mcp.Description("Maximum entries (default 20)"),
		),
		mcp.WithString("database",
			mcp.Description("Only show this database"),
		),
	)
}

func historyHandler(runner *application.Runner) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cmd := commands.NewHistoryCommand(runner, req.GetInt("limit", 0), req.GetString("database", ""))
		entries, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return formatEntities(entries, formatEntry)
	}
}

// --- helpers ---

func toolError(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}

func formatEntities[T any](entities []T, format func(T) string) (*mcp.CallToolResult, error) {
	if len(entities) == 0 {
		return mcp.NewToolResultText("No results."), nil
	}
	var sb strings.Builder
	for _, e := range entities {
		sb.WriteString(format(e))
		sb.WriteByte('\n')
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func formatSummary(s application.DatabaseSummary) string {
	if s.Err != nil {
		return fmt.Sprintf("%s  %s  error: %v", s.Database.Code, s.Database.DataFile, s.Err)
	}
	return fmt.Sprintf("%s  %s  %d records", s.Database.Code, s.Database.DataFile, s.Total)
}

func formatEntry(e domain.JournalEntry) string {
	line := fmt.Sprintf("%s  %s  %s  %s", e.At.Format("2006-01-02 15:04:05"), e.Action, e.Database, e.Equipment)
	if e.RecordID != "" {
		line += "  " + e.RecordID
	}
	if len(e.Warnings) > 0 {
		line += fmt.Sprintf("  (%d warnings)", len(e.Warnings))
	}
	return line
}
