package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"ies4ops/internal/application"
	"ies4ops/internal/application/commands"
)

// RegisterWriteTools adds the mutating tools to the MCP server.
func RegisterWriteTools(s *server.MCPServer, runner *application.Runner) {
	s.AddTool(addTool(), addHandler(runner))
	s.AddTool(removeTool(), removeHandler(runner))
	s.AddTool(reloadTool(), reloadHandler(runner))
	s.AddTool(consolidateTool(), consolidateHandler(runner))
}

// --- add_equipment ---

func addTool() mcp.Tool {
	return mcp.NewTool("add_equipment",
		mcp.WithDescription("Add or update a catalog equipment record in a database file. A timestamped backup is written first."),
		mcp.WithString("equipment",
			mcp.Description("Catalog key (e.g. shahed136, bm21). Use search_catalog to find keys."),
			mcp.Required(),
		),
		mcp.WithString("database",
			mcp.Description("Database code. Omit for the default database."),
		),
	)
}

func addHandler(runner *application.Runner) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cmd := commands.NewAddCommand(runner, req.GetString("equipment", ""), req.GetString("database", ""))
		result, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(withWarnings(result.Message, result.Warnings)), nil
	}
}

// --- remove_equipment ---

func removeTool() mcp.Tool {
	return mcp.NewTool("remove_equipment",
		mcp.WithDescription("Remove every record of a catalog equipment kind from a database file, pruning its type when unused."),
		mcp.WithString("equipment",
			mcp.Description("Catalog key"),
			mcp.Required(),
		),
		mcp.WithString("database",
			mcp.Description("Database code. Omit for the default database."),
		),
	)
}

func removeHandler(runner *application.Runner) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cmd := commands.NewRemoveCommand(runner, req.GetString("equipment", ""), req.GetString("database", ""))
		result, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(withWarnings(result.Message, result.Warnings)), nil
	}
}

// --- reload_service ---

func reloadTool() mcp.Tool {
	return mcp.NewTool("reload_service",
		mcp.WithDescription("Ask the analysis service to reload and re-analyze a database."),
		mcp.WithString("database",
			mcp.Description("Database code. Omit for the default database."),
		),
	)
}

func reloadHandler(runner *application.Runner) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := commands.NewServiceReloadCommand(runner, req.GetString("database", "")).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(withWarnings(result.Message, result.Warnings)), nil
	}
}

// --- consolidate_databases ---

func consolidateTool() mcp.Tool {
	return mcp.NewTool("consolidate_databases",
		mcp.WithDescription("Merge several database files into one, deduplicating records by id. The target is backed up first."),
		mcp.WithString("sources",
			mcp.Description("Comma-separated database codes to merge. Omit for every other registered database."),
		),
		mcp.WithString("target",
			mcp.Description("Database code to write. Omit for the combined database."),
		),
	)
}

func consolidateHandler(runner *application.Runner) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var sources []string
		if s := req.GetString("sources", ""); s != "" {
			sources = strings.Split(s, ",")
		}
		result, err := commands.NewConsolidateCommand(runner, sources, req.GetString("target", "")).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(withWarnings(result.Message, result.Warnings)), nil
	}
}

func withWarnings(msg string, warnings []string) string {
	if len(warnings) == 0 {
		return msg
	}
	var sb strings.Builder
	sb.WriteString(msg)
	for _, w := range warnings {
		fmt.Fprintf(&sb, "\nwarning: %s", w)
	}
	return sb.String()
}
