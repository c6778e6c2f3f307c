package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	mcpadapter "ies4ops/internal/adapters/mcp"
	"ies4ops/internal/bootstrap"
	"ies4ops/internal/config"
	"ies4ops/internal/logger"
)

func main() {
	configFlag := flag.String("config", "", "config file (default $"+config.EnvConfig+")")
	dataDirFlag := flag.String("data-dir", "", "data directory")
	dbFlag := flag.String("db", "", "default database code")
	noServiceFlag := flag.Bool("no-service", false, "do not contact the analysis service")
	flag.Parse()

	settings, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("ies4ops-mcp: %v", err)
	}
	settings = settings.With(config.Overrides{
		DataDir:         *dataDirFlag,
		DefaultDatabase: *dbFlag,
		NoService:       *noServiceFlag,
	})

	// stdout belongs to the stdio transport
	lg := logger.New(logger.Config{
		Writer:  os.Stderr,
		Format:  logger.FormatText,
		Level:   logger.ParseLevel(settings.Logging.Level),
		NoColor: true,
	})

	env, err := bootstrap.New(settings, lg)
	if err != nil {
		log.Fatalf("ies4ops-mcp: %v", err)
	}
	defer env.Close()

	mcpServer := server.NewMCPServer(
		"ies4ops-mcp",
		"0.1.0",
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(
		mcp.NewTool("ping",
			mcp.WithDescription("Health check, returns pong"),
		),
		func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("pong"), nil
		},
	)

	mcpadapter.RegisterReadTools(mcpServer, env.Runner)
	mcpadapter.RegisterWriteTools(mcpServer, env.Runner)

	if err := server.ServeStdio(mcpServer); err != nil {
		env.Close()
		log.Fatalf("ies4ops-mcp: %v", err)
	}
}
