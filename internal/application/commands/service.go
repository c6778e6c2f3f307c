package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"ies4ops/internal/application"
	"ies4ops/internal/ports"
)

// ServiceStatusCommand checks the analysis service
type ServiceStatusCommand struct {
	runner       *application.Runner
	DatabaseCode string
}

// NewServiceStatusCommand creates a new ServiceStatusCommand
func NewServiceStatusCommand(runner *application.Runner, databaseCode string) *ServiceStatusCommand {
	return &ServiceStatusCommand{runner: runner, DatabaseCode: databaseCode}
}

// Execute runs the service status command
func (c *ServiceStatusCommand) Execute(ctx context.Context) (*application.ServiceStatus, error) {
	return c.runner.ServiceStatus(ctx, c.DatabaseCode)
}

// ServiceReloadResult contains the result of an on-demand refresh
type ServiceReloadResult struct {
	*application.RefreshReport
	Message string
}

// ServiceReloadCommand makes the service reload and re-analyze a database
type ServiceReloadCommand struct {
	runner       *application.Runner
	DatabaseCode string
}

// NewServiceReloadCommand creates a new ServiceReloadCommand
func NewServiceReloadCommand(runner *application.Runner, databaseCode string) *ServiceReloadCommand {
	return &ServiceReloadCommand{runner: runner, DatabaseCode: databaseCode}
}

// Execute runs the reload command
func (c *ServiceReloadCommand) Execute(ctx context.Context) (*ServiceReloadResult, error) {
	report, err := c.runner.Refresh(ctx, c.DatabaseCode)
	if err != nil {
		return nil, err
	}

	db := c.DatabaseCode
	if db == "" {
		db = c.runner.DefaultDatabase()
	}
	msg := fmt.Sprintf("Analysis service refreshed %s", db)
	switch {
	case !report.Reachable:
		msg = "Analysis service not reachable"
	case !report.Reloaded || !report.Analyzed:
		msg = fmt.Sprintf("Analysis service refreshed %s with warnings", db)
	}

	return &ServiceReloadResult{RefreshReport: report, Message: msg}, nil
}

// ServiceReportCommand fetches the comprehensive report
type ServiceReportCommand struct {
	runner        *application.Runner
	DatabaseCodes []string
}

// NewServiceReportCommand creates a new ServiceReportCommand
func NewServiceReportCommand(runner *application.Runner, databaseCodes []string) *ServiceReportCommand {
	return &ServiceReportCommand{runner: runner, DatabaseCodes: databaseCodes}
}

// Execute runs the report command
func (c *ServiceReportCommand) Execute(ctx context.Context) (*ports.Report, error) {
	return c.runner.ServiceReport(ctx, c.DatabaseCodes)
}

// ServiceSuggestionsCommand fetches filter suggestions
type ServiceSuggestionsCommand struct {
	runner       *application.Runner
	DatabaseCode string
}

// NewServiceSuggestionsCommand creates a new ServiceSuggestionsCommand
func NewServiceSuggestionsCommand(runner *application.Runner, databaseCode string) *ServiceSuggestionsCommand {
	return &ServiceSuggestionsCommand{runner: runner, DatabaseCode: databaseCode}
}

// Execute runs the suggestions command
func (c *ServiceSuggestionsCommand) Execute(ctx context.Context) (*ports.Suggestions, error) {
	return c.runner.ServiceSuggestions(ctx, c.DatabaseCode)
}

// ServiceEntityCommand fetches one record as the analysis service sees it
type ServiceEntityCommand struct {
	runner       *application.Runner
	DatabaseCode string
	RecordID     string
}

// NewServiceEntityCommand creates a new ServiceEntityCommand
func NewServiceEntityCommand(runner *application.Runner, recordID, databaseCode string) *ServiceEntityCommand {
	return &ServiceEntityCommand{
		runner:       runner,
		RecordID:     strings.TrimSpace(recordID),
		DatabaseCode: strings.TrimSpace(databaseCode),
	}
}

// Execute runs the entity command
func (c *ServiceEntityCommand) Execute(ctx context.Context) (json.RawMessage, error) {
	return c.runner.ServiceEntity(ctx, c.DatabaseCode, c.RecordID)
}
