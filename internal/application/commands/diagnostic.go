package commands

import (
	"context"

	"ies4ops/internal/application"
)

// DiagnosticCommand explains where data files are looked for and what
// state a database file and the analysis service are in
type DiagnosticCommand struct {
	runner       *application.Runner
	DatabaseCode string
}

// NewDiagnosticCommand creates a new DiagnosticCommand
func NewDiagnosticCommand(runner *application.Runner, databaseCode string) *DiagnosticCommand {
	return &DiagnosticCommand{runner: runner, DatabaseCode: databaseCode}
}

// Execute runs the diagnostic command
func (c *DiagnosticCommand) Execute(ctx context.Context) (*application.Diagnostic, error) {
	return c.runner.Diagnose(ctx, c.DatabaseCode)
}
