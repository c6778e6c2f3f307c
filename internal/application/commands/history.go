package commands

import (
	"context"
	"fmt"

	"ies4ops/internal/application"
	"ies4ops/internal/domain"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
)

// HistoryCommand lists recent journaled mutations
type HistoryCommand struct {
	runner       *application.Runner
	Limit        int
	DatabaseCode string
}

// NewHistoryCommand creates a new HistoryCommand. Zero limit means the default.
func NewHistoryCommand(runner *application.Runner, limit int, databaseCode string) *HistoryCommand {
	return &HistoryCommand{runner: runner, Limit: limit, DatabaseCode: databaseCode}
}

// Validate checks the limit
func (c *HistoryCommand) Validate() error {
	if c.Limit < 0 || c.Limit > maxHistoryLimit {
		return &application.ValidationError{
			Field:   "limit",
			Message: fmt.Sprintf("limit must be between 1 and %d", maxHistoryLimit),
		}
	}
	return nil
}

// Execute runs the history command
func (c *HistoryCommand) Execute(ctx context.Context) ([]domain.JournalEntry, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	limit := c.Limit
	if limit == 0 {
		limit = defaultHistoryLimit
	}
	return c.runner.History(ctx, limit, c.DatabaseCode)
}
