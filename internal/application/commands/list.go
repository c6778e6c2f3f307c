package commands

import (
	"context"

	"ies4ops/internal/application"
	"ies4ops/internal/domain"
)

// ListEquipmentCommand reports catalog presence and counts for one database
type ListEquipmentCommand struct {
	runner       *application.Runner
	DatabaseCode string
}

// NewListEquipmentCommand creates a new ListEquipmentCommand
func NewListEquipmentCommand(runner *application.Runner, databaseCode string) *ListEquipmentCommand {
	return &ListEquipmentCommand{runner: runner, DatabaseCode: databaseCode}
}

// Execute runs the list equipment command
func (c *ListEquipmentCommand) Execute(ctx context.Context) (*application.InspectResult, error) {
	return c.runner.Inspect(ctx, c.DatabaseCode)
}

// ListDatabasesCommand summarizes every registered database
type ListDatabasesCommand struct {
	runner *application.Runner
}

// NewListDatabasesCommand creates a new ListDatabasesCommand
func NewListDatabasesCommand(runner *application.Runner) *ListDatabasesCommand {
	return &ListDatabasesCommand{runner: runner}
}

// Execute runs the list databases command
func (c *ListDatabasesCommand) Execute(ctx context.Context) ([]application.DatabaseSummary, error) {
	return c.runner.Summaries(ctx)
}

// ListCatalogCommand lists the catalog entries
type ListCatalogCommand struct {
	runner *application.Runner
}

// NewListCatalogCommand creates a new ListCatalogCommand
func NewListCatalogCommand(runner *application.Runner) *ListCatalogCommand {
	return &ListCatalogCommand{runner: runner}
}

// Execute runs the list catalog command
func (c *ListCatalogCommand) Execute(ctx context.Context) ([]*domain.Equipment, error) {
	return c.runner.Catalog().All(), nil
}

// ListBackupsCommand lists the backups of a database file
type ListBackupsCommand struct {
	runner       *application.Runner
	DatabaseCode string
}

// NewListBackupsCommand creates a new ListBackupsCommand
func NewListBackupsCommand(runner *application.Runner, databaseCode string) *ListBackupsCommand {
	return &ListBackupsCommand{runner: runner, DatabaseCode: databaseCode}
}

// BackupsResult holds a data file and its backups, newest first
type BackupsResult struct {
	application.Target
	Backups []BackupEntry
}

// BackupEntry is one backup file
type BackupEntry struct {
	Path string
	Size int64
}

// Execute runs the list backups command
func (c *ListBackupsCommand) Execute(ctx context.Context) (*BackupsResult, error) {
	target, backups, err := c.runner.Backups(c.DatabaseCode)
	if err != nil {
		return nil, err
	}
	res := &BackupsResult{Target: target}
	for _, b := range backups {
		res.Backups = append(res.Backups, BackupEntry{Path: b.Path, Size: b.Size})
	}
	return res, nil
}
