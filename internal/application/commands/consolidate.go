package commands

import (
	"context"
	"fmt"
	"strings"

	"ies4ops/internal/application"
)

// ConsolidateResult contains the result of merging database files
type ConsolidateResult struct {
	*application.ConsolidateResult
	Message string
}

// ConsolidateCommand merges several database files into one
type ConsolidateCommand struct {
	runner      *application.Runner
	SourceCodes []string
	TargetCode  string
}

// NewConsolidateCommand creates a new ConsolidateCommand. No sources
// means every other registered database; an empty target means the
// combined database.
func NewConsolidateCommand(runner *application.Runner, sourceCodes []string, targetCode string) *ConsolidateCommand {
	var sources []string
	for _, code := range sourceCodes {
		if code = strings.TrimSpace(code); code != "" {
			sources = append(sources, code)
		}
	}
	return &ConsolidateCommand{
		runner:      runner,
		SourceCodes: sources,
		TargetCode:  strings.TrimSpace(targetCode),
	}
}

// Validate checks if the consolidate operation is valid
func (c *ConsolidateCommand) Validate() error {
	for _, code := range c.SourceCodes {
		if err := application.ValidateKey("databaseCode", code); err != nil {
			return err
		}
	}
	if c.TargetCode != "" {
		return application.ValidateKey("databaseCode", c.TargetCode)
	}
	return nil
}

// Execute runs the consolidate command
func (c *ConsolidateCommand) Execute(ctx context.Context) (*ConsolidateResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	res, err := c.runner.Consolidate(ctx, c.SourceCodes, c.TargetCode)
	if err != nil {
		return nil, fmt.Errorf("failed to consolidate: %w", err)
	}

	msg := fmt.Sprintf("Consolidated %d databases into %s: %d records, %d duplicate ids",
		len(res.Sources), res.Database.Code, res.Total(), res.Merge.Duplicates)
	if len(res.Skipped) > 0 {
		msg += fmt.Sprintf(" (skipped %s)", strings.Join(res.Skipped, ", "))
	}

	return &ConsolidateResult{ConsolidateResult: res, Message: msg}, nil
}
