package commands

import (
	"context"
	"fmt"
	"strings"

	"ies4ops/internal/application"
)

// RemoveResult contains the result of removing equipment from a database
type RemoveResult struct {
	*application.RemoveResult
	Message string
}

// RemoveCommand deletes every record of a catalog entry's kind
type RemoveCommand struct {
	runner       *application.Runner
	EquipmentKey string
	DatabaseCode string
}

// NewRemoveCommand creates a new RemoveCommand
func NewRemoveCommand(runner *application.Runner, equipmentKey, databaseCode string) *RemoveCommand {
	return &RemoveCommand{
		runner:       runner,
		EquipmentKey: strings.TrimSpace(equipmentKey),
		DatabaseCode: strings.TrimSpace(databaseCode),
	}
}

// Validate checks if the remove operation is valid
func (c *RemoveCommand) Validate() error {
	if err := application.ValidateKey("equipmentKey", c.EquipmentKey); err != nil {
		return err
	}
	if c.DatabaseCode != "" {
		return application.ValidateKey("databaseCode", c.DatabaseCode)
	}
	return nil
}

// Execute runs the remove command. Nothing matching is not an error.
func (c *RemoveCommand) Execute(ctx context.Context) (*RemoveResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	res, err := c.runner.Remove(ctx, c.EquipmentKey, c.DatabaseCode)
	if err != nil {
		return nil, fmt.Errorf("failed to remove %s: %w", c.EquipmentKey, err)
	}

	var msg string
	if res.NoOp {
		msg = fmt.Sprintf("No %s records in %s, nothing removed", res.Equipment.PrimaryName(), res.Database.Code)
	} else {
		msg = fmt.Sprintf("Removed %d %s record(s) from %s", res.Delete.Removed, res.Equipment.PrimaryName(), res.Database.Code)
		if res.Delete.TypeRemoved {
			msg += fmt.Sprintf(" (type %s pruned)", res.Equipment.Kind())
		}
	}

	return &RemoveResult{RemoveResult: res, Message: msg}, nil
}
