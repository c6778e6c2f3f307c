package commands

import (
	"context"
	"fmt"
	"strings"

	"ies4ops/internal/application"
)

// AddResult contains the result of adding equipment to a database
type AddResult struct {
	*application.AddResult
	Message string
}

// AddCommand upserts a catalog entry into a database file
type AddCommand struct {
	runner       *application.Runner
	EquipmentKey string
	DatabaseCode string
}

// NewAddCommand creates a new AddCommand. An empty databaseCode means the
// configured default.
func NewAddCommand(runner *application.Runner, equipmentKey, databaseCode string) *AddCommand {
	return &AddCommand{
		runner:       runner,
		EquipmentKey: strings.TrimSpace(equipmentKey),
		DatabaseCode: strings.TrimSpace(databaseCode),
	}
}

// Validate checks if the add operation is valid
func (c *AddCommand) Validate() error {
	if err := application.ValidateKey("equipmentKey", c.EquipmentKey); err != nil {
		return err
	}
	if c.DatabaseCode != "" {
		return application.ValidateKey("databaseCode", c.DatabaseCode)
	}
	return nil
}

// Execute runs the add command
func (c *AddCommand) Execute(ctx context.Context) (*AddResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	res, err := c.runner.Add(ctx, c.EquipmentKey, c.DatabaseCode)
	if err != nil {
		return nil, fmt.Errorf("failed to add %s: %w", c.EquipmentKey, err)
	}

	verb := "Added"
	if res.Upsert.Replaced {
		verb = "Updated"
	}
	msg := fmt.Sprintf("%s %s in %s as %s", verb, res.Equipment.PrimaryName(), res.Database.Code, res.Upsert.ID)
	if res.Upsert.TypeAdded {
		msg += fmt.Sprintf(" (new type %s)", res.Equipment.Kind())
	}

	return &AddResult{AddResult: res, Message: msg}, nil
}
