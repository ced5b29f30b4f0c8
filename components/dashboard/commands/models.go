package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gocommand "github.com/goliatone/go-command"
)

// ToggleModelInput flips a model between active and inactive.
type ToggleModelInput struct {
	ModelID string `json:"model_id"`
}

type modelToggler interface {
	ToggleModel(ctx context.Context, modelID string) error
}

// ToggleModelCommand applies a status toggle to the model inventory.
type ToggleModelCommand struct {
	models    modelToggler
	telemetry Telemetry
}

// NewToggleModelCommand creates the command.
func NewToggleModelCommand(models modelToggler, telemetry Telemetry) *ToggleModelCommand {
	return &ToggleModelCommand{models: models, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ToggleModelInput] = (*ToggleModelCommand)(nil)

func (c *ToggleModelCommand) Execute(ctx context.Context, msg ToggleModelInput) error {
	if c.models == nil {
		return errors.New("toggle model command requires a model inventory")
	}
	id := strings.TrimSpace(msg.ModelID)
	if id == "" {
		return fmt.Errorf("%w: toggle requires model id", ErrInvalidInput)
	}
	if err := c.models.ToggleModel(ctx, id); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "docintel.model.toggle", map[string]any{"model_id": id})
	return nil
}
