package commands

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"
)

var versionPattern = regexp.MustCompile(`^v\d+(\.\d+){0,2}$`)

// InitiateDeploymentInput requests a simulated hot swap of one component.
type InitiateDeploymentInput struct {
	ID        string `json:"id,omitempty"`
	Component string `json:"component"`
	Version   string `json:"version"`
}

type deployer interface {
	InitiateDeployment(ctx context.Context, id, component, version string) error
}

// InitiateDeploymentCommand starts a deployment and reports it as deploying.
type InitiateDeploymentCommand struct {
	deployments deployer
	telemetry   Telemetry
}

// NewInitiateDeploymentCommand creates the command.
func NewInitiateDeploymentCommand(deployments deployer, telemetry Telemetry) *InitiateDeploymentCommand {
	return &InitiateDeploymentCommand{deployments: deployments, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[InitiateDeploymentInput] = (*InitiateDeploymentCommand)(nil)

// NewDeploymentID returns a short random deployment identifier.
func NewDeploymentID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Execute validates the request and hands it to the deployment tracker.
func (c *InitiateDeploymentCommand) Execute(ctx context.Context, msg InitiateDeploymentInput) error {
	if c.deployments == nil {
		return errors.New("deployment command requires a deployment tracker")
	}
	component := strings.TrimSpace(msg.Component)
	if component == "" {
		return fmt.Errorf("%w: deployment requires component", ErrInvalidInput)
	}
	version := strings.TrimSpace(msg.Version)
	if !versionPattern.MatchString(version) {
		return fmt.Errorf("%w: invalid deployment version %q", ErrInvalidInput, msg.Version)
	}
	id := msg.ID
	if id == "" {
		id = NewDeploymentID()
	}
	if err := c.deployments.InitiateDeployment(ctx, id, component, version); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "docintel.deployment.initiate", map[string]any{
		"id":        id,
		"component": component,
		"version":   version,
	})
	return nil
}
