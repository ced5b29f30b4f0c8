package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gocommand "github.com/goliatone/go-command"
	"github.com/google/uuid"
)

// MaxUploadBytes is the largest document the upload hub accepts.
const MaxUploadBytes int64 = 100 << 20

// StartUploadInput queues one document for simulated upload and processing.
type StartUploadInput struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

type uploader interface {
	StartUpload(ctx context.Context, id, name, mime string, size int64) error
}

// StartUploadCommand validates a document and hands it to the upload hub.
type StartUploadCommand struct {
	uploads   uploader
	telemetry Telemetry
}

// NewStartUploadCommand creates the command.
func NewStartUploadCommand(uploads uploader, telemetry Telemetry) *StartUploadCommand {
	return &StartUploadCommand{uploads: uploads, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[StartUploadInput] = (*StartUploadCommand)(nil)

// NewUploadID returns a short random upload identifier.
func NewUploadID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
}

func (c *StartUploadCommand) Execute(ctx context.Context, msg StartUploadInput) error {
	if c.uploads == nil {
		return errors.New("upload command requires an upload hub")
	}
	name := strings.TrimSpace(msg.Name)
	if name == "" {
		return fmt.Errorf("%w: upload requires file name", ErrInvalidInput)
	}
	if msg.Size < 0 || msg.Size > MaxUploadBytes {
		return fmt.Errorf("%w: upload size %d outside 0..%d bytes", ErrInvalidInput, msg.Size, MaxUploadBytes)
	}
	id := msg.ID
	if id == "" {
		id = NewUploadID()
	}
	if err := c.uploads.StartUpload(ctx, id, name, strings.TrimSpace(msg.Type), msg.Size); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "docintel.upload.start", map[string]any{
		"id":   id,
		"name": name,
		"size": msg.Size,
	})
	return nil
}
