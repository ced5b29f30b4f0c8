package commands

import "errors"

var (
	// ErrInvalidInput marks command payloads that fail validation.
	ErrInvalidInput = errors.New("commands: invalid input")
	// ErrNotFound marks commands addressing an unknown model, widget or tab.
	ErrNotFound = errors.New("commands: not found")
)
