package console

import (
	"errors"
	"fmt"
)

var (
	// ErrUsage indicates wrong command arguments; the usage is printed.
	ErrUsage = errors.New("usage")
	// ErrNoHistory indicates a history reference that does not exist.
	ErrNoHistory = errors.New("no such history entry")
)

// UnknownCommandError is returned for a command name not registered.
type UnknownCommandError struct {
	Name string
}

// Error implements error.
func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command %q, try help", e.Name)
}
