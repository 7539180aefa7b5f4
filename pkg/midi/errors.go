package midi

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidChannel indicates a channel outside 1..16.
	ErrInvalidChannel = errors.New("invalid channel")
	// ErrNotChannelMessage indicates the status byte is not a channel voice
	// message.
	ErrNotChannelMessage = errors.New("not a channel message")
)

// ErrInvalidData reports a data value out of range.
type ErrInvalidData struct {
	Field string
	Value int
	Max   int
}

// Error implements error.
func (e *ErrInvalidData) Error() string {
	return fmt.Sprintf("invalid %s %d, expect 0..%d", e.Field, e.Value, e.Max)
}
