package uart

import "errors"

var (
	// ErrBaudRate indicates a zero baud rate.
	ErrBaudRate = errors.New("invalid baud rate")
	// ErrBufferSize indicates a ring capacity out of range.
	ErrBufferSize = errors.New("invalid buffer size")
	// ErrNoDevice indicates a Port was created without a device.
	ErrNoDevice = errors.New("no device")
)
