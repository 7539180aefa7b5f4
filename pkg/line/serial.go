package line

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/tarm/serial"

	"github.com/robotalks/windctl/pkg/l0/hal"
)

// DefaultSerialBaud is used when a serial URL has no baud parameter.
const DefaultSerialBaud = 31250

// SerialConfig builds the OS serial port settings from
// serial:///dev/ttyUSB0?baud=115200&parity=even&timeout=100ms.
func SerialConfig(u *url.URL) (*serial.Config, error) {
	conf := &serial.Config{Name: u.Path, Baud: DefaultSerialBaud}
	if conf.Name == "" {
		conf.Name = u.Opaque
	}
	if conf.Name == "" {
		return nil, fmt.Errorf("serial line without device: %s", u)
	}
	q := u.Query()
	if val := q.Get("baud"); val != "" {
		baud, err := strconv.Atoi(val)
		if err != nil || baud <= 0 {
			return nil, fmt.Errorf("%w: %q", hal.ErrInvalidBaudRate, val)
		}
		conf.Baud = baud
	}
	parity, err := hal.ParseParity(q.Get("parity"))
	if err != nil {
		return nil, err
	}
	switch parity {
	case hal.ParityEven:
		conf.Parity = serial.ParityEven
	case hal.ParityOdd:
		conf.Parity = serial.ParityOdd
	default:
		conf.Parity = serial.ParityNone
	}
	if val := q.Get("timeout"); val != "" {
		if conf.ReadTimeout, err = time.ParseDuration(val); err != nil {
			return nil, err
		}
	}
	return conf, nil
}

func openSerial(u *url.URL) (Line, error) {
	conf, err := SerialConfig(u)
	if err != nil {
		return nil, err
	}
	port, err := serial.OpenPort(conf)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", conf.Name, err)
	}
	return port, nil
}
