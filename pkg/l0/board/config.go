package board

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/robotalks/windctl/pkg/l0/hal"
	"github.com/robotalks/windctl/pkg/l0/uart"
)

// NumPorts is the number of serial ports on the board.
const NumPorts = 2

// Port indices.
const (
	ConsolePort = 0
	MIDIPort    = 1
)

// Config describes the board: both serial ports and where their wires go.
type Config struct {
	Ports [NumPorts]uart.Config `json:"ports"`
	// Lines are line URLs (see package line) the ports are wired to.
	Lines [NumPorts]string `json:"lines"`
	// MQTTURL is where status is published, e.g. mqtt://host:1883/wind/.
	// Empty disables publishing.
	MQTTURL        string        `json:"mqtt_url"`
	DeviceID       string        `json:"device_id"`
	StatusInterval time.Duration `json:"-"`
}

var (
	defaultConfig = Config{
		Ports: [NumPorts]uart.Config{
			{
				Name:         "console",
				BaudRate:     115200,
				RxMode:       uart.RxInterrupt,
				TxMode:       uart.TxQueued,
				RxBufferSize: 64,
				TxBufferSize: 64,
				RxIRQ:        0,
				TxIRQ:        1,
			},
			{
				Name:         "midi",
				BaudRate:     31250,
				RxMode:       uart.RxInterrupt,
				TxMode:       uart.TxQueued,
				RxBufferSize: 16,
				TxBufferSize: 32,
				RxIRQ:        2,
				TxIRQ:        3,
			},
		},
		Lines:          [NumPorts]string{"null://", "null://"},
		StatusInterval: time.Second,
	}

	boardFile string
)

func init() {
	if val := os.Getenv("WIND_LINE0"); val != "" {
		defaultConfig.Lines[0] = val
	}
	if val := os.Getenv("WIND_LINE1"); val != "" {
		defaultConfig.Lines[1] = val
	}
	if val := os.Getenv("WIND_MQTT_URL"); val != "" {
		defaultConfig.MQTTURL = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&boardFile, "board", boardFile, "JSON board file, applied over flags.")
	flag.StringVar(&defaultConfig.Lines[0], "line0", defaultConfig.Lines[0], "Line URL of the console port.")
	flag.StringVar(&defaultConfig.Lines[1], "line1", defaultConfig.Lines[1], "Line URL of the MIDI port.")
	flag.Var(baudFlag{&defaultConfig.Ports[0].BaudRate}, "console-baud", "Console port baud rate.")
	flag.Var(baudFlag{&defaultConfig.Ports[1].BaudRate}, "midi-baud", "MIDI port baud rate.")
	flag.StringVar(&defaultConfig.MQTTURL, "mqtt", defaultConfig.MQTTURL, "MQTT URL for status, e.g. mqtt://localhost:1883/wind/.")
	flag.StringVar(&defaultConfig.DeviceID, "device-id", defaultConfig.DeviceID, "Device ID in status topics, machine ID if empty.")
	flag.DurationVar(&defaultConfig.StatusInterval, "status-interval", defaultConfig.StatusInterval, "Status publishing interval.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Resolve applies the board file given on the command line, if any.
func (c *Config) Resolve() error {
	if boardFile == "" {
		return nil
	}
	return c.LoadFile(boardFile)
}

// MustResolve resolves the config and fails on error.
func (c *Config) MustResolve() *Config {
	if err := c.Resolve(); err != nil {
		log.Fatalln(err)
	}
	return c
}

// LoadFile merges a JSON board file into the config. Fields absent from
// the file keep their current values.
func (c *Config) LoadFile(fn string) error {
	data, err := os.ReadFile(fn)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("board file %s: %w", fn, err)
	}
	return c.Validate()
}

// Validate checks both ports and that no interrupt source is shared.
func (c *Config) Validate() error {
	irqs := make(map[hal.IRQ]string)
	for n := range c.Ports {
		port := &c.Ports[n]
		if err := port.Validate(); err != nil {
			return fmt.Errorf("port %d: %w", n, err)
		}
		for _, irq := range []hal.IRQ{port.RxIRQ, port.TxIRQ} {
			if owner, exist := irqs[irq]; exist {
				return fmt.Errorf("port %d: irq %d already used by %s", n, irq, owner)
			}
			irqs[irq] = port.Name
		}
	}
	return nil
}

type baudFlag struct {
	val *uint32
}

func (f baudFlag) String() string {
	if f.val == nil {
		return ""
	}
	return fmt.Sprintf("%d", *f.val)
}

func (f baudFlag) Set(s string) error {
	var baud uint32
	if _, err := fmt.Sscanf(s, "%d", &baud); err != nil || baud == 0 {
		return fmt.Errorf("%w: %q", uart.ErrBaudRate, s)
	}
	*f.val = baud
	return nil
}
