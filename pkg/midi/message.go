// Package midi encodes and parses the MIDI 1.0 byte stream carried by the
// MIDI serial port.
package midi

import (
	"fmt"
	"io"
)

// Status nibbles of channel voice messages.
const (
	StatusNoteOff         byte = 0x80
	StatusNoteOn          byte = 0x90
	StatusPolyPressure    byte = 0xa0
	StatusControlChange   byte = 0xb0
	StatusProgramChange   byte = 0xc0
	StatusChannelPressure byte = 0xd0
	StatusPitchBend       byte = 0xe0
)

// System bytes.
const (
	SysExStart  byte = 0xf0
	SysExEnd    byte = 0xf7
	TimingClock byte = 0xf8
	Start       byte = 0xfa
	Continue    byte = 0xfb
	Stop        byte = 0xfc
	ActiveSense byte = 0xfe
	Reset       byte = 0xff
)

// PitchBendCenter is the pitch bend value meaning no bend.
const PitchBendCenter = 0x2000

// Message is one MIDI message: a status byte and its data bytes.
type Message struct {
	Status byte
	Data   []byte
}

// IsRealtime indicates a single-byte system real-time message.
func IsRealtime(b byte) bool {
	return b >= TimingClock
}

// IsStatus indicates b is a status byte.
func IsStatus(b byte) bool {
	return b&0x80 != 0
}

// dataLen returns the number of data bytes following a status byte, or -1
// for SysEx and undefined statuses.
func dataLen(status byte) int {
	switch status & 0xf0 {
	case StatusNoteOff, StatusNoteOn, StatusPolyPressure, StatusControlChange, StatusPitchBend:
		return 2
	case StatusProgramChange, StatusChannelPressure:
		return 1
	}
	switch status {
	case 0xf1, 0xf3: // time code quarter frame, song select
		return 1
	case 0xf2: // song position
		return 2
	case 0xf6, SysExEnd:
		return 0
	}
	if IsRealtime(status) {
		return 0
	}
	return -1
}

func channelStatus(kind byte, ch int) (byte, error) {
	if ch < 1 || ch > 16 {
		return 0, ErrInvalidChannel
	}
	return kind | byte(ch-1), nil
}

func data7(field string, val int) (byte, error) {
	if val < 0 || val > 0x7f {
		return 0, &ErrInvalidData{Field: field, Value: val, Max: 0x7f}
	}
	return byte(val), nil
}

func channelMessage(kind byte, ch int, fields []string, vals ...int) (*Message, error) {
	status, err := channelStatus(kind, ch)
	if err != nil {
		return nil, err
	}
	m := &Message{Status: status, Data: make([]byte, len(vals))}
	for n, val := range vals {
		if m.Data[n], err = data7(fields[n], val); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// NoteOn creates a note-on message. Channels are 1..16.
func NoteOn(ch, note, velocity int) (*Message, error) {
	return channelMessage(StatusNoteOn, ch, []string{"note", "velocity"}, note, velocity)
}

// NoteOff creates a note-off message.
func NoteOff(ch, note, velocity int) (*Message, error) {
	return channelMessage(StatusNoteOff, ch, []string{"note", "velocity"}, note, velocity)
}

// ControlChange creates a control change message.
func ControlChange(ch, controller, value int) (*Message, error) {
	return channelMessage(StatusControlChange, ch, []string{"controller", "value"}, controller, value)
}

// ProgramChange creates a program change message.
func ProgramChange(ch, program int) (*Message, error) {
	return channelMessage(StatusProgramChange, ch, []string{"program"}, program)
}

// ChannelPressure creates a channel pressure (aftertouch) message; wind
// controllers send breath on it.
func ChannelPressure(ch, pressure int) (*Message, error) {
	return channelMessage(StatusChannelPressure, ch, []string{"pressure"}, pressure)
}

// PitchBend creates a pitch bend message with a 14-bit value,
// PitchBendCenter meaning no bend.
func PitchBend(ch, value int) (*Message, error) {
	status, err := channelStatus(StatusPitchBend, ch)
	if err != nil {
		return nil, err
	}
	if value < 0 || value > 0x3fff {
		return nil, &ErrInvalidData{Field: "bend", Value: value, Max: 0x3fff}
	}
	return &Message{Status: status, Data: []byte{byte(value & 0x7f), byte(value >> 7)}}, nil
}

// Channel returns the 1-based channel of a channel message, 0 otherwise.
func (m *Message) Channel() int {
	if m.Status >= SysExStart {
		return 0
	}
	return int(m.Status&0x0f) + 1
}

// Kind returns the status with the channel stripped off.
func (m *Message) Kind() byte {
	if m.Status >= SysExStart {
		return m.Status
	}
	return m.Status & 0xf0
}

// Bytes returns encoded bytes for sending.
func (m *Message) Bytes() []byte {
	b := make([]byte, len(m.Data)+1)
	b[0] = m.Status
	copy(b[1:], m.Data)
	return b
}

// WriteTo writes encoded bytes.
func (m *Message) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(m.Bytes())
	return int64(n), err
}

// String implements fmt.Stringer.
func (m *Message) String() string {
	if n := dataLen(m.Status); n < 0 || len(m.Data) < n {
		return fmt.Sprintf("raw %02x % x", m.Status, m.Data)
	}
	switch m.Kind() {
	case StatusNoteOn:
		return fmt.Sprintf("ch%d note-on %d vel %d", m.Channel(), m.Data[0], m.Data[1])
	case StatusNoteOff:
		return fmt.Sprintf("ch%d note-off %d vel %d", m.Channel(), m.Data[0], m.Data[1])
	case StatusPolyPressure:
		return fmt.Sprintf("ch%d poly-pressure %d %d", m.Channel(), m.Data[0], m.Data[1])
	case StatusControlChange:
		return fmt.Sprintf("ch%d cc %d = %d", m.Channel(), m.Data[0], m.Data[1])
	case StatusProgramChange:
		return fmt.Sprintf("ch%d program %d", m.Channel(), m.Data[0])
	case StatusChannelPressure:
		return fmt.Sprintf("ch%d pressure %d", m.Channel(), m.Data[0])
	case StatusPitchBend:
		return fmt.Sprintf("ch%d bend %d", m.Channel(), int(m.Data[0])|int(m.Data[1])<<7)
	}
	return fmt.Sprintf("system %02x % x", m.Status, m.Data)
}
