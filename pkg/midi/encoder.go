package midi

import "io"

// Encoder writes messages to a byte sink such as a serial port.
type Encoder struct {
	w io.ByteWriter
	// RunningStatus omits a channel status byte equal to the previous one.
	RunningStatus bool

	last byte
}

// NewEncoder creates an Encoder writing to w.
func NewEncoder(w io.ByteWriter) *Encoder {
	return &Encoder{w: w}
}

// Encode writes one message.
func (e *Encoder) Encode(m *Message) error {
	switch {
	case IsRealtime(m.Status):
		// real-time bytes leave running status untouched
	case m.Status >= SysExStart:
		e.last = 0
	case e.RunningStatus && m.Status == e.last:
		return e.writeData(m.Data)
	default:
		e.last = m.Status
	}
	if err := e.w.WriteByte(m.Status); err != nil {
		return err
	}
	return e.writeData(m.Data)
}

// ResetStatus forces the next message to carry its status byte.
func (e *Encoder) ResetStatus() {
	e.last = 0
}

func (e *Encoder) writeData(data []byte) error {
	for _, b := range data {
		if err := e.w.WriteByte(b); err != nil {
			return err
		}
	}
	return nil
}
