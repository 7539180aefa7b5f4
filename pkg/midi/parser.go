package midi

// Parser parses a received MIDI byte stream.
type Parser struct {
	running byte // current running status, 0 if none
	inSysEx bool
	data    [2]byte
	recvLen int
	// Skipped counts data bytes dropped for lack of a status.
	Skipped int
}

// Reset clears running status and any partial message.
func (p *Parser) Reset() {
	p.running, p.inSysEx, p.recvLen = 0, false, 0
}

// Parse consumes one byte and returns a message when one completes.
// Real-time bytes are returned immediately and do not disturb a message in
// progress. SysEx content is skipped.
func (p *Parser) Parse(b byte) *Message {
	if IsRealtime(b) {
		if b == 0xf9 || b == 0xfd {
			return nil
		}
		return &Message{Status: b}
	}
	if IsStatus(b) {
		return p.parseStatus(b)
	}
	if p.inSysEx {
		return nil
	}
	if p.running == 0 {
		p.Skipped++
		return nil
	}
	p.data[p.recvLen] = b
	p.recvLen++
	if p.recvLen < dataLen(p.running) {
		return nil
	}
	return p.messageReady()
}

func (p *Parser) parseStatus(b byte) *Message {
	p.recvLen = 0
	p.inSysEx = false
	switch n := dataLen(b); {
	case b == SysExStart:
		p.inSysEx, p.running = true, 0
	case n < 0, b == SysExEnd:
		p.running = 0
	case n == 0:
		p.running = 0
		return &Message{Status: b}
	default:
		p.running = b
	}
	return nil
}

func (p *Parser) messageReady() *Message {
	m := &Message{Status: p.running, Data: make([]byte, p.recvLen)}
	copy(m.Data, p.data[:p.recvLen])
	p.recvLen = 0
	// system common messages cancel running status
	if p.running >= SysExStart {
		p.running = 0
	}
	return m
}
