package line

import (
	"io"
	"sync"
)

// PacketReader reads packets in bytes.
type PacketReader interface {
	ReadPacket() ([]byte, error)
}

// PacketWriter writes packets in bytes.
type PacketWriter interface {
	WritePacket([]byte) error
}

// PacketReadWriter is a message-oriented transport.
type PacketReadWriter interface {
	PacketReader
	PacketWriter
	io.Closer
}

// packetLine turns packets into a byte stream: every Write is sent as one
// packet and received packets are read back to back.
type packetLine struct {
	conn PacketReadWriter

	readLock sync.Mutex
	pending  []byte
}

// FromPackets adapts a message-oriented transport to a Line.
func FromPackets(conn PacketReadWriter) Line {
	return &packetLine{conn: conn}
}

func (l *packetLine) Read(b []byte) (int, error) {
	l.readLock.Lock()
	defer l.readLock.Unlock()
	for len(l.pending) == 0 {
		pkt, err := l.conn.ReadPacket()
		if err != nil {
			return 0, err
		}
		l.pending = pkt
	}
	n := copy(b, l.pending)
	l.pending = l.pending[n:]
	return n, nil
}

func (l *packetLine) Write(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	pkt := make([]byte, len(b))
	copy(pkt, b)
	if err := l.conn.WritePacket(pkt); err != nil {
		return 0, err
	}
	return len(b), nil
}

func (l *packetLine) Close() error {
	return l.conn.Close()
}
