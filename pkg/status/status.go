// Package status reports port state and counters of a board as protobuf
// messages, periodically published over MQTT.
package status

import (
	"fmt"
	"time"

	"github.com/golang/protobuf/proto"

	"github.com/robotalks/windctl/pkg/l0/uart"
)

// FromPort converts a port snapshot.
func FromPort(index int, s uart.Status) *PortStatus {
	return &PortStatus{
		Index:       int32(index),
		Name:        s.Name,
		Active:      s.State == uart.StateActive,
		BaudRate:    s.BaudRate,
		RxMode:      s.RxMode.String(),
		TxMode:      s.TxMode.String(),
		Errors:      s.Errors,
		Framing:     s.Stats.Framing,
		Parity:      s.Stats.Parity,
		Overrun:     s.Stats.Overrun,
		Dropped:     s.Stats.Dropped,
		Received:    s.Stats.Received,
		Transmitted: s.Stats.Transmitted,
		RxHighWater: s.Stats.RxHighWater,
		RxBuffered:  uint32(s.Buffered),
		RxCapacity:  uint32(s.RxBufSize),
		TxPending:   uint32(s.Pending),
		TxCapacity:  uint32(s.TxBufSize),
	}
}

// Collect builds a BoardStatus from port snapshots in index order.
func Collect(deviceID string, seq uint64, at time.Time, ports []uart.Status) *BoardStatus {
	m := &BoardStatus{
		DeviceId:  deviceID,
		Sequence:  seq,
		Timestamp: at.UnixNano(),
		Ports:     make([]*PortStatus, len(ports)),
	}
	for n, s := range ports {
		m.Ports[n] = FromPort(n, s)
	}
	return m
}

// Encode serializes a BoardStatus.
func Encode(m *BoardStatus) ([]byte, error) {
	return proto.Marshal(m)
}

// Decode parses a serialized BoardStatus.
func Decode(data []byte) (*BoardStatus, error) {
	m := &BoardStatus{}
	if err := proto.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}
	return m, nil
}

// Time returns the report time.
func (m *BoardStatus) Time() time.Time {
	return time.Unix(0, m.Timestamp)
}

// Summary renders a port status on one line.
func (m *PortStatus) Summary() string {
	state := "idle"
	if m.Active {
		state = "active"
	}
	return fmt.Sprintf("%d %-8s %-6s rx %d/%d tx %d/%d err %d (frame %d parity %d overrun %d drop %d)",
		m.Index, m.Name, state, m.RxBuffered, m.RxCapacity, m.TxPending, m.TxCapacity,
		m.Errors, m.Framing, m.Parity, m.Overrun, m.Dropped)
}
