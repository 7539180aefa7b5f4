// Wire messages for board status. Kept in the layout protoc-gen-go emits
// so the encoding stays compatible with status.proto consumers.

package status

import (
	proto "github.com/golang/protobuf/proto"
)

// PortStatus is the state and counters of one serial port.
type PortStatus struct {
	Index       int32  `protobuf:"varint,1,opt,name=index,proto3" json:"index,omitempty"`
	Name        string `protobuf:"bytes,2,opt,name=name,proto3" json:"name,omitempty"`
	Active      bool   `protobuf:"varint,3,opt,name=active,proto3" json:"active,omitempty"`
	BaudRate    uint32 `protobuf:"varint,4,opt,name=baud_rate,json=baudRate,proto3" json:"baud_rate,omitempty"`
	RxMode      string `protobuf:"bytes,5,opt,name=rx_mode,json=rxMode,proto3" json:"rx_mode,omitempty"`
	TxMode      string `protobuf:"bytes,6,opt,name=tx_mode,json=txMode,proto3" json:"tx_mode,omitempty"`
	Errors      uint32 `protobuf:"varint,7,opt,name=errors,proto3" json:"errors,omitempty"`
	Framing     uint32 `protobuf:"varint,8,opt,name=framing,proto3" json:"framing,omitempty"`
	Parity      uint32 `protobuf:"varint,9,opt,name=parity,proto3" json:"parity,omitempty"`
	Overrun     uint32 `protobuf:"varint,10,opt,name=overrun,proto3" json:"overrun,omitempty"`
	Dropped     uint32 `protobuf:"varint,11,opt,name=dropped,proto3" json:"dropped,omitempty"`
	Received    uint32 `protobuf:"varint,12,opt,name=received,proto3" json:"received,omitempty"`
	Transmitted uint32 `protobuf:"varint,13,opt,name=transmitted,proto3" json:"transmitted,omitempty"`
	RxHighWater uint32 `protobuf:"varint,14,opt,name=rx_high_water,json=rxHighWater,proto3" json:"rx_high_water,omitempty"`
	RxBuffered  uint32 `protobuf:"varint,15,opt,name=rx_buffered,json=rxBuffered,proto3" json:"rx_buffered,omitempty"`
	RxCapacity  uint32 `protobuf:"varint,16,opt,name=rx_capacity,json=rxCapacity,proto3" json:"rx_capacity,omitempty"`
	TxPending   uint32 `protobuf:"varint,17,opt,name=tx_pending,json=txPending,proto3" json:"tx_pending,omitempty"`
	TxCapacity  uint32 `protobuf:"varint,18,opt,name=tx_capacity,json=txCapacity,proto3" json:"tx_capacity,omitempty"`
}

func (m *PortStatus) Reset()         { *m = PortStatus{} }
func (m *PortStatus) String() string { return proto.CompactTextString(m) }
func (*PortStatus) ProtoMessage()    {}

// BoardStatus is one periodic status report of a device.
type BoardStatus struct {
	DeviceId  string        `protobuf:"bytes,1,opt,name=device_id,json=deviceId,proto3" json:"device_id,omitempty"`
	Sequence  uint64        `protobuf:"varint,2,opt,name=sequence,proto3" json:"sequence,omitempty"`
	Timestamp int64         `protobuf:"varint,3,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
	Ports     []*PortStatus `protobuf:"bytes,4,rep,name=ports,proto3" json:"ports,omitempty"`
}

func (m *BoardStatus) Reset()         { *m = BoardStatus{} }
func (m *BoardStatus) String() string { return proto.CompactTextString(m) }
func (*BoardStatus) ProtoMessage()    {}

func (m *BoardStatus) GetPorts() []*PortStatus {
	if m != nil {
		return m.Ports
	}
	return nil
}

func init() {
	proto.RegisterType((*PortStatus)(nil), "wind.status.v1.PortStatus")
	proto.RegisterType((*BoardStatus)(nil), "wind.status.v1.BoardStatus")
}
