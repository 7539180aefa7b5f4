// Package line opens the wires serial ports are connected to on the host:
// a loopback, an OS serial device, a TCP stream, a websocket, or MQTT
// topics. A line is a byte stream; message-oriented transports are adapted
// by treating each message as a chunk of bytes.
package line

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
)

var (
	// ErrClosed is returned by operations on a closed line.
	ErrClosed = errors.New("line closed")
)

// Line is a bidirectional byte stream.
type Line interface {
	io.ReadWriteCloser
}

// Open opens a line by URL:
//
//	null://                         discards writes, never delivers bytes
//	loop://                         delivers written bytes back
//	serial:///dev/ttyUSB0?baud=N    OS serial device
//	tcp://host:port                 TCP stream
//	ws://host/path                  websocket, one message per write
//	mqtt://host:port/prefix/topic   reads topic/in, writes topic/out
func Open(rawURL string) (Line, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid line URL %q: %w", rawURL, err)
	}
	switch u.Scheme {
	case "null", "":
		return Null(), nil
	case "loop":
		return Loopback(), nil
	case "serial":
		return openSerial(u)
	case "tcp":
		return net.Dial("tcp", u.Host)
	case "ws", "wss":
		return openWebsocket(u)
	case "mqtt", "mqtts":
		return openMQTT(u)
	}
	return nil, fmt.Errorf("unknown line URL scheme: %q", u.Scheme)
}
