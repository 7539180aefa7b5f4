package line

import (
	"io"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/require"
	"github.com/tarm/serial"
	"golang.org/x/net/websocket"

	"github.com/robotalks/windctl/pkg/comm/mqtt"
)

func TestNull(t *testing.T) {
	l, err := Open("null://")
	require.NoError(t, err)
	n, err := l.Write([]byte("abc"))
	require.NoError(t, err)
	require.Equal(t, 3, n)

	done := make(chan error, 1)
	go func() {
		_, err := l.Read(make([]byte, 1))
		done <- err
	}()
	select {
	case <-done:
		t.Fatal("read should block")
	case <-time.After(20 * time.Millisecond):
	}
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())
	require.Equal(t, io.EOF, <-done)
	_, err = l.Write([]byte("x"))
	require.Equal(t, ErrClosed, err)
}

func TestLoopback(t *testing.T) {
	l, err := Open("loop://")
	require.NoError(t, err)
	go l.Write([]byte("wind"))
	buf := make([]byte, 4)
	_, err = io.ReadFull(l, buf)
	require.NoError(t, err)
	require.Equal(t, "wind", string(buf))
	require.NoError(t, l.Close())
	_, err = l.Read(buf)
	require.Error(t, err)
}

func TestOpenErrors(t *testing.T) {
	_, err := Open("carrier-pigeon://coop")
	require.Error(t, err)
	_, err = Open("serial://")
	require.Error(t, err)
	_, err = Open("%zz")
	require.Error(t, err)
}

type fakePackets struct {
	in     chan []byte
	out    [][]byte
	closed bool
}

func (f *fakePackets) ReadPacket() ([]byte, error) {
	pkt, ok := <-f.in
	if !ok {
		return nil, io.EOF
	}
	return pkt, nil
}

func (f *fakePackets) WritePacket(pkt []byte) error {
	f.out = append(f.out, pkt)
	return nil
}

func (f *fakePackets) Close() error {
	f.closed = true
	return nil
}

func TestFromPackets(t *testing.T) {
	conn := &fakePackets{in: make(chan []byte, 4)}
	l := FromPackets(conn)

	conn.in <- []byte("abc")
	conn.in <- []byte("de")
	close(conn.in)
	buf := make([]byte, 2)
	var got []string
	for {
		n, err := l.Read(buf)
		if err != nil {
			require.Equal(t, io.EOF, err)
			break
		}
		got = append(got, string(buf[:n]))
	}
	require.Equal(t, []string{"ab", "c", "de"}, got)

	data := []byte{1, 2}
	n, err := l.Write(data)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	data[0] = 9
	require.Equal(t, [][]byte{{1, 2}}, conn.out, "packets do not alias the caller's buffer")
	n, err = l.Write(nil)
	require.NoError(t, err)
	require.Equal(t, 0, n)
	require.Len(t, conn.out, 1)

	require.NoError(t, l.Close())
	require.True(t, conn.closed)
}

func TestSerialConfig(t *testing.T) {
	u, err := url.Parse("serial:///dev/ttyUSB0?baud=115200&parity=even&timeout=100ms")
	require.NoError(t, err)
	conf, err := SerialConfig(u)
	require.NoError(t, err)
	require.Equal(t, "/dev/ttyUSB0", conf.Name)
	require.Equal(t, 115200, conf.Baud)
	require.Equal(t, serial.ParityEven, conf.Parity)
	require.Equal(t, 100*time.Millisecond, conf.ReadTimeout)

	u, _ = url.Parse("serial:COM3")
	conf, err = SerialConfig(u)
	require.NoError(t, err)
	require.Equal(t, "COM3", conf.Name)
	require.Equal(t, DefaultSerialBaud, conf.Baud)
	require.Equal(t, serial.ParityNone, conf.Parity)

	for _, bad := range []string{"serial:///dev/tty?baud=0", "serial:///dev/tty?parity=mark", "serial:///dev/tty?timeout=soon"} {
		u, _ = url.Parse(bad)
		_, err = SerialConfig(u)
		require.Error(t, err, bad)
	}
}

func TestSplitTopic(t *testing.T) {
	testCases := []struct{ path, prefix, topic string }{
		{"/wind/dev/line1", "/wind/dev/", "line1"},
		{"/wind/dev/line1/", "/wind/dev/", "line1"},
		{"/line1", "/", "line1"},
		{"", "", "line"},
	}
	for _, tc := range testCases {
		prefix, topic := splitTopic(tc.path)
		require.Equal(t, tc.prefix, prefix, tc.path)
		require.Equal(t, tc.topic, topic, tc.path)
	}
}

func TestMQTTConnReceives(t *testing.T) {
	q := mqtt.NewQueue(paho.NewClientOptions(), "wind/")
	conn := newMQTTConn(q, "dev/line1", false)
	conn.handleMsg("dev/line1/in", []byte{0x90, 60})
	pkt, err := conn.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, []byte{0x90, 60}, pkt)

	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())
	_, err = conn.ReadPacket()
	require.Equal(t, io.EOF, err)
	require.Equal(t, ErrClosed, conn.WritePacket([]byte{1}))
	conn.handleMsg("dev/line1/in", []byte{1})
}

func TestWebsocketEcho(t *testing.T) {
	server := httptest.NewServer(websocket.Handler(func(ws *websocket.Conn) {
		io.Copy(ws, ws)
	}))
	defer server.Close()

	l, err := Open("ws://" + strings.TrimPrefix(server.URL, "http://") + "/")
	require.NoError(t, err)
	defer l.Close()
	_, err = l.Write([]byte("breath"))
	require.NoError(t, err)
	buf := make([]byte, 6)
	_, err = io.ReadFull(l, buf)
	require.NoError(t, err)
	require.Equal(t, "breath", string(buf))
}
