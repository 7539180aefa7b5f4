package line

import (
	"io"
	"net/url"
	"strings"
	"sync"

	"github.com/robotalks/windctl/pkg/comm/mqtt"
)

// mqttConn carries bytes over a pair of topics: received on <topic>/in
// and sent on <topic>/out.
type mqttConn struct {
	queue    *mqtt.Queue
	sub      *mqtt.Subscription
	pubTopic string
	ownQueue bool

	packetCh chan []byte
	once     sync.Once
	closed   chan struct{}
}

// MQTT creates a Line over topics of an established queue.
func MQTT(q *mqtt.Queue, topic string) Line {
	return FromPackets(newMQTTConn(q, topic, false))
}

func newMQTTConn(q *mqtt.Queue, topic string, ownQueue bool) *mqttConn {
	c := &mqttConn{
		queue:    q,
		pubTopic: topic + "/out",
		ownQueue: ownQueue,
		packetCh: make(chan []byte, 64),
		closed:   make(chan struct{}),
	}
	c.sub = q.Sub(topic+"/in", c.handleMsg)
	return c
}

func (c *mqttConn) handleMsg(_ string, payload []byte) {
	select {
	case c.packetCh <- payload:
	case <-c.closed:
	}
}

func (c *mqttConn) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-c.packetCh:
		return pkt, nil
	case <-c.closed:
		return nil, io.EOF
	}
}

func (c *mqttConn) WritePacket(pkt []byte) error {
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}
	token := c.queue.Pub(c.pubTopic, pkt)
	token.Wait()
	return token.Error()
}

func (c *mqttConn) Close() (err error) {
	c.once.Do(func() {
		close(c.closed)
		err = c.sub.Close()
		if c.ownQueue {
			c.queue.Close()
		}
	})
	return
}

// openMQTT splits mqtt://host:port/prefix/topic at the last path element:
// the queue prefix is "prefix/" and the line topic "topic".
func openMQTT(u *url.URL) (Line, error) {
	prefix, topic := splitTopic(u.Path)
	brokerURL := *u
	brokerURL.Path = prefix
	q, err := mqtt.Dial(brokerURL.String())
	if err != nil {
		return nil, err
	}
	return FromPackets(newMQTTConn(q, topic, true)), nil
}

func splitTopic(path string) (prefix, topic string) {
	path = strings.TrimSuffix(path, "/")
	if n := strings.LastIndex(path, "/"); n >= 0 && n+1 < len(path) {
		return path[:n+1], path[n+1:]
	}
	return path, "line"
}
