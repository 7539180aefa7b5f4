package status

import (
	"context"
	"os"
	"time"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"

	"github.com/robotalks/windctl/pkg/comm/mqtt"
	"github.com/robotalks/windctl/pkg/l0/uart"
)

// TopicSuffix is appended to the device ID to form the status topic.
const TopicSuffix = "/status"

// Publisher delivers encoded status reports.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// QueuePublisher publishes through an MQTT queue.
type QueuePublisher struct {
	Queue *mqtt.Queue
	// Retain keeps the last report on the broker for late subscribers.
	Retain bool
}

// Publish implements Publisher.
func (p *QueuePublisher) Publish(topic string, payload []byte) error {
	token := p.Queue.PubWith(topic, payload, 0, p.Retain)
	token.Wait()
	return token.Error()
}

// DeviceID returns an ID stable for this machine, the host name if the
// machine ID is not available.
func DeviceID() string {
	id, err := machineid.ProtectedID("windctl")
	if err == nil {
		return id[:12]
	}
	glog.Warningf("machine id unavailable: %v", err)
	if host, err := os.Hostname(); err == nil {
		return host
	}
	return "unknown"
}

// Reporter periodically publishes snapshots of a board.
type Reporter struct {
	DeviceID  string
	Interval  time.Duration
	Source    func() []uart.Status
	Publisher Publisher

	seq uint64
}

// Name implements framework.Named.
func (r *Reporter) Name() string { return "status-reporter" }

// Topic returns the topic reports are published to.
func (r *Reporter) Topic() string {
	return r.DeviceID + TopicSuffix
}

// Report publishes one report now.
func (r *Reporter) Report(now time.Time) error {
	r.seq++
	data, err := Encode(Collect(r.DeviceID, r.seq, now, r.Source()))
	if err != nil {
		return err
	}
	return r.Publisher.Publish(r.Topic(), data)
}

// Run implements framework.Runnable.
func (r *Reporter) Run(ctx context.Context) error {
	if r.DeviceID == "" {
		r.DeviceID = DeviceID()
	}
	interval := r.Interval
	if interval <= 0 {
		interval = time.Second
	}
	glog.Infof("reporting status to %q every %s", r.Topic(), interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if err := r.Report(now); err != nil {
				glog.Warningf("status report failed: %v", err)
			}
		}
	}
}

// Watch subscribes to status reports of all devices, or of one device if
// deviceID is given. Undecodable payloads are logged and skipped.
func Watch(q *mqtt.Queue, deviceID string, handler func(*BoardStatus)) *mqtt.Subscription {
	topic := "+" + TopicSuffix
	if deviceID != "" {
		topic = deviceID + TopicSuffix
	}
	return q.Sub(topic, func(topic string, payload []byte) {
		m, err := Decode(payload)
		if err != nil {
			glog.Warningf("%s: %v", topic, err)
			return
		}
		handler(m)
	})
}
