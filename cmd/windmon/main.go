package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/robotalks/windctl/pkg/comm/mqtt"
	"github.com/robotalks/windctl/pkg/midi"
	"github.com/robotalks/windctl/pkg/status"
)

var (
	mqttURL  = "mqtt://localhost:1883/wind/"
	deviceID string
	lines    string
)

func init() {
	if val := os.Getenv("WIND_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.StringVar(&deviceID, "device-id", deviceID, "Only watch this device.")
	flag.StringVar(&lines, "lines", lines, "Comma separated line topics to decode MIDI from, e.g. dev/midi.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.Dial(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}

	status.Watch(q, deviceID, func(m *status.BoardStatus) {
		for _, port := range m.GetPorts() {
			log.Printf("%s #%d: %s", m.DeviceId, m.Sequence, port.Summary())
		}
	})

	for _, topic := range strings.Split(lines, ",") {
		if topic = strings.TrimSpace(topic); topic == "" {
			continue
		}
		for _, dir := range []string{"/in", "/out"} {
			q.Sub(topic+dir, decoder())
		}
	}
	<-(chan struct{})(nil)
}

// decoder logs the MIDI messages of one direction of a line.
func decoder() mqtt.Handler {
	var parser midi.Parser
	return func(topic string, payload []byte) {
		for _, b := range payload {
			if m := parser.Parse(b); m != nil {
				log.Printf("%s: %s", topic, m)
			}
		}
	}
}
