package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"log"

	"github.com/golang/glog"

	"github.com/robotalks/windctl/pkg/comm/mqtt"
	"github.com/robotalks/windctl/pkg/framework"
	"github.com/robotalks/windctl/pkg/l0/board"
	"github.com/robotalks/windctl/pkg/l0/console"
	"github.com/robotalks/windctl/pkg/line"
	"github.com/robotalks/windctl/pkg/status"
)

func init() {
	board.SetupFlags()
}

func main() {
	flag.Parse()

	conf := board.Default().MustResolve()
	b, err := conf.NewBoard()
	if err != nil {
		log.Fatalln(err)
	}
	defer b.Close()
	loop := framework.NewLoop()
	b.SetBackgroundHook(loop.Background)

	for n, lineURL := range conf.Lines {
		l, err := line.Open(lineURL)
		if err != nil {
			log.Fatalf("line %d: %v", n, err)
		}
		glog.Infof("port %d (%s) on %s", n, b.Port(n).Name(), lineURL)
		loop.AddRunnable(b.Wire(n, l))
	}

	con := console.New(b.Port(board.ConsolePort)).MustRegister(console.BoardCommands(b)...)
	loop.Add(con)
	con.Start("windfw ready, type help")

	if conf.MQTTURL != "" {
		q, err := mqtt.Dial(conf.MQTTURL)
		if err != nil {
			log.Fatalln(err)
		}
		defer q.Close()
		deviceID := conf.DeviceID
		if deviceID == "" {
			deviceID = status.DeviceID()
		}
		loop.AddRunnable(&status.Reporter{
			DeviceID:  deviceID,
			Interval:  conf.StatusInterval,
			Source:    b.Snapshot,
			Publisher: &status.QueuePublisher{Queue: q, Retain: true},
		})
	}

	if err := framework.NewRunner().HandleSignals().Go(loop).Wait(); err != nil {
		log.Fatalln(err)
	}
}
