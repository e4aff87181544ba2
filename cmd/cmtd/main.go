package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"fmt"
	"os"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/robotalks/cmt.go/pkg/board"
	"github.com/robotalks/cmt.go/pkg/cmt"
	"github.com/robotalks/cmt.go/pkg/env"
	"github.com/robotalks/cmt.go/pkg/rover"
	"github.com/robotalks/cmt.go/pkg/telemetry"
	"github.com/robotalks/cmt.go/pkg/telemetry/mqtt"
	"github.com/robotalks/cmt.go/pkg/telemetry/serial"
	"github.com/robotalks/cmt.go/pkg/telemetry/websocket"
)

var interval = telemetry.DefaultInterval

var rootCmd = &cobra.Command{
	Use:   "cmtd",
	Short: "Dual core cooperative multi-tasking board",
	Long: `cmtd runs the two core message loops of a simulated rover board and
publishes the status of the cores as telemetry.

Telemetry sinks:
  MQTT:      --mqtt mqtt://host:1883/prefix/
  Serial:    --serial /dev/ttyUSB0 [--serial-baud 115200]
  WebSocket: --ws :8080 (clients connect to /status)`,
	SilenceUsage: true,
	PersistentPreRun: func(*cobra.Command, []string) {
		// marks the go flags parsed for glog
		flag.CommandLine.Parse(nil)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func init() {
	cmt.SetupFlags()
	rover.SetupFlags()
	env.SetupFlags()
	flag.DurationVar(&interval, "telemetry-interval", interval, "Telemetry sampling interval")
	rootCmd.Flags().AddGoFlagSet(flag.CommandLine)
}

func run() error {
	conf, err := cmt.NewConfig()
	if err != nil {
		return err
	}
	sys, err := cmt.New(conf)
	if err != nil {
		return err
	}
	b, err := board.New(sys)
	if err != nil {
		return err
	}
	roverConf := rover.NewConfig()
	if err := roverConf.Validate(); err != nil {
		return err
	}
	rover.NewSim(sys, roverConf).Install(b)

	envConf := env.NewConfig()
	sinks, services, err := setupSinks(envConf)
	if err != nil {
		return err
	}
	if len(sinks) > 0 {
		codec, err := telemetry.CodecByName(envConf.Codec)
		if err != nil {
			return err
		}
		pub := telemetry.NewPublisher(sys, envConf.BoardID, codec, sinks...)
		pub.Interval = interval
		b.AddService(pub)
	}
	b.AddService(services...)

	glog.Infof("board %s: %d telemetry sinks", envConf.BoardID, len(sinks))
	b.RunOrFail()
	return nil
}

func setupSinks(conf *env.Config) ([]telemetry.Sink, []board.Runnable, error) {
	var sinks []telemetry.Sink
	var services []board.Runnable
	if conf.MQTTURL != "" {
		q, err := mqtt.NewQueueFromURL(conf.MQTTURL)
		if err != nil {
			return nil, nil, fmt.Errorf("mqtt: %w", err)
		}
		sink := mqtt.NewSink(q, conf.BoardID)
		sinks = append(sinks, sink)
		services = append(services, board.NamedRun("mqtt", board.RunFunc(sink.Run)))
	}
	if conf.SerialPort != "" {
		sink, err := serial.Open(conf.SerialPort, conf.SerialBaud)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, sink)
		services = append(services, board.NamedRun("serial", board.RunFunc(sink.Run)))
	}
	if conf.WebsocketAddr != "" {
		hub := websocket.NewHub(conf.WebsocketAddr)
		sinks = append(sinks, hub)
		services = append(services, board.NamedRun("websocket", board.RunFunc(hub.Run)))
	}
	return sinks, services, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
