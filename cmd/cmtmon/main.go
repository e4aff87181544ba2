package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/golang/glog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/robotalks/cmt.go/pkg/env"
	"github.com/robotalks/cmt.go/pkg/monitor"
	"github.com/robotalks/cmt.go/pkg/telemetry"
	"github.com/robotalks/cmt.go/pkg/telemetry/mqtt"
	"github.com/robotalks/cmt.go/pkg/telemetry/serial"
	"github.com/robotalks/cmt.go/pkg/telemetry/websocket"
)

var (
	mqttURL    = "mqtt://localhost:1883/cmt/"
	boardID    string
	portName   string
	baudRate   = 115200
	wsURL      string
	codecName  = "proto"
	tuiEnabled bool
)

var rootCmd = &cobra.Command{
	Use:   "cmtmon",
	Short: "Monitor the status reports of CMT boards",
	Long: `cmtmon prints the status reports published by cmtd boards.

Sources:
  MQTT:      --mqtt mqtt://host:1883/prefix/ [--board ID]
  Serial:    --port /dev/ttyUSB0 [--baud 115200]
  WebSocket: --url ws://host:8080/status

With --tui the reports are shown in a live table.`,
	SilenceUsage: true,
	PersistentPreRun: func(*cobra.Command, []string) {
		flag.CommandLine.Parse(nil)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func init() {
	conf := env.NewConfigFromEnv()
	if conf.MQTTURL != "" {
		mqttURL = conf.MQTTURL
	}
	boardID, portName, codecName = conf.BoardID, conf.SerialPort, conf.Codec

	flags := rootCmd.Flags()
	flags.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL")
	flags.StringVar(&boardID, "board", boardID, "Only show this board")
	flags.StringVarP(&portName, "port", "p", portName, "Serial port to read frames from")
	flags.IntVarP(&baudRate, "baud", "b", baudRate, "Serial baud rate")
	flags.StringVarP(&wsURL, "url", "u", wsURL, "WebSocket URL of a board")
	flags.StringVar(&codecName, "codec", codecName, "Telemetry encoding (proto|cbor)")
	flags.BoolVar(&tuiEnabled, "tui", tuiEnabled, "Show a live table")
	flags.AddGoFlagSet(flag.CommandLine)
}

func run() error {
	codec, err := telemetry.CodecByName(codecName)
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	ch := make(chan telemetry.Received, 16)
	source, err := startSource(ctx, codec, ch)
	if err != nil {
		return err
	}

	if tuiEnabled {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return fmt.Errorf("--tui requires a terminal")
		}
		return runTUI(source, ch)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case r := <-ch:
			if r.Err != nil {
				glog.Warningf("%s: bad report: %v", r.Board, r.Err)
				continue
			}
			fmt.Println(monitor.Line(r.Board, r.Report))
		}
	}
}

func startSource(ctx context.Context, codec telemetry.Codec, ch chan telemetry.Received) (string, error) {
	board := boardID
	if board == "" {
		board = "board"
	}
	switch {
	case portName != "":
		port, err := serial.OpenPort(portName, baudRate)
		if err != nil {
			return "", err
		}
		go func() {
			<-ctx.Done()
			port.Close()
		}()
		go func() {
			if err := serial.Receive(port, board, codec, ch); err != nil && ctx.Err() == nil {
				glog.Errorf("serial: %v", err)
			}
		}()
		return portName, nil
	case wsURL != "":
		go func() {
			if err := websocket.Receive(ctx, wsURL, board, codec, ch); err != nil && ctx.Err() == nil {
				glog.Errorf("websocket: %v", err)
			}
		}()
		return wsURL, nil
	default:
		q, err := mqtt.NewQueueFromURL(mqttURL)
		if err != nil {
			return "", err
		}
		if err := q.Connect(); err != nil {
			return "", fmt.Errorf("mqtt connect: %w", err)
		}
		go func() {
			<-ctx.Done()
			q.Close()
		}()
		mqtt.Subscribe(q, boardID, codec, ch)
		return mqttURL, nil
	}
}

func runTUI(source string, ch <-chan telemetry.Received) error {
	p := tea.NewProgram(monitor.NewModel(source, ch), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
