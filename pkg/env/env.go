// Package env provides the board identity and the telemetry endpoints
// from environment variables and command line flags.
package env

import (
	"flag"
	"os"
	"strings"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// AppID salts the machine ID so the board ID does not expose it.
const AppID = "cmt.go"

// Config provides the common telemetry options.
type Config struct {
	// BoardID identifies the board in published topics.
	BoardID string
	// MQTTURL is the broker URL, e.g. mqtt://host:1883/cmt/
	MQTTURL string
	// SerialPort is the port telemetry frames are written to.
	SerialPort string
	// SerialBaud is the baud rate of SerialPort.
	SerialBaud int
	// WebsocketAddr is the listen address of the websocket hub.
	WebsocketAddr string
	// Codec is the telemetry encoding, proto or cbor.
	Codec string
}

var defaultConfig = Config{
	SerialBaud: 115200,
	Codec:      "proto",
}

func init() {
	loadEnv(&defaultConfig, os.Getenv)
}

func loadEnv(c *Config, getenv func(string) string) {
	if val := getenv("CMT_BOARD_ID"); val != "" {
		c.BoardID = val
	}
	if val := getenv("CMT_MQTT_URL"); val != "" {
		c.MQTTURL = val
	}
	if val := getenv("CMT_SERIAL_PORT"); val != "" {
		c.SerialPort = val
	}
	if val := getenv("CMT_WS_ADDR"); val != "" {
		c.WebsocketAddr = val
	}
	if val := getenv("CMT_CODEC"); val != "" {
		c.Codec = val
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.BoardID, "board-id", defaultConfig.BoardID, "Board ID, default derived from machine ID")
	flag.StringVar(&defaultConfig.MQTTURL, "mqtt", defaultConfig.MQTTURL, "MQTT broker URL for telemetry")
	flag.StringVar(&defaultConfig.SerialPort, "serial", defaultConfig.SerialPort, "Serial port for telemetry")
	flag.IntVar(&defaultConfig.SerialBaud, "serial-baud", defaultConfig.SerialBaud, "Serial port baud rate")
	flag.StringVar(&defaultConfig.WebsocketAddr, "ws", defaultConfig.WebsocketAddr, "Websocket telemetry listen address")
	flag.StringVar(&defaultConfig.Codec, "codec", defaultConfig.Codec, "Telemetry encoding (proto|cbor)")
}

// NewConfig creates a Config from the defaults, environment and flags,
// filling in the board ID.
func NewConfig() *Config {
	conf := defaultConfig
	if conf.BoardID == "" {
		conf.BoardID = BoardID()
	}
	return &conf
}

// NewConfigFromEnv returns the config from the environment only, without
// deriving a board ID.
func NewConfigFromEnv() Config {
	return defaultConfig
}

// BoardID derives a stable board ID from the machine ID, falling back to
// the host name.
func BoardID() string {
	id, err := machineid.ProtectedID(AppID)
	if err == nil {
		return shortID(id)
	}
	glog.Warningf("machine ID unavailable: %v", err)
	if host, err := os.Hostname(); err == nil && host != "" {
		return strings.ToLower(host)
	}
	return "board"
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
