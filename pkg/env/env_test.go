package env

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadEnv(t *testing.T) {
	vars := map[string]string{
		"CMT_BOARD_ID":    "b1",
		"CMT_MQTT_URL":    "mqtt://localhost:1883/cmt/",
		"CMT_SERIAL_PORT": "/dev/ttyUSB0",
		"CMT_CODEC":       "cbor",
	}
	conf := Config{SerialBaud: 9600, Codec: "proto"}
	loadEnv(&conf, func(key string) string { return vars[key] })
	require.Equal(t, Config{
		BoardID:    "b1",
		MQTTURL:    "mqtt://localhost:1883/cmt/",
		SerialPort: "/dev/ttyUSB0",
		SerialBaud: 9600,
		Codec:      "cbor",
	}, conf)
}

func TestBoardID(t *testing.T) {
	id := BoardID()
	require.NotEmpty(t, id)
	require.Equal(t, id, BoardID())
	require.Equal(t, "0123456789ab", shortID("0123456789abcdef"))
	require.Equal(t, "abc", shortID("abc"))
}
