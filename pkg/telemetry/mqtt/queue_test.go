package mqtt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatchTopic(t *testing.T) {
	cases := []struct {
		topic, filter string
		match         bool
	}{
		{"b1/status", "b1/status", true},
		{"b1/status", "+/status", true},
		{"b1/status", "#", true},
		{"b1/status", "b1/#", true},
		{"b1/status", "b2/status", false},
		{"b1/status/x", "+/status", false},
		{"b1", "b1/+", false},
		{"b1/status", "b1/status/x", false},
	}
	for _, c := range cases {
		require.Equal(t, c.match, MatchTopic(c.topic, c.filter), "%s ~ %s", c.topic, c.filter)
	}
}

func TestClientOptionsFromURL(t *testing.T) {
	opts, prefix, err := ClientOptionsFromURL("mqtt://u:p@broker:1883/lab/boards/?client-id=mon")
	require.NoError(t, err)
	require.Equal(t, "lab/boards/", prefix)
	require.Len(t, opts.Servers, 1)
	require.Equal(t, "tcp://broker:1883", opts.Servers[0].String())
	require.Equal(t, "u", opts.Username)
	require.Equal(t, "p", opts.Password)
	require.Equal(t, "mon", opts.ClientID)

	opts, prefix, err = ClientOptionsFromURL("ws://broker:9001")
	require.NoError(t, err)
	require.Empty(t, prefix)
	require.Equal(t, "ws://broker:9001", opts.Servers[0].String())
}

func TestDeliver(t *testing.T) {
	q := &Queue{TopicPrefix: "lab/", subs: make(map[string][]*Subscription)}
	var got []string
	q.subs["+/status"] = []*Subscription{{
		queue:  q,
		filter: "+/status",
		handler: func(topic string, payload []byte) {
			got = append(got, topic+"="+string(payload))
		},
	}}
	q.deliver("lab/b1/status", []byte("x"))
	q.deliver("lab/b1/other", []byte("y"))
	q.deliver("other/b1/status", []byte("z"))
	require.Equal(t, []string{"b1/status=x"}, got)
}
