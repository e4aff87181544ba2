package mqtt

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robotalks/cmt.go/pkg/telemetry"
)

// StatusTopic returns the topic the status of a board is published to.
func StatusTopic(boardID string) string {
	return boardID + "/status"
}

// Sink publishes telemetry frames to MQTT.
type Sink struct {
	Queue   *Queue
	Topic   string
	Timeout time.Duration
}

// NewSink creates a Sink publishing the status of boardID.
func NewSink(q *Queue, boardID string) *Sink {
	return &Sink{Queue: q, Topic: StatusTopic(boardID), Timeout: time.Second}
}

// Name implements telemetry.Sink.
func (s *Sink) Name() string {
	return "mqtt"
}

// Publish implements telemetry.Sink.
func (s *Sink) Publish(frame []byte) error {
	token := s.Queue.Pub(s.Topic, frame)
	if !token.WaitTimeout(s.Timeout) {
		return fmt.Errorf("publish %s: timeout", s.Topic)
	}
	return token.Error()
}

// Run connects the queue and keeps it until ctx is done.
func (s *Sink) Run(ctx context.Context) error {
	if err := s.Queue.Connect(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	<-ctx.Done()
	s.Queue.Close()
	return ctx.Err()
}

// Subscribe decodes the status reports of every board, or of one board
// when boardID is not empty, and sends them to ch.
func Subscribe(q *Queue, boardID string, codec telemetry.Codec, ch chan<- telemetry.Received) *Subscription {
	if boardID == "" {
		boardID = "+"
	}
	return q.Sub(StatusTopic(boardID), func(topic string, payload []byte) {
		r, err := codec.Decode(payload)
		ch <- telemetry.Received{Board: strings.TrimSuffix(topic, "/status"), Report: r, Err: err}
	})
}
