package telemetry

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/cmt.go/pkg/board"
	"github.com/robotalks/cmt.go/pkg/cmt"
)

// Sink receives encoded reports.
type Sink interface {
	Name() string
	Publish(frame []byte) error
}

// Publisher samples a board periodically from a core loop and publishes
// the encoded reports to Sinks.
type Publisher struct {
	Board    string
	Core     cmt.CoreID
	Interval time.Duration
	Codec    Codec
	Sinks    []Sink

	sys     *cmt.System
	frames  chan []byte
	seq     uint32
	dropped atomic.Uint32
	stopped atomic.Bool
}

// DefaultInterval is the default sampling interval.
const DefaultInterval = time.Second

// NewPublisher creates a Publisher sampling sys on core 1.
func NewPublisher(sys *cmt.System, boardID string, codec Codec, sinks ...Sink) *Publisher {
	return &Publisher{
		Board:    boardID,
		Core:     cmt.Core1,
		Interval: DefaultInterval,
		Codec:    codec,
		Sinks:    sinks,
		sys:      sys,
		frames:   make(chan []byte, 4),
	}
}

// Name implements board.Named.
func (p *Publisher) Name() string {
	return "telemetry"
}

// Dropped returns the number of frames dropped because the sinks were
// behind.
func (p *Publisher) Dropped() uint32 {
	return p.dropped.Load()
}

// Run arms the sampling and forwards frames to the sinks until ctx is done.
func (p *Publisher) Run(ctx context.Context) error {
	if err := p.arm(); err != nil {
		return err
	}
	defer p.stopped.Store(true)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame := <-p.frames:
			p.publish(frame)
		}
	}
}

func (p *Publisher) arm() error {
	core := p.sys.Core(p.Core)
	if core == nil {
		return fmt.Errorf("telemetry: invalid core %d", p.Core)
	}
	interval := int32(p.Interval / time.Millisecond)
	if interval <= 0 {
		interval = int32(DefaultInterval / time.Millisecond)
	}
	return core.Sleep(interval, p.sample, nil)
}

// sample runs on the core loop and must not block.
func (p *Publisher) sample(ctx context.Context, _ interface{}) {
	if p.stopped.Load() {
		return
	}
	r := Sample(p.sys, p.Board)
	p.seq++
	r.Seq = p.seq
	frame, err := p.Codec.Encode(r)
	if err != nil {
		glog.Errorf("telemetry: encode: %v", err)
	} else {
		select {
		case p.frames <- frame:
		default:
			p.dropped.Add(1)
			glog.V(2).Info("telemetry: frame dropped")
		}
	}
	if err := p.arm(); err != nil {
		glog.Errorf("telemetry: re-arm: %v", err)
	}
}

func (p *Publisher) publish(frame []byte) {
	for _, sink := range p.Sinks {
		if err := sink.Publish(frame); err != nil {
			glog.Errorf("telemetry: sink %s: %v", sink.Name(), err)
		}
	}
}

var _ board.Runnable = &Publisher{}
