package board

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/cmt.go/pkg/cmt"
)

// Board runs the two core loops and the tick source of a cmt.System plus
// any number of background services.
type Board struct {
	System   *cmt.System
	Loops    [cmt.NumCores]*cmt.LoopContext
	Services []Runnable
}

// New creates a Board for sys. The system is initialized if it isn't yet.
func New(sys *cmt.System) (*Board, error) {
	if !sys.Initialized() {
		if err := sys.Init(); err != nil {
			return nil, err
		}
	}
	b := &Board{System: sys}
	for n := range b.Loops {
		b.Loops[n] = &cmt.LoopContext{}
	}
	return b, nil
}

// SetLoop sets the loop context of a core.
func (b *Board) SetLoop(id cmt.CoreID, lc *cmt.LoopContext) *Board {
	b.Loops[id] = lc
	return b
}

// AddService adds background services started along with the cores.
func (b *Board) AddService(services ...Runnable) *Board {
	b.Services = append(b.Services, services...)
	return b
}

// Start starts everything with r.
func (b *Board) Start(r *Runner) *Runner {
	for n, lc := range b.Loops {
		core := b.System.Core(cmt.CoreID(n))
		lc := lc
		r.Go(NamedRun(core.ID().String(), RunFunc(func(ctx context.Context) error {
			return core.Run(ctx, lc)
		})))
	}
	r.Go(NamedRun("tick", RunFunc(b.System.TickSource().Run)))
	r.Go(b.Services...)
	glog.Infof("board started: %d services", len(b.Services))
	return r
}

// Run runs the board until ctx is done or a component fails.
func (b *Board) Run(ctx context.Context) error {
	return b.Start(NewRunnerWith(ctx)).Wait()
}

// RunOrFail runs the board until stopped by a signal, for use in main.
func (b *Board) RunOrFail() {
	if err := b.Start(NewRunner().HandleSignals()).Wait(); err != nil {
		glog.Exitf("board stopped: %v", err)
	}
}

// WaitRunning blocks until the loops of both cores are running.
func WaitRunning(ctx context.Context, sys *cmt.System) error {
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for !sys.LoopsRunning() {
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for core loops: %w", ctx.Err())
		case <-ticker.C:
		}
	}
	return nil
}
