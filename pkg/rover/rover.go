package rover

import (
	"github.com/robotalks/cmt.go/pkg/board"
	"github.com/robotalks/cmt.go/pkg/cmt"
)

// Rover wires both core applications to simulated inputs.
type Rover struct {
	HWOS   *HWOS
	DCS    *DCS
	Inputs *SimInputs
}

// NewSim creates a rover with simulated inputs.
func NewSim(sys *cmt.System, conf Config) *Rover {
	inputs := NewSimInputs(sys)
	r := &Rover{
		HWOS:   NewHWOS(sys, conf, inputs, inputs),
		DCS:    NewDCS(sys, conf),
		Inputs: inputs,
	}
	inputs.OnUserSwitchEdge(r.HWOS.InputSwitchEdge)
	return r
}

// Install sets the loops of both cores on b.
func (r *Rover) Install(b *board.Board) *board.Board {
	return b.SetLoop(cmt.Core0, r.HWOS.LoopContext()).
		SetLoop(cmt.Core1, r.DCS.LoopContext())
}
