// Package rover exposes the simulated rover inputs as shell commands.
package rover

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/robotalks/cmt.go/pkg/cli/sh"
	"github.com/robotalks/cmt.go/pkg/cmt"
	"github.com/robotalks/cmt.go/pkg/rover"
)

const roverKey = "$rover"

// Attach makes r available to the rover commands of s.
func Attach(s *sh.Shell, r *rover.Rover) *sh.Shell {
	return s.Set(roverKey, r)
}

// State is the result of the rover command.
type State struct {
	HWOSStarted  bool   `json:"hwos_started"`
	DCSStarted   bool   `json:"dcs_started"`
	InputPressed bool   `json:"input_pressed"`
	Presses      uint32 `json:"presses"`
	LongPresses  uint32 `json:"long_presses"`
	Rotary       int32  `json:"rotary"`
	Display      string `json:"display"`
}

func (st State) String() string {
	return fmt.Sprintf("started=%v/%v pressed=%v presses=%d long=%d rotary=%d display=%q",
		st.HWOSStarted, st.DCSStarted, st.InputPressed, st.Presses, st.LongPresses, st.Rotary, st.Display)
}

func mustHaveRover(fn func(s *sh.Shell, r *rover.Rover, args []string) (interface{}, error)) func(*sh.Shell, []string) (interface{}, error) {
	return func(s *sh.Shell, args []string) (interface{}, error) {
		r, ok := s.Get(roverKey).(*rover.Rover)
		if !ok {
			return nil, fmt.Errorf("no rover attached")
		}
		return fn(s, r, args)
	}
}

var (
	// PressCmd presses the user switch.
	PressCmd = sh.Command{
		Name: "press",
		Help: "",
		Run: mustHaveRover(func(s *sh.Shell, r *rover.Rover, args []string) (interface{}, error) {
			r.Inputs.SetUserSwitch(true)
			return nil, nil
		}),
	}

	// ReleaseCmd releases the user switch.
	ReleaseCmd = sh.Command{
		Name: "release",
		Help: "",
		Run: mustHaveRover(func(s *sh.Shell, r *rover.Rover, args []string) (interface{}, error) {
			r.Inputs.SetUserSwitch(false)
			return nil, nil
		}),
	}

	// SwitchCmd changes a bank switch.
	SwitchCmd = sh.Command{
		Name:    "switch",
		Aliases: []string{"sw"},
		Help:    "ID on|off",
		Run: mustHaveRover(func(s *sh.Shell, r *rover.Rover, args []string) (interface{}, error) {
			if err := sh.Args(args, 2, 2, "switch ID on|off"); err != nil {
				return nil, err
			}
			id, err := strconv.ParseUint(args[0], 10, 8)
			if err != nil {
				return nil, fmt.Errorf("invalid switch ID %q", args[0])
			}
			var on bool
			switch args[1] {
			case "on":
				on = true
			case "off":
			default:
				return nil, fmt.Errorf("expect on or off, got %q", args[1])
			}
			return nil, r.Inputs.SetSwitch(uint8(id), on)
		}),
	}

	// TurnCmd turns the rotary encoder.
	TurnCmd = sh.Command{
		Name: "turn",
		Help: "DELTA",
		Run: mustHaveRover(func(s *sh.Shell, r *rover.Rover, args []string) (interface{}, error) {
			if err := sh.Args(args, 1, 1, "turn DELTA"); err != nil {
				return nil, err
			}
			delta, err := strconv.ParseInt(args[0], 10, 16)
			if err != nil {
				return nil, fmt.Errorf("invalid DELTA: %v", err)
			}
			if !r.Inputs.Turn(int16(delta)) {
				return nil, fmt.Errorf("rotary change dropped")
			}
			return nil, nil
		}),
	}

	// DisplayCmd shows text on the display.
	DisplayCmd = sh.Command{
		Name:    "display",
		Aliases: []string{"disp"},
		Help:    "TEXT...",
		Run: mustHaveRover(func(s *sh.Shell, r *rover.Rover, args []string) (interface{}, error) {
			msg := cmt.NewMessage(cmt.KindDisplayMessage).WithData(cmt.Text(strings.Join(args, " ")))
			return nil, s.Sys.Core(cmt.Core1).Post(msg)
		}),
	}

	// StateCmd prints the rover state.
	StateCmd = sh.Command{
		Name: "rover",
		Help: "",
		Run: mustHaveRover(func(s *sh.Shell, r *rover.Rover, args []string) (interface{}, error) {
			return State{
				HWOSStarted:  r.DCS.HWOSStarted(),
				DCSStarted:   r.HWOS.DCSStarted(),
				InputPressed: r.HWOS.InputPressed(),
				Presses:      r.DCS.Presses(),
				LongPresses:  r.DCS.LongPresses(),
				Rotary:       r.HWOS.RotaryPosition(),
				Display:      r.DCS.Display(),
			}, nil
		}),
	}
)

func init() {
	sh.AddCmds(
		&PressCmd,
		&ReleaseCmd,
		&SwitchCmd,
		&TurnCmd,
		&DisplayCmd,
		&StateCmd,
	)
}
