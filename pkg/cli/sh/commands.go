package sh

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/golang/glog"

	"github.com/robotalks/cmt.go/pkg/cmt"
)

// ParseCore parses "0", "1", "core0" or "core1".
func ParseCore(s string) (cmt.CoreID, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(strings.ToLower(s), "core"))
	if err != nil || !cmt.CoreID(n).Valid() {
		return 0, fmt.Errorf("invalid core %q", s)
	}
	return cmt.CoreID(n), nil
}

// Args checks the number of arguments.
func Args(args []string, min, max int, usage string) error {
	if len(args) < min || len(args) > max {
		return fmt.Errorf("usage: %s", usage)
	}
	return nil
}

func (s *Shell) core(arg string) (*cmt.Core, error) {
	id, err := ParseCore(arg)
	if err != nil {
		return nil, err
	}
	return s.Sys.Core(id), nil
}

// ScheduledInfo is the result of the sched command.
type ScheduledInfo struct {
	Count int      `json:"count"`
	Kinds []string `json:"kinds"`
}

// String implements fmt.Stringer.
func (i ScheduledInfo) String() string {
	return fmt.Sprintf("%d scheduled: %s", i.Count, strings.Join(i.Kinds, " "))
}

var systemCommands = []*Command{
	{
		Name:    "post",
		Aliases: []string{"p"},
		Help:    "CORE KIND [PRIORITY]",
		Run: func(s *Shell, args []string) (interface{}, error) {
			if err := Args(args, 2, 3, "post CORE KIND [normal|secondary|low]"); err != nil {
				return nil, err
			}
			core, err := s.core(args[0])
			if err != nil {
				return nil, err
			}
			kind, err := cmt.ParseKind(args[1])
			if err != nil {
				return nil, err
			}
			msg := cmt.NewMessage(kind)
			if len(args) > 2 {
				if msg.Priority, err = cmt.ParsePriority(args[2]); err != nil {
					return nil, err
				}
			}
			return nil, core.Post(msg)
		},
	},
	{
		Name:    "postnb",
		Aliases: []string{"pn"},
		Help:    "CORE KIND",
		Run: func(s *Shell, args []string) (interface{}, error) {
			if err := Args(args, 2, 2, "postnb CORE KIND"); err != nil {
				return nil, err
			}
			core, err := s.core(args[0])
			if err != nil {
				return nil, err
			}
			kind, err := cmt.ParseKind(args[1])
			if err != nil {
				return nil, err
			}
			if !core.PostNonBlocking(cmt.NewMessage(kind)) {
				return nil, fmt.Errorf("%s queue full", core.ID())
			}
			return nil, nil
		},
	},
	{
		Name:    "both",
		Aliases: []string{"b"},
		Help:    "KIND",
		Run: func(s *Shell, args []string) (interface{}, error) {
			if err := Args(args, 1, 1, "both KIND"); err != nil {
				return nil, err
			}
			kind, err := cmt.ParseKind(args[0])
			if err != nil {
				return nil, err
			}
			return fmt.Sprintf("0x%02x", s.Sys.PostToBothNonBlocking(cmt.NewMessage(kind))), nil
		},
	},
	{
		Name:    "schedule",
		Aliases: []string{"s"},
		Help:    "CORE MS KIND",
		Run: func(s *Shell, args []string) (interface{}, error) {
			if err := Args(args, 3, 3, "schedule CORE MS KIND"); err != nil {
				return nil, err
			}
			id, err := ParseCore(args[0])
			if err != nil {
				return nil, err
			}
			ms, err := strconv.ParseInt(args[1], 10, 32)
			if err != nil {
				return nil, fmt.Errorf("invalid MS: %v", err)
			}
			kind, err := cmt.ParseKind(args[2])
			if err != nil {
				return nil, err
			}
			return nil, s.Sys.ScheduleIn(id, int32(ms), cmt.NewMessage(kind))
		},
	},
	{
		Name: "sleep",
		Help: "CORE MS",
		Run: func(s *Shell, args []string) (interface{}, error) {
			if err := Args(args, 2, 2, "sleep CORE MS"); err != nil {
				return nil, err
			}
			core, err := s.core(args[0])
			if err != nil {
				return nil, err
			}
			ms, err := strconv.ParseInt(args[1], 10, 32)
			if err != nil {
				return nil, fmt.Errorf("invalid MS: %v", err)
			}
			start := s.Sys.NowMS()
			return nil, core.Sleep(int32(ms), s.wake, start)
		},
	},
	{
		Name:    "cancel",
		Aliases: []string{"c"},
		Help:    "KIND",
		Run: func(s *Shell, args []string) (interface{}, error) {
			if err := Args(args, 1, 1, "cancel KIND"); err != nil {
				return nil, err
			}
			kind, err := cmt.ParseKind(args[0])
			if err != nil {
				return nil, err
			}
			return s.Sys.Cancel(kind), nil
		},
	},
	{
		Name: "exists",
		Help: "KIND",
		Run: func(s *Shell, args []string) (interface{}, error) {
			if err := Args(args, 1, 1, "exists KIND"); err != nil {
				return nil, err
			}
			kind, err := cmt.ParseKind(args[0])
			if err != nil {
				return nil, err
			}
			return s.Sys.Exists(kind), nil
		},
	},
	{
		Name: "sched",
		Help: "",
		Run: func(s *Shell, args []string) (interface{}, error) {
			info := ScheduledInfo{Count: s.Sys.ScheduledCount(), Kinds: []string{}}
			for _, kind := range s.Sys.ScheduledKinds(s.Sys.Config().ScheduledSlots) {
				info.Kinds = append(info.Kinds, kind.String())
			}
			return info, nil
		},
	},
	{
		Name:    "status",
		Aliases: []string{"st"},
		Help:    "[CORE]",
		Run: func(s *Shell, args []string) (interface{}, error) {
			if err := Args(args, 0, 1, "status [CORE]"); err != nil {
				return nil, err
			}
			if len(args) == 1 {
				id, err := ParseCore(args[0])
				if err != nil {
					return nil, err
				}
				return s.Sys.Status(id), nil
			}
			var lines []string
			statuses := make(map[string]cmt.ProcStatus)
			for n := 0; n < cmt.NumCores; n++ {
				id := cmt.CoreID(n)
				statuses[id.String()] = s.Sys.Status(id)
				lines = append(lines, fmt.Sprintf("%s: %s", id, s.Sys.Status(id)))
			}
			if s.OutputJSON {
				return statuses, nil
			}
			return strings.Join(lines, "\n"), nil
		},
	},
	{
		Name:    "levels",
		Aliases: []string{"l"},
		Help:    "CORE",
		Run: func(s *Shell, args []string) (interface{}, error) {
			if err := Args(args, 1, 1, "levels CORE"); err != nil {
				return nil, err
			}
			core, err := s.core(args[0])
			if err != nil {
				return nil, err
			}
			return core.QueueLevels(), nil
		},
	},
	{
		Name: "tick",
		Help: "[COUNT]",
		Run: func(s *Shell, args []string) (interface{}, error) {
			if err := Args(args, 0, 1, "tick [COUNT]"); err != nil {
				return nil, err
			}
			count := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 {
					return nil, fmt.Errorf("invalid COUNT %q", args[0])
				}
				count = n
			}
			ticks := s.Sys.TickSource()
			for i := 0; i < count; i++ {
				ticks.Tick()
			}
			return ticks.Count(), nil
		},
	},
}

func (s *Shell) wake(ctx context.Context, userData interface{}) {
	core := cmt.CoreFrom(ctx)
	elapsed := s.Sys.NowMS() - userData.(uint32)
	if s.Shell != nil {
		s.Shell.Printf("%s woke after %dms\n", core.ID(), elapsed)
		return
	}
	glog.Infof("%s woke after %dms", core.ID(), elapsed)
}
