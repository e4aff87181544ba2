package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"
	"golang.org/x/term"

	"github.com/robotalks/cmt.go/pkg/board"
	"github.com/robotalks/cmt.go/pkg/cmt"
)

// Shell provides an ishell backed interactive shell driving an in-process
// board.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell *ishell.Shell
	Board *board.Board
	Sys   *cmt.System

	values map[string]interface{}
}

// Command is a shell command. Run returns the value printed as the result.
type Command struct {
	Name    string
	Aliases []string
	Help    string
	Run     func(s *Shell, args []string) (interface{}, error)
}

const prompt = "cmt > "

var (
	evalOnly   bool
	outputJSON bool

	commands = map[string]*Command{}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	AddCmds(systemCommands...)
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*Command) {
	for _, cmd := range cmds {
		commands[cmd.Name] = cmd
	}
}

// New creates a new shell on b.
func New(b *board.Board) *Shell {
	return &Shell{
		Interactive: !evalOnly && term.IsTerminal(int(os.Stdin.Fd())),
		OutputJSON:  outputJSON,
		Board:       b,
		Sys:         b.System,
		values:      make(map[string]interface{}),
	}
}

// Set attaches a value used by command providers.
func (s *Shell) Set(key string, val interface{}) *Shell {
	s.values[key] = val
	return s
}

// Get retrieves a value attached by Set.
func (s *Shell) Get(key string) interface{} {
	return s.values[key]
}

// Exec runs the command named by args[0] and formats its result.
func (s *Shell) Exec(args ...string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("command expected")
	}
	cmd := lookup(args[0])
	if cmd == nil {
		return "", fmt.Errorf("unknown command %q", args[0])
	}
	result, err := cmd.Run(s, args[1:])
	if err != nil {
		return "", err
	}
	return s.format(result)
}

func (s *Shell) format(result interface{}) (string, error) {
	if s.OutputJSON {
		out, err := json.Marshal(result)
		if err != nil {
			return "", err
		}
		return string(out), nil
	}
	switch v := result.(type) {
	case nil:
		return "OK", nil
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return fmt.Sprintf("%+v", v), nil
	}
}

func lookup(name string) *Command {
	if cmd, ok := commands[name]; ok {
		return cmd
	}
	for _, cmd := range commands {
		for _, alias := range cmd.Aliases {
			if alias == name {
				return cmd
			}
		}
	}
	return nil
}

// CommandNames returns the sorted names of all commands.
func CommandNames() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Shell) ishellCmd(cmd *Command) *ishell.Cmd {
	return &ishell.Cmd{
		Name:    cmd.Name,
		Aliases: cmd.Aliases,
		Help:    cmd.Help,
		Func: func(c *ishell.Context) {
			out, err := s.Exec(append([]string{cmd.Name}, c.Args...)...)
			if err != nil {
				c.Err(err)
				return
			}
			c.Println(out)
		},
	}
}

// Run starts the board and runs the shell, or the single command in args.
func (s *Shell) Run(args ...string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runner := s.Board.Start(board.NewRunnerWith(ctx))
	if err := board.WaitRunning(ctx, s.Sys); err != nil {
		return err
	}

	if len(args) > 0 {
		out, err := s.Exec(args...)
		if err != nil {
			return err
		}
		fmt.Println(out)
	} else if s.Interactive {
		s.Shell = ishell.New()
		s.Shell.SetPrompt(prompt)
		for _, name := range CommandNames() {
			s.Shell.AddCmd(s.ishellCmd(commands[name]))
		}
		s.Shell.Run()
	} else {
		return fmt.Errorf("command expected")
	}

	cancel()
	if err := runner.Wait(); err != nil {
		glog.Warningf("board stopped: %v", err)
	}
	return nil
}

// Main is a helper to provide a single call in main.
func Main(s *Shell) {
	if err := s.Run(flag.Args()...); err != nil {
		fmt.Fprintln(os.Stderr, strings.TrimSpace(err.Error()))
		os.Exit(1)
	}
}
