package main

//go-build: CGO_ENABLED=0

import (
	"flag"

	"github.com/golang/glog"

	"github.com/robotalks/cmt.go/pkg/board"
	cmds "github.com/robotalks/cmt.go/pkg/cli/cmds/rover"
	"github.com/robotalks/cmt.go/pkg/cli/sh"
	"github.com/robotalks/cmt.go/pkg/cmt"
	"github.com/robotalks/cmt.go/pkg/rover"
)

func init() {
	cmt.SetupFlags()
	rover.SetupFlags()
}

func main() {
	flag.Parse()

	conf, err := cmt.NewConfig()
	if err != nil {
		glog.Exit(err)
	}
	// keep the shell alive on failed posts
	conf.NoQueueAddPanic = true
	conf.Panic = func(err *cmt.FatalError) { glog.Error(err) }
	sys, err := cmt.New(conf)
	if err != nil {
		glog.Exit(err)
	}
	b, err := board.New(sys)
	if err != nil {
		glog.Exit(err)
	}
	roverConf := rover.NewConfig()
	if err := roverConf.Validate(); err != nil {
		glog.Exit(err)
	}
	r := rover.NewSim(sys, roverConf)
	r.Install(b)
	sh.Main(cmds.Attach(sh.New(b), r))
}
