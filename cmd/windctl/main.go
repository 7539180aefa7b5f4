package main

import (
	"github.com/robotalks/windctl/pkg/cli/sh"
	"github.com/robotalks/windctl/pkg/l0/board"

	_ "github.com/robotalks/windctl/pkg/cli/cmds/midi"
)

//go-build: CGO_ENABLED=0

func init() {
	board.SetupFlags()
}

func main() {
	sh.Main()
}
