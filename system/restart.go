// Package system restarts the appliance, the one recovery path for every
// fatal condition.
package system

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Restarter performs an unconditional restart. On success it does not
// return.
type Restarter interface {
	Restart() error
}

// Restart modes accepted by New.
const (
	ModeReboot = "reboot"
	ModeExec   = "exec"
)

// New returns the Restarter for mode.
func New(mode string) (Restarter, error) {
	switch mode {
	case "", ModeReboot:
		return Reboot{}, nil
	case ModeExec:
		return Exec{}, nil
	}
	return nil, fmt.Errorf("unknown restart mode %q", mode)
}

// Exec replaces the running process with a fresh copy of itself, dropping
// all in-memory state without power-cycling the board.
type Exec struct{}

func (Exec) Restart() error {
	self, err := os.Executable()
	if nil != err {
		return err
	}
	return unix.Exec(self, os.Args, os.Environ())
}
