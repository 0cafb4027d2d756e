//go:build !linux

package system

import "errors"

// Reboot is only supported on Linux.
type Reboot struct{}

func (Reboot) Restart() error {
	return errors.New("reboot is only supported on linux")
}
