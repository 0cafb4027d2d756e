package system

import "golang.org/x/sys/unix"

// Reboot flushes filesystems and restarts the machine.
type Reboot struct{}

func (Reboot) Restart() error {
	unix.Sync()
	return unix.Reboot(unix.LINUX_REBOOT_CMD_RESTART)
}
