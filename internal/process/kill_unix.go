//go:build !windows

// Package process terminates browser process trees.
package process

import (
	"fmt"
	"syscall"
)

// KillTree kills a process and all its children by sending SIGKILL to the
// process group (negative PID). Chrome leads its own group, so renderer
// and GPU helpers go down with it.
func KillTree(pid int) error {
	if pid <= 1 {
		return fmt.Errorf("%w: %d", ErrInvalidPID, pid)
	}
	if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil && err != syscall.ESRCH {
		return fmt.Errorf("killing process group %d: %w", pid, err)
	}
	return nil
}
