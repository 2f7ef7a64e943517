//go:build windows

// Package process terminates browser process trees.
package process

import (
	"fmt"
	"os/exec"
	"strconv"
)

// KillTree kills a process and all its children using taskkill.
// /F = force kill, /T = terminate child processes (tree kill).
func KillTree(pid int) error {
	if pid <= 1 {
		return fmt.Errorf("%w: %d", ErrInvalidPID, pid)
	}
	if err := exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid)).Run(); err != nil {
		return fmt.Errorf("taskkill %d: %w", pid, err)
	}
	return nil
}
