//go:build unix

// Package sysproc sets up external processes so that a terminal interrupt
// reaches only the controlling process. Children finish their current work
// and are stopped through their own channels.
package sysproc

import (
	"os/exec"
	"syscall"
)

// Detach starts cmd in its own process group
func Detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
