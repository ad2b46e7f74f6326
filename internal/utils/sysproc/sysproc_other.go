//go:build !unix && !windows

package sysproc

import "os/exec"

func Detach(*exec.Cmd) {}
