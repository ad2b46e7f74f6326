//go:build unix

package run

import (
	"os"
	"syscall"
)

func controlSignals() []os.Signal {
	return []os.Signal{syscall.SIGUSR1, syscall.SIGUSR2}
}

func isPauseSignal(sig os.Signal) bool  { return sig == syscall.SIGUSR1 }
func isResumeSignal(sig os.Signal) bool { return sig == syscall.SIGUSR2 }
