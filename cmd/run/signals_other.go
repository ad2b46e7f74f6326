//go:build !unix

package run

import "os"

func controlSignals() []os.Signal { return nil }

func isPauseSignal(os.Signal) bool  { return false }
func isResumeSignal(os.Signal) bool { return false }
