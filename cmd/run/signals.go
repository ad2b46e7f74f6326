package run

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/JSH-Team/FrameHunter/internal/batch"
	"github.com/JSH-Team/FrameHunter/internal/utils/logger"
)

// interruptExitCode is used when a second interrupt abandons the batch
const interruptExitCode = 130

// watchSignals stops the batch on the first interrupt and exits on the
// second. Platforms with user signals also get pause and resume. The
// returned function stops watching.
func watchSignals(runner *batch.Runner) func() {
	sigs := make(chan os.Signal, 4)
	signal.Notify(sigs, append([]os.Signal{os.Interrupt, syscall.SIGTERM}, controlSignals()...)...)

	done := make(chan struct{})
	go func() {
		interrupts := 0
		for {
			select {
			case <-done:
				return
			case sig := <-sigs:
				switch {
				case isPauseSignal(sig):
					runner.Pause()
				case isResumeSignal(sig):
					runner.Resume()
				default:
					interrupts++
					if interrupts > 1 {
						logger.Warn("Interrupted again, exiting without waiting for running videos")
						os.Exit(interruptExitCode)
					}
					logger.Warn("Stopping after the videos in progress, press Ctrl+C again to exit now")
					runner.Stop()
				}
			}
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(done)
	}
}
