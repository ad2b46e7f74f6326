package main

import (
	"os"

	"github.com/JSH-Team/FrameHunter/cmd"
)

// Version information set during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Set version information in cmd package
	cmd.SetVersion(Version, BuildTime, GitCommit)

	// Interrupts are handled by the run command, which stops the batch and
	// waits for in-flight items before exiting
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
