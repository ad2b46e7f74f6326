package cmd

import (
	"fmt"
	"os"

	"github.com/JSH-Team/FrameHunter/cmd/outputs"
	"github.com/JSH-Team/FrameHunter/cmd/run"
	"github.com/JSH-Team/FrameHunter/cmd/system"
	"github.com/JSH-Team/FrameHunter/cmd/worker"
	"github.com/JSH-Team/FrameHunter/internal/config"
	"github.com/JSH-Team/FrameHunter/internal/utils/logger"

	"github.com/spf13/cobra"
)

var (
	// Version information
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"

	configPath string
	logLevel   string

	rootCmd = &cobra.Command{
		Use:   "framehunter",
		Short: "Extract frames from every video in a directory tree",
		Long: `FrameHunter walks a directory of videos and extracts still frames from each
one with ffmpeg, one frame every N seconds or every N frames, using a pool of
concurrent workers that can be paused, resumed and stopped.`,
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("FrameHunter %s\n", version)
			fmt.Printf("Build time: %s\n", buildTime)
			fmt.Printf("Git commit: %s\n", gitCommit)
		},
	}
)

// SetVersion sets the version information
func SetVersion(v, bt, gc string) {
	version = v
	buildTime = bt
	gitCommit = gc
	rootCmd.Version = v
}

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default <user config dir>/framehunter/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(run.RunCmd)
	rootCmd.AddCommand(outputs.OutputsCmd)
	rootCmd.AddCommand(system.SystemCmd)
	rootCmd.AddCommand(worker.WorkerCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	logger.Configure(os.Stderr, cfg.LogLevel)

	config.GlobalConfig = cfg
	config.ConfigPath = configPath
	return nil
}
