package worker

import (
	"fmt"
	"os"

	"github.com/JSH-Team/FrameHunter/internal/media"
	"github.com/JSH-Team/FrameHunter/internal/utils/logger"
	"github.com/JSH-Team/FrameHunter/internal/workers/frames"

	"github.com/spf13/cobra"
)

var (
	controlPath string
	ffmpegPath  string
	ffprobePath string
	launchRate  int
)

// WorkerCmd is the body of a worker child process started by the process
// executor. It reads tasks on stdin and answers on stdout.
var WorkerCmd = &cobra.Command{
	Use:    "worker",
	Short:  "Run as a frame extraction worker process",
	Hidden: true,
	Args:   cobra.NoArgs,
	// Children skip the config file, everything arrives as flags
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, _ := cmd.Flags().GetString("log-level")
		logger.Configure(os.Stderr, level)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if controlPath == "" {
			return fmt.Errorf("--control is required")
		}
		if ffmpegPath == "" || ffprobePath == "" {
			return fmt.Errorf("--ffmpeg and --ffprobe are required")
		}

		gate := frames.NewControlGate(controlPath)
		defer gate.Close()

		adapter := media.NewFFmpeg(media.Binaries{FFmpeg: ffmpegPath, FFprobe: ffprobePath}, launchRate)
		logger.Debug("Worker process %d serving tasks", os.Getpid())
		return frames.ServeWorker(cmd.Context(), os.Stdin, os.Stdout, adapter, gate)
	},
}

func init() {
	WorkerCmd.Flags().StringVar(&controlPath, "control", "", "Control file shared with the parent")
	WorkerCmd.Flags().StringVar(&ffmpegPath, "ffmpeg", "", "Path to ffmpeg")
	WorkerCmd.Flags().StringVar(&ffprobePath, "ffprobe", "", "Path to ffprobe")
	WorkerCmd.Flags().IntVar(&launchRate, "launch-rate", 0, "Maximum tool launches per second, 0 for no limit")
}
