package run

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/JSH-Team/FrameHunter/internal/batch"
	"github.com/JSH-Team/FrameHunter/internal/config"
	"github.com/JSH-Team/FrameHunter/internal/media"
	"github.com/JSH-Team/FrameHunter/internal/sizer"
	"github.com/JSH-Team/FrameHunter/internal/utils/logger"
	"github.com/JSH-Team/FrameHunter/internal/workers/frames"

	"github.com/spf13/cobra"
)

var (
	workers     int
	mode        string
	interval    int
	format      string
	quality     int
	executor    string
	toolThreads int
	outputDir   string
	prefix      string
	extensions  []string
	noProgress  bool
)

// monitorInterval is how often the CPU usage shown next to the progress bar
// is refreshed
const monitorInterval = 2 * time.Second

// RunCmd extracts frames from every supported video under a directory
var RunCmd = &cobra.Command{
	Use:   "run <directory>",
	Short: "Extract frames from every video under a directory",
	Long: `Scan a directory tree for video files and extract frames from each of them,
either one frame every N seconds (--mode time) or every N frames (--mode frame).

Frames are written to <output>/<prefix>_<timestamp>/<video name>/. Press Ctrl+C
once to stop after the videos in progress, twice to exit immediately. On Unix,
SIGUSR1 pauses the batch and SIGUSR2 resumes it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.GlobalConfig
		applyFlags(cmd, &cfg)
		return runBatch(cmd.Context(), args[0], cfg)
	},
}

func init() {
	RunCmd.Flags().IntVarP(&workers, "workers", "w", 0, "Number of concurrent workers, 0 sizes the pool from idle CPU")
	RunCmd.Flags().StringVarP(&mode, "mode", "m", "", "Extraction mode: time or frame")
	RunCmd.Flags().IntVarP(&interval, "interval", "i", 0, "Seconds (time mode) or frames (frame mode) between extracted frames")
	RunCmd.Flags().StringVarP(&format, "format", "f", "", "Image format: png, jpg or bmp")
	RunCmd.Flags().IntVarP(&quality, "quality", "q", 0, "JPEG quality from 1 to 100")
	RunCmd.Flags().StringVarP(&executor, "executor", "e", "", "Execution model: thread or process")
	RunCmd.Flags().IntVar(&toolThreads, "tool-threads", 0, "Threads per ffmpeg process, 0 lets ffmpeg decide")
	RunCmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory the batch directory is created in (default: the scanned directory)")
	RunCmd.Flags().StringVar(&prefix, "prefix", "", "Batch directory name prefix")
	RunCmd.Flags().StringSliceVar(&extensions, "extensions", nil, "Video file extensions to pick up, e.g. .mp4,.mkv")
	RunCmd.Flags().BoolVar(&noProgress, "no-progress", false, "Log progress lines instead of drawing a progress bar")
}

// applyFlags overrides config values with the flags set on the command line
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("mode") {
		cfg.Mode = mode
	}
	if flags.Changed("interval") {
		cfg.Interval = interval
	}
	if flags.Changed("format") {
		cfg.ImageFormat = format
	}
	if flags.Changed("quality") {
		cfg.JPEGQuality = quality
	}
	if flags.Changed("executor") {
		cfg.Executor = executor
	}
	if flags.Changed("tool-threads") {
		cfg.ToolThreads = toolThreads
	}
	if flags.Changed("prefix") {
		cfg.OutputPrefix = prefix
	}
	if flags.Changed("extensions") {
		cfg.Extensions = extensions
	}
}

func runBatch(ctx context.Context, root string, cfg config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}

	pc, err := cfg.ProcessingConfig()
	if err != nil {
		return err
	}
	kind, err := cfg.ExecutorKind()
	if err != nil {
		return err
	}
	bin, err := config.ResolveBinaries(cfg)
	if err != nil {
		return err
	}
	logger.Debug("Using ffmpeg %s and ffprobe %s", bin.FFmpeg, bin.FFprobe)

	ui := newProgressUI(os.Stderr, noProgress)

	runner, err := batch.Start(ctx, batch.Options{
		Root:           root,
		OutputParent:   outputDir,
		OutputPrefix:   cfg.OutputPrefix,
		Extensions:     cfg.Extensions,
		Config:         pc,
		Executor:       kind,
		Adapter:        media.NewFFmpeg(bin, cfg.ToolLaunchesPerSecond),
		Process:        frames.ProcessOptions{Args: workerArgs(bin, cfg)},
		Events:         ui.events(),
		SampleInterval: cfg.CPUSampleInterval,
	})
	if err != nil {
		ui.abort()
		return err
	}

	total := len(runner.Items())
	if total == 0 {
		ui.abort()
		logger.Warn("No supported video files found under %s", root)
	} else {
		ui.start(total)
	}

	monitorCtx, stopMonitor := context.WithCancel(ctx)
	defer stopMonitor()
	go sizer.NewMonitor().Run(monitorCtx, monitorInterval, ui.setUsage)

	stopSignals := watchSignals(runner)
	defer stopSignals()

	summary := runner.Wait()
	stopMonitor()
	ui.finish()

	printSummary(os.Stdout, summary)
	if summary.Cancelled {
		return fmt.Errorf("batch stopped after %d of %d videos", summary.Completed, summary.Total)
	}
	return nil
}

// workerArgs are the arguments a worker child is started with, ahead of
// the --control flag the pool appends
func workerArgs(bin media.Binaries, cfg config.Config) []string {
	args := []string{
		"worker",
		"--ffmpeg", bin.FFmpeg,
		"--ffprobe", bin.FFprobe,
		"--launch-rate", strconv.Itoa(cfg.ToolLaunchesPerSecond),
	}
	if level := strings.TrimSpace(cfg.LogLevel); level != "" {
		args = append(args, "--log-level", level)
	}
	return args
}
