package system

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"

	"github.com/JSH-Team/FrameHunter/internal/config"
	"github.com/JSH-Team/FrameHunter/internal/sizer"
	"github.com/JSH-Team/FrameHunter/internal/utils/console"

	"github.com/spf13/cobra"
)

// SystemCmd reports what a run on this machine would use
var SystemCmd = &cobra.Command{
	Use:   "system",
	Short: "Show CPU capacity, suggested worker count and tool locations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.GlobalConfig

		workers, sample, err := sizer.Estimate(cmd.Context(), cfg.CPUSampleInterval)
		if err != nil {
			fmt.Fprintf(os.Stderr, "CPU sampling failed, suggestion based on core count only: %v\n", err)
		}
		usage, err := sizer.NewMonitor().Sample(cmd.Context())
		if err != nil {
			usage = sizer.Usage{}
		}

		printReport(os.Stdout, cfg, configLocation(), sample, workers, usage)
		return nil
	},
}

func configLocation() string {
	if config.ConfigPath != "" {
		return config.ConfigPath
	}
	path, err := config.DefaultConfigPath()
	if err != nil {
		return "unknown"
	}
	return path
}

func printReport(w io.Writer, cfg config.Config, configPath string, sample sizer.Sample, workers int, usage sizer.Usage) {
	rows := [][]string{
		{"Platform", runtime.GOOS + "/" + runtime.GOARCH},
		{"Logical cores", strconv.Itoa(sample.TotalCores)},
		{"Idle CPU", fmt.Sprintf("%.1f%%", sample.IdlePercent)},
		{"Suggested workers", strconv.Itoa(workers)},
		{"Configured workers", configuredWorkers(cfg.Workers)},
		{"Executor", cfg.Executor},
		{"System CPU", fmt.Sprintf("%.1f%%", usage.SystemPercent)},
		{"Config file", configPath},
	}

	bin, err := config.ResolveBinaries(cfg)
	var missing *config.MissingBinariesError
	switch {
	case err == nil:
		rows = append(rows, []string{"ffmpeg", bin.FFmpeg}, []string{"ffprobe", bin.FFprobe})
	case errors.As(err, &missing):
		for _, name := range missing.Names {
			rows = append(rows, []string{name, "not found"})
		}
	default:
		rows = append(rows, []string{"Tools", err.Error()})
	}

	fmt.Fprintln(w, console.RenderTable([]string{"Item", "Value"}, rows))
}

func configuredWorkers(n int) string {
	if n == 0 {
		return "auto"
	}
	return strconv.Itoa(n)
}
