package config

import (
	"fmt"
	"time"

	"github.com/JSH-Team/FrameHunter/internal/models"
	"github.com/JSH-Team/FrameHunter/internal/scanner"
	"github.com/JSH-Team/FrameHunter/internal/sizer"
	"github.com/JSH-Team/FrameHunter/internal/storage"
	"github.com/JSH-Team/FrameHunter/internal/workers/frames"
)

// Config is the content of config.yaml. Flags of the run command override it.
type Config struct {
	// External tools
	FFmpegPath  string `mapstructure:"ffmpeg_path" yaml:"ffmpeg_path"`
	FFprobePath string `mapstructure:"ffprobe_path" yaml:"ffprobe_path"`
	BinariesDir string `mapstructure:"binaries_dir" yaml:"binaries_dir"`

	// Worker pool
	Executor              string        `mapstructure:"executor" yaml:"executor"`
	Workers               int           `mapstructure:"workers" yaml:"workers"` // 0 sizes the pool from idle CPU
	ToolThreads           int           `mapstructure:"tool_threads" yaml:"tool_threads"`
	ToolLaunchesPerSecond int           `mapstructure:"tool_launches_per_second" yaml:"tool_launches_per_second"`
	CPUSampleInterval     time.Duration `mapstructure:"cpu_sample_interval" yaml:"cpu_sample_interval"`

	// Extraction
	Mode        string   `mapstructure:"mode" yaml:"mode"`
	Interval    int      `mapstructure:"interval" yaml:"interval"`
	ImageFormat string   `mapstructure:"image_format" yaml:"image_format"`
	JPEGQuality int      `mapstructure:"jpeg_quality" yaml:"jpeg_quality"`
	Extensions  []string `mapstructure:"extensions" yaml:"extensions"`

	// Output
	OutputPrefix string `mapstructure:"output_prefix" yaml:"output_prefix"`
	LogLevel     string `mapstructure:"log_level" yaml:"log_level"`
}

// Defaults returns the configuration written on first run
func Defaults() Config {
	return Config{
		BinariesDir:       DefaultBinariesDir(),
		Executor:          string(frames.ExecutorThread),
		CPUSampleInterval: sizer.DefaultSampleInterval,
		Mode:              string(models.ModeTime),
		Interval:          1,
		ImageFormat:       string(models.FormatPNG),
		JPEGQuality:       models.DefaultJPEGQuality,
		Extensions:        append([]string(nil), scanner.DefaultExtensions...),
		OutputPrefix:      storage.DefaultOutputPrefix,
		LogLevel:          "info",
	}
}

// ProcessingConfig converts the extraction settings into the value handed to the pool
func (c Config) ProcessingConfig() (models.ProcessingConfig, error) {
	mode, err := models.ParseMode(c.Mode)
	if err != nil {
		return models.ProcessingConfig{}, err
	}
	format, err := models.ParseImageFormat(c.ImageFormat)
	if err != nil {
		return models.ProcessingConfig{}, err
	}

	pc := models.ProcessingConfig{
		Mode:        mode,
		Interval:    c.Interval,
		Workers:     c.Workers,
		ImageFormat: format,
		Quality:     c.JPEGQuality,
		ToolThreads: c.ToolThreads,
	}
	if err := pc.Validate(); err != nil {
		return models.ProcessingConfig{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return pc, nil
}

// ExecutorKind returns the configured executor
func (c Config) ExecutorKind() (frames.ExecutorKind, error) {
	return frames.ParseExecutor(c.Executor)
}

var (
	// GlobalConfig is the configuration loaded by the root command
	GlobalConfig = Defaults()
	// ConfigPath is the --config flag value, empty for the default location
	ConfigPath string
)
