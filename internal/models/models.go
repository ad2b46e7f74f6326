package models

import (
	"fmt"
	"strings"
)

// Mode selects how frames are picked out of a video
type Mode string

const (
	ModeTime  Mode = "time"  // one frame every N seconds
	ModeFrame Mode = "frame" // one frame every N frames
)

// ParseMode converts a config or flag value into a Mode
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "time", "seconds", "second", "t":
		return ModeTime, nil
	case "frame", "frames", "f":
		return ModeFrame, nil
	}
	return "", fmt.Errorf("unknown extraction mode %q (want time or frame)", s)
}

// ImageFormat is the file format of extracted frames
type ImageFormat string

const (
	FormatPNG ImageFormat = "png"
	FormatJPG ImageFormat = "jpg"
	FormatBMP ImageFormat = "bmp"
)

// ParseImageFormat converts a config or flag value into an ImageFormat
func ParseImageFormat(s string) (ImageFormat, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPG, nil
	case "bmp":
		return FormatBMP, nil
	}
	return "", fmt.Errorf("unsupported image format %q (want png, jpg or bmp)", s)
}

// Lossy reports whether the quality setting applies to this format
func (f ImageFormat) Lossy() bool {
	return f == FormatJPG
}

// DefaultJPEGQuality is used when a lossy format is selected without a quality
const DefaultJPEGQuality = 85

// WorkItem is one input file queued for processing
type WorkItem struct {
	Path      string `json:"path"`
	RelPath   string `json:"rel_path"`
	Size      int64  `json:"size"`
	Extension string `json:"extension"`
}

// Name returns the base name of the input file
func (w WorkItem) Name() string {
	name := w.RelPath
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		return w.Path
	}
	return name
}

// ProcessingConfig describes how every item of a batch is processed.
// It is treated as a value and never mutated once a batch starts.
type ProcessingConfig struct {
	Mode        Mode        `json:"mode"`
	Interval    int         `json:"interval"`
	Workers     int         `json:"workers"` // 0 lets the resource sizer decide
	ImageFormat ImageFormat `json:"image_format"`
	Quality     int         `json:"quality,omitempty"`
	ToolThreads int         `json:"tool_threads,omitempty"`
}

// Validate checks the config before a batch is started
func (c ProcessingConfig) Validate() error {
	if c.Mode != ModeTime && c.Mode != ModeFrame {
		return fmt.Errorf("invalid extraction mode %q", c.Mode)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be a positive integer, got %d", c.Interval)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if _, err := ParseImageFormat(string(c.ImageFormat)); err != nil {
		return err
	}
	if c.ImageFormat.Lossy() && (c.Quality < 0 || c.Quality > 100) {
		return fmt.Errorf("quality must be between 1 and 100 (0 selects the default), got %d", c.Quality)
	}
	if c.ToolThreads < 0 {
		return fmt.Errorf("tool threads must not be negative, got %d", c.ToolThreads)
	}
	return nil
}

// EffectiveQuality returns the quality passed to the extractor, or 0 when the format is lossless
func (c ProcessingConfig) EffectiveQuality() int {
	if !c.ImageFormat.Lossy() {
		return 0
	}
	if c.Quality <= 0 {
		return DefaultJPEGQuality
	}
	return c.Quality
}

// FailureMarker replaces the duration of an item whose processing failed
const FailureMarker = "read failed"

// ItemResult is the outcome record of one processed WorkItem
type ItemResult struct {
	FileName      string  `json:"file_name"`
	SourceDir     string  `json:"source_dir"`
	SourcePath    string  `json:"source_path"`
	Type          string  `json:"type"`
	SizeMB        float64 `json:"size_mb"`
	SizeBytes     int64   `json:"size_bytes"`
	Duration      string  `json:"duration"`
	FrameRate     float64 `json:"frame_rate"`
	FrameCount    int     `json:"frame_count"`
	FramesWritten int     `json:"frames_written"`
	OutputDir     string  `json:"output_dir"`
	Failed        bool    `json:"failed"`
	Error         string  `json:"error,omitempty"`
}
