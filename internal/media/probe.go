package media

import (
	"context"
	"math/big"
	"strconv"
	"strings"
)

// probeArgs asks for the first video stream's r_frame_rate and duration,
// plus the container duration as a fallback for formats (e.g. Matroska)
// that leave the stream duration unset.
func probeArgs(path string) []string {
	return []string{
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=r_frame_rate,duration:format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}
}

// Probe reads the duration and frame rate expression of path
func (f *FFmpeg) Probe(ctx context.Context, path string) (ProbeInfo, error) {
	out, err := f.run(ctx, "ffprobe", f.bin.FFprobe, path, probeArgs(path))
	if err != nil {
		return ProbeInfo{}, err
	}
	return ParseProbeOutput(path, string(out))
}

// ParseProbeOutput parses the key-less ffprobe output: the frame rate on the
// first line followed by one or more duration lines, the first numeric one
// winning.
func ParseProbeOutput(path, output string) (ProbeInfo, error) {
	var lines []string
	for _, l := range strings.Split(output, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) < 2 {
		return ProbeInfo{}, &ProbeParseError{Path: path, Lines: lines, Reason: "expected frame rate and duration"}
	}

	for _, l := range lines[1:] {
		d, err := strconv.ParseFloat(l, 64)
		if err == nil && d >= 0 {
			return ProbeInfo{DurationSeconds: d, FrameRateExpr: lines[0]}, nil
		}
	}
	return ProbeInfo{}, &ProbeParseError{Path: path, Lines: lines, Reason: "no numeric duration"}
}

// ParseFrameRate converts a rational expression such as "30000/1001" (or a
// plain decimal such as "25") into frames per second
func ParseFrameRate(expr string) (float64, error) {
	expr = strings.TrimSpace(expr)
	r, ok := new(big.Rat).SetString(expr)
	if !ok || r.Sign() < 0 {
		return 0, &FrameRateParseError{Expr: expr}
	}
	fps, _ := r.Float64()
	return fps, nil
}
