// Package media turns source audio files into canonical PCM WAV samples
// using ffmpeg.
package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/franz/tunetrack/internal/toolexec"
	"github.com/franz/tunetrack/internal/util"
)

const (
	// DefaultTool is the media binary looked up on PATH
	DefaultTool = "ffmpeg"

	// PCMCodec is the canonical sample encoding: 16-bit signed little-endian
	PCMCodec = "pcm_s16le"
)

var (
	// ErrConversionFailed indicates the source could not be transcoded to WAV
	ErrConversionFailed = errors.New("conversion to wav failed")

	// ErrSamplingFailed indicates the excerpt could not be cut
	ErrSamplingFailed = errors.New("sample creation failed")
)

// Generator produces fixed-duration WAV excerpts
type Generator struct {
	runner toolexec.Runner
	tool   string
}

// Config holds generator configuration
type Config struct {
	Runner toolexec.Runner
	Tool   string // binary name or path, defaults to ffmpeg
}

// New creates a new Generator
func New(cfg *Config) *Generator {
	tool := cfg.Tool
	if tool == "" {
		tool = DefaultTool
	}
	return &Generator{
		runner: cfg.Runner,
		tool:   tool,
	}
}

// IsWAV reports whether path already has the canonical container extension
func IsWAV(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".wav")
}

// WAVName returns the transcode target for src inside outDir
func WAVName(src, outDir string) string {
	return filepath.Join(outDir, baseName(src)+".wav")
}

// SampleName returns the deterministic excerpt path for src and seconds
// inside outDir, e.g. "song_sample_10s.wav"
func SampleName(src, outDir string, seconds int) string {
	return filepath.Join(outDir, fmt.Sprintf("%s_sample_%ds.wav", baseName(src), seconds))
}

// FormatClock renders whole seconds as HH:MM:SS for ffmpeg's -t option
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds/60)%60, seconds%60)
}

// Transcode converts src to PCM WAV inside outDir and returns the new path
func (g *Generator) Transcode(ctx context.Context, src, outDir string) (string, error) {
	out := WAVName(src, outDir)

	if err := g.run(ctx, ErrConversionFailed, out,
		"-y",
		"-i", src,
		"-c:a", PCMCodec,
		out,
	); err != nil {
		return "", err
	}

	util.DebugLog("Converted: %s -> %s", src, out)
	return out, nil
}

// Trim writes the first seconds of src to a deterministic path in outDir.
// An existing file at that path is overwritten.
func (g *Generator) Trim(ctx context.Context, src, outDir string, seconds int) (string, error) {
	if seconds <= 0 {
		return "", fmt.Errorf("%w: %s: invalid sample duration %d", ErrSamplingFailed, src, seconds)
	}

	out := SampleName(src, outDir, seconds)

	if err := g.run(ctx, ErrSamplingFailed, out,
		"-y",
		"-i", src,
		"-ss", "00:00:00",
		"-t", FormatClock(seconds),
		"-c:a", PCMCodec,
		out,
	); err != nil {
		return "", err
	}

	util.DebugLog("Created sample: %s from %s", out, src)
	return out, nil
}

// run invokes ffmpeg and checks that out exists and is a readable WAV file.
// Failures are wrapped with stageErr except a missing binary, which stays fatal.
func (g *Generator) run(ctx context.Context, stageErr error, out string, args ...string) error {
	res, err := g.runner.Run(ctx, g.tool, args...)
	if err != nil {
		if errors.Is(err, util.ErrToolMissing) {
			return err
		}
		if ctx.Err() != nil && !errors.Is(err, util.ErrTimeout) {
			return ctx.Err()
		}
		if res != nil && len(res.Stderr) > 0 {
			return fmt.Errorf("%w: %s: %w (%s)", stageErr, out, err, lastLine(res.Stderr))
		}
		return fmt.Errorf("%w: %s: %w", stageErr, out, err)
	}

	if _, err := os.Stat(out); err != nil {
		return fmt.Errorf("%w: %s: output missing: %v", stageErr, out, err)
	}

	if err := ValidateWAV(out); err != nil {
		return fmt.Errorf("%w: %v", stageErr, err)
	}

	return nil
}

func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// lastLine returns the last non-empty line of ffmpeg's stderr, which holds
// the actual error after the banner
func lastLine(b []byte) string {
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}
