// Package fingerprint obtains acoustic fingerprints from the external
// chromaprint command-line tool (fpcalc).
package fingerprint

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/franz/tunetrack/internal/toolexec"
	"github.com/franz/tunetrack/internal/util"
)

// DefaultTool is the fingerprinting binary looked up on PATH
const DefaultTool = "fpcalc"

const marker = "FINGERPRINT="

// ErrExtractionFailed indicates the tool ran but produced no fingerprint.
// It is a per-file condition; the batch carries on.
var ErrExtractionFailed = errors.New("fingerprint extraction failed")

// Extractor runs fpcalc in raw mode and parses its output
type Extractor struct {
	runner toolexec.Runner
	tool   string
}

// Config holds extractor configuration
type Config struct {
	Runner toolexec.Runner
	Tool   string // binary name or path, defaults to fpcalc
}

// New creates a new Extractor
func New(cfg *Config) *Extractor {
	tool := cfg.Tool
	if tool == "" {
		tool = DefaultTool
	}
	return &Extractor{
		runner: cfg.Runner,
		tool:   tool,
	}
}

// Extract returns the fingerprint of the audio file at path.
//
// A missing binary is returned as util.ErrToolMissing and must end the run.
// Every other failure, including a timeout, is ErrExtractionFailed.
func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	res, runErr := e.runner.Run(ctx, e.tool, path, "-raw")
	if runErr != nil {
		if errors.Is(runErr, util.ErrToolMissing) {
			return "", runErr
		}
		if ctx.Err() != nil && !errors.Is(runErr, util.ErrTimeout) {
			return "", ctx.Err()
		}
	}

	var stdout []byte
	if res != nil {
		stdout = res.Stdout
	}

	// The marker line is the success signal, even when the exit status is not
	if fp, ok := ParseOutput(stdout); ok {
		if runErr != nil {
			util.DebugLog("%s exited non-zero for %s but printed a fingerprint", e.tool, path)
		}
		return fp, nil
	}

	if runErr != nil {
		stderr := ""
		if res != nil {
			stderr = strings.TrimSpace(string(res.Stderr))
		}
		if stderr != "" {
			return "", fmt.Errorf("%w: %s: %w (%s)", ErrExtractionFailed, path, runErr, stderr)
		}
		return "", fmt.Errorf("%w: %s: %w", ErrExtractionFailed, path, runErr)
	}

	return "", fmt.Errorf("%w: %s: no %s line in output", ErrExtractionFailed, path, marker)
}

// ParseOutput scans fpcalc output line by line for the FINGERPRINT= marker
// and returns the trimmed value after it. An empty value counts as absent.
func ParseOutput(out []byte) (string, bool) {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	// raw fingerprints of long tracks exceed bufio's default 64KB line limit
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		idx := strings.Index(line, marker)
		if idx < 0 {
			continue
		}
		value := strings.TrimSpace(line[idx+len(marker):])
		if value == "" {
			continue
		}
		return value, true
	}

	return "", false
}
