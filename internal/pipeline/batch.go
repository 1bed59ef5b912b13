package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/franz/tunetrack/internal/util"
)

// Batch runs the orchestrator over a list of files, one at a time
type Batch struct {
	orch *Orchestrator
	out  io.Writer
	bar  bool
}

// BatchConfig holds batch configuration
type BatchConfig struct {
	Out      io.Writer // receives the per-file progress and match lines, defaults to stdout
	Progress bool      // draw a progress bar on stderr when it is a terminal
}

// BatchResult summarizes a finished or stopped batch
type BatchResult struct {
	Outcomes  []*Outcome
	Persisted int
	Failed    int
	ByKind    map[FailureKind]int
	Orphans   []*Outcome
	Elapsed   time.Duration

	// Remaining counts files never started because the batch stopped early
	Remaining int
}

// NewBatch creates a batch runner around orch
func NewBatch(orch *Orchestrator, cfg *BatchConfig) *Batch {
	if cfg == nil {
		cfg = &BatchConfig{}
	}
	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}
	return &Batch{orch: orch, out: out, bar: cfg.Progress}
}

// Run processes paths in order. A per-file failure is recorded and the batch
// moves on; a missing tool or cancelled ctx stops it and is returned along
// with the partial result.
func (b *Batch) Run(ctx context.Context, paths []string) (*BatchResult, error) {
	start := time.Now()
	result := &BatchResult{
		ByKind: make(map[FailureKind]int),
	}
	defer func() { result.Elapsed = time.Since(start) }()

	var bar *progressbar.ProgressBar
	if b.bar && util.IsTerminal(os.Stderr.Fd()) && !util.IsQuiet() {
		bar = progressbar.NewOptions(len(paths),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("Cataloging"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("files"),
			progressbar.OptionThrottle(200*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
		defer bar.Finish()
	}

	// output key -> first source that claimed it
	claimed := make(map[string]string, len(paths))

	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			result.Remaining = len(paths) - i
			return result, err
		}

		fmt.Fprintf(b.out, "Processing: %s\n", b.orch.DisplayName(path))

		key := b.orch.outputKey(path)
		if first, ok := claimed[key]; ok {
			result.add(b.orch.collision(path, first))
			if bar != nil {
				bar.Add(1)
			}
			continue
		}
		claimed[key] = path

		outcome, err := b.orch.Process(ctx, path)
		result.add(outcome)

		if outcome.Scored() {
			fmt.Fprintf(b.out, "Fingerprint match: %.2f%%\n", outcome.Score)
		}

		if bar != nil {
			bar.Describe(fmt.Sprintf("Cataloging | %d ok | %d failed", result.Persisted, result.Failed))
			bar.Add(1)
		}

		if err != nil {
			result.Remaining = len(paths) - i - 1
			return result, fmt.Errorf("batch stopped at %s: %w", filepath.Base(path), err)
		}
	}

	return result, nil
}

func (r *BatchResult) add(o *Outcome) {
	r.Outcomes = append(r.Outcomes, o)
	if o.OK() {
		r.Persisted++
		return
	}
	r.Failed++
	r.ByKind[o.Failure]++
	if o.Orphaned() {
		r.Orphans = append(r.Orphans, o)
	}
}
