// Package pipeline drives one source file at a time through conversion,
// sampling, fingerprinting, scoring and cataloging.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/franz/tunetrack/internal/media"
	"github.com/franz/tunetrack/internal/meta"
	"github.com/franz/tunetrack/internal/report"
	"github.com/franz/tunetrack/internal/score"
	"github.com/franz/tunetrack/internal/store"
	"github.com/franz/tunetrack/internal/util"
)

// DefaultDuration is the sample length in seconds
const DefaultDuration = 10

// ErrNameCollision marks a source whose output names are taken by an earlier
// source of the same batch, e.g. song.mp3 next to song.wav
var ErrNameCollision = errors.New("output name already used")

// SampleGenerator converts sources to WAV and cuts excerpts
type SampleGenerator interface {
	Transcode(ctx context.Context, src, outDir string) (string, error)
	Trim(ctx context.Context, src, outDir string, seconds int) (string, error)
}

// FingerprintExtractor fingerprints an audio file
type FingerprintExtractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// Catalog is the append-only song/sample/fingerprint store
type Catalog interface {
	InsertSong(ctx context.Context, song *store.Song) (int64, error)
	InsertSample(ctx context.Context, songID int64, path string, duration int) (int64, error)
	InsertFingerprint(ctx context.Context, sampleID int64, value string) (int64, error)
}

// MetadataReader supplies song metadata for a source file
type MetadataReader interface {
	Read(ctx context.Context, path string) *meta.SongInfo
}

// Orchestrator runs the per-file state machine
type Orchestrator struct {
	generator SampleGenerator
	extractor FingerprintExtractor
	catalog   Catalog
	metadata  MetadataReader
	inputDir  string
	outputDir string
	duration  int
	logger    *report.EventLogger
}

// Config holds orchestrator configuration
type Config struct {
	Generator SampleGenerator
	Extractor FingerprintExtractor
	Catalog   Catalog
	Metadata  MetadataReader // defaults to a reader without ffprobe

	// InputDir is the scanned root. Files below it write their WAV and
	// sample into the same relative directory under OutputDir.
	InputDir  string
	OutputDir string
	Duration  int // sample length in seconds, defaults to DefaultDuration
	Logger    *report.EventLogger
}

// New creates a new Orchestrator
func New(cfg *Config) (*Orchestrator, error) {
	if cfg.Generator == nil || cfg.Extractor == nil || cfg.Catalog == nil {
		return nil, fmt.Errorf("pipeline needs a generator, extractor and catalog: %w", util.ErrInvalidConfig)
	}
	if cfg.OutputDir == "" {
		return nil, fmt.Errorf("pipeline output directory not set: %w", util.ErrInvalidConfig)
	}
	if cfg.Duration < 0 {
		return nil, fmt.Errorf("sample duration %d must be positive: %w", cfg.Duration, util.ErrInvalidConfig)
	}

	duration := cfg.Duration
	if duration == 0 {
		duration = DefaultDuration
	}

	metadata := cfg.Metadata
	if metadata == nil {
		metadata = meta.NewReader(nil)
	}

	return &Orchestrator{
		generator: cfg.Generator,
		extractor: cfg.Extractor,
		catalog:   cfg.Catalog,
		metadata:  metadata,
		inputDir:  cfg.InputDir,
		outputDir: cfg.OutputDir,
		duration:  duration,
		logger:    cfg.Logger,
	}, nil
}

// Duration returns the configured sample length in seconds
func (o *Orchestrator) Duration() int {
	return o.duration
}

// OutputDirFor returns the directory that receives path's WAV and sample
func (o *Orchestrator) OutputDirFor(path string) string {
	if rel, ok := o.relDir(path); ok {
		return filepath.Join(o.outputDir, rel)
	}
	return o.outputDir
}

// DisplayName returns path relative to the input directory, or its base name
func (o *Orchestrator) DisplayName(path string) string {
	if rel, ok := o.relDir(path); ok {
		return filepath.Join(rel, filepath.Base(path))
	}
	return filepath.Base(path)
}

// outputKey identifies the files a source writes. Two sources with the same
// key would overwrite each other's WAV and sample.
func (o *Orchestrator) outputKey(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(o.OutputDirFor(path), strings.ToLower(stem))
}

func (o *Orchestrator) relDir(path string) (string, bool) {
	if o.inputDir == "" {
		return "", false
	}
	rel, err := filepath.Rel(o.inputDir, filepath.Dir(path))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}

// Process takes one source file through every stage.
//
// Per-file failures are reported in the returned Outcome with a nil error.
// A non-nil error means the batch must stop: a required tool is missing or
// ctx was cancelled.
func (o *Orchestrator) Process(ctx context.Context, path string) (*Outcome, error) {
	start := time.Now()
	out := &Outcome{Path: path, State: StateStart}
	defer func() { out.Elapsed = time.Since(start) }()

	if err := util.RetryableMkdirAll(o.OutputDirFor(path), 0755, nil); err != nil {
		return o.fail(out, FailureConversion, err)
	}

	if err := o.convert(ctx, out); err != nil {
		return o.fail(out, FailureConversion, err)
	}
	out.advance(StateConverted)

	if err := o.sample(ctx, out); err != nil {
		return o.fail(out, FailureSampling, err)
	}
	out.advance(StateSampled)

	if err := o.fingerprint(ctx, out); err != nil {
		return o.fail(out, FailureFingerprintMissing, err)
	}
	out.advance(StateFingerprinted)

	out.Score = score.Similarity(out.FullFingerprint, out.SampleFingerprint)
	band := score.Classify(out.Score)
	o.logger.LogScore(path, out.Score, string(band))
	out.advance(StateScored)

	if err := o.persist(ctx, out); err != nil {
		return o.fail(out, FailureInsert, err)
	}
	out.advance(StatePersisted)

	util.DebugLog("%s: %.2f%% (%s) song=%d sample=%d fingerprint=%d",
		filepath.Base(path), out.Score, band, out.SongID, out.SampleID, out.FingerprintID)

	return out, nil
}

// convert produces the canonical WAV; WAV sources are used as they are
func (o *Orchestrator) convert(ctx context.Context, out *Outcome) error {
	if media.IsWAV(out.Path) {
		out.WAVPath = out.Path
		o.logger.LogConvert(out.Path, out.WAVPath, false, 0, nil)
		return nil
	}

	t := time.Now()
	wav, err := o.generator.Transcode(ctx, out.Path, o.OutputDirFor(out.Path))
	o.logger.LogConvert(out.Path, wav, true, time.Since(t), err)
	if err != nil {
		return err
	}

	out.WAVPath = wav
	out.Converted = true
	return nil
}

func (o *Orchestrator) sample(ctx context.Context, out *Outcome) error {
	t := time.Now()
	samplePath, err := o.generator.Trim(ctx, out.WAVPath, o.OutputDirFor(out.Path), o.duration)
	o.logger.LogSample(out.Path, samplePath, o.duration, time.Since(t), err)
	if err != nil {
		return err
	}
	out.SamplePath = samplePath

	// Sources shorter than the requested length give a shorter excerpt
	if actual, err := media.WAVDuration(samplePath); err == nil && actual < o.duration {
		util.WarnLog("%s: sample is %ds, shorter than the requested %ds",
			filepath.Base(out.Path), actual, o.duration)
	}

	return nil
}

// fingerprint extracts the original file's fingerprint and the sample's.
// Neither is persisted unless both succeed.
func (o *Orchestrator) fingerprint(ctx context.Context, out *Outcome) error {
	t := time.Now()
	full, err := o.extractor.Extract(ctx, out.Path)
	o.logger.LogFingerprint(out.Path, out.Path, "full", full, time.Since(t), err)
	if err != nil {
		return err
	}

	t = time.Now()
	sample, err := o.extractor.Extract(ctx, out.SamplePath)
	o.logger.LogFingerprint(out.Path, out.SamplePath, "sample", sample, time.Since(t), err)
	if err != nil {
		return err
	}

	out.FullFingerprint = full
	out.SampleFingerprint = sample
	return nil
}

func (o *Orchestrator) persist(ctx context.Context, out *Outcome) error {
	info := o.metadata.Read(ctx, out.Path)
	if info.Duration == 0 && out.WAVPath != "" {
		if d, err := media.WAVDuration(out.WAVPath); err == nil {
			info.Duration = d
		}
	}

	song := &store.Song{
		Title:       info.Title,
		Artist:      info.Artist,
		Album:       info.Album,
		ReleaseDate: info.ReleaseDate,
		Duration:    info.Duration,
		ISRC:        info.ISRC,
		MBID:        info.MBID,
	}

	err := o.persistScript(ctx, out, song)
	o.logger.LogPersist(out.Path, out.SongID, out.SampleID, out.FingerprintID, err)
	return err
}

// persistScript inserts Song, then Sample, then Fingerprint. The first
// failing step ends the script. Earlier steps stay committed, so a failure
// after the song insert leaves an orphaned song row.
func (o *Orchestrator) persistScript(ctx context.Context, out *Outcome, song *store.Song) error {
	steps := []struct {
		name string
		run  func() error
	}{
		{"song", func() (err error) {
			out.SongID, err = o.catalog.InsertSong(ctx, song)
			return err
		}},
		{"sample", func() (err error) {
			out.SampleID, err = o.catalog.InsertSample(ctx, out.SongID, out.SamplePath, o.duration)
			return err
		}},
		{"fingerprint", func() (err error) {
			out.FingerprintID, err = o.catalog.InsertFingerprint(ctx, out.SampleID, out.SampleFingerprint)
			return err
		}},
	}

	for _, step := range steps {
		if err := step.run(); err != nil {
			if out.SongID != 0 {
				util.WarnLog("%s: song %d left without %s after failed insert",
					filepath.Base(out.Path), out.SongID, step.name)
			}
			return fmt.Errorf("persist %s: %w", step.name, err)
		}
	}

	return nil
}

// collision aborts path without running any tool because an earlier file
// of the batch already claimed the same output names
func (o *Orchestrator) collision(path, claimedBy string) *Outcome {
	err := fmt.Errorf("%w: %s and %s", ErrNameCollision, o.DisplayName(path), o.DisplayName(claimedBy))
	out := &Outcome{Path: path, State: StateStart}
	out.abort(FailureNameCollision, err)

	o.logger.LogSkip(path, err.Error())
	util.WarnLog("%s: skipped, its sample would overwrite the one of %s",
		o.DisplayName(path), o.DisplayName(claimedBy))
	return out
}

// fail records an aborted outcome. Missing tools and cancellation are
// returned as errors so the batch stops.
func (o *Orchestrator) fail(out *Outcome, kind FailureKind, err error) (*Outcome, error) {
	switch {
	case errors.Is(err, util.ErrToolMissing):
		kind = FailureToolMissing
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		kind = FailureCancelled
	case errors.Is(err, util.ErrTimeout):
		kind = FailureTimeout
	}

	out.abort(kind, err)

	if kind.Fatal() {
		o.logger.LogError(report.EventError, out.Path, err)
		return out, err
	}

	util.WarnLog("%s: %s at %s: %v", filepath.Base(out.Path), kind, out.AbortedAt, err)
	return out, nil
}
