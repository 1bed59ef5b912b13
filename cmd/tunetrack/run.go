package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/franz/tunetrack/internal/fingerprint"
	"github.com/franz/tunetrack/internal/media"
	"github.com/franz/tunetrack/internal/meta"
	"github.com/franz/tunetrack/internal/pipeline"
	"github.com/franz/tunetrack/internal/scan"
	"github.com/franz/tunetrack/internal/store"
	"github.com/franz/tunetrack/internal/toolexec"
	"github.com/franz/tunetrack/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Sample, fingerprint and catalog every audio file in a directory",
	Long: `Process every audio file in the input directory.

For each file this command:
1. Converts it to PCM WAV with ffmpeg (WAV sources are used as they are)
2. Cuts the first --duration seconds into <output>/<name>_sample_<N>s.wav
   (subdirectories of the input are mirrored under the output)
3. Fingerprints the full track and the sample with fpcalc
4. Prints how closely the two fingerprints agree
5. Inserts the song, the sample and the sample's fingerprint into the catalog

Files are processed one at a time in lexical order. A failing file is logged
and skipped; a missing ffmpeg or fpcalc stops the run.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("input", "i", "", "directory with source audio files")
	runCmd.Flags().StringP("output", "o", "", "directory for converted files and samples")
	runCmd.Flags().IntP("duration", "d", pipeline.DefaultDuration, "sample length in seconds")
	runCmd.Flags().BoolP("recursive", "r", false, "descend into subdirectories of the input")
	runCmd.Flags().Bool("no-progress", false, "disable the progress bar")

	for _, name := range []string{"input", "output", "duration", "recursive", "no-progress"} {
		viper.BindPFlag(name, runCmd.Flags().Lookup(name))
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	applyLogLevel()

	input := viper.GetString("input")
	if input == "" {
		return fmt.Errorf("input directory is required (use --input/-i or set in config): %w", util.ErrInvalidConfig)
	}
	output := viper.GetString("output")
	if output == "" {
		return fmt.Errorf("output directory is required (use --output/-o or set in config): %w", util.ErrInvalidConfig)
	}
	if samePath(input, output) {
		return fmt.Errorf("output directory must differ from the input directory: %w", util.ErrInvalidConfig)
	}

	duration := GetConfigInt("duration", pipeline.DefaultDuration)
	if duration <= 0 {
		return fmt.Errorf("duration must be a positive number of seconds, got %d: %w", duration, util.ErrInvalidConfig)
	}

	tools := loadToolConfig()
	for _, name := range []string{tools.ffmpeg, tools.fpcalc} {
		if _, err := toolexec.LookPath(name); err != nil {
			return fmt.Errorf("required tool not available: %w", err)
		}
	}

	if err := util.RetryableMkdirAll(output, 0755, nil); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	dbPath := viper.GetString("db")
	util.InfoLog("Opening database: %s", dbPath)

	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	logger := openEventLogger()
	defer logger.Close()

	if logger.Path() != "" {
		util.InfoLog("Event log: %s", logger.Path())
	}

	// Phase 1: Discovery
	util.InfoLog("=== Phase 1: File Discovery ===")

	scanner := scan.New(&scan.Config{
		Recursive: viper.GetBool("recursive"),
		Exclude:   []string{output},
		Logger:    logger,
	})

	scanResult, err := scanner.Scan(ctx, input)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	util.InfoLog("  Audio files: %d", len(scanResult.Files))
	if scanResult.Skipped > 0 {
		util.InfoLog("  Other files skipped: %d", scanResult.Skipped)
	}
	if len(scanResult.Errors) > 0 {
		util.WarnLog("  Errors: %d", len(scanResult.Errors))
	}

	if len(scanResult.Files) == 0 {
		util.WarnLog("No audio files found in %s", input)
		return nil
	}

	// Phase 2: Cataloging
	util.InfoLog("")
	util.InfoLog("=== Phase 2: Sampling and Fingerprinting ===")
	util.InfoLog("Output: %s", output)
	util.InfoLog("Sample length: %ds", duration)

	runner := toolexec.NewExecRunner(tools.timeout)

	// ffprobe only refines durations; without it the WAV/FLAC headers are used
	readerCfg := &meta.ReaderConfig{FFprobe: tools.ffprobe}
	if _, err := toolexec.LookPath(tools.ffprobe); err == nil {
		readerCfg.Runner = runner
	} else {
		util.DebugLog("ffprobe not found, durations come from file headers only")
	}

	orch, err := pipeline.New(&pipeline.Config{
		Generator: media.New(&media.Config{Runner: runner, Tool: tools.ffmpeg}),
		Extractor: fingerprint.New(&fingerprint.Config{Runner: runner, Tool: tools.fpcalc}),
		Catalog:   db,
		Metadata:  meta.NewReader(readerCfg),
		InputDir:  input,
		OutputDir: output,
		Duration:  duration,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	batch := pipeline.NewBatch(orch, &pipeline.BatchConfig{
		Out:      os.Stdout,
		Progress: !GetConfigBool("no-progress"),
	})

	result, runErr := batch.Run(ctx, scanResult.Files)
	printRunSummary(result, dbPath, logger.Path())

	if runErr != nil {
		return fmt.Errorf("run aborted: %w", runErr)
	}
	return nil
}

func printRunSummary(result *pipeline.BatchResult, dbPath, eventLog string) {
	util.InfoLog("")
	util.SuccessLog("=== Run Summary ===")
	util.InfoLog("Files processed: %d", len(result.Outcomes))
	util.InfoLog("  Cataloged: %d", result.Persisted)

	if result.Failed > 0 {
		util.WarnLog("  Failed: %d", result.Failed)

		kinds := make([]pipeline.FailureKind, 0, len(result.ByKind))
		for kind := range result.ByKind {
			kinds = append(kinds, kind)
		}
		sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
		for _, kind := range kinds {
			util.WarnLog("    %s: %d", kind, result.ByKind[kind])
		}
	}

	if result.Remaining > 0 {
		util.WarnLog("  Not started: %d", result.Remaining)
	}

	for _, o := range result.Orphans {
		util.WarnLog("  Song %d has no sample: %s", o.SongID, filepath.Base(o.Path))
	}

	util.InfoLog("Total time: %v", result.Elapsed.Round(time.Millisecond))
	util.InfoLog("Database: %s", dbPath)

	if eventLog != "" {
		util.InfoLog("")
		util.InfoLog("Next step: tunetrack report --event-log %s", eventLog)
	}
}

// samePath reports whether a and b name the same directory
func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
