package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/franz/tunetrack/internal/media"
	"github.com/franz/tunetrack/internal/store"
	"github.com/franz/tunetrack/internal/toolexec"
	"github.com/franz/tunetrack/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks on the environment and configuration",
	Long: `Run diagnostic checks to ensure tunetrack can operate correctly.

This command checks:
- Required tools (ffmpeg, fpcalc)
- Optional tools (ffprobe for durations)
- WAV encoding and decoding
- Database accessibility and integrity
- SQLite version compatibility
- Input and output directories, and free disk space

Use this command to troubleshoot issues before running tunetrack.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)

	// Doctor-specific flags
	doctorCmd.Flags().String("input", "", "Input directory to check (optional)")
	doctorCmd.Flags().String("output", "", "Output directory to check (optional)")
}

type checkResult struct {
	name    string
	message string
	error   bool
	warning bool
}

func runDoctor(cmd *cobra.Command, args []string) error {
	applyLogLevel()

	util.InfoLog("=== TuneTrack Doctor - System Diagnostics ===")
	util.InfoLog("")

	tools := loadToolConfig()
	runner := toolexec.NewExecRunner(10 * time.Second)

	results := []checkResult{
		checkTool(runner, "ffmpeg", tools.ffmpeg, true),
		checkTool(runner, "fpcalc", tools.fpcalc, true),
		checkTool(runner, "ffprobe", tools.ffprobe, false),
		checkWAVRoundTrip(),
		checkSQLite(),
		checkDatabase(viper.GetString("db")),
	}

	inputPath, _ := cmd.Flags().GetString("input")
	if inputPath == "" {
		inputPath = viper.GetString("input")
	}
	if inputPath != "" {
		results = append(results, checkInputDirectory(inputPath))
	}

	outputPath, _ := cmd.Flags().GetString("output")
	if outputPath == "" {
		outputPath = viper.GetString("output")
	}
	if outputPath != "" {
		results = append(results, checkOutputDirectory(outputPath))
		results = append(results, checkDiskSpace(outputPath, "output"))
	}

	// Print results
	util.InfoLog("")
	util.InfoLog("=== Diagnostic Results ===")
	util.InfoLog("")

	hasErrors := false
	hasWarnings := false

	for _, r := range results {
		symbol := "✓"
		if r.error {
			symbol = "✗"
			hasErrors = true
		} else if r.warning {
			symbol = "⚠"
			hasWarnings = true
		}

		line := fmt.Sprintf("[%s] %s", symbol, r.name)
		if r.message != "" {
			line += fmt.Sprintf(": %s", r.message)
		}

		if r.error {
			util.ErrorLog("%s", line)
		} else if r.warning {
			util.WarnLog("%s", line)
		} else {
			util.SuccessLog("%s", line)
		}
	}

	// Summary
	util.InfoLog("")
	if hasErrors {
		util.ErrorLog("❌ Some critical checks failed. Please resolve errors before running tunetrack.")
		return fmt.Errorf("system diagnostics failed")
	} else if hasWarnings {
		util.WarnLog("⚠️  Some checks produced warnings. Review them before proceeding.")
	} else {
		util.SuccessLog("✅ All checks passed! System is ready for tunetrack.")
	}

	return nil
}

// checkTool runs "<bin> -version" and reports the version it prints.
// A missing optional tool is a warning, a missing required one an error.
func checkTool(runner toolexec.Runner, label, bin string, required bool) checkResult {
	name := label
	if !required {
		name += " (optional)"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := runner.Run(ctx, bin, "-version")
	if err != nil && (res == nil || len(res.Stdout) == 0) {
		msg := fmt.Sprintf("%s not usable: %v", bin, err)
		if errors.Is(err, util.ErrToolMissing) {
			msg = fmt.Sprintf("%s not found in PATH", bin)
		}
		if required {
			return checkResult{name: name, error: true, message: msg}
		}
		return checkResult{name: name, warning: true, message: msg + " (durations fall back to file headers)"}
	}

	return checkResult{
		name:    name,
		message: fmt.Sprintf("version %s", parseVersion(res.Stdout)),
	}
}

// parseVersion returns the word after "version" on the first line, as in
// "ffmpeg version 6.1.1 Copyright ..." or "fpcalc version 1.5.1"
func parseVersion(out []byte) string {
	line, _, _ := strings.Cut(string(out), "\n")
	fields := strings.Fields(line)
	for i, f := range fields {
		if f == "version" && i+1 < len(fields) {
			return fields[i+1]
		}
	}
	return "unknown"
}

// checkWAVRoundTrip writes a short tone and reads its header back
func checkWAVRoundTrip() checkResult {
	dir, err := os.MkdirTemp("", "tunetrack-doctor-")
	if err != nil {
		return checkResult{name: "WAV codec", warning: true, message: fmt.Sprintf("cannot create temp dir: %v", err)}
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, ".tunetrack_write_check.wav")
	if err := media.WriteTone(path, 1, 8000); err != nil {
		return checkResult{name: "WAV codec", error: true, message: fmt.Sprintf("cannot encode: %v", err)}
	}

	info, err := media.ReadWAVInfo(path)
	if err != nil {
		return checkResult{name: "WAV codec", error: true, message: fmt.Sprintf("cannot decode: %v", err)}
	}

	return checkResult{
		name:    "WAV codec",
		message: fmt.Sprintf("%d Hz, %d-bit, %d ch", info.SampleRate, info.BitDepth, info.Channels),
	}
}

// checkSQLite verifies SQLite version
func checkSQLite() checkResult {
	version := store.SQLiteVersion()
	if version == "" {
		return checkResult{
			name:    "SQLite",
			error:   true,
			message: "unable to determine version",
		}
	}

	return checkResult{
		name:    "SQLite",
		message: fmt.Sprintf("version %s (built-in)", version),
	}
}

// checkDatabase verifies database file accessibility
func checkDatabase(dbPath string) checkResult {
	if dbPath == "" {
		return checkResult{
			name:    "Database",
			warning: true,
			message: "no database path specified (use --db flag or config)",
		}
	}

	info, err := os.Stat(dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			return checkResult{
				name:    "Database",
				message: fmt.Sprintf("%s (will be created on first run)", dbPath),
			}
		}
		return checkResult{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("cannot access %s: %v", dbPath, err),
		}
	}

	if !info.Mode().IsRegular() {
		return checkResult{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("%s is not a regular file", dbPath),
		}
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return checkResult{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("cannot open %s: %v", dbPath, err),
		}
	}
	defer db.Close()

	if err := db.CheckIntegrity(); err != nil {
		return checkResult{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("integrity check failed: %v", err),
		}
	}

	counts, err := db.Counts(context.Background())
	if err != nil {
		return checkResult{
			name:    "Database",
			error:   true,
			message: fmt.Sprintf("cannot count catalog rows: %v", err),
		}
	}

	orphans, _ := db.ListOrphanSongs(context.Background())
	msg := fmt.Sprintf("%s (%s, %d songs, %d samples, %d fingerprints)",
		dbPath, util.FormatBytes(info.Size()), counts.Songs, counts.Samples, counts.Fingerprints)
	if len(orphans) > 0 {
		return checkResult{
			name:    "Database",
			warning: true,
			message: fmt.Sprintf("%s, %d songs without sample", msg, len(orphans)),
		}
	}

	return checkResult{name: "Database", message: msg}
}

// checkInputDirectory verifies the input directory is readable
func checkInputDirectory(path string) checkResult {
	info, err := os.Stat(path)
	if err != nil {
		return checkResult{
			name:    "Input directory",
			error:   true,
			message: fmt.Sprintf("cannot access %s: %v", path, err),
		}
	}

	if !info.IsDir() {
		return checkResult{
			name:    "Input directory",
			error:   true,
			message: fmt.Sprintf("%s is not a directory", path),
		}
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return checkResult{
			name:    "Input directory",
			error:   true,
			message: fmt.Sprintf("cannot read %s: %v", path, err),
		}
	}

	return checkResult{
		name:    "Input directory",
		message: fmt.Sprintf("%s (%d entries)", path, len(entries)),
	}
}

// checkOutputDirectory verifies the output directory is writable
func checkOutputDirectory(path string) checkResult {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(path, 0755); err != nil {
				return checkResult{
					name:    "Output directory",
					error:   true,
					message: fmt.Sprintf("cannot create %s: %v", path, err),
				}
			}
			return checkResult{
				name:    "Output directory",
				message: fmt.Sprintf("%s (created)", path),
			}
		}
		return checkResult{
			name:    "Output directory",
			error:   true,
			message: fmt.Sprintf("cannot access %s: %v", path, err),
		}
	}

	if !info.IsDir() {
		return checkResult{
			name:    "Output directory",
			error:   true,
			message: fmt.Sprintf("%s is not a directory", path),
		}
	}

	testFile := filepath.Join(path, ".tunetrack_write_test")
	f, err := os.Create(testFile)
	if err != nil {
		return checkResult{
			name:    "Output directory",
			error:   true,
			message: fmt.Sprintf("cannot write to %s: %v", path, err),
		}
	}
	f.Close()
	os.Remove(testFile)

	return checkResult{
		name:    "Output directory",
		message: fmt.Sprintf("%s (writable)", path),
	}
}

// checkDiskSpace verifies available disk space
func checkDiskSpace(path string, label string) checkResult {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return checkResult{
			name:    fmt.Sprintf("Disk space (%s)", label),
			warning: true,
			message: fmt.Sprintf("cannot determine disk space: %v", err),
		}
	}

	availBytes := stat.Bavail * uint64(stat.Bsize)

	// Uncompressed samples are small, but transcoded full tracks are not
	warning := availBytes < 1<<30
	msg := fmt.Sprintf("%s available", util.FormatBytes(int64(availBytes)))
	if warning {
		msg += " (low space!)"
	}

	return checkResult{
		name:    fmt.Sprintf("Disk space (%s)", label),
		warning: warning,
		message: msg,
	}
}
