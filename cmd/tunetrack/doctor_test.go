package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/franz/tunetrack/internal/store"
	"github.com/franz/tunetrack/internal/toolexec"
	"github.com/franz/tunetrack/internal/util"
)

// versionRunner answers "-version" for the tools it knows
type versionRunner map[string]string

func (r versionRunner) Run(ctx context.Context, name string, args ...string) (*toolexec.Result, error) {
	out, ok := r[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, util.ErrToolMissing)
	}
	return &toolexec.Result{Stdout: []byte(out)}, nil
}

func TestCheckTool(t *testing.T) {
	runner := versionRunner{
		"ffmpeg": "ffmpeg version 6.1.1-3ubuntu5 Copyright (c) 2000-2023 the FFmpeg developers\nbuilt with gcc 13\n",
		"fpcalc": "fpcalc version 1.5.1 (FFmpeg Lavc60.31.102 Lavf60.16.100 SwR4.12.100)\n",
	}

	testCases := []struct {
		name        string
		bin         string
		required    bool
		wantError   bool
		wantWarning bool
		wantVersion string
	}{
		{"ffmpeg present", "ffmpeg", true, false, false, "6.1.1-3ubuntu5"},
		{"fpcalc present", "fpcalc", true, false, false, "1.5.1"},
		{"required missing", "fpcalc-missing", true, true, false, ""},
		{"optional missing", "ffprobe", false, false, true, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := checkTool(runner, tc.bin, tc.bin, tc.required)

			if result.error != tc.wantError {
				t.Errorf("expected error=%v, got %v (%s)", tc.wantError, result.error, result.message)
			}
			if result.warning != tc.wantWarning {
				t.Errorf("expected warning=%v, got %v (%s)", tc.wantWarning, result.warning, result.message)
			}
			if tc.wantVersion != "" && !strings.Contains(result.message, tc.wantVersion) {
				t.Errorf("expected version %s in %q", tc.wantVersion, result.message)
			}
			if !tc.required && !strings.Contains(result.name, "optional") {
				t.Errorf("optional tool should be labelled, got %q", result.name)
			}
		})
	}
}

func TestParseVersion(t *testing.T) {
	tests := map[string]string{
		"ffmpeg version 7.0 Copyright":        "7.0",
		"fpcalc version 1.5.1 (FFmpeg)\nmore": "1.5.1",
		"ffprobe version n6.1 Copyright (c)":  "n6.1",
		"something without the keyword\n":     "unknown",
		"":                                    "unknown",
		"trailing version":                    "unknown",
	}
	for in, want := range tests {
		if got := parseVersion([]byte(in)); got != want {
			t.Errorf("parseVersion(%q) = %q, expected %q", in, got, want)
		}
	}
}

func TestCheckWAVRoundTrip(t *testing.T) {
	result := checkWAVRoundTrip()

	if result.error || result.warning {
		t.Fatalf("WAV check failed: %s", result.message)
	}
	if !strings.Contains(result.message, "8000 Hz") {
		t.Errorf("expected sample rate in message, got %q", result.message)
	}
}

func TestCheckSQLite(t *testing.T) {
	result := checkSQLite()

	if result.error {
		t.Errorf("SQLite check failed: %s", result.message)
	}

	if result.message == "" {
		t.Error("expected version information in message")
	}
}

func TestCheckDatabase_NonExistent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nonexistent.db")

	result := checkDatabase(dbPath)

	// Should not error - database will be created on first run
	if result.error {
		t.Errorf("non-existent database check should not error: %s", result.message)
	}

	if !strings.Contains(result.message, "will be created") {
		t.Errorf("expected message about database creation, got %q", result.message)
	}
}

func TestCheckDatabase_Existing(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	ctx := context.Background()
	songID, err := db.InsertSong(ctx, &store.Song{Title: "Title", Artist: "Artist", Album: "Album"})
	if err != nil {
		t.Fatalf("failed to insert song: %v", err)
	}
	sampleID, err := db.InsertSample(ctx, songID, "/out/title_sample_10s.wav", 10)
	if err != nil {
		t.Fatalf("failed to insert sample: %v", err)
	}
	if _, err := db.InsertFingerprint(ctx, sampleID, "AQAD"); err != nil {
		t.Fatalf("failed to insert fingerprint: %v", err)
	}
	db.Close()

	result := checkDatabase(dbPath)

	if result.error || result.warning {
		t.Errorf("database check failed: %s", result.message)
	}

	if !strings.Contains(result.message, "1 songs, 1 samples, 1 fingerprints") {
		t.Errorf("expected catalog counts in message, got %q", result.message)
	}
}

func TestCheckDatabase_Orphans(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if _, err := db.InsertSong(context.Background(), &store.Song{Title: "Lonely", Artist: "A", Album: "B"}); err != nil {
		t.Fatalf("failed to insert song: %v", err)
	}
	db.Close()

	result := checkDatabase(dbPath)

	if !result.warning {
		t.Errorf("expected warning for song without sample, got %q", result.message)
	}
}

func TestCheckDatabase_Empty(t *testing.T) {
	result := checkDatabase("")

	if !result.warning {
		t.Error("expected warning for empty database path")
	}
}

func TestCheckInputDirectory(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "a.mp3"), []byte("x"), 0644)

	result := checkInputDirectory(dir)
	if result.error {
		t.Errorf("input directory check failed: %s", result.message)
	}
	if !strings.Contains(result.message, "1 entries") {
		t.Errorf("expected entry count, got %q", result.message)
	}

	result = checkInputDirectory("/nonexistent/path/that/does/not/exist")
	if !result.error {
		t.Error("expected error for non-existent directory")
	}

	result = checkInputDirectory(filepath.Join(dir, "a.mp3"))
	if !result.error {
		t.Error("expected error for a file path")
	}
}

func TestCheckOutputDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "samples")

	result := checkOutputDirectory(dir)
	if result.error {
		t.Fatalf("output directory check failed: %s", result.message)
	}
	if !strings.Contains(result.message, "created") {
		t.Errorf("expected directory to be created, got %q", result.message)
	}

	result = checkOutputDirectory(dir)
	if result.error || !strings.Contains(result.message, "writable") {
		t.Errorf("expected writable directory, got %q", result.message)
	}

	if _, err := os.Stat(filepath.Join(dir, ".tunetrack_write_test")); !os.IsNotExist(err) {
		t.Error("write check file was not removed")
	}
}

func TestCheckDiskSpace(t *testing.T) {
	result := checkDiskSpace(t.TempDir(), "output")

	if result.error {
		t.Errorf("disk space check should never error: %s", result.message)
	}
	if result.message == "" {
		t.Error("expected disk space message")
	}
}

func TestSamePath(t *testing.T) {
	dir := t.TempDir()

	if !samePath(dir, dir+string(filepath.Separator)) {
		t.Error("trailing separator should not matter")
	}
	if !samePath(dir, filepath.Join(dir, "x", "..")) {
		t.Error("cleaned paths should match")
	}
	if samePath(dir, filepath.Join(dir, "out")) {
		t.Error("subdirectory is not the same path")
	}
}
