package scan

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/franz/tunetrack/internal/report"
	"github.com/franz/tunetrack/internal/util"
)

// AudioExtensions are the supported audio file extensions
var AudioExtensions = []string{
	".mp3",
	".wav",
	".flac",
	".ogg",
	".aac",
}

// Scanner lists audio files in an input directory
type Scanner struct {
	extensions map[string]bool
	recursive  bool
	exclude    []string
	logger     *report.EventLogger
}

// Config holds scanner configuration
type Config struct {
	AdditionalExts []string
	Recursive      bool
	Exclude        []string // Directories never descended into, e.g. the output dir
	Logger         *report.EventLogger
}

// New creates a new Scanner
func New(cfg *Config) *Scanner {
	if cfg == nil {
		cfg = &Config{}
	}

	// Build extension map (case-insensitive)
	extMap := make(map[string]bool)
	for _, ext := range AudioExtensions {
		extMap[strings.ToLower(ext)] = true
	}
	for _, ext := range cfg.AdditionalExts {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extMap[strings.ToLower(ext)] = true
	}

	exclude := make([]string, 0, len(cfg.Exclude))
	for _, dir := range cfg.Exclude {
		if abs, err := filepath.Abs(dir); err == nil {
			exclude = append(exclude, abs)
		}
	}

	return &Scanner{
		extensions: extMap,
		recursive:  cfg.Recursive,
		exclude:    exclude,
		logger:     cfg.Logger,
	}
}

// Result represents a scan result
type Result struct {
	Files   []string // Sorted source paths
	Skipped int      // Non-audio entries
	Errors  []error
}

// Scan lists audio files under sourcePath in lexical order.
// Unreadable entries are recorded in Result.Errors and skipped.
func (s *Scanner) Scan(ctx context.Context, sourcePath string) (*Result, error) {
	info, err := os.Stat(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("input directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("input %s is not a directory: %w", sourcePath, util.ErrInvalidConfig)
	}

	util.InfoLog("Scanning: %s", sourcePath)

	result := &Result{
		Files:  make([]string, 0),
		Errors: make([]error, 0),
	}

	walkErr := filepath.WalkDir(sourcePath, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			util.WarnLog("Error accessing path %s: %v", path, err)
			result.Errors = append(result.Errors, fmt.Errorf("access error: %s: %w", path, err))
			return nil
		}

		if d.IsDir() {
			if path == sourcePath {
				return nil
			}
			if !s.recursive || s.isExcluded(path) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() && d.Type()&fs.ModeSymlink == 0 {
			return nil
		}

		if !s.isAudioFile(path) {
			result.Skipped++
			return nil
		}

		result.Files = append(result.Files, path)

		if s.logger != nil {
			var size int64
			if fi, err := d.Info(); err == nil {
				size = fi.Size()
			}
			s.logger.LogScan(path, size)
		}

		return nil
	})

	if walkErr != nil {
		return result, fmt.Errorf("walk error: %w", walkErr)
	}

	sort.Strings(result.Files)

	util.InfoLog("Scan complete: %d audio files, %d skipped, %d errors",
		len(result.Files), result.Skipped, len(result.Errors))

	return result, nil
}

// isExcluded reports whether dir is one of the configured exclusions
func (s *Scanner) isExcluded(dir string) bool {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	for _, ex := range s.exclude {
		if abs == ex {
			return true
		}
	}
	return false
}

// isAudioFile checks if a file has a supported audio extension
func (s *Scanner) isAudioFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return s.extensions[ext]
}

// GetSupportedExtensions returns the supported extensions, sorted
func (s *Scanner) GetSupportedExtensions() []string {
	exts := make([]string, 0, len(s.extensions))
	for ext := range s.extensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
