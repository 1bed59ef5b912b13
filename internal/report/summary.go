package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/franz/tunetrack/internal/store"
	"github.com/franz/tunetrack/internal/util"
)

// SummaryReport represents a complete summary report
type SummaryReport struct {
	GeneratedAt time.Time
	Duration    time.Duration

	// Catalog statistics
	Songs        int
	Samples      int
	Fingerprints int
	Orphans      []*store.Song
	Recent       []*store.CatalogEntry

	// Batch statistics, from the event log or a finished run
	Batch *BatchStats

	// Metadata
	InputPath    string
	OutputPath   string
	DatabasePath string
	EventLogPath string
}

// BatchStats summarizes one batch run
type BatchStats struct {
	Processed     int
	Persisted     int
	Failed        int
	Matches       int // similarity >= match threshold
	Partials      int
	Mismatches    int
	AvgSimilarity float64
	TopErrors     []ErrorSummary
}

// ErrorSummary represents an error with its count
type ErrorSummary struct {
	Error string
	Count int
}

const recentLimit = 20

// GenerateSummaryReport creates a summary report from the catalog and,
// when eventLogPath is set, the batch events recorded there
func GenerateSummaryReport(ctx context.Context, db *store.Store, eventLogPath string) (*SummaryReport, error) {
	report := &SummaryReport{
		GeneratedAt:  time.Now(),
		EventLogPath: eventLogPath,
	}

	counts, err := db.Counts(ctx)
	if err != nil {
		return nil, err
	}
	report.Songs = counts.Songs
	report.Samples = counts.Samples
	report.Fingerprints = counts.Fingerprints

	report.Orphans, err = db.ListOrphanSongs(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := db.ListCatalog(ctx)
	if err != nil {
		return nil, err
	}
	// Newest first
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Song.ID > entries[j].Song.ID
	})
	if len(entries) > recentLimit {
		entries = entries[:recentLimit]
	}
	report.Recent = entries

	if eventLogPath != "" {
		events, err := ReadEvents(eventLogPath)
		if err != nil {
			return nil, err
		}
		report.Batch = StatsFromEvents(events, 10)
	}

	return report, nil
}

// StatsFromEvents aggregates score and persist events into batch statistics
func StatsFromEvents(events []*Event, errorLimit int) *BatchStats {
	stats := &BatchStats{}
	files := make(map[string]bool)
	errorCounts := make(map[string]int)
	var total float64
	var scored int

	for _, ev := range events {
		if ev.SrcPath != "" && ev.Event != EventScan {
			files[ev.SrcPath] = true
		}

		switch ev.Event {
		case EventScore:
			scored++
			total += ev.Similarity
			switch ev.Band {
			case "match":
				stats.Matches++
			case "partial":
				stats.Partials++
			default:
				stats.Mismatches++
			}
		case EventPersist:
			if ev.Error == "" {
				stats.Persisted++
			}
		}

		if ev.Error != "" {
			errorCounts[ev.Error]++
		}
	}

	stats.Processed = len(files)
	stats.Failed = stats.Processed - stats.Persisted
	if scored > 0 {
		stats.AvgSimilarity = total / float64(scored)
	}
	stats.TopErrors = topErrors(errorCounts, errorLimit)

	return stats
}

// topErrors sorts error counts descending and keeps the first limit
func topErrors(counts map[string]int, limit int) []ErrorSummary {
	errors := make([]ErrorSummary, 0, len(counts))
	for err, count := range counts {
		errors = append(errors, ErrorSummary{
			Error: err,
			Count: count,
		})
	}

	sort.Slice(errors, func(i, j int) bool {
		if errors[i].Count != errors[j].Count {
			return errors[i].Count > errors[j].Count
		}
		return errors[i].Error < errors[j].Error
	})

	if len(errors) > limit {
		errors = errors[:limit]
	}

	return errors
}

// WriteMarkdownReport writes the summary report as Markdown
func WriteMarkdownReport(report *SummaryReport, outputPath string) error {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var md strings.Builder

	md.WriteString("# TuneTrack - Catalog Report\n\n")
	md.WriteString(fmt.Sprintf("**Generated:** %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05")))

	if report.DatabasePath != "" {
		md.WriteString(fmt.Sprintf("**Database:** `%s`", report.DatabasePath))
		if info, err := os.Stat(report.DatabasePath); err == nil {
			md.WriteString(fmt.Sprintf(" (%s, modified %s)",
				util.FormatBytes(info.Size()), util.FormatSince(info.ModTime())))
		}
		md.WriteString("\n\n")
	}
	if report.EventLogPath != "" {
		md.WriteString(fmt.Sprintf("**Event Log:** `%s`\n\n", report.EventLogPath))
	}
	if report.InputPath != "" {
		md.WriteString(fmt.Sprintf("**Input:** `%s`\n\n", report.InputPath))
	}
	if report.OutputPath != "" {
		md.WriteString(fmt.Sprintf("**Samples:** `%s`\n\n", report.OutputPath))
	}

	md.WriteString("---\n\n")

	md.WriteString("## 📊 Catalog\n\n")
	md.WriteString("| Metric | Value |\n")
	md.WriteString("|--------|-------|\n")
	md.WriteString(fmt.Sprintf("| Songs | %d |\n", report.Songs))
	md.WriteString(fmt.Sprintf("| Samples | %d |\n", report.Samples))
	md.WriteString(fmt.Sprintf("| Fingerprints | %d |\n", report.Fingerprints))
	if len(report.Orphans) > 0 {
		md.WriteString(fmt.Sprintf("| Songs without Sample | %d |\n", len(report.Orphans)))
	}
	md.WriteString("\n")

	if b := report.Batch; b != nil {
		md.WriteString("## ⚡ Batch\n\n")
		md.WriteString("| Metric | Value |\n")
		md.WriteString("|--------|-------|\n")
		md.WriteString(fmt.Sprintf("| Files Processed | %d |\n", b.Processed))
		md.WriteString(fmt.Sprintf("| Files Persisted | %d |\n", b.Persisted))
		if b.Failed > 0 {
			md.WriteString(fmt.Sprintf("| Files Failed | %d |\n", b.Failed))
		}
		md.WriteString(fmt.Sprintf("| Matches | %d |\n", b.Matches))
		md.WriteString(fmt.Sprintf("| Partial Matches | %d |\n", b.Partials))
		md.WriteString(fmt.Sprintf("| Mismatches | %d |\n", b.Mismatches))
		md.WriteString(fmt.Sprintf("| Average Similarity | %.2f%% |\n", b.AvgSimilarity))
		if report.Duration > 0 {
			md.WriteString(fmt.Sprintf("| Run Time | %s |\n", report.Duration.Round(time.Second)))
		}
		md.WriteString("\n")
	}

	if len(report.Recent) > 0 {
		md.WriteString(fmt.Sprintf("## 🎵 Recent Songs (Top %d)\n\n", recentLimit))
		md.WriteString("| ID | Title | Artist | Album | Duration | Sample | Fingerprint |\n")
		md.WriteString("|----|-------|--------|-------|----------|--------|-------------|\n")
		for _, e := range report.Recent {
			sample := "-"
			if e.SampleID != 0 {
				sample = fmt.Sprintf("`%s` (%ds)", truncatePath(e.SamplePath, 40), e.SampleDuration)
			}
			fp := "-"
			if e.FingerprintID != 0 {
				fp = fmt.Sprintf("%d chars", e.FingerprintLen)
			}
			md.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s | %s | %s |\n",
				e.Song.ID, escapeCell(e.Song.Title), escapeCell(e.Song.Artist), escapeCell(e.Song.Album),
				formatDuration(e.Song.Duration), sample, fp))
		}
		md.WriteString("\n")
	}

	if len(report.Orphans) > 0 {
		md.WriteString("## 🚨 Songs without Sample\n\n")
		md.WriteString("*A later insert failed after the song row was committed*\n\n")
		md.WriteString("| ID | Title | Artist | ISRC |\n")
		md.WriteString("|----|-------|--------|------|\n")
		for _, s := range report.Orphans {
			md.WriteString(fmt.Sprintf("| %d | %s | %s | %s |\n",
				s.ID, escapeCell(s.Title), escapeCell(s.Artist), s.ISRC))
		}
		md.WriteString("\n")
	}

	if report.Batch != nil && len(report.Batch.TopErrors) > 0 {
		md.WriteString("## ⚠️ Top Errors\n\n")
		md.WriteString("| Count | Error |\n")
		md.WriteString("|-------|-------|\n")
		for _, err := range report.Batch.TopErrors {
			md.WriteString(fmt.Sprintf("| %d | %s |\n", err.Count, escapeCell(err.Error)))
		}
		md.WriteString("\n")
	}

	md.WriteString("---\n\n")
	md.WriteString("*Generated by TuneTrack*\n")

	if err := os.WriteFile(outputPath, []byte(md.String()), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}

// formatDuration renders seconds as m:ss
func formatDuration(seconds int) string {
	if seconds <= 0 {
		return "-"
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// escapeCell keeps pipes in titles from breaking the table
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

// truncatePath truncates a file path to a maximum length
func truncatePath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}
	// Truncate from the middle, keeping start and end
	start := maxLen/2 - 2
	end := len(path) - (maxLen/2 - 2)
	return path[:start] + "..." + path[end:]
}
