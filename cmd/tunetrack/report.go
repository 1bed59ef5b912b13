package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/franz/tunetrack/internal/report"
	"github.com/franz/tunetrack/internal/store"
	"github.com/franz/tunetrack/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a summary report from the catalog and event logs",
	Long: `Generate a summary report in Markdown format.

The report includes:
- Song, sample and fingerprint counts
- Songs left without a sample by a failed insert
- The most recently cataloged songs
- Batch statistics and top errors (with --event-log)

The report is saved to artifacts/reports/<timestamp>/summary.md`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	// Report-specific flags
	reportCmd.Flags().String("out", "", "Output directory for report (default: artifacts/reports/<timestamp>)")
	reportCmd.Flags().String("event-log", "", "Path to event log file (optional)")
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	applyLogLevel()

	dbPath := viper.GetString("db")

	util.InfoLog("=== Generating Summary Report ===")
	util.InfoLog("Database: %s", dbPath)

	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	eventLogPath, _ := cmd.Flags().GetString("event-log")

	util.InfoLog("Analyzing data...")
	summaryReport, err := report.GenerateSummaryReport(ctx, db, eventLogPath)
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	summaryReport.DatabasePath = dbPath
	summaryReport.InputPath = viper.GetString("input")
	summaryReport.OutputPath = viper.GetString("output")

	outputDir, _ := cmd.Flags().GetString("out")
	if outputDir == "" {
		timestamp := time.Now().Format("20060102-150405")
		outputDir = filepath.Join(GetConfigString("events-dir", "artifacts"), "reports", timestamp)
	}

	outputPath := filepath.Join(outputDir, "summary.md")

	util.InfoLog("Writing report to: %s", outputPath)
	if err := report.WriteMarkdownReport(summaryReport, outputPath); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	util.SuccessLog("Report generated successfully!")
	util.InfoLog("")
	util.InfoLog("Report saved to: %s", outputPath)
	util.InfoLog("")
	util.InfoLog("Summary:")
	util.InfoLog("  Songs: %d", summaryReport.Songs)
	util.InfoLog("  Samples: %d", summaryReport.Samples)
	util.InfoLog("  Fingerprints: %d", summaryReport.Fingerprints)
	if len(summaryReport.Orphans) > 0 {
		util.WarnLog("  Songs without sample: %d", len(summaryReport.Orphans))
	}
	if b := summaryReport.Batch; b != nil {
		util.InfoLog("  Last run: %d processed, %d cataloged, %.2f%% average match",
			b.Processed, b.Persisted, b.AvgSimilarity)
		if b.Failed > 0 {
			util.WarnLog("  Last run failures: %d", b.Failed)
		}
	}

	return nil
}
