package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/franz/tunetrack/internal/meta"
	"github.com/franz/tunetrack/internal/store"
	"github.com/franz/tunetrack/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List cataloged songs with their sample and fingerprint",
	Long: `Display the catalog in a human-readable format.

Shows one line per song:
- Song id, artist and title
- Sample file and its recorded length
- Fingerprint length

Use --orphans to list only songs whose sample or fingerprint insert failed,
or --isrc to look up a single recording.`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().Bool("orphans", false, "Show only songs without a sample")
	listCmd.Flags().String("isrc", "", "Show only the song with this ISRC")
	listCmd.Flags().IntP("limit", "l", 0, "Limit number of results (0 = no limit)")
}

func runList(cmd *cobra.Command, args []string) error {
	applyLogLevel()

	orphansOnly, _ := cmd.Flags().GetBool("orphans")
	limit, _ := cmd.Flags().GetInt("limit")
	isrc, _ := cmd.Flags().GetString("isrc")

	db, err := store.Open(viper.GetString("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	entries, err := selectEntries(context.Background(), db, isrc, orphansOnly)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		util.WarnLog("No songs found. Run 'tunetrack run' first.")
		return nil
	}

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	printCatalog(os.Stdout, entries, util.GetTerminalWidth())
	return nil
}

// selectEntries lists the catalog, narrowed to one ISRC and/or to songs
// without a sample
func selectEntries(ctx context.Context, db *store.Store, isrc string, orphansOnly bool) ([]*store.CatalogEntry, error) {
	var songID int64
	if isrc != "" {
		song, err := db.FindSongByISRC(ctx, strings.ToUpper(strings.ReplaceAll(isrc, "-", "")))
		if err != nil {
			return nil, err
		}
		if song == nil {
			return nil, nil
		}
		songID = song.ID
	}

	entries, err := db.ListCatalog(ctx)
	if err != nil {
		return nil, err
	}

	filtered := entries[:0]
	for _, e := range entries {
		if songID != 0 && e.Song.ID != songID {
			continue
		}
		if orphansOnly && e.SampleID != 0 {
			continue
		}
		filtered = append(filtered, e)
	}
	return filtered, nil
}

// printCatalog writes one line per entry, fitting the name column to width
func printCatalog(w io.Writer, entries []*store.CatalogEntry, width int) {
	// id + sample + fingerprint columns take about 50 characters
	nameWidth := width - 50
	if nameWidth < 20 {
		nameWidth = 20
	}

	fmt.Fprintf(w, "%5s  %-*s  %-22s  %s\n", "ID", nameWidth, "ARTIST - TITLE", "SAMPLE", "FINGERPRINT")
	for _, e := range entries {
		name := meta.Truncate(e.Song.Artist+" - "+e.Song.Title, nameWidth)

		sample := "-"
		if e.SampleID != 0 {
			sample = fmt.Sprintf("%s (%ds)", meta.Truncate(filepath.Base(e.SamplePath), 16), e.SampleDuration)
		}
		fp := "-"
		if e.FingerprintID != 0 {
			fp = fmt.Sprintf("%d chars", e.FingerprintLen)
		}

		fmt.Fprintf(w, "%5d  %-*s  %-22s  %s\n", e.Song.ID, nameWidth, name, sample, fp)
	}
}
