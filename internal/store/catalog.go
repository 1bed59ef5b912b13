package store

import (
	"context"
	"fmt"
)

// Counts returns the number of rows in each catalog table
func (s *Store) Counts(ctx context.Context) (*Counts, error) {
	c := &Counts{}
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM songs),
			(SELECT COUNT(*) FROM samples),
			(SELECT COUNT(*) FROM fingerprints)
	`).Scan(&c.Songs, &c.Samples, &c.Fingerprints)
	if err != nil {
		return nil, fmt.Errorf("failed to count catalog rows: %w", err)
	}
	return c, nil
}

// CountSongs returns the number of songs
func (s *Store) CountSongs(ctx context.Context) (int, error) {
	return s.count(ctx, "songs")
}

// CountSamples returns the number of samples
func (s *Store) CountSamples(ctx context.Context) (int, error) {
	return s.count(ctx, "samples")
}

// CountFingerprints returns the number of fingerprints
func (s *Store) CountFingerprints(ctx context.Context) (int, error) {
	return s.count(ctx, "fingerprints")
}

func (s *Store) count(ctx context.Context, table string) (int, error) {
	var n int
	// table is one of the fixed names above
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

// ListOrphanSongs returns songs that have no sample, left behind when a
// later insert in the persist sequence failed
func (s *Store) ListOrphanSongs(ctx context.Context) ([]*Song, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.song_id, s.song_title, s.artist_name, s.album_title,
		       COALESCE(s.release_date, ''), COALESCE(s.duration, 0),
		       COALESCE(s.isrc, ''), COALESCE(s.mbid, '')
		FROM songs s
		LEFT JOIN samples sa ON sa.song_id = s.song_id
		WHERE sa.sample_id IS NULL
		ORDER BY s.song_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query orphan songs: %w", err)
	}
	defer rows.Close()

	var songs []*Song
	for rows.Next() {
		song := &Song{}
		if err := rows.Scan(
			&song.ID, &song.Title, &song.Artist, &song.Album,
			&song.ReleaseDate, &song.Duration, &song.ISRC, &song.MBID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan song: %w", err)
		}
		songs = append(songs, song)
	}

	return songs, rows.Err()
}

// ListCatalog returns every song with its first sample and that sample's
// first fingerprint, ordered by song id
func (s *Store) ListCatalog(ctx context.Context) ([]*CatalogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.song_id, s.song_title, s.artist_name, s.album_title,
		       COALESCE(s.release_date, ''), COALESCE(s.duration, 0),
		       COALESCE(s.isrc, ''), COALESCE(s.mbid, ''),
		       COALESCE(sa.sample_id, 0), COALESCE(sa.sample_path, ''),
		       COALESCE(sa.sample_duration, 0),
		       COALESCE(f.fingerprint_id, 0), COALESCE(LENGTH(f.fingerprint), 0)
		FROM songs s
		LEFT JOIN samples sa ON sa.sample_id = (
			SELECT MIN(sample_id) FROM samples WHERE song_id = s.song_id
		)
		LEFT JOIN fingerprints f ON f.fingerprint_id = (
			SELECT MIN(fingerprint_id) FROM fingerprints WHERE sample_id = sa.sample_id
		)
		ORDER BY s.song_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog: %w", err)
	}
	defer rows.Close()

	var entries []*CatalogEntry
	for rows.Next() {
		e := &CatalogEntry{}
		if err := rows.Scan(
			&e.Song.ID, &e.Song.Title, &e.Song.Artist, &e.Song.Album,
			&e.Song.ReleaseDate, &e.Song.Duration, &e.Song.ISRC, &e.Song.MBID,
			&e.SampleID, &e.SamplePath, &e.SampleDuration,
			&e.FingerprintID, &e.FingerprintLen,
		); err != nil {
			return nil, fmt.Errorf("failed to scan catalog entry: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
