package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/franz/tunetrack/internal/util"
)

// InsertSample inserts a sample referencing songID and returns its id.
// A songID with no matching song fails with ErrConstraint.
func (s *Store) InsertSample(ctx context.Context, songID int64, path string, duration int) (int64, error) {
	id, err := util.RetryWithBackoff(util.CatalogRetryConfig(), func() (int64, error) {
		var id int64
		err := s.Transaction(ctx, func(tx *sql.Tx) error {
			result, err := tx.ExecContext(ctx, `
				INSERT INTO samples (song_id, sample_path, sample_duration)
				VALUES (?, ?, ?)
			`, songID, path, duration)
			if err != nil {
				return err
			}
			id, err = result.LastInsertId()
			return err
		})
		return id, err
	}, "insert sample")
	if err != nil {
		return 0, insertFailed("sample", err)
	}

	util.DebugLog("Inserted sample %d for song %d: %s", id, songID, path)
	return id, nil
}

// GetSample retrieves a sample by id. Returns nil, nil when absent.
func (s *Store) GetSample(ctx context.Context, id int64) (*Sample, error) {
	sample := &Sample{}
	err := s.db.QueryRowContext(ctx, `
		SELECT sample_id, song_id, sample_path, sample_duration
		FROM samples WHERE sample_id = ?
	`, id).Scan(&sample.ID, &sample.SongID, &sample.Path, &sample.Duration)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sample: %w", err)
	}

	return sample, nil
}

// GetSamplesBySong returns all samples of a song ordered by id
func (s *Store) GetSamplesBySong(ctx context.Context, songID int64) ([]*Sample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sample_id, song_id, sample_path, sample_duration
		FROM samples WHERE song_id = ?
		ORDER BY sample_id
	`, songID)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	var samples []*Sample
	for rows.Next() {
		sample := &Sample{}
		if err := rows.Scan(&sample.ID, &sample.SongID, &sample.Path, &sample.Duration); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		samples = append(samples, sample)
	}

	return samples, rows.Err()
}
