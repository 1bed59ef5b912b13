package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/franz/tunetrack/internal/util"
)

// InsertFingerprint inserts a fingerprint referencing sampleID and returns its id
func (s *Store) InsertFingerprint(ctx context.Context, sampleID int64, value string) (int64, error) {
	id, err := util.RetryWithBackoff(util.CatalogRetryConfig(), func() (int64, error) {
		var id int64
		err := s.Transaction(ctx, func(tx *sql.Tx) error {
			result, err := tx.ExecContext(ctx, `
				INSERT INTO fingerprints (sample_id, fingerprint)
				VALUES (?, ?)
			`, sampleID, value)
			if err != nil {
				return err
			}
			id, err = result.LastInsertId()
			return err
		})
		return id, err
	}, "insert fingerprint")
	if err != nil {
		return 0, insertFailed("fingerprint", err)
	}

	util.DebugLog("Inserted fingerprint %d for sample %d (%d chars)", id, sampleID, len(value))
	return id, nil
}

// GetFingerprintsBySample returns all fingerprints of a sample ordered by id
func (s *Store) GetFingerprintsBySample(ctx context.Context, sampleID int64) ([]*Fingerprint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT fingerprint_id, sample_id, fingerprint
		FROM fingerprints WHERE sample_id = ?
		ORDER BY fingerprint_id
	`, sampleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query fingerprints: %w", err)
	}
	defer rows.Close()

	var fps []*Fingerprint
	for rows.Next() {
		fp := &Fingerprint{}
		if err := rows.Scan(&fp.ID, &fp.SampleID, &fp.Value); err != nil {
			return nil, fmt.Errorf("failed to scan fingerprint: %w", err)
		}
		fps = append(fps, fp)
	}

	return fps, rows.Err()
}
