package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/franz/tunetrack/internal/util"
)

// InsertSong inserts a song row and returns its assigned id.
// Empty ISRC, MBID and release date are stored as NULL.
func (s *Store) InsertSong(ctx context.Context, song *Song) (int64, error) {
	if song == nil {
		return 0, fmt.Errorf("%w: song: nil record", ErrInsertFailed)
	}

	id, err := util.RetryWithBackoff(util.CatalogRetryConfig(), func() (int64, error) {
		var id int64
		err := s.Transaction(ctx, func(tx *sql.Tx) error {
			result, err := tx.ExecContext(ctx, `
				INSERT INTO songs (song_title, artist_name, album_title, release_date, duration, isrc, mbid)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, song.Title, song.Artist, song.Album,
				nullString(song.ReleaseDate), nullInt(song.Duration),
				nullString(song.ISRC), nullString(song.MBID))
			if err != nil {
				return err
			}
			id, err = result.LastInsertId()
			return err
		})
		return id, err
	}, "insert song")
	if err != nil {
		return 0, insertFailed("song", err)
	}

	song.ID = id
	util.DebugLog("Inserted song %d: %s - %s", id, song.Artist, song.Title)
	return id, nil
}

// GetSong retrieves a song by id. Returns nil, nil when absent.
func (s *Store) GetSong(ctx context.Context, id int64) (*Song, error) {
	song := &Song{}
	err := s.db.QueryRowContext(ctx, `
		SELECT song_id, song_title, artist_name, album_title,
		       COALESCE(release_date, ''), COALESCE(duration, 0),
		       COALESCE(isrc, ''), COALESCE(mbid, '')
		FROM songs WHERE song_id = ?
	`, id).Scan(
		&song.ID, &song.Title, &song.Artist, &song.Album,
		&song.ReleaseDate, &song.Duration, &song.ISRC, &song.MBID,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get song: %w", err)
	}

	return song, nil
}

// FindSongByISRC looks up a song by ISRC. Returns nil, nil when absent.
func (s *Store) FindSongByISRC(ctx context.Context, isrc string) (*Song, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, "SELECT song_id FROM songs WHERE isrc = ?", isrc).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find song by isrc: %w", err)
	}
	return s.GetSong(ctx, id)
}
