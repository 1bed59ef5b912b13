package store

// Schema v1 - catalog tables. All three are append-only: rows are inserted
// once and never updated by the pipeline.
const schemaV1 = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
  version INTEGER PRIMARY KEY,
  applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- One row per processed source file
CREATE TABLE IF NOT EXISTS songs (
  song_id INTEGER PRIMARY KEY AUTOINCREMENT,
  song_title VARCHAR(255) NOT NULL,
  artist_name VARCHAR(255) NOT NULL,
  album_title VARCHAR(255) NOT NULL,
  release_date DATE,
  duration INT,
  isrc VARCHAR(15) UNIQUE,
  mbid VARCHAR(36) UNIQUE
);

-- Excerpts cut from a song
CREATE TABLE IF NOT EXISTS samples (
  sample_id INTEGER PRIMARY KEY AUTOINCREMENT,
  song_id INT NOT NULL,
  sample_path VARCHAR(255) NOT NULL,
  sample_duration INT NOT NULL,
  FOREIGN KEY (song_id) REFERENCES songs(song_id)
);

-- Acoustic fingerprint of a sample, opaque text as printed by the tool
CREATE TABLE IF NOT EXISTS fingerprints (
  fingerprint_id INTEGER PRIMARY KEY AUTOINCREMENT,
  sample_id INT NOT NULL,
  fingerprint TEXT NOT NULL,
  FOREIGN KEY (sample_id) REFERENCES samples(sample_id)
);
`

// Schema v2 - lookup indexes for reports and orphan detection
const schemaV2 = `
CREATE INDEX IF NOT EXISTS idx_samples_song_id ON samples(song_id);
CREATE INDEX IF NOT EXISTS idx_fingerprints_sample_id ON fingerprints(sample_id);
CREATE INDEX IF NOT EXISTS idx_songs_title_artist ON songs(song_title, artist_name);
`
