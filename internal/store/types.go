package store

// Song is one row of the songs table
type Song struct {
	ID          int64
	Title       string
	Artist      string
	Album       string
	ReleaseDate string // YYYY-MM-DD, YYYY-MM or YYYY; empty when unknown
	Duration    int    // Seconds; 0 when unknown
	ISRC        string // Empty when unknown
	MBID        string // Empty when unknown
}

// Sample is one excerpt cut from a song
type Sample struct {
	ID       int64
	SongID   int64
	Path     string
	Duration int // Seconds
}

// Fingerprint is the acoustic fingerprint recorded for a sample
type Fingerprint struct {
	ID       int64
	SampleID int64
	Value    string
}

// CatalogEntry joins a song with its first sample and fingerprint.
// SampleID and FingerprintID are 0 for orphan songs.
type CatalogEntry struct {
	Song           Song
	SampleID       int64
	SamplePath     string
	SampleDuration int
	FingerprintID  int64
	FingerprintLen int
}

// Counts summarizes catalog size
type Counts struct {
	Songs        int
	Samples      int
	Fingerprints int
}
