package meta

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
	"github.com/mewkiz/flac"

	"github.com/franz/tunetrack/internal/media"
	"github.com/franz/tunetrack/internal/toolexec"
	"github.com/franz/tunetrack/internal/util"
)

const (
	UnknownArtist = "Unknown Artist"
	UnknownAlbum  = "Unknown Album"

	// Column widths of the songs table
	maxNameLen = 255
)

// SongInfo is the metadata recorded for one source file
type SongInfo struct {
	Title       string
	Artist      string
	Album       string
	ReleaseDate string
	Duration    int // Seconds; 0 when unknown
	ISRC        string
	MBID        string
	FromTags    bool // False when title/artist came from the file name
}

// Reader collects song metadata from tags, headers and ffprobe
type Reader struct {
	runner  toolexec.Runner
	ffprobe string
}

// ReaderConfig holds reader configuration
type ReaderConfig struct {
	Runner  toolexec.Runner // nil disables ffprobe
	FFprobe string
}

// NewReader creates a metadata reader
func NewReader(cfg *ReaderConfig) *Reader {
	if cfg == nil {
		cfg = &ReaderConfig{}
	}
	tool := cfg.FFprobe
	if tool == "" {
		tool = DefaultFFprobe
	}
	return &Reader{runner: cfg.Runner, ffprobe: tool}
}

// Read returns metadata for path. It never fails: missing tags fall back to
// the file name and unknown duration is 0.
func (r *Reader) Read(ctx context.Context, path string) *SongInfo {
	info := &SongInfo{}

	tags, err := ReadTags(path)
	switch {
	case err == nil:
		info.Title = tags.Title
		info.Artist = tags.Artist
		info.Album = tags.Album
		info.ReleaseDate = tags.ReleaseDate
		info.ISRC = tags.ISRC
		info.MBID = tags.MBID
		info.FromTags = info.Title != ""
	case errors.Is(err, tag.ErrNoTagsFound):
		util.DebugLog("No tags in %s", filepath.Base(path))
	default:
		util.DebugLog("Tag read failed for %s: %v", filepath.Base(path), err)
	}

	if info.Title == "" {
		fm := ParseFilename(path)
		info.Title = fm.Title
		if info.Artist == "" {
			info.Artist = fm.Artist
		}
	}
	if info.Artist == "" {
		info.Artist = UnknownArtist
	}
	if info.Album == "" {
		info.Album = UnknownAlbum
	}

	info.Title = Truncate(info.Title, maxNameLen)
	info.Artist = Truncate(info.Artist, maxNameLen)
	info.Album = Truncate(info.Album, maxNameLen)

	info.Duration = r.duration(ctx, path)

	return info
}

// duration reads the track length from the WAV or FLAC header, or asks
// ffprobe for other containers
func (r *Reader) duration(ctx context.Context, path string) int {
	var (
		d   int
		err error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		d, err = media.WAVDuration(path)
	case ".flac":
		d, err = FLACDuration(path)
	default:
		if r.runner == nil {
			return 0
		}
		var info *FFprobeInfo
		info, err = RunFFprobe(ctx, r.runner, r.ffprobe, path)
		d = info.DurationSeconds()
	}

	if err != nil {
		util.DebugLog("Duration unavailable for %s: %v", filepath.Base(path), err)
		return 0
	}
	return d
}

// FLACDuration returns a FLAC stream's length in whole seconds
func FLACDuration(path string) (int, error) {
	stream, err := flac.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open flac: %w", err)
	}
	defer stream.Close()

	if stream.Info == nil || stream.Info.SampleRate == 0 {
		return 0, fmt.Errorf("flac %s: missing stream info", path)
	}

	secs := float64(stream.Info.NSamples) / float64(stream.Info.SampleRate)
	return int(secs + 0.5), nil
}
