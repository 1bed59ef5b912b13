package meta

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/dhowden/tag"
)

// TagInfo is what embedded tags say about a track
type TagInfo struct {
	Title       string
	Artist      string
	Album       string
	ReleaseDate string
	ISRC        string
	MBID        string
}

var (
	isrcRe = regexp.MustCompile(`^[A-Z]{2}[A-Z0-9]{3}\d{7}$`)
	mbidRe = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	dateRe = regexp.MustCompile(`^\d{4}(-\d{2}(-\d{2})?)?`)
)

// Raw tag keys across ID3v2 (TSRC, TXXX), Vorbis comments and MP4 freeform atoms
var (
	isrcKeys = []string{"tsrc", "isrc", "----:com.apple.itunes:isrc"}
	mbidKeys = []string{"musicbrainz_trackid", "musicbrainz track id", "----:com.apple.itunes:musicbrainz track id"}
	dateKeys = []string{"tdrc", "tdrl", "tdor", "date", "originaldate", "\xa9day"}
)

const musicBrainzUFID = "http://musicbrainz.org"

// ReadTags reads embedded tags from an audio file
func ReadTags(path string) (*TagInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read tags: %w", err)
	}

	return FromTags(m), nil
}

// FromTags converts tag metadata, validating ISRC and MBID values.
// Malformed identifiers are dropped rather than stored.
func FromTags(m tag.Metadata) *TagInfo {
	info := &TagInfo{
		Title:  CleanString(m.Title()),
		Artist: CleanString(m.Artist()),
		Album:  CleanString(m.Album()),
	}
	if info.Artist == "" {
		info.Artist = CleanString(m.AlbumArtist())
	}

	raw := m.Raw()

	info.ISRC = normalizeISRC(rawString(raw, isrcKeys))
	info.MBID = normalizeMBID(rawString(raw, mbidKeys))
	if info.MBID == "" {
		info.MBID = normalizeMBID(ufidMBID(raw))
	}

	if d := dateRe.FindString(strings.TrimSpace(rawString(raw, dateKeys))); d != "" {
		info.ReleaseDate = d
	} else if m.Year() > 0 {
		info.ReleaseDate = fmt.Sprintf("%04d", m.Year())
	}

	return info
}

// rawString returns the first raw tag value matching one of keys.
// Keys compare case-insensitively; ID3 TXXX frames match on their description.
func rawString(raw map[string]interface{}, keys []string) string {
	for name, val := range raw {
		lname := strings.ToLower(name)
		switch v := val.(type) {
		case string:
			if matchesKey(lname, keys) {
				return v
			}
		case []string:
			if matchesKey(lname, keys) && len(v) > 0 {
				return v[0]
			}
		case *tag.Comm:
			if matchesKey(strings.ToLower(v.Description), keys) {
				return v.Text
			}
		case tag.Comm:
			if matchesKey(strings.ToLower(v.Description), keys) {
				return v.Text
			}
		}
	}
	return ""
}

func matchesKey(name string, keys []string) bool {
	for _, k := range keys {
		// dhowden/tag suffixes repeated frames, e.g. TXXX_0
		if name == k || strings.HasPrefix(name, k+"_") {
			return true
		}
	}
	return false
}

// ufidMBID returns the MusicBrainz recording id stored in an ID3 UFID frame
func ufidMBID(raw map[string]interface{}) string {
	for _, val := range raw {
		switch u := val.(type) {
		case *tag.UFID:
			if u.Provider == musicBrainzUFID {
				return string(u.Identifier)
			}
		case tag.UFID:
			if u.Provider == musicBrainzUFID {
				return string(u.Identifier)
			}
		}
	}
	return ""
}

// normalizeISRC strips separators and upper-cases; returns "" when invalid
func normalizeISRC(s string) string {
	s = strings.ToUpper(strings.NewReplacer("-", "", " ", "").Replace(strings.TrimSpace(s)))
	if !isrcRe.MatchString(s) {
		return ""
	}
	return s
}

// normalizeMBID lower-cases a UUID; returns "" when invalid
func normalizeMBID(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if !mbidRe.MatchString(s) {
		return ""
	}
	return s
}
