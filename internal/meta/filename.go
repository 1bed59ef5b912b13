package meta

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// FilenameMeta holds metadata parsed from a file name
type FilenameMeta struct {
	Artist string
	Title  string
	Track  int
}

var filenamePatterns = []struct {
	re    *regexp.Regexp
	parse func(*FilenameMeta, []string)
}{
	{
		// "01 - Artist - Title"
		re: regexp.MustCompile(`^(\d{1,3})\s*[-.]\s*(.+?)\s+-\s+(.+)$`),
		parse: func(m *FilenameMeta, matches []string) {
			m.Track, _ = strconv.Atoi(matches[1])
			m.Artist = strings.TrimSpace(matches[2])
			m.Title = strings.TrimSpace(matches[3])
		},
	},
	{
		// "01 - Title"
		re: regexp.MustCompile(`^(\d{1,3})\s+-\s+(.+)$`),
		parse: func(m *FilenameMeta, matches []string) {
			m.Track, _ = strconv.Atoi(matches[1])
			m.Title = strings.TrimSpace(matches[2])
		},
	},
	{
		// "Artist - Title"
		re: regexp.MustCompile(`^(.+?)\s+-\s+(.+)$`),
		parse: func(m *FilenameMeta, matches []string) {
			m.Artist = strings.TrimSpace(matches[1])
			m.Title = strings.TrimSpace(matches[2])
		},
	},
}

// BaseName returns the file name without directory and extension
func BaseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ParseFilename extracts artist and title from a file name.
// Only " - " separated names are split; anything else becomes the title.
func ParseFilename(path string) *FilenameMeta {
	name := CleanString(BaseName(path))
	m := &FilenameMeta{}

	for _, p := range filenamePatterns {
		if matches := p.re.FindStringSubmatch(name); matches != nil {
			p.parse(m, matches)
			break
		}
	}

	if m.Title == "" {
		m.Title = name
	}

	return m
}
