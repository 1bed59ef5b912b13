package util

import (
	"time"

	"github.com/dustin/go-humanize"
)

// FormatBytes renders a byte count for humans (e.g. "1.2 MB")
func FormatBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}

// FormatSince renders how long ago t was (e.g. "3 minutes ago")
func FormatSince(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}
