package util

import (
	"time"

	"github.com/spf13/viper"
)

// DefaultToolTimeout bounds a single ffmpeg/fpcalc invocation when no
// tool-timeout is configured
const DefaultToolTimeout = 5 * time.Minute

// GetToolTimeout returns the per-invocation timeout for external tools.
// A zero or negative value in config falls back to DefaultToolTimeout.
func GetToolTimeout() time.Duration {
	d := viper.GetDuration("tool-timeout")
	if d <= 0 {
		return DefaultToolTimeout
	}
	return d
}
