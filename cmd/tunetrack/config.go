package main

import (
	"time"

	"github.com/franz/tunetrack/internal/fingerprint"
	"github.com/franz/tunetrack/internal/media"
	"github.com/franz/tunetrack/internal/meta"
	"github.com/franz/tunetrack/internal/report"
	"github.com/franz/tunetrack/internal/util"
	"github.com/spf13/viper"
)

// GetConfigString retrieves a string config value with proper precedence:
// 1. Command-line flag (if set)
// 2. Environment variable (TUNETRACK_*)
// 3. Config file
// 4. Default value
func GetConfigString(key string, defaultValue string) string {
	val := viper.GetString(key)
	if val == "" {
		return defaultValue
	}
	return val
}

// GetConfigInt retrieves an int config value with proper precedence
func GetConfigInt(key string, defaultValue int) int {
	val := viper.GetInt(key)
	if val == 0 {
		return defaultValue
	}
	return val
}

// GetConfigBool retrieves a bool config value
func GetConfigBool(key string) bool {
	return viper.GetBool(key)
}

// toolConfig names the external binaries and how long each call may take
type toolConfig struct {
	ffmpeg  string
	fpcalc  string
	ffprobe string
	timeout time.Duration
}

func loadToolConfig() toolConfig {
	return toolConfig{
		ffmpeg:  GetConfigString("ffmpeg-path", media.DefaultTool),
		fpcalc:  GetConfigString("fpcalc-path", fingerprint.DefaultTool),
		ffprobe: GetConfigString("ffprobe-path", meta.DefaultFFprobe),
		timeout: util.GetToolTimeout(),
	}
}

// applyLogLevel sets the console log level from --verbose/--quiet
func applyLogLevel() {
	util.SetVerbose(GetConfigBool("verbose"))
	util.SetQuiet(GetConfigBool("quiet"))
}

// openEventLogger creates the run's JSONL event log, falling back to a
// no-op logger when the directory is not writable
func openEventLogger() *report.EventLogger {
	logLevel := report.LevelInfo // Default
	if GetConfigBool("quiet") {
		logLevel = report.LevelWarning // Only warnings and errors
	} else if GetConfigBool("verbose") {
		logLevel = report.LevelDebug // Everything
	}

	logger, err := report.NewEventLogger(GetConfigString("events-dir", "artifacts"), logLevel)
	if err != nil {
		util.WarnLog("Failed to create event logger: %v", err)
		return report.NullLogger()
	}
	return logger
}
