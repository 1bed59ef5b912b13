package meta

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/franz/tunetrack/internal/toolexec"
)

// DefaultFFprobe is the ffprobe binary looked up on PATH
const DefaultFFprobe = "ffprobe"

// FFprobeInfo represents the output from ffprobe
type FFprobeInfo struct {
	Streams []FFprobeStream `json:"streams"`
	Format  *FFprobeFormat  `json:"format"`
}

// IntOrString can unmarshal both integers and strings from JSON
type IntOrString struct {
	Value int
}

// UnmarshalJSON implements custom unmarshaling for IntOrString
func (i *IntOrString) UnmarshalJSON(data []byte) error {
	var intVal int
	if err := json.Unmarshal(data, &intVal); err == nil {
		i.Value = intVal
		return nil
	}

	var strVal string
	if err := json.Unmarshal(data, &strVal); err != nil {
		return err
	}

	// "N/A", "" and garbage all mean unknown
	parsed, err := strconv.Atoi(strVal)
	if err != nil {
		i.Value = 0
		return nil
	}

	i.Value = parsed
	return nil
}

// FFprobeStream represents an audio stream
type FFprobeStream struct {
	Index         int         `json:"index"`
	CodecName     string      `json:"codec_name"`
	CodecType     string      `json:"codec_type"`
	SampleRate    IntOrString `json:"sample_rate"`
	Channels      int         `json:"channels"`
	BitsPerSample IntOrString `json:"bits_per_sample"`
	Duration      string      `json:"duration"`
}

// FFprobeFormat represents container format metadata
type FFprobeFormat struct {
	Filename   string            `json:"filename"`
	FormatName string            `json:"format_name"`
	Duration   string            `json:"duration"`
	Tags       map[string]string `json:"tags"`
}

// DurationSeconds returns the container duration rounded to whole seconds,
// falling back to the first stream that reports one. 0 means unknown.
func (info *FFprobeInfo) DurationSeconds() int {
	if info == nil {
		return 0
	}
	if info.Format != nil {
		if d := parseSeconds(info.Format.Duration); d > 0 {
			return d
		}
	}
	for _, s := range info.Streams {
		if d := parseSeconds(s.Duration); d > 0 {
			return d
		}
	}
	return 0
}

// Tag returns the first non-empty container tag among keys
func (info *FFprobeInfo) Tag(keys ...string) string {
	if info == nil || info.Format == nil {
		return ""
	}
	return getTag(info.Format.Tags, keys...)
}

// RunFFprobe executes ffprobe through runner and parses the JSON output
func RunFFprobe(ctx context.Context, runner toolexec.Runner, tool, path string) (*FFprobeInfo, error) {
	if tool == "" {
		tool = DefaultFFprobe
	}

	res, err := runner.Run(ctx, tool,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	if err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	return ParseFFprobe(res.Stdout)
}

// ParseFFprobe decodes ffprobe JSON output
func ParseFFprobe(output []byte) (*FFprobeInfo, error) {
	var info FFprobeInfo
	if err := json.Unmarshal(output, &info); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	return &info, nil
}

func parseSeconds(s string) int {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return 0
	}
	return int(f + 0.5)
}

// getTag retrieves a tag value from a map, trying multiple keys
func getTag(tags map[string]string, keys ...string) string {
	for _, key := range keys {
		if val, ok := tags[key]; ok && val != "" {
			return val
		}
	}
	return ""
}
