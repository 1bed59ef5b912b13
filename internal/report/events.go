package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of event
type EventType string

const (
	EventScan        EventType = "scan"
	EventConvert     EventType = "convert"
	EventSample      EventType = "sample"
	EventFingerprint EventType = "fingerprint"
	EventScore       EventType = "score"
	EventPersist     EventType = "persist"
	EventSkip        EventType = "skip"
	EventError       EventType = "error"
)

// EventLevel represents the severity level
type EventLevel string

const (
	LevelDebug   EventLevel = "debug"
	LevelInfo    EventLevel = "info"
	LevelWarning EventLevel = "warning"
	LevelError   EventLevel = "error"
)

// levelPriority maps event levels to numeric priorities for comparison
var levelPriority = map[EventLevel]int{
	LevelDebug:   0,
	LevelInfo:    1,
	LevelWarning: 2,
	LevelError:   3,
}

// Event represents a single event in the pipeline
type Event struct {
	Timestamp     time.Time         `json:"ts"`
	RunID         string            `json:"run_id,omitempty"`
	Level         EventLevel        `json:"level"`
	Event         EventType         `json:"event"`
	SrcPath       string            `json:"src_path,omitempty"`
	DestPath      string            `json:"dest_path,omitempty"`
	Role          string            `json:"role,omitempty"` // "full" or "sample" for fingerprint events
	Fingerprint   string            `json:"fingerprint,omitempty"`
	Similarity    float64           `json:"similarity,omitempty"`
	Band          string            `json:"band,omitempty"`
	SongID        int64             `json:"song_id,omitempty"`
	SampleID      int64             `json:"sample_id,omitempty"`
	FingerprintID int64             `json:"fingerprint_id,omitempty"`
	Reason        string            `json:"reason,omitempty"`
	Duration      int64             `json:"duration_ms,omitempty"` // in milliseconds
	Error         string            `json:"error,omitempty"`
	Extra         map[string]string `json:"extra,omitempty"`
}

// EventLogger writes events to a JSONL file
type EventLogger struct {
	file     *os.File
	encoder  *json.Encoder
	mu       sync.Mutex
	path     string
	runID    string
	minLevel EventLevel
}

// NewEventLogger creates a new event logger with a minimum log level.
// Every event it writes carries the same freshly generated run id.
func NewEventLogger(outputDir string, minLevel EventLevel) (*EventLogger, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	runID := uuid.New().String()
	timestamp := time.Now().Format("20060102-150405")
	filename := fmt.Sprintf("events-%s-%s.jsonl", timestamp, runID[:8])
	path := filepath.Join(outputDir, filename)

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create event log: %w", err)
	}

	return &EventLogger{
		file:     file,
		encoder:  json.NewEncoder(file),
		path:     path,
		runID:    runID,
		minLevel: minLevel,
	}, nil
}

// Log writes an event to the JSONL file
func (l *EventLogger) Log(event *Event) error {
	if l == nil || l.file == nil {
		return nil // Silently ignore if logger not initialized
	}

	if levelPriority[event.Level] < levelPriority[l.minLevel] {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.RunID == "" {
		event.RunID = l.runID
	}

	if err := l.encoder.Encode(event); err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	return nil
}

// LogScan logs a discovered source file
func (l *EventLogger) LogScan(srcPath string, sizeBytes int64) error {
	return l.Log(&Event{
		Level:   LevelDebug,
		Event:   EventScan,
		SrcPath: srcPath,
		Extra: map[string]string{
			"size_bytes": fmt.Sprintf("%d", sizeBytes),
		},
	})
}

// LogConvert logs a WAV conversion; converted is false when the source was already WAV
func (l *EventLogger) LogConvert(srcPath, wavPath string, converted bool, duration time.Duration, err error) error {
	return l.Log(&Event{
		Level:    levelFor(err),
		Event:    EventConvert,
		SrcPath:  srcPath,
		DestPath: wavPath,
		Duration: duration.Milliseconds(),
		Error:    errString(err),
		Extra: map[string]string{
			"converted": fmt.Sprintf("%t", converted),
		},
	})
}

// LogSample logs sample creation
func (l *EventLogger) LogSample(srcPath, samplePath string, seconds int, duration time.Duration, err error) error {
	return l.Log(&Event{
		Level:    levelFor(err),
		Event:    EventSample,
		SrcPath:  srcPath,
		DestPath: samplePath,
		Duration: duration.Milliseconds(),
		Error:    errString(err),
		Extra: map[string]string{
			"seconds": fmt.Sprintf("%d", seconds),
		},
	})
}

// LogFingerprint logs a fingerprint extraction. role is "full" or "sample".
func (l *EventLogger) LogFingerprint(srcPath, path, role, fingerprint string, duration time.Duration, err error) error {
	return l.Log(&Event{
		Level:       levelFor(err),
		Event:       EventFingerprint,
		SrcPath:     srcPath,
		DestPath:    path,
		Role:        role,
		Fingerprint: fingerprint,
		Duration:    duration.Milliseconds(),
		Error:       errString(err),
	})
}

// LogScore logs the similarity between the full and sample fingerprints
func (l *EventLogger) LogScore(srcPath string, similarity float64, band string) error {
	level := LevelInfo
	if band == "mismatch" {
		level = LevelWarning
	}

	return l.Log(&Event{
		Level:      level,
		Event:      EventScore,
		SrcPath:    srcPath,
		Similarity: similarity,
		Band:       band,
	})
}

// LogPersist logs the catalog writes for one file. Ids are 0 for rows not written.
func (l *EventLogger) LogPersist(srcPath string, songID, sampleID, fingerprintID int64, err error) error {
	return l.Log(&Event{
		Level:         levelFor(err),
		Event:         EventPersist,
		SrcPath:       srcPath,
		SongID:        songID,
		SampleID:      sampleID,
		FingerprintID: fingerprintID,
		Error:         errString(err),
	})
}

// LogSkip logs a file that was not processed
func (l *EventLogger) LogSkip(srcPath, reason string) error {
	return l.Log(&Event{
		Level:   LevelWarning,
		Event:   EventSkip,
		SrcPath: srcPath,
		Reason:  reason,
	})
}

// LogError logs an error event
func (l *EventLogger) LogError(event EventType, srcPath string, err error) error {
	return l.Log(&Event{
		Level:   LevelError,
		Event:   event,
		SrcPath: srcPath,
		Error:   errString(err),
	})
}

// Close closes the event log file
func (l *EventLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.file.Close()
}

// Path returns the path to the event log file
func (l *EventLogger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// RunID returns the id stamped on every event of this run
func (l *EventLogger) RunID() string {
	if l == nil {
		return ""
	}
	return l.runID
}

// NullLogger returns a no-op event logger
func NullLogger() *EventLogger {
	return nil
}

// ReadEvents decodes a JSONL event log. Malformed lines are skipped.
func ReadEvents(path string) ([]*Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open event log: %w", err)
	}
	defer f.Close()

	var events []*Event
	scanner := bufio.NewScanner(f)
	// Fingerprints of long tracks produce long lines
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		var ev Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			continue
		}
		events = append(events, &ev)
	}
	if err := scanner.Err(); err != nil {
		return events, fmt.Errorf("failed to read event log: %w", err)
	}

	return events, nil
}

func levelFor(err error) EventLevel {
	if err != nil {
		return LevelError
	}
	return LevelInfo
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
