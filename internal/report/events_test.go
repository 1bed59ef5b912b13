package report

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestNewEventLogger(t *testing.T) {
	tmpDir := t.TempDir()

	logger, err := NewEventLogger(tmpDir, LevelDebug)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}
	defer logger.Close()

	if logger.path == "" {
		t.Error("EventLogger path is empty")
	}

	// Verify file exists
	if _, err := os.Stat(logger.path); os.IsNotExist(err) {
		t.Errorf("Event log file was not created at %s", logger.path)
	}

	// Verify filename format
	filename := filepath.Base(logger.path)
	if len(filename) < len("events-20060102-150405-abcdef12.jsonl") {
		t.Errorf("Event log filename format incorrect: %s", filename)
	}
}

func TestEventLogger_Log(t *testing.T) {
	tmpDir := t.TempDir()
	logger, err := NewEventLogger(tmpDir, LevelDebug)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}
	defer logger.Close()

	event := &Event{
		Timestamp: time.Now(),
		Level:     LevelInfo,
		Event:     EventScan,
		SrcPath:   "/test/path.mp3",
	}

	if err := logger.Log(event); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	// Verify event was written
	logger.Close()
	content, err := os.ReadFile(logger.path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	if len(content) == 0 {
		t.Error("Log file is empty")
	}

	// Verify JSONL format
	var decoded Event
	if err := json.Unmarshal(content, &decoded); err != nil {
		t.Fatalf("Failed to decode JSONL: %v", err)
	}

	if decoded.RunID != logger.RunID() || decoded.RunID == "" {
		t.Errorf("Expected run_id %q, got %q", logger.RunID(), decoded.RunID)
	}
	if decoded.SrcPath != "/test/path.mp3" {
		t.Errorf("Expected src_path '/test/path.mp3', got '%s'", decoded.SrcPath)
	}
}

func TestEventLogger_MultipleEvents(t *testing.T) {
	tmpDir := t.TempDir()
	logger, err := NewEventLogger(tmpDir, LevelDebug)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}
	defer logger.Close()

	events := []*Event{
		{Level: LevelInfo, Event: EventScan, SrcPath: "/path1.mp3"},
		{Level: LevelInfo, Event: EventConvert, SrcPath: "/path2.flac"},
		{Level: LevelWarning, Event: EventSkip, Reason: "unreadable"},
		{Level: LevelError, Event: EventError, SrcPath: "/path3.m4a", Error: "test error"},
	}

	for _, event := range events {
		if err := logger.Log(event); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	logger.Close()

	// Read and verify all events
	file, err := os.Open(logger.path)
	if err != nil {
		t.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineCount := 0
	for scanner.Scan() {
		lineCount++
		var decoded Event
		if err := json.Unmarshal(scanner.Bytes(), &decoded); err != nil {
			t.Fatalf("Failed to decode line %d: %v", lineCount, err)
		}

		// Verify timestamp was set
		if decoded.Timestamp.IsZero() {
			t.Errorf("Line %d: timestamp not set", lineCount)
		}
	}

	if lineCount != len(events) {
		t.Errorf("Expected %d events, got %d", len(events), lineCount)
	}
}

func TestEventLogger_ConcurrentWrites(t *testing.T) {
	tmpDir := t.TempDir()
	logger, err := NewEventLogger(tmpDir, LevelDebug)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}
	defer logger.Close()

	const numGoroutines = 10
	const eventsPerGoroutine = 20

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < eventsPerGoroutine; j++ {
				event := &Event{
					Level:   LevelInfo,
					Event:   EventScan,
					SrcPath: "concurrent-test",
					Extra: map[string]string{
						"goroutine": string(rune(id)),
						"sequence":  string(rune(j)),
					},
				}
				if err := logger.Log(event); err != nil {
					t.Errorf("Concurrent log failed: %v", err)
				}
			}
		}(i)
	}

	wg.Wait()
	logger.Close()

	// Verify all events were written
	file, err := os.Open(logger.path)
	if err != nil {
		t.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineCount := 0
	for scanner.Scan() {
		lineCount++
		var decoded Event
		if err := json.Unmarshal(scanner.Bytes(), &decoded); err != nil {
			t.Fatalf("Failed to decode line %d: %v", lineCount, err)
		}
	}

	expected := numGoroutines * eventsPerGoroutine
	if lineCount != expected {
		t.Errorf("Expected %d events, got %d", expected, lineCount)
	}
}

func readSingleEvent(t *testing.T, path string) Event {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	var event Event
	if err := json.Unmarshal(content, &event); err != nil {
		t.Fatalf("Failed to decode event: %v", err)
	}
	return event
}

func TestEventLogger_LogScan(t *testing.T) {
	tmpDir := t.TempDir()
	logger, err := NewEventLogger(tmpDir, LevelDebug)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}
	defer logger.Close()

	if err := logger.LogScan("/music/test.mp3", 12345678); err != nil {
		t.Fatalf("LogScan failed: %v", err)
	}

	logger.Close()
	event := readSingleEvent(t, logger.path)

	if event.Event != EventScan {
		t.Errorf("Expected event type 'scan', got '%s'", event.Event)
	}
	if event.SrcPath != "/music/test.mp3" {
		t.Errorf("Expected src_path '/music/test.mp3', got '%s'", event.SrcPath)
	}
	if event.Extra["size_bytes"] != "12345678" {
		t.Errorf("Expected size_bytes '12345678', got '%s'", event.Extra["size_bytes"])
	}
}

func TestEventLogger_LogConvert(t *testing.T) {
	tmpDir := t.TempDir()
	logger, err := NewEventLogger(tmpDir, LevelDebug)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}
	defer logger.Close()

	err = logger.LogConvert("/music/test.flac", "/out/test.wav", true, 250*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("LogConvert failed: %v", err)
	}

	logger.Close()
	event := readSingleEvent(t, logger.path)

	if event.Level != LevelInfo {
		t.Errorf("Expected level 'info', got '%s'", event.Level)
	}
	if event.DestPath != "/out/test.wav" {
		t.Errorf("Expected dest_path '/out/test.wav', got '%s'", event.DestPath)
	}
	if event.Extra["converted"] != "true" {
		t.Errorf("Expected converted 'true', got '%s'", event.Extra["converted"])
	}
	if event.Duration != 250 {
		t.Errorf("Expected duration 250 ms, got %d ms", event.Duration)
	}
}

func TestEventLogger_LogSampleError(t *testing.T) {
	tmpDir := t.TempDir()
	logger, err := NewEventLogger(tmpDir, LevelDebug)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}
	defer logger.Close()

	if err := logger.LogSample("/music/test.mp3", "", 10, 0, errors.New("sampling failed")); err != nil {
		t.Fatalf("LogSample failed: %v", err)
	}

	logger.Close()
	event := readSingleEvent(t, logger.path)

	if event.Level != LevelError {
		t.Errorf("Expected level 'error', got '%s'", event.Level)
	}
	if event.Error != "sampling failed" {
		t.Errorf("Expected error message, got '%s'", event.Error)
	}
	if event.Extra["seconds"] != "10" {
		t.Errorf("Expected seconds '10', got '%s'", event.Extra["seconds"])
	}
}

func TestEventLogger_LogFingerprintAndScore(t *testing.T) {
	tmpDir := t.TempDir()
	logger, err := NewEventLogger(tmpDir, LevelDebug)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}
	defer logger.Close()

	if err := logger.LogFingerprint("/music/a.mp3", "/out/a.wav", "full", "AQADtE", time.Second, nil); err != nil {
		t.Fatalf("LogFingerprint failed: %v", err)
	}
	if err := logger.LogScore("/music/a.mp3", 42.5, "mismatch"); err != nil {
		t.Fatalf("LogScore failed: %v", err)
	}
	if err := logger.LogPersist("/music/a.mp3", 3, 4, 5, nil); err != nil {
		t.Fatalf("LogPersist failed: %v", err)
	}

	logger.Close()

	events, err := ReadEvents(logger.path)
	if err != nil {
		t.Fatalf("ReadEvents failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(events))
	}

	if events[0].Role != "full" || events[0].Fingerprint != "AQADtE" {
		t.Errorf("Unexpected fingerprint event: %+v", events[0])
	}
	if events[1].Level != LevelWarning || events[1].Similarity != 42.5 || events[1].Band != "mismatch" {
		t.Errorf("Unexpected score event: %+v", events[1])
	}
	if events[2].SongID != 3 || events[2].SampleID != 4 || events[2].FingerprintID != 5 {
		t.Errorf("Unexpected persist event: %+v", events[2])
	}
	for i, ev := range events {
		if ev.RunID != logger.RunID() {
			t.Errorf("Event %d: run_id %q, expected %q", i, ev.RunID, logger.RunID())
		}
	}
}

func TestReadEventsSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	content := `{"ts":"2026-01-02T03:04:05Z","level":"error","event":"persist","error":"boom"}
not json
{"ts":"2026-01-02T03:04:06Z","level":"info","event":"score","similarity":100}
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	events, err := ReadEvents(path)
	if err != nil {
		t.Fatalf("ReadEvents failed: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("Expected 2 events, got %d", len(events))
	}
}

func TestEventLogger_NullLogger(t *testing.T) {
	logger := NullLogger()

	// Should not panic
	err := logger.Log(&Event{Level: LevelInfo, Event: EventScan})
	if err != nil {
		t.Errorf("NullLogger.Log should not return error, got: %v", err)
	}

	err = logger.LogScan("/path", 123)
	if err != nil {
		t.Errorf("NullLogger.LogScan should not return error, got: %v", err)
	}

	err = logger.Close()
	if err != nil {
		t.Errorf("NullLogger.Close should not return error, got: %v", err)
	}

	path := logger.Path()
	if path != "" {
		t.Errorf("NullLogger.Path should return empty string, got: %s", path)
	}
}

func TestEventLogger_AutoTimestamp(t *testing.T) {
	tmpDir := t.TempDir()
	logger, err := NewEventLogger(tmpDir, LevelDebug)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}
	defer logger.Close()

	// Log event without setting timestamp
	event := &Event{
		Level: LevelInfo,
		Event: EventScan,
	}

	if err := logger.Log(event); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	logger.Close()

	// Verify timestamp was auto-set
	content, _ := os.ReadFile(logger.path)
	var decoded Event
	json.Unmarshal(content, &decoded)

	if decoded.Timestamp.IsZero() {
		t.Error("Expected timestamp to be auto-set, but it's zero")
	}

	// Timestamp should be recent
	if time.Since(decoded.Timestamp) > 5*time.Second {
		t.Errorf("Timestamp is too old: %v", decoded.Timestamp)
	}
}

func TestEventLogger_JSONLFormat(t *testing.T) {
	tmpDir := t.TempDir()
	logger, err := NewEventLogger(tmpDir, LevelDebug)
	if err != nil {
		t.Fatalf("NewEventLogger failed: %v", err)
	}
	defer logger.Close()

	// Log multiple events
	events := []Event{
		{Level: LevelInfo, Event: EventScan, SrcPath: "/a.mp3"},
		{Level: LevelWarning, Event: EventSkip, Reason: "unreadable"},
		{Level: LevelError, Event: EventError, Error: "test error"},
	}

	for _, e := range events {
		if err := logger.Log(&e); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	logger.Close()

	// Verify JSONL format (one JSON object per line)
	file, err := os.Open(logger.path)
	if err != nil {
		t.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		// Each line should be valid JSON
		var decoded Event
		if err := json.Unmarshal([]byte(line), &decoded); err != nil {
			t.Fatalf("Line %d is not valid JSON: %v\nLine: %s", lineNum, err, line)
		}

		// Verify required fields
		if decoded.Level == "" {
			t.Errorf("Line %d: missing level", lineNum)
		}
		if decoded.Event == "" {
			t.Errorf("Line %d: missing event type", lineNum)
		}
		if decoded.Timestamp.IsZero() {
			t.Errorf("Line %d: missing timestamp", lineNum)
		}
	}

	if lineNum != len(events) {
		t.Errorf("Expected %d lines, got %d", len(events), lineNum)
	}
}

func TestEventLogger_LogLevelFiltering(t *testing.T) {
	testCases := []struct {
		name          string
		minLevel      EventLevel
		events        []Event
		expectedCount int
	}{
		{
			name:     "LevelDebug logs all",
			minLevel: LevelDebug,
			events: []Event{
				{Level: LevelDebug, Event: EventScan},
				{Level: LevelInfo, Event: EventConvert},
				{Level: LevelWarning, Event: EventSkip},
				{Level: LevelError, Event: EventError},
			},
			expectedCount: 4,
		},
		{
			name:     "LevelInfo skips debug",
			minLevel: LevelInfo,
			events: []Event{
				{Level: LevelDebug, Event: EventScan},
				{Level: LevelInfo, Event: EventConvert},
				{Level: LevelWarning, Event: EventSkip},
				{Level: LevelError, Event: EventError},
			},
			expectedCount: 3,
		},
		{
			name:     "LevelWarning skips debug and info",
			minLevel: LevelWarning,
			events: []Event{
				{Level: LevelDebug, Event: EventScan},
				{Level: LevelInfo, Event: EventConvert},
				{Level: LevelWarning, Event: EventSkip},
				{Level: LevelError, Event: EventError},
			},
			expectedCount: 2,
		},
		{
			name:     "LevelError only logs errors",
			minLevel: LevelError,
			events: []Event{
				{Level: LevelDebug, Event: EventScan},
				{Level: LevelInfo, Event: EventConvert},
				{Level: LevelWarning, Event: EventSkip},
				{Level: LevelError, Event: EventError},
			},
			expectedCount: 1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			logger, err := NewEventLogger(tmpDir, tc.minLevel)
			if err != nil {
				t.Fatalf("NewEventLogger failed: %v", err)
			}
			defer logger.Close()

			// Log all events
			for _, e := range tc.events {
				if err := logger.Log(&e); err != nil {
					t.Fatalf("Log failed: %v", err)
				}
			}

			logger.Close()

			// Count lines in log file
			file, err := os.Open(logger.path)
			if err != nil {
				t.Fatalf("Failed to open log file: %v", err)
			}
			defer file.Close()

			scanner := bufio.NewScanner(file)
			lineCount := 0
			for scanner.Scan() {
				lineCount++
			}

			if lineCount != tc.expectedCount {
				t.Errorf("Expected %d events logged, got %d", tc.expectedCount, lineCount)
			}
		})
	}
}
