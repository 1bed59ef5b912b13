package media

import (
	"fmt"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVInfo holds the header fields of a PCM WAV file
type WAVInfo struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Duration   time.Duration
}

// ReadWAVInfo parses the RIFF header of path
func ReadWAVInfo(path string) (*WAVInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open wav: %w", err)
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, fmt.Errorf("%s: not a valid wav file", path)
	}

	dur, err := d.Duration()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read wav duration: %w", path, err)
	}

	return &WAVInfo{
		SampleRate: int(d.SampleRate),
		Channels:   int(d.NumChans),
		BitDepth:   int(d.BitDepth),
		Duration:   dur,
	}, nil
}

// ValidateWAV checks that path holds a parseable WAV file
func ValidateWAV(path string) error {
	_, err := ReadWAVInfo(path)
	return err
}

// WAVDuration returns the duration of a WAV file in whole seconds, rounded
func WAVDuration(path string) (int, error) {
	info, err := ReadWAVInfo(path)
	if err != nil {
		return 0, err
	}
	return int(info.Duration.Round(time.Second) / time.Second), nil
}

// WriteTone writes a mono 16-bit PCM WAV of the given length containing a
// 440 Hz square wave. It exercises the tool chain end to end.
func WriteTone(path string, seconds, sampleRate int) error {
	if sampleRate <= 0 {
		sampleRate = 44100
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create wav: %w", err)
	}

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)

	period := sampleRate / 440
	if period < 2 {
		period = 2
	}
	data := make([]int, sampleRate*seconds)
	for i := range data {
		if (i/(period/2))%2 == 0 {
			data[i] = 8000
		} else {
			data[i] = -8000
		}
	}

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}

	if err := enc.Write(buf); err != nil {
		f.Close()
		return fmt.Errorf("failed to write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("failed to finalize wav: %w", err)
	}
	return f.Close()
}
