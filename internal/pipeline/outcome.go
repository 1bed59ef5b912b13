package pipeline

import (
	"fmt"
	"time"
)

// State is the last stage a file reached
type State int

const (
	StateStart State = iota
	StateConverted
	StateSampled
	StateFingerprinted
	StateScored
	StatePersisted
	StateAborted
)

var stateNames = [...]string{
	StateStart:         "start",
	StateConverted:     "converted",
	StateSampled:       "sampled",
	StateFingerprinted: "fingerprinted",
	StateScored:        "scored",
	StatePersisted:     "persisted",
	StateAborted:       "aborted",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// FailureKind names why a file was aborted
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureConversion
	FailureSampling
	FailureFingerprintMissing
	FailureInsert
	FailureTimeout
	FailureNameCollision
	FailureToolMissing // fatal, ends the batch
	FailureCancelled   // fatal, ends the batch
)

var failureNames = [...]string{
	FailureNone:               "none",
	FailureConversion:         "conversion_failed",
	FailureSampling:           "sampling_failed",
	FailureFingerprintMissing: "fingerprint_missing",
	FailureInsert:             "insert_failed",
	FailureTimeout:            "timeout",
	FailureNameCollision:      "name_collision",
	FailureToolMissing:        "tool_missing",
	FailureCancelled:          "cancelled",
}

func (f FailureKind) String() string {
	if f < 0 || int(f) >= len(failureNames) {
		return fmt.Sprintf("failure(%d)", int(f))
	}
	return failureNames[f]
}

// Fatal reports whether the failure stops the whole batch
func (f FailureKind) Fatal() bool {
	return f == FailureToolMissing || f == FailureCancelled
}

// Outcome is the result of processing one source file. Exactly one of
// State == StatePersisted or State == StateAborted holds once Process returns.
type Outcome struct {
	Path    string
	State   State
	Failure FailureKind
	Err     error

	// AbortedAt is the last state reached before the failure
	AbortedAt State

	WAVPath    string
	SamplePath string
	Converted  bool

	FullFingerprint   string
	SampleFingerprint string
	Score             float64

	// Ids written by the persist script; 0 when that insert did not happen
	SongID        int64
	SampleID      int64
	FingerprintID int64

	Elapsed time.Duration
}

// OK reports whether every stage succeeded
func (o *Outcome) OK() bool {
	return o.State == StatePersisted
}

// Orphaned reports whether a song row was committed but a later insert failed
func (o *Outcome) Orphaned() bool {
	return o.SongID != 0 && o.State != StatePersisted
}

// Scored reports whether a similarity was computed, even if persisting failed
func (o *Outcome) Scored() bool {
	if o.State == StateAborted {
		return o.AbortedAt >= StateScored
	}
	return o.State >= StateScored
}

func (o *Outcome) advance(s State) {
	o.State = s
}

func (o *Outcome) abort(kind FailureKind, err error) {
	o.AbortedAt = o.State
	o.State = StateAborted
	o.Failure = kind
	o.Err = err
}
