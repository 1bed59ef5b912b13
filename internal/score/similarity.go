// Package score computes how closely a sample fingerprint matches the
// fingerprint of the full track it was cut from.
//
// The score is a literal per-character match rate over the raw fingerprint
// text. It is a coarse overlap heuristic for spotting truncated, corrupt or
// misattributed samples, not a perceptual or bit-level similarity measure.
package score

// Similarity returns the percentage (0-100) of sample positions that agree
// with the prefix of full.
//
// The sample is assumed to start at offset zero of the track, so full is
// truncated to len(sample) and compared position by position. No offset
// search is done. The denominator is always len(sample): sample characters
// with no counterpart in full count as mismatches. That makes the function
// asymmetric whenever the arguments differ in length.
func Similarity(full, sample string) float64 {
	if full == "" || sample == "" {
		return 0.0
	}

	prefix := full
	if len(prefix) > len(sample) {
		prefix = prefix[:len(sample)]
	}

	matches := 0
	for i := 0; i < len(prefix); i++ {
		if prefix[i] == sample[i] {
			matches++
		}
	}

	return float64(matches) / float64(len(sample)) * 100.0
}

// Band classifies a similarity percentage for reporting
type Band string

const (
	BandMatch    Band = "match"    // sample agrees with the track prefix
	BandPartial  Band = "partial"  // noticeable divergence, possibly truncated or re-encoded
	BandMismatch Band = "mismatch" // sample likely does not belong to this track
)

// Thresholds for Classify
const (
	MatchThreshold   = 90.0
	PartialThreshold = 50.0
)

// Classify maps a similarity percentage to a report band
func Classify(pct float64) Band {
	switch {
	case pct >= MatchThreshold:
		return BandMatch
	case pct >= PartialThreshold:
		return BandPartial
	default:
		return BandMismatch
	}
}
