package score

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSimilarity(t *testing.T) {
	testCases := []struct {
		name     string
		full     string
		sample   string
		expected float64
	}{
		{
			name:     "empty full",
			full:     "",
			sample:   "anything",
			expected: 0.0,
		},
		{
			name:     "empty sample",
			full:     "anything",
			sample:   "",
			expected: 0.0,
		},
		{
			name:     "both empty",
			full:     "",
			sample:   "",
			expected: 0.0,
		},
		{
			name:     "full prefix match",
			full:     "ABCDEF",
			sample:   "ABCD",
			expected: 100.0,
		},
		{
			name:     "half of compared characters match",
			full:     "ABCDEF",
			sample:   "XXCD",
			expected: 50.0,
		},
		{
			name:     "identical strings",
			full:     "123,456,789",
			sample:   "123,456,789",
			expected: 100.0,
		},
		{
			name:     "nothing matches",
			full:     "aaaa",
			sample:   "bbbb",
			expected: 0.0,
		},
		{
			name:     "sample longer than full counts the overhang as mismatches",
			full:     "AB",
			sample:   "ABCD",
			expected: 50.0,
		},
		{
			name:     "one of three",
			full:     "abcxyz",
			sample:   "aXX",
			expected: 100.0 / 3.0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Similarity(tc.full, tc.sample)
			if !almostEqual(got, tc.expected) {
				t.Errorf("Similarity(%q, %q) = %v, expected %v", tc.full, tc.sample, got, tc.expected)
			}
			if got < 0 || got > 100 {
				t.Errorf("Similarity out of range: %v", got)
			}
		})
	}
}

func TestSimilarity_Asymmetric(t *testing.T) {
	testCases := []struct {
		name     string
		a, b     string
		expectAB float64
		expectBA float64
	}{
		{
			name:     "prefix relation",
			a:        "abcd",
			b:        "ab",
			expectAB: 100.0, // "ab" vs "ab"
			expectBA: 50.0,  // "ab" vs "abcd": 2 of 4 sample positions
		},
		{
			name:     "partial overlap with mismatched lengths",
			a:        "ABCDEFGH",
			b:        "ABXY",
			expectAB: 50.0, // "ABCD" vs "ABXY"
			expectBA: 25.0, // "ABXY" vs "ABCDEFGH": 2 of 8
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ab := Similarity(tc.a, tc.b)
			ba := Similarity(tc.b, tc.a)

			if !almostEqual(ab, tc.expectAB) {
				t.Errorf("Similarity(%q, %q) = %v, expected %v", tc.a, tc.b, ab, tc.expectAB)
			}
			if !almostEqual(ba, tc.expectBA) {
				t.Errorf("Similarity(%q, %q) = %v, expected %v", tc.b, tc.a, ba, tc.expectBA)
			}
			if almostEqual(ab, ba) {
				t.Errorf("expected asymmetric scores, both were %v", ab)
			}
		})
	}

	// Equal lengths are the only case where order never matters
	if Similarity("ABCD", "ABXD") != Similarity("ABXD", "ABCD") {
		t.Error("equal-length inputs should score the same in both orders")
	}
}

func TestClassify(t *testing.T) {
	testCases := []struct {
		pct      float64
		expected Band
	}{
		{100, BandMatch},
		{90, BandMatch},
		{89.99, BandPartial},
		{50, BandPartial},
		{49.9, BandMismatch},
		{0, BandMismatch},
	}

	for _, tc := range testCases {
		if got := Classify(tc.pct); got != tc.expected {
			t.Errorf("Classify(%v) = %s, expected %s", tc.pct, got, tc.expected)
		}
	}
}
