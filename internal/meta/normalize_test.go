package meta

import "testing"

func TestCleanString(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"  Hello   World  ", "Hello World"},
		{"Title\x00\x00", "Title"},
		{"Line\tbreak\nhere", "Line break here"},
		// NFD "e" + combining acute becomes the single NFC rune
		{"Beyonce\u0301", "Beyonc\u00e9"},
	}

	for _, tt := range tests {
		if got := CleanString(tt.input); got != tt.expected {
			t.Errorf("CleanString(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		n        int
		expected string
	}{
		{"abc", 5, "abc"},
		{"abcdef", 3, "abc"},
		{"ääää", 2, "ää"},
		{"abc", 0, ""},
	}

	for _, tt := range tests {
		if got := Truncate(tt.input, tt.n); got != tt.expected {
			t.Errorf("Truncate(%q, %d) = %q, expected %q", tt.input, tt.n, got, tt.expected)
		}
	}
}
