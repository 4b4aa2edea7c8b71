package util

import (
	"testing"

	"github.com/mattn/go-runewidth"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"speech", 10, "speech"},
		{"speech", 6, "speech"},
		{"speech", 4, "spe…"},
		{"speech", 1, "…"},
		{"speech", 0, ""},
		{"日本語テキスト", 5, "日本…"},
	}
	for _, tc := range tests {
		if got := Truncate(tc.in, tc.width); got != tc.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tc.in, tc.width, got, tc.want)
		}
	}
}

func TestPadRight(t *testing.T) {
	if got := PadRight("ab", 5); got != "ab   " {
		t.Errorf("PadRight = %q", got)
	}
	if got := PadRight("日本", 5); runewidth.StringWidth(got) != 5 {
		t.Errorf("PadRight wide = %q (width %d)", got, runewidth.StringWidth(got))
	}
	if got := PadRight("abcdef", 3); got != "ab…" {
		t.Errorf("PadRight truncating = %q", got)
	}
}
