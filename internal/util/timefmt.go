package util

import (
	"fmt"
	"math"
)

// FormatHMS renders seconds as H:MM:SS, rounded to the nearest second.
// Negative and non-finite inputs render as 0:00:00.
func FormatHMS(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}
	total := int64(math.Round(seconds))
	return fmt.Sprintf("%d:%02d:%02d", total/3600, (total/60)%60, total%60)
}

// FormatHMSMillis renders seconds as H:MM:SS.mmm. Milliseconds are
// truncated, not rounded, so the label never runs ahead of the playhead.
func FormatHMSMillis(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}
	ms := int64(math.Floor(seconds * 1000))
	total := ms / 1000
	return fmt.Sprintf("%d:%02d:%02d.%03d", total/3600, (total/60)%60, total%60, ms%1000)
}
