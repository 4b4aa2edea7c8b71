package timeline

import (
	"fmt"
	"strings"
)

// Mode is the user-selected playback policy.
type Mode int

const (
	ModeNormal Mode = iota
	ModeReview
	ModeAnnotation
)

var modeNames = map[Mode]string{
	ModeNormal:     "normal",
	ModeReview:     "review",
	ModeAnnotation: "annotation",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseMode parses a mode name, case-insensitively.
func ParseMode(s string) (Mode, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for m, name := range modeNames {
		if name == key {
			return m, nil
		}
	}
	return ModeNormal, fmt.Errorf("unknown playback mode %q: must be normal, review, or annotation", s)
}

const (
	// NormalRate is regular playback speed.
	NormalRate = 1.0
	// FastRate is the skim speed used by Review and Annotation modes.
	FastRate = 10.0
)

// RatePolicy maps a mode and segment overlap to a playback rate.
type RatePolicy struct {
	Fast float64
}

// DefaultRatePolicy uses FastRate.
var DefaultRatePolicy = RatePolicy{Fast: FastRate}

// Rate returns the playback multiplier.
//
//	Normal:     always 1
//	Review:     1 inside a segment, fast in the gaps
//	Annotation: fast inside a segment, 1 in the gaps
func (p RatePolicy) Rate(mode Mode, inside bool) float64 {
	fast := p.Fast
	if fast <= 0 {
		fast = FastRate
	}
	switch mode {
	case ModeReview:
		if inside {
			return NormalRate
		}
		return fast
	case ModeAnnotation:
		if inside {
			return fast
		}
		return NormalRate
	default:
		return NormalRate
	}
}

// Rate applies DefaultRatePolicy.
func Rate(mode Mode, inside bool) float64 {
	return DefaultRatePolicy.Rate(mode, inside)
}

// InsideAny reports whether t falls in any visible segment, bounds included.
// Segments outside the current window never count.
func InsideAny(t float64, visible []VisibleSegment) bool {
	for i := range visible {
		if t >= visible[i].Start && t <= visible[i].End {
			return true
		}
	}
	return false
}
