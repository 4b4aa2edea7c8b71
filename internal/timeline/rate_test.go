package timeline

import "testing"

func TestRate_Matrix(t *testing.T) {
	tests := []struct {
		mode   Mode
		inside bool
		want   float64
	}{
		{ModeNormal, true, 1},
		{ModeNormal, false, 1},
		{ModeReview, true, 1},
		{ModeReview, false, 10},
		{ModeAnnotation, true, 10},
		{ModeAnnotation, false, 1},
	}
	for _, tc := range tests {
		if got := Rate(tc.mode, tc.inside); got != tc.want {
			t.Errorf("Rate(%s, inside=%v) = %v, want %v", tc.mode, tc.inside, got, tc.want)
		}
	}
}

func TestRatePolicy_CustomFastRate(t *testing.T) {
	p := RatePolicy{Fast: 4}
	if got := p.Rate(ModeReview, false); got != 4 {
		t.Errorf("Rate = %v, want 4", got)
	}
	if got := (RatePolicy{}).Rate(ModeAnnotation, true); got != FastRate {
		t.Errorf("zero policy Rate = %v, want %v", got, FastRate)
	}
}

func TestInsideAny(t *testing.T) {
	visible := visibleOf([2]float64{2, 4}, [2]float64{10, 15})
	tests := []struct {
		t    float64
		want bool
	}{
		{2, true},
		{4, true},
		{3, true},
		{5, false},
		{15, true},
		{15.01, false},
	}
	for _, tc := range tests {
		if got := InsideAny(tc.t, visible); got != tc.want {
			t.Errorf("InsideAny(%v) = %v, want %v", tc.t, got, tc.want)
		}
	}
	if InsideAny(3, nil) {
		t.Error("InsideAny with no visible segments must be false")
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{ModeNormal, ModeReview, ModeAnnotation} {
		got, err := ParseMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParseMode(%q) = %v, %v", m.String(), got, err)
		}
	}
	if got, err := ParseMode(" Review "); err != nil || got != ModeReview {
		t.Errorf("ParseMode is not case/space tolerant: %v, %v", got, err)
	}
	if _, err := ParseMode("turbo"); err == nil {
		t.Error("ParseMode(turbo) should fail")
	}
}
