package timeline

import "testing"

func TestClassify(t *testing.T) {
	visible := visibleOf([2]float64{2, 4}, [2]float64{10, 15})

	tests := []struct {
		name  string
		t     float64
		index int
		zone  Zone
	}{
		{"start edge exact", 10, 1, ZoneStart},
		{"just inside start tolerance", 10 + DefaultTolerance - 1e-6, 1, ZoneStart},
		{"just before start tolerance", 10 - DefaultTolerance + 1e-6, 1, ZoneStart},
		{"past start tolerance is body", 10 + DefaultTolerance + 1e-6, 1, ZoneBody},
		{"before start beyond tolerance is none", 10 - DefaultTolerance - 1e-6, -1, ZoneNone},
		{"end edge", 15.05, 1, ZoneEnd},
		{"body", 12.5, 1, ZoneBody},
		{"first segment", 3, 0, ZoneBody},
		{"gap", 7, -1, ZoneNone},
		{"after everything", 30, -1, ZoneNone},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := Classify(tc.t, visible, DefaultTolerance)
			if h.Index != tc.index || h.Zone != tc.zone {
				t.Errorf("Classify(%v) = (%d,%s), want (%d,%s)", tc.t, h.Index, h.Zone, tc.index, tc.zone)
			}
			if tc.index >= 0 && h.ID != visible[tc.index].ID {
				t.Errorf("Classify(%v).ID = %q, want %q", tc.t, h.ID, visible[tc.index].ID)
			}
		})
	}
}

func TestClassify_ExactToleranceIsNotBoundary(t *testing.T) {
	// Strict comparison: a distance equal to the tolerance does not grab the edge.
	visible := visibleOf([2]float64{0.5, 8})
	h := Classify(0.25, visible, 0.25)
	if h.Zone != ZoneNone {
		t.Errorf("distance == tolerance classified as %s, want none", h.Zone)
	}
	h = Classify(8.25, visible, 0.25)
	if h.Zone != ZoneNone {
		t.Errorf("distance == tolerance past end classified as %s, want none", h.Zone)
	}
}

func TestClassify_StartWinsOnShortSegment(t *testing.T) {
	// Both edges within tolerance: start is checked first.
	visible := visibleOf([2]float64{5, 5.1})
	if h := Classify(5.05, visible, DefaultTolerance); h.Zone != ZoneStart {
		t.Errorf("zone = %s, want start", h.Zone)
	}
}

func TestClassify_FirstMatchWins(t *testing.T) {
	// Overlapping segments are not resolved; store order decides.
	visible := visibleOf([2]float64{0, 10}, [2]float64{4, 6})
	h := Classify(5, visible, DefaultTolerance)
	if h.Index != 0 || h.Zone != ZoneBody {
		t.Errorf("Classify = (%d,%s), want (0,body)", h.Index, h.Zone)
	}
}

func TestClassify_Empty(t *testing.T) {
	if h := Classify(1, nil, DefaultTolerance); h != NoHit {
		t.Errorf("Classify on empty list = %+v, want NoHit", h)
	}
}

func TestCursorFor(t *testing.T) {
	tests := []struct {
		hit    Hit
		inBand bool
		want   Cursor
	}{
		{Hit{Index: 0, Zone: ZoneStart}, true, CursorResize},
		{Hit{Index: 0, Zone: ZoneEnd}, true, CursorResize},
		{Hit{Index: 0, Zone: ZoneBody}, true, CursorPointer},
		{NoHit, true, CursorCell},
		{Hit{Index: 0, Zone: ZoneBody}, false, CursorDefault},
		{NoHit, false, CursorDefault},
	}
	for _, tc := range tests {
		if got := CursorFor(tc.hit, tc.inBand); got != tc.want {
			t.Errorf("CursorFor(%s, %v) = %s, want %s", tc.hit.Zone, tc.inBand, got, tc.want)
		}
	}
}
