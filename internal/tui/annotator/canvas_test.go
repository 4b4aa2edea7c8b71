package annotator

import (
	"strings"
	"testing"
	"time"
)

func TestCanvas_TextAndClipping(t *testing.T) {
	c := newCanvas(10, 2)
	end := c.text(8, 0, "abcd", cellStyle{})
	if got := c.plain(0); got != "        ab" {
		t.Errorf("row 0 = %q", got)
	}
	if end != 10 {
		t.Errorf("text returned column %d, want 10", end)
	}
	c.set(-1, 0, 'x', cellStyle{})
	c.set(3, 5, 'x', cellStyle{})
	if strings.Contains(c.plain(0)+c.plain(1), "x") {
		t.Error("out of bounds writes landed on the grid")
	}
}

func TestCanvas_WideRunes(t *testing.T) {
	c := newCanvas(6, 1)
	c.text(0, 0, "日本x", cellStyle{})
	if got := c.plain(0); got != "日本x " {
		t.Errorf("row = %q", got)
	}
	c2 := newCanvas(3, 1)
	c2.text(0, 0, "日本", cellStyle{})
	if got := c2.plain(0); got != "日 " {
		t.Errorf("a wide rune that does not fit must be dropped, got %q", got)
	}
}

func TestCanvas_Centered(t *testing.T) {
	c := newCanvas(20, 1)
	c.centered(10, 0, "abcde", cellStyle{})
	if got := c.plain(0); got != "        abcde       " {
		t.Errorf("centred = %q", got)
	}
	c = newCanvas(20, 1)
	c.centered(19, 0, "abcde", cellStyle{})
	if got := c.plain(0); !strings.HasSuffix(got, "abcde") {
		t.Errorf("right edge = %q", got)
	}
	c = newCanvas(20, 1)
	c.centered(0, 0, "abcde", cellStyle{})
	if got := c.plain(0); !strings.HasPrefix(got, "abcde") {
		t.Errorf("left edge = %q", got)
	}
}

func TestCanvas_LinesPlainStyle(t *testing.T) {
	c := newCanvas(5, 2)
	c.hline(1, 3, 1, '─', cellStyle{})
	lines := c.lines()
	if len(lines) != 2 || lines[1] != " ─── " {
		t.Errorf("lines = %q", lines)
	}
}

func TestFrameLoop_Generations(t *testing.T) {
	l := NewFrameLoop(0)
	if l.Interval() != DefaultFrameInterval {
		t.Errorf("interval = %v, want default", l.Interval())
	}
	if l.Next() != nil {
		t.Error("stopped loop scheduled a tick")
	}

	if l.Start() == nil {
		t.Fatal("Start returned no tick")
	}
	first := FrameMsg{gen: l.gen}
	if !l.Accept(first) {
		t.Error("tick of the live generation rejected")
	}

	l.Stop()
	if l.Accept(first) || l.Running() {
		t.Error("tick accepted after Stop")
	}

	l.Start()
	if l.Accept(first) {
		t.Error("tick from a previous run accepted after restart")
	}
	if !l.Accept(FrameMsg{gen: l.gen}) {
		t.Error("tick of the restarted loop rejected")
	}
}

func TestFrameLoop_TickCarriesGeneration(t *testing.T) {
	l := NewFrameLoop(time.Millisecond)
	cmd := l.Start()
	msg, ok := cmd().(FrameMsg)
	if !ok {
		t.Fatalf("tick produced %T", cmd())
	}
	if !l.Accept(msg) {
		t.Error("scheduled tick not accepted")
	}
}

func TestZoomLabelStep(t *testing.T) {
	tests := []struct {
		pps  float64
		want float64
	}{
		{10, 1},
		{5, 2},
		{2, 5},
		{0.5, 30},
		{0.01, 1800},
	}
	for _, tc := range tests {
		if got := zoomLabelStep(tc.pps); got != tc.want {
			t.Errorf("zoomLabelStep(%v) = %v, want %v", tc.pps, got, tc.want)
		}
	}
}

func TestLayout_Regions(t *testing.T) {
	l := newLayout(2)
	tests := []struct {
		y    int
		want region
	}{
		{l.header, regionNone},
		{l.overviewLabels, regionOverview},
		{l.overviewTrack, regionOverview},
		{3, regionNone},
		{l.zoomLabels, regionTicks},
		{l.zoomTicks, regionTicks},
		{l.bandLabels, regionBand},
		{l.bandBottom, regionBand},
		{l.below, regionBelow},
		{l.below + 1, regionNone},
	}
	for _, tc := range tests {
		if got := l.regionAt(tc.y); got != tc.want {
			t.Errorf("regionAt(%d) = %d, want %d", tc.y, got, tc.want)
		}
	}
	if l.height() != 10 {
		t.Errorf("height = %d, want 10", l.height())
	}
}
