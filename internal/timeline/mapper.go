// Package timeline implements the temporal segment engine: coordinate
// mapping between seconds and pixels, the sliding zoom window, segment
// hit-testing, the pointer interaction state machine and the playback
// rate policy.
package timeline

import (
	"math"
)

// OutOfRange is returned by TimeToCanvas for times outside the mapped span.
const OutOfRange = -1

// Mapper converts between seconds and pixels for one viewport.
//
// The track occupies [padding, width-padding) pixels. Two variants exist:
// the overview spans the whole media and clamps inverse mappings to the
// media bounds; the zoom variant spans the current Window and is unclamped.
type Mapper struct {
	start    float64
	end      float64
	width    int
	padding  int
	clamp    bool
	duration float64
}

// NewOverviewMapper maps [0, duration] onto a viewport of width pixels.
func NewOverviewMapper(duration float64, width, padding int) Mapper {
	return Mapper{
		start:    0,
		end:      duration,
		width:    width,
		padding:  padding,
		clamp:    true,
		duration: duration,
	}
}

// NewZoomMapper maps the window onto a viewport of width pixels.
func NewZoomMapper(w Window, width, padding int) Mapper {
	return Mapper{
		start:   w.Start,
		end:     w.End,
		width:   width,
		padding: padding,
	}
}

// Start returns the first mapped second.
func (m Mapper) Start() float64 { return m.start }

// End returns the last mapped second.
func (m Mapper) End() float64 { return m.end }

// Width returns the viewport width in pixels.
func (m Mapper) Width() int { return m.width }

// Padding returns the horizontal padding on each side of the track.
func (m Mapper) Padding() int { return m.padding }

// TrackWidth is the drawable width between the paddings, at least one pixel.
func (m Mapper) TrackWidth() int {
	w := m.width - 2*m.padding
	if w < 1 {
		return 1
	}
	return w
}

// SecondsPerPixel is the time covered by one pixel of track.
func (m Mapper) SecondsPerPixel() float64 {
	return (m.end - m.start) / float64(m.TrackWidth())
}

// TimeToCanvas returns the pixel column of t, or OutOfRange when t lies
// outside the mapped span.
func (m Mapper) TimeToCanvas(t float64) int {
	if t < m.start || t > m.end || m.end <= m.start {
		return OutOfRange
	}
	x := float64(m.padding) + float64(m.TrackWidth())*(t-m.start)/(m.end-m.start)
	return int(math.Floor(x))
}

// CanvasToTime returns the time at pixel column x. The overview clamps the
// result to [0, duration] so seeks never leave the media.
func (m Mapper) CanvasToTime(x int) float64 {
	t := m.start + (m.end-m.start)*float64(x-m.padding)/float64(m.TrackWidth())
	if m.clamp {
		return math.Max(0, math.Min(t, m.duration))
	}
	return t
}

// Contains reports whether pixel x lies on the track.
func (m Mapper) Contains(x int) bool {
	return x >= m.padding && x <= m.padding+m.TrackWidth()
}
