package timeline

import "math"

// DefaultTolerance is how close, in seconds, a query must be to a segment
// edge to grab it.
const DefaultTolerance = 0.1

// Zone classifies a query against one segment.
type Zone int

const (
	ZoneNone Zone = iota
	ZoneStart
	ZoneEnd
	ZoneBody
)

func (z Zone) String() string {
	switch z {
	case ZoneStart:
		return "start"
	case ZoneEnd:
		return "end"
	case ZoneBody:
		return "body"
	default:
		return "none"
	}
}

// IsBoundary reports whether z is a segment edge.
func (z Zone) IsBoundary() bool {
	return z == ZoneStart || z == ZoneEnd
}

// Hit is the result of classifying a time against the visible segments.
type Hit struct {
	Index int // display index, -1 for none
	ID    string
	Zone  Zone
}

// NoHit is the empty classification.
var NoHit = Hit{Index: -1, Zone: ZoneNone}

// Classify finds the first visible segment whose start edge, end edge or
// body contains t. Edges match when strictly closer than tolerance.
//
// Segments are assumed not to overlap; when they do, the first one in
// store order wins.
func Classify(t float64, visible []VisibleSegment, tolerance float64) Hit {
	for i := range visible {
		seg := &visible[i]
		dStart := math.Abs(t - seg.Start)
		dEnd := math.Abs(t - seg.End)
		switch {
		case dStart < tolerance:
			return Hit{Index: i, ID: seg.ID, Zone: ZoneStart}
		case dEnd < tolerance:
			return Hit{Index: i, ID: seg.ID, Zone: ZoneEnd}
		case t > seg.Start && t < seg.End:
			return Hit{Index: i, ID: seg.ID, Zone: ZoneBody}
		}
	}
	return NoHit
}

// Cursor is the pointer hint for a position on the zoom timeline.
type Cursor string

const (
	CursorDefault Cursor = "default"
	CursorCell    Cursor = "cell"
	CursorPointer Cursor = "pointer"
	CursorResize  Cursor = "ew-resize"
)

// CursorFor maps a hit to its cursor hint. Outside the segment band the
// default cursor applies.
func CursorFor(h Hit, inBand bool) Cursor {
	if !inBand {
		return CursorDefault
	}
	switch {
	case h.Zone.IsBoundary():
		return CursorResize
	case h.Zone == ZoneBody:
		return CursorPointer
	default:
		return CursorCell
	}
}
