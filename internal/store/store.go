// Package store defines the segment metadata store consumed by the timeline
// engine, together with an in-memory implementation and change notifications.
package store

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a segment or file is unknown to the store.
	ErrNotFound = errors.New("segment not found")
	// ErrInvalidBoundary is returned when a boundary write would break start < end
	// or move a segment before zero.
	ErrInvalidBoundary = errors.New("invalid segment boundary")
	// ErrUnknownAttribute is returned for writes against an undefined attribute.
	ErrUnknownAttribute = errors.New("unknown attribute")
	// ErrDuplicateSegment is returned when adding a segment whose id already exists.
	ErrDuplicateSegment = errors.New("duplicate segment id")
)

// Boundary identifies one edge of a segment.
type Boundary int

const (
	BoundaryStart Boundary = iota
	BoundaryEnd
)

func (b Boundary) String() string {
	if b == BoundaryEnd {
		return "end"
	}
	return "start"
}

// Segment is one annotated time interval of a media file.
type Segment struct {
	ID     string
	FileID string
	Start  float64 // seconds
	End    float64 // seconds
	Label  string  // value of the first attribute, may be empty
	Values map[string]string
}

// Duration returns the segment length in seconds.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Overlaps reports whether the segment intersects [t0, t1].
func (s Segment) Overlaps(t0, t1 float64) bool {
	return s.Start <= t1 && s.End >= t0
}

// Clone returns a copy that shares no maps with s.
func (s Segment) Clone() Segment {
	out := s
	if s.Values != nil {
		out.Values = make(map[string]string, len(s.Values))
		for k, v := range s.Values {
			out.Values[k] = v
		}
	}
	return out
}

// ValidateBounds checks the ordering invariant of a segment interval.
func ValidateBounds(start, end float64) error {
	if start < 0 {
		return fmt.Errorf("%w: start %.3f is negative", ErrInvalidBoundary, start)
	}
	if start >= end {
		return fmt.Errorf("%w: start %.3f must be before end %.3f", ErrInvalidBoundary, start, end)
	}
	return nil
}

// ApplyBoundary returns the interval after moving boundary b to t.
func ApplyBoundary(start, end float64, b Boundary, t float64) (float64, float64) {
	if b == BoundaryEnd {
		return start, t
	}
	return t, end
}

// LabelFor derives a segment label: the value of the first attribute.
func LabelFor(attrs []Attribute, values map[string]string) string {
	if len(attrs) == 0 {
		return ""
	}
	return values[attrs[0].ID]
}

// Reader is the read side of the store used by the sliding window.
type Reader interface {
	// SegmentsOverlapping returns the segments of fileID that intersect
	// [t0, t1], in the store's stable insertion order.
	SegmentsOverlapping(ctx context.Context, fileID string, t0, t1 float64) ([]Segment, error)
	Segment(ctx context.Context, fileID, segmentID string) (Segment, error)
	Attributes(ctx context.Context) ([]Attribute, error)
}

// Writer is the mutation side of the store. Every call either applies
// completely and emits a change notification, or returns an error and
// leaves the store untouched.
type Writer interface {
	UpdateSegmentBoundary(ctx context.Context, fileID, segmentID string, b Boundary, t float64) error
	UpdateAttributeValue(ctx context.Context, fileID, segmentID, attributeID, value string) error
	AddSegment(ctx context.Context, seg Segment) (Segment, error)
	RemoveSegment(ctx context.Context, fileID, segmentID string) error
	SetAttributes(ctx context.Context, attrs []Attribute) error
}

// Store is the full metadata store surface.
type Store interface {
	Reader
	Writer
	// Subscribe returns a channel of change events for fileID and a function
	// that cancels the subscription and closes the channel.
	Subscribe(fileID string) (<-chan ChangeEvent, func())
}
