package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process Store. Segments keep their insertion order per file.
type Memory struct {
	mu       sync.RWMutex
	attrs    []Attribute
	files    map[string]*fileSegments
	notifier *Notifier

	latency  time.Duration
	writeErr error
	newID    func() string
}

type fileSegments struct {
	order []string
	byID  map[string]*Segment
}

// MemoryOption configures a Memory store.
type MemoryOption func(*Memory)

// WithLatency delays every write by d, honouring context cancellation.
func WithLatency(d time.Duration) MemoryOption {
	return func(m *Memory) { m.latency = d }
}

// WithIDGenerator overrides the id source for segments added without an id.
func WithIDGenerator(fn func() string) MemoryOption {
	return func(m *Memory) { m.newID = fn }
}

// WithNotifier shares an existing notifier.
func WithNotifier(n *Notifier) MemoryOption {
	return func(m *Memory) { m.notifier = n }
}

// NewMemory creates an empty in-memory store.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		files: make(map[string]*fileSegments),
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.notifier == nil {
		m.notifier = NewNotifier(64)
	}
	return m
}

// SetWriteError makes every subsequent write fail with err (nil restores writes).
func (m *Memory) SetWriteError(err error) {
	m.mu.Lock()
	m.writeErr = err
	m.mu.Unlock()
}

// Notifier exposes the notifier used for change events.
func (m *Memory) Notifier() *Notifier {
	return m.notifier
}

// Subscribe implements Store.
func (m *Memory) Subscribe(fileID string) (<-chan ChangeEvent, func()) {
	return m.notifier.Subscribe(fileID)
}

// SegmentsOverlapping implements Reader.
func (m *Memory) SegmentsOverlapping(ctx context.Context, fileID string, t0, t1 float64) ([]Segment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	fs, ok := m.files[fileID]
	if !ok {
		return nil, nil
	}
	var out []Segment
	for _, id := range fs.order {
		seg := fs.byID[id]
		if seg.Overlaps(t0, t1) {
			out = append(out, m.withLabel(*seg))
		}
	}
	return out, nil
}

// Segment implements Reader.
func (m *Memory) Segment(ctx context.Context, fileID, segmentID string) (Segment, error) {
	if err := ctx.Err(); err != nil {
		return Segment{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	seg, err := m.lookup(fileID, segmentID)
	if err != nil {
		return Segment{}, err
	}
	return m.withLabel(*seg), nil
}

// Attributes implements Reader.
func (m *Memory) Attributes(ctx context.Context) ([]Attribute, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Attribute(nil), m.attrs...), nil
}

// SetAttributes implements Writer. Existing values of removed attributes are kept
// but no longer shown.
func (m *Memory) SetAttributes(ctx context.Context, attrs []Attribute) error {
	if err := m.beginWrite(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	m.attrs = append([]Attribute(nil), attrs...)
	m.mu.Unlock()
	return nil
}

// AddSegment implements Writer.
func (m *Memory) AddSegment(ctx context.Context, seg Segment) (Segment, error) {
	if err := m.beginWrite(ctx); err != nil {
		return Segment{}, err
	}
	if err := ValidateBounds(seg.Start, seg.End); err != nil {
		return Segment{}, err
	}

	m.mu.Lock()
	if seg.ID == "" {
		seg.ID = m.newID()
	}
	fs, ok := m.files[seg.FileID]
	if !ok {
		fs = &fileSegments{byID: make(map[string]*Segment)}
		m.files[seg.FileID] = fs
	}
	if _, exists := fs.byID[seg.ID]; exists {
		m.mu.Unlock()
		return Segment{}, fmt.Errorf("%w: %s", ErrDuplicateSegment, seg.ID)
	}
	stored := seg.Clone()
	if stored.Values == nil {
		stored.Values = make(map[string]string)
	}
	fs.order = append(fs.order, stored.ID)
	fs.byID[stored.ID] = &stored
	out := m.withLabel(stored)
	m.mu.Unlock()

	m.notifier.Publish(ChangeEvent{Kind: SegmentAdded, FileID: seg.FileID, SegmentID: seg.ID})
	return out, nil
}

// RemoveSegment implements Writer.
func (m *Memory) RemoveSegment(ctx context.Context, fileID, segmentID string) error {
	if err := m.beginWrite(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	fs, ok := m.files[fileID]
	if !ok || fs.byID[segmentID] == nil {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s/%s", ErrNotFound, fileID, segmentID)
	}
	delete(fs.byID, segmentID)
	for i, id := range fs.order {
		if id == segmentID {
			fs.order = append(fs.order[:i], fs.order[i+1:]...)
			break
		}
	}
	m.mu.Unlock()

	m.notifier.Publish(ChangeEvent{Kind: SegmentRemoved, FileID: fileID, SegmentID: segmentID})
	return nil
}

// UpdateSegmentBoundary implements Writer.
func (m *Memory) UpdateSegmentBoundary(ctx context.Context, fileID, segmentID string, b Boundary, t float64) error {
	if err := m.beginWrite(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	seg, err := m.lookup(fileID, segmentID)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	start, end := ApplyBoundary(seg.Start, seg.End, b, t)
	if err := ValidateBounds(start, end); err != nil {
		m.mu.Unlock()
		return err
	}
	seg.Start, seg.End = start, end
	m.mu.Unlock()

	m.notifier.Publish(ChangeEvent{Kind: SegmentBoundaryChanged, FileID: fileID, SegmentID: segmentID})
	return nil
}

// UpdateAttributeValue implements Writer.
func (m *Memory) UpdateAttributeValue(ctx context.Context, fileID, segmentID, attributeID, value string) error {
	if err := m.beginWrite(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	seg, err := m.lookup(fileID, segmentID)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	attr, ok := m.attribute(attributeID)
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownAttribute, attributeID)
	}
	if !attr.Accepts(value) {
		m.mu.Unlock()
		return fmt.Errorf("attribute %s does not accept %q", attr.Name, value)
	}
	seg.Values[attributeID] = value
	m.mu.Unlock()

	m.notifier.Publish(ChangeEvent{Kind: AttributeChanged, FileID: fileID, SegmentID: segmentID, AttributeID: attributeID})
	return nil
}

// beginWrite applies the configured latency and injected failure.
func (m *Memory) beginWrite(ctx context.Context) error {
	if m.latency > 0 {
		timer := time.NewTimer(m.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writeErr
}

func (m *Memory) lookup(fileID, segmentID string) (*Segment, error) {
	fs, ok := m.files[fileID]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, fileID, segmentID)
	}
	seg, ok := fs.byID[segmentID]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, fileID, segmentID)
	}
	return seg, nil
}

func (m *Memory) attribute(id string) (Attribute, bool) {
	for _, a := range m.attrs {
		if a.ID == id {
			return a, true
		}
	}
	return Attribute{}, false
}

func (m *Memory) withLabel(seg Segment) Segment {
	out := seg.Clone()
	out.Label = LabelFor(m.attrs, out.Values)
	return out
}

var _ Store = (*Memory)(nil)
