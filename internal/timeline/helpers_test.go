package timeline

import (
	"context"
	"sync"
	"testing"

	"github.com/Dicklesworthstone/tseg/internal/store"
)

// fakeMedia is a media surface whose time only moves when the test says so.
type fakeMedia struct {
	now      float64
	duration float64
	rate     float64
	rateSets int
}

func newFakeMedia(duration float64) *fakeMedia {
	return &fakeMedia{duration: duration, rate: 1}
}

func (m *fakeMedia) CurrentTime() float64 { return m.now }
func (m *fakeMedia) SetCurrentTime(t float64) { m.now = t }
func (m *fakeMedia) Duration() float64 { return m.duration }
func (m *fakeMedia) PlaybackRate() float64 { return m.rate }
func (m *fakeMedia) SetPlaybackRate(r float64) {
	m.rate = r
	m.rateSets++
}

// boundaryWrite records one UpdateSegmentBoundary call.
type boundaryWrite struct {
	SegmentID string
	Boundary  store.Boundary
	Time      float64
}

// recordingStore wraps a Memory store and records boundary writes.
type recordingStore struct {
	*store.Memory
	mu      sync.Mutex
	writes  []boundaryWrite
	queries int
	failGet error
}

func (r *recordingStore) UpdateSegmentBoundary(ctx context.Context, fileID, segmentID string, b store.Boundary, t float64) error {
	r.mu.Lock()
	r.writes = append(r.writes, boundaryWrite{SegmentID: segmentID, Boundary: b, Time: t})
	r.mu.Unlock()
	return r.Memory.UpdateSegmentBoundary(ctx, fileID, segmentID, b, t)
}

func (r *recordingStore) SegmentsOverlapping(ctx context.Context, fileID string, t0, t1 float64) ([]store.Segment, error) {
	r.queries++
	if r.failGet != nil {
		return nil, r.failGet
	}
	return r.Memory.SegmentsOverlapping(ctx, fileID, t0, t1)
}

// newTestStore creates a store holding the given intervals for file "f1",
// with ids s0, s1, ...
func newTestStore(t *testing.T, intervals ...[2]float64) *recordingStore {
	t.Helper()
	mem := store.NewMemory()
	ctx := context.Background()
	if err := mem.SetAttributes(ctx, []store.Attribute{{ID: "label", Name: "Label", Kind: store.Text{}}}); err != nil {
		t.Fatal(err)
	}
	for i, iv := range intervals {
		_, err := mem.AddSegment(ctx, store.Segment{
			ID:     segID(i),
			FileID: "f1",
			Start:  iv[0],
			End:    iv[1],
			Values: map[string]string{"label": segID(i)},
		})
		if err != nil {
			t.Fatalf("seed segment %d: %v", i, err)
		}
	}
	return &recordingStore{Memory: mem}
}

func segID(i int) string {
	return "s" + string(rune('0'+i))
}

// visibleOf builds a visible list directly, bypassing the store.
func visibleOf(intervals ...[2]float64) []VisibleSegment {
	out := make([]VisibleSegment, len(intervals))
	for i, iv := range intervals {
		out[i] = VisibleSegment{
			Segment: store.Segment{ID: segID(i), Start: iv[0], End: iv[1]},
			Index:   i,
		}
	}
	return out
}
