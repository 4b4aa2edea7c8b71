package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededMemory(t *testing.T) *Memory {
	t.Helper()
	n := 0
	m := NewMemory(WithIDGenerator(func() string {
		n++
		return "seg-" + string(rune('a'+n-1))
	}))
	ctx := context.Background()
	require.NoError(t, m.SetAttributes(ctx, []Attribute{
		{ID: "action", Name: "Action", Kind: Select{Options: []Option{{ID: "run", Label: "Run"}, {ID: "walk", Label: "Walk"}}, Default: "walk"}},
		{ID: "note", Name: "Note", Kind: Text{}},
	}))
	for _, iv := range [][2]float64{{10, 15}, {2, 4}, {30, 40}} {
		_, err := m.AddSegment(ctx, Segment{FileID: "f1", Start: iv[0], End: iv[1]})
		require.NoError(t, err)
	}
	return m
}

func TestMemory_SegmentsOverlappingKeepsInsertionOrder(t *testing.T) {
	m := seededMemory(t)

	segs, err := m.SegmentsOverlapping(context.Background(), "f1", 0, 20)
	require.NoError(t, err)
	require.Len(t, segs, 2)
	assert.Equal(t, "seg-a", segs[0].ID)
	assert.Equal(t, "seg-b", segs[1].ID)

	none, err := m.SegmentsOverlapping(context.Background(), "missing", 0, 100)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemory_SegmentsOverlappingIncludesPartial(t *testing.T) {
	m := seededMemory(t)

	segs, err := m.SegmentsOverlapping(context.Background(), "f1", 12, 35)
	require.NoError(t, err)
	require.Len(t, segs, 2)
	assert.Equal(t, 10.0, segs[0].Start)
	assert.Equal(t, 30.0, segs[1].Start)
}

func TestMemory_UpdateSegmentBoundary(t *testing.T) {
	m := seededMemory(t)
	ctx := context.Background()
	events, cancel := m.Subscribe("f1")
	defer cancel()

	require.NoError(t, m.UpdateSegmentBoundary(ctx, "f1", "seg-a", BoundaryStart, 5))
	seg, err := m.Segment(ctx, "f1", "seg-a")
	require.NoError(t, err)
	assert.Equal(t, 5.0, seg.Start)
	assert.Equal(t, 15.0, seg.End)

	select {
	case ev := <-events:
		assert.Equal(t, SegmentBoundaryChanged, ev.Kind)
		assert.Equal(t, "seg-a", ev.SegmentID)
	case <-time.After(time.Second):
		t.Fatal("expected boundary change notification")
	}
}

func TestMemory_UpdateSegmentBoundaryRejectsInversion(t *testing.T) {
	m := seededMemory(t)
	ctx := context.Background()

	err := m.UpdateSegmentBoundary(ctx, "f1", "seg-a", BoundaryEnd, 9)
	assert.ErrorIs(t, err, ErrInvalidBoundary)

	err = m.UpdateSegmentBoundary(ctx, "f1", "seg-b", BoundaryStart, -1)
	assert.ErrorIs(t, err, ErrInvalidBoundary)

	err = m.UpdateSegmentBoundary(ctx, "f1", "nope", BoundaryStart, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	seg, err := m.Segment(ctx, "f1", "seg-a")
	require.NoError(t, err)
	assert.Equal(t, 15.0, seg.End, "rejected write must not apply")
}

func TestMemory_UpdateAttributeValue(t *testing.T) {
	m := seededMemory(t)
	ctx := context.Background()

	require.NoError(t, m.UpdateAttributeValue(ctx, "f1", "seg-a", "action", "run"))
	seg, err := m.Segment(ctx, "f1", "seg-a")
	require.NoError(t, err)
	assert.Equal(t, "run", seg.Label, "label is the first attribute value")

	assert.Error(t, m.UpdateAttributeValue(ctx, "f1", "seg-a", "action", "fly"))
	assert.ErrorIs(t, m.UpdateAttributeValue(ctx, "f1", "seg-a", "color", "red"), ErrUnknownAttribute)
	require.NoError(t, m.UpdateAttributeValue(ctx, "f1", "seg-a", "note", "anything goes"))
}

func TestMemory_WriteFailureLeavesStoreUntouched(t *testing.T) {
	m := seededMemory(t)
	ctx := context.Background()
	boom := errors.New("disk full")
	m.SetWriteError(boom)

	err := m.UpdateSegmentBoundary(ctx, "f1", "seg-a", BoundaryStart, 11)
	assert.ErrorIs(t, err, boom)

	seg, err := m.Segment(ctx, "f1", "seg-a")
	require.NoError(t, err)
	assert.Equal(t, 10.0, seg.Start)

	m.SetWriteError(nil)
	assert.NoError(t, m.UpdateSegmentBoundary(ctx, "f1", "seg-a", BoundaryStart, 11))
}

func TestMemory_LatencyHonoursCancellation(t *testing.T) {
	m := NewMemory(WithLatency(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.RemoveSegment(ctx, "f1", "x")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemory_AddAndRemove(t *testing.T) {
	m := seededMemory(t)
	ctx := context.Background()

	_, err := m.AddSegment(ctx, Segment{ID: "seg-a", FileID: "f1", Start: 50, End: 60})
	assert.ErrorIs(t, err, ErrDuplicateSegment)

	_, err = m.AddSegment(ctx, Segment{FileID: "f1", Start: 60, End: 50})
	assert.ErrorIs(t, err, ErrInvalidBoundary)

	require.NoError(t, m.RemoveSegment(ctx, "f1", "seg-b"))
	segs, err := m.SegmentsOverlapping(ctx, "f1", 0, 100)
	require.NoError(t, err)
	require.Len(t, segs, 2)
	assert.Equal(t, "seg-a", segs[0].ID)
	assert.Equal(t, "seg-c", segs[1].ID)

	assert.ErrorIs(t, m.RemoveSegment(ctx, "f1", "seg-b"), ErrNotFound)
}

func TestNotifier_FiltersByFileAndDrops(t *testing.T) {
	n := NewNotifier(1)
	f1, cancel1 := n.Subscribe("f1")
	all, cancelAll := n.Subscribe("")
	defer cancelAll()

	n.Publish(ChangeEvent{Kind: SegmentAdded, FileID: "f2"})
	n.Publish(ChangeEvent{Kind: SegmentAdded, FileID: "f1"})

	ev := <-f1
	assert.Equal(t, "f1", ev.FileID)
	ev = <-all
	assert.Equal(t, "f2", ev.FileID, "wildcard subscriber keeps the first event")
	assert.Equal(t, int64(1), n.Dropped(), "wildcard buffer of 1 drops the second event")

	cancel1()
	cancel1()
	_, open := <-f1
	assert.False(t, open)
	assert.Equal(t, 1, n.Subscribers())
}
