package store

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// ChangeKind names a store notification.
type ChangeKind string

const (
	SegmentAdded           ChangeKind = "segment_added"
	SegmentRemoved         ChangeKind = "segment_removed"
	SegmentBoundaryChanged ChangeKind = "segment_boundary_changed"
	AttributeChanged       ChangeKind = "attribute_changed"
)

// ChangeEvent is delivered to subscribers after a mutation has been applied.
type ChangeEvent struct {
	Kind        ChangeKind
	FileID      string
	SegmentID   string
	AttributeID string
}

// Notifier fans change events out to per-file subscribers.
//
// Publish never blocks: a subscriber whose buffer is full loses the event.
// Every event means "re-derive", so a dropped event is covered by the next one.
type Notifier struct {
	mu     sync.Mutex
	subs   map[uint64]*subscriber
	next   uint64
	buffer int

	dropped atomic.Int64
}

type subscriber struct {
	fileID string
	ch     chan ChangeEvent
}

// NewNotifier creates a notifier whose subscriber channels hold buffer events.
func NewNotifier(buffer int) *Notifier {
	if buffer < 1 {
		buffer = 64
	}
	return &Notifier{
		subs:   make(map[uint64]*subscriber),
		buffer: buffer,
	}
}

// Subscribe registers interest in fileID. An empty fileID receives every event.
func (n *Notifier) Subscribe(fileID string) (<-chan ChangeEvent, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.next
	n.next++
	sub := &subscriber{fileID: fileID, ch: make(chan ChangeEvent, n.buffer)}
	n.subs[id] = sub

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subs, id)
			n.mu.Unlock()
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

// Publish delivers ev to every matching subscriber.
func (n *Notifier) Publish(ev ChangeEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, sub := range n.subs {
		if sub.fileID != "" && sub.fileID != ev.FileID {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			d := n.dropped.Add(1)
			// Log the first drop and then every 1000.
			if d == 1 || d%1000 == 0 {
				slog.Default().Debug("store notifier dropped events (buffer full)", "dropped", d, "kind", ev.Kind)
			}
		}
	}
}

// Dropped returns how many events were discarded because of full buffers.
func (n *Notifier) Dropped() int64 {
	return n.dropped.Load()
}

// Subscribers returns the number of live subscriptions.
func (n *Notifier) Subscribers() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}
