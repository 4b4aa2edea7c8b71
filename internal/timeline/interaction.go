package timeline

import (
	"fmt"

	"github.com/Dicklesworthstone/tseg/internal/store"
)

// StateKind enumerates the pointer interaction states.
type StateKind int

const (
	StateIdle StateKind = iota
	StateHovering
	StateSelected
	StateResizing
)

func (k StateKind) String() string {
	switch k {
	case StateHovering:
		return "hovering"
	case StateSelected:
		return "selected"
	case StateResizing:
		return "resizing"
	default:
		return "idle"
	}
}

// State is the single interaction state of a timeline. Segments are
// referenced by stable id; display indices are resolved when drawing.
type State struct {
	Kind      StateKind
	SegmentID string
	Zone      Zone           // Hovering only
	Boundary  store.Boundary // Resizing only
}

// Idle is the resting state.
var Idle = State{Kind: StateIdle}

func (s State) String() string {
	switch s.Kind {
	case StateHovering:
		return fmt.Sprintf("hovering(%s,%s)", s.SegmentID, s.Zone)
	case StateSelected:
		return fmt.Sprintf("selected(%s)", s.SegmentID)
	case StateResizing:
		return fmt.Sprintf("resizing(%s,%s)", s.SegmentID, s.Boundary)
	default:
		return "idle"
	}
}

// Commit is a boundary edit produced when a resize ends.
type Commit struct {
	SegmentID string
	Boundary  store.Boundary
	Time      float64
}

// Interaction is the select/resize state machine. It is not safe for
// concurrent use; all calls happen on the UI goroutine.
type Interaction struct {
	state State
}

// State returns the current state.
func (i *Interaction) State() State {
	return i.state
}

// SelectedID returns the selected segment id, if any.
func (i *Interaction) SelectedID() (string, bool) {
	if i.state.Kind == StateSelected {
		return i.state.SegmentID, true
	}
	return "", false
}

// PointerDown handles a press inside the segment band.
//
//	any      + boundary          -> Resizing(id, boundary)
//	Selected(id) + body(id)      -> Idle
//	any      + body(id)          -> Selected(id)
//	any      + none              -> unchanged
func (i *Interaction) PointerDown(h Hit) State {
	switch {
	case h.Zone.IsBoundary():
		b := store.BoundaryStart
		if h.Zone == ZoneEnd {
			b = store.BoundaryEnd
		}
		i.state = State{Kind: StateResizing, SegmentID: h.ID, Boundary: b}
	case h.Zone == ZoneBody:
		if i.state.Kind == StateSelected && i.state.SegmentID == h.ID {
			i.state = Idle
		} else {
			i.state = State{Kind: StateSelected, SegmentID: h.ID}
		}
	default:
		// Empty band space is reserved for creating segments.
		if i.state.Kind == StateHovering {
			i.state = Idle
		}
	}
	return i.state
}

// PointerMove updates hover feedback. Selected and Resizing are unchanged;
// a resize only writes on PointerUp.
func (i *Interaction) PointerMove(h Hit) State {
	switch i.state.Kind {
	case StateIdle, StateHovering:
		if h.Zone == ZoneNone {
			i.state = Idle
		} else {
			i.state = State{Kind: StateHovering, SegmentID: h.ID, Zone: h.Zone}
		}
	}
	return i.state
}

// PointerUp ends a resize at time t and returns the edit to commit.
// In any other state it does nothing.
func (i *Interaction) PointerUp(t float64) (Commit, bool) {
	if i.state.Kind != StateResizing {
		return Commit{}, false
	}
	c := Commit{SegmentID: i.state.SegmentID, Boundary: i.state.Boundary, Time: t}
	i.state = Idle
	return c, true
}

// Reset returns to Idle, as after a press outside the segment band.
func (i *Interaction) Reset() {
	i.state = Idle
}

// Reconcile returns to Idle when the referenced segment is no longer in
// the visible list. It reports whether the state changed.
func (i *Interaction) Reconcile(visible []VisibleSegment) bool {
	if i.state.Kind == StateIdle {
		return false
	}
	if IndexOf(visible, i.state.SegmentID) >= 0 {
		return false
	}
	i.state = Idle
	return true
}
