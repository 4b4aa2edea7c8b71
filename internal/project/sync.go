package project

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"

	"github.com/Dicklesworthstone/tseg/internal/store"
)

// Seed loads the project's attributes and segments into an empty store.
func Seed(ctx context.Context, s store.Store, p *Project) error {
	if err := s.SetAttributes(ctx, p.StoreAttributes()); err != nil {
		return fmt.Errorf("seeding attributes: %w", err)
	}
	for _, seg := range p.StoreSegments() {
		if _, err := s.AddSegment(ctx, seg); err != nil {
			return fmt.Errorf("seeding segment %s: %w", seg.ID, err)
		}
	}
	return nil
}

// Snapshot captures the store's current state for fileID as a project.
// Media and duration are copied from base when it is non-nil.
func Snapshot(ctx context.Context, r store.Reader, fileID string, base *Project) (*Project, error) {
	attrs, err := r.Attributes(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading attributes: %w", err)
	}
	segs, err := r.SegmentsOverlapping(ctx, fileID, 0, math.MaxFloat64)
	if err != nil {
		return nil, fmt.Errorf("reading segments: %w", err)
	}
	p := &Project{FileID: fileID, Attributes: fromStoreAttributes(attrs)}
	if base != nil {
		p.Media = base.Media
		p.Duration = base.Duration
		p.path = base.path
	}
	p.Segments = make([]Segment, len(segs))
	for i, s := range segs {
		p.Segments[i] = fromStoreSegment(s)
	}
	return p, nil
}

// SyncResult counts the store edits Sync made.
type SyncResult struct {
	Added      int
	Removed    int
	Moved      int
	Values     int
	Attributes bool
}

// Changed reports whether anything was written.
func (r SyncResult) Changed() bool {
	return r.Added+r.Removed+r.Moved+r.Values > 0 || r.Attributes
}

// Sync reconciles the store with p: segments missing from p are removed,
// new ones added, and moved boundaries or changed values written. Every
// edit goes through the store so subscribers see ordinary change events.
// Individual failures are collected and do not stop the pass.
func Sync(ctx context.Context, s store.Store, p *Project) (SyncResult, error) {
	var res SyncResult
	var errs []error

	current, err := s.Attributes(ctx)
	if err != nil {
		return res, fmt.Errorf("reading attributes: %w", err)
	}
	wanted := p.StoreAttributes()
	if !sameAttributes(current, wanted) {
		if err := s.SetAttributes(ctx, wanted); err != nil {
			return res, fmt.Errorf("updating attributes: %w", err)
		}
		res.Attributes = true
	}

	existing, err := s.SegmentsOverlapping(ctx, p.FileID, 0, math.MaxFloat64)
	if err != nil {
		return res, fmt.Errorf("reading segments: %w", err)
	}
	byID := make(map[string]store.Segment, len(existing))
	for _, seg := range existing {
		byID[seg.ID] = seg
	}

	keep := make(map[string]bool, len(p.Segments))
	for _, want := range p.StoreSegments() {
		keep[want.ID] = true
		have, ok := byID[want.ID]
		if !ok {
			if _, err := s.AddSegment(ctx, want); err != nil {
				errs = append(errs, fmt.Errorf("adding %s: %w", want.ID, err))
				continue
			}
			res.Added++
			continue
		}

		if have.Start != want.Start || have.End != want.End {
			if err := moveSegment(ctx, s, p.FileID, have, want); err != nil {
				errs = append(errs, fmt.Errorf("moving %s: %w", want.ID, err))
			} else {
				res.Moved++
			}
		}
		for attrID, value := range want.Values {
			if have.Values[attrID] == value {
				continue
			}
			if err := s.UpdateAttributeValue(ctx, p.FileID, want.ID, attrID, value); err != nil {
				errs = append(errs, fmt.Errorf("setting %s.%s: %w", want.ID, attrID, err))
				continue
			}
			res.Values++
		}
	}

	for _, seg := range existing {
		if keep[seg.ID] {
			continue
		}
		if err := s.RemoveSegment(ctx, p.FileID, seg.ID); err != nil {
			errs = append(errs, fmt.Errorf("removing %s: %w", seg.ID, err))
			continue
		}
		res.Removed++
	}

	return res, errors.Join(errs...)
}

// moveSegment writes both boundaries in an order that never inverts the
// segment in between.
func moveSegment(ctx context.Context, s store.Writer, fileID string, have, want store.Segment) error {
	type edit struct {
		b store.Boundary
		t float64
	}
	edits := []edit{{store.BoundaryStart, want.Start}, {store.BoundaryEnd, want.End}}
	if want.Start >= have.End {
		edits[0], edits[1] = edits[1], edits[0]
	}
	for _, e := range edits {
		current := have.Start
		if e.b == store.BoundaryEnd {
			current = have.End
		}
		if current == e.t {
			continue
		}
		if err := s.UpdateSegmentBoundary(ctx, fileID, want.ID, e.b, e.t); err != nil {
			return err
		}
	}
	return nil
}

func sameAttributes(a, b []store.Attribute) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}
