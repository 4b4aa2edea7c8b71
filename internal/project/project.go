// Package project reads and writes YAML project files. A project names one
// media file, the attributes every segment carries, and the segments
// themselves. It seeds a store at startup and is reconciled into the store
// when the file changes on disk.
package project

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/Dicklesworthstone/tseg/internal/store"
	"github.com/Dicklesworthstone/tseg/internal/util"
)

// ErrInvalidProject is returned when a project file is malformed.
var ErrInvalidProject = errors.New("invalid project")

// Project is the on-disk description of one annotated media file.
type Project struct {
	FileID string `yaml:"file_id"`
	// Media is a playlist path, relative to the project file.
	Media string `yaml:"media,omitempty"`
	// Duration in seconds, used when no media is given or it cannot be probed.
	Duration   float64     `yaml:"duration,omitempty"`
	Attributes []Attribute `yaml:"attributes"`
	Segments   []Segment   `yaml:"segments"`

	path string
}

// Attribute is the YAML form of store.Attribute.
type Attribute struct {
	ID      string   `yaml:"id"`
	Name    string   `yaml:"name,omitempty"`
	Type    string   `yaml:"type"`
	Default string   `yaml:"default,omitempty"`
	Options []Option `yaml:"options,omitempty"`
}

// Option is one choice of a select attribute.
type Option struct {
	ID    string `yaml:"id"`
	Label string `yaml:"label,omitempty"`
}

// Segment is the YAML form of store.Segment.
type Segment struct {
	ID     string            `yaml:"id,omitempty"`
	Start  float64           `yaml:"start"`
	End    float64           `yaml:"end"`
	Values map[string]string `yaml:"values,omitempty"`
}

// Load reads and validates the project at path. Segments without an id
// get a fresh UUID.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading project: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	p.path = path
	return p, nil
}

// Parse decodes and validates a project document.
func Parse(data []byte) (*Project, error) {
	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProject, err)
	}
	if err := p.normalize(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Project) normalize() error {
	p.FileID = strings.TrimSpace(p.FileID)
	if p.FileID == "" {
		return fmt.Errorf("%w: file_id is required", ErrInvalidProject)
	}
	if p.Duration < 0 || math.IsNaN(p.Duration) {
		return fmt.Errorf("%w: duration %v is negative", ErrInvalidProject, p.Duration)
	}

	attrIDs := make(map[string]bool, len(p.Attributes))
	for i, a := range p.Attributes {
		if a.ID == "" {
			return fmt.Errorf("%w: attribute %d has no id", ErrInvalidProject, i)
		}
		if attrIDs[a.ID] {
			return fmt.Errorf("%w: duplicate attribute %q", ErrInvalidProject, a.ID)
		}
		attrIDs[a.ID] = true
		if a.Type == "" {
			p.Attributes[i].Type = store.KindText
		}
	}

	segIDs := make(map[string]bool, len(p.Segments))
	seen := make(map[string]int)
	for i := range p.Segments {
		s := &p.Segments[i]
		if s.ID == "" {
			key := fmt.Sprintf("%s|%g|%g", p.FileID, s.Start, s.End)
			s.ID = derivedID(key, seen[key])
			seen[key]++
		}
		if segIDs[s.ID] {
			return fmt.Errorf("%w: duplicate segment %q", ErrInvalidProject, s.ID)
		}
		segIDs[s.ID] = true
		if err := store.ValidateBounds(s.Start, s.End); err != nil {
			return fmt.Errorf("%w: segment %q: %v", ErrInvalidProject, s.ID, err)
		}
		if p.Duration > 0 && s.End > p.Duration {
			return fmt.Errorf("%w: segment %q ends at %.3f after duration %.3f", ErrInvalidProject, s.ID, s.End, p.Duration)
		}
	}
	return nil
}

// segmentNamespace scopes the ids derived for unnamed segments.
var segmentNamespace = uuid.MustParse("6f1c2d7e-3b4a-5c8d-9e0f-a1b2c3d4e5f6")

// derivedID names an unnamed segment by its file and interval, so reloading
// an unchanged file yields the same ids. n separates identical intervals.
func derivedID(key string, n int) string {
	return uuid.NewSHA1(segmentNamespace, []byte(fmt.Sprintf("%s|%d", key, n))).String()
}

// CheckDuration reports the first segment ending after d, the media
// length actually resolved for the project.
func (p *Project) CheckDuration(d float64) error {
	for _, s := range p.Segments {
		if s.End > d {
			return fmt.Errorf("%w: segment %q ends at %.3f after media duration %.3f", ErrInvalidProject, s.ID, s.End, d)
		}
	}
	return nil
}

// Path returns the file the project was loaded from, if any.
func (p *Project) Path() string { return p.path }

// MediaPath resolves Media relative to the project file.
func (p *Project) MediaPath() string {
	if p.Media == "" || filepath.IsAbs(p.Media) || p.path == "" {
		return p.Media
	}
	return filepath.Join(filepath.Dir(p.path), p.Media)
}

// Save writes the project to path atomically.
func (p *Project) Save(path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding project: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("saving project: %w", err)
	}
	p.path = path
	return nil
}

// StoreAttributes converts the attribute list. Unrecognised types become
// store.Unknown so they can be shown read-only.
func (p *Project) StoreAttributes() []store.Attribute {
	out := make([]store.Attribute, len(p.Attributes))
	for i, a := range p.Attributes {
		name := a.Name
		if name == "" {
			name = a.ID
		}
		var kind store.Kind
		switch strings.ToLower(a.Type) {
		case store.KindText:
			kind = store.Text{Default: a.Default}
		case store.KindSelect:
			opts := make([]store.Option, len(a.Options))
			for j, o := range a.Options {
				label := o.Label
				if label == "" {
					label = o.ID
				}
				opts[j] = store.Option{ID: o.ID, Label: label}
			}
			kind = store.Select{Options: opts, Default: a.Default}
		default:
			kind = store.Unknown{Type: a.Type}
		}
		out[i] = store.Attribute{ID: a.ID, Name: name, Kind: kind}
	}
	return out
}

// StoreSegments converts the segment list for the project's file.
func (p *Project) StoreSegments() []store.Segment {
	out := make([]store.Segment, len(p.Segments))
	for i, s := range p.Segments {
		values := make(map[string]string, len(s.Values))
		for k, v := range s.Values {
			values[k] = v
		}
		out[i] = store.Segment{ID: s.ID, FileID: p.FileID, Start: s.Start, End: s.End, Values: values}
	}
	return out
}

func fromStoreAttributes(attrs []store.Attribute) []Attribute {
	out := make([]Attribute, len(attrs))
	for i, a := range attrs {
		pa := Attribute{ID: a.ID, Name: a.Name, Type: store.KindName(a.Kind)}
		switch k := a.Kind.(type) {
		case store.Text:
			pa.Default = k.Default
		case store.Select:
			pa.Default = k.Default
			for _, o := range k.Options {
				pa.Options = append(pa.Options, Option{ID: o.ID, Label: o.Label})
			}
		}
		out[i] = pa
	}
	return out
}

func fromStoreSegment(s store.Segment) Segment {
	var values map[string]string
	if len(s.Values) > 0 {
		values = make(map[string]string, len(s.Values))
		for k, v := range s.Values {
			values[k] = v
		}
	}
	return Segment{ID: s.ID, Start: s.Start, End: s.End, Values: values}
}
