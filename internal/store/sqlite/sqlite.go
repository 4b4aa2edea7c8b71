// Package sqlite provides a durable segment store backed by SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/Dicklesworthstone/tseg/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS attributes (
	id       TEXT PRIMARY KEY,
	name     TEXT NOT NULL,
	kind     TEXT NOT NULL,
	default_value TEXT NOT NULL DEFAULT '',
	position INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS attribute_options (
	attribute_id TEXT NOT NULL,
	option_id    TEXT NOT NULL,
	label        TEXT NOT NULL,
	position     INTEGER NOT NULL,
	PRIMARY KEY (attribute_id, option_id)
);
CREATE TABLE IF NOT EXISTS segments (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL,
	file_id    TEXT NOT NULL,
	start_time REAL NOT NULL,
	end_time   REAL NOT NULL,
	UNIQUE (file_id, id)
);
CREATE INDEX IF NOT EXISTS idx_segments_file ON segments(file_id, start_time);
CREATE TABLE IF NOT EXISTS segment_values (
	file_id      TEXT NOT NULL,
	segment_id   TEXT NOT NULL,
	attribute_id TEXT NOT NULL,
	value        TEXT NOT NULL,
	PRIMARY KEY (file_id, segment_id, attribute_id)
);
`

// Store is a store.Store persisted in a SQLite database.
type Store struct {
	db       *sql.DB
	mu       sync.Mutex // serializes read-modify-write sequences
	path     string
	notifier *store.Notifier
}

// Open opens or creates the database at path and ensures the schema exists.
// The special path ":memory:" opens a private in-memory database.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite store: empty path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db, path: path, notifier: store.NewNotifier(64)}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database path.
func (s *Store) Path() string {
	return s.path
}

// Subscribe implements store.Store.
func (s *Store) Subscribe(fileID string) (<-chan store.ChangeEvent, func()) {
	return s.notifier.Subscribe(fileID)
}

// SegmentsOverlapping implements store.Reader.
func (s *Store) SegmentsOverlapping(ctx context.Context, fileID string, t0, t1 float64) ([]store.Segment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, start_time, end_time FROM segments
		WHERE file_id = ? AND start_time <= ? AND end_time >= ?
		ORDER BY seq`, fileID, t1, t0)
	if err != nil {
		return nil, fmt.Errorf("query segments: %w", err)
	}
	var segs []store.Segment
	for rows.Next() {
		seg := store.Segment{FileID: fileID}
		if err := rows.Scan(&seg.ID, &seg.Start, &seg.End); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		segs = append(segs, seg)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	attrs, err := s.Attributes(ctx)
	if err != nil {
		return nil, err
	}
	for i := range segs {
		values, err := s.values(ctx, fileID, segs[i].ID)
		if err != nil {
			return nil, err
		}
		segs[i].Values = values
		segs[i].Label = store.LabelFor(attrs, values)
	}
	return segs, nil
}

// Segment implements store.Reader.
func (s *Store) Segment(ctx context.Context, fileID, segmentID string) (store.Segment, error) {
	seg := store.Segment{ID: segmentID, FileID: fileID}
	err := s.db.QueryRowContext(ctx,
		`SELECT start_time, end_time FROM segments WHERE file_id = ? AND id = ?`,
		fileID, segmentID).Scan(&seg.Start, &seg.End)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Segment{}, fmt.Errorf("%w: %s/%s", store.ErrNotFound, fileID, segmentID)
	}
	if err != nil {
		return store.Segment{}, fmt.Errorf("get segment: %w", err)
	}
	values, err := s.values(ctx, fileID, segmentID)
	if err != nil {
		return store.Segment{}, err
	}
	attrs, err := s.Attributes(ctx)
	if err != nil {
		return store.Segment{}, err
	}
	seg.Values = values
	seg.Label = store.LabelFor(attrs, values)
	return seg, nil
}

// Attributes implements store.Reader.
func (s *Store) Attributes(ctx context.Context) ([]store.Attribute, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, kind, default_value FROM attributes ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query attributes: %w", err)
	}
	type row struct {
		id, name, kind, def string
	}
	var raw []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.id, &r.name, &r.kind, &r.def); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan attribute: %w", err)
		}
		raw = append(raw, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	attrs := make([]store.Attribute, 0, len(raw))
	for _, r := range raw {
		a := store.Attribute{ID: r.id, Name: r.name}
		switch r.kind {
		case store.KindText:
			a.Kind = store.Text{Default: r.def}
		case store.KindSelect:
			opts, err := s.options(ctx, r.id)
			if err != nil {
				return nil, err
			}
			a.Kind = store.Select{Options: opts, Default: r.def}
		default:
			a.Kind = store.Unknown{Type: r.kind}
		}
		attrs = append(attrs, a)
	}
	return attrs, nil
}

// SetAttributes implements store.Writer.
func (s *Store) SetAttributes(ctx context.Context, attrs []store.Attribute) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM attribute_options`); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM attributes`); err != nil {
			return err
		}
		for i, a := range attrs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO attributes (id, name, kind, default_value, position) VALUES (?, ?, ?, ?, ?)`,
				a.ID, a.Name, store.KindName(a.Kind), a.DefaultValue(), i); err != nil {
				return fmt.Errorf("insert attribute %s: %w", a.ID, err)
			}
			sel, ok := a.Kind.(store.Select)
			if !ok {
				continue
			}
			for j, opt := range sel.Options {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO attribute_options (attribute_id, option_id, label, position) VALUES (?, ?, ?, ?)`,
					a.ID, opt.ID, opt.Label, j); err != nil {
					return fmt.Errorf("insert option %s/%s: %w", a.ID, opt.ID, err)
				}
			}
		}
		return nil
	})
}

// AddSegment implements store.Writer.
func (s *Store) AddSegment(ctx context.Context, seg store.Segment) (store.Segment, error) {
	if err := store.ValidateBounds(seg.Start, seg.End); err != nil {
		return store.Segment{}, err
	}
	if seg.ID == "" {
		seg.ID = uuid.NewString()
	}

	s.mu.Lock()
	err := s.transaction(ctx, func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM segments WHERE file_id = ? AND id = ?`, seg.FileID, seg.ID).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: %s", store.ErrDuplicateSegment, seg.ID)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO segments (id, file_id, start_time, end_time) VALUES (?, ?, ?, ?)`,
			seg.ID, seg.FileID, seg.Start, seg.End); err != nil {
			return fmt.Errorf("insert segment: %w", err)
		}
		for aid, v := range seg.Values {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO segment_values (file_id, segment_id, attribute_id, value) VALUES (?, ?, ?, ?)`,
				seg.FileID, seg.ID, aid, v); err != nil {
				return fmt.Errorf("insert value: %w", err)
			}
		}
		return nil
	})
	s.mu.Unlock()
	if err != nil {
		return store.Segment{}, err
	}

	s.notifier.Publish(store.ChangeEvent{Kind: store.SegmentAdded, FileID: seg.FileID, SegmentID: seg.ID})
	return s.Segment(ctx, seg.FileID, seg.ID)
}

// RemoveSegment implements store.Writer.
func (s *Store) RemoveSegment(ctx context.Context, fileID, segmentID string) error {
	s.mu.Lock()
	err := s.transaction(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM segments WHERE file_id = ? AND id = ?`, fileID, segmentID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: %s/%s", store.ErrNotFound, fileID, segmentID)
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM segment_values WHERE file_id = ? AND segment_id = ?`, fileID, segmentID)
		return err
	})
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.notifier.Publish(store.ChangeEvent{Kind: store.SegmentRemoved, FileID: fileID, SegmentID: segmentID})
	return nil
}

// UpdateSegmentBoundary implements store.Writer.
func (s *Store) UpdateSegmentBoundary(ctx context.Context, fileID, segmentID string, b store.Boundary, t float64) error {
	s.mu.Lock()
	err := s.transaction(ctx, func(tx *sql.Tx) error {
		var start, end float64
		err := tx.QueryRowContext(ctx,
			`SELECT start_time, end_time FROM segments WHERE file_id = ? AND id = ?`,
			fileID, segmentID).Scan(&start, &end)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s/%s", store.ErrNotFound, fileID, segmentID)
		}
		if err != nil {
			return err
		}
		start, end = store.ApplyBoundary(start, end, b, t)
		if err := store.ValidateBounds(start, end); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE segments SET start_time = ?, end_time = ? WHERE file_id = ? AND id = ?`,
			start, end, fileID, segmentID)
		return err
	})
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.notifier.Publish(store.ChangeEvent{Kind: store.SegmentBoundaryChanged, FileID: fileID, SegmentID: segmentID})
	return nil
}

// UpdateAttributeValue implements store.Writer.
func (s *Store) UpdateAttributeValue(ctx context.Context, fileID, segmentID, attributeID, value string) error {
	attrs, err := s.Attributes(ctx)
	if err != nil {
		return err
	}
	var attr *store.Attribute
	for i := range attrs {
		if attrs[i].ID == attributeID {
			attr = &attrs[i]
			break
		}
	}
	if attr == nil {
		return fmt.Errorf("%w: %s", store.ErrUnknownAttribute, attributeID)
	}
	if !attr.Accepts(value) {
		return fmt.Errorf("attribute %s does not accept %q", attr.Name, value)
	}

	s.mu.Lock()
	err = s.transaction(ctx, func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM segments WHERE file_id = ? AND id = ?`, fileID, segmentID).Scan(&n); err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: %s/%s", store.ErrNotFound, fileID, segmentID)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO segment_values (file_id, segment_id, attribute_id, value) VALUES (?, ?, ?, ?)
			ON CONFLICT (file_id, segment_id, attribute_id) DO UPDATE SET value = excluded.value`,
			fileID, segmentID, attributeID, value)
		return err
	})
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.notifier.Publish(store.ChangeEvent{Kind: store.AttributeChanged, FileID: fileID, SegmentID: segmentID, AttributeID: attributeID})
	return nil
}

func (s *Store) transaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *Store) values(ctx context.Context, fileID, segmentID string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT attribute_id, value FROM segment_values WHERE file_id = ? AND segment_id = ?`,
		fileID, segmentID)
	if err != nil {
		return nil, fmt.Errorf("query values: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var aid, v string
		if err := rows.Scan(&aid, &v); err != nil {
			return nil, fmt.Errorf("scan value: %w", err)
		}
		values[aid] = v
	}
	return values, rows.Err()
}

func (s *Store) options(ctx context.Context, attributeID string) ([]store.Option, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT option_id, label FROM attribute_options WHERE attribute_id = ? ORDER BY position`, attributeID)
	if err != nil {
		return nil, fmt.Errorf("query options: %w", err)
	}
	defer rows.Close()

	var opts []store.Option
	for rows.Next() {
		var o store.Option
		if err := rows.Scan(&o.ID, &o.Label); err != nil {
			return nil, fmt.Errorf("scan option: %w", err)
		}
		opts = append(opts, o)
	}
	return opts, rows.Err()
}

var _ store.Store = (*Store)(nil)
