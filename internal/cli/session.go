package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dicklesworthstone/tseg/internal/config"
	"github.com/Dicklesworthstone/tseg/internal/media"
	"github.com/Dicklesworthstone/tseg/internal/project"
	"github.com/Dicklesworthstone/tseg/internal/store"
	"github.com/Dicklesworthstone/tseg/internal/store/sqlite"
)

// session is an opened project: its store and the media clock.
type session struct {
	project *project.Project
	store   store.Store
	clock   *media.Clock
	closeFn func() error
}

func (s *session) Close() error {
	if s.closeFn == nil {
		return nil
	}
	return s.closeFn()
}

// openStore opens the configured backend for p. A memory store, or an
// SQLite database that holds nothing for the project's file yet, is seeded
// from the project.
func openStore(ctx context.Context, sc config.StoreConfig, p *project.Project, log *slog.Logger) (store.Store, func() error, error) {
	switch strings.ToLower(sc.Backend) {
	case "", "memory":
		s := store.NewMemory()
		if err := project.Seed(ctx, s, p); err != nil {
			return nil, nil, err
		}
		return s, nil, nil

	case "sqlite":
		path := sc.SQLitePath(p.Path())
		db, err := sqlite.Open(path)
		if err != nil {
			return nil, nil, err
		}
		existing, err := project.Snapshot(ctx, db, p.FileID, p)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		if len(existing.Segments) == 0 && len(existing.Attributes) == 0 {
			log.Info("seeding database from project", "db", path, "file", p.FileID)
			if err := project.Seed(ctx, db, p); err != nil {
				db.Close()
				return nil, nil, err
			}
		} else {
			log.Info("using existing database", "db", path, "segments", len(existing.Segments))
		}
		return db, db.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q: must be memory or sqlite", sc.Backend)
}

// mediaDuration resolves the media length: a probed playlist wins, the
// project's duration is the fallback.
func mediaDuration(p *project.Project, override string, log *slog.Logger) (float64, error) {
	path := override
	if path == "" {
		path = p.MediaPath()
	}
	if path == "" {
		if p.Duration <= 0 {
			return 0, fmt.Errorf("%w: project has neither media nor duration", media.ErrInvalidMedia)
		}
		return p.Duration, nil
	}
	d, err := media.ProbeDuration(path)
	if err != nil {
		if p.Duration > 0 {
			log.Warn("probing media failed, using project duration", "media", path, "error", err)
			return p.Duration, nil
		}
		return 0, err
	}
	return d, nil
}

// openSession loads the project at path with its store and clock.
func openSession(ctx context.Context, c *config.Config, path, mediaOverride string, log *slog.Logger) (*session, error) {
	p, err := project.Load(path)
	if err != nil {
		return nil, err
	}
	d, err := mediaDuration(p, mediaOverride, log)
	if err != nil {
		return nil, err
	}
	if err := p.CheckDuration(d); err != nil {
		return nil, err
	}
	clock, err := media.NewClock(d)
	if err != nil {
		return nil, err
	}
	s, closeFn, err := openStore(ctx, c.Store, p, log)
	if err != nil {
		return nil, err
	}
	log.Info("project opened", "project", p.Path(), "file", p.FileID, "duration", d, "backend", c.Store.Backend)
	return &session{project: p, store: s, clock: clock, closeFn: closeFn}, nil
}

// reload re-reads the project file and reconciles the store with it.
func (s *session) reload(ctx context.Context, path string) (project.SyncResult, error) {
	p, err := project.Load(path)
	if err != nil {
		return project.SyncResult{}, err
	}
	if p.FileID != s.project.FileID {
		return project.SyncResult{}, fmt.Errorf("%w: file_id changed from %q to %q",
			project.ErrInvalidProject, s.project.FileID, p.FileID)
	}
	if err := p.CheckDuration(s.clock.Duration()); err != nil {
		return project.SyncResult{}, err
	}
	return project.Sync(ctx, s.store, p)
}

// save writes the store's state back to the project file.
func (s *session) save(ctx context.Context) error {
	snap, err := project.Snapshot(ctx, s.store, s.project.FileID, s.project)
	if err != nil {
		return err
	}
	return snap.Save(s.project.Path())
}
