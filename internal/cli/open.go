package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Dicklesworthstone/tseg/internal/config"
	"github.com/Dicklesworthstone/tseg/internal/timeline"
	"github.com/Dicklesworthstone/tseg/internal/tui/annotator"
	"github.com/Dicklesworthstone/tseg/internal/tui/theme"
	"github.com/Dicklesworthstone/tseg/internal/watcher"
)

// errNotTerminal is returned when the annotator cannot own a terminal.
var errNotTerminal = errors.New("tseg open needs an interactive terminal")

const fallbackWidth = 80

type openOptions struct {
	ProjectPath string
	MediaPath   string
	Mode        string
	Backend     string
	Save        bool
}

func newOpenCmd() *cobra.Command {
	var opts openOptions

	cmd := &cobra.Command{
		Use:   "open <project.yaml>",
		Short: "Open a project in the interactive annotator",
		Long: `Open a project file in the interactive annotator.

The media duration comes from the project's HLS playlist, or from its
duration field when there is no playlist. Edits go to the configured
store; with --save they are also written back to the project file on exit.

Mouse:
  click overview        seek
  click tick row        seek inside the window
  click segment         select / deselect
  drag segment edge     resize (press on the edge, release at the new time)

Modes:
  normal      always 1x
  review      1x inside segments, fast between them
  annotation  fast inside segments, 1x between them`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ProjectPath = args[0]
			return runOpen(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.MediaPath, "media", "", "HLS playlist overriding the project's media")
	cmd.Flags().StringVar(&opts.Mode, "mode", "", "Playback mode: normal, review, annotation (default from config)")
	cmd.Flags().StringVar(&opts.Backend, "store", "", "Store backend override: memory, sqlite")
	cmd.Flags().BoolVar(&opts.Save, "save", false, "Write segments back to the project file on exit")
	return cmd
}

func requireTerminal(fd uintptr) error {
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return nil
	}
	return errNotTerminal
}

func terminalWidth(fd int) int {
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return fallbackWidth
	}
	return w
}

func resolveMode(flag string, c *config.Config) (timeline.Mode, error) {
	if flag == "" {
		return c.PlaybackMode(), nil
	}
	return timeline.ParseMode(flag)
}

// engineOptions maps the timeline config onto engine options.
func engineOptions(c *config.Config, fileID string, width int, mode timeline.Mode) timeline.Options {
	return timeline.Options{
		FileID:          fileID,
		Width:           width,
		Padding:         c.Timeline.Padding,
		Span:            c.Timeline.WindowSpanSeconds,
		PixelsPerSecond: c.Timeline.PixelsPerSecond,
		Tolerance:       c.Timeline.HitTolerance,
		FastRate:        c.Playback.FastRate,
		Mode:            mode,
		Logger:          logger,
	}
}

func runOpen(ctx context.Context, opts openOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := requireTerminal(os.Stdout.Fd()); err != nil {
		return err
	}
	c := *cfg
	if opts.Backend != "" {
		c.Store.Backend = opts.Backend
	}
	if errs := config.Validate(&c); len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	mode, err := resolveMode(opts.Mode, &c)
	if err != nil {
		return err
	}

	sess, err := openSession(ctx, &c, opts.ProjectPath, opts.MediaPath, logger)
	if err != nil {
		return err
	}
	defer sess.Close()

	width := terminalWidth(int(os.Stdout.Fd()))
	eng, err := timeline.NewEngine(ctx, sess.clock, sess.store, engineOptions(&c, sess.project.FileID, width, mode))
	if err != nil {
		return err
	}

	model, err := annotator.New(ctx, annotator.Options{
		Engine:        eng,
		Player:        sess.clock,
		Theme:         theme.Current(),
		Title:         filepath.Base(sess.project.Path()),
		FrameInterval: time.Duration(c.Timeline.FrameIntervalMs) * time.Millisecond,
		Logger:        logger,
	})
	if err != nil {
		return err
	}
	defer model.Close()

	prog := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithContext(ctx),
	)

	w, err := watcher.NewFromConfig(
		watcher.ConfigValues{Enabled: c.Watch.Enabled, DebounceMs: c.Watch.DebounceMs},
		sess.project.Path(),
		func(path string) {
			res, err := sess.reload(ctx, path)
			logger.Info("project reloaded", "path", path, "added", res.Added, "removed", res.Removed,
				"moved", res.Moved, "values", res.Values, "error", err)
			prog.Send(annotator.ProjectReloadedMsg{Result: res, Err: err})
		},
		logger,
	)
	if err != nil {
		logger.Warn("project watcher unavailable", "error", err)
	}

	_, runErr := prog.Run()
	if w != nil {
		_ = w.Close()
	}
	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return fmt.Errorf("running annotator: %w", runErr)
	}

	if opts.Save {
		if err := sess.save(ctx); err != nil {
			return err
		}
		logger.Info("project saved", "path", sess.project.Path())
	}
	return nil
}
