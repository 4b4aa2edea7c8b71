package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/tseg/internal/config"
	"github.com/Dicklesworthstone/tseg/internal/project"
	"github.com/Dicklesworthstone/tseg/internal/store"
	"github.com/Dicklesworthstone/tseg/internal/util"
)

// SegmentJSON is the machine-readable form of one listed segment.
type SegmentJSON struct {
	ID       string            `json:"id"`
	Start    float64           `json:"start"`
	End      float64           `json:"end"`
	Duration float64           `json:"duration"`
	Label    string            `json:"label,omitempty"`
	Values   map[string]string `json:"values,omitempty"`
}

// SegmentsResponse is the JSON output of tseg segments.
type SegmentsResponse struct {
	FileID   string        `json:"file_id"`
	From     float64       `json:"from"`
	To       float64       `json:"to,omitempty"`
	Segments []SegmentJSON `json:"segments"`
}

func newSegmentsCmd() *cobra.Command {
	var from, to float64
	var backend string

	cmd := &cobra.Command{
		Use:   "segments <project.yaml>",
		Short: "List the segments of a project",
		Long: `List the segments of a project that overlap [--from, --to].

With the sqlite backend the database next to the project is read, so the
listing reflects edits made in the annotator.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := *cfg
			if backend != "" {
				c.Store.Backend = backend
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runSegments(ctx, cmd.OutOrStdout(), &c, args[0], from, to)
		},
	}

	cmd.Flags().Float64Var(&from, "from", 0, "Start of the range in seconds")
	cmd.Flags().Float64Var(&to, "to", 0, "End of the range in seconds (default: end of media)")
	cmd.Flags().StringVar(&backend, "store", "", "Store backend override: memory, sqlite")
	return cmd
}

func runSegments(ctx context.Context, w io.Writer, c *config.Config, path string, from, to float64) error {
	if from < 0 || (to != 0 && to < from) {
		return fmt.Errorf("invalid range [%v, %v]", from, to)
	}
	p, err := project.Load(path)
	if err != nil {
		return err
	}
	s, closeFn, err := openStore(ctx, c.Store, p, logger)
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer closeFn()
	}

	end := to
	if end == 0 {
		end = math.MaxFloat64
	}
	segs, err := s.SegmentsOverlapping(ctx, p.FileID, from, end)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printSegmentsJSON(w, p.FileID, from, to, segs)
	}
	return printSegmentsTable(w, p, segs)
}

func printSegmentsJSON(w io.Writer, fileID string, from, to float64, segs []store.Segment) error {
	resp := SegmentsResponse{FileID: fileID, From: from, To: to, Segments: make([]SegmentJSON, len(segs))}
	for i, s := range segs {
		resp.Segments[i] = SegmentJSON{
			ID:       s.ID,
			Start:    s.Start,
			End:      s.End,
			Duration: s.Duration(),
			Label:    s.Label,
			Values:   s.Values,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

func printSegmentsTable(w io.Writer, p *project.Project, segs []store.Segment) error {
	if len(segs) == 0 {
		_, err := fmt.Fprintln(w, SubtleText("No segments in range"))
		return err
	}
	t := NewStyledTable("ID", "START", "END", "LENGTH", "LABEL").
		WithTitle(p.FileID).
		WithFooter(fmt.Sprintf("%d segment(s)", len(segs)))
	for _, s := range segs {
		t.AddRow(
			shortID(s.ID),
			util.FormatHMSMillis(s.Start),
			util.FormatHMSMillis(s.End),
			fmt.Sprintf("%.3fs", s.Duration()),
			util.Truncate(s.Label, 40),
		)
	}
	_, err := io.WriteString(w, t.Render())
	return err
}

// shortID keeps UUIDs readable in tables.
func shortID(id string) string {
	if len(id) == 36 && strings.Count(id, "-") == 4 {
		return id[:8]
	}
	return id
}
