package annotator

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Dicklesworthstone/tseg/internal/project"
	"github.com/Dicklesworthstone/tseg/internal/store"
	"github.com/Dicklesworthstone/tseg/internal/timeline"
	"github.com/Dicklesworthstone/tseg/internal/tui/attrpanel"
)

// ProjectReloadedMsg reports that the project file changed on disk and was
// synced into the store. It is sent from outside the program.
type ProjectReloadedMsg struct {
	Result project.SyncResult
	Err    error
}

type storeChangedMsg struct {
	Event store.ChangeEvent
}

type storeClosedMsg struct{}

type attributesLoadedMsg struct {
	Attributes []store.Attribute
	Err        error
}

type boundaryWrittenMsg struct {
	Commit timeline.Commit
	Err    error
}

type attributeWrittenMsg struct {
	Edit attrpanel.EditMsg
	Err  error
}

// waitForChange blocks on the subscription and delivers one event.
func waitForChange(events <-chan store.ChangeEvent) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return storeClosedMsg{}
		}
		return storeChangedMsg{Event: ev}
	}
}

func loadAttributes(ctx context.Context, r store.Reader) tea.Cmd {
	return func() tea.Msg {
		attrs, err := r.Attributes(ctx)
		return attributesLoadedMsg{Attributes: attrs, Err: err}
	}
}

func writeBoundary(ctx context.Context, e *timeline.Engine, c timeline.Commit) tea.Cmd {
	return func() tea.Msg {
		return boundaryWrittenMsg{Commit: c, Err: e.WriteBoundary(ctx, c)}
	}
}

func writeAttribute(ctx context.Context, e *timeline.Engine, edit attrpanel.EditMsg) tea.Cmd {
	return func() tea.Msg {
		err := e.WriteAttribute(ctx, edit.SegmentID, edit.AttributeID, edit.Value)
		return attributeWrittenMsg{Edit: edit, Err: err}
	}
}
