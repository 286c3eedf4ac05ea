// Package graphs provides the named-graph picker.
package graphs

import (
	"net/http"
	"slices"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/parq/internal/render"
	"github.com/leapstack-labs/parq/internal/request"
	"github.com/leapstack-labs/parq/internal/ui/components"
	"github.com/leapstack-labs/parq/internal/ui/features/common"
	"github.com/leapstack-labs/parq/internal/ui/workspace"
	"github.com/leapstack-labs/parq/internal/view"
)

// Handlers provides HTTP handlers for the graphs feature.
type Handlers struct {
	deps *common.Deps
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(deps *common.Deps) *Handlers {
	return &Handlers{deps: deps}
}

// Page renders the graph list, enumerating on the first visit.
func (h *Handlers) Page(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.deps.Workspace(w, r)
	if !ok {
		return
	}

	if ws.Graphs.Outcome().State == request.StateIdle {
		ws.Graphs.Refresh(common.Detach(r))
	}

	page := h.deps.Page("Graphs", "/graphs", ws)
	if err := components.GraphsPage(page, ws.Graphs.RenderList()).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// RefreshSSE re-runs the enumeration and streams the list once settled.
func (h *Handlers) RefreshSSE(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.deps.Workspace(w, r)
	if !ok {
		return
	}

	events := ws.Graphs.Subscribe()
	defer ws.Graphs.Unsubscribe(events)

	sse := datastar.NewSSE(w, r)
	ticket := ws.Graphs.Refresh(common.Detach(r))

	if err := sse.PatchElementTempl(components.Result(components.GraphListID, ws.Graphs.RenderList())); err != nil {
		_ = sse.ConsoleError(err)
		return
	}

	common.AwaitResult(r.Context(), sse, events, ticket.Seq, components.GraphListID, list(ws))
}

// SelectSSE activates the rendered list item whose value is the g query
// parameter. Graphs that are not in the workspace's current enumeration
// are refused.
func (h *Handlers) SelectSSE(w http.ResponseWriter, r *http.Request) {
	graph := strings.TrimSpace(r.URL.Query().Get("g"))
	if graph == "" {
		http.Error(w, "missing graph", http.StatusBadRequest)
		return
	}
	ws, ok := h.deps.Workspace(w, r)
	if !ok {
		return
	}

	rendered := ws.Graphs.RenderList()
	index := slices.IndexFunc(rendered.Items, func(item render.Item) bool { return item.Value == graph })
	if index < 0 {
		http.Error(w, "graph not in the enumerated list", http.StatusNotFound)
		return
	}
	if err := ws.ActivateGraph(rendered, index); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	h.deps.Logger.Debug("graph selected", "graph", graph, "workspace", ws.ID)

	sse := datastar.NewSSE(w, r)
	if err := sse.PatchElementTempl(components.GraphHeader(graph)); err != nil {
		_ = sse.ConsoleError(err)
		return
	}
	if err := sse.PatchElementTempl(components.Result(components.GraphListID, ws.Graphs.RenderList())); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// EventsSSE streams list and header changes.
func (h *Handlers) EventsSSE(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.deps.Workspace(w, r)
	if !ok {
		return
	}

	events := ws.Graphs.Subscribe()
	defer ws.Graphs.Unsubscribe(events)

	sse := datastar.NewSSE(w, r)
	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Kind == view.EventSelectionChanged {
				_ = sse.PatchElementTempl(components.GraphHeader(ev.Selection))
			}
			if err := sse.PatchElementTempl(components.Result(components.GraphListID, ws.Graphs.RenderList())); err != nil {
				_ = sse.ConsoleError(err)
			}
		}
	}
}

func list(ws *workspace.Workspace) func(request.Outcome) render.Rendering {
	return func(request.Outcome) render.Rendering {
		return ws.Graphs.RenderList()
	}
}
