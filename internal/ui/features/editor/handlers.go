// Package editor provides the query and update pages.
package editor

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starfederation/datastar-go/datastar"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/parq/internal/render"
	"github.com/leapstack-labs/parq/internal/request"
	"github.com/leapstack-labs/parq/internal/ui/components"
	"github.com/leapstack-labs/parq/internal/ui/features/common"
	"github.com/leapstack-labs/parq/internal/view"
)

// Signals are the editor signals sent from the frontend. Buffer is nil
// when the page did not send one.
type Signals struct {
	Buffer *string `json:"buffer"`
}

// Handlers provides HTTP handlers for the editor pages.
type Handlers struct {
	deps *common.Deps
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(deps *common.Deps) *Handlers {
	return &Handlers{deps: deps}
}

func parseMode(r *http.Request) (view.Mode, bool) {
	switch m := view.Mode(chi.URLParam(r, "mode")); m {
	case view.ModeQuery, view.ModeUpdate:
		return m, true
	default:
		return "", false
	}
}

func draw(o request.Outcome) render.Rendering {
	return render.Render(o, render.Tabular)
}

// Page renders the editor page for a mode with its current state.
func (h *Handlers) Page(mode view.Mode) http.HandlerFunc {
	title := cases.Title(language.English).String(string(mode))

	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := h.deps.Workspace(w, r)
		if !ok {
			return
		}
		v := ws.Submission(mode)

		page := h.deps.Page(title, "/"+string(mode), ws)
		if err := components.EditorPage(page, string(mode), v.Buffer(), draw(v.Outcome())).Render(r.Context(), w); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// SubmitSSE stores the submitted buffer, submits it, and streams the
// pending placeholder followed by the result.
func (h *Handlers) SubmitSSE(w http.ResponseWriter, r *http.Request) {
	mode, ok := parseMode(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	ws, ok := h.deps.Workspace(w, r)
	if !ok {
		return
	}

	// Read signals BEFORE creating SSE (SSE consumes the request body)
	var signals Signals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		sse := datastar.NewSSE(w, r)
		_ = sse.PatchElementTempl(components.Result(components.ResultID, render.Rendering{
			Kind:    render.KindFailure,
			Message: "failed to read signals: " + err.Error(),
		}))
		return
	}

	v := ws.Submission(mode)
	if signals.Buffer != nil {
		v.UpdateBuffer(*signals.Buffer)
	}

	events := v.Subscribe()
	defer v.Unsubscribe(events)

	sse := datastar.NewSSE(w, r)
	ticket := v.Submit(common.Detach(r))

	if err := sse.PatchElementTempl(components.Result(components.ResultID, draw(v.Outcome()))); err != nil {
		_ = sse.ConsoleError(err)
		return
	}

	common.AwaitResult(r.Context(), sse, events, ticket.Seq, components.ResultID, draw)
}

// ResetSSE restores the default template.
func (h *Handlers) ResetSSE(w http.ResponseWriter, r *http.Request) {
	mode, ok := parseMode(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	ws, ok := h.deps.Workspace(w, r)
	if !ok {
		return
	}

	v := ws.Submission(mode)
	v.Reset()

	sse := datastar.NewSSE(w, r)
	buffer := v.Buffer()
	if err := sse.MarshalAndPatchSignals(Signals{Buffer: &buffer}); err != nil {
		_ = sse.ConsoleError(err)
		return
	}
	if err := sse.PatchElementTempl(components.Editor(string(mode), buffer)); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// EventsSSE streams every result change of the mode's view, so other tabs
// of the same session stay in sync. Nothing is sent up front; the page
// is server-rendered with the current state.
func (h *Handlers) EventsSSE(w http.ResponseWriter, r *http.Request) {
	mode, ok := parseMode(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	ws, ok := h.deps.Workspace(w, r)
	if !ok {
		return
	}

	v := ws.Submission(mode)
	events := v.Subscribe()
	defer v.Unsubscribe(events)

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
			if err := sse.PatchElementTempl(components.Result(components.ResultID, draw(ev.Outcome))); err != nil {
				_ = sse.ConsoleError(err)
				// Don't return - keep trying on next update
			}
		}
	}
}
