// Package history provides the submission history page.
package history

import (
	"net/http"

	"github.com/starfederation/datastar-go/datastar"

	store "github.com/leapstack-labs/parq/internal/history"
	"github.com/leapstack-labs/parq/internal/ui/components"
	"github.com/leapstack-labs/parq/internal/ui/features/common"
)

const pageSize = 100

// Handlers provides HTTP handlers for the history feature.
type Handlers struct {
	deps *common.Deps
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(deps *common.Deps) *Handlers {
	return &Handlers{deps: deps}
}

func (h *Handlers) recent(r *http.Request) ([]store.Entry, error) {
	if h.deps.History == nil {
		return nil, nil
	}
	return h.deps.History.Recent(r.Context(), store.Filter{
		Mode:  r.URL.Query().Get("mode"),
		State: r.URL.Query().Get("state"),
		Limit: pageSize,
	})
}

// Page renders recent submissions.
func (h *Handlers) Page(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.deps.Workspace(w, r)
	if !ok {
		return
	}

	entries, err := h.recent(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	page := h.deps.Page("History", "/history", ws)
	if err := components.HistoryPage(page, entries, h.deps.History != nil).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// ClearSSE deletes all history and re-renders the table.
func (h *Handlers) ClearSSE(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	if h.deps.History == nil {
		_ = sse.PatchElementTempl(components.HistoryTable(nil, false))
		return
	}

	n, err := h.deps.History.Clear(r.Context())
	if err != nil {
		_ = sse.ConsoleError(err)
		return
	}
	h.deps.Logger.Info("history cleared", "entries", n)

	if err := sse.PatchElementTempl(components.HistoryTable(nil, true)); err != nil {
		_ = sse.ConsoleError(err)
	}
}
