// Package common provides shared types and utilities for UI features.
package common

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/parq/internal/endpoint"
	"github.com/leapstack-labs/parq/internal/history"
	"github.com/leapstack-labs/parq/internal/render"
	"github.com/leapstack-labs/parq/internal/request"
	"github.com/leapstack-labs/parq/internal/ui/components"
	"github.com/leapstack-labs/parq/internal/ui/workspace"
	"github.com/leapstack-labs/parq/internal/view"
)

// Deps are the dependencies every feature's handlers share.
type Deps struct {
	Workspaces *workspace.Registry
	Sessions   sessions.Store
	Endpoint   *endpoint.Endpoint
	History    *history.Store
	Logger     *slog.Logger

	// StaticDir, when set, serves assets from disk.
	StaticDir string
}

// Workspace resolves the caller's workspace, answering 500 on failure.
// Call it before starting an SSE response.
func (d *Deps) Workspace(w http.ResponseWriter, r *http.Request) (*workspace.Workspace, bool) {
	ws, err := d.Workspaces.FromRequest(w, r, d.Sessions)
	if err != nil {
		d.Logger.Error("failed to resolve workspace", slog.String("error", err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	return ws, true
}

// Page builds the shell data for a page.
func (d *Deps) Page(title, active string, ws *workspace.Workspace) components.Page {
	return components.Page{
		Title:    title,
		Active:   active,
		Endpoint: d.Endpoint.QueryURL(),
		Graph:    ws.Selection(),
	}
}

// Detach keeps a submission alive after the request that started it ends.
// Superseded work is discarded by sequence number, not cancelled.
func Detach(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

// AwaitResult patches the element id with v's result once the submission
// identified by seq, or a later one, settles.
func AwaitResult(ctx context.Context, sse *datastar.ServerSentEventGenerator, events chan view.Event, seq uint64, id string, draw func(request.Outcome) render.Rendering) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Kind != view.EventResultChanged || ev.Seq < seq {
				continue
			}
			if err := sse.PatchElementTempl(components.Result(id, draw(ev.Outcome))); err != nil {
				_ = sse.ConsoleError(err)
			}
			return
		}
	}
}
