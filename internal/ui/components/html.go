// Package components renders the web UI's HTML fragments as templ
// components. Every fragment carries a stable id so SSE patches can morph
// it in place.
package components

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Element ids patched over SSE.
const (
	ResultID      = "result"
	EditorID      = "editor"
	GraphHeaderID = "graph-header"
	GraphListID   = "graph-list"
	HistoryID     = "history"
)

// writer accumulates the first write error so fragments read straight
// through without per-line checks.
type writer struct {
	w   io.Writer
	err error
}

func (h *writer) raw(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

func (h *writer) text(s string) {
	h.raw(templ.EscapeString(s))
}

func (h *writer) component(ctx context.Context, c templ.Component) {
	if h.err != nil {
		return
	}
	h.err = c.Render(ctx, h.w)
}

// fragment adapts a writer-based render function to templ.Component.
func fragment(fn func(ctx context.Context, h *writer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &writer{w: w}
		fn(ctx, h)
		return h.err
	})
}
