package components

import (
	"context"
	"fmt"

	"github.com/a-h/templ"

	"github.com/leapstack-labs/parq/internal/history"
	"github.com/leapstack-labs/parq/internal/render"
)

// EditorPage is the query or update page. The result element subscribes
// to the view's event stream on load.
func EditorPage(p Page, mode, buffer string, r render.Rendering) templ.Component {
	body := fragment(func(ctx context.Context, h *writer) {
		h.component(ctx, Editor(mode, buffer))
		h.raw(`<section class="output" data-init="@get('/api/` + mode + `/events')">`)
		h.component(ctx, Result(ResultID, r))
		h.raw(`</section>`)
	})
	return Layout(p, body)
}

// GraphsPage lists the store's named graphs.
func GraphsPage(p Page, r render.Rendering) templ.Component {
	body := fragment(func(ctx context.Context, h *writer) {
		h.raw(`<section class="graphs" data-init="@get('/api/graphs/events')">`)
		h.raw(`<div class="actions"><button data-on:click="@post('/api/graphs/refresh')">Refresh</button></div>`)
		h.component(ctx, Result(GraphListID, r))
		h.raw(`</section>`)
	})
	return Layout(p, body)
}

// HistoryPage lists recent submissions.
func HistoryPage(p Page, entries []history.Entry, enabled bool) templ.Component {
	body := fragment(func(ctx context.Context, h *writer) {
		if enabled {
			h.raw(`<div class="actions"><button class="secondary" data-on:click="@post('/api/history/clear')">Clear</button></div>`)
		}
		h.component(ctx, HistoryTable(entries, enabled))
	})
	return Layout(p, body)
}

// HistoryTable renders submission history entries.
func HistoryTable(entries []history.Entry, enabled bool) templ.Component {
	return fragment(func(_ context.Context, h *writer) {
		h.raw(`<section id="` + HistoryID + `" class="history">`)
		switch {
		case !enabled:
			h.raw(`<p class="placeholder">history is disabled</p>`)
		case len(entries) == 0:
			h.raw(`<p class="placeholder">no submissions yet</p>`)
		default:
			h.raw(`<table><thead><tr><th>When</th><th>Mode</th><th>State</th><th>Rows</th><th>Time</th><th>Payload</th></tr></thead><tbody>`)
			for _, e := range entries {
				h.raw(`<tr class="` + e.State + `"><td>`)
				h.text(e.SubmittedAt.Format("2006-01-02 15:04:05"))
				h.raw(`</td><td>`)
				h.text(e.Mode)
				h.raw(`</td><td title="`)
				h.text(e.Reason)
				h.raw(`">`)
				h.text(e.State)
				h.raw(fmt.Sprintf(`</td><td>%d</td><td>%dms</td><td><pre>`, e.Rows, e.Duration.Milliseconds()))
				h.text(e.Payload)
				h.raw(`</pre></td></tr>`)
			}
			h.raw(`</tbody></table>`)
		}
		h.raw(`</section>`)
	})
}
