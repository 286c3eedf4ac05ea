package components

import (
	"context"
	"fmt"
	"net/url"

	"github.com/a-h/templ"

	"github.com/leapstack-labs/parq/internal/render"
)

// Editor renders the buffer and its actions for a submission mode.
func Editor(mode, buffer string) templ.Component {
	return fragment(func(_ context.Context, h *writer) {
		h.raw(`<section id="` + EditorID + `" class="editor">`)
		h.raw(`<textarea data-bind:buffer rows="16" spellcheck="false">`)
		h.text(buffer)
		h.raw(`</textarea><div class="actions">`)
		h.raw(`<button data-on:click="@post('/api/` + mode + `/submit')">Run</button>`)
		h.raw(`<button class="secondary" data-on:click="@post('/api/` + mode + `/reset')">Reset</button>`)
		h.raw(`</div></section>`)
	})
}

// Result renders r into the element with the given id.
func Result(id string, r render.Rendering) templ.Component {
	return fragment(func(_ context.Context, h *writer) {
		switch r.Kind {
		case render.KindPlaceholder:
			h.raw(`<div id="` + id + `" class="placeholder">`)
			h.text(r.Message)
			h.raw(`</div>`)

		case render.KindFailure:
			h.raw(`<div id="` + id + `" class="failure" role="alert">`)
			h.text(r.Message)
			h.raw(`</div>`)

		case render.KindAck:
			h.raw(`<div id="` + id + `" class="ack"><p>`)
			h.text(r.Message)
			h.raw(`</p>`)
			if text := r.Ack.Text(); text != "" {
				h.raw(`<pre>`)
				h.text(text)
				h.raw(`</pre>`)
			}
			h.raw(`</div>`)

		case render.KindTable:
			h.raw(`<div id="` + id + `" class="results"><table><thead><tr>`)
			for _, col := range r.Header {
				h.raw(`<th>`)
				h.text(col)
				h.raw(`</th>`)
			}
			h.raw(`</tr></thead><tbody>`)
			for _, row := range r.Rows {
				h.raw(`<tr>`)
				for _, cell := range row {
					h.raw(`<td>`)
					h.text(cell)
					h.raw(`</td>`)
				}
				h.raw(`</tr>`)
			}
			h.raw(`</tbody></table>`)
			h.raw(fmt.Sprintf(`<p class="summary">(%d rows)</p></div>`, len(r.Rows)))

		case render.KindList:
			h.raw(`<div id="` + id + `" class="results"><ul class="list">`)
			for _, item := range r.Items {
				switch {
				case r.Variant != render.SelectableList:
					h.raw(`<li>`)
					h.text(item.Text)
				case item.Selected:
					h.raw(`<li class="selected"><span>`)
					h.text(item.Text)
					h.raw(`</span>`)
				default:
					h.raw(`<li><button class="link" data-on:click="@post('/api/graphs/select?g=` + url.QueryEscape(item.Value) + `')">`)
					h.text(item.Text)
					h.raw(`</button>`)
				}
				h.raw(`</li>`)
			}
			h.raw(`</ul>`)
			h.raw(fmt.Sprintf(`<p class="summary">(%d items)</p></div>`, len(r.Items)))
		}
	})
}
