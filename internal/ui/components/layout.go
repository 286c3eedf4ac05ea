package components

import (
	"context"

	"github.com/a-h/templ"

	"github.com/leapstack-labs/parq/internal/ui/resources"
)

// DatastarScript is the client runtime the pages load.
const DatastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0/bundles/datastar.js"

// Page describes the shell around a page body.
type Page struct {
	Title    string
	Active   string
	Endpoint string
	Graph    string
}

var navItems = []struct{ path, label string }{
	{"/query", "Query"},
	{"/update", "Update"},
	{"/graphs", "Graphs"},
	{"/history", "History"},
}

// Layout wraps body in the application shell.
func Layout(p Page, body templ.Component) templ.Component {
	return fragment(func(ctx context.Context, h *writer) {
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw(`<title>`)
		h.text(p.Title)
		h.raw(` · parq</title>`)
		h.raw(`<link rel="stylesheet" href="` + resources.StaticPath("parq.css") + `">`)
		h.raw(`<script type="module" src="` + DatastarScript + `"></script>`)
		h.raw(`</head><body>`)

		h.raw(`<header class="topbar"><span class="brand">parq</span><nav>`)
		for _, item := range navItems {
			h.raw(`<a href="` + item.path + `"`)
			if item.path == p.Active {
				h.raw(` class="active"`)
			}
			h.raw(`>`)
			h.text(item.label)
			h.raw(`</a>`)
		}
		h.raw(`</nav><span class="endpoint">`)
		h.text(p.Endpoint)
		h.raw(`</span>`)
		h.component(ctx, GraphHeader(p.Graph))
		h.raw(`</header><main>`)
		h.component(ctx, body)
		h.raw(`</main></body></html>`)
	})
}

// GraphHeader shows the selected graph.
func GraphHeader(graph string) templ.Component {
	return fragment(func(_ context.Context, h *writer) {
		h.raw(`<span id="` + GraphHeaderID + `" class="graph-header">`)
		if graph == "" {
			h.raw(`default graph`)
		} else {
			h.raw(`graph: <code>`)
			h.text(graph)
			h.raw(`</code>`)
		}
		h.raw(`</span>`)
	})
}
