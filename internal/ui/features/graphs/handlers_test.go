package graphs

import (
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/parq/internal/ui/features"
	"github.com/leapstack-labs/parq/internal/ui/features/common"
	"github.com/leapstack-labs/parq/internal/ui/features/editor"
)

func routes(r chi.Router, deps *common.Deps) error {
	if err := editor.SetupRoutes(r, deps); err != nil {
		return err
	}
	return SetupRoutes(r, deps)
}

func TestRefreshSSE(t *testing.T) {
	f := features.SetupTestFixture(t)
	client := f.Serve(t, routes)

	status, body := client.Post("/api/graphs/refresh", nil)
	require.Equal(t, http.StatusOK, status)

	assert.Contains(t, body, "urn:graph:A")
	assert.Contains(t, body, "urn:graph:B")
	assert.NotContains(t, body, "MasterGraph")
	assert.Contains(t, body, "(2 items)")
	assert.Contains(t, body, "@post('/api/graphs/select?g=urn%3Agraph%3AB')")
}

func TestSelectSSE(t *testing.T) {
	f := features.SetupTestFixture(t)
	client := f.Serve(t, routes)

	_, _ = client.Post("/api/graphs/refresh", nil)

	status, body := client.Post("/api/graphs/select?g=urn%3Agraph%3AB", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "graph: <code>urn:graph:B</code>")
	assert.Contains(t, body, `<li class="selected"><span>urn:graph:B</span>`)

	// Re-enumeration keeps the selection.
	_, body = client.Post("/api/graphs/refresh", nil)
	assert.Contains(t, body, `<li class="selected"><span>urn:graph:B</span>`)

	// Queries from the same session are scoped to the graph.
	_, _ = client.Post("/api/query/submit", nil)
	calls := f.Store.Calls()
	last := calls[len(calls)-1]
	assert.Equal(t, "urn:graph:B", last.Graph)

	_, page := client.Get("/query")
	assert.Contains(t, page, "graph: <code>urn:graph:B</code>")
}

func TestSelectSSE_MissingGraph(t *testing.T) {
	f := features.SetupTestFixture(t)
	client := f.Serve(t, routes)

	status, _ := client.Post("/api/graphs/select", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, 0, f.Deps.Workspaces.Len())
}

func TestSelectSSE_OnlyListedGraphs(t *testing.T) {
	f := features.SetupTestFixture(t)
	client := f.Serve(t, routes)

	status, _ := client.Post("/api/graphs/select?g=urn%3Agraph%3AA", nil)
	assert.Equal(t, http.StatusNotFound, status, "nothing enumerated yet")

	_, _ = client.Post("/api/graphs/refresh", nil)

	tests := []struct {
		name  string
		graph string
	}{
		{"unknown", "urn%3Agraph%3Anope"},
		{"hidden master", "http%3A%2F%2Fparliament.semwebcentral.org%2Fparliament%23MasterGraph"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := client.Post("/api/graphs/select?g="+tt.graph, nil)
			assert.Equal(t, http.StatusNotFound, status)
		})
	}

	_, page := client.Get("/graphs")
	assert.NotContains(t, page, "graph: <code>", "refused selections leave no graph selected")

	_, _ = client.Post("/api/query/submit", nil)
	calls := f.Store.Calls()
	assert.Empty(t, calls[len(calls)-1].Graph)
}

func TestPage(t *testing.T) {
	f := features.SetupTestFixture(t)
	client := f.Serve(t, routes)

	status, body := client.Get("/graphs")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "@get('/api/graphs/events')")
	assert.Contains(t, body, `id="graph-list"`)

	require.Eventually(t, func() bool {
		for _, c := range f.Store.Calls() {
			if c.Method == http.MethodGet && c.Path == "/parliament/sparql" {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond, "the first visit enumerates graphs")
}
