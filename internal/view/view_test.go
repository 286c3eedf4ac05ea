package view

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/parq/internal/endpoint"
	"github.com/leapstack-labs/parq/internal/render"
	"github.com/leapstack-labs/parq/internal/request"
	"github.com/leapstack-labs/parq/internal/testutil"
)

const twoGraphs = `{"head":{"vars":["g"]},"results":{"bindings":[
	{"g":{"type":"uri","value":"urn:graph:A"}},
	{"g":{"type":"uri","value":"urn:graph:B"}}
]}}`

const withMaster = `{"head":{"vars":["g"]},"results":{"bindings":[
	{"g":{"type":"uri","value":"http://parliament.semwebcentral.org/parliament#MasterGraph"}},
	{"g":{"type":"uri","value":"urn:graph:A"}}
]}}`

// storeHandler is a minimal Parliament stand-in.
type storeHandler struct {
	mu       sync.Mutex
	requests []*recordedRequest

	status int
	body   string
	gate   chan struct{}
}

type recordedRequest struct {
	method string
	path   string
	query  string
	body   string
	ctype  string
}

func (h *storeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	h.mu.Lock()
	h.requests = append(h.requests, &recordedRequest{
		method: r.Method,
		path:   r.URL.Path,
		query:  r.URL.Query().Get("query"),
		body:   string(data),
		ctype:  r.Header.Get("Content-Type"),
	})
	h.mu.Unlock()

	if h.gate != nil {
		<-h.gate
	}
	w.Header().Set("Content-Type", endpoint.ContentTypeSPARQLResults)
	if h.status != 0 {
		w.WriteHeader(h.status)
	}
	_, _ = w.Write([]byte(h.body))
}

func (h *storeHandler) calls() []*recordedRequest {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*recordedRequest(nil), h.requests...)
}

func newStore(t *testing.T, h *storeHandler) *endpoint.Endpoint {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	ep, err := endpoint.New(srv.URL+"/parliament", endpoint.DefaultQueryPath, endpoint.DefaultUpdatePath)
	require.NoError(t, err)
	return ep
}

func waitFor(t *testing.T, ch chan Event, kind EventKind) Event {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev := <-ch:
			if ev.Kind == kind {
				return ev
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s event", kind)
			return Event{}
		}
	}
}

func TestPrefixes(t *testing.T) {
	p := DefaultPrefixes().With(map[string]string{"ex": "http://example.org/"})

	assert.Equal(t, []string{"ex", "owl", "par", "rdf", "rdfs", "xsd"}, p.Names())
	decl := p.Declarations()
	assert.True(t, strings.HasPrefix(decl, "PREFIX ex: <http://example.org/>\n"))
	assert.Contains(t, decl, "PREFIX par: <"+endpoint.ParliamentNS+">\n")

	_, ok := DefaultPrefixes()["ex"]
	assert.False(t, ok, "With must not mutate the receiver")
}

func TestTemplates(t *testing.T) {
	p := Prefixes{"ex": "http://example.org/"}

	q := QueryTemplate(p)
	assert.True(t, strings.HasPrefix(q, "PREFIX ex: <http://example.org/>\n"))
	assert.Contains(t, q, "SELECT ?s ?p ?o WHERE {")
	assert.Contains(t, q, "LIMIT 100")

	u := UpdateTemplate(p)
	insert := strings.Index(u, "INSERT DATA {")
	sep := strings.Index(u, "\n;\n")
	del := strings.Index(u, "DELETE DATA {")
	assert.True(t, insert > 0 && insert < sep && sep < del, u)
}

func TestSubmission_BufferAndReset(t *testing.T) {
	ep := newStore(t, &storeHandler{})
	v := NewQuery(ep, http.DefaultClient, WithTemplate("SELECT 1"))

	assert.Equal(t, ModeQuery, v.Mode())
	assert.Equal(t, "SELECT 1", v.Buffer())

	v.UpdateBuffer("SELECT 2")
	assert.Equal(t, "SELECT 2", v.Buffer())
	assert.Equal(t, request.StateIdle, v.Outcome().State, "editing never submits")

	v.Reset()
	assert.Equal(t, "SELECT 1", v.Buffer())
}

func TestSubmission_QueryEvents(t *testing.T) {
	h := &storeHandler{body: twoGraphs}
	ep := newStore(t, h)
	v := NewQuery(ep, http.DefaultClient, WithLogger(testutil.NewTestLogger(t)))
	v.UpdateBuffer("SELECT ?g WHERE { GRAPH ?g { } }")

	ch := v.Subscribe()
	defer v.Unsubscribe(ch)

	ticket := v.Submit(context.Background())
	assert.Equal(t, request.StatePending, v.Outcome().State)

	pending := waitFor(t, ch, EventPending)
	assert.Equal(t, ticket.Seq, pending.Seq)

	ev := waitFor(t, ch, EventResultChanged)
	assert.Equal(t, ticket.Seq, ev.Seq)
	require.Equal(t, request.StateSuccess, ev.Outcome.State)
	assert.Equal(t, 2, ev.Outcome.Results().Len())

	calls := h.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodGet, calls[0].method)
	assert.Equal(t, "/parliament/sparql", calls[0].path)
	assert.Equal(t, "SELECT ?g WHERE { GRAPH ?g { } }", calls[0].query)
}

func TestSubmission_MalformedKeepsBuffer(t *testing.T) {
	ep := newStore(t, &storeHandler{body: `{"head":{"vars":["x"]}}`})
	v := NewQuery(ep, http.DefaultClient, WithLogger(testutil.NewTestLogger(t)))
	v.UpdateBuffer("SELECT ?x WHERE { ?x ?y ?z }")

	ch := v.Subscribe()
	defer v.Unsubscribe(ch)

	v.Submit(context.Background())
	ev := waitFor(t, ch, EventResultChanged)

	assert.Equal(t, request.StateFailure, ev.Outcome.State)
	assert.NotEmpty(t, ev.Outcome.Reason)
	assert.Equal(t, "SELECT ?x WHERE { ?x ?y ?z }", v.Buffer())

	r := v.Render(render.Tabular)
	assert.Equal(t, render.KindFailure, r.Kind)
}

func TestSubmission_WhitespaceUpdatePostsOnce(t *testing.T) {
	h := &storeHandler{gate: make(chan struct{})}
	ep := newStore(t, h)
	v := NewUpdate(ep, http.DefaultClient, WithLogger(testutil.NewTestLogger(t)))

	update := "INSERT DATA {\n  \n}\n;\nDELETE DATA {\n\t\n}"
	v.UpdateBuffer(update)

	ch := v.Subscribe()
	defer v.Unsubscribe(ch)

	v.Submit(context.Background())
	waitFor(t, ch, EventPending)

	require.Eventually(t, func() bool { return len(h.calls()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, request.StatePending, v.Outcome().State, "must not settle before the endpoint replies")

	close(h.gate)
	ev := waitFor(t, ch, EventResultChanged)
	require.Equal(t, request.StateSuccess, ev.Outcome.State)
	assert.NotNil(t, ev.Outcome.Ack())

	calls := h.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodPost, calls[0].method)
	assert.Equal(t, "/parliament/update", calls[0].path)
	assert.Equal(t, endpoint.ContentTypeSPARQLUpdate, calls[0].ctype)
	assert.Equal(t, update, calls[0].body)
}

func TestSubmission_GraphScope(t *testing.T) {
	ep, err := endpoint.New(endpoint.DefaultURL, endpoint.DefaultQueryPath, endpoint.DefaultUpdatePath)
	require.NoError(t, err)

	v := NewQuery(ep, http.DefaultClient)
	assert.Empty(t, v.Request().Graph)

	v.SetGraph("urn:graph:A")
	assert.Equal(t, "urn:graph:A", v.Graph())
	req := v.Request()
	assert.Equal(t, "urn:graph:A", req.Graph)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, v.Buffer(), req.Payload)
}

func TestGraphs_ActivateSelectsItem(t *testing.T) {
	h := &storeHandler{body: twoGraphs}
	ep := newStore(t, h)
	g := NewGraphs(ep, http.DefaultClient, WithLogger(testutil.NewTestLogger(t)))

	ch := g.Subscribe()
	defer g.Unsubscribe(ch)

	g.Refresh(context.Background())
	waitFor(t, ch, EventResultChanged)

	calls := h.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, endpoint.GraphEnumerationQuery, calls[0].query)

	r := g.RenderList()
	require.Len(t, r.Items, 2)
	assert.Equal(t, "urn:graph:A", r.Items[0].Text)
	assert.Equal(t, "urn:graph:B", r.Items[1].Text)

	_, ok := g.Selection()
	assert.False(t, ok)

	require.NoError(t, g.Activate(r, 1))
	sel := waitFor(t, ch, EventSelectionChanged)
	assert.Equal(t, "urn:graph:B", sel.Selection)

	value, ok := g.Selection()
	assert.True(t, ok)
	assert.Equal(t, "urn:graph:B", value)

	marked := g.RenderList()
	assert.False(t, marked.Items[0].Selected)
	assert.True(t, marked.Items[1].Selected)

	assert.Error(t, g.Activate(r, 2))
	assert.Error(t, g.Activate(g.Render(render.Tabular), 0))
}

func TestGraphs_ReenumerationKeepsSelection(t *testing.T) {
	h := &storeHandler{body: twoGraphs}
	ep := newStore(t, h)
	g := NewGraphs(ep, http.DefaultClient)

	ch := g.Subscribe()
	defer g.Unsubscribe(ch)

	g.Select("urn:graph:gone")
	g.Refresh(context.Background())
	waitFor(t, ch, EventResultChanged)

	value, ok := g.Selection()
	assert.True(t, ok)
	assert.Equal(t, "urn:graph:gone", value)
	assert.Equal(t, []string{"urn:graph:A", "urn:graph:B"}, g.Names())
}

func TestGraphs_MasterGraphFilter(t *testing.T) {
	tests := []struct {
		name string
		hide bool
		want []string
	}{
		{"hidden", true, []string{"urn:graph:A"}},
		{"shown", false, []string{endpoint.MasterGraph, "urn:graph:A"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ep := newStore(t, &storeHandler{body: withMaster})
			g := NewGraphs(ep, http.DefaultClient, WithHideMasterGraph(tt.hide))

			ch := g.Subscribe()
			defer g.Unsubscribe(ch)

			g.Refresh(context.Background())
			waitFor(t, ch, EventResultChanged)
			assert.Equal(t, tt.want, g.Names())
		})
	}
}
