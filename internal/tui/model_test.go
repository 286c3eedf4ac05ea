package tui

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/parq/internal/endpoint"
	"github.com/leapstack-labs/parq/internal/request"
	"github.com/leapstack-labs/parq/internal/ui/workspace"
)

const (
	oneRow = `{"head":{"vars":["s"]},"results":{"bindings":[
	{"s":{"type":"uri","value":"urn:ex:first"}}
]}}`

	twoRows = `{"head":{"vars":["s","o"]},"results":{"bindings":[
	{"s":{"type":"uri","value":"urn:ex:alice"},"o":{"type":"literal","value":"Alice"}},
	{"s":{"type":"uri","value":"urn:ex:bob"}}
]}}`

	graphsDoc = `{"head":{"vars":["g"]},"results":{"bindings":[
	{"g":{"type":"uri","value":"http://parliament.semwebcentral.org/parliament#MasterGraph"}},
	{"g":{"type":"uri","value":"urn:graph:A"}},
	{"g":{"type":"uri","value":"urn:graph:B"}}
]}}`
)

// fakeStore answers graph enumerations with graphsDoc, queries mentioning
// "first" with oneRow and everything else with twoRows.
type fakeStore struct {
	mu     sync.Mutex
	graphs []string
}

func (f *fakeStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_, _ = io.ReadAll(r.Body)
	if r.Method == http.MethodPost {
		return
	}
	q := r.URL.Query()
	f.mu.Lock()
	f.graphs = append(f.graphs, q.Get("default-graph-uri"))
	f.mu.Unlock()

	w.Header().Set("Content-Type", endpoint.ContentTypeSPARQLResults)
	switch query := q.Get("query"); {
	case strings.Contains(query, "NamedGraph"):
		_, _ = io.WriteString(w, graphsDoc)
	case strings.Contains(query, "first"):
		_, _ = io.WriteString(w, oneRow)
	default:
		_, _ = io.WriteString(w, twoRows)
	}
}

func (f *fakeStore) lastGraph() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.graphs[len(f.graphs)-1]
}

func setup(t *testing.T) (Model, *workspace.Workspace, *fakeStore) {
	t.Helper()
	fake := &fakeStore{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	ep, err := endpoint.New(srv.URL, endpoint.DefaultQueryPath, endpoint.DefaultUpdatePath)
	require.NoError(t, err)

	ws := workspace.New("tui", ep, srv.Client(), workspace.Settings{
		HideMaster: true,
		Logger:     slog.New(slog.DiscardHandler),
	})
	return New(context.Background(), ws), ws, fake
}

// settled runs cmd and every command it batches, returning the
// settlement messages.
func settled(cmd tea.Cmd) []settledMsg {
	if cmd == nil {
		return nil
	}
	switch msg := cmd().(type) {
	case settledMsg:
		return []settledMsg{msg}
	case tea.BatchMsg:
		var out []settledMsg
		for _, c := range msg {
			out = append(out, settled(c)...)
		}
		return out
	default:
		return nil
	}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

var (
	runKey  = tea.KeyMsg{Type: tea.KeyCtrlR}
	nextTab = tea.KeyMsg{Type: tea.KeyCtrlN}
)

func TestModel_Initial(t *testing.T) {
	m, ws, _ := setup(t)

	assert.Equal(t, ws.Query.Buffer(), m.editors[TabQuery].Value())
	assert.Equal(t, ws.Update.Buffer(), m.editors[TabUpdate].Value())

	out := m.View()
	assert.Contains(t, out, "no results yet")
	assert.Contains(t, out, "default graph")
	assert.Contains(t, out, "run")
}

func TestModel_RunQuery(t *testing.T) {
	m, ws, _ := setup(t)
	m.editors[TabQuery].SetValue("SELECT ?s ?o WHERE { ?s ?p ?o }")

	m, cmd := update(t, m, runKey)
	assert.Equal(t, request.StatePending, ws.Query.Outcome().State, "pending before the call runs")
	assert.Equal(t, "SELECT ?s ?o WHERE { ?s ?p ?o }", ws.Query.Buffer())
	assert.Contains(t, m.View(), m.spinner.View(), "pending shows the spinner")
	assert.Contains(t, m.View(), "no results yet")

	msgs := settled(cmd)
	require.Len(t, msgs, 1)
	m, _ = update(t, m, msgs[0])

	assert.Equal(t, request.StateSuccess, ws.Query.Outcome().State)
	out := m.View()
	assert.Contains(t, out, "urn:ex:alice")
	assert.Contains(t, out, "Alice")
	assert.Contains(t, out, "(2 rows)")
}

func TestModel_LastSubmittedWins(t *testing.T) {
	m, ws, _ := setup(t)

	m.editors[TabQuery].SetValue("SELECT * WHERE { ?s ?p ?o } # first")
	m, first := update(t, m, runKey)
	m.editors[TabQuery].SetValue("SELECT * WHERE { ?s ?p ?o }")
	m, second := update(t, m, runKey)

	firstMsgs, secondMsgs := settled(first), settled(second)
	require.Len(t, firstMsgs, 1)
	require.Len(t, secondMsgs, 1)

	// The later submission settles first; the earlier one arrives stale.
	m, _ = update(t, m, secondMsgs[0])
	m, _ = update(t, m, firstMsgs[0])

	o := ws.Query.Outcome()
	assert.Equal(t, request.StateSuccess, o.State)
	assert.Equal(t, 2, o.Results().Len())
	assert.Contains(t, m.View(), "(2 rows)")
	assert.NotContains(t, m.View(), "urn:ex:first")
}

func TestModel_Reset(t *testing.T) {
	m, ws, _ := setup(t)
	template := ws.Query.Template()

	m.editors[TabQuery].SetValue("ASK {}")
	m, cmd := update(t, m, runKey)
	for _, msg := range settled(cmd) {
		m, _ = update(t, m, msg)
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})
	assert.Equal(t, template, m.editors[TabQuery].Value())
	assert.Equal(t, template, ws.Query.Buffer())
}

func TestModel_Update(t *testing.T) {
	m, ws, _ := setup(t)

	m, _ = update(t, m, nextTab)
	require.Equal(t, TabUpdate, m.tab)

	m, cmd := update(t, m, runKey)
	for _, msg := range settled(cmd) {
		m, _ = update(t, m, msg)
	}

	assert.Equal(t, request.StateSuccess, ws.Update.Outcome().State)
	assert.Contains(t, m.View(), "update accepted: 200 OK")
}

func TestModel_GraphSelection(t *testing.T) {
	m, ws, fake := setup(t)

	m, _ = update(t, m, nextTab)
	m, cmd := update(t, m, nextTab)
	require.Equal(t, TabGraphs, m.tab)
	require.NotNil(t, cmd, "first visit enumerates graphs")

	for _, msg := range settled(cmd) {
		m, _ = update(t, m, msg)
	}
	require.Len(t, m.graphs.Items(), 2, "master graph hidden")
	assert.Contains(t, m.View(), "urn:graph:A")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, "urn:graph:B", ws.Selection())
	assert.Equal(t, "urn:graph:B", ws.Query.Graph())
	assert.Contains(t, m.View(), "graph: urn:graph:B")
	assert.Contains(t, m.View(), "(in use)")

	// Back on the query tab, runs are scoped to the selection.
	m, _ = update(t, m, nextTab)
	require.Equal(t, TabQuery, m.tab)
	m, cmd = update(t, m, runKey)
	for _, msg := range settled(cmd) {
		m, _ = update(t, m, msg)
	}
	assert.Equal(t, "urn:graph:B", fake.lastGraph())
}

func TestModel_Quit(t *testing.T) {
	m, _, _ := setup(t)

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
