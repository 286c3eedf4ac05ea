package testutil

import (
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/leapstack-labs/parq/internal/endpoint"
)

// Canned documents served by FakeStore.
const (
	RowsDoc = `{"head":{"vars":["s","o"]},"results":{"bindings":[
	{"s":{"type":"uri","value":"urn:ex:alice"},"o":{"type":"literal","value":"Alice"}},
	{"s":{"type":"uri","value":"urn:ex:bob"}}
]}}`

	GraphsDoc = `{"head":{"vars":["g"]},"results":{"bindings":[
	{"g":{"type":"uri","value":"http://parliament.semwebcentral.org/parliament#MasterGraph"}},
	{"g":{"type":"uri","value":"urn:graph:A"}},
	{"g":{"type":"uri","value":"urn:graph:B"}}
]}}`

	// FailMarker in a query or update makes FakeStore answer 500.
	FailMarker = "FAIL_ME"
	// FailMessage is the message of that 500.
	FailMessage = "store refused the request"
)

// Call is one request FakeStore received.
type Call struct {
	Method string
	Path   string
	Query  string
	Graph  string
	Body   string
}

// FakeStore stands in for a Parliament server. Graph enumerations get
// GraphsDoc, other queries get RowsDoc and updates get an empty 200.
// Anything containing FailMarker gets a Parliament-style JSON 500.
type FakeStore struct {
	mu    sync.Mutex
	calls []Call
}

func (f *FakeStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	q := r.URL.Query()
	call := Call{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  q.Get("query"),
		Graph:  q.Get("default-graph-uri") + q.Get("using-graph-uri"),
		Body:   string(data),
	}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()

	if strings.Contains(call.Query+call.Body, FailMarker) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"status":"500","message":"`+FailMessage+`"}`)
		return
	}
	if r.Method == http.MethodPost {
		w.WriteHeader(http.StatusOK)
		return
	}
	w.Header().Set("Content-Type", endpoint.ContentTypeSPARQLResults)
	if strings.Contains(call.Query, "NamedGraph") {
		_, _ = io.WriteString(w, GraphsDoc)
		return
	}
	_, _ = io.WriteString(w, RowsDoc)
}

// Calls returns a copy of the received requests.
func (f *FakeStore) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}
