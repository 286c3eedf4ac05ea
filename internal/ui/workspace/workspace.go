// Package workspace binds a browser session to its own set of views, so
// two browsers never share buffers, results or graph selections.
package workspace

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/leapstack-labs/parq/internal/endpoint"
	"github.com/leapstack-labs/parq/internal/history"
	"github.com/leapstack-labs/parq/internal/render"
	"github.com/leapstack-labs/parq/internal/view"
)

const (
	sessionName = "parq"
	sessionKey  = "workspace"
)

// Workspace is one session's views.
type Workspace struct {
	ID     string
	Query  *view.Submission
	Update *view.Submission
	Graphs *view.Graphs
}

// Submission returns the view for mode, or nil for an unknown mode.
func (w *Workspace) Submission(mode view.Mode) *view.Submission {
	switch mode {
	case view.ModeQuery:
		return w.Query
	case view.ModeUpdate:
		return w.Update
	case view.ModeGraphs:
		return w.Graphs.Submission
	default:
		return nil
	}
}

// SelectGraph records the selection and scopes the query and update
// views to it.
func (w *Workspace) SelectGraph(graph string) {
	w.Graphs.Select(graph)
	w.Query.SetGraph(graph)
	w.Update.SetGraph(graph)
}

// ActivateGraph selects item index of a rendered graph list and scopes
// the query and update views to it.
func (w *Workspace) ActivateGraph(r render.Rendering, index int) error {
	if err := w.Graphs.Activate(r, index); err != nil {
		return err
	}
	graph := r.Items[index].Value
	w.Query.SetGraph(graph)
	w.Update.SetGraph(graph)
	return nil
}

// Selection returns the selected graph or the empty string.
func (w *Workspace) Selection() string {
	g, _ := w.Graphs.Selection()
	return g
}

// Settings configure the views of new workspaces.
type Settings struct {
	Prefixes   view.Prefixes
	HideMaster bool
	// History, when set, records every completed submission.
	History *history.Store
	Logger  *slog.Logger
}

// New builds a workspace whose views talk to ep over t.
func New(id string, ep *endpoint.Endpoint, t endpoint.Transport, s Settings) *Workspace {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("workspace", id))

	opts := func(mode view.Mode) []view.Option {
		o := []view.Option{
			view.WithLogger(logger),
			view.WithHideMasterGraph(s.HideMaster),
		}
		if s.Prefixes != nil {
			o = append(o, view.WithPrefixes(s.Prefixes))
		}
		if s.History != nil {
			o = append(o, view.WithRecorder(s.History.Recorder(string(mode), logger)))
		}
		return o
	}

	return &Workspace{
		ID:     id,
		Query:  view.NewQuery(ep, t, opts(view.ModeQuery)...),
		Update: view.NewUpdate(ep, t, opts(view.ModeUpdate)...),
		Graphs: view.NewGraphs(ep, t, opts(view.ModeGraphs)...),
	}
}

// Factory builds the views for a new workspace.
type Factory func(id string) *Workspace

// NewFactory returns a Factory that calls New with fixed arguments.
func NewFactory(ep *endpoint.Endpoint, t endpoint.Transport, s Settings) Factory {
	return func(id string) *Workspace { return New(id, ep, t, s) }
}

// Registry bounds.
const (
	DefaultMaxWorkspaces = 256
	DefaultIdleTimeout   = 30 * time.Minute
)

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithMaxWorkspaces caps the number of live workspaces. The least
// recently used one is dropped to make room.
func WithMaxWorkspaces(n int) RegistryOption {
	return func(r *Registry) { r.max = n }
}

// WithIdleTimeout drops workspaces unused for longer than d.
func WithIdleTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) { r.idle = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) { r.now = now }
}

type entry struct {
	ws       *Workspace
	lastUsed time.Time
}

// Registry holds live workspaces keyed by id. A dropped workspace comes
// back empty on its session's next request.
type Registry struct {
	mu      sync.Mutex
	items   map[string]*entry
	factory Factory
	max     int
	idle    time.Duration
	now     func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry(factory Factory, opts ...RegistryOption) *Registry {
	r := &Registry{
		items:   make(map[string]*entry),
		factory: factory,
		max:     DefaultMaxWorkspaces,
		idle:    DefaultIdleTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the workspace for id, creating it on first use.
func (r *Registry) Get(id string) *Workspace {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if e, ok := r.items[id]; ok {
		e.lastUsed = now
		return e.ws
	}

	r.evict(now)
	e := &entry{ws: r.factory(id), lastUsed: now}
	r.items[id] = e
	return e.ws
}

// evict drops idle workspaces, then the least recently used ones until
// there is room for one more. Callers hold mu.
func (r *Registry) evict(now time.Time) {
	if r.idle > 0 {
		for id, e := range r.items {
			if now.Sub(e.lastUsed) > r.idle {
				delete(r.items, id)
			}
		}
	}
	for r.max > 0 && len(r.items) >= r.max {
		var (
			oldestID string
			oldest   time.Time
		)
		for id, e := range r.items {
			if oldestID == "" || e.lastUsed.Before(oldest) {
				oldestID, oldest = id, e.lastUsed
			}
		}
		delete(r.items, oldestID)
	}
}

// Len returns the number of workspaces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// FromRequest resolves the caller's workspace through its session,
// issuing a new id when the session has none. It writes the session
// cookie, so it must run before the response body is started.
func (r *Registry) FromRequest(w http.ResponseWriter, req *http.Request, store sessions.Store) (*Workspace, error) {
	// A cookie that fails to decode yields a fresh session.
	session, _ := store.Get(req, sessionName)
	if session == nil {
		return nil, fmt.Errorf("failed to load session")
	}

	id, _ := session.Values[sessionKey].(string)
	if id == "" {
		id = uuid.NewString()
		session.Values[sessionKey] = id
		if err := session.Save(req, w); err != nil {
			return nil, fmt.Errorf("failed to save session: %w", err)
		}
	}
	return r.Get(id), nil
}
