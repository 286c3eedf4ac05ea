// Package view holds the editable state a user works with: the query or
// update buffer, the controller that runs it, and the graph selection.
// Views publish typed events; front ends subscribe and re-render.
package view

import (
	"context"
	"log/slog"
	"sync"

	"github.com/leapstack-labs/parq/internal/endpoint"
	"github.com/leapstack-labs/parq/internal/notifier"
	"github.com/leapstack-labs/parq/internal/render"
	"github.com/leapstack-labs/parq/internal/request"
)

// Mode is the kind of operation a view submits.
type Mode string

// View modes.
const (
	ModeQuery  Mode = "query"
	ModeUpdate Mode = "update"
	ModeGraphs Mode = "graphs"
)

// EventKind distinguishes view events.
type EventKind int

// Event kinds.
const (
	EventPending EventKind = iota
	EventResultChanged
	EventSelectionChanged
)

func (k EventKind) String() string {
	switch k {
	case EventPending:
		return "pending"
	case EventResultChanged:
		return "result-changed"
	case EventSelectionChanged:
		return "selection-changed"
	default:
		return "unknown"
	}
}

// Event is published whenever a view's visible state changes.
type Event struct {
	Kind      EventKind
	Mode      Mode
	Seq       uint64
	Outcome   request.Outcome
	Selection string
}

// Option configures a view.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	recorder   request.Recorder
	prefixes   Prefixes
	template   string
	hideMaster bool
}

// WithLogger sets the logger handed to the view's controller.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithRecorder records every completed submission.
func WithRecorder(r request.Recorder) Option {
	return func(o *options) { o.recorder = r }
}

// WithPrefixes sets the namespace prefixes the default template declares.
func WithPrefixes(p Prefixes) Option {
	return func(o *options) { o.prefixes = p }
}

// WithTemplate overrides the default buffer entirely.
func WithTemplate(text string) Option {
	return func(o *options) { o.template = text }
}

// WithHideMasterGraph drops Parliament's master graph from enumerations.
func WithHideMasterGraph(hide bool) Option {
	return func(o *options) { o.hideMaster = hide }
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.Default(), prefixes: DefaultPrefixes(), hideMaster: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Submission is an editable buffer bound to its own controller.
type Submission struct {
	mode     Mode
	ep       *endpoint.Endpoint
	ctrl     *request.Controller
	template string
	events   *notifier.Notifier[Event]

	mu     sync.Mutex
	buffer string
	graph  string
}

// NewQuery creates a view that submits its buffer as a query.
func NewQuery(ep *endpoint.Endpoint, t endpoint.Transport, opts ...Option) *Submission {
	o := buildOptions(opts)
	if o.template == "" {
		o.template = QueryTemplate(o.prefixes)
	}
	return newSubmission(ModeQuery, ep, t, endpoint.DecodeResults, o)
}

// NewUpdate creates a view that submits its buffer as an update.
func NewUpdate(ep *endpoint.Endpoint, t endpoint.Transport, opts ...Option) *Submission {
	o := buildOptions(opts)
	if o.template == "" {
		o.template = UpdateTemplate(o.prefixes)
	}
	return newSubmission(ModeUpdate, ep, t, endpoint.DecodeAck, o)
}

func newSubmission(mode Mode, ep *endpoint.Endpoint, t endpoint.Transport, decode endpoint.Decoder, o options) *Submission {
	s := &Submission{
		mode:     mode,
		ep:       ep,
		template: o.template,
		buffer:   o.template,
		events:   notifier.New[Event](),
	}

	ctrlOpts := []request.Option{
		request.WithLogger(o.logger.With(slog.String("view", string(mode)))),
		request.WithObserver(s.publish),
	}
	if o.recorder != nil {
		ctrlOpts = append(ctrlOpts, request.WithRecorder(o.recorder))
	}
	s.ctrl = request.New(t, decode, ctrlOpts...)
	return s
}

func (s *Submission) publish(o request.Outcome) {
	kind := EventResultChanged
	if o.State == request.StatePending {
		kind = EventPending
	}
	s.events.Broadcast(Event{Kind: kind, Mode: s.mode, Seq: o.Seq, Outcome: o})
}

// Mode returns what the view submits.
func (s *Submission) Mode() Mode { return s.mode }

// Controller exposes the controller for hosts that drive Begin, Run and
// Settle from their own event loop.
func (s *Submission) Controller() *request.Controller { return s.ctrl }

// Buffer returns the current buffer text.
func (s *Submission) Buffer() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buffer
}

// UpdateBuffer replaces the buffer. It never triggers a submission.
func (s *Submission) UpdateBuffer(text string) {
	s.mu.Lock()
	s.buffer = text
	s.mu.Unlock()
}

// Reset restores the default template.
func (s *Submission) Reset() {
	s.UpdateBuffer(s.template)
}

// Template returns the default buffer text.
func (s *Submission) Template() string { return s.template }

// SetGraph scopes later submissions to a named graph. The empty string
// removes the scope.
func (s *Submission) SetGraph(graph string) {
	s.mu.Lock()
	s.graph = graph
	s.mu.Unlock()
}

// Graph returns the current graph scope.
func (s *Submission) Graph() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph
}

// Request builds the protocol request for the current buffer.
func (s *Submission) Request() endpoint.Request {
	s.mu.Lock()
	payload, graph := s.buffer, s.graph
	s.mu.Unlock()

	var req endpoint.Request
	if s.mode == ModeUpdate {
		req = s.ep.Update(payload)
	} else {
		req = s.ep.Query(payload)
	}
	req.Graph = graph
	return req
}

// Submit sends the buffer. The view is Pending when Submit returns and
// the result arrives as an EventResultChanged.
func (s *Submission) Submit(ctx context.Context) request.Ticket {
	return s.ctrl.Submit(ctx, s.Request())
}

// Begin starts a submission without running it. See request.Controller.
func (s *Submission) Begin() request.Ticket {
	return s.ctrl.Begin(s.Request())
}

// Outcome returns the controller's current state.
func (s *Submission) Outcome() request.Outcome {
	return s.ctrl.Outcome()
}

// Render lays out the current outcome.
func (s *Submission) Render(v render.Variant) render.Rendering {
	return render.Render(s.ctrl.Outcome(), v)
}

// Subscribe returns a channel of view events. Release it with Unsubscribe.
func (s *Submission) Subscribe() chan Event {
	return s.events.Subscribe()
}

// Unsubscribe releases a channel returned by Subscribe.
func (s *Submission) Unsubscribe(ch chan Event) {
	s.events.Unsubscribe(ch)
}
