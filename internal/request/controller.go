// Package request owns the lifecycle of one outstanding endpoint
// operation: Idle, then Pending, then Success or Failure, with every
// re-submission going back to Pending.
//
// Only the most recently issued submission may settle the controller.
// Each submission carries a sequence number and completions that arrive
// for an older number are discarded, so a slow early request can never
// overwrite the result of a later one.
package request

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/leapstack-labs/parq/internal/endpoint"
)

// Recorder observes every completion, including discarded stale ones.
type Recorder interface {
	Record(c Completion, stale bool)
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithRecorder attaches a submission recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) { c.recorder = r }
}

// WithObserver registers fn to receive every state transition in order.
// fn must not call Begin, Submit or Settle on the same controller.
func WithObserver(fn func(Outcome)) Option {
	return func(c *Controller) { c.observers = append(c.observers, fn) }
}

// Controller runs submissions against an endpoint and holds the latest
// outcome. It is safe for concurrent use.
type Controller struct {
	transport endpoint.Transport
	decode    endpoint.Decoder
	logger    *slog.Logger
	recorder  Recorder
	observers []func(Outcome)

	// emitMu serializes transitions with their notifications so
	// observers see them in the order they were applied.
	emitMu sync.Mutex

	mu      sync.Mutex
	seq     uint64
	outcome Outcome
}

// New creates a controller that decodes successful replies with decode.
func New(transport endpoint.Transport, decode endpoint.Decoder, opts ...Option) *Controller {
	c := &Controller{
		transport: transport,
		decode:    decode,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Outcome returns the current state snapshot.
func (c *Controller) Outcome() Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcome
}

// Submit moves the controller to Pending before returning and performs
// the network call in the background. Earlier in-flight submissions are
// superseded.
func (c *Controller) Submit(ctx context.Context, req endpoint.Request) Ticket {
	t := c.Begin(req)
	go func() {
		c.Settle(c.Run(ctx, t))
	}()
	return t
}

// Begin issues a new sequence number and transitions to Pending. Hosts
// with their own event loop call Begin, then Run off-loop, then Settle.
func (c *Controller) Begin(req endpoint.Request) Ticket {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	c.seq++
	t := Ticket{Seq: c.seq, Request: req, Started: time.Now()}
	c.outcome = Outcome{State: StatePending, Seq: t.Seq}
	snapshot := c.outcome
	c.mu.Unlock()

	c.logger.Debug("submission started",
		slog.Uint64("seq", t.Seq),
		slog.String("method", req.Method),
		slog.String("target", req.Target))

	c.notify(snapshot)
	return t
}

// Run performs the network call for t and decodes the reply. It does not
// touch controller state.
func (c *Controller) Run(ctx context.Context, t Ticket) Completion {
	comp := Completion{Ticket: t}

	resp, err := endpoint.Execute(ctx, c.transport, t.Request)
	if err == nil {
		comp.Reply, err = c.decode(resp)
	}
	comp.Err = err
	comp.Duration = time.Since(t.Started)
	return comp
}

// Settle applies comp if it belongs to the latest submission and reports
// whether it did. Stale completions are dropped.
func (c *Controller) Settle(comp Completion) bool {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	if comp.Seq != c.seq {
		latest := c.seq
		c.mu.Unlock()

		c.logger.Debug("stale result discarded",
			slog.Uint64("seq", comp.Seq),
			slog.Uint64("latest", latest))
		c.record(comp, true)
		return false
	}

	outcome := Outcome{Seq: comp.Seq, Duration: comp.Duration}
	if comp.Err != nil {
		outcome.State = StateFailure
		outcome.Err = comp.Err
		outcome.Reason = endpoint.Reason(comp.Err)
	} else {
		outcome.State = StateSuccess
		outcome.Reply = comp.Reply
	}
	c.outcome = outcome
	c.mu.Unlock()

	if outcome.State == StateFailure {
		c.logger.Info("submission failed",
			slog.Uint64("seq", comp.Seq),
			slog.String("reason", outcome.Reason),
			slog.Duration("duration", comp.Duration))
	} else {
		c.logger.Debug("submission succeeded",
			slog.Uint64("seq", comp.Seq),
			slog.Duration("duration", comp.Duration))
	}

	c.record(comp, false)
	c.notify(outcome)
	return true
}

func (c *Controller) notify(o Outcome) {
	for _, fn := range c.observers {
		fn(o)
	}
}

func (c *Controller) record(comp Completion, stale bool) {
	if c.recorder != nil {
		c.recorder.Record(comp, stale)
	}
}
