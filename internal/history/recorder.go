package history

import (
	"context"
	"log/slog"

	"github.com/leapstack-labs/parq/internal/endpoint"
	"github.com/leapstack-labs/parq/internal/request"
)

var _ request.Recorder = (*Recorder)(nil)

// Recorder adapts a Store to request.Recorder for one view mode.
type Recorder struct {
	store  *Store
	mode   string
	logger *slog.Logger
}

// Recorder returns a request.Recorder that tags entries with mode.
func (s *Store) Recorder(mode string, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{store: s, mode: mode, logger: logger}
}

// Record stores c. History is best effort: write failures are logged and
// never reach the controller.
func (r *Recorder) Record(c request.Completion, stale bool) {
	e := EntryFromCompletion(r.mode, c, stale)
	if _, err := r.store.Record(context.Background(), e); err != nil {
		r.logger.Warn("failed to record submission", slog.String("error", err.Error()))
	}
}

// EntryFromCompletion builds the entry for a completion.
func EntryFromCompletion(mode string, c request.Completion, stale bool) Entry {
	e := Entry{
		Mode:        mode,
		Method:      c.Request.Method,
		Target:      c.Request.Target,
		Graph:       c.Request.Graph,
		Payload:     c.Request.Payload,
		SubmittedAt: c.Started,
		Duration:    c.Duration,
	}

	switch {
	case stale:
		e.State = StateStale
	case c.Err != nil:
		e.State = StateFailure
	default:
		e.State = StateSuccess
	}
	if c.Err != nil {
		e.Reason = endpoint.Reason(c.Err)
	}
	if c.Reply.Results != nil {
		e.Rows = c.Reply.Results.Len()
	}
	return e
}
