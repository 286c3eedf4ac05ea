package request

import (
	"time"

	"github.com/leapstack-labs/parq/internal/endpoint"
	"github.com/leapstack-labs/parq/internal/resultset"
)

// State is the lifecycle position of a controller.
type State int

// Controller states. Idle holds only until the first submission.
const (
	StateIdle State = iota
	StatePending
	StateSuccess
	StateFailure
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateSuccess:
		return "success"
	case StateFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Outcome is an immutable snapshot of a controller's state. Reply is
// populated only on success and Reason only on failure.
type Outcome struct {
	State    State
	Seq      uint64
	Reply    endpoint.Reply
	Reason   string
	Err      error
	Duration time.Duration
}

// Settled reports whether the outcome is terminal.
func (o Outcome) Settled() bool {
	return o.State == StateSuccess || o.State == StateFailure
}

// Results returns the decoded result set of a successful query, or nil.
func (o Outcome) Results() *resultset.ResultSet {
	if o.State != StateSuccess {
		return nil
	}
	return o.Reply.Results
}

// Ack returns the acknowledgement of a successful update, or nil.
func (o Outcome) Ack() *endpoint.Ack {
	if o.State != StateSuccess {
		return nil
	}
	return o.Reply.Ack
}

// Ticket identifies one submission.
type Ticket struct {
	Seq     uint64
	Request endpoint.Request
	Started time.Time
}

// Completion is what came back for a ticket, before it is applied.
type Completion struct {
	Ticket
	Reply    endpoint.Reply
	Err      error
	Duration time.Duration
}
