// Package render turns controller outcomes into display-ready data.
//
// Render is pure: it never touches a view or a controller, and the same
// outcome always produces the same Rendering. Front ends (web templates,
// the terminal UI, the text writers in this package) only draw what a
// Rendering already says.
package render

import (
	"fmt"
	"net/http"

	"github.com/leapstack-labs/parq/internal/endpoint"
	"github.com/leapstack-labs/parq/internal/request"
	"github.com/leapstack-labs/parq/internal/resultset"
)

// Variant selects how a result set is laid out.
type Variant int

// Layout variants.
const (
	Tabular Variant = iota
	SingleColumn
	SelectableList
)

func (v Variant) String() string {
	switch v {
	case Tabular:
		return "tabular"
	case SingleColumn:
		return "single-column"
	case SelectableList:
		return "selectable-list"
	default:
		return fmt.Sprintf("variant(%d)", int(v))
	}
}

// Kind is what a Rendering shows.
type Kind int

// Rendering kinds.
const (
	KindPlaceholder Kind = iota
	KindFailure
	KindAck
	KindTable
	KindList
)

// NoResultsText is the placeholder shown until a submission settles.
// Pending work shows it too; hosts that want a busy indicator check
// Rendering.State.
const NoResultsText = "no results yet"

// Item is one entry of a single-column or selectable list. Value is what
// activating a selectable item reports; it is empty for plain lists.
type Item struct {
	Text     string
	Value    string
	Selected bool
}

// Rendering is the display-ready form of an outcome.
type Rendering struct {
	Kind    Kind
	Variant Variant
	Seq     uint64
	State   request.State

	// Message is the placeholder text, the failure reason or the
	// acknowledgement summary.
	Message string

	Header []string
	Rows   [][]string
	Items  []Item

	Results *resultset.ResultSet
	Ack     *endpoint.Ack
}

// Len returns the number of rows or items shown.
func (r Rendering) Len() int {
	if r.Kind == KindList {
		return len(r.Items)
	}
	return len(r.Rows)
}

// Render lays out o in the given variant.
func Render(o request.Outcome, v Variant) Rendering {
	base := Rendering{Variant: v, Seq: o.Seq, State: o.State}

	switch o.State {
	case request.StatePending:
		base.Kind = KindPlaceholder
		base.Message = NoResultsText
		return base
	case request.StateFailure:
		base.Kind = KindFailure
		base.Message = o.Reason
		return base
	case request.StateSuccess:
		if rs := o.Results(); rs != nil {
			r := Results(rs, v)
			r.Seq, r.State = o.Seq, o.State
			return r
		}
		if ack := o.Ack(); ack != nil {
			base.Kind = KindAck
			base.Ack = ack
			base.Message = AckSummary(ack)
			return base
		}
	}

	base.Kind = KindPlaceholder
	base.Message = NoResultsText
	return base
}

// Results lays out a result set on its own.
func Results(rs *resultset.ResultSet, v Variant) Rendering {
	r := Rendering{Variant: v, State: request.StateSuccess, Results: rs}
	cols := rs.Columns()

	if v == Tabular {
		r.Kind = KindTable
		r.Header = cols
		r.Rows = make([][]string, rs.Len())
		for i := range r.Rows {
			row := make([]string, len(cols))
			for j, col := range cols {
				if val, ok := rs.Value(i, col); ok {
					row[j] = val.Value
				}
			}
			r.Rows[i] = row
		}
		return r
	}

	r.Kind = KindList
	r.Items = []Item{}
	if len(cols) == 0 {
		return r
	}
	r.Header = cols[:1]
	for _, val := range rs.Column(cols[0]) {
		item := Item{Text: val.Value}
		if v == SelectableList {
			item.Value = val.Value
		}
		r.Items = append(r.Items, item)
	}
	return r
}

// AckSummary is the one-line text shown for an accepted update.
func AckSummary(ack *endpoint.Ack) string {
	return fmt.Sprintf("update accepted: %d %s", ack.StatusCode, http.StatusText(ack.StatusCode))
}
