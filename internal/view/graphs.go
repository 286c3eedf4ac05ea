package view

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/leapstack-labs/parq/internal/endpoint"
	"github.com/leapstack-labs/parq/internal/render"
	"github.com/leapstack-labs/parq/internal/request"
	"github.com/leapstack-labs/parq/internal/resultset"
)

// Graphs enumerates the store's named graphs and remembers which one the
// user picked. The selection only changes through Select or Activate.
type Graphs struct {
	*Submission

	selMu     sync.Mutex
	selection string
	selected  bool
}

// NewGraphs creates a graph selection view.
func NewGraphs(ep *endpoint.Endpoint, t endpoint.Transport, opts ...Option) *Graphs {
	o := buildOptions(opts)
	o.template = endpoint.GraphEnumerationQuery
	return &Graphs{
		Submission: newSubmission(ModeGraphs, ep, t, graphDecoder(o.hideMaster), o),
	}
}

// graphDecoder decodes the enumeration and optionally drops the master
// graph row.
func graphDecoder(hideMaster bool) endpoint.Decoder {
	return func(resp *endpoint.Response) (endpoint.Reply, error) {
		reply, err := endpoint.DecodeResults(resp)
		if err != nil || !hideMaster {
			return reply, err
		}

		cols := reply.Results.Columns()
		if len(cols) == 0 {
			return reply, nil
		}
		rows := slices.DeleteFunc(reply.Results.Rows(), func(b resultset.Binding) bool {
			return b[cols[0]].Value == endpoint.MasterGraph
		})
		return endpoint.Reply{Results: resultset.New(cols, rows)}, nil
	}
}

// Refresh re-runs the enumeration. The buffer is not user-editable, so
// it is reset first.
func (g *Graphs) Refresh(ctx context.Context) request.Ticket {
	g.Reset()
	return g.Submit(ctx)
}

// Names returns the graphs from the last successful enumeration.
func (g *Graphs) Names() []string {
	rs := g.Outcome().Results()
	if rs == nil {
		return nil
	}
	cols := rs.Columns()
	if len(cols) == 0 {
		return []string{}
	}
	vals := rs.Column(cols[0])
	names := make([]string, 0, len(vals))
	for _, v := range vals {
		names = append(names, v.Value)
	}
	return names
}

// Select records value as the selected graph and publishes the change.
func (g *Graphs) Select(value string) {
	g.selMu.Lock()
	g.selection = value
	g.selected = true
	g.selMu.Unlock()

	o := g.Outcome()
	g.events.Broadcast(Event{
		Kind:      EventSelectionChanged,
		Mode:      ModeGraphs,
		Seq:       o.Seq,
		Outcome:   o,
		Selection: value,
	})
}

// Selection returns the selected graph, if any.
func (g *Graphs) Selection() (string, bool) {
	g.selMu.Lock()
	defer g.selMu.Unlock()
	return g.selection, g.selected
}

// Activate selects the value carried by item index of r, which must be a
// selectable list.
func (g *Graphs) Activate(r render.Rendering, index int) error {
	if r.Kind != render.KindList || r.Variant != render.SelectableList {
		return fmt.Errorf("rendering is not a selectable list")
	}
	if index < 0 || index >= len(r.Items) {
		return fmt.Errorf("item %d out of range (%d items)", index, len(r.Items))
	}
	g.Select(r.Items[index].Value)
	return nil
}

// RenderList lays out the enumeration as a selectable list with the
// current selection marked.
func (g *Graphs) RenderList() render.Rendering {
	r := g.Render(render.SelectableList)
	if sel, ok := g.Selection(); ok {
		for i := range r.Items {
			r.Items[i].Selected = r.Items[i].Value == sel
		}
	}
	return r
}
