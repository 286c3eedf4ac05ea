// Package tui is the terminal console: one workspace of query, update and
// graph views driven by a bubbletea program.
//
// Network calls never run on the update loop. A run key calls Begin on the
// view's controller inside Update, hands Run to a tea.Cmd, and applies the
// completion with Settle when its message comes back, so a superseded
// completion is discarded exactly as it is for the web front end.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/leapstack-labs/parq/internal/render"
	"github.com/leapstack-labs/parq/internal/request"
	"github.com/leapstack-labs/parq/internal/ui/workspace"
	"github.com/leapstack-labs/parq/internal/view"
)

// Tab is one page of the console.
type Tab int

// Tabs, in display order.
const (
	TabQuery Tab = iota
	TabUpdate
	TabGraphs
	tabCount
)

func (t Tab) String() string {
	switch t {
	case TabQuery:
		return "Query"
	case TabUpdate:
		return "Update"
	case TabGraphs:
		return "Graphs"
	default:
		return fmt.Sprintf("tab(%d)", int(t))
	}
}

const maxColumnWidth = 40

// settledMsg carries a finished network call back to the update loop.
type settledMsg struct {
	mode       view.Mode
	completion request.Completion
}

// graphItem adapts a rendered graph to the list component.
type graphItem struct{ render.Item }

func (i graphItem) FilterValue() string { return i.Value }
func (i graphItem) Description() string { return "" }

func (i graphItem) Title() string {
	if i.Selected {
		return i.Text + "  (in use)"
	}
	return i.Text
}

// Model implements tea.Model.
type Model struct {
	ws   *workspace.Workspace
	ctx  context.Context
	keys KeyMap

	tab     Tab
	editors [2]textarea.Model // TabQuery, TabUpdate
	results table.Model
	graphs  list.Model
	spinner spinner.Model
	help    help.Model

	width  int
	height int
	notice string
}

// New creates the console over ws. ctx bounds every network call.
func New(ctx context.Context, ws *workspace.Workspace) Model {
	m := Model{
		ws:      ws,
		ctx:     ctx,
		keys:    DefaultKeyMap,
		help:    help.New(),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		results: table.New(),
	}

	for i, v := range []*view.Submission{ws.Query, ws.Update} {
		ta := textarea.New()
		ta.CharLimit = 0
		ta.MaxHeight = 0
		ta.ShowLineNumbers = true
		ta.SetValue(v.Buffer())
		m.editors[i] = ta
	}
	m.editors[TabQuery].Focus()

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetSpacing(0)
	m.graphs = list.New(nil, delegate, 0, 0)
	m.graphs.Title = "Named graphs"
	m.graphs.SetShowHelp(false)
	m.graphs.SetShowStatusBar(false)
	m.graphs.SetFilteringEnabled(false)
	m.graphs.KeyMap.Quit.SetEnabled(false)

	m.resize(80, 24)
	m.sync()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case settledMsg:
		m.submission(msg.mode).Controller().Settle(msg.completion)
		m.sync()
		return m, nil

	case spinner.TickMsg:
		if !m.pending() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.tab == TabGraphs {
		var cmd tea.Cmd
		m.graphs, cmd = m.graphs.Update(msg)
		return m, cmd
	}
	var cmd tea.Cmd
	m.editors[m.tab], cmd = m.editors[m.tab].Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.NextTab):
		return m, m.switchTab((m.tab + 1) % tabCount)
	case key.Matches(msg, m.keys.PrevTab):
		return m, m.switchTab((m.tab + tabCount - 1) % tabCount)
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	if m.tab == TabGraphs {
		return m.handleGraphKeys(msg)
	}

	v := m.submission(m.mode())
	switch {
	case key.Matches(msg, m.keys.Run):
		return m, m.run(v)
	case key.Matches(msg, m.keys.Reset):
		v.Reset()
		m.editors[m.tab].SetValue(v.Buffer())
		return m, nil
	}

	var cmd tea.Cmd
	m.editors[m.tab], cmd = m.editors[m.tab].Update(msg)
	return m, cmd
}

func (m Model) handleGraphKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		if err := m.ws.ActivateGraph(m.ws.Graphs.RenderList(), m.graphs.Index()); err != nil {
			m.notice = err.Error()
		} else {
			m.notice = ""
		}
		m.sync()
		return m, nil
	case key.Matches(msg, m.keys.Refresh), key.Matches(msg, m.keys.Run):
		return m, m.run(m.ws.Graphs.Submission)
	}

	var cmd tea.Cmd
	m.graphs, cmd = m.graphs.Update(msg)
	return m, cmd
}

// run begins a submission on the loop and returns the command that
// performs it.
func (m *Model) run(v *view.Submission) tea.Cmd {
	switch v.Mode() {
	case view.ModeQuery:
		v.UpdateBuffer(m.editors[TabQuery].Value())
	case view.ModeUpdate:
		v.UpdateBuffer(m.editors[TabUpdate].Value())
	}

	ticket := v.Begin()
	m.sync()

	ctx, ctrl, mode := m.ctx, v.Controller(), v.Mode()
	return tea.Batch(func() tea.Msg {
		return settledMsg{mode: mode, completion: ctrl.Run(ctx, ticket)}
	}, m.spinner.Tick)
}

func (m *Model) switchTab(t Tab) tea.Cmd {
	if m.tab != TabGraphs {
		m.editors[m.tab].Blur()
	}
	m.tab = t
	m.notice = ""
	m.sync()

	if t == TabGraphs {
		// First visit enumerates.
		if m.ws.Graphs.Outcome().State == request.StateIdle {
			return m.run(m.ws.Graphs.Submission)
		}
		return nil
	}
	return m.editors[t].Focus()
}

func (m Model) mode() view.Mode {
	switch m.tab {
	case TabUpdate:
		return view.ModeUpdate
	case TabGraphs:
		return view.ModeGraphs
	default:
		return view.ModeQuery
	}
}

func (m Model) submission(mode view.Mode) *view.Submission {
	return m.ws.Submission(mode)
}

func (m Model) pending() bool {
	for _, v := range []*view.Submission{m.ws.Query, m.ws.Update, m.ws.Graphs.Submission} {
		if v.Outcome().State == request.StatePending {
			return true
		}
	}
	return false
}

// sync loads the current outcome of the visible tab into the table or
// list component.
func (m *Model) sync() {
	if m.tab == TabGraphs {
		r := m.ws.Graphs.RenderList()
		items := make([]list.Item, len(r.Items))
		for i, it := range r.Items {
			items[i] = graphItem{it}
		}
		m.graphs.SetItems(items)
		return
	}

	r := m.submission(m.mode()).Render(render.Tabular)
	if r.Kind != render.KindTable {
		return
	}

	cols := make([]table.Column, len(r.Header))
	for i, h := range r.Header {
		w := lipgloss.Width(h)
		for _, row := range r.Rows {
			w = max(w, lipgloss.Width(row[i]))
		}
		cols[i] = table.Column{Title: h, Width: min(max(w, 4), maxColumnWidth)}
	}
	rows := make([]table.Row, len(r.Rows))
	for i, row := range r.Rows {
		rows[i] = table.Row(row)
	}

	// Rows are cleared first so no old row is drawn against new columns.
	m.results.SetRows(nil)
	m.results.SetColumns(cols)
	m.results.SetRows(rows)
	m.results.GotoTop()
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height

	editorHeight := max(height/3, 5)
	for i := range m.editors {
		m.editors[i].SetWidth(max(width-4, 20))
		m.editors[i].SetHeight(editorHeight)
	}
	m.results.SetWidth(max(width-2, 20))
	m.results.SetHeight(max(height-editorHeight-8, 3))
	m.graphs.SetSize(width, max(height-6, 3))
	m.help.Width = width
}

// View implements tea.Model.
func (m Model) View() string {
	var body string
	if m.tab == TabGraphs {
		r := m.ws.Graphs.RenderList()
		if r.Kind == render.KindList {
			body = m.graphs.View()
		} else {
			body = m.outcomeView(r)
		}
	} else {
		r := m.submission(m.mode()).Render(render.Tabular)
		body = lipgloss.JoinVertical(lipgloss.Left,
			paneStyle.Render(m.editors[m.tab].View()),
			m.outcomeView(r),
		)
	}

	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString("\n")
	b.WriteString(body)
	b.WriteString("\n")
	if m.notice != "" {
		b.WriteString(failureStyle.Render(m.notice))
		b.WriteString("\n")
	}
	b.WriteString(m.helpView())
	return b.String()
}

func (m Model) header() string {
	parts := []string{brandStyle.Render("parq")}
	for t := Tab(0); t < tabCount; t++ {
		if t == m.tab {
			parts = append(parts, activeTabStyle.Render(t.String()))
		} else {
			parts = append(parts, tabStyle.Render(t.String()))
		}
	}

	graph := "default graph"
	if g := m.ws.Selection(); g != "" {
		graph = "graph: " + g
	}
	parts = append(parts, graphStyle.Render(graph))
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) outcomeView(r render.Rendering) string {
	switch r.Kind {
	case render.KindPlaceholder:
		if r.State == request.StatePending {
			return m.spinner.View() + " " + placeholderStyle.Render(r.Message)
		}
		return placeholderStyle.Render(r.Message)
	case render.KindFailure:
		return failureStyle.Render("error: " + r.Message)
	case render.KindAck:
		out := ackStyle.Render(r.Message)
		if text := r.Ack.Text(); text != "" {
			out += "\n" + text
		}
		return out
	case render.KindTable:
		return m.results.View() + "\n" + summaryStyle.Render(fmt.Sprintf("(%d rows)", r.Len()))
	default:
		return ""
	}
}

func (m Model) helpView() string {
	if m.tab == TabGraphs {
		return m.help.View(graphKeys{m.keys})
	}
	return m.help.View(editorKeys{m.keys})
}

// Run starts the console on the terminal and blocks until it exits.
func Run(ctx context.Context, ws *workspace.Workspace, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(New(ctx, ws), opts...)
	_, err := p.Run()
	if err != nil {
		return fmt.Errorf("console failed: %w", err)
	}
	return nil
}
