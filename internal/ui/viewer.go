package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/KaramelBytes/sheetviz-cli/internal/analysis"
	"github.com/KaramelBytes/sheetviz-cli/internal/export"
)

// inputMode is what the text input currently edits.
type inputMode int

const (
	modeBrowse inputMode = iota
	modeSearch
	modeFilter
	modeHeaderRow
)

// Messages delivered once a debounced edit settles.
type searchSettledMsg struct{ query string }

type filterSettledMsg struct{ expr string }

const helpLine = "t chart · m theme · ←/→ page · r rows · s scope · x/y axes · H header row · / search · f filter · c clear · e csv · p png · q quit"

// ViewerOptions configures the interactive viewer.
type ViewerOptions struct {
	Source   string
	UploadID string
	// OutDir receives CSV and PNG exports.
	OutDir string
	// LoadError is shown when the table could not be fetched; the viewer
	// then starts on an empty table.
	LoadError error
}

// Viewer is the bubbletea model driving one analysis View. Search and filter
// edits are applied through Debouncers so a burst of keystrokes recomputes
// the pipeline once.
type Viewer struct {
	view   *analysis.View
	report *Report
	opts   ViewerOptions

	input  textinput.Model
	mode   inputMode
	search *analysis.Debouncer
	filter *analysis.Debouncer
	send   func(tea.Msg)
	// filterCol is the column the current filter edit last applied to.
	filterCol string

	status    string
	statusErr bool
	width     int
	height    int
	quitting  bool
}

// NewViewer creates a viewer over v.
func NewViewer(v *analysis.View, opts ViewerOptions) *Viewer {
	ti := textinput.New()
	ti.CharLimit = 200
	ti.Width = 60
	vo := v.Options()
	m := &Viewer{
		view:   v,
		report: NewReport(opts.Source, 100),
		opts:   opts,
		input:  ti,
		search: analysis.NewDebouncer(vo.SearchDebounce),
		filter: analysis.NewDebouncer(vo.FilterDebounce),
	}
	if opts.LoadError != nil {
		m.setError(opts.LoadError)
	}
	return m
}

// SetSender sets the function used to deliver settled edits, normally
// (*tea.Program).Send.
func (m *Viewer) SetSender(send func(tea.Msg)) { m.send = send }

// Status returns the last status line and whether it reports an error.
func (m *Viewer) Status() (string, bool) { return m.status, m.statusErr }

func (m *Viewer) deliver(msg tea.Msg) {
	if m.send != nil {
		m.send(msg)
	}
}

// Init implements tea.Model.
func (m *Viewer) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m *Viewer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.report.Width = max(40, msg.Width-2)
		return m, nil
	case searchSettledMsg:
		m.view.SetGlobalSearch(msg.query)
		return m, nil
	case filterSettledMsg:
		if _, err := analysis.ParseFilterExpr(msg.expr); err == nil {
			if _, err := m.applyFilterText(msg.expr); err != nil {
				m.setError(err)
			}
		}
		return m, nil
	case tea.KeyMsg:
		if m.mode != modeBrowse {
			return m.handleInput(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Viewer) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v := m.view
	p := v.Params()
	m.status, m.statusErr = "", false
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		m.search.Cancel()
		m.filter.Cancel()
		return m, tea.Quit
	case "t":
		v.SetChartType(nextOf(analysis.ChartTypes, p.Chart.Type))
	case "m":
		v.SetColorTheme(nextOf(analysis.ColorThemes, p.Chart.Theme))
	case "right", "]":
		v.NextPage()
	case "left", "[":
		v.PrevPage()
	case "r":
		v.SetRowsPerPage(p.Pagination.RowsPerPage.Next())
	case "s":
		if p.Scope == analysis.ScopePage {
			v.SetScope(analysis.ScopeEntire)
		} else {
			v.SetScope(analysis.ScopePage)
		}
	case "x":
		m.cycleAxis(analysis.AxisX, p.XAxis)
	case "y":
		m.cycleAxis(analysis.AxisY, p.YAxis)
	case "/":
		return m, m.startInput(modeSearch, p.Search, "search: ")
	case "f":
		return m, m.startInput(modeFilter, "", "filter (col=text or col=min..max): ")
	case "H":
		return m, m.startInput(modeHeaderRow, "", "header row number: ")
	case "c":
		m.filter.Cancel()
		v.ClearFilters()
		m.status = "Filters cleared"
	case "e":
		path, err := export.SaveCSV(v, m.opts.OutDir, m.opts.UploadID)
		m.reportSave(path, err)
	case "p":
		path, err := export.SaveChartPNG(v, m.opts.OutDir)
		m.reportSave(path, err)
	}
	return m, nil
}

func (m *Viewer) startInput(mode inputMode, value, prompt string) tea.Cmd {
	m.mode = mode
	m.filterCol = ""
	m.input.Prompt = prompt
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m *Viewer) stopInput() {
	m.mode = modeBrowse
	m.input.Blur()
}

func (m *Viewer) handleInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.stopInput()
		return m, nil
	case "enter":
		m.commitInput()
		m.stopInput()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	text := m.input.Value()
	switch m.mode {
	case modeSearch:
		m.search.Schedule(func() { m.deliver(searchSettledMsg{query: text}) })
	case modeFilter:
		m.filter.Schedule(func() { m.deliver(filterSettledMsg{expr: text}) })
	}
	return m, cmd
}

// commitInput applies the input immediately, dropping any pending debounce.
func (m *Viewer) commitInput() {
	text := m.input.Value()
	switch m.mode {
	case modeSearch:
		m.search.Cancel()
		m.view.SetGlobalSearch(text)
	case modeFilter:
		m.filter.Cancel()
		e, err := m.applyFilterText(text)
		if err != nil {
			m.setError(err)
			return
		}
		m.status = "Filter " + e.String()
	case modeHeaderRow:
		if err := m.view.SetCustomHeaderRow(text); err != nil {
			m.setError(err)
			return
		}
		m.view.AutoSelectAxes()
		m.status = fmt.Sprintf("Header row %d", m.view.Params().HeaderRow+1)
	}
}

// applyFilterText applies a typed filter expression. When the expression has
// moved to another column since the last settled edit, the filter left on
// the old column is cleared first.
func (m *Viewer) applyFilterText(text string) (analysis.FilterExpr, error) {
	e, err := analysis.ParseFilterExpr(text)
	if err != nil {
		return e, err
	}
	if m.filterCol != "" && m.filterCol != e.Column {
		if err := m.view.ApplyFilter(analysis.FilterExpr{Column: m.filterCol}); err != nil {
			return e, err
		}
		m.filterCol = ""
	}
	if err := m.view.ApplyFilter(e); err != nil {
		return e, err
	}
	m.filterCol = e.Column
	return e, nil
}

func (m *Viewer) cycleAxis(which analysis.Axis, current string) {
	headers := m.view.Headers()
	if len(headers) == 0 {
		return
	}
	next := headers[0]
	if i := analysis.ColumnIndex(headers, current); i >= 0 {
		next = headers[(i+1)%len(headers)]
	}
	if err := m.view.SetAxis(which, next); err != nil {
		m.setError(err)
	}
}

func (m *Viewer) reportSave(path string, err error) {
	if err != nil {
		m.setError(err)
		return
	}
	m.status = "Saved " + path
}

func (m *Viewer) setError(err error) {
	var rerr *analysis.RangeError
	if errors.As(err, &rerr) || errors.Is(err, analysis.ErrHeaderRowInput) {
		m.status = err.Error()
	} else {
		m.status = "Error: " + err.Error()
	}
	m.statusErr = true
}

// View implements tea.Model.
func (m *Viewer) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.report.Render(m.view))
	b.WriteString("\n")
	if m.mode != modeBrowse {
		b.WriteString(m.input.View() + "\n")
	}
	if m.status != "" {
		style := m.report.Styles.Success
		if m.statusErr {
			style = m.report.Styles.Error
		}
		b.WriteString(style.Render(m.status) + "\n")
	}
	b.WriteString(m.report.Styles.Muted.Render(helpLine))
	if m.width > 0 {
		return lipgloss.NewStyle().MaxWidth(m.width).Render(b.String())
	}
	return b.String()
}

// Run starts the viewer on the terminal's alternate screen.
func Run(v *analysis.View, opts ViewerOptions) error {
	m := NewViewer(v, opts)
	p := tea.NewProgram(m, tea.WithAltScreen())
	m.SetSender(p.Send)
	_, err := p.Run()
	m.search.Cancel()
	m.filter.Cancel()
	return err
}

func nextOf[T comparable](items []T, current T) T {
	for i, it := range items {
		if it == current {
			return items[(i+1)%len(items)]
		}
	}
	return items[0]
}
