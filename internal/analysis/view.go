package analysis

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Options tunes type inference and the settle times used by interactive
// front ends.
type Options struct {
	NumericThreshold float64
	SearchDebounce   time.Duration
	FilterDebounce   time.Duration
}

// DefaultOptions returns the 90% numeric threshold and 300ms/150ms settle times.
func DefaultOptions() Options {
	return Options{
		NumericThreshold: DefaultNumericThreshold,
		SearchDebounce:   DefaultSearchDebounce,
		FilterDebounce:   DefaultFilterDebounce,
	}
}

// Axis names one of the two aggregation axes.
type Axis int

const (
	AxisX Axis = iota
	AxisY
)

func (a Axis) String() string {
	if a == AxisY {
		return "y"
	}
	return "x"
}

// View is one analysis session over a read-only RawTable. Setters validate
// and replace the current Params; every read accessor recomputes its result
// from the table and the current Params, so derived values never go stale.
// A View is meant to be driven from a single goroutine.
type View struct {
	table     RawTable
	params    Params
	opts      Options
	headerErr error
}

// NewView starts a session with DefaultParams. A nil table is valid and
// produces the empty state everywhere.
func NewView(t RawTable, opts Options) *View {
	if opts.NumericThreshold <= 0 {
		opts.NumericThreshold = DefaultNumericThreshold
	}
	return &View{table: t, params: DefaultParams(), opts: opts}
}

// Table returns the raw input.
func (v *View) Table() RawTable { return v.table }

// Options returns the tuning the view was created with.
func (v *View) Options() Options { return v.opts }

// Params returns a copy of the current parameters.
func (v *View) Params() Params { return v.params }

// Empty reports whether there is nothing to analyse.
func (v *View) Empty() bool { return len(v.table) == 0 }

// HeaderRowError returns the last rejected header row selection, or nil.
func (v *View) HeaderRowError() error { return v.headerErr }

// SetHeaderRow selects the 0-based header row. An index outside the table is
// rejected with a *RangeError and the previous selection stays in effect.
func (v *View) SetHeaderRow(index int) error {
	if err := ValidateHeaderRow(v.table, index); err != nil {
		v.headerErr = err
		return err
	}
	v.headerErr = nil
	v.params = v.params.WithHeaderRow(index)
	return nil
}

// SetCustomHeaderRow selects the header row from a 1-based number typed by
// the user. Empty input clears a pending error and keeps the current row.
func (v *View) SetCustomHeaderRow(input string) error {
	if strings.TrimSpace(input) == "" {
		v.headerErr = nil
		return nil
	}
	idx, err := ParseHeaderRowInput(input, len(v.table))
	if err != nil {
		v.headerErr = err
		return err
	}
	return v.SetHeaderRow(idx)
}

// SetAxis selects the x or y column. An empty header clears the axis.
func (v *View) SetAxis(which Axis, header string) error {
	if header != "" && ColumnIndex(v.Headers(), header) == -1 {
		return fmt.Errorf("unknown column %q", header)
	}
	if which == AxisY {
		v.params = v.params.WithYAxis(header)
	} else {
		v.params = v.params.WithXAxis(header)
	}
	return nil
}

// SetChartType changes the chart kind.
func (v *View) SetChartType(t ChartType) { v.params = v.params.WithChartType(t) }

// SetColorTheme changes the palette.
func (v *View) SetColorTheme(t ColorTheme) { v.params = v.params.WithColorTheme(t) }

// SetRowsPerPage changes the page size.
func (v *View) SetRowsPerPage(n RowsPerPage) { v.params = v.params.WithRowsPerPage(n) }

// SetPage moves to page n, clamped to [1, TotalPages].
func (v *View) SetPage(n int) {
	p := v.params.WithPage(n)
	p.Pagination = p.Pagination.Clamp(len(v.FilteredRows()))
	v.params = p
}

// NextPage advances one page when possible.
func (v *View) NextPage() { v.SetPage(v.params.Pagination.CurrentPage + 1) }

// PrevPage goes back one page when possible.
func (v *View) PrevPage() { v.SetPage(v.params.Pagination.CurrentPage - 1) }

// SetGlobalSearch applies a search over every cell.
func (v *View) SetGlobalSearch(text string) { v.params = v.params.WithSearch(text) }

// SetFilter edits one field of a column filter.
func (v *View) SetFilter(column string, field FilterField, text string) error {
	if ColumnIndex(v.Headers(), column) == -1 {
		return fmt.Errorf("unknown column %q", column)
	}
	v.params = v.params.WithFilter(column, field, text, v.ColumnTypes().Of(column))
	return nil
}

// ApplyFilter sets a column filter from a parsed expression. A range sets
// both bounds; plain text sets the value and clears the upper bound.
func (v *View) ApplyFilter(e FilterExpr) error {
	if err := v.SetFilter(e.Column, FieldValue, e.Value); err != nil {
		return err
	}
	max := ""
	if e.Range {
		max = e.Max
	}
	return v.SetFilter(e.Column, FieldMax, max)
}

// ClearFilters removes every column filter.
func (v *View) ClearFilters() { v.params = v.params.WithoutFilters() }

// SetScope selects the rows statistics cover.
func (v *View) SetScope(s Scope) { v.params = v.params.WithScope(s) }

// AutoSelectAxes fills unset axes with sensible defaults: x becomes the first
// column holding a non-numeric value, y the first column whose cells are all
// numbers. An axis that is already set is kept. It reports whether any axis
// was filled.
func (v *View) AutoSelectAxes() bool {
	if v.params.XAxis != "" && v.params.YAxis != "" {
		return false
	}
	headers := v.Headers()
	if len(headers) == 0 {
		return false
	}
	rows := v.DataRows()
	if v.params.XAxis == "" {
		x := headers[0]
		for i, h := range headers {
			if hasText(rows, i) {
				x = h
				break
			}
		}
		v.params = v.params.WithXAxis(x)
	}
	if v.params.YAxis == "" {
		y := ""
		for i, h := range headers {
			if allNumeric(rows, i) {
				y = h
				break
			}
		}
		if y == "" {
			y = headers[0]
			if len(headers) > 1 {
				y = headers[1]
			}
		}
		v.params = v.params.WithYAxis(y)
	}
	return true
}

func hasText(rows []Row, col int) bool {
	for _, r := range rows {
		c := r.At(col)
		if _, ok := c.Float(); !ok && !c.IsEmpty() {
			return true
		}
	}
	return false
}

func allNumeric(rows []Row, col int) bool {
	for _, r := range rows {
		if _, ok := r.At(col).Float(); !ok {
			return false
		}
	}
	return true
}

// Headers returns the labels of the header row.
func (v *View) Headers() []string { return Headers(v.table, v.params.HeaderRow) }

// DataRows returns every row below the header row.
func (v *View) DataRows() []Row { return DataRows(v.table, v.params.HeaderRow) }

// ColumnTypes infers the type of every column.
func (v *View) ColumnTypes() ColumnTypes {
	return InferColumnTypes(v.Headers(), v.DataRows(), v.opts.NumericThreshold)
}

// FilteredRows applies the global search and column filters.
func (v *View) FilteredRows() []Row {
	if v.Empty() {
		return []Row{}
	}
	return Filter(v.DataRows(), v.Headers(), v.params.Search, v.params.Filters, v.ColumnTypes())
}

// FilterDescription describes the active search and column filters.
func (v *View) FilterDescription() string {
	return BuildPredicate(v.Headers(), v.params.Search, v.params.Filters, v.ColumnTypes()).Description()
}

// PageRows returns the rows of the current page.
func (v *View) PageRows() []Row {
	rows, _ := Paginate(v.FilteredRows(), v.params.Pagination)
	return rows
}

// TotalPages returns the page count of the filtered rows.
func (v *View) TotalPages() int {
	return v.params.Pagination.TotalPages(len(v.FilteredRows()))
}

// Aggregate groups the current page by the selected axes, or returns nil.
func (v *View) Aggregate() *Aggregate {
	return AggregateRows(v.PageRows(), v.Headers(), v.params.XAxis, v.params.YAxis, v.ColumnTypes())
}

// ChartData projects the aggregate for the current chart spec.
func (v *View) ChartData() ChartData { return ProjectChart(v.Aggregate(), v.params.Chart) }

// ChartOptions derives titles, axis bounds and tick visibility for ChartData.
func (v *View) ChartOptions() ChartOptions {
	p := v.params
	return BuildChartOptions(v.ChartData(), p.Chart, p.XAxis, p.YAxis, v.ColumnTypes().Of(p.YAxis),
		len(v.FilteredRows()), p.Pagination.RowsPerPage)
}

// ScopeRows returns the rows statistics are computed over.
func (v *View) ScopeRows() []Row {
	if v.params.Scope == ScopePage {
		return v.PageRows()
	}
	return v.FilteredRows()
}

// Stats summarises the y column over the selected scope.
func (v *View) Stats() Stats {
	if v.Empty() {
		return Stats{}
	}
	return Summarize(v.ScopeRows(), v.Headers(), v.params.YAxis, v.ColumnTypes())
}

// HighlightSummary describes the y column over the selected scope. It is
// empty while nothing is charted.
func (v *View) HighlightSummary() string {
	if v.Aggregate() == nil {
		return ""
	}
	p := v.params
	return Highlight(v.ScopeRows(), v.Headers(), p.XAxis, p.YAxis, v.ColumnTypes(), p.Scope)
}

// ExportCSV writes the headers and every filtered row, not just the current page.
func (v *View) ExportCSV(w io.Writer) error {
	return WriteCSV(w, v.Headers(), v.FilteredRows())
}
