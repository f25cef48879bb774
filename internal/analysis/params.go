package analysis

// Params is the full set of user choices for a view. It is a value type:
// every With method returns an updated copy and leaves the receiver intact.
type Params struct {
	HeaderRow  int
	XAxis      string
	YAxis      string
	Chart      ChartSpec
	Pagination Pagination
	Search     string
	Filters    FilterSpec
	Scope      Scope
}

// DefaultParams is header row 0, a vibrant bar chart, ten rows per page on
// page 1 and statistics over the entire filtered set.
func DefaultParams() Params {
	return Params{
		Chart:      DefaultChartSpec(),
		Pagination: Pagination{RowsPerPage: DefaultRowsPerPage, CurrentPage: 1},
		Scope:      ScopeEntire,
	}
}

// WithHeaderRow selects a new header row. Axes are cleared because the
// column labels may have changed, and paging restarts.
func (p Params) WithHeaderRow(index int) Params {
	p.HeaderRow = index
	p.XAxis, p.YAxis = "", ""
	p.Pagination.CurrentPage = 1
	return p
}

// WithXAxis sets the category column.
func (p Params) WithXAxis(header string) Params {
	p.XAxis = header
	return p
}

// WithYAxis sets the value column.
func (p Params) WithYAxis(header string) Params {
	p.YAxis = header
	return p
}

// WithChartType changes the chart kind.
func (p Params) WithChartType(t ChartType) Params {
	p.Chart.Type = t
	return p
}

// WithColorTheme changes the palette.
func (p Params) WithColorTheme(t ColorTheme) Params {
	p.Chart.Theme = t
	return p
}

// WithRowsPerPage changes the page size and returns to page 1.
func (p Params) WithRowsPerPage(n RowsPerPage) Params {
	p.Pagination.RowsPerPage = n
	p.Pagination.CurrentPage = 1
	return p
}

// WithPage moves to page n. Callers clamp against the current row count.
func (p Params) WithPage(n int) Params {
	p.Pagination.CurrentPage = n
	return p
}

// WithSearch sets the global search and returns to page 1.
func (p Params) WithSearch(q string) Params {
	p.Search = q
	p.Pagination.CurrentPage = 1
	return p
}

// WithFilter edits one column criterion and returns to page 1.
func (p Params) WithFilter(column string, field FilterField, text string, typ ColumnType) Params {
	p.Filters = p.Filters.With(column, field, text, typ)
	p.Pagination.CurrentPage = 1
	return p
}

// WithoutFilters drops every column criterion and returns to page 1.
// The global search is kept.
func (p Params) WithoutFilters() Params {
	p.Filters = nil
	p.Pagination.CurrentPage = 1
	return p
}

// WithScope selects the statistics scope.
func (p Params) WithScope(s Scope) Params {
	p.Scope = s
	return p
}
