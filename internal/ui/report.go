package ui

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/KaramelBytes/sheetviz-cli/internal/analysis"
	"github.com/KaramelBytes/sheetviz-cli/internal/export"
)

// Messages shown instead of a chart.
const (
	EmptyTableMessage = "No data to display. Upload a spreadsheet to begin."
	NoChartMessage    = "Select X and Y axis or adjust filters to visualize data"
	NoChartHint       = "No data matches current filters or header row may be incorrect..."
	HiddenTicksNote   = "X-axis labels hidden for large datasets."
)

// maxCellWidth truncates long cells in the page table.
const maxCellWidth = 24

// Report renders a view as styled terminal text.
type Report struct {
	Source string
	Width  int
	Styles Styles
}

// NewReport returns a report for source sized to width columns.
func NewReport(source string, width int) *Report {
	if width <= 0 {
		width = 100
	}
	return &Report{Source: source, Width: width, Styles: DefaultStyles()}
}

// Render composes every section of the report.
func (r *Report) Render(v *analysis.View) string {
	var b strings.Builder
	b.WriteString(r.Styles.Title.Render("sheetviz · "+r.Source) + "\n")
	if v.Empty() {
		b.WriteString(r.Styles.Muted.Render(EmptyTableMessage) + "\n")
		return b.String()
	}
	b.WriteString(r.Setup(v))
	b.WriteString(r.Section("Rows"))
	b.WriteString(r.Table(v))
	b.WriteString(r.Section("Chart"))
	b.WriteString(r.Chart(v))
	if v.Aggregate() != nil {
		b.WriteString(r.Section("Quick Stats – " + v.Params().YAxis))
		b.WriteString(r.Stats(v))
	}
	return b.String()
}

// Section renders a heading.
func (r *Report) Section(title string) string {
	return r.Styles.Section.Render(title) + "\n"
}

func (r *Report) field(label, value string) string {
	return r.Styles.Label.Render(label+": ") + r.Styles.Value.Render(value)
}

// Setup lists the header row, axes, column types and active filters.
func (r *Report) Setup(v *analysis.View) string {
	p := v.Params()
	var lines []string
	lines = append(lines, r.field("Header row", strconv.Itoa(p.HeaderRow+1)))
	if err := v.HeaderRowError(); err != nil {
		lines = append(lines, r.Styles.Error.Render(err.Error()))
	}
	lines = append(lines, r.field("Axes", fmt.Sprintf("x=%s  y=%s", orDash(p.XAxis), orDash(p.YAxis))))
	lines = append(lines, r.field("Chart", fmt.Sprintf("%s (%s)", p.Chart.Type, p.Chart.Theme)))

	types := v.ColumnTypes()
	cols := make([]string, 0, len(v.Headers()))
	for _, h := range v.Headers() {
		cols = append(cols, fmt.Sprintf("%s (%s)", orDash(h), types.Of(h)))
	}
	lines = append(lines, r.field("Columns", strings.Join(cols, ", ")))
	if p.Search != "" || len(p.Filters) > 0 {
		lines = append(lines, r.field("Filters", v.FilterDescription()))
	}
	return lipgloss.NewStyle().Width(r.Width).Render(strings.Join(lines, "\n")) + "\n"
}

// Table renders the current page of filtered rows with a paging footer.
func (r *Report) Table(v *analysis.View) string {
	headers := v.Headers()
	page := v.PageRows()
	rows := make([][]string, len(page))
	for i, row := range page {
		cells := make([]string, len(headers))
		for j := range headers {
			cells[j] = truncate(row.At(j).String(), maxCellWidth)
		}
		rows[i] = cells
	}
	hdr := make([]string, len(headers))
	for i, h := range headers {
		hdr[i] = truncate(h, maxCellWidth)
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.Styles.Border).
		Headers(hdr...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return r.Styles.Header
			}
			return r.Styles.Cell
		})
	return t.String() + "\n" + r.Styles.Muted.Render(PageLabel(v)) + "\n"
}

// PageLabel describes paging and the filtered row count.
func PageLabel(v *analysis.View) string {
	p := v.Params().Pagination
	n := len(v.FilteredRows())
	if p.RowsPerPage.IsAll() {
		return fmt.Sprintf("Showing All Rows · %d rows", n)
	}
	return fmt.Sprintf("Page %d of %d · %d rows · %s per page", p.CurrentPage, v.TotalPages(), n, p.RowsPerPage)
}

// Chart renders the chart title and the datasets as horizontal bars.
func (r *Report) Chart(v *analysis.View) string {
	if v.Aggregate() == nil || len(v.PageRows()) == 0 {
		return r.Styles.Muted.Render(NoChartMessage) + "\n" + r.Styles.Label.Render(NoChartHint) + "\n"
	}
	opts := v.ChartOptions()
	var b strings.Builder
	b.WriteString(r.Styles.Value.Render(opts.Title) + "\n")
	b.WriteString(RenderBars(v.ChartData(), r.Width, opts.ShowXTicks || !opts.ShowAxes))
	if !opts.ShowXTicks && opts.ShowAxes {
		b.WriteString(r.Styles.Muted.Render(HiddenTicksNote) + "\n")
	}
	return b.String()
}

// RenderBars draws one horizontal bar per label and dataset, scaled to the
// largest value. Labels are replaced by their position when showLabels is
// false.
func RenderBars(data analysis.ChartData, width int, showLabels bool) string {
	labels := make([]string, len(data.Labels))
	labelW := 0
	for i, l := range data.Labels {
		if !showLabels {
			l = "#" + strconv.Itoa(i+1)
		}
		labels[i] = truncate(l, 20)
		labelW = max(labelW, lipgloss.Width(labels[i]))
	}
	peak := 0.0
	for _, ds := range data.Datasets {
		for _, v := range ds.Data {
			peak = math.Max(peak, v)
		}
	}
	barW := width - labelW - 14
	if barW < 10 {
		barW = 10
	}

	var b strings.Builder
	multi := len(data.Datasets) > 1
	for _, ds := range data.Datasets {
		if multi || data.Empty {
			swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(export.HexColor(ds.ColorAt(0)))).Render("■")
			b.WriteString(swatch + " " + ds.Label + "\n")
		}
		for i, label := range labels {
			v := 0.0
			if i < len(ds.Data) {
				v = ds.Data[i]
			}
			n := 0
			if peak > 0 && v > 0 {
				n = int(math.Round(v / peak * float64(barW)))
			}
			bar := lipgloss.NewStyle().
				Foreground(lipgloss.Color(export.HexColor(ds.ColorAt(i)))).
				Render(strings.Repeat("█", n))
			fmt.Fprintf(&b, "%s %s %s\n", padRight(label, labelW), bar, formatValue(v))
		}
	}
	return b.String()
}

// Stats renders the numeric summary and the highlight sentence.
func (r *Report) Stats(v *analysis.View) string {
	p := v.Params()
	var b strings.Builder
	b.WriteString(r.field("Scope", p.Scope.Description()) + "\n")
	if h := v.HighlightSummary(); h != "" {
		b.WriteString(r.Styles.Highlight.Render(h) + "\n")
	}
	if v.ColumnTypes().IsNumeric(p.YAxis) {
		s := v.Stats()
		cells := []string{
			r.field("Min", fmt.Sprintf("%.2f", s.Min)),
			r.field("Max", fmt.Sprintf("%.2f", s.Max)),
			r.field("Mean", fmt.Sprintf("%.2f", s.Mean)),
			r.field("Median", fmt.Sprintf("%.2f", s.Median)),
			r.field("Std Dev", fmt.Sprintf("%.2f", s.StdDev)),
		}
		b.WriteString(r.Styles.Panel.Render(strings.Join(cells, "   ")) + "\n")
	}
	return b.String()
}

func formatValue(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func truncate(s string, n int) string {
	if lipgloss.Width(s) <= n {
		return s
	}
	rs := []rune(s)
	if len(rs) > n-1 {
		rs = rs[:n-1]
	}
	return string(rs) + "…"
}

func padRight(s string, n int) string {
	if w := lipgloss.Width(s); w < n {
		return s + strings.Repeat(" ", n-w)
	}
	return s
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
