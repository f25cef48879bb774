package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// maxTickRows is the largest row count for which x-axis labels are drawn.
const maxTickRows = 20

// ChartOptions carries the presentation settings derived alongside ChartData.
type ChartOptions struct {
	Title      string  `json:"title"`
	YMax       float64 `json:"yMax"`
	ShowAxes   bool    `json:"showAxes"`
	ShowXTicks bool    `json:"showXTicks"`
	YAxisTitle string  `json:"yAxisTitle,omitempty"`
	// YStep is 1 for count charts and 0 (automatic) otherwise.
	YStep float64 `json:"yStep,omitempty"`
	// Interaction is "nearest" for arc charts and "index" otherwise.
	Interaction string `json:"interaction"`
}

// ScopeLabel names the rows a chart covers.
func ScopeLabel(rpp RowsPerPage) string {
	if rpp.IsAll() {
		return "All Rows"
	}
	return "Current Page"
}

// ChartTitle renders the chart heading for the current axes.
func ChartTitle(spec ChartSpec, xAxis, yAxis string, yType ColumnType, rpp RowsPerPage) string {
	if yType == Textual {
		return fmt.Sprintf("%s Chart – %s Distribution by %s (%s)", spec.Type.Title(), yAxis, xAxis, ScopeLabel(rpp))
	}
	return fmt.Sprintf("%s Chart – %s (Avg) by %s (%s)", spec.Type.Title(), yAxis, xAxis, ScopeLabel(rpp))
}

// YAxisMax returns 110% of the largest finite value across datasets, or 10
// when there is no positive value.
func YAxisMax(data ChartData) float64 {
	var vals []float64
	for _, d := range data.Datasets {
		for _, v := range d.Data {
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				vals = append(vals, v)
			}
		}
	}
	if len(vals) == 0 {
		return 10
	}
	m := floats.Max(vals)
	if m <= 0 {
		return 10
	}
	return m * 1.1
}

// BuildChartOptions derives the options for data. filteredRows is the size of
// the filtered row set, which decides whether x labels fit.
func BuildChartOptions(data ChartData, spec ChartSpec, xAxis, yAxis string, yType ColumnType, filteredRows int, rpp RowsPerPage) ChartOptions {
	arc := spec.Type.IsArc()
	opts := ChartOptions{
		Title:       ChartTitle(spec, xAxis, yAxis, yType, rpp),
		YMax:        YAxisMax(data),
		ShowAxes:    !arc,
		ShowXTicks:  !arc && (filteredRows <= maxTickRows || (!rpp.IsAll() && int(rpp) <= maxTickRows)),
		Interaction: "index",
	}
	if arc {
		opts.Interaction = "nearest"
	}
	if yType == Textual {
		opts.YStep = 1
		if !arc {
			opts.YAxisTitle = "Count"
		}
	}
	return opts
}
