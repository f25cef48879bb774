package export

import (
	"fmt"
	"io"
	"math"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/KaramelBytes/sheetviz-cli/internal/analysis"
)

// Chart image size in pixels.
const (
	ChartWidth  = 1024
	ChartHeight = 512
)

// ChartFileName is the download name of a chart snapshot.
func ChartFileName(t analysis.ChartType) string {
	return fmt.Sprintf("chart-%s.png", t)
}

// RenderChartPNG draws projected chart data as a PNG. Bar charts with one
// dataset become plain bars and with several become stacked bars; line and
// area charts become continuous series over the label positions; pie and
// doughnut charts slice the per-label totals.
func RenderChartPNG(w io.Writer, data analysis.ChartData, spec analysis.ChartSpec, opts analysis.ChartOptions) error {
	if len(data.Labels) == 0 || len(data.Datasets) == 0 {
		data = analysis.NoData()
	}
	var err error
	switch {
	case spec.Type.IsArc():
		err = renderArc(w, data, spec, opts)
	case spec.Type == analysis.ChartLine || spec.Type == analysis.ChartArea:
		err = renderLine(w, data, spec, opts)
	case len(data.Datasets) > 1:
		err = renderStacked(w, data, opts)
	default:
		err = renderBar(w, data, opts)
	}
	if err != nil {
		return fmt.Errorf("render %s chart: %w", spec.Type, err)
	}
	return nil
}

func yRange(opts analysis.ChartOptions) *chart.ContinuousRange {
	max := opts.YMax
	if max <= 0 {
		max = 10
	}
	return &chart.ContinuousRange{Min: 0, Max: max}
}

func titleStyle() chart.Style {
	return chart.Style{FontSize: 12}
}

func tickLabel(opts analysis.ChartOptions, label string) string {
	if !opts.ShowXTicks {
		return ""
	}
	return label
}

func renderBar(w io.Writer, data analysis.ChartData, opts analysis.ChartOptions) error {
	ds := data.Datasets[0]
	bars := make([]chart.Value, len(data.Labels))
	for i, label := range data.Labels {
		v := 0.0
		if i < len(ds.Data) {
			v = ds.Data[i]
		}
		c := parseColor(ds.ColorAt(i))
		bars[i] = chart.Value{
			Label: tickLabel(opts, label),
			Value: v,
			Style: chart.Style{FillColor: c, StrokeColor: parseColor(firstOr(ds.BorderColor, ds.ColorAt(i))), StrokeWidth: float64(ds.BorderWidth)},
		}
	}
	width := barWidth(len(bars))
	bc := chart.BarChart{
		Title:      opts.Title,
		TitleStyle: titleStyle(),
		Width:      ChartWidth,
		Height:     ChartHeight,
		BarWidth:   width,
		BarSpacing: width / 2,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		YAxis:      chart.YAxis{Name: opts.YAxisTitle, Range: yRange(opts)},
		Bars:       bars,
	}
	return bc.Render(chart.PNG, w)
}

func renderStacked(w io.Writer, data analysis.ChartData, opts analysis.ChartOptions) error {
	stacks := make([]chart.StackedBar, len(data.Labels))
	for i, label := range data.Labels {
		values := make([]chart.Value, 0, len(data.Datasets))
		for _, ds := range data.Datasets {
			if i >= len(ds.Data) || ds.Data[i] == 0 {
				continue
			}
			values = append(values, chart.Value{
				Label: ds.Label,
				Value: ds.Data[i],
				Style: chart.Style{FillColor: parseColor(ds.ColorAt(i)), StrokeColor: parseColor(firstOr(ds.BorderColor, ds.ColorAt(i))), StrokeWidth: float64(ds.BorderWidth)},
			})
		}
		if len(values) == 0 {
			values = append(values, chart.Value{Value: 0})
		}
		stacks[i] = chart.StackedBar{Name: tickLabel(opts, label), Values: values}
	}
	width := barWidth(len(stacks))
	sbc := chart.StackedBarChart{
		Title:      opts.Title,
		TitleStyle: titleStyle(),
		Width:      ChartWidth,
		Height:     ChartHeight,
		BarSpacing: width / 2,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		Bars:       stacks,
	}
	return sbc.Render(chart.PNG, w)
}

func renderLine(w io.Writer, data analysis.ChartData, spec analysis.ChartSpec, opts analysis.ChartOptions) error {
	xs := make([]float64, len(data.Labels))
	ticks := make([]chart.Tick, len(data.Labels))
	for i, label := range data.Labels {
		xs[i] = float64(i)
		ticks[i] = chart.Tick{Value: float64(i), Label: tickLabel(opts, label)}
	}
	series := make([]chart.Series, 0, len(data.Datasets))
	for _, ds := range data.Datasets {
		ys := make([]float64, len(xs))
		copy(ys, ds.Data)
		stroke := parseColor(firstOr(ds.BorderColor, ds.ColorAt(0)))
		st := chart.Style{StrokeColor: stroke, StrokeWidth: float64(ds.BorderWidth), DotColor: stroke, DotWidth: 3}
		if ds.Fill || spec.Type == analysis.ChartArea {
			st.FillColor = parseColor(ds.ColorAt(0)).WithAlpha(96)
		}
		series = append(series, chart.ContinuousSeries{Name: ds.Label, XValues: xs, YValues: ys, Style: st})
	}
	ch := chart.Chart{
		Title:      opts.Title,
		TitleStyle: titleStyle(),
		Width:      ChartWidth,
		Height:     ChartHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Ticks: ticks, Range: &chart.ContinuousRange{Min: -0.5, Max: float64(len(xs)) - 0.5}},
		YAxis:      chart.YAxis{Name: opts.YAxisTitle, Range: yRange(opts)},
		Series:     series,
	}
	if len(series) > 1 {
		ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	}
	return ch.Render(chart.PNG, w)
}

func renderArc(w io.Writer, data analysis.ChartData, spec analysis.ChartSpec, opts analysis.ChartOptions) error {
	values := arcValues(data, spec)
	if len(values) == 0 {
		values = arcValues(analysis.NoData(), spec)
	}
	if spec.Type == analysis.ChartDoughnut {
		dc := chart.DonutChart{
			Title:      opts.Title,
			TitleStyle: titleStyle(),
			Width:      ChartHeight,
			Height:     ChartHeight,
			Values:     values,
		}
		return dc.Render(chart.PNG, w)
	}
	pc := chart.PieChart{
		Title:      opts.Title,
		TitleStyle: titleStyle(),
		Width:      ChartHeight,
		Height:     ChartHeight,
		Values:     values,
	}
	return pc.Render(chart.PNG, w)
}

// arcValues sums every dataset per label; labels without a positive total
// are left out since a slice cannot be negative.
func arcValues(data analysis.ChartData, spec analysis.ChartSpec) []chart.Value {
	colors := analysis.Palette(len(data.Labels), spec.Type, spec.Theme)
	out := make([]chart.Value, 0, len(data.Labels))
	for i, label := range data.Labels {
		total := 0.0
		for _, ds := range data.Datasets {
			if i < len(ds.Data) && !math.IsNaN(ds.Data[i]) {
				total += ds.Data[i]
			}
		}
		if total <= 0 {
			continue
		}
		c := colors[i]
		if len(data.Datasets) == 1 && len(data.Datasets[0].BackgroundColor) > 1 {
			c = data.Datasets[0].ColorAt(i)
		}
		if data.Empty {
			c = data.Datasets[0].ColorAt(0)
		}
		out = append(out, chart.Value{
			Label: label,
			Value: total,
			Style: chart.Style{FillColor: parseColor(c), StrokeColor: chart.ColorWhite, StrokeWidth: 2},
		})
	}
	return out
}

func barWidth(n int) int {
	if n <= 0 {
		return 40
	}
	w := (ChartWidth - 120) * 2 / (3 * n)
	switch {
	case w < 4:
		return 4
	case w > 60:
		return 60
	}
	return w
}

func firstOr(colors []string, fallback string) string {
	if len(colors) > 0 && colors[0] != "" {
		return colors[0]
	}
	return fallback
}
