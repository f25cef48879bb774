package analysis

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ChartType is the visual encoding of the projected data.
type ChartType string

const (
	ChartBar      ChartType = "bar"
	ChartLine     ChartType = "line"
	ChartPie      ChartType = "pie"
	ChartDoughnut ChartType = "doughnut"
	ChartArea     ChartType = "area"
)

// ChartTypes lists every supported chart type in menu order.
var ChartTypes = []ChartType{ChartBar, ChartLine, ChartPie, ChartDoughnut, ChartArea}

// IsArc reports whether the chart has no cartesian axes.
func (c ChartType) IsArc() bool { return c == ChartPie || c == ChartDoughnut }

// Title returns the capitalised name, e.g. "Bar".
func (c ChartType) Title() string {
	s := string(c)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// ParseChartType validates a chart type name.
func ParseChartType(s string) (ChartType, error) {
	t := ChartType(strings.ToLower(strings.TrimSpace(s)))
	for _, c := range ChartTypes {
		if c == t {
			return t, nil
		}
	}
	return ChartBar, fmt.Errorf("unknown chart type %q (want bar, line, pie, doughnut or area)", s)
}

// ColorTheme picks the palette.
type ColorTheme string

const (
	ThemeVibrant  ColorTheme = "vibrant"
	ThemePastel   ColorTheme = "pastel"
	ThemeGradient ColorTheme = "gradient"
)

// ColorThemes lists every theme in menu order.
var ColorThemes = []ColorTheme{ThemeVibrant, ThemePastel, ThemeGradient}

// ParseColorTheme validates a theme name.
func ParseColorTheme(s string) (ColorTheme, error) {
	t := ColorTheme(strings.ToLower(strings.TrimSpace(s)))
	for _, c := range ColorThemes {
		if c == t {
			return t, nil
		}
	}
	return ThemeVibrant, fmt.Errorf("unknown color theme %q (want vibrant, pastel or gradient)", s)
}

// ChartSpec drives visual encoding only.
type ChartSpec struct {
	Type  ChartType
	Theme ColorTheme
}

// DefaultChartSpec is a vibrant bar chart.
func DefaultChartSpec() ChartSpec { return ChartSpec{Type: ChartBar, Theme: ThemeVibrant} }

var vibrantPalette = []string{
	"#1E3A8A", "#B91C1C", "#15803D", "#B45309", "#6B21A8",
	"#BE185D", "#0F766E", "#C2410C", "#4B5563", "#0891B2",
	"#A21CAF", "#4D7C0F", "#BE123C", "#0284C7", "#65A30D",
	"#7C3AED", "#EA580C", "#047857", "#6D28D9", "#D97706",
}

var pastelPalette = []string{
	"#BFDBFE", "#FECACA", "#BBF7D0", "#FEE08B", "#D8B4FE",
	"#F9A8D4", "#99F6E4", "#FED7AA", "#E2E8F0", "#A5F3FC",
	"#F5D0FE", "#D9F99D", "#FDA4AF", "#BAE6FD", "#ECFCCB",
	"#DDD6FE", "#FFEDD5", "#A7F3D0", "#C7D2FE", "#FEF3C7",
}

// goldenHue rotates by the golden angle so neighbouring series stay distinct.
func goldenHue(i int) float64 { return math.Mod(float64(i)*137.5, 360) }

func fmtHue(h float64) string { return strconv.FormatFloat(h, 'f', -1, 64) }

// GradientColor is the CSS gradient used for arc slices under ThemeGradient.
func GradientColor(i int) string {
	return fmt.Sprintf("linear-gradient(135deg, hsla(%s, 85%%, 40%%, 0.95) 0%%, hsla(%s, 75%%, 60%%, 0.85) 100%%)",
		fmtHue(goldenHue(i)), fmtHue(goldenHue(i+1)))
}

// FallbackColor is used once the fixed palette is exhausted.
func FallbackColor(i int) string {
	return fmt.Sprintf("hsla(%s, %d%%, %d%%, 0.95)", fmtHue(goldenHue(i)), 70+(i%4)*10, 40+(i%3)*15)
}

// Palette returns count deterministic colors for the chart type and theme.
func Palette(count int, chart ChartType, theme ColorTheme) []string {
	base := pastelPalette
	if theme == ThemeVibrant {
		base = vibrantPalette
	}
	colors := make([]string, 0, count)
	for i := 0; i < count; i++ {
		switch {
		case theme == ThemeGradient && chart.IsArc():
			colors = append(colors, GradientColor(i))
		case i < len(base):
			colors = append(colors, base[i])
		default:
			colors = append(colors, FallbackColor(i))
		}
	}
	return colors
}

// borderOf turns a translucent generated color opaque; hex colors pass through.
func borderOf(c string) string { return strings.Replace(c, "0.95", "1", 1) }

// Dataset is one series of the projected chart. Colors holds one entry per
// point for arc charts with a numeric y, and a single entry otherwise.
type Dataset struct {
	Label            string    `json:"label"`
	Data             []float64 `json:"data"`
	BackgroundColor  []string  `json:"backgroundColor"`
	BorderColor      []string  `json:"borderColor,omitempty"`
	PointBorderColor string    `json:"pointBorderColor,omitempty"`
	BorderWidth      int       `json:"borderWidth,omitempty"`
	BorderRadius     int       `json:"borderRadius,omitempty"`
	Tension          float64   `json:"tension,omitempty"`
	Fill             bool      `json:"fill,omitempty"`
}

// ColorAt returns the background color of point i.
func (d Dataset) ColorAt(i int) string {
	if len(d.BackgroundColor) == 0 {
		return ""
	}
	if len(d.BackgroundColor) == 1 {
		return d.BackgroundColor[0]
	}
	return d.BackgroundColor[i%len(d.BackgroundColor)]
}

// ChartData is the label/dataset structure handed to a renderer.
type ChartData struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
	// Empty marks the "No Data" placeholder.
	Empty bool `json:"-"`
}

// NoDataLabel names the placeholder series.
const NoDataLabel = "No Data"

// NoData is the single-bar placeholder returned when nothing can be charted.
func NoData() ChartData {
	return ChartData{
		Labels: []string{NoDataLabel},
		Datasets: []Dataset{{
			Label:           NoDataLabel,
			Data:            []float64{1},
			BackgroundColor: []string{"rgba(200,200,200,0.2)"},
		}},
		Empty: true,
	}
}

func styleDataset(d *Dataset, chart ChartType) {
	switch {
	case chart.IsArc():
		d.BorderWidth = 2
	case chart == ChartLine:
		d.BorderWidth = 3
	default:
		d.BorderWidth = 1
	}
	if chart == ChartBar {
		d.BorderRadius = 8
	}
	if chart == ChartLine || chart == ChartArea {
		d.Tension = 0.4
	}
	d.Fill = chart == ChartArea
}

// ProjectChart shapes an aggregate for rendering. Textual y values become one
// dataset each with per-group counts; a numeric y becomes a single dataset of
// group averages. A nil aggregate yields NoData.
func ProjectChart(agg *Aggregate, spec ChartSpec) ChartData {
	if agg == nil || len(agg.Groups) == 0 {
		return NoData()
	}
	labels := agg.Keys()
	if agg.YType == Textual {
		yValues := agg.YValues()
		colors := Palette(len(yValues), spec.Type, spec.Theme)
		datasets := make([]Dataset, len(yValues))
		for i, yv := range yValues {
			data := make([]float64, len(agg.Groups))
			for j, g := range agg.Groups {
				data[j] = float64(g.CountOf(yv))
			}
			d := Dataset{
				Label:            yv,
				Data:             data,
				BackgroundColor:  []string{colors[i]},
				BorderColor:      []string{borderOf(colors[i])},
				PointBorderColor: vibrantPalette[i%len(vibrantPalette)],
			}
			styleDataset(&d, spec.Type)
			datasets[i] = d
		}
		return ChartData{Labels: labels, Datasets: datasets}
	}

	data := make([]float64, len(agg.Groups))
	for i, g := range agg.Groups {
		data[i] = g.Average()
	}
	n := 1
	if spec.Type.IsArc() {
		n = len(labels)
	}
	colors := Palette(n, spec.Type, spec.Theme)
	borders := make([]string, len(colors))
	for i, c := range colors {
		borders[i] = borderOf(c)
	}
	d := Dataset{
		Label:            agg.YAxis + " (Avg)",
		Data:             data,
		BackgroundColor:  colors,
		BorderColor:      borders,
		PointBorderColor: vibrantPalette[0],
	}
	styleDataset(&d, spec.Type)
	return ChartData{Labels: labels, Datasets: []Dataset{d}}
}
