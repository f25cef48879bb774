package export

import (
	"bytes"
	"context"
	"image/png"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/KaramelBytes/sheetviz-cli/internal/analysis"
)

var (
	headers = []string{"Region", "Product", "Sales"}
	rows    = analysis.TableFromStrings([][]string{
		{"North", "Apples", "10"},
		{"South", "Pears", "5"},
		{"North", "Pears", "7"},
		{"East", "", "3"},
	})
)

func project(t *testing.T, y string, spec analysis.ChartSpec) (analysis.ChartData, analysis.ChartOptions) {
	t.Helper()
	types := analysis.InferColumnTypes(headers, rows, analysis.DefaultNumericThreshold)
	agg := analysis.AggregateRows(rows, headers, "Region", y, types)
	require.NotNil(t, agg)
	data := analysis.ProjectChart(agg, spec)
	opts := analysis.BuildChartOptions(data, spec, "Region", y, types.Of(y), len(rows), analysis.DefaultRowsPerPage)
	return data, opts
}

func TestRenderChartPNGAllTypes(t *testing.T) {
	for _, ct := range analysis.ChartTypes {
		for _, y := range []string{"Sales", "Product"} {
			t.Run(string(ct)+"/"+y, func(t *testing.T) {
				spec := analysis.ChartSpec{Type: ct, Theme: analysis.ThemeGradient}
				data, opts := project(t, y, spec)
				var buf bytes.Buffer
				require.NoError(t, RenderChartPNG(&buf, data, spec, opts))
				cfg, err := png.DecodeConfig(bytes.NewReader(buf.Bytes()))
				require.NoError(t, err)
				if ct.IsArc() {
					assert.Equal(t, ChartHeight, cfg.Width)
				} else {
					assert.Equal(t, ChartWidth, cfg.Width)
				}
			})
		}
	}
}

func TestRenderChartPNGNoData(t *testing.T) {
	for _, ct := range analysis.ChartTypes {
		spec := analysis.ChartSpec{Type: ct, Theme: analysis.ThemeVibrant}
		var buf bytes.Buffer
		require.NoError(t, RenderChartPNG(&buf, analysis.NoData(), spec, analysis.ChartOptions{YMax: 10}), ct)
		assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
	}
}

func TestChartFileName(t *testing.T) {
	assert.Equal(t, "chart-doughnut.png", ChartFileName(analysis.ChartDoughnut))
}

func TestParseColor(t *testing.T) {
	assert.Equal(t, drawing.Color{R: 0x1E, G: 0x3A, B: 0x8A, A: 255}, parseColor("#1E3A8A"))
	assert.Equal(t, drawing.Color{R: 200, G: 200, B: 200, A: 51}, parseColor("rgba(200,200,200,0.2)"))
	assert.Equal(t, drawing.Color{R: 255, G: 0, B: 0, A: 255}, parseColor("hsla(0, 100%, 50%, 1)"))
	assert.Equal(t, drawing.Color{R: 255, G: 0, B: 0, A: 255}, parseColor("hsl(360, 100%, 50%)"))
	grad := parseColor("linear-gradient(135deg, hsla(120, 100%, 50%, 1) 0%, hsla(0, 75%, 60%, 0.85) 100%)")
	assert.Equal(t, drawing.Color{R: 0, G: 255, B: 0, A: 255}, grad)
}

func TestParquetSchemaNames(t *testing.T) {
	s := ParquetSchema([]string{"A", "", "A", "A_2", "A"})
	var names []string
	for _, f := range s.Fields() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"A", "column_2", "A_2", "A_2_2", "A_3"}, names)
}

func TestWriteParquetRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteParquet(&buf, headers, rows))

	mem := memory.NewGoAllocator()
	tbl, err := pqarrow.ReadTable(context.Background(), bytes.NewReader(buf.Bytes()),
		parquet.NewReaderProperties(mem), pqarrow.ArrowReadProperties{}, mem)
	require.NoError(t, err)
	defer tbl.Release()

	require.EqualValues(t, 4, tbl.NumRows())
	require.EqualValues(t, 3, tbl.NumCols())
	assert.Equal(t, "Product", tbl.Schema().Field(1).Name)

	product := tbl.Column(1).Data().Chunk(0).(*array.String)
	assert.Equal(t, "Apples", product.Value(0))
	assert.True(t, product.IsNull(3))
	sales := tbl.Column(2).Data().Chunk(0).(*array.String)
	assert.Equal(t, "7", sales.Value(2))
}

func TestParquetFileName(t *testing.T) {
	assert.Equal(t, "filtered-data-abc.parquet", ParquetFileName("abc"))
	assert.Equal(t, "filtered-data-local.parquet", ParquetFileName(""))
}

func TestHexColor(t *testing.T) {
	assert.Equal(t, "#1e3a8a", HexColor("#1E3A8A"))
	assert.Equal(t, "#c8c8c8", HexColor("rgba(200,200,200,0.2)"))
}
