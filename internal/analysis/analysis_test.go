package analysis

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func salesTable() RawTable {
	return TableFromStrings([][]string{
		{"Report", "", ""},
		{"Region", "Product", "Sales"},
		{"North", "Widget", "10"},
		{"North", "Gadget", "20"},
		{"South", "Widget", "5"},
		{"South", "", "n/a"},
		{"", "Gizmo", "7"},
	})
}

func TestCellParsingAndJSON(t *testing.T) {
	assert.Equal(t, Number(3.5), CellFromString("3.5"))
	assert.Equal(t, Text("abc"), CellFromString("abc"))
	assert.True(t, CellFromString("").IsEmpty())

	v, ok := Text("  42 ").Float()
	assert.True(t, ok)
	assert.Equal(t, 42.0, v)
	_, ok = Text("NaN").Float()
	assert.False(t, ok)
	_, ok = Text("Inf").Float()
	assert.False(t, ok)
	_, ok = Text("12abc").Float()
	assert.False(t, ok)

	assert.Equal(t, "10", Number(10).String())
	assert.Equal(t, "2.25", Number(2.25).String())

	var row Row
	require.NoError(t, json.Unmarshal([]byte(`["a", 1.5, null, true]`), &row))
	assert.Equal(t, Row{Text("a"), Number(1.5), Empty(), Text("true")}, row)
	out, err := json.Marshal(row)
	require.NoError(t, err)
	assert.JSONEq(t, `["a", 1.5, null, "true"]`, string(out))
}

func TestHeaderResolver(t *testing.T) {
	tbl := salesTable()
	for i := range tbl {
		assert.Equal(t, tbl[i].Strings(), Headers(tbl, i))
		assert.Equal(t, []Row(tbl[i+1:]), DataRows(tbl, i))
	}

	err := ValidateHeaderRow(tbl, len(tbl))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrHeaderRowRange))
	assert.Equal(t, "Row number must be between 1 and 7.", err.Error())
	assert.Error(t, ValidateHeaderRow(tbl, -1))

	idx, err := ParseHeaderRowInput("2", len(tbl))
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	idx, err = ParseHeaderRowInput("", len(tbl))
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	_, err = ParseHeaderRowInput("0", len(tbl))
	assert.ErrorIs(t, err, ErrHeaderRowInput)
	_, err = ParseHeaderRowInput("abc", len(tbl))
	assert.ErrorIs(t, err, ErrHeaderRowInput)
	_, err = ParseHeaderRowInput("8", len(tbl))
	assert.ErrorIs(t, err, ErrHeaderRowRange)

	assert.Equal(t, 0, ColumnIndex([]string{"a", "b", "a"}, "a"))
	assert.Equal(t, -1, ColumnIndex([]string{"a"}, "z"))
}

func TestInferColumnTypes(t *testing.T) {
	tbl := salesTable()
	headers, rows := Headers(tbl, 1), DataRows(tbl, 1)
	types := InferColumnTypes(headers, rows, DefaultNumericThreshold)
	assert.Equal(t, Textual, types["Region"])
	assert.Equal(t, Textual, types["Product"])
	// 4 of 5 non-empty cells are numbers: below 90%.
	assert.Equal(t, Textual, types["Sales"])
	assert.Equal(t, Numeric, InferColumnTypes(headers, rows, 0.8)["Sales"])

	assert.Equal(t, types, InferColumnTypes(headers, rows, DefaultNumericThreshold))

	empty := InferColumnTypes([]string{"blank"}, []Row{{Empty()}, {Text("")}}, 0.9)
	assert.Equal(t, Textual, empty["blank"])

	mostly := make([]Row, 0, 10)
	for i := 0; i < 9; i++ {
		mostly = append(mostly, Row{Number(float64(i))})
	}
	mostly = append(mostly, Row{Text("oops")})
	assert.Equal(t, Numeric, InferColumnTypes([]string{"n"}, mostly, 0.9)["n"])
}

func TestFilterEngine(t *testing.T) {
	headers := []string{"Name", "Score"}
	rows := []Row{
		{Text("Alice"), Number(90)},
		{Text("bob"), Number(72)},
		{Text("Carol"), Text("absent")},
		{Text("Dave"), Number(55)},
	}
	types := ColumnTypes{"Name": Textual, "Score": Numeric}

	assert.Len(t, Filter(rows, headers, "", nil, types), 4)
	assert.Equal(t, []Row{rows[1]}, Filter(rows, headers, "BO", nil, types))
	assert.Equal(t, []Row{rows[0]}, Filter(rows, headers, "90", nil, types))

	spec := FilterSpec{}.With("Score", FieldValue, "60", Numeric)
	got := Filter(rows, headers, "", spec, types)
	assert.Equal(t, []Row{rows[0], rows[1]}, got)

	narrower := spec.With("Score", FieldMax, "80", Numeric)
	assert.Equal(t, []Row{rows[1]}, Filter(rows, headers, "", narrower, types))
	assert.LessOrEqual(t, len(Filter(rows, headers, "", narrower, types)), len(got))
	assert.Len(t, spec, 1, "With must not mutate the receiver")
	assert.Equal(t, "", spec["Score"].Max)

	text := FilterSpec{}.With("Name", FieldValue, "a", Textual)
	assert.Equal(t, []Row{rows[0], rows[2], rows[3]}, Filter(rows, headers, "", text, types))
	assert.Equal(t, []Row{rows[3]}, Filter(rows, headers, "dav", text, types))

	cleared := text.With("Name", FieldValue, "", Textual)
	assert.NotContains(t, cleared, "Name")
	bothEmpty := FilterSpec{}.With("Score", FieldMax, "", Numeric)
	assert.Empty(t, bothEmpty)
	assert.Len(t, Filter(rows, headers, "", bothEmpty, types), 4)

	unknown := FilterSpec{"Missing": {Value: "x"}}
	assert.Len(t, Filter(rows, headers, "", unknown, types), 4)

	badMin := FilterSpec{}.With("Score", FieldValue, "abc", Numeric)
	assert.Empty(t, Filter(rows, headers, "", badMin, types), "an unparseable bound matches nothing")
	badMax := spec.With("Score", FieldMax, "lots", Numeric)
	assert.Empty(t, Filter(rows, headers, "", badMax, types))
	assert.Equal(t, "(Score in [NaN, Infinity])", BuildPredicate(headers, "", badMin, types).Description())
}

func TestPaginate(t *testing.T) {
	rows := make([]Row, 23)
	for i := range rows {
		rows[i] = Row{Number(float64(i))}
	}
	p := Pagination{RowsPerPage: 10, CurrentPage: 1}
	var all []Row
	for page := 1; page <= p.TotalPages(len(rows)); page++ {
		p.CurrentPage = page
		got, total := Paginate(rows, p)
		assert.Equal(t, 3, total)
		all = append(all, got...)
	}
	assert.Equal(t, rows, all)

	p.CurrentPage = 3
	last, _ := Paginate(rows, p)
	assert.Len(t, last, 3)

	for _, page := range []int{1, 2, 99} {
		got, total := Paginate(rows, Pagination{RowsPerPage: AllRows, CurrentPage: page})
		assert.Equal(t, 1, total)
		assert.Equal(t, rows, got)
	}

	assert.Equal(t, 3, Pagination{RowsPerPage: 10, CurrentPage: 9}.Clamp(len(rows)).CurrentPage)
	assert.Equal(t, 1, Pagination{RowsPerPage: 10, CurrentPage: 0}.Clamp(len(rows)).CurrentPage)
	assert.Equal(t, 1, Pagination{RowsPerPage: 10, CurrentPage: 4}.Clamp(0).CurrentPage)

	n, err := ParseRowsPerPage("all")
	require.NoError(t, err)
	assert.True(t, n.IsAll())
	n, err = ParseRowsPerPage("25")
	require.NoError(t, err)
	assert.Equal(t, RowsPerPage(25), n)
	_, err = ParseRowsPerPage("-1")
	assert.Error(t, err)
}

func TestAggregateNumeric(t *testing.T) {
	headers := []string{"cat", "val"}
	rows := []Row{{Text("A"), Number(10)}, {Text("A"), Number(20)}, {Text("B"), Number(5)}}
	types := ColumnTypes{"cat": Textual, "val": Numeric}

	agg := AggregateRows(rows, headers, "cat", "val", types)
	require.NotNil(t, agg)
	assert.Equal(t, []string{"A", "B"}, agg.Keys())
	a, _ := agg.Group("A")
	b, _ := agg.Group("B")
	assert.Equal(t, 15.0, a.Average())
	assert.Equal(t, 5.0, b.Average())

	withJunk := append([]Row{{Text(" "), Text("x")}, {Empty(), Number(4)}}, rows...)
	agg = AggregateRows(withJunk, headers, "cat", "val", types)
	require.NotNil(t, agg)
	assert.Equal(t, []string{UnknownLabel, "A", "B"}, agg.Keys())
	u, _ := agg.Group(UnknownLabel)
	assert.Equal(t, 1, u.Count)
	assert.Equal(t, 4.0, u.Sum)

	assert.Nil(t, AggregateRows(rows, headers, "", "val", types))
	assert.Nil(t, AggregateRows(rows, headers, "cat", "nope", types))
	assert.Nil(t, AggregateRows(nil, headers, "cat", "val", types))
}

func TestAggregateTextual(t *testing.T) {
	headers := []string{"cat", "val"}
	rows := []Row{{Text("A"), Text("x")}, {Text("A"), Text("x")}, {Text("A"), Text("y")}}
	agg := AggregateRows(rows, headers, "cat", "val", ColumnTypes{})
	require.NotNil(t, agg)
	require.Len(t, agg.Groups, 1)
	g := agg.Groups[0]
	assert.Equal(t, "A", g.Key)
	assert.Equal(t, []ValueCount{{"x", 2}, {"y", 1}}, g.Values)
}

func TestProjectChart(t *testing.T) {
	headers := []string{"cat", "val"}
	textRows := []Row{{Text("A"), Text("x")}, {Text("B"), Text("y")}, {Text("A"), Text("x")}}
	agg := AggregateRows(textRows, headers, "cat", "val", ColumnTypes{})
	data := ProjectChart(agg, ChartSpec{Type: ChartBar, Theme: ThemeVibrant})
	assert.Equal(t, []string{"A", "B"}, data.Labels)
	require.Len(t, data.Datasets, 2)
	assert.Equal(t, "x", data.Datasets[0].Label)
	assert.Equal(t, []float64{2, 0}, data.Datasets[0].Data)
	assert.Equal(t, []float64{0, 1}, data.Datasets[1].Data)
	assert.Equal(t, []string{"#1E3A8A"}, data.Datasets[0].BackgroundColor)
	assert.Equal(t, 8, data.Datasets[0].BorderRadius)

	numRows := []Row{{Text("A"), Number(10)}, {Text("A"), Number(20)}, {Text("B"), Number(5)}}
	agg = AggregateRows(numRows, headers, "cat", "val", ColumnTypes{"val": Numeric})
	data = ProjectChart(agg, ChartSpec{Type: ChartPie, Theme: ThemeGradient})
	require.Len(t, data.Datasets, 1)
	d := data.Datasets[0]
	assert.Equal(t, "val (Avg)", d.Label)
	assert.Equal(t, []float64{15, 5}, d.Data)
	require.Len(t, d.BackgroundColor, 2)
	assert.Equal(t, "linear-gradient(135deg, hsla(0, 85%, 40%, 0.95) 0%, hsla(137.5, 75%, 60%, 0.85) 100%)", d.BackgroundColor[0])
	assert.Equal(t, 2, d.BorderWidth)

	line := ProjectChart(agg, ChartSpec{Type: ChartArea, Theme: ThemePastel})
	assert.Equal(t, []string{"#BFDBFE"}, line.Datasets[0].BackgroundColor)
	assert.True(t, line.Datasets[0].Fill)
	assert.Equal(t, 0.4, line.Datasets[0].Tension)

	empty := ProjectChart(nil, DefaultChartSpec())
	assert.True(t, empty.Empty)
	assert.Equal(t, []string{NoDataLabel}, empty.Labels)
	assert.Equal(t, []float64{1}, empty.Datasets[0].Data)
}

func TestPalette(t *testing.T) {
	colors := Palette(21, ChartBar, ThemeVibrant)
	assert.Equal(t, "#1E3A8A", colors[0])
	assert.Equal(t, "#D97706", colors[19])
	assert.Equal(t, "hsla(230, 70%, 70%, 0.95)", colors[20])
	assert.Equal(t, "hsla(230, 70%, 70%, 1)", borderOf(colors[20]))

	// gradient only applies to arc charts
	assert.Equal(t, "#BFDBFE", Palette(1, ChartBar, ThemeGradient)[0])
	assert.Equal(t, Palette(5, ChartDoughnut, ThemeGradient), Palette(5, ChartDoughnut, ThemeGradient))
}

func TestChartOptions(t *testing.T) {
	data := ChartData{Datasets: []Dataset{{Data: []float64{3, 10}}, {Data: []float64{4}}}}
	opts := BuildChartOptions(data, ChartSpec{Type: ChartBar}, "Region", "Product", Textual, 50, 10)
	assert.Equal(t, "Bar Chart – Product Distribution by Region (Current Page)", opts.Title)
	assert.InDelta(t, 11.0, opts.YMax, 1e-9)
	assert.True(t, opts.ShowAxes)
	assert.True(t, opts.ShowXTicks)
	assert.Equal(t, "Count", opts.YAxisTitle)

	opts = BuildChartOptions(data, ChartSpec{Type: ChartPie}, "Region", "Sales", Numeric, 50, AllRows)
	assert.Equal(t, "Pie Chart – Sales (Avg) by Region (All Rows)", opts.Title)
	assert.False(t, opts.ShowAxes)
	assert.False(t, opts.ShowXTicks)
	assert.Empty(t, opts.YAxisTitle)

	assert.Equal(t, 10.0, YAxisMax(ChartData{}))
	assert.False(t, BuildChartOptions(data, ChartSpec{Type: ChartLine}, "a", "b", Numeric, 21, AllRows).ShowXTicks)
}

func TestSummarize(t *testing.T) {
	headers := []string{"v"}
	rows := []Row{{Number(1)}, {Number(2)}, {Text("3")}, {Number(4)}, {Text("skip")}}
	s := Summarize(rows, headers, "v", ColumnTypes{"v": Numeric})
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 4.0, s.Max)
	assert.Equal(t, 2.5, s.Mean)
	assert.Equal(t, 2.5, s.Median)
	assert.InDelta(t, 1.118, s.StdDev, 1e-3)

	odd := Summarize(rows[:3], headers, "v", ColumnTypes{"v": Numeric})
	assert.Equal(t, 2.0, odd.Median)

	assert.Equal(t, Stats{}, Summarize(rows, headers, "v", ColumnTypes{"v": Textual}))
	assert.Equal(t, Stats{}, Summarize(rows, headers, "", ColumnTypes{"v": Numeric}))
	assert.Equal(t, Stats{}, Summarize([]Row{{Text("x")}}, headers, "v", ColumnTypes{"v": Numeric}))
}

func TestHighlight(t *testing.T) {
	headers := []string{"cat", "val"}
	num := []Row{{Text("A"), Number(10)}, {Text("A"), Number(20)}, {Text("B"), Number(5)}}
	assert.Equal(t, "Highest average val is 15.00 for A in entire dataset.",
		Highlight(num, headers, "cat", "val", ColumnTypes{"val": Numeric}, ScopeEntire))

	text := []Row{{Text("A"), Text("x")}, {Text("B"), Text("y")}, {Text("A"), Text("y")}, {Text("C"), Text("z")}}
	assert.Equal(t, `Most frequent val value is "y" with 2 occurrences in current page.`,
		Highlight(text, headers, "cat", "val", ColumnTypes{}, ScopePage))
	assert.Equal(t, `Most frequent val value is "x" with 1 occurrence in entire dataset.`,
		Highlight(text[:1], headers, "cat", "val", ColumnTypes{}, ScopeEntire))

	assert.Empty(t, Highlight(nil, headers, "cat", "val", ColumnTypes{}, ScopeEntire))
}

func TestFormatCSVRoundTrip(t *testing.T) {
	headers := []string{"name", `quote "q"`}
	rows := []Row{
		{Text(`say "hi", ok`), Number(1.5)},
		{Text("line"), Empty()},
	}
	out := FormatCSV(headers, rows)
	assert.True(t, strings.HasPrefix(out, `"name","quote ""q"""`+"\n"))
	assert.False(t, strings.HasSuffix(out, "\n"))

	recs, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{headers, {`say "hi", ok`, "1.5"}, {"line", ""}}, recs)
	assert.Equal(t, "filtered-data-abc.csv", CSVFileName("abc"))
}

func TestParamsAreValues(t *testing.T) {
	p := DefaultParams().WithXAxis("a").WithYAxis("b").WithPage(3)
	q := p.WithHeaderRow(2)
	assert.Equal(t, "a", p.XAxis)
	assert.Equal(t, 3, p.Pagination.CurrentPage)
	assert.Empty(t, q.XAxis)
	assert.Empty(t, q.YAxis)
	assert.Equal(t, 1, q.Pagination.CurrentPage)

	f := p.WithFilter("b", FieldValue, "1", Numeric)
	assert.Empty(t, p.Filters)
	assert.Equal(t, Criterion{Value: "1"}, f.Filters["b"])
	assert.Equal(t, 1, f.Pagination.CurrentPage)
	assert.Empty(t, f.WithoutFilters().Filters)
	assert.Equal(t, 1, p.WithSearch("x").Pagination.CurrentPage)
}
