package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/KaramelBytes/sheetviz-cli/internal/analysis"
	"github.com/KaramelBytes/sheetviz-cli/internal/parser"
)

// tableSource records where a table was loaded from.
type tableSource struct {
	Name     string
	UploadID string
	// Path is set for local files.
	Path string
}

// loadTable reads arg as a local spreadsheet when such a file exists and
// otherwise fetches it as an upload id from the service.
func loadTable(cmd *cobra.Command, arg string) (analysis.RawTable, tableSource, error) {
	if fi, err := os.Stat(arg); err == nil && !fi.IsDir() {
		t, err := parser.ParseFile(arg)
		if err != nil {
			return nil, tableSource{}, err
		}
		return t, tableSource{Name: filepath.Base(arg), Path: arg}, nil
	}
	cl, err := authedClient()
	if err != nil {
		return nil, tableSource{}, fmt.Errorf("%s is not a local file: %w", arg, err)
	}
	up, err := cl.FetchUpload(cmd.Context(), arg)
	if err != nil {
		slog.Error("fetch upload failed", "id", arg, "err", err)
		return nil, tableSource{}, err
	}
	return up.Data, tableSource{Name: up.FileName, UploadID: up.ID}, nil
}

// viewFlags are the view parameters shared by analyze and view.
type viewFlags struct {
	headerRow   string
	x, y        string
	search      string
	filters     []string
	rowsPerPage string
	page        int
	chart       string
	theme       string
	scope       string
}

func (f *viewFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.headerRow, "header-row", "", "1-based row holding the column labels (default 1)")
	fs.StringVar(&f.x, "x", "", "x axis column (grouping)")
	fs.StringVar(&f.y, "y", "", "y axis column (values)")
	fs.StringVar(&f.search, "search", "", "keep rows where any cell contains this text")
	fs.StringArrayVar(&f.filters, "filter", nil, "column filter: col=text or col=min..max (repeatable)")
	fs.StringVar(&f.rowsPerPage, "rows-per-page", "", "page size or \"all\" (default from config)")
	fs.IntVar(&f.page, "page", 1, "page number")
	fs.StringVar(&f.chart, "chart", "", "chart type: bar|line|pie|doughnut|area (default from config)")
	fs.StringVar(&f.theme, "theme", "", "color theme: vibrant|pastel|gradient (default from config)")
	fs.StringVar(&f.scope, "scope", "entire", "statistics scope: entire|page")
}

// apply configures v from the flags, falling back to config defaults.
func (f *viewFlags) apply(cmd *cobra.Command, v *analysis.View) error {
	if cmd.Flags().Changed("header-row") {
		if err := v.SetCustomHeaderRow(f.headerRow); err != nil {
			return err
		}
	}
	if f.x != "" {
		if err := v.SetAxis(analysis.AxisX, f.x); err != nil {
			return err
		}
	}
	if f.y != "" {
		if err := v.SetAxis(analysis.AxisY, f.y); err != nil {
			return err
		}
	}
	v.AutoSelectAxes()

	chart, theme, rpp := f.chart, f.theme, f.rowsPerPage
	if cfg != nil {
		if chart == "" {
			chart = cfg.ChartType
		}
		if theme == "" {
			theme = cfg.ColorTheme
		}
		if rpp == "" {
			rpp = cfg.RowsPerPage
		}
	}
	if chart != "" {
		t, err := analysis.ParseChartType(chart)
		if err != nil {
			return err
		}
		v.SetChartType(t)
	}
	if theme != "" {
		t, err := analysis.ParseColorTheme(theme)
		if err != nil {
			return err
		}
		v.SetColorTheme(t)
	}
	if rpp != "" {
		n, err := analysis.ParseRowsPerPage(rpp)
		if err != nil {
			return err
		}
		v.SetRowsPerPage(n)
	}

	v.SetGlobalSearch(f.search)
	for _, raw := range f.filters {
		e, err := analysis.ParseFilterExpr(raw)
		if err != nil {
			return err
		}
		if err := v.ApplyFilter(e); err != nil {
			return err
		}
	}
	scope, err := analysis.ParseScope(f.scope)
	if err != nil {
		return err
	}
	v.SetScope(scope)
	v.SetPage(f.page)
	return nil
}
