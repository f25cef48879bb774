package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/sheetviz-cli/internal/analysis"
	"github.com/KaramelBytes/sheetviz-cli/internal/export"
	"github.com/KaramelBytes/sheetviz-cli/internal/parser"
	"github.com/KaramelBytes/sheetviz-cli/internal/ui"
	"github.com/KaramelBytes/sheetviz-cli/internal/utils"
)

var (
	anaFlags         viewFlags
	anaExportCSV     bool
	anaExportChart   bool
	anaExportParquet bool
	anaOutDir        string
	anaJSON          bool
	anaWatch         bool
	anaWidth         int
)

// reloadSettle is how long a local file must stay quiet before --watch re-renders.
const reloadSettle = 200 * time.Millisecond

var analyzeCmd = &cobra.Command{
	Use:   "analyze <upload-id|file>",
	Short: "Print a table page, chart and statistics for an upload or a local spreadsheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, src, err := loadTable(cmd, args[0])
		if err != nil {
			return err
		}
		if err := runAnalysis(cmd, t, src); err != nil {
			return err
		}
		if !anaWatch {
			return nil
		}
		if src.Path == "" {
			return fmt.Errorf("--watch needs a local file")
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return watchFile(ctx, cmd, src)
	},
}

// analyzeOutput is the --json document.
type analyzeOutput struct {
	Source       string                `json:"source"`
	UploadID     string                `json:"uploadId,omitempty"`
	HeaderRow    int                   `json:"headerRow"`
	Headers      []string              `json:"headers"`
	ColumnTypes  analysis.ColumnTypes  `json:"columnTypes"`
	XAxis        string                `json:"xAxis"`
	YAxis        string                `json:"yAxis"`
	Filter       string                `json:"filter"`
	FilteredRows int                   `json:"filteredRows"`
	Page         int                   `json:"page"`
	TotalPages   int                   `json:"totalPages"`
	PageRows     []analysis.Row        `json:"pageRows"`
	Chart        analysis.ChartData    `json:"chart"`
	ChartOptions analysis.ChartOptions `json:"chartOptions"`
	Stats        *analysis.Stats       `json:"stats,omitempty"`
	Highlight    string                `json:"highlight,omitempty"`
	Exports      []string              `json:"exports,omitempty"`
}

func runAnalysis(cmd *cobra.Command, t analysis.RawTable, src tableSource) error {
	v := analysis.NewView(t, analysisOptions())
	if err := anaFlags.apply(cmd, v); err != nil {
		return err
	}
	slog.Debug("analysis", "source", src.Name, "rows", len(t), "filter", v.FilterDescription())

	exports, err := writeExports(v, src)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if anaJSON {
		p := v.Params()
		doc := analyzeOutput{
			Source:       src.Name,
			UploadID:     src.UploadID,
			HeaderRow:    p.HeaderRow + 1,
			Headers:      v.Headers(),
			ColumnTypes:  v.ColumnTypes(),
			XAxis:        p.XAxis,
			YAxis:        p.YAxis,
			Filter:       v.FilterDescription(),
			FilteredRows: len(v.FilteredRows()),
			Page:         p.Pagination.CurrentPage,
			TotalPages:   v.TotalPages(),
			PageRows:     v.PageRows(),
			Chart:        v.ChartData(),
			ChartOptions: v.ChartOptions(),
			Highlight:    v.HighlightSummary(),
			Exports:      exports,
		}
		if v.ColumnTypes().IsNumeric(p.YAxis) {
			s := v.Stats()
			doc.Stats = &s
		}
		b, err := utils.PrettyJSON(doc)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(b))
		return nil
	}
	fmt.Fprint(out, ui.NewReport(src.Name, anaWidth).Render(v))
	for _, path := range exports {
		fmt.Fprintf(out, "✓ Saved %s\n", path)
	}
	return nil
}

func writeExports(v *analysis.View, src tableSource) ([]string, error) {
	var saved []string
	if anaExportCSV {
		path, err := export.SaveCSV(v, anaOutDir, src.UploadID)
		if err != nil {
			return nil, err
		}
		saved = append(saved, path)
	}
	if anaExportChart {
		path, err := export.SaveChartPNG(v, anaOutDir)
		if err != nil {
			return nil, err
		}
		saved = append(saved, path)
	}
	if anaExportParquet {
		path, err := export.SaveParquet(v, anaOutDir, src.UploadID)
		if err != nil {
			return nil, err
		}
		saved = append(saved, path)
	}
	return saved, nil
}

// watchFile re-runs the analysis whenever the local file changes. The
// directory is watched so editors that replace the file are noticed.
func watchFile(ctx context.Context, cmd *cobra.Command, src tableSource) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Close()
	target := filepath.Clean(src.Path)
	if err := w.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", src.Path, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s (Ctrl+C to stop)\n", src.Name)

	reload := make(chan struct{}, 1)
	settle := analysis.NewDebouncer(reloadSettle)
	defer settle.Cancel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			settle.Schedule(func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", "err", err)
		case <-reload:
			t, err := parser.ParseFile(src.Path)
			if err != nil {
				slog.Warn("reload failed", "file", src.Path, "err", err)
				continue
			}
			if err := runAnalysis(cmd, t, src); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "✗ Error:", err)
			}
		}
	}
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	fs := analyzeCmd.Flags()
	anaFlags.register(fs)
	fs.BoolVar(&anaExportCSV, "export-csv", false, "write the filtered rows to filtered-data-<id>.csv")
	fs.BoolVar(&anaExportChart, "export-chart", false, "write the chart to chart-<type>.png")
	fs.BoolVar(&anaExportParquet, "export-parquet", false, "write the filtered rows to filtered-data-<id>.parquet")
	fs.StringVar(&anaOutDir, "out-dir", ".", "directory for exported files")
	fs.BoolVar(&anaJSON, "json", false, "print the analysis as JSON instead of a report")
	fs.BoolVar(&anaWatch, "watch", false, "re-run when the local file changes")
	fs.IntVar(&anaWidth, "width", 100, "report width in columns")
}
