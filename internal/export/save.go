package export

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/KaramelBytes/sheetviz-cli/internal/analysis"
	"github.com/KaramelBytes/sheetviz-cli/internal/utils"
)

// SaveCSV writes the filtered rows of v to dir and returns the file path.
func SaveCSV(v *analysis.View, dir, uploadID string) (string, error) {
	var buf bytes.Buffer
	if err := v.ExportCSV(&buf); err != nil {
		return "", fmt.Errorf("export csv: %w", err)
	}
	return save(dir, analysis.CSVFileName(uploadID), buf.Bytes())
}

// SaveChartPNG renders the current chart of v to dir and returns the file path.
func SaveChartPNG(v *analysis.View, dir string) (string, error) {
	spec := v.Params().Chart
	var buf bytes.Buffer
	if err := RenderChartPNG(&buf, v.ChartData(), spec, v.ChartOptions()); err != nil {
		return "", err
	}
	return save(dir, ChartFileName(spec.Type), buf.Bytes())
}

// SaveParquet writes the filtered rows of v as Parquet to dir and returns the file path.
func SaveParquet(v *analysis.View, dir, uploadID string) (string, error) {
	var buf bytes.Buffer
	if err := WriteParquet(&buf, v.Headers(), v.FilteredRows()); err != nil {
		return "", err
	}
	return save(dir, ParquetFileName(uploadID), buf.Bytes())
}

func save(dir, name string, data []byte) (string, error) {
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, name)
	if err := utils.SafeWriteFile(path, data); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return path, nil
}
