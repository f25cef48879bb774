package analysis

import (
	"fmt"
	"io"
	"strings"
)

// CSVFileName is the download name for the filtered rows of an upload.
func CSVFileName(uploadID string) string {
	if uploadID == "" {
		uploadID = "local"
	}
	return fmt.Sprintf("filtered-data-%s.csv", uploadID)
}

func quoteField(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func csvLine(fields []string) string {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = quoteField(f)
	}
	return strings.Join(quoted, ",")
}

// FormatCSV renders headers followed by rows. Every field is quoted with
// embedded quotes doubled, and lines are joined by "\n" without a trailing
// newline.
func FormatCSV(headers []string, rows []Row) string {
	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, csvLine(headers))
	for _, r := range rows {
		lines = append(lines, csvLine(r.Strings()))
	}
	return strings.Join(lines, "\n")
}

// WriteCSV writes FormatCSV output to w.
func WriteCSV(w io.Writer, headers []string, rows []Row) error {
	if _, err := io.WriteString(w, FormatCSV(headers, rows)); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}
