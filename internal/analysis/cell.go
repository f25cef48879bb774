package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// CellKind identifies what a spreadsheet cell holds.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellNumber
	CellText
)

// Cell is one scalar value of a RawTable: a string, a number, or nothing.
type Cell struct {
	Kind CellKind
	Num  float64
	Text string
}

// Text returns a text cell.
func Text(s string) Cell { return Cell{Kind: CellText, Text: s} }

// Number returns a numeric cell.
func Number(f float64) Cell { return Cell{Kind: CellNumber, Num: f} }

// Empty returns an empty cell.
func Empty() Cell { return Cell{} }

// String returns the display form of the cell. Empty cells render as "".
func (c Cell) String() string {
	switch c.Kind {
	case CellNumber:
		return formatNumber(c.Num)
	case CellText:
		return c.Text
	default:
		return ""
	}
}

// IsEmpty reports whether the cell is null or the empty string.
func (c Cell) IsEmpty() bool {
	return c.Kind == CellEmpty || (c.Kind == CellText && c.Text == "")
}

// Float returns the numeric value of the cell when it is a finite number.
// Text cells are parsed after trimming surrounding whitespace.
func (c Cell) Float() (float64, bool) {
	switch c.Kind {
	case CellNumber:
		if math.IsNaN(c.Num) || math.IsInf(c.Num, 0) {
			return 0, false
		}
		return c.Num, true
	case CellText:
		return ParseNumber(c.Text)
	default:
		return 0, false
	}
}

// MarshalJSON encodes empty cells as null, numbers as JSON numbers and text as strings.
func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case CellNumber:
		if math.IsNaN(c.Num) || math.IsInf(c.Num, 0) {
			return []byte("null"), nil
		}
		return []byte(strconv.FormatFloat(c.Num, 'g', -1, 64)), nil
	case CellText:
		return json.Marshal(c.Text)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts null, numbers, strings and booleans.
func (c *Cell) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*c = Empty()
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("decode text cell: %w", err)
		}
		*c = Text(s)
	case 't', 'f':
		var v bool
		if err := json.Unmarshal(b, &v); err != nil {
			return fmt.Errorf("decode bool cell: %w", err)
		}
		*c = Text(strconv.FormatBool(v))
	default:
		f, err := strconv.ParseFloat(string(b), 64)
		if err != nil {
			return fmt.Errorf("decode number cell: %w", err)
		}
		*c = Number(f)
	}
	return nil
}

// ParseNumber parses s as a finite float. NaN and infinities are rejected.
func ParseNumber(s string) (float64, bool) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// CellFromString classifies raw text coming from a parser: "" becomes an empty
// cell, finite numbers become numeric cells and everything else stays text.
func CellFromString(s string) Cell {
	if s == "" {
		return Empty()
	}
	if f, ok := ParseNumber(s); ok {
		return Number(f)
	}
	return Text(s)
}

func formatNumber(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	if math.IsInf(f, 1) {
		return "Infinity"
	}
	if math.IsInf(f, -1) {
		return "-Infinity"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Row is one ordered sequence of cells.
type Row []Cell

// At returns the cell at column i, or an empty cell when the row is shorter.
func (r Row) At(i int) Cell {
	if i < 0 || i >= len(r) {
		return Empty()
	}
	return r[i]
}

// Strings returns the display form of every cell.
func (r Row) Strings() []string {
	out := make([]string, len(r))
	for i, c := range r {
		out[i] = c.String()
	}
	return out
}

// RawTable is the immutable 2D input parsed from an upload.
type RawTable []Row

// Len returns the number of rows.
func (t RawTable) Len() int { return len(t) }

// TableFromStrings builds a RawTable from string records, classifying each
// value with CellFromString.
func TableFromStrings(records [][]string) RawTable {
	t := make(RawTable, len(records))
	for i, rec := range records {
		row := make(Row, len(rec))
		for j, v := range rec {
			row[j] = CellFromString(v)
		}
		t[i] = row
	}
	return t
}
