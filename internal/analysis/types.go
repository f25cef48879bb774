package analysis

import "fmt"

// DefaultNumericThreshold is the share of non-empty cells that must parse as
// finite numbers for a column to be numeric.
const DefaultNumericThreshold = 0.9

// ColumnType classifies a column as textual or numeric.
type ColumnType int

const (
	Textual ColumnType = iota
	Numeric
)

func (t ColumnType) String() string {
	if t == Numeric {
		return "number"
	}
	return "text"
}

func (t ColumnType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *ColumnType) UnmarshalText(b []byte) error {
	switch string(b) {
	case "number", "numeric":
		*t = Numeric
	case "text", "textual":
		*t = Textual
	default:
		return fmt.Errorf("unknown column type %q", string(b))
	}
	return nil
}

// ColumnTypes maps header labels to their inferred type.
type ColumnTypes map[string]ColumnType

// Of returns the type of column name. Unknown columns are textual.
func (ct ColumnTypes) Of(name string) ColumnType { return ct[name] }

// IsNumeric reports whether column name is numeric.
func (ct ColumnTypes) IsNumeric(name string) bool { return ct[name] == Numeric }

// InferColumnTypes classifies every column from its data cells. Empty cells
// are ignored; a column without any non-empty cell is textual. A threshold
// outside (0, 1] falls back to DefaultNumericThreshold.
func InferColumnTypes(headers []string, rows []Row, threshold float64) ColumnTypes {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultNumericThreshold
	}
	types := make(ColumnTypes, len(headers))
	for i, h := range headers {
		if _, seen := types[h]; seen {
			continue
		}
		valid, numeric := 0, 0
		for _, r := range rows {
			c := r.At(i)
			if c.IsEmpty() {
				continue
			}
			valid++
			if _, ok := c.Float(); ok {
				numeric++
			}
		}
		if valid == 0 {
			types[h] = Textual
			continue
		}
		if float64(numeric)/float64(valid) >= threshold {
			types[h] = Numeric
		} else {
			types[h] = Textual
		}
	}
	return types
}
