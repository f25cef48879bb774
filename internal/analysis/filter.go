package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// FilterField selects which half of a Criterion an edit targets.
type FilterField int

const (
	// FieldValue is the substring for textual columns and the lower bound for numeric ones.
	FieldValue FilterField = iota
	// FieldMax is the upper bound of a numeric range.
	FieldMax
)

func (f FilterField) String() string {
	if f == FieldMax {
		return "max"
	}
	return "value"
}

// ParseFilterField accepts "value", "min" or "max".
func ParseFilterField(s string) (FilterField, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "value", "min", "":
		return FieldValue, nil
	case "max":
		return FieldMax, nil
	default:
		return FieldValue, fmt.Errorf("unknown filter field %q", s)
	}
}

// Criterion is the raw user input for one column filter.
type Criterion struct {
	Value string `json:"value,omitempty"`
	Max   string `json:"max,omitempty"`
}

// FilterSpec maps header labels to their active criteria. A column present in
// the map always has at least one non-empty field.
type FilterSpec map[string]Criterion

// With returns a copy of s with one field of column set to text. Columns left
// without an active criterion are removed.
func (s FilterSpec) With(column string, field FilterField, text string, typ ColumnType) FilterSpec {
	out := make(FilterSpec, len(s)+1)
	for k, v := range s {
		out[k] = v
	}
	c := out[column]
	if field == FieldMax {
		c.Max = text
	} else {
		c.Value = text
	}
	if (typ == Textual && c.Value == "") || (typ == Numeric && c.Value == "" && c.Max == "") {
		delete(out, column)
		return out
	}
	out[column] = c
	return out
}

// Columns returns the filtered column labels in sorted order.
func (s FilterSpec) Columns() []string {
	cols := make([]string, 0, len(s))
	for k := range s {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// FilterExpr is a column filter written as "column=text" for substring
// matching or "column=min..max" for a numeric range; either bound of a range
// may be omitted.
type FilterExpr struct {
	Column string
	Value  string
	Max    string
	Range  bool
}

// ParseFilterExpr splits a filter expression at the first '='.
func ParseFilterExpr(s string) (FilterExpr, error) {
	col, rest, ok := strings.Cut(s, "=")
	col = strings.TrimSpace(col)
	if !ok || col == "" {
		return FilterExpr{}, fmt.Errorf("filter %q must look like column=text or column=min..max", s)
	}
	if lo, hi, isRange := strings.Cut(rest, ".."); isRange {
		return FilterExpr{Column: col, Value: strings.TrimSpace(lo), Max: strings.TrimSpace(hi), Range: true}, nil
	}
	return FilterExpr{Column: col, Value: rest}, nil
}

func (e FilterExpr) String() string {
	if e.Range {
		return e.Column + "=" + e.Value + ".." + e.Max
	}
	return e.Column + "=" + e.Value
}

// Predicate decides whether a row is kept.
type Predicate interface {
	Match(r Row) bool
	Description() string
}

// Contains matches rows whose cell at Column contains Needle, ignoring case.
type Contains struct {
	Label  string
	Column int
	Needle string
}

func (p Contains) Match(r Row) bool {
	return strings.Contains(strings.ToLower(r.At(p.Column).String()), strings.ToLower(p.Needle))
}

func (p Contains) Description() string { return fmt.Sprintf("%s contains %q", p.Label, p.Needle) }

// Between matches rows whose cell at Column is a finite number in [Min, Max].
type Between struct {
	Label    string
	Column   int
	Min, Max float64
}

func (p Between) Match(r Row) bool {
	v, ok := r.At(p.Column).Float()
	return ok && v >= p.Min && v <= p.Max
}

func (p Between) Description() string {
	return fmt.Sprintf("%s in [%s, %s]", p.Label, formatNumber(p.Min), formatNumber(p.Max))
}

// Search matches rows where any cell contains Query, ignoring case.
type Search struct {
	Query string
}

func (p Search) Match(r Row) bool {
	q := strings.ToLower(p.Query)
	for _, c := range r {
		if strings.Contains(strings.ToLower(c.String()), q) {
			return true
		}
	}
	return false
}

func (p Search) Description() string { return fmt.Sprintf("any cell contains %q", p.Query) }

// All is the conjunction of its predicates. An empty All matches every row.
type All []Predicate

func (a All) Match(r Row) bool {
	for _, p := range a {
		if !p.Match(r) {
			return false
		}
	}
	return true
}

func (a All) Description() string {
	if len(a) == 0 {
		return "all rows"
	}
	parts := make([]string, len(a))
	for i, p := range a {
		parts[i] = p.Description()
	}
	return "(" + strings.Join(parts, " AND ") + ")"
}

// BuildPredicate compiles the global search and column filters into a single
// predicate. Columns missing from headers and inactive criteria are skipped.
// A non-empty numeric bound that does not parse matches no row.
func BuildPredicate(headers []string, search string, spec FilterSpec, types ColumnTypes) All {
	var preds All
	if search != "" {
		preds = append(preds, Search{Query: search})
	}
	for _, col := range spec.Columns() {
		idx := ColumnIndex(headers, col)
		if idx == -1 {
			continue
		}
		c := spec[col]
		switch types.Of(col) {
		case Textual:
			if c.Value != "" {
				preds = append(preds, Contains{Label: col, Column: idx, Needle: c.Value})
			}
		case Numeric:
			if c.Value == "" && c.Max == "" {
				continue
			}
			lo := boundOr(c.Value, math.Inf(-1))
			hi := boundOr(c.Max, math.Inf(1))
			preds = append(preds, Between{Label: col, Column: idx, Min: lo, Max: hi})
		}
	}
	return preds
}

// boundOr parses a range bound. Empty text gives def; text that is not a
// finite number gives NaN, which no comparison satisfies.
func boundOr(text string, def float64) float64 {
	if strings.TrimSpace(text) == "" {
		return def
	}
	if f, ok := ParseNumber(text); ok {
		return f
	}
	return math.NaN()
}

// Filter returns the rows matching search and every active column filter, in
// their original order. The input slice is not modified.
func Filter(rows []Row, headers []string, search string, spec FilterSpec, types ColumnTypes) []Row {
	pred := BuildPredicate(headers, search, spec, types)
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if pred.Match(r) {
			out = append(out, r)
		}
	}
	return out
}
