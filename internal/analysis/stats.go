package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/montanaflynn/stats"
)

// Scope selects the rows statistics are computed over.
type Scope string

const (
	// ScopeEntire covers every filtered row.
	ScopeEntire Scope = "entire"
	// ScopePage covers the rows of the current page.
	ScopePage Scope = "page"
)

// Description is the phrase used in highlight sentences.
func (s Scope) Description() string {
	if s == ScopePage {
		return "current page"
	}
	return "entire dataset"
}

// ParseScope accepts "entire" or "page".
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "entire", "all", "":
		return ScopeEntire, nil
	case "page":
		return ScopePage, nil
	default:
		return ScopeEntire, fmt.Errorf("unknown stats scope %q (want entire or page)", s)
	}
}

// Stats summarises a numeric column. StdDev is the population deviation.
type Stats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"stdDev"`
}

// ColumnValues returns the finite numbers of column yAxis, skipping cells
// that do not parse.
func ColumnValues(rows []Row, headers []string, yAxis string) []float64 {
	yi := ColumnIndex(headers, yAxis)
	if yi == -1 {
		return nil
	}
	vals := make([]float64, 0, len(rows))
	for _, r := range rows {
		if v, ok := r.At(yi).Float(); ok {
			vals = append(vals, v)
		}
	}
	return vals
}

// Summarize computes Stats for a numeric y column over rows. Unset, unknown
// or textual columns and columns without any number yield zero Stats.
func Summarize(rows []Row, headers []string, yAxis string, types ColumnTypes) Stats {
	if yAxis == "" || types.Of(yAxis) == Textual {
		return Stats{}
	}
	data := ColumnValues(rows, headers, yAxis)
	if len(data) == 0 {
		return Stats{}
	}
	min, err := stats.Min(data)
	if err != nil {
		return Stats{}
	}
	max, err := stats.Max(data)
	if err != nil {
		return Stats{}
	}
	mean, err := stats.Mean(data)
	if err != nil {
		return Stats{}
	}
	median, err := stats.Median(data)
	if err != nil {
		return Stats{}
	}
	stdDev, err := stats.StandardDeviationPopulation(data)
	if err != nil {
		return Stats{}
	}
	return Stats{Min: min, Max: max, Mean: mean, Median: median, StdDev: stdDev}
}

// Highlight builds the one-line summary for the scope rows. Numeric y columns
// report the category with the highest average; textual ones report the most
// frequent value. Ties keep the first category encountered. It returns ""
// when nothing can be said.
func Highlight(rows []Row, headers []string, xAxis, yAxis string, types ColumnTypes, scope Scope) string {
	xi, yi := ColumnIndex(headers, xAxis), ColumnIndex(headers, yAxis)
	if xi == -1 || yi == -1 || len(rows) == 0 {
		return ""
	}
	if types.Of(yAxis) == Textual {
		var gi groupIndex
		for _, r := range rows {
			gi.get(labelOf(r.At(yi))).Count++
		}
		best := gi.groups[0]
		for _, g := range gi.groups[1:] {
			if g.Count > best.Count {
				best = g
			}
		}
		noun := "occurrences"
		if best.Count == 1 {
			noun = "occurrence"
		}
		return fmt.Sprintf("Most frequent %s value is %q with %d %s in %s.", yAxis, best.Key, best.Count, noun, scope.Description())
	}

	agg := AggregateRows(rows, headers, xAxis, yAxis, types)
	if agg == nil || len(agg.Groups) == 0 {
		return ""
	}
	bestAvg, bestKey := math.Inf(-1), ""
	for _, g := range agg.Groups {
		if avg := g.Average(); avg > bestAvg {
			bestAvg, bestKey = avg, g.Key
		}
	}
	return fmt.Sprintf("Highest average %s is %.2f for %s in %s.", yAxis, bestAvg, bestKey, scope.Description())
}
