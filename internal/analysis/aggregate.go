package analysis

import "strings"

// UnknownLabel replaces empty category and value cells.
const UnknownLabel = "Unknown"

// ValueCount is the number of occurrences of one textual value.
type ValueCount struct {
	Value string
	Count int
}

// Group is the reduction of every row sharing one x value. Numeric y columns
// fill Sum and Count; textual ones fill Values in first-seen order.
type Group struct {
	Key    string
	Sum    float64
	Count  int
	Values []ValueCount
}

// Average returns Sum/Count, or 0 for an empty group.
func (g Group) Average() float64 {
	if g.Count == 0 {
		return 0
	}
	return g.Sum / float64(g.Count)
}

// CountOf returns how often value occurred in the group.
func (g Group) CountOf(value string) int {
	for _, vc := range g.Values {
		if vc.Value == value {
			return vc.Count
		}
	}
	return 0
}

func (g *Group) add(value string) {
	for i := range g.Values {
		if g.Values[i].Value == value {
			g.Values[i].Count++
			return
		}
	}
	g.Values = append(g.Values, ValueCount{Value: value, Count: 1})
}

// Aggregate holds the groups of one aggregation in first-encounter order.
type Aggregate struct {
	XAxis, YAxis string
	YType        ColumnType
	Groups       []Group
}

// Keys returns the x values in aggregation order.
func (a *Aggregate) Keys() []string {
	keys := make([]string, len(a.Groups))
	for i, g := range a.Groups {
		keys[i] = g.Key
	}
	return keys
}

// Group returns the group for key.
func (a *Aggregate) Group(key string) (Group, bool) {
	for _, g := range a.Groups {
		if g.Key == key {
			return g, true
		}
	}
	return Group{}, false
}

// YValues returns the union of textual y values across groups, in first-seen order.
func (a *Aggregate) YValues() []string {
	seen := map[string]bool{}
	var out []string
	for _, g := range a.Groups {
		for _, vc := range g.Values {
			if !seen[vc.Value] {
				seen[vc.Value] = true
				out = append(out, vc.Value)
			}
		}
	}
	return out
}

// labelOf trims the display form of a cell, substituting UnknownLabel when empty.
func labelOf(c Cell) string {
	s := strings.TrimSpace(c.String())
	if s == "" {
		return UnknownLabel
	}
	return s
}

// groupIndex keeps insertion order while giving O(1) lookup.
type groupIndex struct {
	pos    map[string]int
	groups []Group
}

func (gi *groupIndex) get(key string) *Group {
	if gi.pos == nil {
		gi.pos = map[string]int{}
	}
	if i, ok := gi.pos[key]; ok {
		return &gi.groups[i]
	}
	gi.pos[key] = len(gi.groups)
	gi.groups = append(gi.groups, Group{Key: key})
	return &gi.groups[len(gi.groups)-1]
}

// AggregateRows groups rows by the x column and reduces the y column. It
// returns nil when an axis is unset or unknown, headers are empty, or there
// are no rows. Numeric y cells that do not parse are skipped, so numeric
// groups never have a zero count.
func AggregateRows(rows []Row, headers []string, xAxis, yAxis string, types ColumnTypes) *Aggregate {
	if xAxis == "" || yAxis == "" || len(rows) == 0 || len(headers) == 0 {
		return nil
	}
	xi, yi := ColumnIndex(headers, xAxis), ColumnIndex(headers, yAxis)
	if xi == -1 || yi == -1 {
		return nil
	}
	agg := &Aggregate{XAxis: xAxis, YAxis: yAxis, YType: types.Of(yAxis)}
	var gi groupIndex
	for _, r := range rows {
		x := labelOf(r.At(xi))
		if agg.YType == Textual {
			gi.get(x).add(labelOf(r.At(yi)))
			continue
		}
		v, ok := r.At(yi).Float()
		if !ok {
			continue
		}
		g := gi.get(x)
		g.Sum += v
		g.Count++
	}
	agg.Groups = gi.groups
	if agg.Groups == nil {
		agg.Groups = []Group{}
	}
	return agg
}
