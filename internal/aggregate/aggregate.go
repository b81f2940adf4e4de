// Package aggregate reduces row collections to single values, grouped
// buckets, and two-dimensional pivot tables. Aggregation kinds are
// validated before any row is read, so a bad kind never produces a
// partial result.
package aggregate

import (
	"errors"
	"fmt"
	"sort"

	"csvpivot/internal/coerce"
	"csvpivot/pkg/records"
)

// ErrUnsupportedKind is returned when a caller names an aggregation
// kind this package does not implement.
var ErrUnsupportedKind = errors.New("unsupported aggregation kind")

// Kinds accepted by Aggregate and Pivot.
const (
	KindSum           = "sum"
	KindCount         = "count"
	KindCountDistinct = "countDistinct"
	KindAverage       = "average"
	KindMin           = "min"
	KindMax           = "max"
	KindMedian        = "median"
	KindMode          = "mode"
)

var validKinds = map[string]struct{}{
	KindSum:           {},
	KindCount:         {},
	KindCountDistinct: {},
	KindAverage:       {},
	KindMin:           {},
	KindMax:           {},
	KindMedian:        {},
	KindMode:          {},
}

// ValidateKind reports whether kind names a known aggregation.
func ValidateKind(kind string) error {
	if _, ok := validKinds[kind]; !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedKind, kind)
	}
	return nil
}

// Aggregate reduces the non-null values of field across rows. With no
// non-null values it returns nil. Numeric kinds operate on the
// numerically-coercible subset: sum treats non-coercible values as 0,
// average and median return 0 when the subset is empty, and min/max
// return nil. Min and max are numeric only; they do not extend to
// string or date ordering.
func Aggregate(rows []records.Record, field, kind string) (any, error) {
	if err := ValidateKind(kind); err != nil {
		return nil, err
	}

	var vals []any
	for _, row := range rows {
		if v := row.Value(field); v != nil {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return nil, nil
	}

	switch kind {
	case KindSum:
		var sum float64
		for _, v := range vals {
			if n, ok := coerce.Number(v); ok {
				sum += n
			}
		}
		return sum, nil

	case KindCount:
		return float64(len(vals)), nil

	case KindCountDistinct:
		seen := make(map[string]struct{}, len(vals))
		for _, v := range vals {
			seen[valueID(v)] = struct{}{}
		}
		return float64(len(seen)), nil

	case KindAverage:
		nums := numericSubset(vals)
		if len(nums) == 0 {
			return float64(0), nil
		}
		var sum float64
		for _, n := range nums {
			sum += n
		}
		return sum / float64(len(nums)), nil

	case KindMin, KindMax:
		nums := numericSubset(vals)
		if len(nums) == 0 {
			return nil, nil
		}
		best := nums[0]
		for _, n := range nums[1:] {
			if (kind == KindMin && n < best) || (kind == KindMax && n > best) {
				best = n
			}
		}
		return best, nil

	case KindMedian:
		nums := numericSubset(vals)
		if len(nums) == 0 {
			return float64(0), nil
		}
		sort.Float64s(nums)
		mid := len(nums) / 2
		if len(nums)%2 == 0 {
			return (nums[mid-1] + nums[mid]) / 2, nil
		}
		return nums[mid], nil

	case KindMode:
		counts := make(map[string]int, len(vals))
		firstAt := make(map[string]int, len(vals))
		byID := make(map[string]any, len(vals))
		for i, v := range vals {
			id := valueID(v)
			counts[id]++
			if _, ok := firstAt[id]; !ok {
				firstAt[id] = i
				byID[id] = v
			}
		}
		bestID, bestCount := "", -1
		for id, c := range counts {
			if c > bestCount || (c == bestCount && firstAt[id] < firstAt[bestID]) {
				bestID, bestCount = id, c
			}
		}
		return byID[bestID], nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnsupportedKind, kind)
}

// Groups is an ordered partition of rows. Iteration order is the order
// in which each bucket's key was first seen in the input.
type Groups struct {
	order   []string
	keys    map[string]Key
	buckets map[string][]records.Record
}

// Len returns the number of buckets.
func (g *Groups) Len() int { return len(g.order) }

// Key returns the i-th bucket's key in first-seen order.
func (g *Groups) Key(i int) Key { return g.keys[g.order[i]] }

// Rows returns the i-th bucket's rows in input order.
func (g *Groups) Rows(i int) []records.Record { return g.buckets[g.order[i]] }

// GroupBy partitions rows by the composite value of fields. Keys keep
// the typed values of the first row seen for each bucket.
func GroupBy(rows []records.Record, fields []string) *Groups {
	g := &Groups{
		keys:    make(map[string]Key),
		buckets: make(map[string][]records.Record),
	}
	for _, row := range rows {
		values := make([]any, len(fields))
		for i, f := range fields {
			values[i] = row.Value(f)
		}
		key := NewKey(fields, values)
		if _, ok := g.buckets[key.id]; !ok {
			g.order = append(g.order, key.id)
			g.keys[key.id] = key
		}
		g.buckets[key.id] = append(g.buckets[key.id], row)
	}
	return g
}

// Pivot groups rows by rowFields, then groups each bucket by colFields,
// and aggregates valueField within each cell. The result maps row-key
// labels to column-key labels to cell values; cells with no
// contributing rows are absent. Key order in the maps is not sorted.
func Pivot(rows []records.Record, rowFields, colFields []string, valueField, kind string) (map[string]map[string]any, error) {
	if err := ValidateKind(kind); err != nil {
		return nil, err
	}

	out := make(map[string]map[string]any)
	rowGroups := GroupBy(rows, rowFields)
	for i := 0; i < rowGroups.Len(); i++ {
		cells := make(map[string]any)
		colGroups := GroupBy(rowGroups.Rows(i), colFields)
		for j := 0; j < colGroups.Len(); j++ {
			v, err := Aggregate(colGroups.Rows(j), valueField, kind)
			if err != nil {
				return nil, err
			}
			cells[colGroups.Key(j).Label()] = v
		}
		out[rowGroups.Key(i).Label()] = cells
	}
	return out, nil
}

// valueID is the tag-framed identity of a single value, used for
// distinct counting and mode bucketing.
func valueID(v any) string {
	k := NewKey(nil, []any{v})
	return k.id
}

func numericSubset(vals []any) []float64 {
	var nums []float64
	for _, v := range vals {
		if n, ok := coerce.Number(v); ok {
			nums = append(nums, n)
		}
	}
	return nums
}
