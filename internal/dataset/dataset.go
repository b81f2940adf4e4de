// Package dataset provides batch operations over a materialized row
// collection: predicate filtering, stable multi-key sorting, substring
// search, and derived read-only views (unique values, field statistics).
//
// All comparisons go through the single total-order comparator in the
// coerce package, so filtering, sorting, and min/max statistics can never
// disagree about ordering. Each call operates on a collection owned by
// its caller; nothing is shared and nothing is mutated in place.
package dataset

import (
	"fmt"
	"sort"
	"strings"

	"csvpivot/internal/coerce"
	"csvpivot/pkg/records"
)

// Filter is one predicate over a single field.
type Filter struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

// Sort is one ordering key; an ordered list of them forms a multi-key
// sort (primary first).
type Sort struct {
	Field     string `json:"field"`
	Direction string `json:"direction"` // "asc" or "desc"
}

// ApplyFilters returns the rows matching every filter (logical AND).
// Unknown operators never match.
func ApplyFilters(rows []records.Record, filters []Filter) []records.Record {
	if len(filters) == 0 {
		return rows
	}
	out := make([]records.Record, 0, len(rows))
	for _, r := range rows {
		keep := true
		for _, f := range filters {
			if !matches(r.Value(f.Field), f) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, r)
		}
	}
	return out
}

func matches(v any, f Filter) bool {
	switch f.Operator {
	case "eq":
		return coerce.Equal(v, f.Value)
	case "ne":
		return !coerce.Equal(v, f.Value)
	case "gt":
		return coerce.Compare(v, f.Value) > 0
	case "gte":
		return coerce.Compare(v, f.Value) >= 0
	case "lt":
		return coerce.Compare(v, f.Value) < 0
	case "lte":
		return coerce.Compare(v, f.Value) <= 0
	case "contains":
		return containsFold(coerce.Display(v), coerce.Display(f.Value))
	case "startsWith":
		return hasPrefixFold(coerce.Display(v), coerce.Display(f.Value))
	case "endsWith":
		return hasSuffixFold(coerce.Display(v), coerce.Display(f.Value))
	case "in":
		return inList(v, f.Value)
	case "notIn":
		return !inList(v, f.Value)
	default:
		return false
	}
}

// inList tests membership with the comparator's equality. A non-list
// filter value is treated as a single-element list.
func inList(v, list any) bool {
	switch xs := list.(type) {
	case []any:
		for _, x := range xs {
			if coerce.Equal(v, x) {
				return true
			}
		}
		return false
	case []string:
		for _, x := range xs {
			if coerce.Equal(v, x) {
				return true
			}
		}
		return false
	case []float64:
		for _, x := range xs {
			if coerce.Equal(v, x) {
				return true
			}
		}
		return false
	default:
		return coerce.Equal(v, list)
	}
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func hasPrefixFold(s, prefix string) bool {
	return strings.HasPrefix(strings.ToLower(s), strings.ToLower(prefix))
}

func hasSuffixFold(s, suffix string) bool {
	return strings.HasSuffix(strings.ToLower(s), strings.ToLower(suffix))
}

// SortRows returns a new slice ordered by the sort keys in priority
// order. The sort is stable: rows whose keys all tie keep their original
// relative order. "desc" negates the comparator result rather than
// swapping operands, so null placement stays consistent.
func SortRows(rows []records.Record, sorts []Sort) []records.Record {
	out := make([]records.Record, len(rows))
	copy(out, rows)
	if len(sorts) == 0 {
		return out
	}

	cmp := func(a, b records.Record) int {
		for _, s := range sorts {
			c := coerce.Compare(a.Value(s.Field), b.Value(s.Field))
			if s.Direction == "desc" {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	}
	sort.SliceStable(out, func(i, j int) bool { return cmp(out[i], out[j]) < 0 })
	return out
}

// Search returns rows where the text of any of the given fields contains
// term, case-insensitively. When fields is empty it defaults to the key
// set of the first row; rows missing one of those keys treat the value as
// null, whose text is empty and never matches a non-empty term.
func Search(rows []records.Record, term string, fields []string) []records.Record {
	if len(fields) == 0 {
		fields = records.Fields(rows)
	}
	out := make([]records.Record, 0, len(rows))
	for _, r := range rows {
		for _, f := range fields {
			if containsFold(coerce.Display(r.Value(f)), term) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// UniqueValues returns the distinct non-null values of field, ordered by
// the shared comparator.
func UniqueValues(rows []records.Record, field string) []any {
	var out []any
	for _, r := range rows {
		v := r.Value(field)
		if v == nil {
			continue
		}
		dup := false
		for _, u := range out {
			if coerce.Equal(u, v) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return coerce.Compare(out[i], out[j]) < 0 })
	return out
}

// FieldStats summarizes one field across a row collection. Min and Max
// use the shared comparator over all non-null values; Average is computed
// only over the numerically-coercible subset.
type FieldStats struct {
	Count       int     `json:"count"`
	NullCount   int     `json:"nullCount"`
	UniqueCount int     `json:"uniqueCount"`
	Min         any     `json:"min"`
	Max         any     `json:"max"`
	Average     float64 `json:"average"`
}

// FieldStatistics computes FieldStats for field.
func FieldStatistics(rows []records.Record, field string) FieldStats {
	st := FieldStats{}
	seen := make(map[string]struct{})
	var sum float64
	var numeric int
	first := true

	for _, r := range rows {
		v := r.Value(field)
		if v == nil {
			st.NullCount++
			continue
		}
		st.Count++
		seen[fmt.Sprintf("%T:%v", v, v)] = struct{}{}
		if first {
			st.Min, st.Max = v, v
			first = false
		} else {
			if coerce.Compare(v, st.Min) < 0 {
				st.Min = v
			}
			if coerce.Compare(v, st.Max) > 0 {
				st.Max = v
			}
		}
		if f, ok := coerce.Number(v); ok {
			sum += f
			numeric++
		}
	}
	st.UniqueCount = len(seen)
	if numeric > 0 {
		st.Average = sum / float64(numeric)
	}
	return st
}
