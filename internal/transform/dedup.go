package transform

import (
	"github.com/zeebo/xxh3"

	"csvpivot/internal/aggregate"
	"csvpivot/pkg/records"
)

// DeDup collapses rows that share the same composite key. The key is
// the type-tagged tuple of the configured fields, so "x,y"+"z" and
// "x"+"y,z" stay distinct, as do the number 1 and the string "1". A
// missing key field keys as null. When Keys is empty, the field set of
// the first row is used, so full-row duplicates collapse by default.
//
//   - "keep-first": keep the earliest occurrence (default)
//   - "keep-last":  keep the latest occurrence
//
// Output order follows the first appearance of each key either way.
type DeDup struct {
	Keys   []string
	Policy string
}

func (d DeDup) Apply(in []records.Record) []records.Record {
	if len(in) == 0 {
		return in
	}
	keys := d.Keys
	if len(keys) == 0 {
		keys = records.Fields(in)
	}
	keepLast := d.Policy == "keep-last"

	slots := make(map[xxh3.Uint128]int, len(in))
	out := make([]records.Record, 0, len(in))
	for _, row := range in {
		values := make([]any, len(keys))
		for i, k := range keys {
			values[i] = row.Value(k)
		}
		h := xxh3.HashString128(aggregate.NewKey(keys, values).ID())
		if at, ok := slots[h]; ok {
			if keepLast {
				out[at] = row
			}
			continue
		}
		slots[h] = len(out)
		out = append(out, row)
	}
	return out
}
