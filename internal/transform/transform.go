// Package transform reshapes row collections between parsing and
// aggregation. Every transformer returns new rows; input slices and the
// records inside them are never modified, so a caller can keep the
// parsed batch and derive several views from it.
package transform

import "csvpivot/pkg/records"

// Transformer rewrites a batch of rows into a new batch.
type Transformer interface {
	Apply([]records.Record) []records.Record
}

// Chain is an ordered list of transformers applied left to right.
type Chain []Transformer

func (c Chain) Apply(in []records.Record) []records.Record {
	out := in
	for _, t := range c {
		out = t.Apply(out)
	}
	return out
}
