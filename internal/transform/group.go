package transform

import (
	"csvpivot/internal/aggregate"
	"csvpivot/internal/coerce"
	"csvpivot/pkg/records"
)

// Aggregation names the input field and aggregation kind behind one
// output field of a group transform.
type Aggregation struct {
	Field string
	Kind  string
}

// GroupAggregate folds each group of rows into a single row carrying
// the typed group-key values plus one field per configured aggregation.
// Output rows appear in first-seen group order.
type GroupAggregate struct {
	Fields     []string
	Aggregates map[string]Aggregation
}

// NewGroupAggregate validates the aggregation kinds up front so a typo
// fails before any row is touched.
func NewGroupAggregate(fields []string, aggregates map[string]Aggregation) (GroupAggregate, error) {
	for _, a := range aggregates {
		if err := aggregate.ValidateKind(a.Kind); err != nil {
			return GroupAggregate{}, err
		}
	}
	return GroupAggregate{Fields: fields, Aggregates: aggregates}, nil
}

func (g GroupAggregate) Apply(in []records.Record) []records.Record {
	groups := aggregate.GroupBy(in, g.Fields)
	out := make([]records.Record, 0, groups.Len())
	for i := 0; i < groups.Len(); i++ {
		key := groups.Key(i)
		row := make(records.Record, len(g.Fields)+len(g.Aggregates))
		for j, f := range key.Fields() {
			row[f] = key.Values()[j]
		}
		for name, a := range g.Aggregates {
			if v, err := aggregate.Aggregate(groups.Rows(i), a.Field, a.Kind); err == nil {
				row[name] = v
			}
		}
		out = append(out, row)
	}
	return out
}

// WidePivot reshapes long-format rows into wide format: one output row
// per distinct RowFields key, with one column per distinct ColumnField
// value holding the aggregated ValueField of that cell. Cells with no
// contributing rows are absent from the output row.
type WidePivot struct {
	RowFields   []string
	ColumnField string
	ValueField  string
	Kind        string
}

// NewWidePivot validates the aggregation kind eagerly.
func NewWidePivot(rowFields []string, columnField, valueField, kind string) (WidePivot, error) {
	if err := aggregate.ValidateKind(kind); err != nil {
		return WidePivot{}, err
	}
	return WidePivot{RowFields: rowFields, ColumnField: columnField, ValueField: valueField, Kind: kind}, nil
}

func (w WidePivot) Apply(in []records.Record) []records.Record {
	groups := aggregate.GroupBy(in, w.RowFields)
	out := make([]records.Record, 0, groups.Len())
	for i := 0; i < groups.Len(); i++ {
		key := groups.Key(i)
		row := make(records.Record, len(w.RowFields))
		for j, f := range key.Fields() {
			row[f] = key.Values()[j]
		}
		cols := aggregate.GroupBy(groups.Rows(i), []string{w.ColumnField})
		for j := 0; j < cols.Len(); j++ {
			v, err := aggregate.Aggregate(cols.Rows(j), w.ValueField, w.Kind)
			if err != nil {
				continue
			}
			row[coerce.Display(cols.Key(j).Values()[0])] = v
		}
		out = append(out, row)
	}
	return out
}
