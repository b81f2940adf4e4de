package transform

import "csvpivot/pkg/records"

// RenameField moves the value of one field under a new name. Rows
// without the source field are copied unchanged.
type RenameField struct {
	From string
	To   string
}

func (t RenameField) Apply(in []records.Record) []records.Record {
	out := make([]records.Record, len(in))
	for i, row := range in {
		next := row.Clone()
		if v, ok := next[t.From]; ok {
			delete(next, t.From)
			next[t.To] = v
		}
		out[i] = next
	}
	return out
}

// RemoveFields drops the named fields from every row.
type RemoveFields struct {
	Fields []string
}

func (t RemoveFields) Apply(in []records.Record) []records.Record {
	out := make([]records.Record, len(in))
	for i, row := range in {
		next := row.Clone()
		for _, f := range t.Fields {
			delete(next, f)
		}
		out[i] = next
	}
	return out
}

// SelectFields keeps only the named fields. A field absent from a row
// is simply absent from the projection, not materialized as null.
type SelectFields struct {
	Fields []string
}

func (t SelectFields) Apply(in []records.Record) []records.Record {
	out := make([]records.Record, len(in))
	for i, row := range in {
		next := make(records.Record, len(t.Fields))
		for _, f := range t.Fields {
			if v, ok := row[f]; ok {
				next[f] = v
			}
		}
		out[i] = next
	}
	return out
}

// TransformField replaces one field's value with Fn(value, row). The
// row handed to Fn is the original; mutations belong in the return
// value.
type TransformField struct {
	Field string
	Fn    func(v any, row records.Record) any
}

func (t TransformField) Apply(in []records.Record) []records.Record {
	out := make([]records.Record, len(in))
	for i, row := range in {
		next := row.Clone()
		next[t.Field] = t.Fn(row.Value(t.Field), row)
		out[i] = next
	}
	return out
}

// AddCalculatedField adds a field computed from the whole row.
type AddCalculatedField struct {
	Field string
	Fn    func(row records.Record) any
}

func (t AddCalculatedField) Apply(in []records.Record) []records.Record {
	out := make([]records.Record, len(in))
	for i, row := range in {
		next := row.Clone()
		next[t.Field] = t.Fn(row)
		out[i] = next
	}
	return out
}

// FillMissing replaces null, absent, or empty-string values of one
// field. When Compute is set it wins over Value and is evaluated per
// row.
type FillMissing struct {
	Field   string
	Value   any
	Compute func(row records.Record) any
}

func (t FillMissing) Apply(in []records.Record) []records.Record {
	out := make([]records.Record, len(in))
	for i, row := range in {
		next := row.Clone()
		if missing(row.Value(t.Field)) {
			if t.Compute != nil {
				next[t.Field] = t.Compute(row)
			} else {
				next[t.Field] = t.Value
			}
		}
		out[i] = next
	}
	return out
}

func missing(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}
