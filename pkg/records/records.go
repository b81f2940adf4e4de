// Package records defines the row representation shared by every stage of
// the ingestion and aggregation pipeline.
//
// A Record is a field-name → value mapping for one logical row. Values are
// restricted by convention to the small set the coercion layer produces:
//
//	nil        missing / null
//	float64    numbers
//	string     text
//	bool       booleans
//	time.Time  timestamps
//
// Field sets may legitimately differ between records from heterogeneous
// sources. Consumers must tolerate missing keys and treat them as null;
// the accessors on Record already do.
package records

import "time"

// Record is a single data row.
type Record map[string]any

// Clone returns a shallow copy of r. Transform stages produce new records
// rather than mutating their input, so callers can hold both versions.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Value returns the value for field, or nil when the field is absent.
// An absent field and an explicit null are indistinguishable on purpose.
func (r Record) Value(field string) any {
	if v, ok := r[field]; ok {
		return v
	}
	return nil
}

// String returns the string value for field, or "" when the field is
// absent, null, or not a string.
func (r Record) String(field string) string {
	if s, ok := r[field].(string); ok {
		return s
	}
	return ""
}

// Number returns the numeric value for field and whether the field holds
// a number.
func (r Record) Number(field string) (float64, bool) {
	f, ok := r[field].(float64)
	return f, ok
}

// Time returns the timestamp value for field and whether the field holds
// a timestamp.
func (r Record) Time(field string) (time.Time, bool) {
	t, ok := r[field].(time.Time)
	return t, ok
}

// Fields returns the field names of the first record in rows, in no
// particular order. It is the conventional default field set for
// operations that need one (e.g. search) when the caller does not supply
// fields explicitly. Returns nil for an empty batch.
func Fields(rows []Record) []string {
	if len(rows) == 0 {
		return nil
	}
	out := make([]string, 0, len(rows[0]))
	for k := range rows[0] {
		out = append(out, k)
	}
	return out
}
