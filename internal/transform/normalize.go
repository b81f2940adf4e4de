package transform

import (
	"sort"
	"strings"
	"time"

	"csvpivot/internal/coerce"
	"csvpivot/pkg/records"
)

// Field types understood by Normalize and produced by GuessFields.
const (
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeDate    = "date"
	TypeString  = "string"
)

// FieldInfo describes the expected shape of one field.
type FieldInfo struct {
	Name     string
	Type     string
	Nullable bool
}

// Normalize coerces every row to the declared field schema. A value
// that is null or refuses to coerce becomes nil when the field is
// nullable, and a type-appropriate default otherwise: 0 for numbers,
// false for booleans, the current time for dates, and "" for strings.
type Normalize struct {
	Fields []FieldInfo

	// Now is the timestamp used for defaulted date fields. Nil means
	// time.Now.
	Now func() time.Time
}

func (t Normalize) Apply(in []records.Record) []records.Record {
	now := t.Now
	if now == nil {
		now = time.Now
	}
	out := make([]records.Record, len(in))
	for i, row := range in {
		next := row.Clone()
		for _, f := range t.Fields {
			v, ok := coerceTo(row.Value(f.Name), f.Type)
			switch {
			case ok:
				next[f.Name] = v
			case f.Nullable:
				next[f.Name] = nil
			default:
				next[f.Name] = defaultFor(f.Type, now)
			}
		}
		out[i] = next
	}
	return out
}

func coerceTo(v any, typ string) (any, bool) {
	if v == nil {
		return nil, false
	}
	switch typ {
	case TypeNumber:
		if n, ok := coerce.Number(v); ok {
			return n, true
		}
	case TypeBoolean:
		switch x := v.(type) {
		case bool:
			return x, true
		case float64:
			return x != 0, true
		case string:
			if strings.EqualFold(x, "true") {
				return true, true
			}
			if strings.EqualFold(x, "false") {
				return false, true
			}
		}
	case TypeDate:
		switch x := v.(type) {
		case time.Time:
			return x, true
		case string:
			if t, ok := coerce.Value(x).(time.Time); ok {
				return t, true
			}
		}
	case TypeString:
		return coerce.Display(v), true
	}
	return nil, false
}

func defaultFor(typ string, now func() time.Time) any {
	switch typ {
	case TypeNumber:
		return float64(0)
	case TypeBoolean:
		return false
	case TypeDate:
		return now()
	default:
		return ""
	}
}

// AutoNormalize infers the batch schema with GuessFields and normalizes
// against it, for callers that have no declared field list.
type AutoNormalize struct{}

func (AutoNormalize) Apply(in []records.Record) []records.Record {
	return Normalize{Fields: GuessFields(in)}.Apply(in)
}

// GuessFields infers a schema from already-coerced rows. A field's type
// is the one every non-null value agrees on, falling back to string on
// mixed content; a field is nullable when any row lacks it or holds
// null. Field order is first appearance across the batch.
func GuessFields(rows []records.Record) []FieldInfo {
	var order []string

	type tally struct {
		number, boolean, date, str int
		present, nonNull           int
		nullable                   bool
	}
	tallies := make(map[string]*tally)

	for _, row := range rows {
		names := make([]string, 0, len(row))
		for name := range row {
			names = append(names, name)
		}
		// Records are maps, so within one row the appearance order is
		// undefined; sorting keeps the inferred schema deterministic.
		sort.Strings(names)
		for _, name := range names {
			v := row[name]
			if _, ok := tallies[name]; !ok {
				order = append(order, name)
				tallies[name] = &tally{}
			}
			tl := tallies[name]
			tl.present++
			switch v.(type) {
			case nil:
				tl.nullable = true
				continue
			case float64, int, int64:
				tl.number++
			case bool:
				tl.boolean++
			case time.Time:
				tl.date++
			default:
				tl.str++
			}
			tl.nonNull++
		}
	}

	// A field absent from some row is nullable even if never nil.
	for _, name := range order {
		if tallies[name].present < len(rows) {
			tallies[name].nullable = true
		}
	}

	out := make([]FieldInfo, 0, len(order))
	for _, name := range order {
		tl := tallies[name]
		info := FieldInfo{Name: name, Type: TypeString, Nullable: tl.nullable}
		switch {
		case tl.nonNull == 0:
			info.Nullable = true
		case tl.number == tl.nonNull:
			info.Type = TypeNumber
		case tl.boolean == tl.nonNull:
			info.Type = TypeBoolean
		case tl.date == tl.nonNull:
			info.Type = TypeDate
		}
		out = append(out, info)
	}
	return out
}
