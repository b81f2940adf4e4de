package aggregate

import (
	"strconv"
	"strings"
	"time"

	"csvpivot/internal/coerce"
)

// Key identifies one group bucket. It carries the grouping fields and
// their typed first-seen values; the encoded form frames each value with
// a type tag and a length prefix, so two keys collide only when every
// value is equal in both type and content. Values never round-trip
// through a display string.
type Key struct {
	fields []string
	values []any
	id     string
}

// NewKey builds a key from field names and their typed values.
func NewKey(fields []string, values []any) Key {
	var b strings.Builder
	for _, v := range values {
		encodeValue(&b, v)
	}
	return Key{fields: fields, values: values, id: b.String()}
}

// Fields returns the grouping field names in declaration order.
func (k Key) Fields() []string { return k.fields }

// Values returns the typed values this bucket was keyed on, aligned
// with Fields.
func (k Key) Values() []any { return k.values }

// Label renders the key for display, joining multi-field keys with a
// comma. Labels may collide; use the Key itself for identity.
func (k Key) Label() string {
	parts := make([]string, len(k.values))
	for i, v := range k.values {
		parts[i] = coerce.Display(v)
	}
	return strings.Join(parts, ", ")
}

// ID returns the collision-free encoded form, suitable as a map key.
func (k Key) ID() string { return k.id }

// encodeValue appends one tag-framed value: a single type tag, the
// payload length, a colon, then the canonical payload bytes.
func encodeValue(b *strings.Builder, v any) {
	var tag byte
	var payload string
	switch x := v.(type) {
	case nil:
		tag = 'z'
	case bool:
		tag = 'b'
		if x {
			payload = "1"
		} else {
			payload = "0"
		}
	case float64:
		tag = 'f'
		payload = strconv.FormatFloat(x, 'g', -1, 64)
	case int:
		tag = 'f'
		payload = strconv.FormatFloat(float64(x), 'g', -1, 64)
	case int64:
		tag = 'f'
		payload = strconv.FormatFloat(float64(x), 'g', -1, 64)
	case time.Time:
		tag = 't'
		payload = x.UTC().Format(time.RFC3339Nano)
	case string:
		tag = 's'
		payload = x
	default:
		tag = 'o'
		payload = coerce.Display(v)
	}
	b.WriteByte(tag)
	b.WriteString(strconv.Itoa(len(payload)))
	b.WriteByte(':')
	b.WriteString(payload)
}
