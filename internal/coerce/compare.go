package coerce

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Compare defines the total order shared by filtering, sorting, and field
// statistics. It returns -1, 0, or 1.
//
// Rules, in precedence order:
//   - null sorts strictly before any defined value; two nulls are equal
//   - two timestamps compare by epoch offset
//   - two numbers compare numerically
//   - every other combination compares as case-insensitive string text
func Compare(a, b any) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}

	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			switch {
			case at.Before(bt):
				return -1
			case at.After(bt):
				return 1
			default:
				return 0
			}
		}
	}

	if af, aok := asNumber(a); aok {
		if bf, bok := asNumber(b); bok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
	}

	return strings.Compare(strings.ToLower(Display(a)), strings.ToLower(Display(b)))
}

// Equal reports whether a and b are equal under the shared order.
func Equal(a, b any) bool { return Compare(a, b) == 0 }

// Display renders a value as text for string-shaped operations (search,
// contains, lexicographic comparison). Timestamps render as RFC 3339 so
// that their textual order is stable.
func Display(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if x {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}

// asNumber reports numeric identity for comparison purposes. Unlike
// Number it does not coerce strings or booleans: a value compares
// numerically only when it actually is a number.
func asNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	default:
		return 0, false
	}
}
