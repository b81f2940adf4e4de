// Package coerce turns raw CSV tokens into typed values and defines the
// total order those values share across filtering, sorting, and statistics.
//
// Coercion is a deterministic trial sequence; the first rule that accepts
// the token wins:
//
//  1. trim surrounding whitespace
//  2. strip one layer of matching enclosing quotes
//  3. empty string            → nil
//  4. "true" / "false" (any case) → bool
//  5. strict numeric parse    → float64
//  6. whitelist-gated date    → time.Time
//  7. otherwise               → the trimmed string, unchanged
//
// The numeric parse is strict: the parsed number's canonical string form
// must round-trip to the trimmed token, so "12abc" stays a string and
// "007" keeps its leading zeros. Dates are only attempted when the token
// matches one of a fixed set of date-shaped patterns; without that gate a
// permissive date parser would happily misread arbitrary numeric or
// textual tokens as dates.
package coerce

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// datePatterns gates which tokens are eligible for date parsing at all.
// Each pattern is paired with the layouts tried for it, in order.
var datePatterns = []struct {
	re      *regexp.Regexp
	layouts []string
}{
	// Plain ISO date: 2023-01-31
	{regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`), []string{"2006-01-02"}},
	// Slash or dash separated date: 1/31/2023, 01-31-2023, 2023/01/31
	{regexp.MustCompile(`^\d{1,2}[/-]\d{1,2}[/-]\d{4}$`), []string{"1/2/2006", "1-2-2006"}},
	{regexp.MustCompile(`^\d{4}/\d{2}/\d{2}$`), []string{"2006/01/02"}},
	// ISO datetime: 2023-01-31T12:30:00Z, 2023-01-31 12:30:00
	{regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}(:\d{2})?(\.\d+)?(Z|[+-]\d{2}:\d{2})?$`), []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04",
	}},
}

// Value coerces a raw token into nil, bool, float64, time.Time, or string.
func Value(raw string) any {
	s := strings.TrimSpace(raw)
	s = stripQuotes(s)
	if s == "" {
		return nil
	}

	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}

	if f, ok := strictFloat(s); ok {
		return f
	}

	if t, ok := parseDate(s); ok {
		return t
	}

	return s
}

// Number coerces an already-typed value to float64 for aggregation.
// Numbers pass through, booleans map to 1/0, and numeric-looking strings
// are parsed. Everything else (including timestamps) is not coercible.
func Number(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// stripQuotes removes one layer of matching enclosing quotes (double or
// single). Inner quotes are left alone.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// strictFloat parses s as a number only when the parsed value's canonical
// form round-trips to s. This rejects partial parses ("12abc"), exotic
// spellings ("1e3", "0x10"), and padded forms ("007") that a lenient
// parser would accept.
func strictFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if strconv.FormatFloat(f, 'g', -1, 64) != s {
		return 0, false
	}
	return f, true
}

func parseDate(s string) (time.Time, bool) {
	for _, p := range datePatterns {
		if !p.re.MatchString(s) {
			continue
		}
		for _, layout := range p.layouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
