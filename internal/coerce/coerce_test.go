package coerce

import (
	"testing"
	"time"
)

/*
TestValue_TrialOrder exercises the full coercion sequence: trimming, quote
stripping, null, booleans, strict numbers, gated dates, and the string
fallthrough.
*/
func TestValue_TrialOrder(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want any
	}{
		{"", nil},
		{"   ", nil},
		{`""`, nil},
		{"true", true},
		{"FALSE", false},
		{" True ", true},
		{"42", float64(42)},
		{"-3.5", float64(-3.5)},
		{"0", float64(0)},
		{`"12"`, float64(12)},
		{"'7'", float64(7)},
		{"hello", "hello"},
		{"  padded  ", "padded"},
		{`"quoted text"`, "quoted text"},
	}

	for _, c := range cases {
		if got := Value(c.in); got != c.want {
			t.Fatalf("Value(%q) = %#v, want %#v", c.in, got, c.want)
		}
	}
}

/*
TestValue_StrictNumber verifies the canonical round-trip rule: tokens that
a lenient parser would accept but whose canonical form differs must stay
strings.
*/
func TestValue_StrictNumber(t *testing.T) {
	t.Parallel()

	stayStrings := []string{"12abc", "007", "1e3", "1.50", "0x10", "+5", "Inf", "NaN"}
	for _, s := range stayStrings {
		if _, ok := Value(s).(float64); ok {
			t.Fatalf("Value(%q) coerced to number, want string", s)
		}
	}

	if got := Value("-0"); got != float64(0) {
		// -0 round-trips through FormatFloat as "-0".
		if f, ok := got.(float64); !ok || f != 0 {
			t.Fatalf("Value(-0) = %#v, want numeric zero", got)
		}
	}
}

/*
TestValue_DateWhitelist checks that only date-shaped tokens reach the date
parser. Bare numbers and arbitrary text must never become timestamps.
*/
func TestValue_DateWhitelist(t *testing.T) {
	t.Parallel()

	wantDate := map[string]time.Time{
		"2023-01-31":           time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC),
		"1/31/2023":            time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC),
		"01-31-2023":           time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC),
		"2023/01/31":           time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC),
		"2023-01-31T12:30:00Z": time.Date(2023, 1, 31, 12, 30, 0, 0, time.UTC),
		"2023-01-31 12:30:00":  time.Date(2023, 1, 31, 12, 30, 0, 0, time.UTC),
	}
	for in, want := range wantDate {
		got, ok := Value(in).(time.Time)
		if !ok {
			t.Fatalf("Value(%q) = %#v, want time.Time", in, Value(in))
		}
		if !got.Equal(want) {
			t.Fatalf("Value(%q) = %v, want %v", in, got, want)
		}
	}

	// Not date-shaped: must not be parsed as dates even though a permissive
	// parser would accept some of them.
	notDates := []string{"20230131", "31 Jan 2023", "January", "2023", "12:30"}
	for _, s := range notDates {
		if _, ok := Value(s).(time.Time); ok {
			t.Fatalf("Value(%q) became a date, want non-date", s)
		}
	}

	// Date-shaped but impossible: falls through to string.
	if _, ok := Value("2023-13-45").(time.Time); ok {
		t.Fatalf("impossible date parsed as time")
	}
	if got := Value("2023-13-45"); got != "2023-13-45" {
		t.Fatalf("Value(2023-13-45) = %#v, want original string", got)
	}
}

/*
TestNumber covers aggregation-side numeric coercion, which is deliberately
looser than Value: booleans and numeric strings coerce, timestamps do not.
*/
func TestNumber(t *testing.T) {
	t.Parallel()

	if f, ok := Number(float64(2.5)); !ok || f != 2.5 {
		t.Fatalf("Number(2.5) = %v,%v", f, ok)
	}
	if f, ok := Number("10"); !ok || f != 10 {
		t.Fatalf("Number(\"10\") = %v,%v", f, ok)
	}
	if f, ok := Number(true); !ok || f != 1 {
		t.Fatalf("Number(true) = %v,%v", f, ok)
	}
	if _, ok := Number("abc"); ok {
		t.Fatalf("Number(\"abc\") coerced, want not coercible")
	}
	if _, ok := Number(time.Now()); ok {
		t.Fatalf("Number(time) coerced, want not coercible")
	}
	if _, ok := Number(nil); ok {
		t.Fatalf("Number(nil) coerced, want not coercible")
	}
}
