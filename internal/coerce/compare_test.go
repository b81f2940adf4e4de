package coerce

import (
	"testing"
	"time"
)

/*
TestCompare_TotalOrder checks every rule of the shared comparator: null
first, epoch order for timestamps, numeric order for numbers, and
case-insensitive text for everything else.
*/
func TestCompare_TotalOrder(t *testing.T) {
	t.Parallel()

	early := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		a, b any
		want int
	}{
		{"both nil", nil, nil, 0},
		{"nil before number", nil, float64(0), -1},
		{"nil before empty string", nil, "", -1},
		{"value after nil", "x", nil, 1},
		{"timestamps by epoch", early, late, -1},
		{"equal timestamps", early, early, 0},
		{"numbers numerically", float64(2), float64(10), -1},
		{"equal numbers", float64(3), float64(3), 0},
		{"strings case-insensitive", "Apple", "apple", 0},
		{"string order", "apple", "Banana", -1},
		{"mixed number/string as text", float64(10), "2", -1}, // "10" < "2" lexicographically
		{"bools as text", true, false, 1},                     // "true" > "false"
	}

	for _, c := range cases {
		if got := Compare(c.a, c.b); got != c.want {
			t.Fatalf("%s: Compare(%#v, %#v) = %d, want %d", c.name, c.a, c.b, got, c.want)
		}
	}
}

func TestDisplay(t *testing.T) {
	t.Parallel()

	ts := time.Date(2023, 1, 31, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"abc", "abc"},
		{float64(1.5), "1.5"},
		{float64(3), "3"},
		{true, "true"},
		{ts, "2023-01-31T12:00:00Z"},
	}
	for _, c := range cases {
		if got := Display(c.in); got != c.want {
			t.Fatalf("Display(%#v) = %q, want %q", c.in, got, c.want)
		}
	}
}
