package csv

import (
	"reflect"
	"testing"
)

/*
Test_splitFields covers quote handling: delimiters inside quotes are
literal, doubled quotes inside quotes are escaped quotes, and boundary
quotes are stripped.
*/
func Test_splitFields(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{"", []string{""}},
		{"a,,c", []string{"a", "", "c"}},
		{`"a,b",c`, []string{"a,b", "c"}},
		{`"he said ""hi""",x`, []string{`he said "hi"`, "x"}},
		{`"",y`, []string{"", "y"}},
		{`trailing,`, []string{"trailing", ""}},
		{`"unterminated,still one field`, []string{"unterminated,still one field"}},
	}

	for _, c := range cases {
		if got := splitFields(c.in, ','); !reflect.DeepEqual(got, c.want) {
			t.Fatalf("splitFields(%q) = %#v, want %#v", c.in, got, c.want)
		}
	}

	// Alternative delimiter.
	if got := splitFields("a;b,c;d", ';'); !reflect.DeepEqual(got, []string{"a", "b,c", "d"}) {
		t.Fatalf("semicolon split = %#v", got)
	}
}

/*
Test_lineScanner_QuotedNewline verifies that a newline inside quotes does
not terminate the logical line, and that quote state survives append
boundaries.
*/
func Test_lineScanner_QuotedNewline(t *testing.T) {
	t.Parallel()

	var s lineScanner
	payload := "a,\"line one\nline two\",b\nnext,row,here\n"

	// Feed one byte at a time to exercise every resume position.
	for i := 0; i < len(payload); i++ {
		s.append([]byte{payload[i]})
	}

	first, ok := s.next()
	if !ok || first != "a,\"line one\nline two\",b" {
		t.Fatalf("first line = %q, ok=%v", first, ok)
	}
	second, ok := s.next()
	if !ok || second != "next,row,here" {
		t.Fatalf("second line = %q, ok=%v", second, ok)
	}
	if _, ok := s.next(); ok {
		t.Fatalf("expected no more complete lines")
	}
	if _, ok := s.rest(); ok {
		t.Fatalf("expected empty carry-over")
	}
}

func Test_lineScanner_CRLFAndCarry(t *testing.T) {
	t.Parallel()

	var s lineScanner
	s.append([]byte("one\r\ntwo"))

	line, ok := s.next()
	if !ok || line != "one" {
		t.Fatalf("line = %q, ok=%v", line, ok)
	}
	if _, ok := s.next(); ok {
		t.Fatalf("partial line must not be yielded")
	}
	if got := s.buffered(); got != len("two") {
		t.Fatalf("buffered = %d, want %d", got, len("two"))
	}
	rest, ok := s.rest()
	if !ok || rest != "two" {
		t.Fatalf("rest = %q, ok=%v", rest, ok)
	}
}
