package csv

import "fmt"

// ReadError is a fatal failure reading the input source. It aborts the
// whole parse: no partial rows are returned alongside it.
type ReadError struct {
	Offset int64
	Err    error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read source at offset %d: %v", e.Offset, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// RowFormatError reports a line whose token count does not match the
// header. It is recoverable: the row is emitted anyway with missing
// trailing fields set to null and extra tokens dropped, and it is only
// surfaced through the OnError callback.
type RowFormatError struct {
	Line int
	Got  int
	Want int
}

func (e *RowFormatError) Error() string {
	return fmt.Sprintf("line %d: %d fields, want %d", e.Line, e.Got, e.Want)
}
