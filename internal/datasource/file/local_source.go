// Package file implements a local filesystem-backed, byte-addressable data
// source for the streaming parser, plus small helpers for list files.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Local is a filesystem data source that opens files from the local disk.
type Local struct{ path string }

// NewLocal returns a new Local data source bound to the provided filesystem
// path. The returned value is safe for concurrent use by multiple goroutines
// as long as the underlying path location is valid for concurrent reads.
func NewLocal(path string) *Local { return &Local{path: path} }

// Path returns the configured filesystem path.
func (l *Local) Path() string { return l.path }

// Open opens the configured path and returns a Handle exposing its total
// size and random byte-range reads.
//
// Behavior:
//   - If the context is already canceled or its deadline exceeded at the time
//     of the call, Open returns the context error immediately without touching
//     the filesystem.
//   - Any filesystem error is wrapped with the path for context, while still
//     permitting errors.Is/As checks by callers (e.g., errors.Is(err, os.ErrNotExist)).
func (l *Local) Open(ctx context.Context) (*Handle, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", l.path, err)
	}
	return &Handle{f: f, size: st.Size()}, nil
}

// Handle is an open local file exposed as a byte-addressable source. It
// does not assume the whole file fits in memory; each ReadRange call pulls
// exactly the requested window.
type Handle struct {
	f    *os.File
	size int64
}

// Size returns the total byte length of the file at open time.
func (h *Handle) Size() int64 { return h.size }

// ReadRange reads up to length bytes starting at off. A range that runs
// past the end of the file returns the available prefix without error;
// a range that starts at or past the end returns an empty slice.
func (h *Handle) ReadRange(ctx context.Context, off, length int64) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	if off >= h.size || length <= 0 {
		return nil, nil
	}
	if off+length > h.size {
		length = h.size - off
	}
	buf := make([]byte, length)
	n, err := h.f.ReadAt(buf, off)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read %s [%d,%d): %w", h.f.Name(), off, off+length, err)
	}
	return buf[:n], nil
}

// Close releases the underlying file descriptor.
func (h *Handle) Close() error { return h.f.Close() }
