package main

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"csvpivot/internal/config"
)

func TestSettle(t *testing.T) {
	t.Parallel()

	if !settle(context.Background(), time.Millisecond) {
		t.Fatal("settle with live context must return true")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	if settle(ctx, time.Minute) {
		t.Fatal("settle with canceled context must return false")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("settle ignored cancellation for %v", elapsed)
	}
}

func TestWatchAndRun_Cancellation(t *testing.T) {
	t.Parallel()

	p := config.Pipeline{
		Parser:  config.Parser{Kind: "csv", Options: config.Options{}},
		Output:  config.Output{Kind: "rows"},
		Runtime: config.RuntimeConfig{WatchDir: t.TempDir()},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- watchAndRun(ctx, zerolog.Nop(), "test", p) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("watchAndRun: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watchAndRun did not return after cancellation")
	}
}
