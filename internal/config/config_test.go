package config

import (
	"encoding/json"
	"reflect"
	"testing"
)

// -----------------------------------------------------------------------------
// Pipeline decoding tests
// -----------------------------------------------------------------------------
//
// These tests validate that the top-level Pipeline JSON structure decodes into
// the intended Go struct graph. The goal is to ensure the JSON schema used in
// pipeline files (configs/pipelines/*.json) maps cleanly to the Go types.
// We prefer parsing from JSON strings here to keep tests hermetic and focused
// on the API surface rather than filesystem wiring.

func TestPipeline_DecodeRoundTrip(t *testing.T) {
	t.Parallel()

	const js = `{
	  "job": "monthly-sales",
	  "source": { "kind": "file", "file": { "path": "testdata/sales.csv" } },
	  "parser": {
	    "kind": "csv",
	    "options": {
	      "has_header": true,
	      "comma": ",",
	      "chunk_size": 65536,
	      "sample_rate": 0.25,
	      "header_map": { "Amount": "amount", "Region": "region" }
	    }
	  },
	  "transform": [
	    { "kind": "fill", "options": { "field": "region", "value": "unknown" } },
	    { "kind": "dedup", "options": { "keys": ["order_id"] } }
	  ],
	  "output": {
	    "kind": "pivot",
	    "options": {
	      "rows": ["region"],
	      "columns": ["month"],
	      "value": "amount",
	      "aggregation": "sum"
	    }
	  },
	  "runtime": {
	    "channel_buffer": 16,
	    "watch_dir": "",
	    "watch_allowlist": ""
	  }
	}`

	var p Pipeline
	if err := json.Unmarshal([]byte(js), &p); err != nil {
		t.Fatalf("json.Unmarshal(Pipeline): %v", err)
	}

	if p.Job != "monthly-sales" {
		t.Fatalf("job = %q, want monthly-sales", p.Job)
	}

	// Source
	if p.Source.Kind != "file" || p.Source.File.Path != "testdata/sales.csv" {
		t.Fatalf("source decoded = %#v, want kind=file path=testdata/sales.csv", p.Source)
	}

	// Parser
	if p.Parser.Kind != "csv" {
		t.Fatalf("parser.kind = %q, want csv", p.Parser.Kind)
	}
	if got := p.Parser.Options.Bool("has_header", false); !got {
		t.Fatalf("parser.options.has_header = %v, want true", got)
	}
	if got := p.Parser.Options.Rune("comma", ';'); got != ',' {
		t.Fatalf("parser.options.comma = %q, want ','", got)
	}
	if got := p.Parser.Options.Int("chunk_size", 0); got != 65536 {
		t.Fatalf("parser.options.chunk_size = %d, want 65536", got)
	}
	if got := p.Parser.Options.Float("sample_rate", 1); got != 0.25 {
		t.Fatalf("parser.options.sample_rate = %v, want 0.25", got)
	}
	if hm := p.Parser.Options.StringMap("header_map"); hm["Amount"] != "amount" || hm["Region"] != "region" {
		t.Fatalf("parser.options.header_map = %#v", hm)
	}

	// Transform (shape + spot-check options)
	if len(p.Transform) != 2 || p.Transform[0].Kind != "fill" {
		t.Fatalf("transform decoded = %#v, want 2 steps with fill first", p.Transform)
	}
	if got := p.Transform[1].Options.StringSlice("keys"); !reflect.DeepEqual(got, []string{"order_id"}) {
		t.Fatalf("dedup keys = %#v, want [order_id]", got)
	}

	// Output
	if p.Output.Kind != "pivot" {
		t.Fatalf("output.kind = %q, want pivot", p.Output.Kind)
	}
	if got := p.Output.Options.StringSlice("rows"); !reflect.DeepEqual(got, []string{"region"}) {
		t.Fatalf("output.options.rows = %#v", got)
	}
	if got := p.Output.Options.String("aggregation", ""); got != "sum" {
		t.Fatalf("output.options.aggregation = %q, want sum", got)
	}

	// Runtime
	if p.Runtime.ChannelBuffer != 16 {
		t.Fatalf("runtime.channel_buffer = %d, want 16", p.Runtime.ChannelBuffer)
	}
}

func TestOptions_MissingAndNullDecodeToEmpty(t *testing.T) {
	t.Parallel()

	var p Pipeline
	if err := json.Unmarshal([]byte(`{"parser":{"kind":"csv"},"output":{"kind":"rows","options":null}}`), &p); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}
	if p.Parser.Options == nil {
		t.Fatal("missing parser.options decoded to nil, want empty map")
	}
	if p.Output.Options == nil {
		t.Fatal("null output.options decoded to nil, want empty map")
	}
}

func TestOptions_TypedAccess(t *testing.T) {
	t.Parallel()

	o := Options{
		"s":     "text",
		"b":     true,
		"n":     float64(42),
		"f":     0.5,
		"r":     ";",
		"list":  []any{"a", "b", float64(3)},
		"plain": []string{"x"},
		"m":     map[string]any{"k": "v", "skip": float64(1)},
		"wrong": float64(1),
	}

	if got := o.String("s", "d"); got != "text" {
		t.Fatalf("String = %q", got)
	}
	if got := o.String("wrong", "d"); got != "d" {
		t.Fatalf("String on non-string = %q, want default", got)
	}
	if got := o.String("absent", "d"); got != "d" {
		t.Fatalf("String on absent = %q, want default", got)
	}
	if !o.Bool("b", false) || o.Bool("wrong", false) {
		t.Fatal("Bool coercion wrong")
	}
	if got := o.Int("n", 0); got != 42 {
		t.Fatalf("Int = %d", got)
	}
	if got := o.Float("f", 1); got != 0.5 {
		t.Fatalf("Float = %v", got)
	}
	if got := o.Float("s", 1); got != 1 {
		t.Fatalf("Float on string = %v, want default", got)
	}
	if got := o.Rune("r", ','); got != ';' {
		t.Fatalf("Rune = %q", got)
	}
	if got := o.StringSlice("list"); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("StringSlice = %#v, want non-strings dropped", got)
	}
	if got := o.StringSlice("plain"); !reflect.DeepEqual(got, []string{"x"}) {
		t.Fatalf("StringSlice([]string) = %#v", got)
	}
	if got := o.StringMap("m"); !reflect.DeepEqual(got, map[string]string{"k": "v"}) {
		t.Fatalf("StringMap = %#v, want non-strings dropped", got)
	}
	if o.Any("absent") != nil {
		t.Fatal("Any on absent key should be nil")
	}
}
