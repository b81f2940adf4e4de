// Package config defines the canonical, JSON-serializable configuration model
// for csvpivot runs. It is intentionally small, explicit, and dependency-free
// so that pipelines can be loaded from disk (or other sources) and passed
// through the program without additional glue code.
//
// Design goals:
//
//  1. Stability: Changes to this package should be additive and backwards-
//     compatible whenever possible.
//  2. Clarity: Field names in Go mirror the JSON structure used in pipeline
//     files under configs/pipelines/*.json.
//  3. Minimalism: No third-party config libraries; decoding is performed by the
//     standard library, with a light Options helper for typed access.
//
// Example (trimmed):
//
//	{
//	  "job":      "monthly-sales",
//	  "source":   { "kind": "file", "file": { "path": "path/to.csv" } },
//	  "parser":   { "kind": "csv", "options": { "has_header": true } },
//	  "transform":[
//	    { "kind": "dedup", "options": { "keys": ["order_id"] } }
//	  ],
//	  "output":   { "kind": "pivot", "options": { "rows": ["region"], "columns": ["month"], "value": "amount", "aggregation": "sum" } }
//	}
package config

import "encoding/json"

// Pipeline describes one full run in JSON. It is the top-level object decoded
// from a pipeline file (e.g., configs/pipelines/*.json).
type Pipeline struct {
	// Job names the run for logging and metrics labeling. When empty the
	// CLI generates one.
	Job string `json:"job"`

	// Source describes where input bytes come from (e.g., local file).
	Source Source `json:"source"`

	// Parser configures how raw bytes are turned into records (e.g., CSV).
	Parser Parser `json:"parser"`

	// Transform lists the ordered transformations applied to parsed records.
	// Each transform has a kind and an options bag. The options shape is
	// defined by the transform implementation.
	Transform []Transform `json:"transform"`

	// Output selects what the run emits: the pivot table, a single
	// aggregate, or the transformed rows themselves.
	Output  Output        `json:"output"`
	Runtime RuntimeConfig `json:"runtime"`
}

// RuntimeConfig controls channel buffer sizes and watch-mode behavior.
type RuntimeConfig struct {
	ChannelBuffer int `json:"channel_buffer"`

	// WatchDir, when set, makes the CLI process files appearing in this
	// directory instead of running once against source.file.path.
	WatchDir string `json:"watch_dir"`

	// WatchAllowlist optionally names a file listing the basenames watch
	// mode will accept, one per line.
	WatchAllowlist string `json:"watch_allowlist"`
}

// Source identifies the data source. Additional kinds can be added over time.
type Source struct {
	// Kind selects the source implementation. Current value: "file".
	Kind string `json:"kind"`

	// File carries options for the "file" source kind.
	File SourceFile `json:"file"`
}

// SourceFile holds configuration for the "file" source kind.
type SourceFile struct {
	// Path is the local filesystem path to the input file.
	Path string `json:"path"`
}

// Parser selects how to parse the raw source into logical rows/columns.
type Parser struct {
	// Kind selects the parser implementation. Current value: "csv".
	Kind string `json:"kind"`

	// Options is a free-form map interpreted by the parser implementation.
	// For CSV, typical keys include:
	//   has_header (bool), comma (string), chunk_size (int), max_rows (int),
	//   sample_rate (float), header_map (object)
	Options Options `json:"options"`
}

// Transform defines a single transformation step. The sequence of steps forms
// the transformation chain executed before the output stage.
type Transform struct {
	// Kind selects the transform implementation (e.g., "normalize",
	// "rename", "select", "remove", "fill", "dedup", "group_aggregate").
	// Implementations define their own options.
	Kind string `json:"kind"`

	// Options is a free-form map interpreted by the selected transform.
	Options Options `json:"options"`
}

// Output selects the terminal stage of a run.
type Output struct {
	// Kind selects the output shape: "pivot", "aggregate", or "rows".
	Kind string `json:"kind"`

	// Options is interpreted by the output kind. For "pivot":
	//   rows ([]string), columns ([]string), value (string), aggregation (string)
	// For "aggregate":
	//   field (string), aggregation (string)
	Options Options `json:"options"`
}

// Options is a small helper to fetch typed values from arbitrary JSON maps
// without introducing third-party configuration libraries. It purposefully
// performs only minimal type coercion and returns provided defaults when a key
// is absent or of an unexpected type.
//
// Options is used for parser/transform/output configuration where the shape
// varies by implementation.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers are decoded as
// float64 by encoding/json, so this method accepts float64 and casts to int.
// If the value is neither float64 nor int, def is returned.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// Float returns the float64 value for key or def. Integer JSON values are
// accepted and widened.
func (o Options) Float(key string, def float64) float64 {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def if key is
// missing or empty. This is useful for single-character parser settings such as
// a CSV delimiter.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringMap returns a map[string]string for key when the value is an object
// whose values are strings. Non-string values are ignored. Returns an empty map
// when the key is missing or the value is not an object.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	if v, ok := o[key]; ok {
		if m, ok := v.(map[string]any); ok {
			for k, vv := range m {
				if s, ok := vv.(string); ok {
					res[k] = s
				}
			}
		}
	}
	return res
}

// StringSlice returns a []string for key when the value is an array of strings
// (or an array of interface values containing strings). Returns nil when the
// key is missing or the value is not an array.
func (o Options) StringSlice(key string) []string {
	if v, ok := o[key]; ok {
		switch vv := v.(type) {
		case []any:
			out := make([]string, 0, len(vv))
			for _, x := range vv {
				if s, ok := x.(string); ok {
					out = append(out, s)
				}
			}
			return out
		case []string:
			return vv
		}
	}
	return nil
}

// Any returns the raw value for key (which may itself be a nested
// map[string]any, []any, or primitive). This is useful for retrieving nested
// configuration blocks that will be unmarshaled into a typed struct by the
// caller.
func (o Options) Any(key string) any {
	if v, ok := o[key]; ok {
		return v
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler so that a missing or null "options"
// object in JSON decodes to a non-nil, empty Options map. This simplifies call
// sites by removing the need to nil-check Options values.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
