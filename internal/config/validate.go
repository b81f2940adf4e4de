// This file adds a lightweight linter/validator for Pipeline values. It
// performs static checks over a decoded Pipeline and returns a list of issues
// (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"

	"csvpivot/internal/aggregate"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "output.kind",
// "transform[1].options.keys"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// ValidatePipeline performs static validation / linting of a Pipeline.
//
// It does not mutate the pipeline. Instead it returns a slice of Issue values.
// Callers may decide whether to treat warnings as fatal or not. Aggregation
// kinds are checked here so a typo fails before any row is read.
//
// Example:
//
//	var p config.Pipeline
//	if err := json.NewDecoder(r).Decode(&p); err != nil { ... }
//	issues := config.ValidatePipeline(p)
//	for _, iss := range issues {
//	    fmt.Printf("%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
//	}
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	issues = append(issues, validateSource(p.Source, p.Runtime)...)
	issues = append(issues, validateParser(p.Parser)...)
	issues = append(issues, validateTransforms(p.Transform)...)
	issues = append(issues, validateOutput(p.Output)...)
	issues = append(issues, validateRuntime(p.Runtime)...)

	return issues
}

// validateSource validates Source configuration.
func validateSource(s Source, r RuntimeConfig) []Issue {
	var issues []Issue

	// Kind is required.
	if strings.TrimSpace(s.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  "source.kind must not be empty",
		})
		return issues
	}

	// Known source kinds. Unknown kinds are warnings (for forward compatibility).
	known := map[string]struct{}{
		"file": {},
	}
	if _, ok := known[s.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "source.kind",
			Message:  fmt.Sprintf("unknown source kind %q; ensure a matching implementation exists", s.Kind),
		})
	}

	// Kind-specific checks. Watch mode supplies paths as files appear, so an
	// empty path is only an error for single-shot runs.
	switch s.Kind {
	case "file":
		if strings.TrimSpace(s.File.Path) == "" && strings.TrimSpace(r.WatchDir) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.file.path",
				Message:  "file source requires a non-empty path unless runtime.watch_dir is set",
			})
		}
	}

	return issues
}

// validateParser validates parser configuration.
func validateParser(p Parser) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.kind",
			Message:  "parser.kind must not be empty",
		})
		return issues
	}

	known := map[string]struct{}{
		"csv": {},
	}
	if _, ok := known[p.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "parser.kind",
			Message:  fmt.Sprintf("unknown parser kind %q; ensure a matching implementation exists", p.Kind),
		})
	}

	// Parser-specific sanity checks (kept intentionally light).
	switch p.Kind {
	case "csv":
		if rate := p.Options.Float("sample_rate", 1); rate <= 0 || rate > 1 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "parser.options.sample_rate",
				Message:  fmt.Sprintf("sample_rate=%v; must be in (0, 1]", rate),
			})
		}
		if n := p.Options.Int("max_rows", 1); n <= 0 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "parser.options.max_rows",
				Message:  "max_rows must be positive",
			})
		}
	}

	return issues
}

// validateTransforms validates the transform chain.
func validateTransforms(ts []Transform) []Issue {
	var issues []Issue

	knownKinds := map[string]struct{}{
		"normalize":       {},
		"rename":          {},
		"remove":          {},
		"select":          {},
		"fill":            {},
		"dedup":           {},
		"group_aggregate": {},
		"pivot_wide":      {},
	}

	for i, t := range ts {
		path := fmt.Sprintf("transform[%d].kind", i)
		if strings.TrimSpace(t.Kind) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path,
				Message:  "transform kind must not be empty",
			})
			continue
		}
		if _, ok := knownKinds[t.Kind]; !ok {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     path,
				Message:  fmt.Sprintf("unknown transform kind %q; ensure a matching implementation exists", t.Kind),
			})
		}

		// Transform-specific checks.
		switch t.Kind {
		case "rename":
			if t.Options.String("from", "") == "" || t.Options.String("to", "") == "" {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     fmt.Sprintf("transform[%d].options", i),
					Message:  "rename requires non-empty from and to",
				})
			}
		case "remove", "select":
			if len(t.Options.StringSlice("fields")) == 0 {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     fmt.Sprintf("transform[%d].options.fields", i),
					Message:  fmt.Sprintf("%s requires at least one field", t.Kind),
				})
			}
		case "fill":
			if t.Options.String("field", "") == "" {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     fmt.Sprintf("transform[%d].options.field", i),
					Message:  "fill requires a field",
				})
			}
		case "dedup":
			if len(t.Options.StringSlice("keys")) == 0 {
				issues = append(issues, Issue{
					Severity: SeverityWarning,
					Path:     fmt.Sprintf("transform[%d].options.keys", i),
					Message:  "dedup without keys collapses rows duplicated across every field",
				})
			}
		case "group_aggregate":
			if len(t.Options.StringSlice("fields")) == 0 {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     fmt.Sprintf("transform[%d].options.fields", i),
					Message:  "group_aggregate requires at least one grouping field",
				})
			}
			aggs, ok := t.Options.Any("aggregates").(map[string]any)
			if !ok || len(aggs) == 0 {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     fmt.Sprintf("transform[%d].options.aggregates", i),
					Message:  "group_aggregate requires an aggregates object",
				})
				break
			}
			for name, raw := range aggs {
				spec, ok := raw.(map[string]any)
				if !ok {
					issues = append(issues, Issue{
						Severity: SeverityError,
						Path:     fmt.Sprintf("transform[%d].options.aggregates.%s", i, name),
						Message:  "aggregate spec must be an object with field and aggregation",
					})
					continue
				}
				kind := Options(spec).String("aggregation", "")
				if err := aggregate.ValidateKind(kind); err != nil {
					issues = append(issues, Issue{
						Severity: SeverityError,
						Path:     fmt.Sprintf("transform[%d].options.aggregates.%s", i, name),
						Message:  err.Error(),
					})
				}
			}
		case "pivot_wide":
			if len(t.Options.StringSlice("rows")) == 0 ||
				t.Options.String("column", "") == "" ||
				t.Options.String("value", "") == "" {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     fmt.Sprintf("transform[%d].options", i),
					Message:  "pivot_wide requires rows, column, and value",
				})
			}
			if err := aggregate.ValidateKind(t.Options.String("aggregation", "")); err != nil {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     fmt.Sprintf("transform[%d].options.aggregation", i),
					Message:  err.Error(),
				})
			}
		}
	}

	return issues
}

// validateOutput validates the terminal stage.
func validateOutput(o Output) []Issue {
	var issues []Issue

	if strings.TrimSpace(o.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "output.kind",
			Message:  "output.kind must not be empty",
		})
		return issues
	}

	switch o.Kind {
	case "pivot":
		if len(o.Options.StringSlice("rows")) == 0 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "output.options.rows",
				Message:  "pivot requires at least one row field",
			})
		}
		if len(o.Options.StringSlice("columns")) == 0 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "output.options.columns",
				Message:  "pivot requires at least one column field",
			})
		}
		if o.Options.String("value", "") == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "output.options.value",
				Message:  "pivot requires a value field",
			})
		}
		if err := aggregate.ValidateKind(o.Options.String("aggregation", "")); err != nil {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "output.options.aggregation",
				Message:  err.Error(),
			})
		}
	case "aggregate":
		if o.Options.String("field", "") == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "output.options.field",
				Message:  "aggregate requires a field",
			})
		}
		if err := aggregate.ValidateKind(o.Options.String("aggregation", "")); err != nil {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "output.options.aggregation",
				Message:  err.Error(),
			})
		}
	case "rows":
		// Nothing to check; the transformed rows are emitted as-is.
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "output.kind",
			Message:  fmt.Sprintf("unknown output kind %q; expected pivot, aggregate, or rows", o.Kind),
		})
	}

	return issues
}

// validateRuntime validates RuntimeConfig for obvious misconfigurations.
func validateRuntime(r RuntimeConfig) []Issue {
	var issues []Issue

	if r.ChannelBuffer < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.channel_buffer",
			Message:  "channel_buffer must not be negative",
		})
	}
	if r.WatchAllowlist != "" && r.WatchDir == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "runtime.watch_allowlist",
			Message:  "watch_allowlist is set but watch_dir is empty; the allowlist will be ignored",
		})
	}

	return issues
}
