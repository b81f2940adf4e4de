package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"csvpivot/internal/aggregate"
	"csvpivot/internal/config"
	"csvpivot/internal/datasource/file"
	"csvpivot/internal/metrics"
	csvparser "csvpivot/internal/parser/csv"
	"csvpivot/internal/transform"
	"csvpivot/pkg/records"
)

// runPipeline executes one full run against path: parse, transform, output.
// The result is written to w as indented JSON.
func runPipeline(ctx context.Context, logger zerolog.Logger, job string, p config.Pipeline, path string, w io.Writer) error {
	chain, err := buildTransforms(p.Transform)
	if err != nil {
		return err
	}

	src := file.NewLocal(path)
	h, err := src.Open(ctx)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer h.Close()

	cfg := csvparser.ConfigFromOptions(p.Parser.Options)
	cfg.Logger = &logger

	buffer := p.Runtime.ChannelBuffer
	if buffer <= 0 {
		buffer = 16
	}
	progressCh := make(chan csvparser.Progress, buffer)
	chunksSeen := 0
	lastChunkAt := time.Now()
	cfg.OnProgress = func(pr csvparser.Progress) {
		// Snapshots arrive once per chunk on the parse goroutine; the
		// delta guard skips the repeated final snapshot.
		if pr.ChunksProcessed > chunksSeen {
			now := time.Now()
			metrics.RecordChunks(job, int64(pr.ChunksProcessed-chunksSeen), now.Sub(lastChunkAt))
			chunksSeen = pr.ChunksProcessed
			lastChunkAt = now
		}
		// Progress is advisory; drop a snapshot rather than stall the parse.
		select {
		case progressCh <- pr:
		default:
		}
	}

	var rowErrs int64
	cfg.OnError = func(line int, err error) {
		rowErrs++
		logger.Warn().Int("line", line).Err(err).Msg("malformed row")
	}

	var (
		rows   []records.Record
		header []string
		final  csvparser.Progress
	)
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(progressCh)
		var err error
		rows, header, final, err = csvparser.Parse(gctx, h, cfg)
		return err
	})
	g.Go(func() error {
		for pr := range progressCh {
			logger.Debug().
				Int64("bytes", pr.BytesProcessed).
				Int("rows", pr.RowsProcessed).
				Float64("pct", pr.Percentage).
				Msg("progress")
		}
		return nil
	})
	err = g.Wait()
	metrics.RecordStep(job, "parse", err, time.Since(start))
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	metrics.RecordRows(job, "parsed", int64(len(rows)))
	metrics.RecordRows(job, "row_errors", rowErrs)
	metrics.RecordRows(job, "sampled_out", int64(final.RowsSampledOut))
	logger.Info().
		Str("file", path).
		Int("rows", len(rows)).
		Int("fields", len(header)).
		Int64("bytes", final.BytesProcessed).
		Int64("row_errors", rowErrs).
		Msg("parsed")

	start = time.Now()
	out := chain.Apply(rows)
	metrics.RecordStep(job, "transform", nil, time.Since(start))
	if len(out) != len(rows) {
		logger.Info().Int("in", len(rows)).Int("out", len(out)).Msg("transformed")
	}

	start = time.Now()
	result, err := buildOutput(out, p.Output)
	metrics.RecordStep(job, "output", err, time.Since(start))
	if err != nil {
		return err
	}
	metrics.RecordRows(job, "output", int64(len(out)))

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// buildOutput runs the terminal stage over the transformed rows.
func buildOutput(rows []records.Record, out config.Output) (any, error) {
	switch out.Kind {
	case "pivot":
		return aggregate.Pivot(rows,
			out.Options.StringSlice("rows"),
			out.Options.StringSlice("columns"),
			out.Options.String("value", ""),
			out.Options.String("aggregation", ""))
	case "aggregate":
		return aggregate.Aggregate(rows,
			out.Options.String("field", ""),
			out.Options.String("aggregation", ""))
	case "rows", "":
		return rows, nil
	default:
		return nil, fmt.Errorf("unsupported output.kind=%s", out.Kind)
	}
}

// buildTransforms assembles the transform chain from config. Aggregation
// kinds fail here, before any data is read.
func buildTransforms(ts []config.Transform) (transform.Chain, error) {
	var c transform.Chain
	for _, t := range ts {
		switch t.Kind {
		case "normalize":
			fields, err := decodeFieldInfos(t.Options)
			if err != nil {
				return nil, err
			}
			if len(fields) == 0 {
				c = append(c, transform.AutoNormalize{})
				break
			}
			c = append(c, transform.Normalize{Fields: fields})
		case "rename":
			c = append(c, transform.RenameField{
				From: t.Options.String("from", ""),
				To:   t.Options.String("to", ""),
			})
		case "remove":
			c = append(c, transform.RemoveFields{Fields: t.Options.StringSlice("fields")})
		case "select":
			c = append(c, transform.SelectFields{Fields: t.Options.StringSlice("fields")})
		case "fill":
			c = append(c, transform.FillMissing{
				Field: t.Options.String("field", ""),
				Value: t.Options.Any("value"),
			})
		case "dedup":
			c = append(c, transform.DeDup{
				Keys:   t.Options.StringSlice("keys"),
				Policy: t.Options.String("policy", "keep-first"),
			})
		case "group_aggregate":
			aggs, err := decodeAggregations(t.Options)
			if err != nil {
				return nil, err
			}
			g, err := transform.NewGroupAggregate(t.Options.StringSlice("fields"), aggs)
			if err != nil {
				return nil, err
			}
			c = append(c, g)
		case "pivot_wide":
			w, err := transform.NewWidePivot(
				t.Options.StringSlice("rows"),
				t.Options.String("column", ""),
				t.Options.String("value", ""),
				t.Options.String("aggregation", ""))
			if err != nil {
				return nil, err
			}
			c = append(c, w)
		default:
			return nil, fmt.Errorf("unsupported transform.kind=%s", t.Kind)
		}
	}
	if c == nil {
		c = transform.Chain{}
	}
	return c, nil
}

func decodeFieldInfos(opt config.Options) ([]transform.FieldInfo, error) {
	raw, ok := opt.Any("fields").([]any)
	if !ok {
		return nil, nil
	}
	out := make([]transform.FieldInfo, 0, len(raw))
	for i, r := range raw {
		m, ok := r.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("normalize: fields[%d] is not an object", i)
		}
		o := config.Options(m)
		name := o.String("name", "")
		if name == "" {
			return nil, fmt.Errorf("normalize: fields[%d] has no name", i)
		}
		out = append(out, transform.FieldInfo{
			Name:     name,
			Type:     o.String("type", transform.TypeString),
			Nullable: o.Bool("nullable", false),
		})
	}
	return out, nil
}

func decodeAggregations(opt config.Options) (map[string]transform.Aggregation, error) {
	raw, ok := opt.Any("aggregates").(map[string]any)
	if !ok || len(raw) == 0 {
		return nil, fmt.Errorf("group_aggregate: aggregates object is required")
	}
	out := make(map[string]transform.Aggregation, len(raw))
	for name, r := range raw {
		m, ok := r.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("group_aggregate: aggregates.%s is not an object", name)
		}
		o := config.Options(m)
		out[name] = transform.Aggregation{
			Field: o.String("field", ""),
			Kind:  o.String("aggregation", ""),
		}
	}
	return out, nil
}
