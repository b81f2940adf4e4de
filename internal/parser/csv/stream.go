// Package csv provides chunked, quote-aware streaming CSV parsing over a
// byte-addressable source.
//
// The parser never loads the whole input: it reads fixed-size byte chunks
// sequentially, folds each chunk into a carry-over buffer, and emits one
// record per complete logical line. Quote state crosses chunk boundaries,
// so splitting a line (even inside a quoted field) at any byte offset
// parses identically to the unsplit input.
//
// Error policy follows the rest of the pipeline: a failed source read is
// fatal and returns no rows at all, while malformed individual lines
// degrade to best-effort field assignment, are reported through the
// OnError callback, and never abort the batch. Reaching the row limit and
// cooperative cancellation are normal early finalizations, not errors.
package csv

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"csvpivot/internal/coerce"
	"csvpivot/internal/config"
	"csvpivot/pkg/records"
)

// Defaults for the tunable knobs; see ConfigFromOptions for the keys.
const (
	DefaultChunkSize = 64 << 10 // 64 KiB
	DefaultMaxRows   = 1_000_000

	logEveryN = 50_000
)

// Source is the input boundary: a byte-addressable view of the data with a
// known total length. It abstracts a file handle and does not assume the
// bytes are resident in memory.
type Source interface {
	Size() int64
	ReadRange(ctx context.Context, off, length int64) ([]byte, error)
}

// Progress is a point-in-time snapshot reported after each chunk and once
// more on finalize. It is never persisted.
type Progress struct {
	BytesProcessed int64   `json:"bytesProcessed"`
	TotalBytes     int64   `json:"totalBytes"`
	RowsProcessed  int     `json:"rowsProcessed"`
	Percentage     float64 `json:"percentage"`

	// EstimatedRowsTotal linearly extrapolates rows/bytes over the whole
	// input. The estimate is biased when row density varies across the
	// file (e.g. wide rows up front, narrow rows later); it is reported
	// as-is rather than corrected.
	EstimatedRowsTotal int `json:"estimatedRowsTotal,omitempty"`

	// MemoryUsageEstimate is a rough count of bytes held by the parser:
	// the carry-over buffer plus the text size of retained rows.
	MemoryUsageEstimate int64 `json:"memoryUsageEstimate,omitempty"`

	// ChunksProcessed counts source reads so far; it steps by one between
	// consecutive snapshots.
	ChunksProcessed int `json:"chunksProcessed,omitempty"`

	// RowsSampledOut counts data lines discarded by sampling.
	RowsSampledOut int `json:"rowsSampledOut,omitempty"`
}

// Config carries the parse settings. The zero value is the documented
// default behavior: 64 KiB chunks, a header row, empty lines skipped,
// header names normalized, comma delimiter, no sampling. Use
// ConfigFromOptions to derive one from a pipeline options bag.
type Config struct {
	ChunkSize      int64
	MaxRows        int
	SampleRate     float64 // fraction of data lines retained; 0 means unset (keep all)
	SampleSeed     int64   // deterministic sampling when nonzero
	Comma          rune
	NoHeader       bool // first line is data, fields named col_0..col_N-1
	KeepEmptyLines bool // emit empty lines as all-null rows instead of skipping
	RawHeader      bool // keep header cells verbatim instead of normalizing
	HeaderMap      map[string]string

	OnProgress func(Progress)
	OnError    func(line int, err error)
	Logger     *zerolog.Logger
}

// ConfigFromOptions reads the parser options bag:
//
//	chunk_size (int, bytes), max_rows (int), sample_rate (float),
//	sample_seed (int), comma (string, first rune), has_header (bool),
//	skip_empty_lines (bool), normalize_header (bool), header_map (object)
func ConfigFromOptions(opt config.Options) Config {
	return Config{
		ChunkSize:      int64(opt.Int("chunk_size", DefaultChunkSize)),
		MaxRows:        opt.Int("max_rows", DefaultMaxRows),
		SampleRate:     opt.Float("sample_rate", 1),
		SampleSeed:     int64(opt.Int("sample_seed", 0)),
		Comma:          opt.Rune("comma", ','),
		NoHeader:       !opt.Bool("has_header", true),
		KeepEmptyLines: !opt.Bool("skip_empty_lines", true),
		RawHeader:      !opt.Bool("normalize_header", true),
		HeaderMap:      opt.StringMap("header_map"),
	}
}

func (c Config) withDefaults() Config {
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.MaxRows <= 0 {
		c.MaxRows = DefaultMaxRows
	}
	if c.SampleRate <= 0 || c.SampleRate > 1 {
		c.SampleRate = 1
	}
	if c.Comma == 0 {
		c.Comma = ','
	}
	return c
}

// parseState models the chunk loop explicitly. Reading and processing
// alternate; any state can divert to aborted on cancellation, and reading
// diverts to failed on a source error.
type parseState uint8

const (
	stateReadingChunk parseState = iota
	stateProcessingBuffer
	stateFinalizing
	stateAborted
	stateFailed
)

// Parse reads src to completion (or to the row limit, or cancellation) and
// returns the ordered rows, the resolved header, and the terminal progress
// snapshot.
//
// Semantics:
//   - Row order reflects source line order.
//   - A source read failure returns (nil, nil, progress, *ReadError): no
//     partial rows accompany a fatal error.
//   - Context cancellation is cooperative and checked before each chunk
//     read; it finalizes normally with the rows collected so far and a nil
//     error.
//   - Reaching MaxRows stops the read loop early; the rows collected so
//     far are returned with a nil error.
func Parse(ctx context.Context, src Source, cfg Config) ([]records.Record, []string, Progress, error) {
	cfg = cfg.withDefaults()

	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	seed := cfg.SampleSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	p := &parseRun{
		cfg:    cfg,
		rng:    rng,
		logger: logger,
		total:  src.Size(),
	}

	st := stateReadingChunk
	var failure error

	for {
		switch st {
		case stateReadingChunk:
			if ctx.Err() != nil {
				st = stateAborted
				continue
			}
			chunk, err := src.ReadRange(ctx, p.offset, cfg.ChunkSize)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					st = stateAborted
					continue
				}
				failure = &ReadError{Offset: p.offset, Err: err}
				st = stateFailed
				continue
			}
			if len(chunk) == 0 {
				// An empty read means the source is exhausted, even if
				// Size over-reported.
				p.offset = p.total
			} else {
				p.chunks++
			}
			p.offset += int64(len(chunk))
			p.scan.append(chunk)
			st = stateProcessingBuffer

		case stateProcessingBuffer:
			p.drainCompleteLines()
			p.report(false)
			if p.limitReached || p.offset >= p.total {
				st = stateFinalizing
			} else {
				st = stateReadingChunk
			}

		case stateFinalizing:
			// Any carried-over text is one final, unterminated line.
			if !p.limitReached {
				if line, ok := p.scan.rest(); ok {
					p.handleLine(line)
				}
			}
			prog := p.report(true)
			return p.rows, p.header, prog, nil

		case stateAborted:
			// Cancellation is not an error: finalize with what we have.
			prog := p.report(true)
			return p.rows, p.header, prog, nil

		case stateFailed:
			prog := p.report(true)
			return nil, nil, prog, failure
		}
	}
}

// parseRun holds the mutable state of one Parse call.
type parseRun struct {
	cfg    Config
	rng    *rand.Rand
	logger zerolog.Logger

	scan   lineScanner
	offset int64
	total  int64
	chunks int

	header       []string
	headerDone   bool
	line         int // 1-based physical position of logical lines
	rows         []records.Record
	dataBytes    int64
	sampledOut   int
	limitReached bool
}

func (p *parseRun) drainCompleteLines() {
	for !p.limitReached {
		line, ok := p.scan.next()
		if !ok {
			return
		}
		p.handleLine(line)
	}
}

func (p *parseRun) handleLine(line string) {
	p.line++

	// The first complete line is the header; it is never emitted as data.
	if !p.cfg.NoHeader && !p.headerDone {
		p.header = buildHeader(splitFields(line, p.cfg.Comma), p.cfg.HeaderMap, !p.cfg.RawHeader)
		p.headerDone = true
		return
	}

	if !p.cfg.KeepEmptyLines && strings.TrimSpace(line) == "" {
		return
	}

	// Each surviving line is an independent Bernoulli trial; surviving
	// rows keep their relative order.
	if p.cfg.SampleRate < 1 && p.rng.Float64() >= p.cfg.SampleRate {
		p.sampledOut++
		return
	}

	tokens := splitFields(line, p.cfg.Comma)

	// Headerless input: the first data line fixes the column count.
	if p.header == nil {
		p.header = positionalHeader(len(tokens))
		p.headerDone = true
	}

	if len(tokens) != len(p.header) && p.cfg.OnError != nil {
		p.cfg.OnError(p.line, &RowFormatError{Line: p.line, Got: len(tokens), Want: len(p.header)})
	}

	// Positional assignment: short rows null-fill, long rows truncate.
	row := make(records.Record, len(p.header))
	for i, name := range p.header {
		if i < len(tokens) {
			row[name] = coerce.Value(tokens[i])
		} else {
			row[name] = nil
		}
	}

	p.rows = append(p.rows, row)
	p.dataBytes += int64(len(line))

	if len(p.rows)%logEveryN == 0 {
		p.logger.Debug().Int("rows", len(p.rows)).Int64("bytes", p.offset).Msg("parser progress")
	}

	if len(p.rows) >= p.cfg.MaxRows {
		p.limitReached = true
	}
}

func (p *parseRun) report(final bool) Progress {
	prog := Progress{
		BytesProcessed:      p.offset,
		TotalBytes:          p.total,
		RowsProcessed:       len(p.rows),
		MemoryUsageEstimate: int64(p.scan.buffered()) + p.dataBytes,
		ChunksProcessed:     p.chunks,
		RowsSampledOut:      p.sampledOut,
	}
	if p.total > 0 {
		prog.Percentage = float64(p.offset) / float64(p.total) * 100
	} else {
		prog.Percentage = 100
	}
	if final {
		prog.Percentage = min(prog.Percentage, 100)
	}
	if p.offset > 0 && len(p.rows) > 0 {
		prog.EstimatedRowsTotal = int(float64(len(p.rows)) / float64(p.offset) * float64(p.total))
	}
	if p.cfg.OnProgress != nil {
		p.cfg.OnProgress(prog)
	}
	return prog
}
