package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"csvpivot/internal/config"
	"csvpivot/internal/metrics"
	"csvpivot/internal/metrics/datadog"
	"csvpivot/internal/metrics/prompush"
)

// main is the entry point for the csvpivot binary. It loads the pipeline
// config, optionally initializes a metrics backend, and executes one run
// (or the watch loop).
func main() {
	var (
		cfgPath           string
		inputPath         string
		watchDir          string
		metricsBackendFlg string
		pushGatewayURLFlg string
		dogstatsdAddrFlg  string
		validate          bool
	)

	flag.StringVar(&cfgPath, "config", "configs/pipelines/sample.json", "pipeline config JSON path")
	flag.StringVar(&inputPath, "input", "", "input CSV path (overrides source.file.path)")
	flag.StringVar(&watchDir, "watch", "", "directory to watch for CSV files (overrides runtime.watch_dir)")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "", "metrics backend to use (pushgateway, dogstatsd, none)")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env CSVPIVOT_PUSHGATEWAY)")
	flag.StringVar(&dogstatsdAddrFlg, "dogstatsd-addr", "", "DogStatsD address (overrides env CSVPIVOT_DOGSTATSD)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Logger()

	f, err := os.Open(cfgPath)
	if err != nil {
		fatalf("open config: %v", err)
	}
	defer f.Close()

	var p config.Pipeline
	if err := json.NewDecoder(f).Decode(&p); err != nil {
		fatalf("decode config: %v", err)
	}
	if inputPath != "" {
		p.Source.File.Path = inputPath
	}
	if watchDir != "" {
		p.Runtime.WatchDir = watchDir
	}

	// Validate pipeline config.
	issues := config.ValidatePipeline(p)
	hasError := false
	for _, iss := range issues {
		if iss.Severity == config.SeverityError {
			hasError = true
			logger.Error().Str("path", iss.Path).Msg(iss.Message)
		} else {
			logger.Warn().Str("path", iss.Path).Msg(iss.Message)
		}
	}
	if hasError {
		logger.Error().Str("config", cfgPath).Msg("configuration is invalid")
		os.Exit(1)
	}

	// If validate flag is set, only validate the configuration and exit.
	if validate {
		logger.Info().Str("config", cfgPath).Msg("configuration is valid")
		return
	}

	job := p.Job
	if job == "" {
		job = "csvpivot-" + uuid.NewString()[:8]
	}
	logger = logger.With().Str("job", job).Logger()

	initMetrics(logger, job, metricsBackendFlg, pushGatewayURLFlg, dogstatsdAddrFlg)
	defer func() {
		if err := metrics.Flush(); err != nil {
			logger.Warn().Err(err).Msg("metrics flush")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	if p.Runtime.WatchDir != "" {
		err = watchAndRun(ctx, logger, job, p)
	} else {
		err = runPipeline(ctx, logger, job, p, p.Source.File.Path, os.Stdout)
	}
	if err != nil {
		logger.Error().Err(err).Msg("run failed")
		os.Exit(1)
	}

	logger.Info().Dur("elapsed", time.Since(start).Truncate(time.Millisecond)).Msg("completed")
}

// initMetrics installs the selected metrics backend. The decision chain is
// flag, then environment, then disabled.
func initMetrics(logger zerolog.Logger, job, backendFlg, gatewayFlg, dogstatsdFlg string) {
	backendName := backendFlg
	if backendName == "" {
		backendName = os.Getenv("CSVPIVOT_METRICS_BACKEND")
	}

	switch backendName {
	case "pushgateway":
		gwURL := gatewayFlg
		if gwURL == "" {
			gwURL = os.Getenv("CSVPIVOT_PUSHGATEWAY")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}
		b, err := prompush.NewBackend(job, gwURL)
		if err != nil {
			logger.Warn().Err(err).Msg("metrics: pushgateway init failed; using nop")
			return
		}
		logger.Info().Str("backend", backendName).Str("url", gwURL).Msg("metrics enabled")
		metrics.SetBackend(b)

	case "dogstatsd":
		addr := dogstatsdFlg
		if addr == "" {
			addr = os.Getenv("CSVPIVOT_DOGSTATSD")
		}
		if addr == "" {
			addr = "127.0.0.1:8125"
		}
		b, err := datadog.NewBackend(datadog.Config{
			Addr: addr,
			Job:  job,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("metrics: dogstatsd init failed; using nop")
			return
		}
		logger.Info().Str("backend", backendName).Str("addr", addr).Msg("metrics enabled")
		metrics.SetBackend(b)

	case "", "none":
		// metrics disabled; nop backend remains

	default:
		logger.Warn().Str("backend", backendName).Msg("metrics: unknown backend; metrics disabled")
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
