// Command graflo runs one ingestion pass: load a schema and a patterns
// file, resolve every declared resource to a concrete data source, and
// drive them through the caster into the reference Postgres sink
// (spec.md §6 "External Interfaces"). Grounded on example/kjv/main.go's
// shape — build a database configuration, construct the top-level facade,
// then drive it to completion — generalized from one fixed document
// pipeline to schema/patterns-driven ingestion of arbitrary resources.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/growgraph/graflo/caster"
	"github.com/growgraph/graflo/config"
	"github.com/growgraph/graflo/internal/logging"
	"github.com/growgraph/graflo/postgres"
)

func main() {
	var (
		schemaPath     = flag.String("schema", "", "path to the schema YAML file")
		patternsPath   = flag.String("patterns", "", "path to the patterns YAML file")
		envPath        = flag.String("env", "", "optional .env file for Postgres connection settings")
		recreate       = flag.Bool("recreate-schema", false, "drop and recreate the target schema before ingesting")
		clearData      = flag.Bool("clear-data", false, "truncate every table before ingesting")
		dry            = flag.Bool("dry", false, "run the full pipeline without writing to the sink")
		initOnly       = flag.Bool("init-only", false, "initialize the target schema and exit")
		nCores         = flag.Int("n-cores", 1, "number of record-processing workers")
		batchSize      = flag.Int("batch-size", 500, "records accumulated per write")
		maxItems       = flag.Int("max-items", 0, "cap on records drawn per source (0 = unlimited)")
		logLevel       = flag.String("log-level", "info", "debug, info, warn, or error")
		datetimeCol    = flag.String("datetime-column", "", "restrict table sources to rows within [-datetime-after, -datetime-before) on this column")
		datetimeAfter  = flag.String("datetime-after", "", "RFC3339 lower bound (inclusive) for -datetime-column")
		datetimeBefore = flag.String("datetime-before", "", "RFC3339 upper bound (exclusive) for -datetime-column")
	)
	flag.Parse()

	log := logging.New(os.Stderr, parseLevel(*logLevel))

	if *schemaPath == "" || *patternsPath == "" {
		log.Error("both -schema and -patterns are required")
		os.Exit(2)
	}

	after, before, err := parseDatetimeBounds(*datetimeAfter, *datetimeBefore)
	if err != nil {
		log.Error("invalid datetime bound", "error", err)
		os.Exit(2)
	}

	if err := run(*schemaPath, *patternsPath, *envPath, runOptions{
		recreateSchema: *recreate,
		clearData:      *clearData,
		dry:            *dry,
		initOnly:       *initOnly,
		nCores:         *nCores,
		batchSize:      *batchSize,
		maxItems:       *maxItems,
		datetimeColumn: *datetimeCol,
		datetimeAfter:  after,
		datetimeBefore: before,
	}, log); err != nil {
		log.Error("ingestion failed", "error", err)
		os.Exit(1)
	}
}

type runOptions struct {
	recreateSchema bool
	clearData      bool
	dry            bool
	initOnly       bool
	nCores         int
	batchSize      int
	maxItems       int
	datetimeColumn string
	datetimeAfter  time.Time
	datetimeBefore time.Time
}

// parseDatetimeBounds parses the optional -datetime-after/-datetime-before
// RFC3339 flags into time.Time bounds, leaving either zero when its flag
// is unset so the caster treats that side of the interval as open.
func parseDatetimeBounds(after, before string) (time.Time, time.Time, error) {
	var a, b time.Time
	var err error
	if after != "" {
		if a, err = time.Parse(time.RFC3339, after); err != nil {
			return a, b, err
		}
	}
	if before != "" {
		if b, err = time.Parse(time.RFC3339, before); err != nil {
			return a, b, err
		}
	}
	return a, b, nil
}

func run(schemaPath, patternsPath, envPath string, opts runOptions, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sc, err := config.LoadSchema(schemaPath)
	if err != nil {
		return err
	}

	patterns, err := config.LoadPatterns(patternsPath)
	if err != nil {
		return err
	}

	pgCfg := postgres.LoadConfig(envPath)
	sink, err := postgres.Open(pgCfg)
	if err != nil {
		return err
	}
	sink.VertexConfig = &sc.VertexConfig
	sink.EdgeConfig = &sc.EdgeConfig
	defer sink.DB.Close()

	sources, err := config.BuildSources(patterns, sink.DB)
	if err != nil {
		return err
	}

	c := &caster.Caster{
		Schema:  sc,
		Sources: sources,
		Sink:    sink,
		Log:     log,
		Params: caster.IngestionParams{
			ClearData:      opts.clearData,
			RecreateSchema: opts.recreateSchema,
			NCores:         opts.nCores,
			BatchSize:      opts.batchSize,
			MaxItems:       opts.maxItems,
			Dry:            opts.dry,
			InitOnly:       opts.initOnly,
			DatetimeColumn: opts.datetimeColumn,
			DatetimeAfter:  opts.datetimeAfter,
			DatetimeBefore: opts.datetimeBefore,
		},
	}

	log.Info("starting ingestion",
		"schema", sc.General.Name,
		"resources", sc.ResourceNames(),
		"sources", len(sources),
	)
	return c.Run(ctx)
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
