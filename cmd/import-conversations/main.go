package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/1acre-in/message-analytics/pkg/appconfig"
	"github.com/1acre-in/message-analytics/pkg/corpus"
	"github.com/1acre-in/message-analytics/pkg/export"
	"github.com/1acre-in/message-analytics/pkg/metrics"
	"github.com/1acre-in/message-analytics/pkg/storage"
)

var (
	inputPath = flag.String("input", "", "Path to export directory (overrides config)")
	dbPath    = flag.String("db", "", "Path to SQLite database (overrides config)")
	cfgPath   = flag.String("config", "", "Path to analytics.yaml (default: search current directory upwards)")
	verbose   = flag.Bool("v", false, "Verbose output")
	dryRun    = flag.Bool("dry-run", false, "Parse everything but don't write the database")
	dropDB    = flag.Bool("drop-db", false, "Remove the database file before import")
)

func main() {
	flag.Parse()

	logLevel := zerolog.InfoLevel
	if *verbose {
		logLevel = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger().Level(logLevel)

	cwd, _ := os.Getwd()
	cfg, err := appconfig.LoadFromFlagOrDir(*cfgPath, cwd)
	if err != nil {
		if *cfgPath != "" {
			log.Fatal().Err(err).Msg("Failed to load config")
		}
		cfg = appconfig.Default()
	}

	input := cfg.Ingest.InputDir
	if *inputPath != "" {
		input = *inputPath
	}
	db := cfg.Database.SQLite
	if *dbPath != "" {
		db = *dbPath
	}

	if input == "" {
		log.Fatal().Msg("Usage: import-conversations -input <dir> [-db conversations.db]")
	}
	if _, err := os.Stat(input); err != nil {
		log.Fatal().Err(err).Str("path", input).Msg("Failed to access input directory")
	}

	if *dropDB && !*dryRun {
		log.Warn().Str("db", db).Msg("Dropping existing database")
		os.Remove(db)
	}

	start := time.Now()
	pipeline := export.NewPipeline(log, cfg.Ingest.Workers)
	res, err := pipeline.Run(context.Background(), input)
	if err != nil {
		log.Fatal().Err(err).Msg("Ingestion failed")
	}

	log.Info().
		Int("units", res.Units).
		Int("conversations", len(res.Records)).
		Int("empty", res.Empty).
		Int("failed", res.Failures).
		Msg("Ingestion complete")

	if len(res.Records) == 0 {
		log.Error().Msg("No valid conversations found")
		os.Exit(1)
	}

	if *dryRun {
		log.Info().Msg("Dry run, skipping database write")
	} else {
		store, err := storage.New(db)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open database")
		}
		defer store.Close()

		if err := store.ReplaceAll(context.Background(), res.Records); err != nil {
			log.Fatal().Err(err).Msg("Failed to store conversations")
		}
		stored, err := store.Count(context.Background())
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to verify stored conversations")
		}
		log.Info().Str("db", db).Int64("stored", stored).Msg("Stored conversations")
	}

	c := corpus.New(res.Records)
	overview := metrics.OverviewAt(c, time.Now(), time.Duration(cfg.Metrics.ActiveWindowDays)*24*time.Hour)
	log.Info().
		Int("messages", overview.TotalMessages).
		Float64("avg_duration_days", overview.AvgDurationDays).
		Time("oldest", c.Record(c.Len()-1).FirstContact).
		Time("newest", c.Record(0).FirstContact).
		Dur("took", time.Since(start)).
		Msg("Import summary")
}
