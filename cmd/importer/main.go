// Command importer runs a single catalog import from the command line.
//
// Usage:
//
//	importer -file catalog.csv
//
// The file is imported synchronously in one transaction; on any fatal error
// the transaction is rolled back and the process exits non-zero.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/catalogkit/importer/internal/config"
	"github.com/catalogkit/importer/internal/importer"
	"github.com/catalogkit/importer/internal/logging"
)

func main() {
	file := flag.String("file", "", "path to the catalog CSV file (required)")
	flag.Parse()

	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	// Ctrl-C aborts the run and rolls back the transaction
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		slog.Error("failed to parse database URL", "error", err)
		os.Exit(1)
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	engine := importer.New(pool,
		importer.WithChunkSize(cfg.Import.BatchSize),
		importer.WithLogger(slog.Default()),
	)

	slog.Info("import starting", "file", *file)

	stats, err := engine.Import(ctx, *file)
	if err != nil {
		slog.Error("import failed", "file", *file, "error", err)
		os.Exit(1)
	}

	slog.Info("import completed",
		"file", *file,
		"products_imported", stats.ProductsImported,
		"variants_imported", stats.VariantsImported,
		"corrupted_rows", stats.CorruptedRows,
	)
}
