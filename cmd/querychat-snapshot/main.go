package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/windforest/querychat/internal/config"
	"github.com/windforest/querychat/internal/observability"
	sqliteengine "github.com/windforest/querychat/internal/query/sqlite"
	"github.com/windforest/querychat/internal/snapshot"
	"github.com/windforest/querychat/internal/storage"
	s3store "github.com/windforest/querychat/internal/storage/s3"
)

func main() {
	name := flag.String("name", "", "snapshot name; defaults to QUERYCHAT_SNAPSHOT_NAME")
	verifyOnly := flag.Bool("verify-only", false, "check an existing snapshot without exporting")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv("querychat-snapshot")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg, os.Stdout)
	if *name == "" {
		*name = cfg.Snapshot.Name
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := s3store.New(ctx, cfg.ObjectStore)
	if err != nil {
		logger.Error("failed to initialize object store", slog.Any("error", err))
		os.Exit(1)
	}

	if !*verifyOnly {
		if err := export(ctx, logger, cfg, store, *name); err != nil {
			logger.Error("snapshot export failed", slog.Any("error", err))
			os.Exit(1)
		}
	}

	summary, err := snapshot.Verify(ctx, store, *name)
	if err != nil {
		logger.Error("snapshot verification failed", slog.String("snapshot", *name), slog.Any("summary", summary), slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("snapshot verified", slog.String("snapshot", *name), slog.Int("tables", summary.TablesChecked))
}

func export(ctx context.Context, logger *slog.Logger, cfg config.Config, store storage.ObjectStore, name string) error {
	source, err := sqliteengine.Open(ctx, cfg.Query.DatabasePath)
	if err != nil {
		return fmt.Errorf("open source database: %w", err)
	}
	defer func() { _ = source.Close() }()

	exporter := &snapshot.Exporter{DB: source.DB(), Store: store, Logger: logger}
	manifest, err := exporter.Export(ctx, name)
	if err != nil {
		return err
	}
	logger.Info("snapshot published",
		slog.String("snapshot", manifest.Name),
		slog.Int("tables", len(manifest.Tables)),
		slog.String("database", cfg.Query.DatabasePath),
	)
	return nil
}
