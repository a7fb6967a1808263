package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/windforest/querychat/internal/demo/seed"
)

func main() {
	overwrite := flag.Bool("overwrite", false, "replace an existing database file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := seed.LoadConfigFromEnv(os.LookupEnv)
	if err != nil {
		slog.Error("failed to load seed config", slog.Any("error", err))
		os.Exit(1)
	}
	if *overwrite {
		cfg.Overwrite = true
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("seeding demo database",
		slog.String("path", cfg.DatabasePath),
		slog.Int64("seed", cfg.Seed),
		slog.Int("customers", cfg.Customers),
		slog.Int("orders", cfg.Orders),
	)
	summary, err := (&seed.Seeder{Config: cfg, Logger: logger}).Run(ctx)
	if err != nil {
		logger.Error("seeding failed", slog.Any("error", err))
		os.Exit(1)
	}
	for table, rows := range summary.Tables {
		logger.Info("table rows", slog.String("table", table), slog.Int("rows", rows))
	}
}
