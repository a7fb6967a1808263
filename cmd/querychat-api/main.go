package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/windforest/querychat/internal/api"
	"github.com/windforest/querychat/internal/api/uistatic"
	"github.com/windforest/querychat/internal/auth"
	"github.com/windforest/querychat/internal/chat"
	"github.com/windforest/querychat/internal/config"
	"github.com/windforest/querychat/internal/nl2sql"
	"github.com/windforest/querychat/internal/observability"
	"github.com/windforest/querychat/internal/query"
	duckdbengine "github.com/windforest/querychat/internal/query/duckdb"
	sqliteengine "github.com/windforest/querychat/internal/query/sqlite"
	"github.com/windforest/querychat/internal/session"
	sessionpostgres "github.com/windforest/querychat/internal/session/postgres"
	s3store "github.com/windforest/querychat/internal/storage/s3"
)

type readyEngine interface {
	query.Engine
	io.Closer
	Ready(ctx context.Context) error
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv("querychat-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sessions, sessionsReady, err := openSessions(ctx, cfg)
	if err != nil {
		logger.Error("failed to open session store", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = sessions.Close() }()

	engine, dialect, err := openEngine(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open query engine", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = engine.Close() }()

	model, err := nl2sql.NewOpenAIModel(nl2sql.OpenAIConfig{
		BaseURL: cfg.AI.BaseURL,
		APIKey:  cfg.AI.APIKey,
		Model:   cfg.AI.Model,
	})
	if err != nil {
		logger.Error("failed to initialize language model", slog.Any("error", err))
		os.Exit(1)
	}
	translator, err := nl2sql.NewToolTranslator(model, nl2sql.ToolConfig{
		Temperature:  cfg.AI.Temperature,
		Timeout:      cfg.AI.Timeout,
		HistoryLimit: cfg.AI.HistoryLimit,
	})
	if err != nil {
		logger.Error("failed to initialize query translator", slog.Any("error", err))
		os.Exit(1)
	}

	service := &chat.Service{
		Sessions:     sessions,
		Translator:   translator,
		Engine:       engine,
		Logger:       logger,
		Dialect:      dialect,
		RowLimit:     cfg.Query.RowLimit,
		QueryTimeout: cfg.Query.Timeout,
	}

	deps := api.Dependencies{
		Logger:            logger,
		Chat:              service,
		UI:                uistatic.Handler(cfg.HTTP.StaticDir),
		Readiness:         api.CombineReadinessChecks(sessionsReady, engine.Ready),
		DependencyTimeout: time.Second,
	}
	if cfg.Auth.Required {
		validator, err := auth.NewStaticAPIKeyValidator(cfg.Auth.StaticKeys)
		if err != nil {
			logger.Error("failed to parse static auth keys", slog.Any("error", err))
			os.Exit(1)
		}
		deps.AuthMiddleware = auth.Middleware(logger, validator)
	}

	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      api.NewHandler(cfg, deps),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		logger.Info("starting api server",
			slog.String("addr", cfg.HTTP.Address),
			slog.String("session_backend", cfg.Session.Backend),
			slog.String("query_backend", cfg.Query.Backend),
			slog.String("model", cfg.AI.Model),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}

func openSessions(ctx context.Context, cfg config.Config) (session.Store, api.ReadinessCheck, error) {
	switch cfg.Session.Backend {
	case config.SessionBackendPostgres:
		db, err := sessionpostgres.Open(ctx, sessionpostgres.DBConfig{
			DSN:             cfg.Session.DSN,
			MaxOpenConns:    cfg.Session.MaxOpenConns,
			MaxIdleConns:    cfg.Session.MaxIdleConns,
			ConnMaxIdleTime: cfg.Session.ConnMaxIdleTime,
			ConnMaxLifetime: cfg.Session.ConnMaxLifetime,
		})
		if err != nil {
			return nil, nil, err
		}
		store := sessionpostgres.NewStore(db)
		return store, store.HealthCheck, nil
	case config.SessionBackendMemory:
		return session.NewMemoryStore(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unsupported session backend %q", cfg.Session.Backend)
	}
}

// openEngine returns the engine and the SQL dialect the model should write.
func openEngine(ctx context.Context, cfg config.Config, logger *slog.Logger) (readyEngine, string, error) {
	switch cfg.Query.Backend {
	case config.QueryBackendDuckDB:
		store, err := s3store.New(ctx, cfg.ObjectStore)
		if err != nil {
			return nil, "", fmt.Errorf("object store: %w", err)
		}
		engine, err := duckdbengine.Open(ctx, store, cfg.Snapshot.Name, logger)
		if err != nil {
			return nil, "", err
		}
		return engine, "DuckDB", nil
	case config.QueryBackendSQLite:
		engine, err := sqliteengine.Open(ctx, cfg.Query.DatabasePath)
		if err != nil {
			return nil, "", err
		}
		return engine, "SQLite", nil
	default:
		return nil, "", fmt.Errorf("unsupported query backend %q", cfg.Query.Backend)
	}
}
