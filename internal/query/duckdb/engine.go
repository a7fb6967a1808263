// Package duckdb serves queries from a parquet snapshot loaded into an
// in-memory DuckDB database.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/windforest/querychat/internal/observability"
	"github.com/windforest/querychat/internal/query"
	"github.com/windforest/querychat/internal/snapshot"
	"github.com/windforest/querychat/internal/storage"
)

type Engine struct {
	db       *sql.DB
	manifest snapshot.Manifest
}

// Open downloads every table of the named snapshot and loads it into a fresh
// DuckDB database. The local copies are removed before Open returns.
func Open(ctx context.Context, store storage.ObjectStore, snapshotName string, logger *slog.Logger) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("object store is required")
	}
	if logger == nil {
		logger = observability.DiscardLogger()
	}
	manifest, err := snapshot.LoadManifest(ctx, store, snapshotName)
	if err != nil {
		return nil, err
	}
	if len(manifest.Tables) == 0 {
		return nil, fmt.Errorf("snapshot %q has no tables", snapshotName)
	}

	workDir, err := os.MkdirTemp("", "querychat-snapshot-")
	if err != nil {
		return nil, fmt.Errorf("create snapshot temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(workDir) }()

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	start := time.Now()
	for index, table := range manifest.Tables {
		localPath := filepath.Join(workDir, fmt.Sprintf("%s_%d.parquet", sanitizeFileComponent(table.Table), index))
		if _, err := storage.Download(ctx, store, table.Path, localPath); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("download table %q: %w", table.Table, err)
		}
		loadSQL := fmt.Sprintf(`CREATE TABLE %s AS SELECT * FROM read_parquet(%s)`, quoteIdent(table.Table), quoteString(localPath))
		if _, err := db.ExecContext(ctx, loadSQL); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("load table %q: %w", table.Table, err)
		}
	}
	logger.Info("snapshot loaded",
		slog.String("snapshot", manifest.Name),
		slog.Int("tables", len(manifest.Tables)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return &Engine{db: db, manifest: manifest}, nil
}

func (e *Engine) Execute(ctx context.Context, request query.Request) (query.Result, error) {
	sqlText := query.StripTrailingSemicolons(request.SQL)
	if sqlText == "" {
		return query.Result{}, fmt.Errorf("sql is required")
	}

	start := time.Now()
	rows, err := e.db.QueryContext(ctx, sqlText)
	if err != nil {
		return query.Result{}, fmt.Errorf("execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, resultRows, truncated, err := query.Collect(rows, request.RowLimit)
	if err != nil {
		return query.Result{}, err
	}
	return query.Result{
		Columns:   columns,
		Rows:      resultRows,
		Truncated: truncated,
		Duration:  time.Since(start),
	}, nil
}

func (e *Engine) Manifest() snapshot.Manifest {
	return e.manifest
}

func (e *Engine) Ready(ctx context.Context) error {
	return e.db.PingContext(ctx)
}

func (e *Engine) Close() error {
	return e.db.Close()
}

func quoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

func quoteString(value string) string {
	return `'` + strings.ReplaceAll(value, `'`, `''`) + `'`
}

func sanitizeFileComponent(value string) string {
	value = strings.ReplaceAll(value, "/", "_")
	value = strings.ReplaceAll(value, "..", "_")
	if value == "" {
		return "table"
	}
	return value
}
