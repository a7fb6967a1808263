// Package sqlite executes read-only queries against the SQLite corpus file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/windforest/querychat/internal/query"
)

type Engine struct {
	db *sql.DB
}

// Open opens path read-only. The file must already exist.
func Open(ctx context.Context, path string) (*Engine, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat database %q: %w", path, err)
	}

	db, err := sql.Open("sqlite3", readOnlyDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %q: %w", path, err)
	}
	return &Engine{db: db}, nil
}

func readOnlyDSN(path string) string {
	values := url.Values{}
	values.Set("mode", "ro")
	values.Set("_query_only", "true")
	return "file:" + path + "?" + values.Encode()
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

// DB exposes the read-only handle for snapshot export.
func (e *Engine) DB() *sql.DB {
	return e.db
}

func (e *Engine) Ready(ctx context.Context) error {
	return e.db.PingContext(ctx)
}

func (e *Engine) Close() error {
	return e.db.Close()
}
