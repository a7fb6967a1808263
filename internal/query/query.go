// Package query runs read-only SQL against the demo corpus.
package query

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const DefaultRowLimit = 100

type Request struct {
	SQL      string
	RowLimit int
}

type Result struct {
	Columns   []string
	Rows      [][]any
	Truncated bool
	Duration  time.Duration
}

// Row returns row i keyed by column name. Duplicate column names keep the last value.
func (r Result) Row(i int) map[string]any {
	if i < 0 || i >= len(r.Rows) {
		return nil
	}
	row := make(map[string]any, len(r.Columns))
	for j, column := range r.Columns {
		if j < len(r.Rows[i]) {
			row[column] = r.Rows[i][j]
		}
	}
	return row
}

type Engine interface {
	Execute(ctx context.Context, request Request) (Result, error)
}

// EffectiveRowLimit applies DefaultRowLimit to non-positive limits.
func EffectiveRowLimit(limit int) int {
	if limit <= 0 {
		return DefaultRowLimit
	}
	return limit
}

// Collect reads at most limit rows and reports whether more were available.
func Collect(rows *sql.Rows, limit int) ([]string, [][]any, bool, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, false, fmt.Errorf("query columns: %w", err)
	}

	limit = EffectiveRowLimit(limit)
	out := make([][]any, 0)
	truncated := false
	for rows.Next() {
		if len(out) == limit {
			truncated = true
			break
		}
		values := make([]any, len(columns))
		targets := make([]any, len(columns))
		for i := range values {
			targets[i] = &values[i]
		}
		if err := rows.Scan(targets...); err != nil {
			return nil, nil, false, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, normalizeValues(values))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, false, fmt.Errorf("iterate rows: %w", err)
	}
	return columns, out, truncated, nil
}

func normalizeValues(values []any) []any {
	normalized := make([]any, len(values))
	for i, value := range values {
		switch typed := value.(type) {
		case []byte:
			normalized[i] = string(typed)
		default:
			normalized[i] = typed
		}
	}
	return normalized
}

// StripTrailingSemicolons removes statement terminators and surrounding whitespace.
func StripTrailingSemicolons(sqlText string) string {
	trimmed := strings.TrimSpace(sqlText)
	for strings.HasSuffix(trimmed, ";") {
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, ";"))
	}
	return trimmed
}
