package seed

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

type tableWriter struct {
	name string
	stmt *sql.Stmt
	rows int
}

func (t *tableWriter) insert(ctx context.Context, values ...any) error {
	if _, err := t.stmt.ExecContext(ctx, values...); err != nil {
		return fmt.Errorf("insert into %s: %w", t.name, err)
	}
	t.rows++
	return nil
}

// writerSet holds the prepared inserts of one seeding step.
type writerSet struct {
	tx      *sql.Tx
	writers []*tableWriter
}

func (s *writerSet) prepare(ctx context.Context, table string, columns ...string) (*tableWriter, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	statement := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(columns, ", "), placeholders)
	stmt, err := s.tx.PrepareContext(ctx, statement)
	if err != nil {
		return nil, fmt.Errorf("prepare %s insert: %w", table, err)
	}
	writer := &tableWriter{name: table, stmt: stmt}
	s.writers = append(s.writers, writer)
	return writer, nil
}

// close releases the statements and adds their row counts to rows.
func (s *writerSet) close(rows map[string]int) {
	for _, writer := range s.writers {
		_ = writer.stmt.Close()
		rows[writer.name] += writer.rows
	}
	s.writers = nil
}
