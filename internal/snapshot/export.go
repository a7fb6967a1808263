package snapshot

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/windforest/querychat/internal/observability"
	"github.com/windforest/querychat/internal/storage"
)

const writeBatchSize = 512

// Exporter copies every table of a SQLite database into a named snapshot.
type Exporter struct {
	DB     *sql.DB
	Store  storage.ObjectStore
	Logger *slog.Logger
	Now    func() time.Time
}

func (e *Exporter) Export(ctx context.Context, name string) (Manifest, error) {
	if e.DB == nil {
		return Manifest{}, fmt.Errorf("source database is required")
	}
	if e.Store == nil {
		return Manifest{}, fmt.Errorf("object store is required")
	}
	if _, err := storage.SnapshotManifestPath(name); err != nil {
		return Manifest{}, err
	}

	tables, err := listTables(ctx, e.DB)
	if err != nil {
		return Manifest{}, err
	}
	if len(tables) == 0 {
		return Manifest{}, fmt.Errorf("source database has no tables")
	}

	manifest := Manifest{Name: name, CreatedAt: e.now().UTC()}
	for _, table := range tables {
		entry, err := e.exportTable(ctx, name, table)
		if err != nil {
			return Manifest{}, fmt.Errorf("export table %q: %w", table, err)
		}
		e.logger().Info("snapshot table exported",
			slog.String("snapshot", name),
			slog.String("table", table),
			slog.Int64("rows", entry.Rows),
			slog.Int64("size_bytes", entry.SizeBytes),
		)
		manifest.Tables = append(manifest.Tables, entry)
	}

	// The manifest goes last so readers never see a partial snapshot.
	if err := saveManifest(ctx, e.Store, manifest); err != nil {
		return Manifest{}, err
	}
	return manifest, nil
}

func (e *Exporter) exportTable(ctx context.Context, snapshotName, table string) (TableEntry, error) {
	key, err := storage.SnapshotTablePath(snapshotName, table)
	if err != nil {
		return TableEntry{}, err
	}
	columns, err := tableColumns(ctx, e.DB, table)
	if err != nil {
		return TableEntry{}, err
	}
	layout, err := newTableLayout(table, columns)
	if err != nil {
		return TableEntry{}, err
	}

	names := make([]string, len(columns))
	for i, column := range columns {
		names[i] = quoteIdent(column.Name)
	}
	rows, err := e.DB.QueryContext(ctx, fmt.Sprintf("SELECT %s FROM %s", strings.Join(names, ", "), quoteIdent(table)))
	if err != nil {
		return TableEntry{}, fmt.Errorf("select rows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	buf := bytes.NewBuffer(nil)
	writer := parquet.NewWriter(buf, layout.schema)
	batch := make([]parquet.Row, 0, writeBatchSize)
	var count int64
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if _, err := writer.WriteRows(batch); err != nil {
			return fmt.Errorf("write parquet rows: %w", err)
		}
		batch = batch[:0]
		return nil
	}

	for rows.Next() {
		values := make([]any, len(columns))
		targets := make([]any, len(columns))
		for i := range values {
			targets[i] = &values[i]
		}
		if err := rows.Scan(targets...); err != nil {
			return TableEntry{}, fmt.Errorf("scan row: %w", err)
		}
		row, err := layout.row(values)
		if err != nil {
			return TableEntry{}, fmt.Errorf("row %d: %w", count+1, err)
		}
		batch = append(batch, row)
		count++
		if len(batch) == writeBatchSize {
			if err := flush(); err != nil {
				return TableEntry{}, err
			}
		}
	}
	if err := rows.Err(); err != nil {
		return TableEntry{}, fmt.Errorf("iterate rows: %w", err)
	}
	if err := flush(); err != nil {
		return TableEntry{}, err
	}
	if err := writer.Close(); err != nil {
		return TableEntry{}, fmt.Errorf("close parquet writer: %w", err)
	}

	size := int64(buf.Len())
	if _, err := e.Store.Put(ctx, key, bytes.NewReader(buf.Bytes()), size, storage.PutOptions{ContentType: "application/octet-stream"}); err != nil {
		return TableEntry{}, fmt.Errorf("put parquet file: %w", err)
	}
	return TableEntry{Table: table, Path: key, Rows: count, SizeBytes: size, Columns: columns}, nil
}

func listTables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func tableColumns(ctx context.Context, db *sql.DB, table string) ([]Column, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(table)))
	if err != nil {
		return nil, fmt.Errorf("table info: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []Column
	for rows.Next() {
		var (
			cid        int
			name       string
			declared   sql.NullString
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &declared, &notNull, &defaultVal, &pk); err != nil {
			return nil, fmt.Errorf("scan column info: %w", err)
		}
		columns = append(columns, Column{Name: name, Kind: KindForDeclaredType(declared.String)})
	}
	return columns, rows.Err()
}

func (e *Exporter) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Exporter) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return observability.DiscardLogger()
}

func quoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}
