// Package seed builds the Windforest bookstore demo database: a
// reproducible synthetic corpus of customers, staff, books and orders.
package seed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/windforest/querychat/internal/nl2sql"
	"github.com/windforest/querychat/internal/observability"
)

var ErrDatabaseExists = errors.New("database already exists")

type Summary struct {
	Path    string
	Seed    int64
	Tables  map[string]int
	Elapsed time.Duration
}

type Seeder struct {
	Config Config
	Logger *slog.Logger
	Now    func() time.Time
}

// deriveCustomerStats fills the columns that summarize a customer's orders.
const deriveCustomerStats = `
WITH totals AS (
    SELECT o.customer_id AS customer_id,
           MAX(o.order_date) AS last_order,
           SUM(oi.quantity * oi.unit_price) AS spend,
           SUM(oi.quantity * oi.unit_price) / COUNT(DISTINCT o.id) AS avg_value
    FROM orders o
    JOIN order_items oi ON oi.order_id = o.id
    WHERE o.status NOT IN ('Canceled', 'Returned')
    GROUP BY o.customer_id
)
UPDATE customers SET
    last_purchase_date = (SELECT last_order FROM totals WHERE totals.customer_id = customers.id),
    avg_order_value = COALESCE((SELECT ROUND(avg_value, 2) FROM totals WHERE totals.customer_id = customers.id), 0),
    clv = COALESCE((
        SELECT ROUND(spend * CASE customers.segment WHEN 'VIP' THEN 1.5 WHEN 'Wholesale' THEN 1.2 ELSE 1.0 END, 2)
        FROM totals WHERE totals.customer_id = customers.id
    ), 0)`

// Run creates the database file, applies the corpus schema and fills every
// table inside one transaction.
func (s *Seeder) Run(ctx context.Context) (Summary, error) {
	cfg := s.Config
	if err := cfg.Validate(); err != nil {
		return Summary{}, err
	}
	logger := s.Logger
	if logger == nil {
		logger = observability.DiscardLogger()
	}
	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now().UTC()
	}

	if err := prepareTarget(cfg.DatabasePath, cfg.Overwrite); err != nil {
		return Summary{}, err
	}
	db, err := sql.Open("sqlite3", cfg.DatabasePath)
	if err != nil {
		return Summary{}, fmt.Errorf("open %s: %w", cfg.DatabasePath, err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.ExecContext(ctx, nl2sql.WindforestSchema); err != nil {
		return Summary{}, fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Summary{}, fmt.Errorf("begin seed transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	c := &corpus{cfg: cfg, gen: newGenerator(cfg.Seed, now, cfg.Years), rows: map[string]int{}}
	steps := []struct {
		name string
		run  func(context.Context, *writerSet) error
	}{
		{"customers", c.seedCustomers},
		{"employees", c.seedEmployees},
		{"suppliers", c.seedSuppliers},
		{"categories", c.seedCategories},
		{"authors", c.seedAuthors},
		{"books", c.seedBooks},
		{"shippers", c.seedShippers},
		{"orders", c.seedOrders},
		{"customer_service_interactions", c.seedInteractions},
	}

	started := time.Now()
	for _, step := range steps {
		stepStart := time.Now()
		writers := &writerSet{tx: tx}
		err := step.run(ctx, writers)
		writers.close(c.rows)
		if err != nil {
			return Summary{}, fmt.Errorf("seed %s: %w", step.name, err)
		}
		logger.Info("seeded table",
			slog.String("step", step.name),
			slog.Int("rows", c.rows[step.name]),
			slog.Duration("elapsed", time.Since(stepStart)),
		)
	}

	if _, err := tx.ExecContext(ctx, deriveCustomerStats); err != nil {
		return Summary{}, fmt.Errorf("derive customer stats: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Summary{}, fmt.Errorf("commit seed transaction: %w", err)
	}
	committed = true

	summary := Summary{Path: cfg.DatabasePath, Seed: cfg.Seed, Tables: c.rows, Elapsed: time.Since(started)}
	logger.Info("demo database ready",
		slog.String("path", summary.Path),
		slog.Int64("seed", summary.Seed),
		slog.Duration("elapsed", summary.Elapsed),
	)
	return summary, nil
}

func prepareTarget(path string, overwrite bool) error {
	if _, err := os.Stat(path); err == nil {
		if !overwrite {
			return fmt.Errorf("%w: %s", ErrDatabaseExists, path)
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("remove existing database: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create database directory: %w", err)
		}
	}
	return nil
}
