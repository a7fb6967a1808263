// Package postgres persists chat sessions in the chat_message table. Each
// message carries a per-session sequence number that defines history order.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/windforest/querychat/internal/session"
)

type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ session.Store = (*Store)(nil)

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping session db: %w", err)
	}
	return nil
}

func (s *Store) History(ctx context.Context, sessionID string) ([]session.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT body, origin, created_at
FROM chat_message
WHERE session_id = $1
ORDER BY seq ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query session history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	messages := make([]session.Message, 0)
	for rows.Next() {
		var (
			msg    session.Message
			origin string
		)
		if err := rows.Scan(&msg.Text, &origin, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan session message: %w", err)
		}
		msg.Origin = session.Origin(origin)
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session messages: %w", err)
	}
	return messages, nil
}

func (s *Store) Append(ctx context.Context, sessionID string, msg session.Message) error {
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}
	if !msg.Origin.Valid() {
		return fmt.Errorf("invalid message origin %q", msg.Origin)
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Serializes writers of one session across processes; released on commit.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, sessionID); err != nil {
		return fmt.Errorf("lock session %q: %w", sessionID, err)
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO chat_message (session_id, seq, origin, body, created_at)
SELECT $1, COALESCE(MAX(seq), 0) + 1, $2, $3, $4
FROM chat_message
WHERE session_id = $1`, sessionID, string(msg.Origin), msg.Text, msg.CreatedAt); err != nil {
		return fmt.Errorf("insert session message: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit session message: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
