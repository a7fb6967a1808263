// Package chat runs one chat turn: record the question, translate it, run
// the query and record the reply.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/windforest/querychat/internal/compose"
	"github.com/windforest/querychat/internal/nl2sql"
	"github.com/windforest/querychat/internal/observability"
	"github.com/windforest/querychat/internal/query"
	"github.com/windforest/querychat/internal/session"
)

var ErrEmptyMessage = errors.New("message is required")

// Outcome labels how a turn ended. It is used for metrics and logs.
type Outcome string

const (
	OutcomeSQL              Outcome = "sql"
	OutcomeAnswer           Outcome = "answer"
	OutcomeTranslationError Outcome = "translation_error"
	OutcomeExecutionError   Outcome = "execution_error"
	OutcomeRejected         Outcome = "rejected"
	OutcomeUnavailable      Outcome = "unavailable"
)

type Reply struct {
	SessionID string
	Response  string
	Sources   []string
	Outcome   Outcome
}

type Service struct {
	Sessions   session.Store
	Translator nl2sql.Translator
	Engine     query.Engine
	Logger     *slog.Logger

	// Schema and BusinessContext override the translator's corpus description.
	Schema          string
	BusinessContext string
	Dialect         string

	RowLimit     int
	QueryTimeout time.Duration
	Clock        func() time.Time

	locks sessionLocks
}

// NewSession returns a fresh id. Nothing is stored until the first message.
func (s *Service) NewSession() string {
	return session.NewID()
}

func (s *Service) History(ctx context.Context, sessionID string) ([]session.Message, error) {
	sessionID = strings.TrimSpace(sessionID)
	if !session.ValidID(sessionID) {
		return []session.Message{}, nil
	}
	return s.Sessions.History(ctx, sessionID)
}

// Send handles one user message. Translation and query failures are recorded
// as error replies; only session store failures are returned as errors.
func (s *Service) Send(ctx context.Context, sessionID, text string) (Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Reply{}, ErrEmptyMessage
	}
	sessionID = strings.TrimSpace(sessionID)
	if !session.ValidID(sessionID) {
		sessionID = s.NewSession()
	}
	logger := s.logger().With(
		slog.String("session_id", sessionID),
		slog.String("trace_id", observability.TraceIDFromContext(ctx)),
	)

	unlock, err := s.locks.acquire(ctx, sessionID)
	if err != nil {
		return Reply{}, fmt.Errorf("wait for session %q: %w", sessionID, err)
	}
	defer unlock()

	history, err := s.Sessions.History(ctx, sessionID)
	if err != nil {
		return Reply{}, fmt.Errorf("load history: %w", err)
	}
	if err := s.Sessions.Append(ctx, sessionID, session.Message{Text: text, Origin: session.OriginUser}); err != nil {
		return Reply{}, fmt.Errorf("record question: %w", err)
	}

	start := s.now()
	outcome, msg, sources := s.answer(ctx, logger, text, history)

	// The question is already recorded; keep the reply even if the caller went away.
	if err := s.Sessions.Append(context.WithoutCancel(ctx), sessionID, msg); err != nil {
		return Reply{}, fmt.Errorf("record reply: %w", err)
	}

	observability.ObserveChatTurn(string(outcome))
	logger.Info("chat turn completed",
		slog.String("outcome", string(outcome)),
		slog.Int("history_messages", len(history)),
		slog.Duration("elapsed", s.now().Sub(start)),
	)
	return Reply{SessionID: sessionID, Response: msg.Text, Sources: sources, Outcome: outcome}, nil
}

func (s *Service) answer(ctx context.Context, logger *slog.Logger, question string, history []session.Message) (Outcome, session.Message, []string) {
	translateStart := time.Now()
	translated, err := s.Translator.Translate(ctx, nl2sql.Request{
		Question:        question,
		History:         toTurns(history),
		Schema:          s.Schema,
		BusinessContext: s.BusinessContext,
		Dialect:         s.Dialect,
		Now:             s.now(),
	})
	observability.ObserveTranslate(time.Since(translateStart))
	if err != nil {
		if errors.Is(err, nl2sql.ErrUnavailable) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			logger.Warn("language model unavailable", slog.Any("error", err))
			return OutcomeUnavailable, compose.Failure(compose.FailureUnavailable, err), []string{}
		}
		logger.Warn("translation failed", slog.Any("error", err))
		return OutcomeTranslationError, compose.Failure(compose.FailureTranslation, err), []string{}
	}

	switch typed := translated.(type) {
	case nl2sql.DirectAnswer:
		return OutcomeAnswer, compose.Answer(typed), compose.Sources(typed)
	case nl2sql.SQLInvocation:
		return s.runInvocation(ctx, logger, typed)
	default:
		logger.Error("translator returned unknown outcome", slog.String("type", fmt.Sprintf("%T", translated)))
		return OutcomeTranslationError, compose.Failure(compose.FailureTranslation, nil), []string{}
	}
}

func (s *Service) runInvocation(ctx context.Context, logger *slog.Logger, invocation nl2sql.SQLInvocation) (Outcome, session.Message, []string) {
	logger = logger.With(slog.String("sql", invocation.SQL))
	if err := query.CheckReadOnly(invocation.SQL); err != nil {
		logger.Warn("generated query rejected", slog.Any("error", err))
		return OutcomeRejected, compose.Failure(compose.FailureRejected, err), []string{}
	}

	queryCtx := ctx
	if s.QueryTimeout > 0 {
		var cancel context.CancelFunc
		queryCtx, cancel = context.WithTimeout(ctx, s.QueryTimeout)
		defer cancel()
	}
	result, err := s.Engine.Execute(queryCtx, query.Request{SQL: invocation.SQL, RowLimit: s.RowLimit})
	if err != nil {
		logger.Warn("generated query failed", slog.Any("error", err))
		return OutcomeExecutionError, compose.Failure(compose.FailureExecution, err), []string{}
	}
	observability.ObserveQuery(result.Duration, result.Truncated)
	logger.Debug("generated query executed",
		slog.Int("rows", len(result.Rows)),
		slog.Bool("truncated", result.Truncated),
		slog.Duration("duration", result.Duration),
	)
	return OutcomeSQL, compose.SQLReply(invocation, result), compose.Sources(invocation)
}

func toTurns(history []session.Message) []nl2sql.Turn {
	turns := make([]nl2sql.Turn, 0, len(history))
	for _, msg := range history {
		turns = append(turns, nl2sql.Turn{Text: msg.Text, FromUser: msg.IsUser()})
	}
	return turns
}

func (s *Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return observability.DiscardLogger()
}
