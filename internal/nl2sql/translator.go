// Package nl2sql turns a chat question into either a SQL invocation or a
// direct conversational answer.
package nl2sql

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUnparseable means the model replied with neither a usable tool call nor text.
	ErrUnparseable = errors.New("model output could not be interpreted")
	// ErrUnavailable means the model endpoint could not be reached or timed out.
	ErrUnavailable = errors.New("language model unavailable")
)

type Turn struct {
	Text     string
	FromUser bool
}

type Request struct {
	Question        string
	History         []Turn
	Schema          string
	BusinessContext string
	// Dialect names the SQL flavour the engine speaks. Empty means SQLite.
	Dialect string
	Now     time.Time
}

// Outcome is either SQLInvocation or DirectAnswer.
type Outcome interface {
	outcome()
}

type SQLInvocation struct {
	SQL       string
	Rationale string
}

type DirectAnswer struct {
	Text string
}

func (SQLInvocation) outcome() {}
func (DirectAnswer) outcome()  {}

type Translator interface {
	Translate(ctx context.Context, req Request) (Outcome, error)
}
