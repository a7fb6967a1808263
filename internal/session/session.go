// Package session keeps the per-session chat log that survives between
// requests. A session is created implicitly by its first Append.
package session

import (
	"context"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Origin records who authored a message.
type Origin string

const (
	OriginUser      Origin = "user"
	OriginAssistant Origin = "assistant"
	// OriginError marks system replies produced by a failed turn.
	OriginError Origin = "error"
)

func (o Origin) Valid() bool {
	switch o {
	case OriginUser, OriginAssistant, OriginError:
		return true
	default:
		return false
	}
}

// Message is immutable once appended.
type Message struct {
	Text      string    `json:"text"`
	Origin    Origin    `json:"origin"`
	CreatedAt time.Time `json:"created_at"`
}

func (m Message) IsUser() bool {
	return m.Origin == OriginUser
}

// Store is the session log. Implementations must be safe for concurrent use
// and return History in append order.
type Store interface {
	// History returns the ordered messages of a session, empty for unknown ids.
	History(ctx context.Context, sessionID string) ([]Message, error)
	// Append adds a message, creating the session if needed.
	Append(ctx context.Context, sessionID string, msg Message) error
	Close() error
}

var idPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,128}$`)

// NewID returns a fresh opaque session identifier.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// ValidID reports whether a client supplied identifier can be used as is.
func ValidID(sessionID string) bool {
	return idPattern.MatchString(sessionID)
}
