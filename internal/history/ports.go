package history

import (
	"context"
	"errors"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DefaultSession is the shared conversation behind /talk and /clear when no session_id is given.
// Its file is database.json.
const DefaultSession = "database"

var (
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidSessionID is returned for ids outside [A-Za-z0-9_-].
	ErrInvalidSessionID = errors.New("invalid session id")
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Store persists ordered message sequences per session key.
type Store interface {
	Load(ctx context.Context, key string) ([]Message, error)
	Append(ctx context.Context, key string, messages ...Message) error
	// Clear empties the session but keeps it addressable.
	Clear(ctx context.Context, key string) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
