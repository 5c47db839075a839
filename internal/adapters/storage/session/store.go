package session

import (
	"context"
	"time"

	"trainerdash/internal/adapters/storage"
	domain "trainerdash/internal/domain/session"
)

// Store persists dashboard sessions.
type Store interface {
	// Save inserts or replaces a session.
	// PRE: s.ID and s.Token are non-empty
	// POST: the token is stored sealed, never in plain text
	Save(ctx context.Context, s domain.Session) error

	// Get restores a session.
	// POST: returns domain.ErrNotFound for unknown ids, domain.ErrExpired for expired rows
	Get(ctx context.Context, id string, now time.Time) (domain.Session, error)

	// Delete removes a session. Unknown ids are not an error.
	Delete(ctx context.Context, id string) error

	// DeleteExpired removes every session expired at now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

var _ Store = (*SQLiteStore)(nil)

// SQLDB defines the database interface needed by the store.
type SQLDB interface {
	storage.SQLDB
}
