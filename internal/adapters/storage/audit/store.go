package audit

import (
	"context"
	"time"

	"trainerdash/internal/adapters/storage"
	domain "trainerdash/internal/domain/audit"
)

// Store defines the interface for audit event persistence.
type Store interface {
	// Save persists an audit event.
	// PRE: event is valid
	// POST: Event is persisted
	Save(ctx context.Context, event domain.Event) error

	// List returns audit events matching filter.
	// PRE: limit > 0
	// POST: Returns events ordered by timestamp desc
	List(ctx context.Context, filter Filter, limit int) ([]domain.Event, error)

	// GetByID retrieves a specific audit event.
	GetByID(ctx context.Context, id string) (domain.Event, error)

	// Prune removes events older than before and reports how many went.
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// Filter narrows List. Zero fields are ignored.
type Filter struct {
	Category domain.Category
	Action   domain.Action
	Outcome  domain.Outcome
	ActorID  string
	From     time.Time
	To       time.Time
}

var _ Store = (*SQLiteStore)(nil)

// SQLDB defines the database interface needed by the store.
type SQLDB interface {
	storage.SQLDB
}
