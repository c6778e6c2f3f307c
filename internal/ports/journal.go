package ports

import (
	"context"

	"ies4ops/internal/domain"
)

// Journal keeps a local history of committed mutations
type Journal interface {
	// Record stores an entry, assigning ID and At when empty
	Record(ctx context.Context, entry *domain.JournalEntry) error

	// Recent returns up to limit entries, newest first. An empty database
	// matches every database.
	Recent(ctx context.Context, limit int, database string) ([]domain.JournalEntry, error)

	Close() error
}
