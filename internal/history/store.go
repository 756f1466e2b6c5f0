package history

import (
	"context"
	"time"
)

// Store persists and retrieves history entries.
type Store interface {
	// Append adds an entry. ID and a zero Timestamp are filled in by the store.
	Append(ctx context.Context, e Entry) error

	// ByOperation returns the entries of one modification, oldest first.
	ByOperation(ctx context.Context, operationID string) ([]Entry, error)

	// Recent returns up to limit entries of a project, newest first.
	Recent(ctx context.Context, project string, limit int) ([]Entry, error)

	// Range returns entries recorded within [start, end], oldest first.
	Range(ctx context.Context, start, end time.Time) ([]Entry, error)

	Close() error
}
