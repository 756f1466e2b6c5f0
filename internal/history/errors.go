package history

import (
	"git.home.luguber.info/inful/facets/internal/foundation/errors"
)

var (
	// ErrDatabaseOpenFailed indicates the SQLite database could not be opened.
	ErrDatabaseOpenFailed = errors.EventStoreError("could not open history database").Build()

	// ErrInitializeSchemaFailed indicates the history schema could not be created.
	ErrInitializeSchemaFailed = errors.EventStoreError("failed to initialize history schema").Build()

	// ErrAppendFailed indicates a history entry could not be written.
	ErrAppendFailed = errors.EventStoreError("failed to append history entry").Build()

	// ErrQueryFailed indicates a history query failed.
	ErrQueryFailed = errors.EventStoreError("failed to query history").Build()
)
