package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/facets/internal/catalog"
)

const selectColumns = "SELECT id, operation_id, project, event_type, timestamp, payload FROM history"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens the history database at dbPath. Use ":memory:" for an
// in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, ErrDatabaseOpenFailed.WithCause(err)
	}
	// a single connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, ErrInitializeSchemaFailed.WithCause(err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		operation_id TEXT NOT NULL,
		project TEXT NOT NULL,
		event_type TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		payload BLOB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_history_operation ON history(operation_id);
	CREATE INDEX IF NOT EXISTS idx_history_project ON history(project);
	CREATE INDEX IF NOT EXISTS idx_history_timestamp ON history(timestamp);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append adds a new entry to the store.
func (s *SQLiteStore) Append(ctx context.Context, e Entry) error {
	payload, err := marshalPayload(e)
	if err != nil {
		return err
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO history (operation_id, project, event_type, timestamp, payload) VALUES (?, ?, ?, ?, ?)",
		e.OperationID, e.Project, string(e.Type), e.Timestamp.UnixMilli(), payload,
	)
	if err != nil {
		return ErrAppendFailed.WithCause(err)
	}
	return nil
}

// ByOperation returns the entries of one modification in append order.
func (s *SQLiteStore) ByOperation(ctx context.Context, operationID string) ([]Entry, error) {
	return s.query(ctx, selectColumns+" WHERE operation_id = ? ORDER BY id", operationID)
}

// Recent returns the newest entries of a project.
func (s *SQLiteStore) Recent(ctx context.Context, project string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.query(ctx, selectColumns+" WHERE project = ? ORDER BY id DESC LIMIT ?", project, limit)
}

// Range returns entries recorded within the time range.
func (s *SQLiteStore) Range(ctx context.Context, start, end time.Time) ([]Entry, error) {
	return s.query(ctx, selectColumns+" WHERE timestamp >= ? AND timestamp <= ? ORDER BY id",
		start.UnixMilli(), end.UnixMilli())
}

func (s *SQLiteStore) query(ctx context.Context, q string, args ...any) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, ErrQueryFailed.WithCause(err)
	}
	defer func() { _ = rows.Close() }()
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			eventType string
			millis    int64
			payload   []byte
		)
		if err := rows.Scan(&e.ID, &e.OperationID, &e.Project, &eventType, &millis, &payload); err != nil {
			return nil, ErrQueryFailed.WithCause(err)
		}
		e.Type = catalog.EventType(eventType)
		e.Timestamp = time.UnixMilli(millis)
		if err := json.Unmarshal(payload, &e.Payload); err != nil {
			return nil, ErrQueryFailed.WithCause(err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, ErrQueryFailed.WithCause(err)
	}
	return entries, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
