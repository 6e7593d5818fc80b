// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/OybekDeveloper/leora.v2-sub001/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// Collection names.
const (
	colAccounts       = "accounts"
	colTransactions   = "transactions"
	colBudgets        = "budgets"
	colBudgetEntries  = "budget_entries"
	colDebts          = "debts"
	colDebtPayments   = "debt_payments"
	colCounterparties = "counterparties"
	colGoals          = "goals"
	colHabits         = "habits"
	colTasks          = "tasks"
	colFocusSessions  = "focus_sessions"
)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database with pure Go driver
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Run migrations
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// put inserts or replaces a document. Replays of the same write are harmless.
func (s *SQLiteStore) put(ctx context.Context, collection, id, parentID string, createdAt int64, v any) error {
	if id == "" {
		return fmt.Errorf("failed to save %s: empty id", collection)
	}
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s %s: %w", collection, id, err)
	}
	now := s.now().Unix()
	if createdAt == 0 {
		createdAt = now
	}

	var parent any
	if parentID != "" {
		parent = parentID
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, parent_id, body, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (collection, id) DO UPDATE SET
		     parent_id = excluded.parent_id,
		     body = excluded.body,
		     updated_at = excluded.updated_at`,
		collection, id, parent, string(body), createdAt, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save %s %s: %w", collection, id, err)
	}
	return nil
}

// remove deletes a document. Deleting a missing document is not an error.
func (s *SQLiteStore) remove(ctx context.Context, collection, id string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM documents WHERE collection = ? AND id = ?",
		collection, id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", collection, id, err)
	}
	return nil
}

// removeChildren deletes every document of collection whose parent is parentID.
func (s *SQLiteStore) removeChildren(ctx context.Context, collection, parentID string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM documents WHERE collection = ? AND parent_id = ?",
		collection, parentID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete %s of %s: %w", collection, parentID, err)
	}
	return nil
}

// list decodes every document of a collection, oldest first.
func list[T any](ctx context.Context, s *SQLiteStore, collection string) ([]T, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT body FROM documents WHERE collection = ? ORDER BY created_at, id",
		collection,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", collection, err)
		}
		var v T
		if err := json.Unmarshal([]byte(body), &v); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", collection, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", collection, err)
	}
	return out, nil
}
