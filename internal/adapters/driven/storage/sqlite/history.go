// Package sqlite persists conversation history in a local SQLite
// database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/bizbrain-labs/bizbrain-cli/internal/core/domain"
	"github.com/bizbrain-labs/bizbrain-cli/internal/core/ports/driven"
)

// Ensure HistoryStore implements the interface.
var _ driven.HistoryStore = (*HistoryStore)(nil)

// HistoryFilename is the database file name within the history directory.
const HistoryFilename = "history.db"

const schema = `
CREATE TABLE IF NOT EXISTS exchanges (
	id         TEXT PRIMARY KEY,
	question   TEXT NOT NULL,
	answer     TEXT NOT NULL,
	sources    TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_exchanges_created_at ON exchanges (created_at DESC);
`

// HistoryStore records question/answer exchanges.
type HistoryStore struct {
	db   *sql.DB
	path string
}

// NewHistoryStore opens (or creates) the history database under dataDir.
func NewHistoryStore(dataDir string) (*HistoryStore, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, HistoryFilename)

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}

	return &HistoryStore{db: db, path: dbPath}, nil
}

// Path returns the database file path.
func (s *HistoryStore) Path() string {
	return s.path
}

// SaveExchange appends one exchange to the history.
func (s *HistoryStore) SaveExchange(ctx context.Context, ex domain.Exchange) error {
	if ex.ID == "" {
		return fmt.Errorf("%w: exchange id is empty", domain.ErrInvalidInput)
	}

	sources, err := json.Marshal(ex.Sources)
	if err != nil {
		return fmt.Errorf("marshal sources: %w", err)
	}

	createdAt := ex.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO exchanges (id, question, answer, sources, created_at) VALUES (?, ?, ?, ?, ?)`,
		ex.ID, ex.Question, ex.Answer, string(sources), createdAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert exchange: %w", err)
	}
	return nil
}

// Recent returns the n most recent exchanges, newest first.
func (s *HistoryStore) Recent(ctx context.Context, n int) ([]domain.Exchange, error) {
	if n <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, question, answer, sources, created_at FROM exchanges ORDER BY created_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query exchanges: %w", err)
	}
	defer rows.Close()

	var exchanges []domain.Exchange
	for rows.Next() {
		var (
			ex        domain.Exchange
			sources   string
			createdAt string
		)
		if err := rows.Scan(&ex.ID, &ex.Question, &ex.Answer, &sources, &createdAt); err != nil {
			return nil, fmt.Errorf("scan exchange: %w", err)
		}
		if err := json.Unmarshal([]byte(sources), &ex.Sources); err != nil {
			return nil, fmt.Errorf("parse sources for exchange %s: %w", ex.ID, err)
		}
		ts, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp for exchange %s: %w", ex.ID, err)
		}
		ex.CreatedAt = ts
		exchanges = append(exchanges, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exchanges: %w", err)
	}
	return exchanges, nil
}

// Close closes the database connection.
func (s *HistoryStore) Close() error {
	return s.db.Close()
}
