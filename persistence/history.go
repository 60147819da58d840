package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/lexcodex/quill/parse"
)

// HistoryStore persists sessions and their exchanges in a SQLite database.
// Every exchange keeps both the raw model output and the parsed outcome, so
// recovery behavior stays inspectable after the fact.
type HistoryStore struct {
	db *sql.DB
}

// Session is one recorded conversation.
type Session struct {
	ID        string
	Model     string
	StartedAt time.Time
}

// Exchange is one prompt/response round within a session.
type Exchange struct {
	ID           string
	SessionID    string
	Prompt       string
	RawResponse  string
	CleanText    string
	ToolCalls    []parse.ToolCall
	FinishReason string
	CreatedAt    time.Time
}

// OpenHistory opens or creates the database at dbPath.
func OpenHistory(dbPath string) (*HistoryStore, error) {
	if dbPath == "" {
		return nil, errors.New("history path required")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}
	store := &HistoryStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *HistoryStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		model TEXT,
		started_at TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS exchanges (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		prompt TEXT,
		raw_response TEXT,
		clean_text TEXT,
		tool_calls TEXT,
		finish_reason TEXT,
		created_at TIMESTAMP,
		FOREIGN KEY(session_id) REFERENCES sessions(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_exchanges_session ON exchanges(session_id, created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close releases the underlying database handle.
func (s *HistoryStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// CreateSession records a new session and returns its identifier.
func (s *HistoryStore) CreateSession(ctx context.Context, model string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, model, started_at) VALUES (?, ?, ?)`,
		id, model, time.Now().UTC())
	if err != nil {
		return "", err
	}
	return id, nil
}

// AppendExchange stores one completed round. The exchange ID is assigned
// here when empty.
func (s *HistoryStore) AppendExchange(ctx context.Context, ex Exchange) error {
	if ex.SessionID == "" {
		return errors.New("session id required")
	}
	if ex.ID == "" {
		ex.ID = uuid.NewString()
	}
	if ex.CreatedAt.IsZero() {
		ex.CreatedAt = time.Now().UTC()
	}
	calls, err := json.Marshal(ex.ToolCalls)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO exchanges (id, session_id, prompt, raw_response, clean_text, tool_calls, finish_reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ex.ID, ex.SessionID, ex.Prompt, ex.RawResponse, ex.CleanText, string(calls), ex.FinishReason, ex.CreatedAt)
	return err
}

// Exchanges returns the rounds of a session in chronological order.
func (s *HistoryStore) Exchanges(ctx context.Context, sessionID string) ([]Exchange, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, prompt, raw_response, clean_text, tool_calls, finish_reason, created_at
		FROM exchanges WHERE session_id = ? ORDER BY created_at, id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Exchange
	for rows.Next() {
		var ex Exchange
		var calls string
		if err := rows.Scan(&ex.ID, &ex.SessionID, &ex.Prompt, &ex.RawResponse,
			&ex.CleanText, &calls, &ex.FinishReason, &ex.CreatedAt); err != nil {
			return nil, err
		}
		if calls != "" && calls != "null" {
			if err := json.Unmarshal([]byte(calls), &ex.ToolCalls); err != nil {
				return nil, err
			}
		}
		out = append(out, ex)
	}
	return out, rows.Err()
}

// Sessions returns the most recent sessions, newest first.
func (s *HistoryStore) Sessions(ctx context.Context, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, model, started_at FROM sessions ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.Model, &sess.StartedAt); err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

// DeleteSession removes a session and its exchanges.
func (s *HistoryStore) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID)
	return err
}
