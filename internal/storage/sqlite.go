package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ascendlabs/ascendancy/internal/core"
)

// SQLiteStore implements Store using a local SQLite database. It is the
// self-hosted alternative to the hosted Appwrite backend.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore creates a new SQLite store instance.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &SQLiteStore{
		db:   db,
		path: dbPath,
	}, nil
}

// Initialize creates the database schema.
func (s *SQLiteStore) Initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS user_secrets (
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (user_id, name)
	);

	CREATE TABLE IF NOT EXISTS council_config (
		config_id TEXT PRIMARY KEY,
		moderator_model TEXT NOT NULL,
		skeptic_model TEXT NOT NULL,
		visionary_model TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS chat_history (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		model TEXT,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS debate_history (
		id TEXT PRIMARY KEY,
		user_id TEXT,
		topic TEXT NOT NULL,
		moderator_model TEXT NOT NULL,
		moderator_content TEXT NOT NULL,
		skeptic_model TEXT NOT NULL,
		skeptic_content TEXT NOT NULL,
		visionary_model TEXT NOT NULL,
		visionary_content TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE VIRTUAL TABLE IF NOT EXISTS library_chunks USING fts5(
		file_name, content, user_id UNINDEXED
	);

	CREATE INDEX IF NOT EXISTS idx_chat_history_user ON chat_history(user_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_debate_history_user ON debate_history(user_id, created_at DESC);
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetSecrets returns all secrets stored for a user.
func (s *SQLiteStore) GetSecrets(ctx context.Context, userID string) ([]core.Secret, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, name, value FROM user_secrets WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query secrets: %w", err)
	}
	defer rows.Close()

	var secrets []core.Secret
	for rows.Next() {
		var sec core.Secret
		if err := rows.Scan(&sec.UserID, &sec.Name, &sec.Value); err != nil {
			return nil, fmt.Errorf("failed to scan secret: %w", err)
		}
		secrets = append(secrets, sec)
	}
	return secrets, rows.Err()
}

// PutSecret inserts or replaces a secret. At most one value exists per
// (user, name) pair.
func (s *SQLiteStore) PutSecret(ctx context.Context, secret *core.Secret) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO user_secrets (user_id, name, value, updated_at)
	VALUES (?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(user_id, name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, secret.UserID, secret.Name, secret.Value)
	if err != nil {
		return fmt.Errorf("failed to store secret: %w", err)
	}
	return nil
}

// DeleteSecret removes a secret.
func (s *SQLiteStore) DeleteSecret(ctx context.Context, userID, name string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM user_secrets WHERE user_id = ? AND name = ?`, userID, name)
	if err != nil {
		return fmt.Errorf("failed to delete secret: %w", err)
	}
	return nil
}

// GetCouncilConfig retrieves the council bindings for a config id.
func (s *SQLiteStore) GetCouncilConfig(ctx context.Context, configID string) (*core.CouncilBindings, error) {
	var b core.CouncilBindings
	err := s.db.QueryRowContext(ctx, `
	SELECT moderator_model, skeptic_model, visionary_model
	FROM council_config WHERE config_id = ?
	`, configID).Scan(&b.Moderator, &b.Skeptic, &b.Visionary)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get council config: %w", err)
	}
	return &b, nil
}

// PutCouncilConfig replaces the council bindings for a config id wholesale.
func (s *SQLiteStore) PutCouncilConfig(ctx context.Context, configID string, bindings *core.CouncilBindings) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO council_config (config_id, moderator_model, skeptic_model, visionary_model, updated_at)
	VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(config_id) DO UPDATE SET
		moderator_model = excluded.moderator_model,
		skeptic_model = excluded.skeptic_model,
		visionary_model = excluded.visionary_model,
		updated_at = excluded.updated_at
	`, configID, bindings.Moderator, bindings.Skeptic, bindings.Visionary)
	if err != nil {
		return fmt.Errorf("failed to store council config: %w", err)
	}
	return nil
}

// AddChatMessage appends a chat-history entry.
func (s *SQLiteStore) AddChatMessage(ctx context.Context, msg *core.ChatMessage) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO chat_history (id, user_id, role, content, model, created_at)
	VALUES (?, ?, ?, ?, ?, ?)
	`, msg.ID, msg.UserID, msg.Role, msg.Content, msg.Model, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert chat message: %w", err)
	}
	return nil
}

// ListChatMessages returns a user's chat history, newest first.
func (s *SQLiteStore) ListChatMessages(ctx context.Context, userID string, limit, offset int) ([]*core.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, user_id, role, content, COALESCE(model, ''), created_at
	FROM chat_history WHERE user_id = ?
	ORDER BY created_at DESC LIMIT ? OFFSET ?
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat history: %w", err)
	}
	defer rows.Close()

	var messages []*core.ChatMessage
	for rows.Next() {
		var m core.ChatMessage
		if err := rows.Scan(&m.ID, &m.UserID, &m.Role, &m.Content, &m.Model, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}

// AddDebateResult persists a completed debate. Results are immutable; there
// is no update path.
func (s *SQLiteStore) AddDebateResult(ctx context.Context, result *core.DebateResult) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO debate_history (
		id, user_id, topic,
		moderator_model, moderator_content,
		skeptic_model, skeptic_content,
		visionary_model, visionary_content,
		created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		result.ID, result.UserID, result.Topic,
		result.Moderator.Model, result.Moderator.Content,
		result.Skeptic.Model, result.Skeptic.Content,
		result.Visionary.Model, result.Visionary.Content,
		result.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert debate result: %w", err)
	}
	return nil
}

// GetDebateResult retrieves a debate by ID. Returns nil when not found.
func (s *SQLiteStore) GetDebateResult(ctx context.Context, id string) (*core.DebateResult, error) {
	var r core.DebateResult
	err := s.db.QueryRowContext(ctx, `
	SELECT id, COALESCE(user_id, ''), topic,
		moderator_model, moderator_content,
		skeptic_model, skeptic_content,
		visionary_model, visionary_content,
		created_at
	FROM debate_history WHERE id = ?
	`, id).Scan(
		&r.ID, &r.UserID, &r.Topic,
		&r.Moderator.Model, &r.Moderator.Content,
		&r.Skeptic.Model, &r.Skeptic.Content,
		&r.Visionary.Model, &r.Visionary.Content,
		&r.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get debate result: %w", err)
	}
	return &r, nil
}

// ListDebateResults returns a user's debate summaries, newest first.
func (s *SQLiteStore) ListDebateResults(ctx context.Context, userID string, limit, offset int) ([]*core.DebateSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, topic, created_at FROM debate_history
	WHERE user_id = ?
	ORDER BY created_at DESC LIMIT ? OFFSET ?
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query debate history: %w", err)
	}
	defer rows.Close()

	var summaries []*core.DebateSummary
	for rows.Next() {
		var d core.DebateSummary
		if err := rows.Scan(&d.ID, &d.Topic, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan debate summary: %w", err)
		}
		summaries = append(summaries, &d)
	}
	return summaries, rows.Err()
}

// SearchLibrary runs an FTS5 match over the content column. The query is
// quoted as a phrase so user input cannot inject FTS syntax.
func (s *SQLiteStore) SearchLibrary(ctx context.Context, userID, query string, limit int) ([]core.LibraryChunk, error) {
	match := `content:"` + strings.ReplaceAll(query, `"`, `""`) + `"`

	rows, err := s.db.QueryContext(ctx, `
	SELECT file_name, content FROM library_chunks
	WHERE library_chunks MATCH ? AND (? = '' OR user_id = ?)
	LIMIT ?
	`, match, userID, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search library: %w", err)
	}
	defer rows.Close()

	var chunks []core.LibraryChunk
	for rows.Next() {
		var c core.LibraryChunk
		if err := rows.Scan(&c.FileName, &c.Content); err != nil {
			return nil, fmt.Errorf("failed to scan library chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// AddLibraryChunk stores one library excerpt. Exposed for ingestion jobs
// and tests; the chat pipeline only reads.
func (s *SQLiteStore) AddLibraryChunk(ctx context.Context, userID, fileName, content string) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO library_chunks (file_name, content, user_id) VALUES (?, ?, ?)
	`, fileName, content, userID)
	if err != nil {
		return fmt.Errorf("failed to insert library chunk: %w", err)
	}
	return nil
}
