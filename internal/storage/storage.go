// Package storage is the sqlite-backed persistence collaborator.
// Writes are full thread snapshots: the message rows for a thread are
// replaced in one transaction, never patched.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/parleyhq/parley/internal/domain"
	pstrings "github.com/parleyhq/parley/internal/strings"
)

const previewRunes = 80

type Storage struct {
	db   *sql.DB
	path string
}

// Verify Storage implements domain.Store
var _ domain.Store = (*Storage)(nil)

func New(dataDir string) (*Storage, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "parley.db")
	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_timeout=5000&_fk=on")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Storage{db: db, path: dbPath}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := s.Ping(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return s, nil
}

func (s *Storage) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS threads (
		id TEXT PRIMARY KEY,
		persona TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_threads_updated ON threads(updated_at DESC);
	CREATE INDEX IF NOT EXISTS idx_threads_persona ON threads(persona);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		thread_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		sender TEXT NOT NULL,
		text TEXT NOT NULL,
		timestamp DATETIME,
		FOREIGN KEY (thread_id) REFERENCES threads(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_messages_thread ON messages(thread_id, seq);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Ping verifies the database connection is alive.
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Storage) Close() error {
	return s.db.Close()
}

// Write persists a full snapshot of the thread: the thread row is
// upserted and its message rows replaced, in one transaction.
func (s *Storage) Write(ctx context.Context, threadID string, persona domain.Persona, messages []domain.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO threads (id, persona, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			persona = excluded.persona,
			updated_at = excluded.updated_at
	`, threadID, persona, now, now)
	if err != nil {
		return fmt.Errorf("upsert thread: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE thread_id = ?`, threadID); err != nil {
		return fmt.Errorf("clear messages: %w", err)
	}

	for i, msg := range messages {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO messages (id, thread_id, seq, sender, text, timestamp)
			VALUES (?, ?, ?, ?, ?, ?)
		`, msg.ID, threadID, i, msg.Sender, msg.Text, msg.Timestamp)
		if err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
	}

	return tx.Commit()
}

// Read returns the full thread, or a domain.ErrNotFound error for an
// unknown id.
func (s *Storage) Read(ctx context.Context, threadID string) (*domain.Thread, error) {
	var thread domain.Thread
	err := s.db.QueryRowContext(ctx, `
		SELECT id, persona, created_at, updated_at FROM threads WHERE id = ?
	`, threadID).Scan(&thread.ID, &thread.Persona, &thread.CreatedAt, &thread.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, domain.NewNotFoundError(threadID)
	}
	if err != nil {
		return nil, fmt.Errorf("read thread: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sender, text, timestamp FROM messages
		WHERE thread_id = ? ORDER BY seq ASC
	`, threadID)
	if err != nil {
		return nil, fmt.Errorf("read messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var msg domain.Message
		var ts sql.NullTime
		if err := rows.Scan(&msg.ID, &msg.Sender, &msg.Text, &ts); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if ts.Valid {
			msg.Timestamp = ts.Time
		}
		thread.Messages = append(thread.Messages, msg)
	}
	return &thread, rows.Err()
}

// List returns up to limit summaries, most recently updated first,
// optionally filtered by persona ("" matches all).
func (s *Storage) List(ctx context.Context, persona domain.Persona, limit int) ([]domain.Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.persona, t.created_at, t.updated_at,
			   (SELECT COUNT(*) FROM messages m WHERE m.thread_id = t.id),
			   COALESCE((SELECT text FROM messages m WHERE m.thread_id = t.id
						 ORDER BY m.seq DESC LIMIT 1), '')
		FROM threads t
		WHERE (? = '' OR t.persona = ?)
		ORDER BY t.updated_at DESC
		LIMIT ?
	`, persona, persona, limit)
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	defer rows.Close()

	var summaries []domain.Summary
	for rows.Next() {
		var sum domain.Summary
		var preview string
		if err := rows.Scan(&sum.ThreadID, &sum.Persona, &sum.CreatedAt, &sum.UpdatedAt,
			&sum.MessageCount, &preview); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		sum.Preview = pstrings.TruncateRunes(preview, previewRunes)
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// Delete removes a thread and, via the cascade, its messages.
func (s *Storage) Delete(ctx context.Context, threadID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM threads WHERE id = ?`, threadID)
	if err != nil {
		return fmt.Errorf("delete thread: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.NewNotFoundError(threadID)
	}
	return nil
}
