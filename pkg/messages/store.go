package messages

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SetupSchema initializes the flash-message table in the provided database.
// It is idempotent and safe to call on an already-initialized database.
func SetupSchema(db *sql.DB) error {
	const schemaFlash = `
CREATE TABLE IF NOT EXISTS flash_messages (
    message_id INTEGER PRIMARY KEY,
    session_token TEXT NOT NULL,
    level INTEGER NOT NULL,
    extra_tags TEXT NOT NULL DEFAULT '',
    text TEXT NOT NULL,
    created_at INTEGER NOT NULL
);
`
	const schemaFlashIdx = `
CREATE INDEX IF NOT EXISTS idx_flash_session ON flash_messages (session_token, message_id);
`

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.Exec(schemaFlash); err != nil {
		return fmt.Errorf("could not create flash schema: %w", err)
	}
	if _, err = tx.Exec(schemaFlashIdx); err != nil {
		return fmt.Errorf("could not create flash index: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	return nil
}

// Store persists flash messages between the request that produces them and the
// page render that displays them. Messages are keyed by session token and are
// removed when popped (standard flash semantics). All methods are safe for
// concurrent use; ordering within a session follows insertion order.
type Store struct {
	db         *sql.DB
	stmtInsert *sql.Stmt
	stmtSelect *sql.Stmt
	stmtDelete *sql.Stmt
	stmtPurge  *sql.Stmt
}

// NewStore prepares a Store on a database that SetupSchema has been run on.
func NewStore(db *sql.DB) (*Store, error) {
	s := &Store{db: db}

	var err error
	if s.stmtInsert, err = db.Prepare(
		"INSERT INTO flash_messages (session_token, level, extra_tags, text, created_at) VALUES (?, ?, ?, ?, ?)"); err != nil {
		return nil, fmt.Errorf("could not prepare insert statement: %w", err)
	}
	if s.stmtSelect, err = db.Prepare(
		"SELECT level, extra_tags, text FROM flash_messages WHERE session_token = ? ORDER BY message_id"); err != nil {
		return nil, fmt.Errorf("could not prepare select statement: %w", err)
	}
	if s.stmtDelete, err = db.Prepare(
		"DELETE FROM flash_messages WHERE session_token = ?"); err != nil {
		return nil, fmt.Errorf("could not prepare delete statement: %w", err)
	}
	if s.stmtPurge, err = db.Prepare(
		"DELETE FROM flash_messages WHERE created_at < ?"); err != nil {
		return nil, fmt.Errorf("could not prepare purge statement: %w", err)
	}

	return s, nil
}

// Close releases the prepared statements. The database handle itself is owned
// by the caller and is left open.
func (s *Store) Close() {
	_ = s.stmtInsert.Close()
	_ = s.stmtSelect.Close()
	_ = s.stmtDelete.Close()
	_ = s.stmtPurge.Close()
}

// Add appends a message to the given session's flash queue.
func (s *Store) Add(ctx context.Context, session string, m Message) error {
	_, err := s.stmtInsert.ExecContext(ctx, session, int(m.Level), m.ExtraTags, m.Text, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("could not store flash message: %w", err)
	}
	return nil
}

// Info adds an info-level message with no extra tags.
func (s *Store) Info(ctx context.Context, session, text string) error {
	return s.Add(ctx, session, Message{Level: LevelInfo, Text: text})
}

// Success adds a success-level message with no extra tags.
func (s *Store) Success(ctx context.Context, session, text string) error {
	return s.Add(ctx, session, Message{Level: LevelSuccess, Text: text})
}

// Warning adds a warning-level message with no extra tags.
func (s *Store) Warning(ctx context.Context, session, text string) error {
	return s.Add(ctx, session, Message{Level: LevelWarning, Text: text})
}

// Error adds an error-level message with no extra tags.
func (s *Store) Error(ctx context.Context, session, text string) error {
	return s.Add(ctx, session, Message{Level: LevelError, Text: text})
}

// Pop returns all pending messages for the session, oldest first, and removes
// them so they are shown exactly once. An empty session yields a nil slice.
func (s *Store) Pop(ctx context.Context, session string) ([]Message, error) {
	rows, err := s.stmtSelect.QueryContext(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("could not query flash messages: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var msgs []Message
	for rows.Next() {
		var m Message
		var level int
		if err = rows.Scan(&level, &m.ExtraTags, &m.Text); err != nil {
			return nil, fmt.Errorf("could not scan flash message: %w", err)
		}
		m.Level = Level(level)
		msgs = append(msgs, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("could not read flash messages: %w", err)
	}

	if len(msgs) > 0 {
		if _, err = s.stmtDelete.ExecContext(ctx, session); err != nil {
			return nil, fmt.Errorf("could not clear flash messages: %w", err)
		}
	}

	return msgs, nil
}

// PurgeOlderThan deletes messages, across all sessions, older than the given
// age. Abandoned sessions never pop their messages, so something has to.
func (s *Store) PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := time.Now().Add(-age).UnixNano()
	res, err := s.stmtPurge.ExecContext(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("could not purge flash messages: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
