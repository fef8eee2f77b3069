package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/modchat/modchat-server/internal/store"
)

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL DEFAULT 'user',
	banned        BOOLEAN NOT NULL DEFAULT 0,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS messages (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	author     TEXT NOT NULL,
	body       TEXT NOT NULL,
	recipient  TEXT,
	origin_ip  TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_messages_created ON messages(created_at DESC);
`

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, func(db *sql.DB) error {
		_, err := db.Exec(schema)
		return err
	})
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply a custom schema.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== UserStore implementation ====

// CreateUser creates a new user with hashed password.
func (s *SQLiteStore) CreateUser(ctx context.Context, username, passwordHash string, role store.Role) (*store.User, error) {
	query := `
		INSERT INTO users (username, password_hash, role)
		VALUES (?, ?, ?)
	`
	if role == "" {
		role = store.RoleUser
	}
	_, err := s.db.ExecContext(ctx, query, username, passwordHash, role)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return s.GetUserByUsername(ctx, username)
}

// GetUserByUsername retrieves a user by username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	query := `
		SELECT id, username, password_hash, role, banned, created_at
		FROM users
		WHERE username = ?
	`
	var user store.User
	err := s.db.QueryRowContext(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Role,
		&user.Banned,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}

	return &user, nil
}

// SetBanned marks or unmarks a user as banned.
func (s *SQLiteStore) SetBanned(ctx context.Context, username string, banned bool) error {
	query := `UPDATE users SET banned = ? WHERE username = ?`
	result, err := s.db.ExecContext(ctx, query, banned, username)
	if err != nil {
		return fmt.Errorf("update banned: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}

	return nil
}

// ==== MessageStore implementation ====

// AppendMessage persists a message and fills in its ID.
func (s *SQLiteStore) AppendMessage(ctx context.Context, msg *store.Message) error {
	query := `
		INSERT INTO messages (author, body, recipient, origin_ip, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, msg.Author, msg.Body, msg.Recipient, msg.OriginIP, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	msg.ID = id

	return nil
}

// RecentMessages returns up to limit most recent broadcast messages, oldest first.
func (s *SQLiteStore) RecentMessages(ctx context.Context, limit int) ([]*store.Message, error) {
	query := `
		SELECT id, author, body, recipient, origin_ip, created_at
		FROM messages
		WHERE recipient IS NULL
		ORDER BY id DESC
		LIMIT ?
	`
	return s.queryMessages(ctx, query, limit)
}

// RecentAuditMessages returns up to limit most recent messages of any kind, oldest first.
func (s *SQLiteStore) RecentAuditMessages(ctx context.Context, limit int) ([]*store.Message, error) {
	query := `
		SELECT id, author, body, recipient, origin_ip, created_at
		FROM messages
		ORDER BY id DESC
		LIMIT ?
	`
	return s.queryMessages(ctx, query, limit)
}

func (s *SQLiteStore) queryMessages(ctx context.Context, query string, limit int) ([]*store.Message, error) {
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []*store.Message
	for rows.Next() {
		var msg store.Message
		var recipient sql.NullString
		if err := rows.Scan(&msg.ID, &msg.Author, &msg.Body, &recipient, &msg.OriginIP, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if recipient.Valid {
			msg.Recipient = &recipient.String
		}
		messages = append(messages, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	// Rows come back newest first; replay wants oldest first.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}
