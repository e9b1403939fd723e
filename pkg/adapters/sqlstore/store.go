// Package sqlstore persists sessions in a SQL database through database/sql.
//
// The driver is registered by the caller: the relview binary links
// github.com/jackc/pgx/v5/stdlib ("pgx") and github.com/mattn/go-sqlite3 ("sqlite3").
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/relview/pkg/domain"
)

const defaultTable = "relview_sessions"

// Store implements ports.SessionStore on a single table (id, data, expires_at).
type Store struct {
	db     *sql.DB
	table  string
	ttl    time.Duration
	dollar bool
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithTable overrides the table name.
func WithTable(name string) Option {
	return func(s *Store) {
		s.table = name
	}
}

// WithTTL makes sessions expire ttl after their last save.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// New wraps an open database. driver selects the placeholder style:
// "pgx" and "postgres" use $n, everything else uses ?.
func New(db *sql.DB, driver string, opts ...Option) *Store {
	s := &Store{
		db:     db,
		table:  defaultTable,
		dollar: driver == "pgx" || driver == "postgres",
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open opens the database and creates the session table when missing.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*Store, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	s := New(db, driver, opts...)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// q rewrites ? placeholders for drivers that expect $n.
func (s *Store) q(query string) string {
	query = strings.ReplaceAll(query, "{table}", s.table)
	if !s.dollar {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Migrate creates the session table.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, s.q(`CREATE TABLE IF NOT EXISTS {table} (
		id TEXT PRIMARY KEY,
		data TEXT NOT NULL,
		expires_at BIGINT NOT NULL
	)`))
	if err != nil {
		return fmt.Errorf("failed to create session table: %w", err)
	}
	return nil
}

// expiry returns the unix expiry for a save made now; 0 means never.
func (s *Store) expiry() int64 {
	if s.ttl <= 0 {
		return 0
	}
	return s.now().Add(s.ttl).Unix()
}

// Save upserts the session document.
func (s *Store) Save(ctx context.Context, sessionID string, sess *domain.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	_, err = s.db.ExecContext(ctx, s.q(`INSERT INTO {table} (id, data, expires_at) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET data = excluded.data, expires_at = excluded.expires_at`),
		sessionID, string(data), s.expiry())
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load retrieves a session that has not expired.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	var (
		data      string
		expiresAt int64
	)
	err := s.db.QueryRowContext(ctx, s.q(`SELECT data, expires_at FROM {table} WHERE id = ?`), sessionID).
		Scan(&data, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if expiresAt != 0 && expiresAt <= s.now().Unix() {
		return nil, domain.ErrSessionNotFound
	}

	var sess domain.Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &sess, nil
}

// Delete removes the session row.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, s.q(`DELETE FROM {table} WHERE id = ?`), sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// List prunes expired rows and returns the remaining session IDs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := s.now().Unix()
	if _, err := s.db.ExecContext(ctx, s.q(`DELETE FROM {table} WHERE expires_at <> 0 AND expires_at <= ?`), now); err != nil {
		return nil, fmt.Errorf("failed to prune expired sessions: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, s.q(`SELECT id FROM {table} ORDER BY id`))
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
