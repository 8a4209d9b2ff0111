// Package store persists received emails in a relational database.
//
// The table is append-only: rows are inserted by the inbound handler and read
// back newest first by the HTTP API. There is no update or delete path.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/shineum/mailroom-lite/internal/email"
)

// RecentLimit is the fixed number of rows returned to the list API.
const RecentLimit = 100

var schemas = map[string][]string{
	"sqlite3": {
		`CREATE TABLE IF NOT EXISTS emails (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sender TEXT NOT NULL,
			recipient TEXT NOT NULL,
			subject TEXT NOT NULL,
			body TEXT NOT NULL DEFAULT '',
			html_body TEXT NOT NULL DEFAULT '',
			received_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_emails_received_at ON emails (received_at)`,
	},
	"postgres": {
		`CREATE TABLE IF NOT EXISTS emails (
			id BIGSERIAL PRIMARY KEY,
			sender TEXT NOT NULL,
			recipient TEXT NOT NULL,
			subject TEXT NOT NULL,
			body TEXT NOT NULL DEFAULT '',
			html_body TEXT NOT NULL DEFAULT '',
			received_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_emails_received_at ON emails (received_at)`,
	},
}

const insertQuery = `INSERT INTO emails (sender, recipient, subject, body, html_body, received_at)
VALUES (?, ?, ?, ?, ?, ?) RETURNING id`

const recentQuery = `SELECT id, sender, subject, body, received_at
FROM emails ORDER BY received_at DESC, id DESC LIMIT ?`

// Store is the SQL-backed email store. It is safe for concurrent use.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to the database identified by driver and dsn and creates
// the schema if needed.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}

	if driver == "sqlite3" {
		// SQLite serializes writers; a single connection also keeps
		// ":memory:" databases alive across queries.
		db.SetMaxOpenConns(1)
	}

	s, err := New(ctx, db, driver)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing connection pool and migrates the schema.
func New(ctx context.Context, db *sql.DB, driver string) (*Store, error) {
	stmts, ok := schemas[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("failed to migrate schema: %w", err)
		}
	}

	return &Store{db: db, driver: driver}, nil
}

// Insert appends rec and returns the identifier assigned by the database.
func (s *Store) Insert(ctx context.Context, rec *email.Record) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, s.rebind(insertQuery),
		rec.Sender,
		rec.Recipient,
		rec.Subject,
		rec.Body,
		rec.HTMLBody,
		rec.ReceivedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert email: %w", err)
	}
	rec.ID = id
	return id, nil
}

// Recent returns up to limit rows, newest first. The result is never nil.
func (s *Store) Recent(ctx context.Context, limit int) ([]email.Summary, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(recentQuery), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query emails: %w", err)
	}
	defer rows.Close()

	emails := make([]email.Summary, 0)
	for rows.Next() {
		var e email.Summary
		if err := rows.Scan(&e.ID, &e.Sender, &e.Subject, &e.Body, &e.ReceivedAt); err != nil {
			return nil, fmt.Errorf("failed to scan email: %w", err)
		}
		emails = append(emails, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read emails: %w", err)
	}

	return emails, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders to $N for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
