// Package sqlite persists visitor namespaces in a SQLite database through sqlx
// and the pure Go modernc driver. The schema is managed with goose migrations.
package sqlite

import (
	"context"
	"embed"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/goliatone/go-grantforms/pkg/storage"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// goose keeps its base filesystem and dialect in package globals.
var migrateMu sync.Mutex

// Store is a storage.Store backed by a single SQLite connection.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

var _ storage.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now as the source of entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open connects to the database at path, enabling WAL mode, and applies all
// pending migrations. Use ":memory:" for a throwaway database.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sqlx.Connect("sqlite", fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path))
	if err != nil {
		return nil, fmt.Errorf("storage/sqlite: connect: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

func migrate(db *sqlx.DB) error {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(string(goose.DialectSQLite3)); err != nil {
		return fmt.Errorf("storage/sqlite: set dialect: %w", err)
	}
	if err := goose.Up(db.DB, "migrations"); err != nil {
		return fmt.Errorf("storage/sqlite: migrate: %w", err)
	}
	return nil
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, namespace, key string) (string, bool, error) {
	var value string
	err := s.db.GetContext(ctx, &value, `SELECT value FROM entries WHERE namespace = ? AND key = ?`, namespace, key)
	if err != nil {
		if isNoRows(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("storage/sqlite: get %s: %w", key, err)
	}
	return value, true, nil
}

const upsertEntry = `
INSERT INTO entries (namespace, key, value, updated_at)
VALUES (:namespace, :key, :value, :updated_at)
ON CONFLICT (namespace, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

type entryRow struct {
	Namespace string    `db:"namespace"`
	Key       string    `db:"key"`
	Value     string    `db:"value"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Set upserts value under key.
func (s *Store) Set(ctx context.Context, namespace, key, value string) error {
	row := entryRow{Namespace: namespace, Key: key, Value: value, UpdatedAt: s.now().UTC()}
	if _, err := s.db.NamedExecContext(ctx, upsertEntry, row); err != nil {
		return fmt.Errorf("storage/sqlite: upsert %s: %w", key, err)
	}
	return nil
}

// SetMany upserts every entry inside one transaction.
func (s *Store) SetMany(ctx context.Context, namespace string, entries map[string]string) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage/sqlite: begin: %w", err)
	}
	now := s.now().UTC()
	for key, value := range entries {
		row := entryRow{Namespace: namespace, Key: key, Value: value, UpdatedAt: now}
		if _, err := tx.NamedExecContext(ctx, upsertEntry, row); err != nil {
			tx.Rollback()
			return fmt.Errorf("storage/sqlite: upsert %s: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage/sqlite: commit: %w", err)
	}
	return nil
}

// Delete removes the given keys.
func (s *Store) Delete(ctx context.Context, namespace string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM entries WHERE namespace = ? AND key IN (?)`, namespace, keys)
	if err != nil {
		return fmt.Errorf("storage/sqlite: build delete: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("storage/sqlite: delete: %w", err)
	}
	return nil
}

// List returns every entry whose key starts with prefix.
func (s *Store) List(ctx context.Context, namespace, prefix string) (map[string]string, error) {
	var rows []entryRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT namespace, key, value, updated_at FROM entries WHERE namespace = ? AND key LIKE ? ESCAPE '\'`,
		namespace, escapeLike(prefix)+"%")
	if err != nil {
		return nil, fmt.Errorf("storage/sqlite: list: %w", err)
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out, nil
}

const pruneNamespaces = `
DELETE FROM entries WHERE namespace IN (
	SELECT namespace FROM entries GROUP BY namespace HAVING MAX(updated_at) < ?
)`

// Prune removes every namespace whose newest entry predates cutoff and
// returns how many entries were deleted. A namespace with any recent write is
// kept whole.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, pruneNamespaces, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("storage/sqlite: prune: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("storage/sqlite: prune rows: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("storage/sqlite: close: %w", err)
	}
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
