// Package sqlstore persists the root document in a single SQL table, using the
// pure-Go SQLite driver for local installs or pgx for a shared Postgres.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver

	"github.com/lucap2714-svg/fisiostudio/internal/repository"
)

var _ repository.DocumentBackend = (*Store)(nil)

const (
	defaultSQLitePath  = "fisiostudio.db"
	defaultPostgresDSN = "postgres://localhost/fisiostudio?sslmode=disable"
)

var sqlOpen = sql.Open

type dialect struct {
	driver string
	ddl    string
	get    string
	upsert string
}

var (
	sqliteDialect = dialect{
		driver: "sqlite",
		ddl: `CREATE TABLE IF NOT EXISTS documents (
		key TEXT PRIMARY KEY,
		payload BLOB NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
		get:    `SELECT payload FROM documents WHERE key = ?`,
		upsert: `INSERT INTO documents(key,payload,updated_at) VALUES(?,?,CURRENT_TIMESTAMP) ON CONFLICT(key) DO UPDATE SET payload=excluded.payload, updated_at=excluded.updated_at`,
	}
	postgresDialect = dialect{
		driver: "pgx",
		ddl: `CREATE TABLE IF NOT EXISTS documents (
		key TEXT PRIMARY KEY,
		payload BYTEA NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
		get:    `SELECT payload FROM documents WHERE key = $1`,
		upsert: `INSERT INTO documents(key,payload,updated_at) VALUES($1,$2,now()) ON CONFLICT(key) DO UPDATE SET payload=excluded.payload, updated_at=excluded.updated_at`,
	}
)

// Store keeps one row per document key. Each Put runs in its own transaction.
type Store struct {
	dialect dialect
	dsn     string
	mu      sync.Mutex
	db      *sql.DB
}

// NewSQLite returns a store backed by the SQLite file at path.
func NewSQLite(path string) *Store {
	if path == "" {
		path = defaultSQLitePath
	}
	return &Store{dialect: sqliteDialect, dsn: path}
}

// NewPostgres returns a store backed by the Postgres database at dsn.
func NewPostgres(dsn string) *Store {
	if dsn == "" {
		dsn = defaultPostgresDSN
	}
	return &Store{dialect: postgresDialect, dsn: dsn}
}

// Open connects and ensures the documents table exists.
func (s *Store) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return nil
	}
	if s.dialect.driver == sqliteDialect.driver {
		if err := os.MkdirAll(filepath.Dir(s.dsn), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sqlOpen(s.dialect.driver, s.dsn)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.dialect.driver, err)
	}
	if s.dialect.driver == sqliteDialect.driver {
		// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping %s: %w", s.dialect.driver, err)
	}
	if _, err := db.ExecContext(ctx, s.dialect.ddl); err != nil {
		_ = db.Close()
		return fmt.Errorf("create documents table: %w", err)
	}
	s.db = db
	return nil
}

func (s *Store) conn() (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, repository.ErrClosed
	}
	return s.db, nil
}

// Get returns the payload stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	var payload []byte
	if err := db.QueryRowContext(ctx, s.dialect.get, key).Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("select document %s: %w", key, err)
	}
	return payload, nil
}

// Put upserts the payload under key inside a transaction.
func (s *Store) Put(ctx context.Context, key string, payload []byte) (retErr error) {
	db, err := s.conn()
	if err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, s.dialect.upsert, key, payload); err != nil {
		return fmt.Errorf("upsert document %s: %w", key, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close releases the connection pool. The store may be reopened.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db
}
