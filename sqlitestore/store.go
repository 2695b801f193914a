package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/jacentio/tether/store"
)

// Store is a store.Store backed by a SQLite table.
type Store struct {
	*store.Events

	db     *sql.DB
	config Config

	hasSQL    string
	countSQL  string
	selectSQL string
	upsertSQL string
	deleteSQL string
}

// Open creates or opens the database at config.Path and ensures the record
// table exists.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode
//   - 5-second busy timeout for lock contention
func Open(config Config) (*Store, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", config.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	// SQLite allows a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	schema := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		record_key TEXT PRIMARY KEY,
		body       TEXT NOT NULL
	)`, config.Table)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &Store{
		Events:    store.NewEvents(),
		db:        db,
		config:    config,
		hasSQL:    fmt.Sprintf("SELECT 1 FROM %s WHERE record_key = ?", config.Table),
		countSQL:  fmt.Sprintf("SELECT COUNT(*) FROM %s", config.Table),
		selectSQL: fmt.Sprintf("SELECT body FROM %s WHERE record_key = ?", config.Table),
		upsertSQL: fmt.Sprintf(`INSERT INTO %s (record_key, body) VALUES (?, ?)
			ON CONFLICT(record_key) DO UPDATE SET body = excluded.body`, config.Table),
		deleteSQL: fmt.Sprintf("DELETE FROM %s WHERE record_key = ?", config.Table),
	}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// PrimaryKey returns the name of the primary-key field.
func (s *Store) PrimaryKey() string {
	return s.config.PrimaryKey
}

// Config returns the effective configuration.
func (s *Store) Config() Config {
	return s.config
}

// Has reports whether a record exists for key.
func (s *Store) Has(ctx context.Context, key string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, s.hasSQL, key).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query record: %w", err)
	}
	return true, nil
}

// Get returns the record for key.
func (s *Store) Get(ctx context.Context, key string) (store.Record, error) {
	rec, err := s.load(ctx, s.db, key)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("get %q: %w", key, store.ErrNotFound)
	}
	return rec, nil
}

// Set merges patch into the record for key, creating it if absent.
func (s *Store) Set(ctx context.Context, key string, patch store.Record) error {
	if key == "" {
		return store.ErrInvalidKey
	}
	if err := s.merge(ctx, key, patch); err != nil {
		return err
	}
	return s.Emit(store.EventModified, store.Change{Key: key, Value: patch.Clone()})
}

// Put merges record into the record named by its primary-key field.
func (s *Store) Put(ctx context.Context, record store.Record) error {
	key, err := store.KeyOf(record, s.config.PrimaryKey)
	if err != nil {
		return err
	}
	if err := s.merge(ctx, key, record); err != nil {
		return err
	}
	return s.Emit(store.EventModified, store.Change{Key: key, Value: record.Clone()})
}

// Remove deletes the record for key.
func (s *Store) Remove(ctx context.Context, key string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	last, err := s.load(ctx, tx, key)
	if err != nil {
		return err
	}
	if last == nil {
		return fmt.Errorf("remove %q: %w", key, store.ErrNotFound)
	}
	if _, err := tx.ExecContext(ctx, s.deleteSQL, key); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return s.Emit(store.EventRemoved, store.Change{Key: key, Value: last})
}

// Len returns the number of stored records.
func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.countSQL).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// merge reads, patches and writes back the record in one transaction.
// The stored primary-key field always equals key.
func (s *Store) merge(ctx context.Context, key string, patch store.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	rec, err := s.load(ctx, tx, key)
	if err != nil {
		return err
	}
	if rec == nil {
		rec = make(store.Record, len(patch)+1)
	}
	rec.Merge(patch)
	rec[s.config.PrimaryKey] = key

	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record %q: %w", key, err)
	}
	if _, err := tx.ExecContext(ctx, s.upsertSQL, key, string(body)); err != nil {
		return fmt.Errorf("upsert record: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// load returns the decoded record for key, or nil when it is absent.
func (s *Store) load(ctx context.Context, q querier, key string) (store.Record, error) {
	var body string
	err := q.QueryRowContext(ctx, s.selectSQL, key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query record: %w", err)
	}

	rec := store.Record{}
	if err := json.Unmarshal([]byte(body), &rec); err != nil {
		return nil, fmt.Errorf("unmarshal record %q: %w", key, err)
	}
	return rec, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}
