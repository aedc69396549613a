package storage

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	writeDB *sql.DB // Single connection for writes
	readDB  *sql.DB // Pool of connections for reads
	dbPath  string
	now     func() time.Time
}

// DefaultPath returns ~/.pixel-chat/conversations.db.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".pixel-chat", "conversations.db"), nil
}

// NewSQLiteStore opens (creating if needed) the conversation database.
// Any failure is reported as ErrStorageUnavailable.
func NewSQLiteStore(cfg Config) (*SQLiteStore, error) {
	if cfg.Path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
		cfg.Path = p
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
		return nil, fmt.Errorf("%w: failed to create database directory: %v", ErrStorageUnavailable, err)
	}

	dsn := buildDSN(cfg)

	writeDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open write database: %v", ErrStorageUnavailable, err)
	}
	writeDB.SetMaxOpenConns(1) // Only one write connection

	// Not opened read-only: the file may not exist until the write
	// connection has created the schema.
	readDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("%w: failed to open read database: %v", ErrStorageUnavailable, err)
	}
	readDB.SetMaxOpenConns(cfg.MaxReadConns)
	readDB.SetMaxIdleConns(cfg.MaxReadConns)
	readDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	store := &SQLiteStore{
		writeDB: writeDB,
		readDB:  readDB,
		dbPath:  cfg.Path,
		now:     time.Now,
	}

	if err := store.initializeDB(cfg); err != nil {
		store.Close()
		return nil, fmt.Errorf("%w: failed to initialize database: %v", ErrStorageUnavailable, err)
	}

	if err := store.createTables(); err != nil {
		store.Close()
		return nil, fmt.Errorf("%w: failed to create tables: %v", ErrStorageUnavailable, err)
	}

	return store, nil
}

// buildDSN sets the per-connection pragmas so every pooled connection gets
// them, not only the first one.
func buildDSN(cfg Config) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", cfg.BusyTimeout.Milliseconds()))
	return "file:" + cfg.Path + "?" + q.Encode()
}

func (s *SQLiteStore) initializeDB(cfg Config) error {
	for _, pragma := range cfg.pragmas() {
		if _, err := s.writeDB.Exec(pragma); err != nil {
			return fmt.Errorf("failed to set %s: %w", pragma, err)
		}
	}
	return nil
}

func (s *SQLiteStore) createTables() error {
	queries := []string{
		queryCreateConversationsTable,
		queryCreateMessagesTable,
		queryCreateIndexMessagesConversation,
		queryCreateIndexConversationsCreated,
		queryCreateIndexConversationsUpdated,
		queryCreateIndexConversationsSession,
		queryCreateMessagesFTS,
		queryCreateMessagesInsertTrigger,
		queryCreateMessagesDeleteTrigger,
	}

	for _, query := range queries {
		if _, err := s.writeDB.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}

	return nil
}

// Path returns the database file location.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// SetClock replaces the time source. Intended for tests.
func (s *SQLiteStore) SetClock(now func() time.Time) {
	s.now = now
}

func (s *SQLiteStore) Close() error {
	var errs []error

	// Run PRAGMA optimize before closing for better long-term performance
	if _, err := s.writeDB.Exec("PRAGMA optimize"); err != nil {
		errs = append(errs, fmt.Errorf("failed to optimize: %w", err))
	}

	if err := s.readDB.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close read db: %w", err))
	}

	if err := s.writeDB.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close write db: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}

	return nil
}
