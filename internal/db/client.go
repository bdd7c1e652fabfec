package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// glebarez/sqlite registers a pure Go SQLite driver under the name "sqlite"
	// (modernc.org/sqlite internally), so no cgo is required.
	_ "github.com/glebarez/sqlite"
)

// DBClient defines the interface for our database operations. This keeps the
// revision-log code independent of the concrete SQLite client.
type DBClient interface {
	// GetDB returns the raw *sql.DB instance.
	GetDB() *sql.DB
	// Close closes the database connection.
	Close() error
	// Ping checks the database connection.
	Ping(ctx context.Context) error
}

// SQLiteClient implements DBClient for SQLite databases.
type SQLiteClient struct {
	db       *sql.DB
	filePath string
}

// NewSQLiteClient creates and returns a new SQLite database client.
// dbName is used to construct the file path (e.g., "revisions.db").
func NewSQLiteClient(dataDir, dbName string) (*SQLiteClient, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("data directory must be specified for SQLite database")
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dataDir, err)
	}

	dbPath := filepath.Join(dataDir, dbName)

	// WAL mode for better concurrency; NORMAL synchronous is adequate since
	// the revision log is append-mostly metadata.
	connStr := fmt.Sprintf("file:%s?_journal=WAL&_timeout=5000&_foreign_keys=on&_synchronous=NORMAL&cache=shared&mode=rwc", dbPath)
	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database %s: %w", dbPath, err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		// Some drivers defer WAL activation to the first transaction; not fatal.
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &SQLiteClient{
		db:       db,
		filePath: dbPath,
	}, nil
}

// GetDB returns the raw *sql.DB instance.
func (s *SQLiteClient) GetDB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *SQLiteClient) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteClient) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Path returns the on-disk location of the database file.
func (s *SQLiteClient) Path() string {
	return s.filePath
}
