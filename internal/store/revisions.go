package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/achildrenmile/oeradio-mcp/internal/db"
)

// RevisionDBFileName is the SQLite file holding the rebuild history.
const RevisionDBFileName = "revisions.db"

const revisionTableName = "rebuild_revisions"

// Revision records one rebuild attempt: what was built, how validation went
// and whether the result was promoted to the serving document.
type Revision struct {
	ID           int64     `json:"id"`
	Version      string    `json:"version"`
	Source       string    `json:"source"`
	BuiltAt      time.Time `json:"built_at"`
	RecordCount  int       `json:"record_count"`
	ErrorCount   int       `json:"error_count"`
	WarningCount int       `json:"warning_count"`
	Promoted     bool      `json:"promoted"`
}

// RevisionLog persists rebuild history in SQLite.
type RevisionLog struct {
	dbClient db.DBClient
}

// NewRevisionLog creates the log and its table if needed.
func NewRevisionLog(dbClient db.DBClient) (*RevisionLog, error) {
	if dbClient == nil {
		return nil, fmt.Errorf("dbClient cannot be nil")
	}
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			version TEXT NOT NULL,
			source TEXT NOT NULL,
			built_at TEXT NOT NULL,
			record_count INTEGER NOT NULL,
			error_count INTEGER NOT NULL,
			warning_count INTEGER NOT NULL,
			promoted INTEGER NOT NULL
		);
	`, revisionTableName)
	if _, err := dbClient.GetDB().Exec(query); err != nil {
		return nil, fmt.Errorf("failed to create revision table: %w", err)
	}
	return &RevisionLog{dbClient: dbClient}, nil
}

// Append records one rebuild attempt.
func (l *RevisionLog) Append(ctx context.Context, rev Revision) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (version, source, built_at, record_count, error_count, warning_count, promoted)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, revisionTableName)
	promoted := 0
	if rev.Promoted {
		promoted = 1
	}
	_, err := l.dbClient.GetDB().ExecContext(ctx, query,
		rev.Version, rev.Source, rev.BuiltAt.UTC().Format(time.RFC3339),
		rev.RecordCount, rev.ErrorCount, rev.WarningCount, promoted)
	if err != nil {
		return fmt.Errorf("failed to insert revision: %w", err)
	}
	return nil
}

// LatestPromoted returns the most recent promoted revision, or nil if no
// rebuild has ever been promoted.
func (l *RevisionLog) LatestPromoted(ctx context.Context) (*Revision, error) {
	query := fmt.Sprintf(`
		SELECT id, version, source, built_at, record_count, error_count, warning_count, promoted
		FROM %s WHERE promoted = 1 ORDER BY id DESC LIMIT 1
	`, revisionTableName)
	return l.scanOne(ctx, query)
}

// Latest returns the most recent rebuild attempt, promoted or not.
func (l *RevisionLog) Latest(ctx context.Context) (*Revision, error) {
	query := fmt.Sprintf(`
		SELECT id, version, source, built_at, record_count, error_count, warning_count, promoted
		FROM %s ORDER BY id DESC LIMIT 1
	`, revisionTableName)
	return l.scanOne(ctx, query)
}

func (l *RevisionLog) scanOne(ctx context.Context, query string) (*Revision, error) {
	var rev Revision
	var builtAt string
	var promoted int
	err := l.dbClient.GetDB().QueryRowContext(ctx, query).Scan(
		&rev.ID, &rev.Version, &rev.Source, &builtAt,
		&rev.RecordCount, &rev.ErrorCount, &rev.WarningCount, &promoted)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query revision: %w", err)
	}
	rev.Promoted = promoted == 1
	rev.BuiltAt, err = time.Parse(time.RFC3339, builtAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse revision built_at %q: %w", builtAt, err)
	}
	return &rev, nil
}
