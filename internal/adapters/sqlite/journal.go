package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"ies4ops/internal/domain"
	"ies4ops/internal/ports"

	_ "modernc.org/sqlite"
)

const schemaVersion = "1"

// pragmas apply to every pooled connection, not just the first one
const pragmas = "?_pragma=journal_mode(WAL)" +
	"&_pragma=synchronous(NORMAL)" +
	"&_pragma=busy_timeout(5000)" +
	"&_pragma=foreign_keys(1)"

// Journal implements ports.Journal using SQLite
type Journal struct {
	db     *sql.DB
	dbPath string
	now    func() time.Time
}

// Ensure Journal implements ports.Journal
var _ ports.Journal = (*Journal)(nil)

// Open opens (creating when needed) the journal database at path
func Open(path string) (*Journal, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+pragmas)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS entries (
			id TEXT PRIMARY KEY,
			at INTEGER NOT NULL,
			action TEXT NOT NULL,
			database_code TEXT NOT NULL,
			equipment TEXT NOT NULL,
			record_id TEXT NOT NULL DEFAULT '',
			data_file TEXT NOT NULL,
			backup_path TEXT NOT NULL DEFAULT '',
			removed INTEGER NOT NULL DEFAULT 0,
			type_changed INTEGER NOT NULL DEFAULT 0,
			refreshed INTEGER NOT NULL DEFAULT 0
		);
		CREATE TABLE IF NOT EXISTS warnings (
			entry_id TEXT NOT NULL REFERENCES entries(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			message TEXT NOT NULL,
			PRIMARY KEY (entry_id, position)
		);
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_entries_at ON entries(at);
		CREATE INDEX IF NOT EXISTS idx_entries_database ON entries(database_code, at);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to setup journal: %w", err)
	}

	if _, err := db.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)`, schemaVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to update metadata: %w", err)
	}

	return &Journal{db: db, dbPath: path, now: time.Now}, nil
}

// Path returns the database file
func (j *Journal) Path() string {
	return j.dbPath
}

// Close closes the database connection
func (j *Journal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

// Record stores an entry and its warnings in one transaction
func (j *Journal) Record(ctx context.Context, entry *domain.JournalEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.At.IsZero() {
		entry.At = j.now()
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin journal transaction: %w", err)
	}
	jtx := &journalTx{tx: tx}

	if err := jtx.insertEntry(ctx, entry); err != nil {
		jtx.rollback()
		return fmt.Errorf("failed to record %s: %w", entry.ID, err)
	}
	for i, w := range entry.Warnings {
		if err := jtx.insertWarning(ctx, entry.ID, i, w); err != nil {
			jtx.rollback()
			return fmt.Errorf("failed to record warning for %s: %w", entry.ID, err)
		}
	}

	return jtx.commit()
}

// Recent returns up to limit entries, newest first
func (j *Journal) Recent(ctx context.Context, limit int, database string) ([]domain.JournalEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT id, at, action, database_code, equipment, record_id,
		       data_file, backup_path, removed, type_changed, refreshed
		FROM entries
		WHERE ? = '' OR database_code = ? COLLATE NOCASE
		ORDER BY at DESC, rowid DESC
		LIMIT ?
	`, database, database, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.JournalEntry
	for rows.Next() {
		var (
			e                      domain.JournalEntry
			at                     int64
			action                 string
			typeChanged, refreshed bool
		)
		if err := rows.Scan(&e.ID, &at, &action, &e.Database, &e.Equipment, &e.RecordID,
			&e.DataFile, &e.BackupPath, &e.Removed, &typeChanged, &refreshed); err != nil {
			return nil, err
		}
		e.At = time.UnixMilli(at).UTC()
		e.Action = domain.Action(action)
		e.TypeChanged = typeChanged
		e.Refreshed = refreshed
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range entries {
		warnings, err := j.warnings(ctx, entries[i].ID)
		if err != nil {
			return nil, err
		}
		entries[i].Warnings = warnings
	}

	return entries, nil
}

func (j *Journal) warnings(ctx context.Context, entryID string) ([]string, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT message FROM warnings WHERE entry_id = ? ORDER BY position
	`, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var msg string
		if err := rows.Scan(&msg); err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}
