package sqlite

import (
	"context"
	"database/sql"

	"ies4ops/internal/domain"
)

// journalTx groups the writes of one journal entry
type journalTx struct {
	tx *sql.Tx
}

func (t *journalTx) insertEntry(ctx context.Context, e *domain.JournalEntry) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO entries (id, at, action, database_code, equipment, record_id,
		                     data_file, backup_path, removed, type_changed, refreshed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.At.UnixMilli(), string(e.Action), e.Database, e.Equipment, e.RecordID,
		e.DataFile, e.BackupPath, e.Removed, e.TypeChanged, e.Refreshed)
	return err
}

func (t *journalTx) insertWarning(ctx context.Context, entryID string, position int, message string) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO warnings (entry_id, position, message) VALUES (?, ?, ?)
	`, entryID, position, message)
	return err
}

func (t *journalTx) commit() error {
	return t.tx.Commit()
}

func (t *journalTx) rollback() {
	_ = t.tx.Rollback()
}
