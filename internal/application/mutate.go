package application

import (
	"context"
	"fmt"

	"ies4ops/internal/domain"
)

// AddResult describes a completed add
type AddResult struct {
	Target
	Equipment  *domain.Equipment
	BackupPath string
	Upsert     domain.UpsertResult
	// Counts are the collection sizes re-read from the saved file
	Counts   map[string]int
	Refresh  RefreshReport
	Warnings []string
}

// RemoveResult describes a completed remove. NoOp is set when nothing
// matched; the file is then left untouched apart from the backup.
type RemoveResult struct {
	Target
	Equipment  *domain.Equipment
	BackupPath string
	Delete     domain.DeleteResult
	NoOp       bool
	Counts     map[string]int
	Refresh    RefreshReport
	Warnings   []string
}

// Add upserts a catalog entry into a database file
func (r *Runner) Add(ctx context.Context, equipmentKey, databaseCode string) (*AddResult, error) {
	eq, err := r.Equipment(equipmentKey)
	if err != nil {
		return nil, err
	}
	target, err := r.Resolve(databaseCode)
	if err != nil {
		return nil, err
	}

	log := r.log.With("op", "add", "equipment", eq.Key, "database", target.Database.Code)

	doc, backup, err := r.prepare(target)
	if err != nil {
		return nil, err
	}
	log.Info("backup created", "path", backup)

	record := eq.RecordFor(target.Database.Code)
	upsert := domain.Upsert(doc, eq.Collection, eq.TypeCollection, record, eq.TypeDefinition, eq.Matcher)
	log.Info("record reconciled", "id", upsert.ID, "replaced", upsert.Replaced, "type_added", upsert.TypeAdded)

	counts, warnings, err := r.commit(target, doc, eq.Collection)
	if err != nil {
		return nil, err
	}

	refresh := r.refreshAfterMutation(ctx, target.Database.Code)
	warnings = append(warnings, refresh.Warnings...)

	entry := &domain.JournalEntry{
		Action:      domain.ActionAdd,
		Database:    target.Database.Code,
		Equipment:   eq.Key,
		RecordID:    upsert.ID,
		DataFile:    target.DataFile,
		BackupPath:  backup,
		TypeChanged: upsert.TypeAdded,
		Refreshed:   refresh.Reloaded,
		Warnings:    warnings,
	}
	if w := r.journal(ctx, entry); w != "" {
		warnings = append(warnings, w)
	}

	return &AddResult{
		Target:     target,
		Equipment:  eq,
		BackupPath: backup,
		Upsert:     upsert,
		Counts:     counts,
		Refresh:    refresh,
		Warnings:   warnings,
	}, nil
}

// Remove deletes every record of a catalog entry's kind from a database
// file and prunes the type definition when no sibling remains
func (r *Runner) Remove(ctx context.Context, equipmentKey, databaseCode string) (*RemoveResult, error) {
	eq, err := r.Equipment(equipmentKey)
	if err != nil {
		return nil, err
	}
	target, err := r.Resolve(databaseCode)
	if err != nil {
		return nil, err
	}

	log := r.log.With("op", "remove", "equipment", eq.Key, "database", target.Database.Code)

	doc, backup, err := r.prepare(target)
	if err != nil {
		return nil, err
	}
	log.Info("backup created", "path", backup)

	deleted := domain.Delete(doc, eq.Collection, eq.TypeCollection, eq.Matcher)
	result := &RemoveResult{
		Target:     target,
		Equipment:  eq,
		BackupPath: backup,
		Delete:     deleted,
	}

	if deleted.Removed == 0 {
		log.Info("no matching records, file left unchanged")
		result.NoOp = true
		result.Counts = doc.Counts()
		return result, nil
	}
	log.Info("records removed", "count", deleted.Removed, "ids", deleted.RemovedIDs, "type_removed", deleted.TypeRemoved)

	counts, warnings, err := r.commit(target, doc, eq.Collection)
	if err != nil {
		return nil, err
	}

	refresh := r.refreshAfterMutation(ctx, target.Database.Code)
	warnings = append(warnings, refresh.Warnings...)

	entry := &domain.JournalEntry{
		Action:      domain.ActionRemove,
		Database:    target.Database.Code,
		Equipment:   eq.Key,
		DataFile:    target.DataFile,
		BackupPath:  backup,
		Removed:     deleted.Removed,
		TypeChanged: deleted.TypeRemoved,
		Refreshed:   refresh.Reloaded,
		Warnings:    warnings,
	}
	if len(deleted.RemovedIDs) > 0 {
		entry.RecordID = deleted.RemovedIDs[0]
	}
	if w := r.journal(ctx, entry); w != "" {
		warnings = append(warnings, w)
	}

	result.Counts = counts
	result.Refresh = refresh
	result.Warnings = warnings
	return result, nil
}

// prepare checks the file, backs it up and loads it. Nothing is written
// when the file is missing or unreadable.
func (r *Runner) prepare(target Target) (*domain.Document, string, error) {
	if _, err := r.deps.Store.Stat(target.DataFile); err != nil {
		return nil, "", fmt.Errorf("database %s: %w", target.Database.Code, err)
	}

	backup, err := r.deps.Store.Backup(target.DataFile)
	if err != nil {
		return nil, "", fmt.Errorf("failed to back up %s: %w", target.DataFile, err)
	}

	doc, err := r.deps.Store.Load(target.DataFile)
	if err != nil {
		return nil, backup, fmt.Errorf("database %s: %w", target.Database.Code, err)
	}

	return doc, backup, nil
}

// commit saves doc and re-reads the file to confirm the collection sizes
func (r *Runner) commit(target Target, doc *domain.Document, collections ...string) (map[string]int, []string, error) {
	if err := r.deps.Store.Save(target.DataFile, doc); err != nil {
		return nil, nil, fmt.Errorf("failed to save %s: %w", target.DataFile, err)
	}

	var warnings []string
	counts, err := r.deps.Store.Counts(target.DataFile)
	if err != nil {
		r.log.Warn("verification read failed", "path", target.DataFile, "error", err)
		return doc.Counts(), append(warnings, fmt.Sprintf("verify: %v", err)), nil
	}

	for _, collection := range collections {
		if want, got := len(doc.Collection(collection)), counts[collection]; want != got {
			msg := fmt.Sprintf("verify: expected %d %s in %s, found %d", want, collection, target.DataFile, got)
			r.log.Warn(msg)
			warnings = append(warnings, msg)
		}
	}

	return counts, warnings, nil
}
