package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"ies4ops/internal/domain"
)

// DefaultConsolidationTarget is the database written by Consolidate when
// none is named
const DefaultConsolidationTarget = "combined"

// ConsolidateResult describes a completed consolidation
type ConsolidateResult struct {
	Target
	// Sources are the databases that were merged, in merge order
	Sources    []string
	Skipped    []string
	BackupPath string
	Merge      domain.ConsolidateResult
	Counts     map[string]int
	Refresh    RefreshReport
	Warnings   []string
}

// Total is the number of records written
func (c *ConsolidateResult) Total() int {
	n := 0
	for _, v := range c.Counts {
		n += v
	}
	return n
}

// Consolidate merges several database files into one target file. With
// no sources every other registered database is merged. Missing source
// files are skipped with a warning; unreadable ones abort before
// anything is written. An existing target is backed up first.
func (r *Runner) Consolidate(ctx context.Context, sourceCodes []string, targetCode string) (*ConsolidateResult, error) {
	if strings.TrimSpace(targetCode) == "" {
		targetCode = DefaultConsolidationTarget
	}
	target, err := r.Resolve(targetCode)
	if err != nil {
		return nil, err
	}

	sources, err := r.consolidationSources(sourceCodes, target)
	if err != nil {
		return nil, err
	}

	log := r.log.With("op", "consolidate", "database", target.Database.Code)

	docs := make([]*domain.Document, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(summaryConcurrency)
	for i, src := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			doc, err := r.deps.Store.Load(src.DataFile)
			if errors.Is(err, ErrFileNotFound) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("database %s: %w", src.Database.Code, err)
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &ConsolidateResult{Target: target}
	var inputs []domain.Source
	for i, src := range sources {
		if docs[i] == nil {
			log.Warn("source file missing, skipped", "source", src.Database.Code, "path", src.DataFile)
			result.Skipped = append(result.Skipped, src.Database.Code)
			result.Warnings = append(result.Warnings, fmt.Sprintf("skipped %s: %s not found", src.Database.Code, src.Database.DataFile))
			continue
		}
		result.Sources = append(result.Sources, src.Database.Code)
		inputs = append(inputs, domain.Source{Name: src.Database.DataFile, Doc: docs[i]})
	}
	if len(inputs) == 0 {
		return nil, &ValidationError{Field: "sources", Message: "none of the source files exist"}
	}

	if _, err := r.deps.Store.Stat(target.DataFile); err == nil {
		backup, err := r.deps.Store.Backup(target.DataFile)
		if err != nil {
			return nil, fmt.Errorf("failed to back up %s: %w", target.DataFile, err)
		}
		result.BackupPath = backup
		log.Info("backup created", "path", backup)
	} else if !errors.Is(err, ErrFileNotFound) {
		return nil, fmt.Errorf("database %s: %w", target.Database.Code, err)
	}

	result.Merge = domain.Consolidate(inputs, time.Now())
	log.Info("files merged",
		"sources", len(inputs),
		"duplicates", result.Merge.Duplicates,
		"upgraded", result.Merge.Upgraded,
		"missing_id", result.Merge.MissingID,
	)

	collections := make([]string, 0, len(result.Merge.Counts))
	for key := range result.Merge.Counts {
		collections = append(collections, key)
	}
	sort.Strings(collections)

	counts, warnings, err := r.commit(target, result.Merge.Document, collections...)
	if err != nil {
		return nil, err
	}
	result.Counts = counts
	result.Warnings = append(result.Warnings, warnings...)

	result.Refresh = r.refreshAfterMutation(ctx, target.Database.Code)
	result.Warnings = append(result.Warnings, result.Refresh.Warnings...)

	entry := &domain.JournalEntry{
		Action:     domain.ActionConsolidate,
		Database:   target.Database.Code,
		DataFile:   target.DataFile,
		BackupPath: result.BackupPath,
		Refreshed:  result.Refresh.Reloaded,
		Warnings:   result.Warnings,
	}
	if w := r.journal(ctx, entry); w != "" {
		result.Warnings = append(result.Warnings, w)
	}

	return result, nil
}

// consolidationSources resolves the source codes, defaulting to every
// registered database other than the target. Duplicates are dropped.
func (r *Runner) consolidationSources(codes []string, target Target) ([]Target, error) {
	if len(codes) == 0 {
		for _, db := range r.deps.Registry.All() {
			if db.DataFile != target.Database.DataFile {
				codes = append(codes, db.Code)
			}
		}
	}

	var sources []Target
	seen := make(map[string]bool)
	for _, code := range codes {
		src, err := r.Resolve(code)
		if err != nil {
			return nil, err
		}
		if src.DataFile == target.DataFile {
			return nil, &ValidationError{Field: "sources", Message: fmt.Sprintf("%s is the consolidation target", src.Database.Code)}
		}
		if seen[src.DataFile] {
			continue
		}
		seen[src.DataFile] = true
		sources = append(sources, src)
	}
	if len(sources) == 0 {
		return nil, &ValidationError{Field: "sources", Message: "no databases to consolidate"}
	}
	return sources, nil
}
