package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ies4ops/internal/ports"
)

// RefreshReport records how the companion service took a mutation. Every
// failure is a warning; the file change stands regardless.
type RefreshReport struct {
	Attempted bool
	Reachable bool
	Reloaded  bool
	Analyzed  bool
	// EntityCounts is the service's tally after the reload
	EntityCounts map[string]int
	NodeCount    int
	EdgeCount    int
	// DelayedScheduled is set when a second reload was queued
	DelayedScheduled bool
	Warnings         []string
}

// refreshAfterMutation pings the service, reloads the database,
// re-runs the analysis and queues a delayed second reload
func (r *Runner) refreshAfterMutation(ctx context.Context, database string) RefreshReport {
	report := r.refresh(ctx, database)
	if report.Reachable && r.opts.RefreshDelay > 0 {
		r.scheduleDelayedReload(ctx, database)
		report.DelayedScheduled = true
	}
	return report
}

func (r *Runner) refresh(ctx context.Context, database string) RefreshReport {
	var report RefreshReport
	if r.deps.Companion == nil {
		return report
	}
	report.Attempted = true
	log := r.log.With("database", database)

	if err := r.deps.Companion.Ping(ctx); err != nil {
		log.Warn("analysis service not reachable", "error", err)
		report.Warnings = append(report.Warnings, fmt.Sprintf("analysis service not reachable: %v", err))
		return report
	}
	report.Reachable = true

	loaded, err := r.reload(ctx, database)
	if err != nil {
		log.Warn("reload failed", "error", err)
		report.Warnings = append(report.Warnings, fmt.Sprintf("reload failed: %v", err))
	} else {
		report.Reloaded = true
		report.EntityCounts = loaded.EntityCounts
		log.Info("analysis service reloaded database", "message", loaded.Message)
	}

	analyzed, err := r.deps.Companion.Analyze(ctx, ports.AnalyzeRequest{
		Database:    database,
		Layout:      "spring",
		ShowLabels:  true,
		Filters:     map[string]any{},
		ForceReload: true,
	})
	if err != nil {
		log.Warn("analysis refresh failed", "error", err)
		report.Warnings = append(report.Warnings, fmt.Sprintf("analysis refresh failed: %v", err))
	} else {
		report.Analyzed = true
		report.NodeCount = analyzed.NodeCount
		report.EdgeCount = analyzed.EdgeCount
		log.Info("analysis refreshed", "nodes", analyzed.NodeCount, "edges", analyzed.EdgeCount)
	}

	return report
}

// reload asks the service to re-read database from disk. Services without
// load_database get force_reload_database instead.
func (r *Runner) reload(ctx context.Context, database string) (*ports.LoadResult, error) {
	loaded, err := r.deps.Companion.Load(ctx, database)
	if errors.Is(err, ports.ErrEndpointNotFound) {
		r.log.Debug("load_database not offered, using force_reload_database", "database", database)
		return r.deps.Companion.ForceReload(ctx, database)
	}
	return loaded, err
}

// scheduleDelayedReload runs one more reload after RefreshDelay.
// The caller does not wait for it; failures are only logged.
func (r *Runner) scheduleDelayedReload(ctx context.Context, database string) {
	detached := context.WithoutCancel(ctx)
	r.pending.Add(1)

	time.AfterFunc(r.opts.RefreshDelay, func() {
		defer r.pending.Done()

		ctx, cancel := context.WithTimeout(detached, r.opts.RefreshTimeout)
		defer cancel()

		if _, err := r.reload(ctx, database); err != nil {
			r.log.Warn("delayed reload failed", "database", database, "error", err)
			return
		}
		r.log.Debug("delayed reload done", "database", database)
	})
}

// Refresh runs the refresh sequence on demand, without a mutation
func (r *Runner) Refresh(ctx context.Context, databaseCode string) (*RefreshReport, error) {
	if r.deps.Companion == nil {
		return nil, ErrServiceDisabled
	}
	target, err := r.Resolve(databaseCode)
	if err != nil {
		return nil, err
	}
	report := r.refresh(ctx, target.Database.Code)
	return &report, nil
}

// ServiceStatus reports liveness and, when reachable, the service's view
// of a database file
type ServiceStatus struct {
	Database   string
	Reachable  bool
	Err        error
	Databases  *ports.DatabaseList
	FileStatus *ports.FileStatus
	FileErr    error
}

// ServiceStatus checks the companion service
func (r *Runner) ServiceStatus(ctx context.Context, databaseCode string) (*ServiceStatus, error) {
	if r.deps.Companion == nil {
		return nil, ErrServiceDisabled
	}
	target, err := r.Resolve(databaseCode)
	if err != nil {
		return nil, err
	}

	status := &ServiceStatus{Database: target.Database.Code}
	list, err := r.deps.Companion.Databases(ctx)
	if err != nil {
		status.Err = err
		return status, nil
	}
	status.Reachable = true
	status.Databases = list

	status.FileStatus, status.FileErr = r.deps.Companion.FileStatus(ctx, target.Database.Code)
	return status, nil
}

// ServiceReport fetches the comprehensive report for the given databases
func (r *Runner) ServiceReport(ctx context.Context, databaseCodes []string) (*ports.Report, error) {
	if r.deps.Companion == nil {
		return nil, ErrServiceDisabled
	}
	codes := make([]string, 0, len(databaseCodes))
	for _, code := range databaseCodes {
		target, err := r.Resolve(code)
		if err != nil {
			return nil, err
		}
		codes = append(codes, target.Database.Code)
	}
	return r.deps.Companion.Report(ctx, codes)
}

// ServiceSuggestions fetches filter suggestions for a database
func (r *Runner) ServiceSuggestions(ctx context.Context, databaseCode string) (*ports.Suggestions, error) {
	if r.deps.Companion == nil {
		return nil, ErrServiceDisabled
	}
	target, err := r.Resolve(databaseCode)
	if err != nil {
		return nil, err
	}
	return r.deps.Companion.Suggestions(ctx, target.Database.Code)
}

// ServiceEntity fetches the service's copy of one record, for checking that
// a mutation reached the analysis graph
func (r *Runner) ServiceEntity(ctx context.Context, databaseCode, id string) (json.RawMessage, error) {
	if r.deps.Companion == nil {
		return nil, ErrServiceDisabled
	}
	if err := ValidateRequired("id", id); err != nil {
		return nil, err
	}
	target, err := r.Resolve(databaseCode)
	if err != nil {
		return nil, err
	}
	return r.deps.Companion.Entity(ctx, target.Database.Code, id)
}
