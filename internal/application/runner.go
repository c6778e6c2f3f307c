package application

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"ies4ops/internal/domain"
	"ies4ops/internal/ports"
)

// Dependencies are the ports a Runner drives. Companion and Journal are
// optional; nil disables them.
type Dependencies struct {
	Locator   ports.DataLocator
	Store     ports.DocumentStore
	Catalog   ports.EquipmentCatalog
	Registry  *domain.Registry
	Companion ports.CompanionService
	Journal   ports.Journal
	Logger    *slog.Logger
}

// Options tune a Runner
type Options struct {
	// DefaultDatabase is used when an operation names no database
	DefaultDatabase string
	// RefreshDelay schedules a second service reload after a mutation;
	// zero disables it
	RefreshDelay time.Duration
	// RefreshTimeout bounds the delayed reload
	RefreshTimeout time.Duration
}

// Runner executes add/remove/inspect operations against data files.
// A Runner may be shared; each mutation is a single read-modify-write of
// one file with no locking.
type Runner struct {
	deps Dependencies
	opts Options
	log  *slog.Logger

	pending sync.WaitGroup
}

// NewRunner creates a Runner
func NewRunner(deps Dependencies, opts Options) *Runner {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	if opts.RefreshTimeout <= 0 {
		opts.RefreshTimeout = time.Minute
	}
	return &Runner{deps: deps, opts: opts, log: log}
}

// Target is a resolved database and its data file
type Target struct {
	Database domain.Database
	DataDir  string
	DataFile string
}

// Registry returns the database registry
func (r *Runner) Registry() *domain.Registry {
	return r.deps.Registry
}

// Catalog returns the equipment catalog
func (r *Runner) Catalog() ports.EquipmentCatalog {
	return r.deps.Catalog
}

// ServiceEnabled reports whether a companion service is configured
func (r *Runner) ServiceEnabled() bool {
	return r.deps.Companion != nil
}

// JournalEnabled reports whether mutations are journaled
func (r *Runner) JournalEnabled() bool {
	return r.deps.Journal != nil
}

// DefaultDatabase returns the database used when none is named
func (r *Runner) DefaultDatabase() string {
	return r.opts.DefaultDatabase
}

// Resolve maps a database code (empty means the default) to its data file
func (r *Runner) Resolve(code string) (Target, error) {
	if strings.TrimSpace(code) == "" {
		code = r.opts.DefaultDatabase
	}
	if err := ValidateKey("databaseCode", code); err != nil {
		return Target{}, err
	}

	db, ok := r.deps.Registry.Lookup(code)
	if !ok {
		return Target{}, &UnknownDatabaseError{Code: code, Known: r.deps.Registry.Codes()}
	}

	dir := r.deps.Locator.Locate()
	return Target{
		Database: db,
		DataDir:  dir,
		DataFile: filepath.Join(dir, db.DataFile),
	}, nil
}

// Equipment looks up a catalog entry
func (r *Runner) Equipment(key string) (*domain.Equipment, error) {
	if err := ValidateKey("equipmentKey", key); err != nil {
		return nil, err
	}
	eq, ok := r.deps.Catalog.Get(key)
	if !ok {
		known := make([]string, 0)
		for _, e := range r.deps.Catalog.All() {
			known = append(known, e.Key)
		}
		return nil, &UnknownEquipmentError{Key: key, Known: known}
	}
	return eq, nil
}

// Wait blocks until scheduled delayed refreshes have run or ctx is done
func (r *Runner) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for delayed refresh: %w", ctx.Err())
	}
}

func (r *Runner) journal(ctx context.Context, entry *domain.JournalEntry) string {
	if r.deps.Journal == nil {
		return ""
	}
	if err := r.deps.Journal.Record(ctx, entry); err != nil {
		r.log.Warn("failed to journal operation", "error", err)
		return fmt.Sprintf("journal: %v", err)
	}
	return ""
}
