// Package bootstrap turns Settings into a ready Runner. The CLI, the MCP
// server and the TUI share it so they resolve databases, catalog aliases
// and the service identically.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ies4ops/internal/adapters/companion"
	"ies4ops/internal/adapters/filesystem"
	"ies4ops/internal/adapters/sqlite"
	"ies4ops/internal/application"
	"ies4ops/internal/catalog"
	"ies4ops/internal/config"
)

// DefaultShutdownTimeout bounds how long Close waits for the delayed
// service refresh
const DefaultShutdownTimeout = 10 * time.Second

// Env holds everything a binary needs after startup
type Env struct {
	Settings config.Settings
	Logger   *slog.Logger
	Runner   *application.Runner
	Catalog  *catalog.Catalog
	Locator  *filesystem.Locator
	// Warnings are startup problems that did not stop the program
	Warnings []string

	journal *sqlite.Journal
}

// New wires adapters according to s
func New(s config.Settings, log *slog.Logger) (*Env, error) {
	if log == nil {
		log = slog.Default()
	}
	env := &Env{Settings: s, Logger: log}

	cat, err := catalog.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	if len(s.Aliases) > 0 {
		extra := make(map[string]catalog.Aliases, len(s.Aliases))
		for key, a := range s.Aliases {
			extra[key] = catalog.Aliases{Names: a.Names, Identifiers: a.Identifiers}
		}
		if cat, err = cat.WithAliases(extra); err != nil {
			return nil, fmt.Errorf("config aliases: %w", err)
		}
	}
	env.Catalog = cat

	env.Locator = filesystem.NewLocator(s.Candidates(), s.DataDirFallback,
		filesystem.WithLocatorLogger(log))

	deps := application.Dependencies{
		Locator:  env.Locator,
		Store:    filesystem.NewStore(filesystem.WithStoreLogger(log)),
		Catalog:  cat,
		Registry: s.Registry(),
		Logger:   log,
	}

	if s.Service.Enabled {
		client, err := companion.New(s.Service.URL,
			companion.WithTimeouts(s.Service.PingTimeout, s.Service.RequestTimeout),
			companion.WithLogger(log),
		)
		if err != nil {
			return nil, err
		}
		deps.Companion = client
	}

	if s.JournalPath != "" {
		j, err := sqlite.Open(s.JournalPath)
		if err != nil {
			log.Warn("journal unavailable", "path", s.JournalPath, "error", err)
			env.Warnings = append(env.Warnings, fmt.Sprintf("journal disabled: %v", err))
		} else {
			env.journal = j
			deps.Journal = j
		}
	}

	env.Runner = application.NewRunner(deps, application.Options{
		DefaultDatabase: s.DefaultDatabase,
		RefreshDelay:    s.Service.RefreshDelay,
		RefreshTimeout:  s.Service.RequestTimeout,
	})

	return env, nil
}

// Close waits, bounded, for pending refreshes and closes the journal
func (e *Env) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()

	var waitErr error
	if err := e.Runner.Wait(ctx); err != nil {
		e.Logger.Warn("delayed refresh did not finish", "error", err)
		waitErr = err
	}
	if e.journal != nil {
		if err := e.journal.Close(); err != nil {
			return fmt.Errorf("failed to close journal: %w", err)
		}
	}
	return waitErr
}
