package filesystem

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"ies4ops/internal/ports"
)

// Locator implements ports.DataLocator over an ordered candidate list.
// Results are cached per working directory.
type Locator struct {
	candidates []string
	fallback   string
	logger     *slog.Logger
	getwd      func() (string, error)
	homeDir    func() (string, error)

	mu       sync.Mutex
	cachedWd string
	cached   string
}

// LocatorOption configures a Locator
type LocatorOption func(*Locator)

// WithLocatorLogger sets the logger used for probe diagnostics
func WithLocatorLogger(logger *slog.Logger) LocatorOption {
	return func(l *Locator) { l.logger = logger }
}

// WithWorkingDir replaces os.Getwd
func WithWorkingDir(getwd func() (string, error)) LocatorOption {
	return func(l *Locator) { l.getwd = getwd }
}

// WithHomeDir replaces os.UserHomeDir
func WithHomeDir(homeDir func() (string, error)) LocatorOption {
	return func(l *Locator) { l.homeDir = homeDir }
}

// NewLocator creates a locator. Candidates are probed in order; fallback
// is returned when none of them is an existing directory.
func NewLocator(candidates []string, fallback string, opts ...LocatorOption) *Locator {
	l := &Locator{
		candidates: append([]string(nil), candidates...),
		fallback:   fallback,
		logger:     slog.Default(),
		getwd:      os.Getwd,
		homeDir:    os.UserHomeDir,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Locate returns the data directory
func (l *Locator) Locate() string {
	wd, _ := l.getwd()

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cached != "" && l.cachedWd == wd {
		return l.cached
	}

	found := ""
	for _, p := range l.probe(wd, true) {
		if p.Exists {
			found = p.Path
			break
		}
	}
	if found == "" {
		found = l.resolve(l.fallback, wd)
		l.logger.Debug("no data directory found, using fallback", "path", found)
	}

	l.cachedWd = wd
	l.cached = found
	return found
}

// Probes checks every candidate without stopping at the first hit
func (l *Locator) Probes() []ports.Probe {
	wd, _ := l.getwd()
	return l.probe(wd, false)
}

func (l *Locator) probe(wd string, stopAtFirst bool) []ports.Probe {
	probes := make([]ports.Probe, 0, len(l.candidates))
	for _, candidate := range l.candidates {
		if strings.TrimSpace(candidate) == "" {
			continue
		}
		path := l.resolve(candidate, wd)
		info, err := os.Stat(path)
		exists := err == nil && info.IsDir()

		l.logger.Debug("probing data directory", "candidate", candidate, "path", path, "exists", exists)
		probes = append(probes, ports.Probe{Candidate: candidate, Path: path, Exists: exists})

		if exists && stopAtFirst {
			break
		}
	}
	return probes
}

// resolve expands ~ and anchors relative paths at wd
func (l *Locator) resolve(path, wd string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := l.homeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	if !filepath.IsAbs(path) && wd != "" {
		path = filepath.Join(wd, path)
	}
	return filepath.Clean(path)
}
