package ports

// Probe is one data directory candidate and whether it was found
type Probe struct {
	Candidate string // As configured, before ~ expansion
	Path      string // Absolute path that was checked
	Exists    bool
}

// DataLocator finds the directory holding the regional data files
type DataLocator interface {
	// Locate returns the first existing candidate directory, or the
	// configured fallback. It never fails.
	Locate() string

	// Probes reports every candidate with its existence, for diagnostics
	Probes() []Probe
}
