// Package config builds the immutable Settings value shared by every
// binary. Precedence: flags > environment > YAML file > defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"ies4ops/internal/domain"
)

// Environment variables
const (
	EnvConfig         = "IES4_CONFIG"
	EnvDataDir        = "IES4_DATA_DIR"
	EnvServiceURL     = "IES4_SERVICE_URL"
	EnvServiceEnabled = "IES4_SERVICE_ENABLED"
	EnvDefaultDB      = "IES4_DEFAULT_DB"
	EnvJournal        = "IES4_JOURNAL"
	EnvLogLevel       = "IES4_LOG_LEVEL"
	EnvLogFormat      = "IES4_LOG_FORMAT"
)

// Settings is built once per invocation and passed by value. Nothing in
// the program reads configuration from anywhere else.
type Settings struct {
	// DataDir, when set, is probed before DataDirCandidates
	DataDir           string
	DataDirCandidates []string
	DataDirFallback   string
	DefaultDatabase   string
	Service           ServiceSettings
	// JournalPath is the sqlite operation history; empty disables it
	JournalPath string
	Logging     LoggingSettings
	Databases   []domain.Database
	Aliases     map[string]AliasSettings
	// ConfigFile is the YAML file that was applied, if any
	ConfigFile string
}

// ServiceSettings configures the companion analysis service client
type ServiceSettings struct {
	URL            string
	Enabled        bool
	PingTimeout    time.Duration
	RequestTimeout time.Duration
	// RefreshDelay schedules a second, best-effort reload; zero disables it
	RefreshDelay time.Duration
}

// LoggingSettings configures internal/logger
type LoggingSettings struct {
	Level  string
	Format string
}

// AliasSettings lists extra aliases for one catalog entry
type AliasSettings struct {
	Names       []string `yaml:"names"`
	Identifiers []string `yaml:"identifiers"`
}

// Overrides carries command-line flags. Empty fields leave settings alone.
type Overrides struct {
	DataDir         string
	DefaultDatabase string
	ServiceURL      string
	NoService       bool
	JournalPath     string
	LogLevel        string
	LogFormat       string
}

// Defaults returns the built-in settings
func Defaults() Settings {
	return Settings{
		DataDirCandidates: append([]string(nil), DefaultDataDirCandidates...),
		DataDirFallback:   DefaultDataDir,
		DefaultDatabase:   DefaultDatabase,
		Service: ServiceSettings{
			URL:            DefaultServiceURL,
			Enabled:        true,
			PingTimeout:    DefaultPingTimeout,
			RequestTimeout: DefaultRequestTimeout,
			RefreshDelay:   DefaultRefreshDelay,
		},
		JournalPath: DefaultJournalPath(),
		Logging: LoggingSettings{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Databases: DefaultDatabases(),
	}
}

// Load applies the YAML file and the environment on top of Defaults.
// explicitPath (or $IES4_CONFIG) must exist; the default location may not.
func Load(explicitPath string) (Settings, error) {
	s := Defaults()

	path, required := explicitPath, explicitPath != ""
	if path == "" {
		if env, ok := os.LookupEnv(EnvConfig); ok && env != "" {
			path, required = env, true
		} else {
			path = DefaultConfigPath()
		}
	}

	if path != "" {
		fc, err := readFile(path)
		switch {
		case err == nil:
			if err := fc.apply(&s); err != nil {
				return s, fmt.Errorf("config %s: %w", path, err)
			}
			s.ConfigFile = path
		case errors.Is(err, fs.ErrNotExist) && !required:
		default:
			return s, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := applyEnv(&s); err != nil {
		return s, err
	}

	return s, nil
}

// With returns a copy with command-line overrides applied
func (s Settings) With(o Overrides) Settings {
	if o.DataDir != "" {
		s.DataDir = o.DataDir
	}
	if o.DefaultDatabase != "" {
		s.DefaultDatabase = o.DefaultDatabase
	}
	if o.ServiceURL != "" {
		s.Service.URL = o.ServiceURL
	}
	if o.NoService {
		s.Service.Enabled = false
	}
	if o.JournalPath != "" {
		s.JournalPath = o.JournalPath
	}
	if o.LogLevel != "" {
		s.Logging.Level = o.LogLevel
	}
	if o.LogFormat != "" {
		s.Logging.Format = o.LogFormat
	}
	return s
}

// Candidates returns the data directory probe list, explicit dir first
func (s Settings) Candidates() []string {
	out := make([]string, 0, len(s.DataDirCandidates)+1)
	if s.DataDir != "" {
		out = append(out, s.DataDir)
	}
	return append(out, s.DataDirCandidates...)
}

// Registry builds the database registry
func (s Settings) Registry() *domain.Registry {
	return domain.NewRegistry(s.Databases...)
}

// DefaultConfigPath returns ~/.config/ies4ops/config.yaml (or the platform
// equivalent), or "" when no config directory can be determined
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "ies4ops", "config.yaml")
}

// DefaultJournalPath returns $XDG_DATA_HOME/ies4ops/journal.db
func DefaultJournalPath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "ies4ops", "journal.db")
}

func applyEnv(s *Settings) error {
	if v, ok := lookup(EnvDataDir); ok {
		s.DataDir = v
	}
	if v, ok := lookup(EnvServiceURL); ok {
		s.Service.URL = v
	}
	if v, ok := lookup(EnvServiceEnabled); ok {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvServiceEnabled, err)
		}
		s.Service.Enabled = enabled
	}
	if v, ok := lookup(EnvDefaultDB); ok {
		s.DefaultDatabase = v
	}
	if v, ok := os.LookupEnv(EnvJournal); ok {
		// an explicitly empty value disables the journal
		s.JournalPath = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvLogLevel); ok {
		s.Logging.Level = v
	}
	if v, ok := lookup(EnvLogFormat); ok {
		s.Logging.Format = v
	}
	return nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}
