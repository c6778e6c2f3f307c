package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"ies4ops/internal/domain"
)

// fileConfig is the on-disk YAML shape
type fileConfig struct {
	DataDir           string                   `yaml:"data_dir"`
	DataDirCandidates []string                 `yaml:"data_dir_candidates"`
	DataDirFallback   string                   `yaml:"data_dir_fallback"`
	DefaultDatabase   string                   `yaml:"default_database"`
	Service           serviceFile              `yaml:"service"`
	JournalPath       *string                  `yaml:"journal_path"`
	Logging           loggingFile              `yaml:"logging"`
	Databases         []databaseFile           `yaml:"databases"`
	Aliases           map[string]AliasSettings `yaml:"aliases"`
}

type serviceFile struct {
	URL            string `yaml:"url"`
	Enabled        *bool  `yaml:"enabled"`
	PingTimeout    string `yaml:"ping_timeout"`
	RequestTimeout string `yaml:"request_timeout"`
	RefreshDelay   string `yaml:"refresh_delay"`
}

type loggingFile struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type databaseFile struct {
	Code        string `yaml:"code"`
	DataFile    string `yaml:"data_file"`
	DisplayName string `yaml:"display_name"`
	Description string `yaml:"description"`
}

func readFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &fc, nil
}

func (fc *fileConfig) apply(s *Settings) error {
	if fc.DataDir != "" {
		s.DataDir = fc.DataDir
	}
	if len(fc.DataDirCandidates) > 0 {
		s.DataDirCandidates = append([]string(nil), fc.DataDirCandidates...)
	}
	if fc.DataDirFallback != "" {
		s.DataDirFallback = fc.DataDirFallback
	}
	if fc.DefaultDatabase != "" {
		s.DefaultDatabase = fc.DefaultDatabase
	}

	if fc.Service.URL != "" {
		s.Service.URL = fc.Service.URL
	}
	if fc.Service.Enabled != nil {
		s.Service.Enabled = *fc.Service.Enabled
	}
	durations := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"service.ping_timeout", fc.Service.PingTimeout, &s.Service.PingTimeout},
		{"service.request_timeout", fc.Service.RequestTimeout, &s.Service.RequestTimeout},
		{"service.refresh_delay", fc.Service.RefreshDelay, &s.Service.RefreshDelay},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = parsed
	}

	if fc.JournalPath != nil {
		s.JournalPath = *fc.JournalPath
	}
	if fc.Logging.Level != "" {
		s.Logging.Level = fc.Logging.Level
	}
	if fc.Logging.Format != "" {
		s.Logging.Format = fc.Logging.Format
	}

	for i, db := range fc.Databases {
		if db.Code == "" || db.DataFile == "" {
			return fmt.Errorf("databases[%d]: code and data_file are required", i)
		}
		s.Databases = append(s.Databases, domain.Database{
			Code:        db.Code,
			DataFile:    db.DataFile,
			DisplayName: db.DisplayName,
			Description: db.Description,
		})
	}

	if len(fc.Aliases) > 0 {
		s.Aliases = make(map[string]AliasSettings, len(fc.Aliases))
		for key, a := range fc.Aliases {
			s.Aliases[key] = a
		}
	}

	return nil
}
