package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv keeps the developer's environment out of the tests
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		EnvConfig, EnvDataDir, EnvServiceURL, EnvServiceEnabled,
		EnvDefaultDB, EnvLogLevel, EnvLogFormat,
	} {
		t.Setenv(key, "")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	s := Defaults()

	if s.DefaultDatabase != "OP7" {
		t.Errorf("expected default database OP7, got %s", s.DefaultDatabase)
	}
	if s.Service.PingTimeout >= s.Service.RequestTimeout {
		t.Errorf("liveness timeout %v should be shorter than request timeout %v",
			s.Service.PingTimeout, s.Service.RequestTimeout)
	}
	db, ok := s.Registry().Lookup("OP7")
	if !ok || db.DataFile != "odesa_oblast.json" {
		t.Errorf("OP7 lookup = %+v, %v", db, ok)
	}
	if s.Registry().Len() != 20 {
		t.Errorf("expected 20 built-in databases, got %d", s.Registry().Len())
	}
}

func TestLoad_MissingDefaultFileIsFine(t *testing.T) {
	clearEnv(t)

	s, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.ConfigFile != "" {
		t.Errorf("expected no config file, got %s", s.ConfigFile)
	}
}

func TestLoad_MissingExplicitFileFails(t *testing.T) {
	clearEnv(t)

	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
data_dir: /srv/ies4/data
data_dir_candidates: [./a, ./b]
default_database: OP3
service:
  url: http://analysis:9000
  enabled: false
  ping_timeout: 2s
  request_timeout: 45s
  refresh_delay: 0s
journal_path: ""
logging:
  level: debug
  format: json
databases:
  - code: LAB
    data_file: lab.json
    display_name: Lab
aliases:
  shahed136:
    names: [Shahed]
    identifiers: [S-136]
`)

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if s.ConfigFile != path {
		t.Errorf("ConfigFile = %s", s.ConfigFile)
	}
	if got := s.Candidates(); len(got) != 3 || got[0] != "/srv/ies4/data" || got[2] != "./b" {
		t.Errorf("Candidates() = %v", got)
	}
	if s.DefaultDatabase != "OP3" {
		t.Errorf("DefaultDatabase = %s", s.DefaultDatabase)
	}
	if s.Service.URL != "http://analysis:9000" || s.Service.Enabled {
		t.Errorf("service = %+v", s.Service)
	}
	if s.Service.PingTimeout != 2*time.Second || s.Service.RequestTimeout != 45*time.Second || s.Service.RefreshDelay != 0 {
		t.Errorf("timeouts = %+v", s.Service)
	}
	if s.JournalPath != "" {
		t.Errorf("journal should be disabled, got %s", s.JournalPath)
	}
	if s.Logging.Level != "debug" || s.Logging.Format != "json" {
		t.Errorf("logging = %+v", s.Logging)
	}
	if db, ok := s.Registry().Lookup("lab"); !ok || db.DataFile != "lab.json" {
		t.Errorf("LAB lookup = %+v, %v", db, ok)
	}
	if _, ok := s.Registry().Lookup("OP1"); !ok {
		t.Error("built-in databases should remain")
	}
	if a := s.Aliases["shahed136"]; len(a.Names) != 1 || a.Identifiers[0] != "S-136" {
		t.Errorf("aliases = %+v", s.Aliases)
	}
}

func TestLoad_FileErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad yaml", "service: [\n"},
		{"bad duration", "service:\n  ping_timeout: soon\n"},
		{"database without file", "databases:\n  - code: X\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "default_database: OP3\nservice:\n  url: http://file\n")
	t.Setenv(EnvConfig, path)
	t.Setenv(EnvDefaultDB, "OP5")
	t.Setenv(EnvServiceURL, "http://env")
	t.Setenv(EnvServiceEnabled, "false")
	t.Setenv(EnvDataDir, "/env/data")

	s, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if s.DefaultDatabase != "OP5" || s.Service.URL != "http://env" || s.Service.Enabled {
		t.Errorf("env not applied: %+v", s)
	}
	if s.Candidates()[0] != "/env/data" {
		t.Errorf("data dir not applied: %v", s.Candidates())
	}
}

func TestLoad_BadBoolInEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvServiceEnabled, "maybe")

	if _, err := Load(""); err == nil {
		t.Error("expected error")
	}
}

func TestWith_FlagsWin(t *testing.T) {
	s := Defaults().With(Overrides{
		DataDir:         "/flag/data",
		DefaultDatabase: "OP1",
		ServiceURL:      "http://flag",
		NoService:       true,
		LogLevel:        "warn",
	})

	if s.DataDir != "/flag/data" || s.DefaultDatabase != "OP1" || s.Service.URL != "http://flag" {
		t.Errorf("overrides not applied: %+v", s)
	}
	if s.Service.Enabled {
		t.Error("NoService should disable the service")
	}
	if s.Logging.Level != "warn" || s.Logging.Format != DefaultLogFormat {
		t.Errorf("logging = %+v", s.Logging)
	}
}
