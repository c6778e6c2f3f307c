package application_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"ies4ops/internal/application"
	"ies4ops/internal/domain"
	"ies4ops/internal/ports"
)

type fakeLocator struct{ dir string }

func (l fakeLocator) Locate() string { return l.dir }

func (l fakeLocator) Probes() []ports.Probe {
	return []ports.Probe{{Candidate: l.dir, Path: l.dir, Exists: true}}
}

// memStore keeps data files as raw JSON
type memStore struct {
	mu      sync.Mutex
	files   map[string][]byte
	backups map[string][]string
	saves   int
}

func newMemStore() *memStore {
	return &memStore{files: map[string][]byte{}, backups: map[string][]string{}}
}

func (s *memStore) put(path, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path] = []byte(body)
}

func (s *memStore) doc(path string) *domain.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := domain.ParseDocument(s.files[path])
	if err != nil {
		panic(err)
	}
	return doc
}

func (s *memStore) Stat(path string) (*ports.FileStat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[path]
	if !ok {
		return nil, &application.FileError{Op: "stat", Path: path, Kind: application.ErrFileNotFound, Err: fs.ErrNotExist}
	}
	return &ports.FileStat{Path: path, Size: int64(len(data)), ModTime: time.Now()}, nil
}

func (s *memStore) Backup(path string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[path]
	if !ok {
		return "", &application.FileError{Op: "backup", Path: path, Kind: application.ErrFileNotFound}
	}
	name := fmt.Sprintf("%s.backup.%d", path, len(s.backups[path]))
	s.files[name] = append([]byte(nil), data...)
	s.backups[path] = append(s.backups[path], name)
	return name, nil
}

func (s *memStore) Load(path string) (*domain.Document, error) {
	s.mu.Lock()
	data, ok := s.files[path]
	s.mu.Unlock()
	if !ok {
		return nil, &application.FileError{Op: "read", Path: path, Kind: application.ErrFileNotFound}
	}
	doc, err := domain.ParseDocument(data)
	if err != nil {
		return nil, &application.FileError{Op: "parse", Path: path, Kind: application.ErrParse, Err: err}
	}
	if fatal := domain.FatalIssues(doc.Validate()); len(fatal) > 0 {
		return nil, &application.FileError{Op: "validate", Path: path, Kind: application.ErrParse, Err: errors.New(fatal[0].String())}
	}
	return doc, nil
}

func (s *memStore) Save(path string, doc *domain.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path] = data
	s.saves++
	return nil
}

func (s *memStore) Counts(path string) (map[string]int, error) {
	doc, err := s.Load(path)
	if err != nil {
		return nil, err
	}
	return doc.Counts(), nil
}

func (s *memStore) ListBackups(path string) ([]ports.BackupInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ports.BackupInfo
	for _, name := range s.backups[path] {
		out = append(out, ports.BackupInfo{Path: name, Size: int64(len(s.files[name]))})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path > out[j].Path })
	return out, nil
}

// fakeCompanion records calls; a non-nil error fails that call
type fakeCompanion struct {
	mu         sync.Mutex
	pingErr    error
	reloadErr  error
	analyzeErr error
	// loadMissing makes load_database answer 404
	loadMissing bool
	endpoints   []string
	reloads     []string
	analyzed    []ports.AnalyzeRequest
}

func (c *fakeCompanion) Ping(context.Context) error { return c.pingErr }

func (c *fakeCompanion) Databases(context.Context) (*ports.DatabaseList, error) {
	if c.pingErr != nil {
		return nil, c.pingErr
	}
	return &ports.DatabaseList{Available: []string{"OP7"}}, nil
}

func (c *fakeCompanion) Load(_ context.Context, db string) (*ports.LoadResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endpoints = append(c.endpoints, "load_database")
	if c.loadMissing {
		return nil, fmt.Errorf("load: %w", ports.ErrEndpointNotFound)
	}
	return c.reload(db)
}

func (c *fakeCompanion) ForceReload(_ context.Context, db string) (*ports.LoadResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endpoints = append(c.endpoints, "force_reload_database")
	return c.reload(db)
}

func (c *fakeCompanion) reload(db string) (*ports.LoadResult, error) {
	c.reloads = append(c.reloads, db)
	if c.reloadErr != nil {
		return nil, c.reloadErr
	}
	return &ports.LoadResult{Message: "Loaded database: " + db, EntityCounts: map[string]int{"vehicles": 1}}, nil
}

func (c *fakeCompanion) Analyze(_ context.Context, req ports.AnalyzeRequest) (*ports.AnalyzeResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.analyzed = append(c.analyzed, req)
	if c.analyzeErr != nil {
		return nil, c.analyzeErr
	}
	return &ports.AnalyzeResult{NodeCount: 10, EdgeCount: 12}, nil
}

func (c *fakeCompanion) FileStatus(_ context.Context, db string) (*ports.FileStatus, error) {
	return &ports.FileStatus{DatabaseName: db, SyncStatus: "synced"}, nil
}

func (c *fakeCompanion) Report(context.Context, []string) (*ports.Report, error) {
	return &ports.Report{DatabasesAnalyzed: 1}, nil
}

func (c *fakeCompanion) Suggestions(context.Context, string) (*ports.Suggestions, error) {
	return &ports.Suggestions{}, nil
}

func (c *fakeCompanion) Entity(context.Context, string, string) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func (c *fakeCompanion) reloadCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.reloads)
}

type memJournal struct {
	err     error
	entries []domain.JournalEntry
}

func (j *memJournal) Record(_ context.Context, e *domain.JournalEntry) error {
	if j.err != nil {
		return j.err
	}
	if e.ID == "" {
		e.ID = fmt.Sprintf("entry-%d", len(j.entries)+1)
	}
	j.entries = append(j.entries, *e)
	return nil
}

func (j *memJournal) Recent(_ context.Context, limit int, db string) ([]domain.JournalEntry, error) {
	var out []domain.JournalEntry
	for i := len(j.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if db == "" || j.entries[i].Database == db {
			out = append(out, j.entries[i])
		}
	}
	return out, nil
}

func (j *memJournal) Close() error { return nil }

func dataPath(file string) string {
	return filepath.Join("/data", file)
}
