package filesystem

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"ies4ops/internal/application"
	"ies4ops/internal/domain"
	"ies4ops/internal/ports"
)

const (
	backupInfix      = "_backup_"
	backupTimeLayout = "2006-01-02T15:04:05.000Z"
)

// Store implements ports.DocumentStore on the local filesystem
type Store struct {
	now    func() time.Time
	logger *slog.Logger
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithClock replaces time.Now for backup names
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// WithStoreLogger sets the logger for non-fatal document issues
func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = logger }
}

// NewStore creates a new filesystem document store
func NewStore(opts ...StoreOption) *Store {
	s := &Store{now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stat checks that path is a readable regular file
func (s *Store) Stat(path string) (*ports.FileStat, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fileError("stat", path, err)
	}
	if info.IsDir() {
		return nil, &application.FileError{Op: "stat", Path: path, Kind: application.ErrFileNotFound, Err: errors.New("is a directory")}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fileError("open", path, err)
	}
	f.Close()

	return &ports.FileStat{Path: path, Size: info.Size(), ModTime: info.ModTime()}, nil
}

// Backup copies path to <base>_backup_<timestamp>.json in the same directory
func (s *Store) Backup(path string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", fileError("backup", path, err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return "", fileError("backup", path, err)
	}

	backupPath := BackupPath(path, s.now())
	dst, err := os.OpenFile(backupPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return "", fileError("backup", backupPath, err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(backupPath)
		return "", fileError("backup", backupPath, err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(backupPath)
		return "", fileError("backup", backupPath, err)
	}

	return backupPath, nil
}

// Load reads and parses a data file. Structurally invalid documents are
// rejected with ErrParse; non-fatal issues are logged.
func (s *Store) Load(path string) (*domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fileError("read", path, err)
	}

	doc, err := domain.ParseDocument(data)
	if err != nil {
		return nil, &application.FileError{Op: "parse", Path: path, Kind: application.ErrParse, Err: err}
	}

	issues := doc.Validate()
	if fatal := domain.FatalIssues(issues); len(fatal) > 0 {
		msgs := make([]string, len(fatal))
		for i, issue := range fatal {
			msgs[i] = issue.String()
		}
		return nil, &application.FileError{
			Op:   "validate",
			Path: path,
			Kind: application.ErrParse,
			Err:  errors.New(strings.Join(msgs, "; ")),
		}
	}
	for _, issue := range issues {
		s.logger.Warn("data file issue", "path", path, "issue", issue.String())
	}

	return doc, nil
}

// Save writes doc to a temp file beside path and renames it into place
func (s *Store) Save(path string, doc *domain.Document) error {
	data, err := Encode(doc)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	mode := fs.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fileError("save", path, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fileError("save", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fileError("save", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fileError("save", path, err)
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		os.Remove(tmpPath)
		return fileError("save", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fileError("save", path, err)
	}

	return nil
}

// Counts re-reads path and returns the size of each collection
func (s *Store) Counts(path string) (map[string]int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fileError("read", path, err)
	}
	doc, err := domain.ParseDocument(data)
	if err != nil {
		return nil, &application.FileError{Op: "parse", Path: path, Kind: application.ErrParse, Err: err}
	}
	return doc.Counts(), nil
}

// ListBackups returns the backups of path, newest first
func (s *Store) ListBackups(path string) ([]ports.BackupInfo, error) {
	dir := filepath.Dir(path)
	prefix := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + backupInfix

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fileError("list", dir, err)
	}

	var backups []ports.BackupInfo
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, ports.BackupInfo{
			Path:    filepath.Join(dir, name),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	// timestamps in the name sort lexically
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Path > backups[j].Path
	})

	return backups, nil
}

// BackupPath returns the backup file name for path taken at t
func BackupPath(path string, t time.Time) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	stamp := strings.NewReplacer(":", "-", ".", "-").Replace(t.UTC().Format(backupTimeLayout))
	return filepath.Join(filepath.Dir(path), base+backupInfix+stamp+".json")
}

// Encode serializes doc as 2-space indented JSON with a trailing newline.
// HTML characters are left unescaped.
func Encode(doc *domain.Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return unescapeHTML(buf.Bytes()), nil
}

// unescapeHTML reverts the <, > and & escapes that nested
// marshalers apply regardless of the encoder setting. Backslashes only
// occur inside JSON strings, so walking escape pairs is enough.
func unescapeHTML(b []byte) []byte {
	if !bytes.Contains(b, []byte(`\u00`)) {
		return b
	}

	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] != '\\' || i+1 >= len(b) {
			out = append(out, b[i])
			continue
		}
		if b[i+1] == 'u' && i+6 <= len(b) {
			switch string(b[i+2 : i+6]) {
			case "003c":
				out = append(out, '<')
				i += 5
				continue
			case "003e":
				out = append(out, '>')
				i += 5
				continue
			case "0026":
				out = append(out, '&')
				i += 5
				continue
			}
		}
		out = append(out, b[i], b[i+1])
		i++
	}
	return out
}

func fileError(op, path string, err error) error {
	var kind error
	switch {
	case errors.Is(err, fs.ErrNotExist):
		kind = application.ErrFileNotFound
	case errors.Is(err, fs.ErrPermission):
		kind = application.ErrPermission
	}
	return &application.FileError{Op: op, Path: path, Kind: kind, Err: err}
}
