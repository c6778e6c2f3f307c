package ports

import (
	"time"

	"ies4ops/internal/domain"
)

// FileStat describes a data file on disk
type FileStat struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// BackupInfo describes one timestamped backup of a data file
type BackupInfo struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// DocumentStore reads and writes IES4 data files
type DocumentStore interface {
	// Stat checks that a data file exists and is readable
	Stat(path string) (*FileStat, error)

	// Backup copies the file next to itself under a timestamped name
	// and returns the backup path
	Backup(path string) (string, error)

	// Load parses the file and rejects structurally invalid documents
	Load(path string) (*domain.Document, error)

	// Save replaces the file atomically with the serialized document
	Save(path string, doc *domain.Document) error

	// Counts re-reads the file and returns the size of every collection
	Counts(path string) (map[string]int, error)

	// ListBackups returns the backups of a data file, newest first
	ListBackups(path string) ([]BackupInfo, error)
}
