package domain

import "time"

// Action is the kind of mutation applied to a data file
type Action string

const (
	ActionAdd    Action = "add"
	ActionRemove Action = "remove"
	// ActionConsolidate rewrites a whole data file from other files
	ActionConsolidate Action = "consolidate"
)

// JournalEntry records one committed mutation
type JournalEntry struct {
	ID          string
	At          time.Time
	Action      Action
	Database    string
	Equipment   string
	RecordID    string
	DataFile    string
	BackupPath  string
	Removed     int
	TypeChanged bool
	Refreshed   bool
	Warnings    []string
}
