package domain

import "strings"

// DatabasePlaceholder in a catalog record id is replaced by the lowercased
// target database code, so the same entry yields uav-...-op7-001 for OP7
// and uav-...-op3-001 for OP3.
const DatabasePlaceholder = "{db}"

// Equipment is one catalog entry: a literal record plus everything needed
// to place it in, or remove it from, a data file.
type Equipment struct {
	Key            string
	DisplayName    string
	Category       string
	Collection     string
	TypeCollection string
	Matcher        KindMatcher
	Record         *Record
	TypeDefinition *Record
}

// RecordFor returns a copy of the record with its id bound to database
func (e *Equipment) RecordFor(databaseCode string) *Record {
	r := e.Record.Clone()
	if id := r.ID(); strings.Contains(id, DatabasePlaceholder) {
		r.SetID(strings.ReplaceAll(id, DatabasePlaceholder, strings.ToLower(databaseCode)))
	}
	return r
}

// Kind returns the type definition id this equipment belongs to
func (e *Equipment) Kind() string {
	return e.Matcher.Kind
}

// PrimaryName returns the first name value of the record, falling back
// to the display name
func (e *Equipment) PrimaryName() string {
	if names := e.Record.Names(); len(names) > 0 && names[0].Value != "" {
		return names[0].Value
	}
	return e.DisplayName
}
