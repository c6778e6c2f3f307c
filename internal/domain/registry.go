package domain

import (
	"sort"
	"strings"
)

// Database is one regional data file known to the tooling
type Database struct {
	Code        string
	DataFile    string
	DisplayName string
	Description string
}

// Registry maps short database codes (OP7, usa, ...) to data files.
// Lookups ignore case. A Registry is never mutated after construction.
type Registry struct {
	byCode map[string]Database
	order  []string
}

// NewRegistry builds a registry; later entries override earlier ones with
// the same code.
func NewRegistry(databases ...Database) *Registry {
	r := &Registry{byCode: make(map[string]Database, len(databases))}
	for _, db := range databases {
		key := normalizeCode(db.Code)
		if key == "" {
			continue
		}
		if _, exists := r.byCode[key]; !exists {
			r.order = append(r.order, key)
		}
		r.byCode[key] = db
	}
	return r
}

// With returns a new registry holding r's entries plus overrides
func (r *Registry) With(overrides ...Database) *Registry {
	all := append(r.All(), overrides...)
	return NewRegistry(all...)
}

// Lookup finds a database by code
func (r *Registry) Lookup(code string) (Database, bool) {
	db, ok := r.byCode[normalizeCode(code)]
	return db, ok
}

// All returns every database in registration order
func (r *Registry) All() []Database {
	out := make([]Database, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.byCode[key])
	}
	return out
}

// Codes returns every code, sorted
func (r *Registry) Codes() []string {
	codes := make([]string, 0, len(r.order))
	for _, key := range r.order {
		codes = append(codes, r.byCode[key].Code)
	}
	sort.Strings(codes)
	return codes
}

// Len returns the number of registered databases
func (r *Registry) Len() int {
	return len(r.order)
}

func normalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
