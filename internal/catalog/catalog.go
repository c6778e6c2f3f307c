// Package catalog holds the literal equipment records that can be placed
// into the regional data files. Each entry used to be its own script; here
// they are data, embedded at build time.
package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"ies4ops/internal/domain"
)

//go:embed entries/*.json
var entriesFS embed.FS

// Aliases extends the matcher of one catalog entry
type Aliases struct {
	Names       []string
	Identifiers []string
}

// Catalog is a read-only set of equipment entries keyed by lowercase key
type Catalog struct {
	entries map[string]*domain.Equipment
	keys    []string
}

type entryFile struct {
	Key            string          `json:"key"`
	DisplayName    string          `json:"displayName"`
	Category       string          `json:"category"`
	Collection     string          `json:"collection"`
	TypeCollection string          `json:"typeCollection"`
	Match          matchFile       `json:"match"`
	TypeDefinition json.RawMessage `json:"typeDefinition"`
	Record         json.RawMessage `json:"record"`
}

type matchFile struct {
	IDSubstring       string   `json:"idSubstring"`
	NameAliases       []string `json:"nameAliases"`
	IdentifierAliases []string `json:"identifierAliases"`
	TypeField         string   `json:"typeField"`
}

// Load reads the embedded entries
func Load() (*Catalog, error) {
	return LoadFS(entriesFS, "entries")
}

// LoadFS reads every *.json file in dir of fsys as a catalog entry
func LoadFS(fsys fs.FS, dir string) (*Catalog, error) {
	files, err := fs.Glob(fsys, path.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog: %w", err)
	}

	c := &Catalog{entries: make(map[string]*domain.Equipment, len(files))}
	for _, name := range files {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		eq, err := parseEntry(data)
		if err != nil {
			return nil, fmt.Errorf("invalid catalog entry %s: %w", name, err)
		}
		key := strings.ToLower(eq.Key)
		if _, dup := c.entries[key]; dup {
			return nil, fmt.Errorf("duplicate catalog key %q in %s", eq.Key, name)
		}
		c.entries[key] = eq
		c.keys = append(c.keys, key)
	}
	sort.Strings(c.keys)

	return c, nil
}

func parseEntry(data []byte) (*domain.Equipment, error) {
	var f entryFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	switch {
	case f.Key == "":
		return nil, fmt.Errorf("key is required")
	case f.Collection == "":
		return nil, fmt.Errorf("collection is required")
	case len(f.Record) == 0:
		return nil, fmt.Errorf("record is required")
	}

	record, err := domain.ParseRecord(f.Record)
	if err != nil {
		return nil, fmt.Errorf("record: %w", err)
	}
	if record.ID() == "" {
		return nil, fmt.Errorf("record id is required")
	}

	var typeDef *domain.Record
	if len(f.TypeDefinition) > 0 {
		typeDef, err = domain.ParseRecord(f.TypeDefinition)
		if err != nil {
			return nil, fmt.Errorf("typeDefinition: %w", err)
		}
	}

	kind := ""
	if typeDef != nil {
		kind = typeDef.ID()
	}
	matcher := domain.NewKindMatcher(kind, f.Match.IDSubstring, f.Match.NameAliases, f.Match.IdentifierAliases)
	if f.Match.TypeField != "" {
		matcher.TypeField = f.Match.TypeField
	}

	return &domain.Equipment{
		Key:            f.Key,
		DisplayName:    f.DisplayName,
		Category:       f.Category,
		Collection:     f.Collection,
		TypeCollection: f.TypeCollection,
		Matcher:        matcher,
		Record:         record,
		TypeDefinition: typeDef,
	}, nil
}

// WithAliases returns a copy whose matchers include the extra aliases.
// Keys that are not in the catalog are reported as an error.
func (c *Catalog) WithAliases(extra map[string]Aliases) (*Catalog, error) {
	out := &Catalog{
		entries: make(map[string]*domain.Equipment, len(c.entries)),
		keys:    append([]string(nil), c.keys...),
	}
	for key, eq := range c.entries {
		out.entries[key] = eq
	}

	for key, a := range extra {
		eq, ok := out.entries[strings.ToLower(key)]
		if !ok {
			return nil, fmt.Errorf("aliases for unknown equipment %q", key)
		}
		clone := *eq
		clone.Matcher = eq.Matcher.WithAliases(a.Names, a.Identifiers)
		out.entries[strings.ToLower(key)] = &clone
	}

	return out, nil
}

// Get finds an entry by key, ignoring case
func (c *Catalog) Get(key string) (*domain.Equipment, bool) {
	eq, ok := c.entries[strings.ToLower(strings.TrimSpace(key))]
	return eq, ok
}

// All returns every entry sorted by key
func (c *Catalog) All() []*domain.Equipment {
	out := make([]*domain.Equipment, 0, len(c.keys))
	for _, key := range c.keys {
		out = append(out, c.entries[key])
	}
	return out
}

// Keys returns every entry key, sorted
func (c *Catalog) Keys() []string {
	out := make([]string, 0, len(c.keys))
	for _, key := range c.keys {
		out = append(out, c.entries[key].Key)
	}
	return out
}
