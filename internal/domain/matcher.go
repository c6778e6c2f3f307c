package domain

import "strings"

// DefaultTypeField is the record field holding the kind discriminator
const DefaultTypeField = "type"

// KindMatcher decides whether a stored record is the same logical entity
// as a catalog entry. Identity is deliberately fuzzy: an id fragment, a
// known name or a known identifier value are each enough.
type KindMatcher struct {
	// Kind is the type definition id shared by all records of this kind
	Kind string
	// TypeField is the record field compared against Kind when looking
	// for siblings; defaults to "type"
	TypeField string
	// IDSubstring matches any record whose id contains it. Empty never matches.
	IDSubstring string

	NameAliases       StringSet
	IdentifierAliases StringSet
}

// NewKindMatcher builds a matcher from plain alias lists
func NewKindMatcher(kind, idSubstring string, nameAliases, identifierAliases []string) KindMatcher {
	return KindMatcher{
		Kind:              kind,
		TypeField:         DefaultTypeField,
		IDSubstring:       idSubstring,
		NameAliases:       NewStringSet(nameAliases...),
		IdentifierAliases: NewStringSet(identifierAliases...),
	}
}

// WithAliases returns a copy extended with extra name and identifier aliases
func (m KindMatcher) WithAliases(names, identifiers []string) KindMatcher {
	m.NameAliases = m.NameAliases.Union(NewStringSet(names...))
	m.IdentifierAliases = m.IdentifierAliases.Union(NewStringSet(identifiers...))
	return m
}

// MatchesForUpsert reports an id-fragment or name-alias match
func (m KindMatcher) MatchesForUpsert(r *Record) bool {
	if m.IDSubstring != "" && strings.Contains(r.ID(), m.IDSubstring) {
		return true
	}
	for _, n := range r.Names() {
		if m.NameAliases.Has(n.Value) {
			return true
		}
	}
	return false
}

// MatchesForDelete is MatchesForUpsert widened to identifier values
func (m KindMatcher) MatchesForDelete(r *Record) bool {
	if m.MatchesForUpsert(r) {
		return true
	}
	for _, id := range r.Identifiers() {
		if m.IdentifierAliases.Has(id.Value) {
			return true
		}
	}
	return false
}

// IsSibling reports whether r is of this matcher's kind
func (m KindMatcher) IsSibling(r *Record) bool {
	field := m.TypeField
	if field == "" {
		field = DefaultTypeField
	}
	return m.Kind != "" && r.Field(field) == m.Kind
}

// StringSet is an immutable set of strings
type StringSet map[string]struct{}

// NewStringSet builds a set, skipping empty values
func NewStringSet(values ...string) StringSet {
	s := make(StringSet, len(values))
	for _, v := range values {
		if v != "" {
			s[v] = struct{}{}
		}
	}
	return s
}

// Has reports membership
func (s StringSet) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Union returns a new set holding both sets' members
func (s StringSet) Union(other StringSet) StringSet {
	out := make(StringSet, len(s)+len(other))
	for v := range s {
		out[v] = struct{}{}
	}
	for v := range other {
		out[v] = struct{}{}
	}
	return out
}

// Len returns the number of members
func (s StringSet) Len() int {
	return len(s)
}
