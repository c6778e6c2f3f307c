package domain

import (
	"bytes"
	"encoding/json"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Name is one entry of a record's names list
type Name struct {
	Value    string `json:"value"`
	Language string `json:"language,omitempty"`
	NameType string `json:"nameType,omitempty"`
}

// Identifier is one entry of a record's identifiers list
type Identifier struct {
	Value            string `json:"value"`
	IdentifierType   string `json:"identifierType,omitempty"`
	IssuingAuthority string `json:"issuingAuthority,omitempty"`
}

// Record is a single JSON object inside a document collection (a vehicle,
// an aircraft, a unit or a type definition). Only a handful of fields are
// interpreted; every other field is carried through verbatim and the
// original key order survives a load/save cycle.
type Record struct {
	fields *orderedmap.OrderedMap[string, json.RawMessage]
}

// NewRecord returns an empty record
func NewRecord() *Record {
	return &Record{fields: orderedmap.New[string, json.RawMessage]()}
}

// ParseRecord decodes a JSON object into a Record
func ParseRecord(data []byte) (*Record, error) {
	r := NewRecord()
	if err := json.Unmarshal(data, r); err != nil {
		return nil, err
	}
	return r, nil
}

// UnmarshalJSON implements json.Unmarshaler
func (r *Record) UnmarshalJSON(data []byte) error {
	fields := orderedmap.New[string, json.RawMessage]()
	if err := fields.UnmarshalJSON(data); err != nil {
		return err
	}
	r.fields = fields
	return nil
}

// MarshalJSON implements json.Marshaler
func (r *Record) MarshalJSON() ([]byte, error) {
	if r == nil || r.fields == nil {
		return []byte("{}"), nil
	}
	return r.fields.MarshalJSON()
}

// ID returns the record id, or "" when it has none
func (r *Record) ID() string {
	return r.Field("id")
}

// SetID sets the record id. A record that had no id gets it as its first key.
func (r *Record) SetID(id string) {
	_, existed := r.ensure().Get("id")
	r.SetField("id", id)
	if !existed {
		_ = r.fields.MoveToFront("id")
	}
}

// Field returns a top-level string field; non-string values read as ""
func (r *Record) Field(name string) string {
	raw, ok := r.Raw(name)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// SetField sets a top-level string field, keeping its position if present
func (r *Record) SetField(name, value string) {
	raw, _ := json.Marshal(value)
	r.ensure().Set(name, raw)
}

// SetRaw sets a top-level field to already encoded JSON
func (r *Record) SetRaw(name string, raw json.RawMessage) {
	r.ensure().Set(name, raw)
}

// Raw returns the undecoded JSON of a top-level field
func (r *Record) Raw(name string) (json.RawMessage, bool) {
	if r == nil || r.fields == nil {
		return nil, false
	}
	return r.fields.Get(name)
}

// Keys returns the top-level keys in document order
func (r *Record) Keys() []string {
	if r == nil || r.fields == nil {
		return nil
	}
	keys := make([]string, 0, r.fields.Len())
	for pair := r.fields.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Names decodes the names list. Malformed lists read as empty.
func (r *Record) Names() []Name {
	var names []Name
	r.decode("names", &names)
	return names
}

// Identifiers decodes the identifiers list. Malformed lists read as empty.
func (r *Record) Identifiers() []Identifier {
	var ids []Identifier
	r.decode("identifiers", &ids)
	return ids
}

// Clone returns a deep copy
func (r *Record) Clone() *Record {
	c := NewRecord()
	if r == nil || r.fields == nil {
		return c
	}
	for pair := r.fields.Oldest(); pair != nil; pair = pair.Next() {
		c.fields.Set(pair.Key, bytes.Clone(pair.Value))
	}
	return c
}

func (r *Record) decode(name string, v any) {
	raw, ok := r.Raw(name)
	if !ok {
		return
	}
	_ = json.Unmarshal(raw, v)
}

func (r *Record) ensure() *orderedmap.OrderedMap[string, json.RawMessage] {
	if r.fields == nil {
		r.fields = orderedmap.New[string, json.RawMessage]()
	}
	return r.fields
}
