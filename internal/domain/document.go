package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Collection keys used by the regional IES4 data files
const (
	CollectionVehicles       = "vehicles"
	CollectionVehicleTypes   = "vehicleTypes"
	CollectionAircraft       = "aircraft"
	CollectionAircraftTypes  = "aircraftTypes"
	CollectionArtillery      = "artillery"
	CollectionArtilleryTypes = "artilleryTypes"
	CollectionMilitaryUnits  = "militaryUnits"
	CollectionUnitTypes      = "unitTypes"
	CollectionAreas          = "areas"
)

// KnownCollections lists the top-level keys that must hold record arrays
// when present.
var KnownCollections = []string{
	CollectionVehicles,
	CollectionVehicleTypes,
	CollectionAircraft,
	CollectionAircraftTypes,
	CollectionArtillery,
	CollectionArtilleryTypes,
	CollectionMilitaryUnits,
	CollectionUnitTypes,
	CollectionAreas,
}

// Document is the root object of a data file. Top-level arrays of objects
// are decoded into record collections; everything else is kept raw.
type Document struct {
	fields      *orderedmap.OrderedMap[string, json.RawMessage]
	collections map[string][]*Record
}

// NewDocument returns an empty document
func NewDocument() *Document {
	return &Document{
		fields:      orderedmap.New[string, json.RawMessage](),
		collections: make(map[string][]*Record),
	}
}

// ParseDocument decodes a data file
func ParseDocument(data []byte) (*Document, error) {
	d := NewDocument()
	if err := json.Unmarshal(data, d); err != nil {
		return nil, err
	}
	return d, nil
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Document) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return fmt.Errorf("document root must be a JSON object")
	}

	fields := orderedmap.New[string, json.RawMessage]()
	if err := fields.UnmarshalJSON(trimmed); err != nil {
		return err
	}

	collections := make(map[string][]*Record)
	for pair := fields.Oldest(); pair != nil; pair = pair.Next() {
		value := bytes.TrimSpace(pair.Value)
		if len(value) == 0 || value[0] != '[' {
			continue
		}
		var records []*Record
		if err := json.Unmarshal(value, &records); err != nil {
			// arrays of scalars and mixed arrays stay raw
			continue
		}
		if records == nil {
			records = []*Record{}
		}
		collections[pair.Key] = records
	}

	d.fields = fields
	d.collections = collections
	return nil
}

// MarshalJSON implements json.Marshaler
func (d *Document) MarshalJSON() ([]byte, error) {
	out := orderedmap.New[string, any]()
	for pair := d.fields.Oldest(); pair != nil; pair = pair.Next() {
		if records, ok := d.collections[pair.Key]; ok {
			out.Set(pair.Key, records)
			continue
		}
		out.Set(pair.Key, pair.Value)
	}
	return out.MarshalJSON()
}

// Keys returns the top-level keys in document order
func (d *Document) Keys() []string {
	keys := make([]string, 0, d.fields.Len())
	for pair := d.fields.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// IsCollection reports whether key currently holds an array of records
func (d *Document) IsCollection(key string) bool {
	_, ok := d.collections[key]
	return ok
}

// Has reports whether key is present at all
func (d *Document) Has(key string) bool {
	_, ok := d.fields.Get(key)
	return ok
}

// Collection returns the records stored under key. Missing, null and
// non-array values read as an empty collection. The document is not
// modified.
func (d *Document) Collection(key string) []*Record {
	return d.collections[key]
}

// SetCollection stores records under key, creating the key at the end of
// the document when absent. Whatever value the key held before is replaced.
func (d *Document) SetCollection(key string, records []*Record) {
	if records == nil {
		records = []*Record{}
	}
	if _, ok := d.fields.Get(key); !ok {
		d.fields.Set(key, json.RawMessage("[]"))
	}
	d.collections[key] = records
}

// Raw returns the undecoded JSON of a top-level field. Collections are
// only current in the raw form until they are changed with SetCollection.
func (d *Document) Raw(key string) (json.RawMessage, bool) {
	return d.fields.Get(key)
}

// SetRaw sets a non-collection top-level field to already encoded JSON
func (d *Document) SetRaw(key string, raw json.RawMessage) {
	delete(d.collections, key)
	d.fields.Set(key, raw)
}

// Counts returns the size of every record collection in the document
func (d *Document) Counts() map[string]int {
	counts := make(map[string]int, len(d.collections))
	for key, records := range d.collections {
		counts[key] = len(records)
	}
	return counts
}

// Issue is a structural problem found by Validate
type Issue struct {
	Path    string
	Message string
	Fatal   bool
}

func (i Issue) String() string {
	return i.Path + ": " + i.Message
}

// Validate runs the ad hoc structural checks applied before a document is
// mutated. Known collections that are not arrays of objects are fatal;
// records without an id are reported but tolerated.
func (d *Document) Validate() []Issue {
	var issues []Issue
	for _, key := range KnownCollections {
		raw, ok := d.fields.Get(key)
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			continue
		}
		records, ok := d.collections[key]
		if !ok {
			issues = append(issues, Issue{Path: key, Message: "must be an array of objects", Fatal: true})
			continue
		}
		for i, r := range records {
			if r.ID() == "" {
				issues = append(issues, Issue{
					Path:    fmt.Sprintf("%s[%d]", key, i),
					Message: "missing required 'id' field",
				})
			}
		}
	}
	return issues
}

// FatalIssues filters issues down to those that block a mutation
func FatalIssues(issues []Issue) []Issue {
	var fatal []Issue
	for _, i := range issues {
		if i.Fatal {
			fatal = append(fatal, i)
		}
	}
	return fatal
}
