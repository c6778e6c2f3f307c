package domain

// UpsertResult describes what Upsert did to a document
type UpsertResult struct {
	// ID is the id of the stored record
	ID string
	// Index is the record's position in the collection
	Index int
	// Replaced is true when an existing record was overwritten in place
	Replaced bool
	// TypeAdded is true when the type definition was appended
	TypeAdded bool
}

// DeleteResult describes what Delete did to a document
type DeleteResult struct {
	Removed     int
	RemovedIDs  []string
	TypeRemoved bool
}

// Upsert stores record in doc[collectionKey]. The first record (by array
// order) that the matcher recognises is replaced in place and keeps its
// id; otherwise the record is appended. The type definition is appended to
// doc[typeCollectionKey] unless an entry with the same id already exists.
// Both collections are created when missing. An empty typeCollectionKey
// or nil typeDef skips the type step.
func Upsert(doc *Document, collectionKey, typeCollectionKey string, record, typeDef *Record, m KindMatcher) UpsertResult {
	records := doc.Collection(collectionKey)
	next := record.Clone()
	result := UpsertResult{Index: -1}

	for i, existing := range records {
		if !m.MatchesForUpsert(existing) {
			continue
		}
		if id := existing.ID(); id != "" {
			next.SetID(id)
		}
		records[i] = next
		result.Index = i
		result.Replaced = true
		break
	}

	if !result.Replaced {
		records = append(records, next)
		result.Index = len(records) - 1
	}
	doc.SetCollection(collectionKey, records)
	result.ID = next.ID()

	if typeCollectionKey == "" {
		return result
	}

	types := doc.Collection(typeCollectionKey)
	if typeDef != nil && indexOfID(types, typeDef.ID()) < 0 {
		types = append(types, typeDef.Clone())
		result.TypeAdded = true
	}
	doc.SetCollection(typeCollectionKey, types)

	return result
}

// Delete removes every record in doc[collectionKey] the matcher recognises.
// When something was removed and no remaining record in the collection is
// of the matcher's kind, the kind's type definition is pruned as well.
// With zero matches the document is left untouched.
func Delete(doc *Document, collectionKey, typeCollectionKey string, m KindMatcher) DeleteResult {
	var result DeleteResult

	records := doc.Collection(collectionKey)
	kept := make([]*Record, 0, len(records))
	for _, r := range records {
		if m.MatchesForDelete(r) {
			result.RemovedIDs = append(result.RemovedIDs, r.ID())
			continue
		}
		kept = append(kept, r)
	}

	result.Removed = len(result.RemovedIDs)
	if result.Removed == 0 {
		return result
	}
	doc.SetCollection(collectionKey, kept)

	if typeCollectionKey == "" || m.Kind == "" {
		return result
	}

	// the type definition stays while any sibling remains
	for _, r := range kept {
		if m.IsSibling(r) {
			return result
		}
	}

	types := doc.Collection(typeCollectionKey)
	remaining := make([]*Record, 0, len(types))
	for _, t := range types {
		if t.ID() != m.Kind {
			remaining = append(remaining, t)
		}
	}
	if len(remaining) != len(types) {
		doc.SetCollection(typeCollectionKey, remaining)
		result.TypeRemoved = true
	}

	return result
}

func indexOfID(records []*Record, id string) int {
	for i, r := range records {
		if r.ID() == id {
			return i
		}
	}
	return -1
}
