package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// Fields added to every consolidated record
const (
	FieldSourceFiles    = "_sourceFiles"
	FieldConsolidatedAt = "_consolidatedAt"
)

// ConsolidationTitle is the title of a consolidated document
const ConsolidationTitle = "Consolidated IES4 Military Database"

// versionFields are copied from the first source that has them
var versionFields = []string{"ies4Version", "specificationDate"}

// Source is one document taking part in a consolidation
type Source struct {
	Name string
	Doc  *Document
}

// SourceSummary reports what one source contributed
type SourceSummary struct {
	Name    string `json:"path"`
	Records int    `json:"records"`
}

// ConsolidateResult describes a consolidated document
type ConsolidateResult struct {
	Document *Document
	Sources  []SourceSummary
	Counts   map[string]int
	// Duplicates counts records whose id was already taken
	Duplicates int
	// Upgraded counts duplicates that replaced the kept record because
	// they carried more non-empty fields
	Upgraded int
	// MissingID counts records dropped because they had no id
	MissingID int
}

type consolidated struct {
	record   *Record
	score    int
	position int
	sources  []string
}

// Consolidate merges the record collections of several documents into one.
// Records are keyed by id within each collection; of two records with the
// same id the one with more non-empty fields wins, ties keep the first.
// Every kept record lists the sources it was seen in. Inputs are not
// modified.
func Consolidate(sources []Source, at time.Time) ConsolidateResult {
	var order []string
	byKey := make(map[string][]*consolidated)
	index := make(map[string]map[string]*consolidated)

	res := ConsolidateResult{Counts: make(map[string]int)}
	out := NewDocument()
	out.SetRaw("title", mustJSON(ConsolidationTitle))

	for _, src := range sources {
		summary := SourceSummary{Name: src.Name}
		for _, key := range versionFields {
			if out.Has(key) {
				continue
			}
			if raw, ok := src.Doc.Raw(key); ok {
				out.SetRaw(key, bytes.Clone(raw))
			}
		}

		for _, key := range src.Doc.Keys() {
			if !src.Doc.IsCollection(key) {
				continue
			}
			if _, seen := index[key]; !seen {
				order = append(order, key)
				index[key] = make(map[string]*consolidated)
			}

			for _, r := range src.Doc.Collection(key) {
				id := r.ID()
				if id == "" {
					res.MissingID++
					continue
				}
				summary.Records++

				score := completeness(r)
				if kept, ok := index[key][id]; ok {
					res.Duplicates++
					kept.sources = appendUnique(kept.sources, src.Name)
					if score > kept.score {
						kept.record = r
						kept.score = score
						res.Upgraded++
					}
					continue
				}

				c := &consolidated{record: r, score: score, position: len(byKey[key]), sources: []string{src.Name}}
				index[key][id] = c
				byKey[key] = append(byKey[key], c)
			}
		}
		res.Sources = append(res.Sources, summary)
	}

	stamp := mustJSON(at.UTC().Format(time.RFC3339))
	for _, key := range order {
		records := make([]*Record, len(byKey[key]))
		for _, c := range byKey[key] {
			r := c.record.Clone()
			r.SetRaw(FieldSourceFiles, mustJSON(c.sources))
			r.SetRaw(FieldConsolidatedAt, stamp)
			records[c.position] = r
		}
		out.SetCollection(key, records)
		res.Counts[key] = len(records)
	}

	out.SetRaw("consolidationMetadata", mustJSON(struct {
		Timestamp       string          `json:"timestamp"`
		Files           []SourceSummary `json:"consolidatedFiles"`
		SourceFileCount int             `json:"sourceFileCount"`
		EntityCounts    map[string]int  `json:"entityCounts"`
		Duplicates      int             `json:"duplicateIds"`
	}{
		Timestamp:       at.UTC().Format(time.RFC3339),
		Files:           res.Sources,
		SourceFileCount: len(res.Sources),
		EntityCounts:    res.Counts,
		Duplicates:      res.Duplicates,
	}))

	res.Document = out
	return res
}

// completeness counts fields holding something other than null, "", [] or {}
func completeness(r *Record) int {
	n := 0
	for _, key := range r.Keys() {
		raw, _ := r.Raw(key)
		switch string(bytes.TrimSpace(raw)) {
		case "null", `""`, "[]", "{}", "":
			continue
		}
		n++
	}
	return n
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}

func mustJSON(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return raw
}
