package application

import (
	"context"
	"errors"
	"sort"

	"golang.org/x/sync/errgroup"

	"ies4ops/internal/domain"
	"ies4ops/internal/ports"
)

// summaryConcurrency bounds parallel file reads in Summaries
const summaryConcurrency = 4

// Presence is one catalog entry as found in a database file
type Presence struct {
	Equipment *domain.Equipment
	// RecordIDs are the records the entry's matcher recognises
	RecordIDs []string
	// TypeDefined is set when the kind's type definition exists
	TypeDefined bool
}

// Present reports whether any record matched
func (p Presence) Present() bool {
	return len(p.RecordIDs) > 0
}

// InspectResult is a read-only view of one database file
type InspectResult struct {
	Target
	Counts    map[string]int
	Equipment []Presence
	Issues    []domain.Issue
}

// Inspect loads a database file and reports which catalog entries it holds
func (r *Runner) Inspect(ctx context.Context, databaseCode string) (*InspectResult, error) {
	target, err := r.Resolve(databaseCode)
	if err != nil {
		return nil, err
	}

	doc, err := r.deps.Store.Load(target.DataFile)
	if err != nil {
		return nil, err
	}

	result := &InspectResult{
		Target: target,
		Counts: doc.Counts(),
		Issues: doc.Validate(),
	}
	for _, eq := range r.deps.Catalog.All() {
		result.Equipment = append(result.Equipment, presenceOf(doc, eq))
	}
	return result, nil
}

func presenceOf(doc *domain.Document, eq *domain.Equipment) Presence {
	p := Presence{Equipment: eq}
	for _, rec := range doc.Collection(eq.Collection) {
		if eq.Matcher.MatchesForDelete(rec) {
			p.RecordIDs = append(p.RecordIDs, rec.ID())
		}
	}
	if eq.TypeCollection != "" {
		for _, t := range doc.Collection(eq.TypeCollection) {
			if t.ID() == eq.Kind() {
				p.TypeDefined = true
				break
			}
		}
	}
	return p
}

// DatabaseSummary is the collection tally of one database, or the reason
// it could not be read
type DatabaseSummary struct {
	Target
	Counts map[string]int
	Total  int
	Err    error
}

// Summaries reads every registered database concurrently. Per-database
// failures are reported in the summary, not returned.
func (r *Runner) Summaries(ctx context.Context) ([]DatabaseSummary, error) {
	databases := r.deps.Registry.All()
	summaries := make([]DatabaseSummary, len(databases))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(summaryConcurrency)

	for i, db := range databases {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			summaries[i] = r.summarize(db.Code)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summaries, nil
}

func (r *Runner) summarize(code string) DatabaseSummary {
	target, err := r.Resolve(code)
	if err != nil {
		return DatabaseSummary{Err: err}
	}
	s := DatabaseSummary{Target: target}

	counts, err := r.deps.Store.Counts(target.DataFile)
	if err != nil {
		s.Err = err
		return s
	}
	s.Counts = counts
	for _, n := range counts {
		s.Total += n
	}
	return s
}

// Diagnostic gathers everything needed to explain why an operation
// could not find or use a database file
type Diagnostic struct {
	Target
	Probes   []ports.Probe
	File     *ports.FileStat
	FileErr  error
	Counts   map[string]int
	Issues   []domain.Issue
	LoadErr  error
	Backups  []ports.BackupInfo
	Service  *ServiceStatus
	Journal  bool
	Catalog  int
	Registry int
}

// Diagnose inspects the data directory, the database file and the
// companion service without modifying anything
func (r *Runner) Diagnose(ctx context.Context, databaseCode string) (*Diagnostic, error) {
	target, err := r.Resolve(databaseCode)
	if err != nil {
		return nil, err
	}

	d := &Diagnostic{
		Target:   target,
		Probes:   r.deps.Locator.Probes(),
		Journal:  r.deps.Journal != nil,
		Catalog:  len(r.deps.Catalog.All()),
		Registry: r.deps.Registry.Len(),
	}

	d.File, d.FileErr = r.deps.Store.Stat(target.DataFile)
	if d.FileErr == nil {
		doc, err := r.deps.Store.Load(target.DataFile)
		if err != nil {
			d.LoadErr = err
		} else {
			d.Counts = doc.Counts()
			d.Issues = doc.Validate()
		}
		d.Backups, _ = r.deps.Store.ListBackups(target.DataFile)
	}

	if r.deps.Companion != nil {
		d.Service, _ = r.ServiceStatus(ctx, target.Database.Code)
	}

	return d, nil
}

// Backups lists the backups of a database file, newest first
func (r *Runner) Backups(databaseCode string) (Target, []ports.BackupInfo, error) {
	target, err := r.Resolve(databaseCode)
	if err != nil {
		return Target{}, nil, err
	}
	backups, err := r.deps.Store.ListBackups(target.DataFile)
	if err != nil {
		return target, nil, err
	}
	return target, backups, nil
}

// History returns recent journal entries. An empty databaseCode lists
// every database.
func (r *Runner) History(ctx context.Context, limit int, databaseCode string) ([]domain.JournalEntry, error) {
	if r.deps.Journal == nil {
		return nil, ErrJournalDisabled
	}
	if databaseCode != "" {
		target, err := r.Resolve(databaseCode)
		if err != nil {
			return nil, err
		}
		databaseCode = target.Database.Code
	}
	return r.deps.Journal.Recent(ctx, limit, databaseCode)
}

// SortedCounts returns collection names in a stable order: known
// collections first, then the rest alphabetically
func SortedCounts(counts map[string]int) []string {
	rank := make(map[string]int, len(domain.KnownCollections))
	for i, key := range domain.KnownCollections {
		rank[key] = i
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, iKnown := rank[keys[i]]
		rj, jKnown := rank[keys[j]]
		switch {
		case iKnown && jKnown:
			return ri < rj
		case iKnown != jKnown:
			return iKnown
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}

// IsMissingFile reports whether err means the data file does not exist
func IsMissingFile(err error) bool {
	return errors.Is(err, ErrFileNotFound)
}
