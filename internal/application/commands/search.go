package commands

import (
	"context"
	"sort"
	"strings"

	"ies4ops/internal/domain"
	"ies4ops/internal/ports"
)

// SearchResult is a catalog entry with a relevance score
type SearchResult struct {
	Equipment *domain.Equipment
	// MatchedText is the key, display name or alias that scored best
	MatchedText string
	Score       int
}

// SearchCommand searches the equipment catalog with fuzzy matching
type SearchCommand struct {
	catalog ports.EquipmentCatalog
	Query   string
}

// NewSearchCommand creates a new SearchCommand
func NewSearchCommand(catalog ports.EquipmentCatalog, query string) *SearchCommand {
	return &SearchCommand{
		catalog: catalog,
		Query:   strings.TrimSpace(query),
	}
}

// Execute returns scored, sorted entries. Queries shorter than two
// characters return everything in key order.
func (c *SearchCommand) Execute(ctx context.Context) ([]SearchResult, error) {
	all := c.catalog.All()
	if len(c.Query) < 2 {
		out := make([]SearchResult, 0, len(all))
		for _, eq := range all {
			out = append(out, SearchResult{Equipment: eq, MatchedText: eq.Key})
		}
		return out, nil
	}
	return FuzzySort(all, c.Query), nil
}

// Suggest returns up to n catalog keys close to query, best first
func Suggest(catalog ports.EquipmentCatalog, query string, n int) []string {
	var keys []string
	for _, r := range FuzzySort(catalog.All(), query) {
		if len(keys) == n {
			break
		}
		keys = append(keys, r.Equipment.Key)
	}
	return keys
}

// FuzzyScore calculates a relevance score for how well target matches query
func FuzzyScore(target, query string) int {
	target = strings.ToLower(target)
	query = strings.ToLower(query)

	if len(query) == 0 {
		return 0
	}

	if strings.Contains(target, query) {
		score := 100
		if strings.HasPrefix(target, query) {
			score += 50
		}
		return score
	}

	// chars in order
	score := 0
	queryIdx := 0
	prevMatchIdx := -1

	for i := 0; i < len(target) && queryIdx < len(query); i++ {
		if target[i] == query[queryIdx] {
			if prevMatchIdx == i-1 {
				score += 10
			}
			if i == 0 {
				score += 15
			}
			if i > 0 && isSeparator(target[i-1]) {
				score += 10
			}
			score++
			prevMatchIdx = i
			queryIdx++
		}
	}

	if queryIdx == len(query) {
		return score
	}
	return 0
}

func isSeparator(b byte) bool {
	switch b {
	case ' ', '.', '-', '_', '(', '/':
		return true
	}
	return false
}

// FuzzySort scores entries on their key, display name and aliases and
// returns those that match, best first
func FuzzySort(entries []*domain.Equipment, query string) []SearchResult {
	scored := make([]SearchResult, 0, len(entries))

	for _, eq := range entries {
		best, matched := 0, ""
		for _, text := range searchTexts(eq) {
			if s := FuzzyScore(text, query); s > best {
				best, matched = s, text
			}
		}
		if best > 0 {
			scored = append(scored, SearchResult{Equipment: eq, MatchedText: matched, Score: best})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Equipment.Key < scored[j].Equipment.Key
	})

	return scored
}

func searchTexts(eq *domain.Equipment) []string {
	texts := []string{eq.Key, eq.DisplayName, eq.Kind(), eq.Category}
	aliases := make([]string, 0, eq.Matcher.NameAliases.Len()+eq.Matcher.IdentifierAliases.Len())
	for a := range eq.Matcher.NameAliases {
		aliases = append(aliases, a)
	}
	for a := range eq.Matcher.IdentifierAliases {
		aliases = append(aliases, a)
	}
	// map order would make ties between aliases flap
	sort.Strings(aliases)
	return append(texts, aliases...)
}
