package search

import (
	"sort"
	"strings"

	lfuzzy "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/sahilm/fuzzy"

	"github.com/mmcdole/longbox/internal/domain"
	"github.com/mmcdole/longbox/internal/library"
)

// ComicIndex implements sahilm/fuzzy.Source for zero-allocation fuzzy matching
type ComicIndex struct {
	ids         []int64
	titles      []string
	lowerTitles []string // Pre-computed lowercase titles
}

// NewComicIndex indexes comics by display title, in the given order.
func NewComicIndex(comics []domain.Comic) *ComicIndex {
	idx := &ComicIndex{
		ids:         make([]int64, len(comics)),
		titles:      make([]string, len(comics)),
		lowerTitles: make([]string, len(comics)),
	}
	for i, c := range comics {
		idx.ids[i] = c.ID
		idx.titles[i] = c.DisplayTitle()
		idx.lowerTitles[i] = strings.ToLower(idx.titles[i])
	}
	return idx
}

// String returns the lowercase title at index i (implements fuzzy.Source)
func (idx *ComicIndex) String(i int) string { return idx.lowerTitles[i] }

// Len returns the number of comics (implements fuzzy.Source)
func (idx *ComicIndex) Len() int { return len(idx.ids) }

// Result is one matching comic with match metadata for highlighting
type Result struct {
	ID             int64
	Title          string
	MatchedIndexes []int // Character positions that matched
	Score          int   // Higher is better
}

// Filter returns comics whose title fuzzy-matches query, best first.
// An empty query returns every comic in index order.
func (idx *ComicIndex) Filter(query string) []Result {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		results := make([]Result, len(idx.ids))
		for i := range idx.ids {
			results[i] = Result{ID: idx.ids[i], Title: idx.titles[i]}
		}
		return results
	}

	matches := fuzzy.FindFrom(query, idx)
	results := make([]Result, len(matches))
	for i, m := range matches {
		results[i] = Result{
			ID:             idx.ids[m.Index],
			Title:          idx.titles[m.Index],
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		}
	}
	return results
}

// FilterGroups returns the groups whose value contains query as a fuzzy
// subsequence, ignoring case, closest first. Ties keep index order.
func FilterGroups(groups []library.Group, query string) []library.Group {
	query = strings.TrimSpace(query)
	if query == "" {
		return groups
	}

	values := make([]string, len(groups))
	for i, g := range groups {
		values[i] = g.Value
	}

	ranks := lfuzzy.RankFindFold(query, values)
	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].Distance != ranks[j].Distance {
			return ranks[i].Distance < ranks[j].Distance
		}
		return ranks[i].OriginalIndex < ranks[j].OriginalIndex
	})

	out := make([]library.Group, len(ranks))
	for i, r := range ranks {
		out[i] = groups[r.OriginalIndex]
	}
	return out
}
