package search

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mmcdole/longbox/internal/domain"
	"github.com/mmcdole/longbox/internal/library"
)

func fixture() []domain.Comic {
	return []domain.Comic{
		{ID: 1, Series: "Saga", IssueNumber: "1"},
		{ID: 2, Series: "Sandman", IssueNumber: "8"},
		{ID: 3, Series: "Batman", Volume: "2011", IssueNumber: "1"},
		{ID: 4, Filename: "unknown-scan.cbz"},
	}
}

func TestFilterEmptyQueryReturnsAll(t *testing.T) {
	idx := NewComicIndex(fixture())

	results := idx.Filter("  ")

	require.Len(t, results, 4)
	require.Equal(t, int64(4), results[3].ID)
	require.Equal(t, "unknown-scan.cbz", results[3].Title)
}

func TestFilterFuzzyMatches(t *testing.T) {
	idx := NewComicIndex(fixture())

	results := idx.Filter("SNDMN")

	require.Len(t, results, 1)
	require.Equal(t, int64(2), results[0].ID)
	require.Equal(t, "Sandman #8", results[0].Title)
	require.NotEmpty(t, results[0].MatchedIndexes)
}

func TestFilterRanksBetterMatchesFirst(t *testing.T) {
	idx := NewComicIndex(fixture())

	results := idx.Filter("man")

	require.Len(t, results, 2)
	ids := []int64{results[0].ID, results[1].ID}
	require.ElementsMatch(t, []int64{2, 3}, ids)
	require.GreaterOrEqual(t, results[0].Score, results[1].Score)
}

func TestFilterGroups(t *testing.T) {
	groups := []library.Group{
		{Value: "Spider-Man", Members: []int64{1}},
		{Value: "Superman", Members: []int64{2}},
		{Value: "Storm", Members: []int64{3}},
	}

	got := FilterGroups(groups, "SPDMAN")
	require.Len(t, got, 1)
	require.Equal(t, "Spider-Man", got[0].Value)

	got = FilterGroups(groups, "s")
	require.Len(t, got, 3)

	require.Equal(t, groups, FilterGroups(groups, ""))
	require.Empty(t, FilterGroups(groups, "xyz"))
}
