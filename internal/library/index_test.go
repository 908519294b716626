package library

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mmcdole/longbox/internal/domain"
)

func indexFixture() Collection {
	return NewCollection([]domain.Comic{
		{ID: 1, Publisher: "Marvel", Series: "X-Men", Characters: []string{"Storm", "Wolverine"}, Teams: []string{"X-Men"}},
		{ID: 2, Publisher: "marvel", Series: "X-Men", Characters: []string{"Wolverine", "Wolverine"}},
		{ID: 3, Publisher: "DC", Series: "Batman", Characters: []string{"Batman"}, Stories: []string{" "}},
		{ID: 4, Publisher: "", Series: "  ", Characters: nil},
	})
}

func TestIndexSingleValued(t *testing.T) {
	groups := Index(indexFixture(), AttributePublisher)

	require.Equal(t, []Group{
		{Value: "DC", Members: []int64{3}},
		{Value: "Marvel", Members: []int64{1}},
		{Value: "marvel", Members: []int64{2}},
		{Value: Unnamed, Members: []int64{4}},
	}, groups)
}

func TestIndexMultiValued(t *testing.T) {
	groups := Index(indexFixture(), AttributeCharacters)

	require.Equal(t, []Group{
		{Value: "Batman", Members: []int64{3}},
		{Value: "Storm", Members: []int64{1}},
		{Value: "Wolverine", Members: []int64{1, 2}},
		{Value: Unnamed, Members: []int64{4}},
	}, groups)
}

func TestIndexTotality(t *testing.T) {
	c := indexFixture()

	for _, attr := range Attributes {
		groups := Index(c, attr)
		total := 0
		seen := make(map[int64]int)
		for _, g := range groups {
			total += g.Count()
			for _, id := range g.Members {
				seen[id]++
			}
		}

		require.Len(t, seen, c.Len(), attr.String())
		if attr.MultiValued() {
			require.GreaterOrEqual(t, total, c.Len(), attr.String())
		} else {
			require.Equal(t, c.Len(), total, attr.String())
		}
	}
}

func TestIndexIsDeterministic(t *testing.T) {
	c := indexFixture()
	for _, attr := range Attributes {
		require.Equal(t, Index(c, attr), Index(c, attr))
	}
}

func TestIndexEmptyCollection(t *testing.T) {
	require.Empty(t, Index(Collection{}, AttributeSeries))
}

func TestBuildIndexes(t *testing.T) {
	idx := BuildIndexes(indexFixture())

	g, ok := idx.Find(AttributeSeries, "X-Men")
	require.True(t, ok)
	require.Equal(t, 2, g.Count())

	g, ok = idx.Find(AttributeStories, Unnamed)
	require.True(t, ok)
	require.Equal(t, []int64{1, 2, 3, 4}, g.Members)
}

func TestParseAttribute(t *testing.T) {
	a, err := ParseAttribute("Series")
	require.NoError(t, err)
	require.Equal(t, AttributeSeries, a)

	a, err = ParseAttribute("team")
	require.NoError(t, err)
	require.Equal(t, AttributeTeams, a)

	_, err = ParseAttribute("genre")
	require.Error(t, err)
}
