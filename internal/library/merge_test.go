package library

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mmcdole/longbox/internal/domain"
)

func comic(id int64, series string) domain.Comic {
	return domain.Comic{ID: id, Series: series, State: domain.ComicStateStable}
}

func TestMergeIntoEmpty(t *testing.T) {
	got := Merge(Collection{}, []domain.Comic{comic(1, "a"), comic(2, "b"), comic(3, "c")})

	require.Equal(t, 3, got.Len())
	require.Equal(t, []int64{1, 2, 3}, got.IDs())
}

func TestMergeEmptyBatchReturnsSameCollection(t *testing.T) {
	current := NewCollection([]domain.Comic{comic(1, "a")})

	require.True(t, Merge(current, nil).Same(current))
	require.True(t, Merge(current, []domain.Comic{}).Same(current))
}

func TestMergeServerWins(t *testing.T) {
	current := NewCollection([]domain.Comic{comic(1, "old"), comic(2, "keep")})

	got := Merge(current, []domain.Comic{comic(1, "new")})

	c1, ok := got.Get(1)
	require.True(t, ok)
	require.Equal(t, "new", c1.Series)

	c2, ok := got.Get(2)
	require.True(t, ok)
	require.Equal(t, "keep", c2.Series)
	require.Equal(t, 2, got.Len())
}

func TestMergeDoesNotMutateCurrent(t *testing.T) {
	current := NewCollection([]domain.Comic{comic(1, "old")})

	got := Merge(current, []domain.Comic{comic(1, "new"), comic(2, "b")})

	c1, _ := current.Get(1)
	require.Equal(t, "old", c1.Series)
	require.Equal(t, 1, current.Len())
	require.False(t, got.Same(current))
}

func TestMergeIsIdempotent(t *testing.T) {
	current := NewCollection([]domain.Comic{comic(1, "a"), comic(5, "e")})
	batch := []domain.Comic{comic(5, "E"), comic(7, "g")}

	once := Merge(current, batch)
	twice := Merge(once, batch)

	require.Equal(t, once.Comics(), twice.Comics())
}

func TestMergeRetainsDeletedRecords(t *testing.T) {
	current := NewCollection([]domain.Comic{comic(1, "a")})
	deleted := comic(1, "a")
	deleted.State = domain.ComicStateDeleted

	got := Merge(current, []domain.Comic{deleted})

	c1, ok := got.Get(1)
	require.True(t, ok)
	require.True(t, c1.IsDeleted())
	require.Equal(t, 0, got.ActiveCount())
}

func TestMergeDuplicateInBatchLaterWins(t *testing.T) {
	got := Merge(Collection{}, []domain.Comic{comic(4, "first"), comic(4, "second")})

	require.Equal(t, 1, got.Len())
	c, _ := got.Get(4)
	require.Equal(t, "second", c.Series)
}

func TestMergePreservesInsertionOrder(t *testing.T) {
	current := NewCollection([]domain.Comic{comic(9, "i"), comic(3, "c")})

	got := Merge(current, []domain.Comic{comic(3, "C"), comic(1, "a")})

	var order []int64
	got.Each(func(c domain.Comic) bool {
		order = append(order, c.ID)
		return true
	})
	require.Equal(t, []int64{9, 3, 1}, order)
}

func TestBatchIDs(t *testing.T) {
	ids := BatchIDs([]domain.Comic{comic(3, ""), comic(1, ""), comic(3, "")})
	require.Equal(t, []int64{3, 1}, ids)
}
