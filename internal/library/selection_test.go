package library

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mmcdole/longbox/internal/domain"
)

func TestSelectionSetSemantics(t *testing.T) {
	s := NewSelection()

	require.Equal(t, 2, s.Add(3, 1))
	require.Equal(t, 0, s.Add(1))
	require.Equal(t, []int64{1, 3}, s.IDs())

	require.Equal(t, 1, s.Remove(3, 42))
	require.False(t, s.Contains(3))

	require.True(t, s.Toggle(8))
	require.False(t, s.Toggle(8))

	s.Clear()
	require.Equal(t, 0, s.Len())
}

func TestSelectionReconcile(t *testing.T) {
	deleted := comic(2, "b")
	deleted.State = domain.ComicStateDeleted
	c := NewCollection([]domain.Comic{comic(1, "a"), deleted})

	s := NewSelection()
	s.Add(1, 2, 3)

	dropped := s.Reconcile(c)

	require.Equal(t, []int64{2, 3}, dropped)
	require.Equal(t, []int64{1}, s.IDs())
}

func TestSelectionReconcileAgainstEmptyCollection(t *testing.T) {
	s := NewSelection()
	for i := int64(1); i <= 10; i++ {
		s.Add(i)
	}

	s.Reconcile(Collection{})

	require.Equal(t, 0, s.Len())
}
