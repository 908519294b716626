package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mmcdole/longbox/internal/domain"
)

func sample(ids ...int64) []domain.Comic {
	out := make([]domain.Comic, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.Comic{
			ID:         id,
			Series:     "Saga",
			State:      domain.ComicStateStable,
			Characters: []string{"Alana", "Marko"},
		})
	}
	return out
}

func openStores(t *testing.T) map[string]*LibraryStore {
	t.Helper()
	disk, err := NewLibraryStore(t.TempDir(), "http://comics.local:7171/")
	require.NoError(t, err)
	t.Cleanup(func() { disk.Close() })

	mem, err := NewLibraryStore("", "")
	require.NoError(t, err)

	return map[string]*LibraryStore{"bolt": disk, "memory": mem}
}

func TestSaveBatchAndLoad(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			cursor := domain.SyncCursor{Timestamp: 1000, LastComicID: 3, ProcessingCount: 2}
			require.NoError(t, s.SaveBatch(sample(3, 1, 2), cursor))

			updated := sample(2)
			updated[0].State = domain.ComicStateDeleted
			next := domain.SyncCursor{Timestamp: 2000, LastComicID: 2}
			require.NoError(t, s.SaveBatch(updated, next))

			comics, got, err := s.Load()
			require.NoError(t, err)
			require.Equal(t, next, got)
			require.Len(t, comics, 3)
			require.Equal(t, []int64{1, 2, 3}, []int64{comics[0].ID, comics[1].ID, comics[2].ID})
			require.True(t, comics[1].IsDeleted())
			require.Equal(t, []string{"Alana", "Marko"}, comics[0].Characters)
			require.Equal(t, 3, s.Count())
		})
	}
}

func TestReset(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.SaveBatch(sample(1, 2), domain.SyncCursor{Timestamp: 5, LastComicID: 2}))

			require.NoError(t, s.Reset())

			comics, cursor, err := s.Load()
			require.NoError(t, err)
			require.Empty(t, comics)
			require.Equal(t, domain.SyncCursor{}, cursor)
			require.Zero(t, s.Count())
		})
	}
}

func TestReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	url := "https://comics.example.com"

	s, err := NewLibraryStore(dir, url)
	require.NoError(t, err)
	require.NoError(t, s.SaveBatch(sample(7), domain.SyncCursor{Timestamp: 9, LastComicID: 7}))
	require.NoError(t, s.Close())

	s, err = NewLibraryStore(dir, url+"/")
	require.NoError(t, err)
	defer s.Close()

	comics, cursor, err := s.Load()
	require.NoError(t, err)
	require.Len(t, comics, 1)
	require.Equal(t, int64(9), cursor.Timestamp)
}

func TestServersGetSeparateDatabases(t *testing.T) {
	dir := t.TempDir()

	a, err := NewLibraryStore(dir, "http://a.local")
	require.NoError(t, err)
	defer a.Close()
	b, err := NewLibraryStore(dir, "http://b.local")
	require.NoError(t, err)
	defer b.Close()

	require.NotEqual(t, a.Path(), b.Path())
	require.NoError(t, a.SaveBatch(sample(1), domain.SyncCursor{}))
	require.Zero(t, b.Count())
}

func TestMemoryStoreHasNoPath(t *testing.T) {
	s, err := NewLibraryStore("", "http://a.local")
	require.NoError(t, err)
	require.Empty(t, s.Path())
	require.NoError(t, s.Close())
}
