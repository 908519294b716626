package library

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mmcdole/longbox/internal/domain"
)

func ts(v int64) *int64 { return &v }

func TestWatermarkAdvance(t *testing.T) {
	tests := []struct {
		name    string
		current Watermark
		batch   domain.UpdateBatch
		want    Watermark
	}{
		{
			name:    "first batch sets both fields",
			current: Watermark{},
			batch:   domain.UpdateBatch{MostRecentUpdate: ts(1000), LastComicID: 3},
			want:    Watermark{Timestamp: 1000, LastComicID: 3},
		},
		{
			name:    "newer timestamp takes response id",
			current: Watermark{Timestamp: 1000, LastComicID: 50},
			batch:   domain.UpdateBatch{MostRecentUpdate: ts(2000), LastComicID: 7},
			want:    Watermark{Timestamp: 2000, LastComicID: 7},
		},
		{
			name:    "newer timestamp without id keeps current id",
			current: Watermark{Timestamp: 1000, LastComicID: 50},
			batch:   domain.UpdateBatch{MostRecentUpdate: ts(2000)},
			want:    Watermark{Timestamp: 2000, LastComicID: 50},
		},
		{
			name:    "null timestamp leaves timestamp",
			current: Watermark{Timestamp: 1000, LastComicID: 50},
			batch:   domain.UpdateBatch{LastComicID: 60},
			want:    Watermark{Timestamp: 1000, LastComicID: 60},
		},
		{
			name:    "equal timestamp never lowers id",
			current: Watermark{Timestamp: 1000, LastComicID: 50},
			batch:   domain.UpdateBatch{MostRecentUpdate: ts(1000), LastComicID: 10},
			want:    Watermark{Timestamp: 1000, LastComicID: 50},
		},
		{
			name:    "stale response is ignored",
			current: Watermark{Timestamp: 5000, LastComicID: 50},
			batch:   domain.UpdateBatch{MostRecentUpdate: ts(1000), LastComicID: 99},
			want:    Watermark{Timestamp: 5000, LastComicID: 50},
		},
		{
			name:    "empty batch leaves watermark",
			current: Watermark{Timestamp: 5000, LastComicID: 50},
			batch:   domain.UpdateBatch{},
			want:    Watermark{Timestamp: 5000, LastComicID: 50},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.current.Advance(tt.batch)
			require.Equal(t, tt.want, got)
			require.GreaterOrEqual(t, got.Compare(tt.current), 0)
		})
	}
}

func TestWatermarkNeverRegressesAcrossSequence(t *testing.T) {
	batches := []domain.UpdateBatch{
		{MostRecentUpdate: ts(100), LastComicID: 1},
		{MostRecentUpdate: ts(300), LastComicID: 2},
		{MostRecentUpdate: ts(200), LastComicID: 9},
		{MostRecentUpdate: nil, LastComicID: 1},
		{MostRecentUpdate: ts(300), LastComicID: 5},
	}

	var w Watermark
	for _, b := range batches {
		next := w.Advance(b)
		require.GreaterOrEqual(t, next.Compare(w), 0)
		w = next
	}
	require.Equal(t, Watermark{Timestamp: 300, LastComicID: 5}, w)
}

func TestWatermarkString(t *testing.T) {
	require.Equal(t, "never", Watermark{}.String())
	require.Equal(t, "1970-01-01T00:00:01Z (#4)", Watermark{Timestamp: 1000, LastComicID: 4}.String())
}
