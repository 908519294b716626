package library

import "github.com/mmcdole/longbox/internal/domain"

// Merge reconciles an incoming batch into the held collection.
//
// The server is authoritative: an incoming comic replaces the held comic with
// the same ID in place, otherwise it is appended. Held comics missing from the
// batch are kept unchanged. current is never modified; an empty batch returns
// current itself so consumers can skip recomputation.
func Merge(current Collection, incoming []domain.Comic) Collection {
	if len(incoming) == 0 {
		return current
	}

	size := current.Len()
	comics := make([]domain.Comic, size, size+len(incoming))
	index := make(map[int64]int, size+len(incoming))
	if current.data != nil {
		copy(comics, current.data.comics)
		for id, pos := range current.data.index {
			index[id] = pos
		}
	}

	for _, comic := range incoming {
		if pos, ok := index[comic.ID]; ok {
			comics[pos] = comic
			continue
		}
		index[comic.ID] = len(comics)
		comics = append(comics, comic)
	}

	return Collection{data: &snapshot{comics: comics, index: index}}
}

// BatchIDs returns the distinct identities contained in a batch, in batch order.
func BatchIDs(batch []domain.Comic) []int64 {
	seen := make(map[int64]struct{}, len(batch))
	ids := make([]int64, 0, len(batch))
	for _, comic := range batch {
		if _, ok := seen[comic.ID]; ok {
			continue
		}
		seen[comic.ID] = struct{}{}
		ids = append(ids, comic.ID)
	}
	return ids
}
