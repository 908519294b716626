package library

import (
	"sort"

	"github.com/mmcdole/longbox/internal/domain"
)

// Collection is an immutable set of comics keyed by ID.
// The zero value is an empty collection. Every change produces a new
// Collection, so two values can be compared cheaply with Same.
type Collection struct {
	data *snapshot
}

type snapshot struct {
	comics []domain.Comic
	index  map[int64]int // ID -> position in comics
}

// NewCollection builds a collection from comics in order.
// When an ID repeats, the later record wins and keeps the earlier position.
func NewCollection(comics []domain.Comic) Collection {
	return Merge(Collection{}, comics)
}

// Len returns the number of comics held.
func (c Collection) Len() int {
	if c.data == nil {
		return 0
	}
	return len(c.data.comics)
}

// Get returns the comic with the given ID.
func (c Collection) Get(id int64) (domain.Comic, bool) {
	if c.data == nil {
		return domain.Comic{}, false
	}
	i, ok := c.data.index[id]
	if !ok {
		return domain.Comic{}, false
	}
	return c.data.comics[i], true
}

// Contains reports whether a comic with the given ID is held.
func (c Collection) Contains(id int64) bool {
	if c.data == nil {
		return false
	}
	_, ok := c.data.index[id]
	return ok
}

// Comics returns a copy of the held comics in insertion order.
func (c Collection) Comics() []domain.Comic {
	if c.data == nil {
		return nil
	}
	out := make([]domain.Comic, len(c.data.comics))
	copy(out, c.data.comics)
	return out
}

// Each calls fn for every comic in insertion order until fn returns false.
func (c Collection) Each(fn func(domain.Comic) bool) {
	if c.data == nil {
		return
	}
	for _, comic := range c.data.comics {
		if !fn(comic) {
			return
		}
	}
}

// IDs returns the held identities in ascending order.
func (c Collection) IDs() []int64 {
	if c.data == nil {
		return nil
	}
	ids := make([]int64, 0, len(c.data.comics))
	for _, comic := range c.data.comics {
		ids = append(ids, comic.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Same reports whether both values are the same collection instance.
// Merge with an empty batch returns an instance that is Same as its input.
func (c Collection) Same(other Collection) bool {
	return c.data == other.data
}

// ActiveCount returns the number of comics not flagged as deleted.
func (c Collection) ActiveCount() int {
	n := 0
	c.Each(func(comic domain.Comic) bool {
		if !comic.IsDeleted() {
			n++
		}
		return true
	})
	return n
}
