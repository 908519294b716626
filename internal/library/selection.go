package library

import "sort"

// Selection is the set of comic IDs chosen for bulk operations.
// It is not persisted; its lifecycle follows the held collection.
type Selection struct {
	ids map[int64]struct{}
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{ids: make(map[int64]struct{})}
}

// Add selects ids. Already selected ids are left as they are.
// Returns the number of newly selected ids.
func (s *Selection) Add(ids ...int64) int {
	added := 0
	for _, id := range ids {
		if _, ok := s.ids[id]; ok {
			continue
		}
		s.ids[id] = struct{}{}
		added++
	}
	return added
}

// Remove deselects ids and returns how many were selected.
func (s *Selection) Remove(ids ...int64) int {
	removed := 0
	for _, id := range ids {
		if _, ok := s.ids[id]; ok {
			delete(s.ids, id)
			removed++
		}
	}
	return removed
}

// Toggle flips the selection of id and reports whether it is now selected.
func (s *Selection) Toggle(id int64) bool {
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// Clear deselects everything.
func (s *Selection) Clear() {
	s.ids = make(map[int64]struct{})
}

// Contains reports whether id is selected.
func (s *Selection) Contains(id int64) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of selected ids.
func (s *Selection) Len() int {
	return len(s.ids)
}

// IDs returns the selected ids in ascending order.
func (s *Selection) IDs() []int64 {
	ids := make([]int64, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Reconcile drops every id that is no longer held by the collection or that
// the server has flagged as deleted. Returns the dropped ids in ascending order.
func (s *Selection) Reconcile(c Collection) []int64 {
	var dropped []int64
	for id := range s.ids {
		comic, ok := c.Get(id)
		if !ok || comic.IsDeleted() {
			delete(s.ids, id)
			dropped = append(dropped, id)
		}
	}
	sort.Slice(dropped, func(i, j int) bool { return dropped[i] < dropped[j] })
	return dropped
}
