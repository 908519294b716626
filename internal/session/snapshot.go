package session

import (
	"time"

	"github.com/mmcdole/longbox/internal/library"
)

// Change names what caused a listener notification.
type Change int

const (
	ChangeRestored Change = iota
	ChangeFetchStarted
	ChangeBatch
	ChangeFailed
	ChangeReset
	ChangeSelection
)

func (c Change) String() string {
	switch c {
	case ChangeRestored:
		return "restored"
	case ChangeFetchStarted:
		return "fetch_started"
	case ChangeBatch:
		return "batch"
	case ChangeFailed:
		return "failed"
	case ChangeReset:
		return "reset"
	case ChangeSelection:
		return "selection"
	default:
		return "unknown"
	}
}

// Snapshot is a read-only view of a session at one point in time.
type Snapshot struct {
	Change          Change
	State           State
	Collection      library.Collection
	Watermark       library.Watermark
	Indexes         library.Indexes
	Selected        []int64
	JustUpdated     []int64
	Received        int
	ProcessingCount int
	RescanCount     int
	Failure         *Failure
	LastSync        time.Time
}

// Listener is notified after the session changes.
type Listener interface {
	SessionChanged(Snapshot)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Snapshot)

func (f ListenerFunc) SessionChanged(s Snapshot) { f(s) }

// Snapshot returns the current read-only view.
func (s *Session) Snapshot() Snapshot {
	just := make([]int64, 0, len(s.justUpdated))
	for id := range s.justUpdated {
		just = append(just, id)
	}
	return Snapshot{
		State:           s.cycle.State(),
		Collection:      s.collection,
		Watermark:       s.watermark,
		Indexes:         s.indexes,
		Selected:        s.selection.IDs(),
		JustUpdated:     just,
		Received:        s.received,
		ProcessingCount: s.processingCount,
		RescanCount:     s.rescanCount,
		Failure:         s.lastFailure,
		LastSync:        s.lastSync,
	}
}

func (s *Session) State() State                   { return s.cycle.State() }
func (s *Session) Collection() library.Collection { return s.collection }
func (s *Session) Watermark() library.Watermark   { return s.watermark }
func (s *Session) Indexes() library.Indexes       { return s.indexes }
func (s *Session) Epoch() uint64                  { return s.epoch }
func (s *Session) Received() int                  { return s.received }
func (s *Session) LastFailure() *Failure          { return s.lastFailure }
func (s *Session) IsSelected(id int64) bool       { return s.selection.Contains(id) }
func (s *Session) SelectedIDs() []int64           { return s.selection.IDs() }
func (s *Session) SelectionCount() int            { return s.selection.Len() }
func (s *Session) PendingWork() (processing, rescan int) {
	return s.processingCount, s.rescanCount
}

// WasJustUpdated reports whether id arrived in the most recent batch.
func (s *Session) WasJustUpdated(id int64) bool {
	_, ok := s.justUpdated[id]
	return ok
}
