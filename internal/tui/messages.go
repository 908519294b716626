package tui

import (
	"time"

	"github.com/mmcdole/longbox/internal/domain"
	"github.com/mmcdole/longbox/internal/session"
)

// Message types for the TUI

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// SyncRequestMsg asks for the next update request. Scheduled polls carry the
// sequence number they were scheduled with; a manual request uses zero.
type SyncRequestMsg struct {
	Seq int
}

// UpdatesLoadedMsg carries a successful update response back to the loop
type UpdatesLoadedMsg struct {
	Input    session.BatchReceived
	Duration time.Duration
}

// UpdatesFailedMsg carries a failed update request back to the loop
type UpdatesFailedMsg struct {
	Input    session.FetchFailed
	Duration time.Duration
}

// ResetLibraryMsg discards the local library and starts over
type ResetLibraryMsg struct{}

// ComicsDeletedMsg reports the outcome of a delete request
type ComicsDeletedMsg struct {
	IDs []int64
	Err error
}

// ComicDetailMsg carries the server copy of the open comic
type ComicDetailMsg struct {
	Comic *domain.Comic
	Err   error
}

// StatusMsg shows a transient status line
type StatusMsg struct {
	Message string
	IsError bool
}

// ClearStatusMsg clears the status line
type ClearStatusMsg struct{}

// TickMsg is sent periodically to animate the spinner
type TickMsg struct{}
