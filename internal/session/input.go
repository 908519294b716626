package session

import "github.com/mmcdole/longbox/internal/domain"

// Input is a transition input for Session.Dispatch.
// The set of inputs is closed; only types in this package implement it.
type Input interface {
	isInput()
}

// RequestSync asks for the next batch. Rejected while a fetch is in flight.
type RequestSync struct{}

// BatchReceived delivers a successful fetch response.
type BatchReceived struct {
	Epoch uint64
	Batch domain.UpdateBatch
}

// FetchFailed delivers a failed fetch.
type FetchFailed struct {
	Epoch uint64
	Err   error
}

// ResetLibrary clears the held collection and watermark.
type ResetLibrary struct{}

// SelectComics adds ids to the selection. Ids not held are ignored.
type SelectComics struct {
	IDs []int64
}

// DeselectComics removes ids from the selection.
type DeselectComics struct {
	IDs []int64
}

// ClearSelection empties the selection.
type ClearSelection struct{}

func (RequestSync) isInput()    {}
func (BatchReceived) isInput()  {}
func (FetchFailed) isInput()    {}
func (ResetLibrary) isInput()   {}
func (SelectComics) isInput()   {}
func (DeselectComics) isInput() {}
func (ClearSelection) isInput() {}
