package domain

import "context"

// UpdateRequest asks the server for comics changed after a watermark.
type UpdateRequest struct {
	Since       int64 // Watermark timestamp (unix milliseconds)
	LastComicID int64 // Watermark continuation id

	TimeoutSeconds      int // How long the server may wait for new data before answering empty
	MaximumResults      int // Batch-size cap
	LastProcessingCount int // Last known background-import queue depth
	LastRescanCount     int // Last known background-rescan queue depth
}

// UpdateBatch is one bounded response to an UpdateRequest.
type UpdateBatch struct {
	Comics           []Comic
	LastComicID      int64
	MostRecentUpdate *int64 // nil when the server has nothing newer to report
	MoreUpdates      bool
	ProcessingCount  int
	RescanCount      int
}

// LibraryClient: network operations against the library server
// (implemented by comicserver.Client).
type LibraryClient interface {
	// FetchUpdates returns the next batch of comics newer than the request watermark
	FetchUpdates(ctx context.Context, req UpdateRequest) (UpdateBatch, error)

	// DeleteComics flags comics for deletion server-side
	DeleteComics(ctx context.Context, ids []int64) error

	// GetComic returns the current server copy of a single comic
	GetComic(ctx context.Context, id int64) (*Comic, error)
}

// AuthResult is the outcome of a successful login
type AuthResult struct {
	Token    string
	Username string
}
