package domain

// SyncCursor is the persisted resume point of a synchronization session.
type SyncCursor struct {
	Timestamp       int64 `json:"timestamp"`
	LastComicID     int64 `json:"lastComicId"`
	ProcessingCount int   `json:"processingCount"`
	RescanCount     int   `json:"rescanCount"`
}

// Store persists the held collection (BoltDB + memory).
// The session writes to it after every applied batch and on reset.
type Store interface {
	// Load returns every stored comic and the cursor they were synced up to
	Load() ([]Comic, SyncCursor, error)

	// SaveBatch writes changed comics and the new cursor atomically
	SaveBatch(comics []Comic, cursor SyncCursor) error

	// Reset removes all comics and zeroes the cursor atomically
	Reset() error

	Close() error
}
