package library

import (
	"fmt"
	"time"

	"github.com/mmcdole/longbox/internal/domain"
)

// Watermark marks the point up to which the client is known to be caught up.
// Ordering is lexicographic on (Timestamp, LastComicID).
type Watermark struct {
	Timestamp   int64 // Unix milliseconds
	LastComicID int64
}

// IsZero reports whether nothing has been synchronized yet.
func (w Watermark) IsZero() bool {
	return w.Timestamp == 0 && w.LastComicID == 0
}

// Compare returns -1, 0 or 1 as w is before, equal to or after other.
func (w Watermark) Compare(other Watermark) int {
	switch {
	case w.Timestamp < other.Timestamp:
		return -1
	case w.Timestamp > other.Timestamp:
		return 1
	case w.LastComicID < other.LastComicID:
		return -1
	case w.LastComicID > other.LastComicID:
		return 1
	default:
		return 0
	}
}

// Advance returns the watermark after applying a batch. It never moves
// backwards: a late response carrying an older timestamp leaves it unchanged.
func (w Watermark) Advance(batch domain.UpdateBatch) Watermark {
	if batch.MostRecentUpdate != nil {
		ts := *batch.MostRecentUpdate
		if ts < w.Timestamp {
			return w
		}
		if ts > w.Timestamp {
			next := Watermark{Timestamp: ts, LastComicID: w.LastComicID}
			if batch.LastComicID != 0 {
				next.LastComicID = batch.LastComicID
			}
			return next
		}
	}

	if batch.LastComicID > w.LastComicID {
		return Watermark{Timestamp: w.Timestamp, LastComicID: batch.LastComicID}
	}
	return w
}

// Time returns the watermark timestamp as a time.Time.
func (w Watermark) Time() time.Time {
	return time.UnixMilli(w.Timestamp)
}

func (w Watermark) String() string {
	if w.IsZero() {
		return "never"
	}
	return fmt.Sprintf("%s (#%d)", w.Time().UTC().Format(time.RFC3339), w.LastComicID)
}
