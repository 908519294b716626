package domain

import (
	"fmt"
	"strings"
)

// ComicState is the server-side lifecycle state of a comic
type ComicState string

const (
	ComicStateAdded       ComicState = "ADDED"
	ComicStateUnprocessed ComicState = "UNPROCESSED"
	ComicStateStable      ComicState = "STABLE"
	ComicStateChanged     ComicState = "CHANGED"
	ComicStateDeleted     ComicState = "DELETED"
)

// Comic is an immutable snapshot of one library item at a point in time.
// Records are replaced wholesale, never edited in place.
type Comic struct {
	ID        int64      // Stable server identity
	UpdatedAt int64      // Unix milliseconds of the last server-side change
	State     ComicState // DELETED marks a deletion; the record stays in the collection

	Publisher   string
	Series      string
	Volume      string
	IssueNumber string
	Title       string
	Filename    string

	// Multi-valued grouping attributes
	Characters []string
	Teams      []string
	Locations  []string
	Stories    []string

	DuplicateCount int // Number of other comics the server considers duplicates
}

// IsDeleted reports whether the server has flagged the comic for deletion
func (c Comic) IsDeleted() bool {
	return c.State == ComicStateDeleted
}

// IsDuplicate reports whether the server found duplicates of this comic
func (c Comic) IsDuplicate() bool {
	return c.DuplicateCount > 0
}

// DisplayTitle returns "Series v2019 #12" style text, falling back to the
// filename for comics that have not been scraped yet.
func (c Comic) DisplayTitle() string {
	if c.Series == "" {
		if c.Title != "" {
			return c.Title
		}
		if c.Filename != "" {
			return c.Filename
		}
		return fmt.Sprintf("Comic %d", c.ID)
	}

	var b strings.Builder
	b.WriteString(c.Series)
	if c.Volume != "" {
		b.WriteString(" v")
		b.WriteString(c.Volume)
	}
	if c.IssueNumber != "" {
		b.WriteString(" #")
		b.WriteString(c.IssueNumber)
	}
	return b.String()
}
