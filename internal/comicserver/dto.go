package comicserver

// UpdatesRequest is the body of POST /api/library/updates.
// The watermark itself travels in the query string.
type UpdatesRequest struct {
	Timeout             int `json:"timeout"`
	MaximumResults      int `json:"maximumResults"`
	LastProcessingCount int `json:"lastProcessingCount"`
	LastRescanCount     int `json:"lastRescanCount"`
}

// UpdatesResponse is one batch of changed comics
type UpdatesResponse struct {
	Comics           []ComicDTO `json:"comics"`
	LastComicID      int64      `json:"lastComicId"`
	MostRecentUpdate *int64     `json:"mostRecentUpdate"` // null when nothing newer exists
	MoreUpdates      bool       `json:"moreUpdates"`
	ProcessingCount  int        `json:"processingCount"`
	RescanCount      int        `json:"rescanCount"`
}

// ComicDTO is a comic as the server serializes it
type ComicDTO struct {
	ID             int64    `json:"id"`
	ComicState     string   `json:"comicState"`
	LastModifiedOn int64    `json:"lastModifiedOn"` // unix milliseconds
	Publisher      string   `json:"publisher,omitempty"`
	Series         string   `json:"series,omitempty"`
	Volume         string   `json:"volume,omitempty"`
	IssueNumber    string   `json:"issueNumber,omitempty"`
	Title          string   `json:"title,omitempty"`
	Filename       string   `json:"filename,omitempty"`
	Characters     []string `json:"characters,omitempty"`
	Teams          []string `json:"teams,omitempty"`
	Locations      []string `json:"locations,omitempty"`
	Stories        []string `json:"stories,omitempty"`
	DuplicateCount int      `json:"duplicateCount,omitempty"`
}

// DeleteRequest is the body of POST /api/comics/delete
type DeleteRequest struct {
	IDs []int64 `json:"ids"`
}

// LoginRequest is the body of POST /api/auth/login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer token for later requests
type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// ErrorResponse is the JSON error body the server sends with non-2xx statuses
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StatusResponse is returned by GET /api/status
type StatusResponse struct {
	Version string `json:"version"`
}
