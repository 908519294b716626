package session

import (
	"context"
	"time"

	"github.com/mmcdole/longbox/internal/domain"
)

// requestSlack is added to the server hold time for the client deadline.
const requestSlack = 10 * time.Second

// Fetch is one outbound request produced by RequestSync.
type Fetch struct {
	Epoch   uint64
	Request domain.UpdateRequest
}

// Timeout returns how long the caller should wait for the response.
func (f Fetch) Timeout() time.Duration {
	return time.Duration(f.Request.TimeoutSeconds)*time.Second + requestSlack
}

// Execute performs the request and returns the input to dispatch with the
// outcome. It is safe to call from any goroutine.
func (f Fetch) Execute(ctx context.Context, client domain.LibraryClient) Input {
	ctx, cancel := context.WithTimeout(ctx, f.Timeout())
	defer cancel()

	batch, err := client.FetchUpdates(ctx, f.Request)
	if err != nil {
		return FetchFailed{Epoch: f.Epoch, Err: err}
	}
	return BatchReceived{Epoch: f.Epoch, Batch: batch}
}
