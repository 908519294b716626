package poller

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mmcdole/longbox/internal/domain"
	"github.com/mmcdole/longbox/internal/session"
)

// FetchObserver is told how long each update request took
type FetchObserver interface {
	ObserveFetch(d time.Duration, err error)
}

// Poller drives a session from a single goroutine without a UI.
type Poller struct {
	sess     *session.Session
	client   domain.LibraryClient
	schedule *Schedule
	observer FetchObserver
	logger   *slog.Logger
}

// New creates a poller. observer may be nil.
func New(sess *session.Session, client domain.LibraryClient, schedule *Schedule, observer FetchObserver, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		sess:     sess,
		client:   client,
		schedule: schedule,
		observer: observer,
		logger:   logger,
	}
}

// Step runs one fetch cycle and returns the delay before the next one and
// the fetch error, if any.
func (p *Poller) Step(ctx context.Context) (time.Duration, error) {
	res, err := p.sess.Dispatch(ctx, session.RequestSync{})
	if err != nil {
		return p.schedule.AfterFailure(), err
	}

	start := time.Now()
	in := res.Fetch.Execute(ctx, p.client)
	var (
		fetchErr error
		received int
	)
	switch in := in.(type) {
	case session.FetchFailed:
		fetchErr = in.Err
	case session.BatchReceived:
		received = len(in.Batch.Comics)
	}
	if p.observer != nil {
		p.observer.ObserveFetch(time.Since(start), fetchErr)
	}

	if _, err := p.sess.Dispatch(ctx, in); err != nil {
		return p.schedule.AfterFailure(), err
	}
	if fetchErr != nil {
		return p.schedule.AfterFailure(), fetchErr
	}
	return p.schedule.AfterBatch(p.sess.State(), received), nil
}

// Run polls until ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poller stopping", "reason", ctx.Err())
			return nil
		case <-timer.C:
			delay, err := p.Step(ctx)
			if err != nil && ctx.Err() == nil {
				p.logger.Warn("sync cycle failed", "error", err, "retry_in", delay)
			}
			timer.Reset(delay)
		}
	}
}

// SyncUntilExhausted fetches batches until the server reports nothing more
// pending. It stops at the first failure.
func (p *Poller) SyncUntilExhausted(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		delay, err := p.Step(ctx)
		if err != nil {
			if errors.Is(err, session.ErrFetchInFlight) {
				return err
			}
			if f := p.sess.LastFailure(); f != nil {
				return &SyncError{Kind: f.Kind, Err: err}
			}
			return err
		}
		if p.sess.State() == session.StateExhausted {
			return nil
		}
		if err := wait(ctx, delay); err != nil {
			return err
		}
	}
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SyncError is returned by SyncUntilExhausted when a fetch fails
type SyncError struct {
	Kind session.FailureKind
	Err  error
}

func (e *SyncError) Error() string {
	return e.Kind.Message() + ": " + e.Err.Error()
}

func (e *SyncError) Unwrap() error {
	return e.Err
}
