package poller

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mmcdole/longbox/internal/domain"
	"github.com/mmcdole/longbox/internal/session"
)

type scriptedClient struct {
	mu      sync.Mutex
	batches []domain.UpdateBatch
	errs    []error
	calls   int
	onCall  func(n int)
}

var _ domain.LibraryClient = (*scriptedClient)(nil)

func (c *scriptedClient) FetchUpdates(context.Context, domain.UpdateRequest) (domain.UpdateBatch, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.calls
	c.calls++
	if c.onCall != nil {
		c.onCall(c.calls)
	}
	if n < len(c.errs) && c.errs[n] != nil {
		return domain.UpdateBatch{}, c.errs[n]
	}
	if n < len(c.batches) {
		return c.batches[n], nil
	}
	return domain.UpdateBatch{}, nil
}

func (c *scriptedClient) DeleteComics(context.Context, []int64) error { return nil }

func (c *scriptedClient) GetComic(context.Context, int64) (*domain.Comic, error) {
	return nil, domain.ErrComicNotFound
}

type fetchCounter struct {
	ok, failed int
}

func (f *fetchCounter) ObserveFetch(_ time.Duration, err error) {
	if err != nil {
		f.failed++
		return
	}
	f.ok++
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func batchOf(more bool, ids ...int64) domain.UpdateBatch {
	b := domain.UpdateBatch{MoreUpdates: more}
	for _, id := range ids {
		b.Comics = append(b.Comics, domain.Comic{ID: id, State: domain.ComicStateStable})
		b.LastComicID = id
	}
	ts := int64(len(ids)) * 1000
	b.MostRecentUpdate = &ts
	return b
}

func TestSyncUntilExhausted(t *testing.T) {
	client := &scriptedClient{batches: []domain.UpdateBatch{
		batchOf(true, 1, 2),
		batchOf(true, 3, 4),
		batchOf(false, 5),
	}}
	sess := session.New(session.Config{BatchSize: 2}, nil, testLogger())
	counter := &fetchCounter{}
	p := New(sess, client, NewSchedule(time.Millisecond, 0, time.Second), counter, testLogger())

	require.NoError(t, p.SyncUntilExhausted(context.Background()))

	require.Equal(t, 3, client.calls)
	require.Equal(t, 5, sess.Collection().Len())
	require.Equal(t, session.StateExhausted, sess.State())
	require.Equal(t, 3, counter.ok)
}

func TestSyncUntilExhaustedStopsOnFailure(t *testing.T) {
	client := &scriptedClient{
		batches: []domain.UpdateBatch{batchOf(true, 1)},
		errs:    []error{nil, domain.ErrAuthFailed},
	}
	sess := session.New(session.Config{}, nil, testLogger())
	p := New(sess, client, NewSchedule(time.Millisecond, 0, time.Second), nil, testLogger())

	err := p.SyncUntilExhausted(context.Background())

	var syncErr *SyncError
	require.True(t, errors.As(err, &syncErr))
	require.Equal(t, session.FailureTransport, syncErr.Kind)
	require.ErrorIs(t, err, domain.ErrAuthFailed)
	require.Equal(t, 1, sess.Collection().Len())
	require.Equal(t, session.StateIdle, sess.State())
}

func TestRunPollsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := &scriptedClient{
		batches: []domain.UpdateBatch{batchOf(false, 1)},
		onCall: func(n int) {
			if n == 3 {
				cancel()
			}
		},
	}
	sess := session.New(session.Config{}, nil, testLogger())
	p := New(sess, client, NewSchedule(time.Millisecond, 0, time.Second), nil, testLogger())

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("poller did not stop")
	}
	require.GreaterOrEqual(t, client.calls, 3)
}

func TestScheduleDelays(t *testing.T) {
	s := NewSchedule(10*time.Second, 0, 8*time.Second)

	require.Zero(t, s.AfterBatch(session.StateIdle, 5))
	require.Equal(t, 10*time.Second, s.AfterBatch(session.StateExhausted, 0))
	require.Equal(t, 10*time.Second, s.AfterBatch(session.StateIdle, 0))

	var last time.Duration
	for i := 0; i < 10; i++ {
		d := s.AfterFailure()
		require.Greater(t, d, time.Duration(0))
		require.LessOrEqual(t, d, 8*time.Second+4*time.Second) // MaxInterval plus randomization
		last = d
	}
	require.Greater(t, last, initialBackoff)

	// Success resets the backoff.
	s.AfterBatch(session.StateIdle, 1)
	require.LessOrEqual(t, s.AfterFailure(), initialBackoff*2)
}

func TestJitteredInterval(t *testing.T) {
	base := 10 * time.Second
	require.Equal(t, base, jitteredIntervalWithSample(base, 0, 0.9))
	require.Equal(t, 8*time.Second, jitteredIntervalWithSample(base, 0.2, 0))
	require.Equal(t, 12*time.Second, jitteredIntervalWithSample(base, 0.2, 1))
	require.Equal(t, base, jitteredIntervalWithSample(base, 0.2, 0.5))
	require.Zero(t, jitteredIntervalWithSample(0, 0.2, 0.5))
	require.Equal(t, 1.0, clampJitterRatio(3))
}
