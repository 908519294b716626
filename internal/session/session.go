package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmcdole/longbox/internal/domain"
	"github.com/mmcdole/longbox/internal/library"
)

var (
	// ErrFetchInFlight is returned when a sync is requested while one is running.
	ErrFetchInFlight = errors.New("fetch already in flight")
	// ErrStaleResponse is returned for a response belonging to a reset or closed session.
	ErrStaleResponse = errors.New("response belongs to a previous session")
	// ErrClosed is returned by Dispatch after Close.
	ErrClosed = errors.New("session closed")
)

const (
	defaultBatchSize      = 100
	defaultTimeoutSeconds = 30
)

// Config holds the per-request budget sent to the server.
type Config struct {
	BatchSize      int // maximum comics per response
	TimeoutSeconds int // how long the server may hold the request open
}

// Result reports what a dispatched input did.
type Result struct {
	// Fetch is set when RequestSync started a fetch. The caller runs it
	// and dispatches the input it returns.
	Fetch *Fetch
	// Changed is true when the held collection changed.
	Changed bool
	// Failure is set when FetchFailed was applied.
	Failure *Failure
}

// Session owns one synchronized view of the server library.
//
// All methods must be called from a single goroutine. The Bubble Tea update
// loop or the headless poller is that goroutine; network calls run elsewhere
// and report back through Dispatch.
type Session struct {
	cfg    Config
	cycle  *fetchCycle
	store  domain.Store
	logger *slog.Logger

	collection library.Collection
	watermark  library.Watermark
	selection  *library.Selection
	indexes    library.Indexes

	received        int
	processingCount int
	rescanCount     int
	justUpdated     map[int64]struct{}
	lastFailure     *Failure
	cacheStale      bool
	lastSync        time.Time

	epoch     uint64
	closed    bool
	listeners []Listener
}

// New creates an empty session. store may be nil for a memory-only session.
func New(cfg Config, store domain.Store, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = defaultTimeoutSeconds
	}

	s := &Session{
		cfg:         cfg,
		store:       store,
		logger:      logger,
		selection:   library.NewSelection(),
		indexes:     library.BuildIndexes(library.Collection{}),
		justUpdated: make(map[int64]struct{}),
	}
	s.cycle = newFetchCycle(func(from, to State) {
		s.logger.Debug("fetch cycle transition", "from", from, "to", to)
	})
	return s
}

// AddListener registers l to be called after every state change.
func (s *Session) AddListener(l Listener) {
	s.listeners = append(s.listeners, l)
}

// Restore loads the persisted collection and cursor so the next request
// resumes from the stored watermark.
func (s *Session) Restore() error {
	if s.store == nil {
		return nil
	}
	comics, cursor, err := s.store.Load()
	if err != nil {
		s.logger.Error("failed to load library cache", "error", err)
		return fmt.Errorf("load library cache: %w", err)
	}

	s.collection = library.NewCollection(comics)
	s.watermark = library.Watermark{Timestamp: cursor.Timestamp, LastComicID: cursor.LastComicID}
	s.processingCount = cursor.ProcessingCount
	s.rescanCount = cursor.RescanCount
	s.reconcile()

	s.logger.Info("restored library cache", "count", s.collection.Len(), "watermark", s.watermark.String())
	s.notify(ChangeRestored)
	return nil
}

// Dispatch applies one transition input.
func (s *Session) Dispatch(ctx context.Context, in Input) (Result, error) {
	if s.closed {
		return Result{}, ErrClosed
	}

	switch in := in.(type) {
	case RequestSync:
		return s.requestSync(ctx)
	case BatchReceived:
		return s.applyBatch(ctx, in)
	case FetchFailed:
		return s.applyFailure(ctx, in)
	case ResetLibrary:
		return s.reset(ctx)
	case SelectComics:
		return s.selectComics(in.IDs), nil
	case DeselectComics:
		s.selection.Remove(in.IDs...)
		s.notify(ChangeSelection)
		return Result{}, nil
	case ClearSelection:
		s.selection.Clear()
		s.notify(ChangeSelection)
		return Result{}, nil
	default:
		return Result{}, fmt.Errorf("unhandled session input %T", in)
	}
}

// Close discards any in-flight response. The store is owned by the caller.
func (s *Session) Close() {
	s.closed = true
	s.epoch++
}

func (s *Session) requestSync(ctx context.Context) (Result, error) {
	if !s.cycle.canRequest() {
		return Result{}, ErrFetchInFlight
	}
	if err := s.cycle.fire(ctx, eventRequest); err != nil {
		return Result{}, err
	}

	fetch := &Fetch{
		Epoch: s.epoch,
		Request: domain.UpdateRequest{
			Since:               s.watermark.Timestamp,
			LastComicID:         s.watermark.LastComicID,
			TimeoutSeconds:      s.cfg.TimeoutSeconds,
			MaximumResults:      s.cfg.BatchSize,
			LastProcessingCount: s.processingCount,
			LastRescanCount:     s.rescanCount,
		},
	}
	s.logger.Debug("requesting updates", "watermark", s.watermark.String(), "max", s.cfg.BatchSize)
	s.notify(ChangeFetchStarted)
	return Result{Fetch: fetch}, nil
}

func (s *Session) applyBatch(ctx context.Context, in BatchReceived) (Result, error) {
	if in.Epoch != s.epoch || s.cycle.State() != StateFetching {
		s.logger.Debug("discarding stale batch", "epoch", in.Epoch, "current", s.epoch)
		return Result{}, ErrStaleResponse
	}

	batch := in.Batch
	merged := library.Merge(s.collection, batch.Comics)
	changed := !merged.Same(s.collection)

	s.collection = merged
	s.watermark = s.watermark.Advance(batch)
	s.received += len(batch.Comics)
	s.processingCount = batch.ProcessingCount
	s.rescanCount = batch.RescanCount
	s.lastFailure = nil
	s.lastSync = time.Now()

	s.justUpdated = make(map[int64]struct{}, len(batch.Comics))
	for _, id := range library.BatchIDs(batch.Comics) {
		s.justUpdated[id] = struct{}{}
	}

	if changed {
		s.reconcile()
	}

	event := eventMore
	if !batch.MoreUpdates && batch.ProcessingCount == 0 && batch.RescanCount == 0 {
		event = eventDrained
	}
	if err := s.cycle.fire(ctx, event); err != nil {
		return Result{}, err
	}

	s.persist(batch.Comics)

	s.logger.Info("applied update batch",
		"count", len(batch.Comics),
		"total", s.collection.Len(),
		"watermark", s.watermark.String(),
		"processing", batch.ProcessingCount,
		"rescan", batch.RescanCount,
		"state", s.cycle.State())
	s.notify(ChangeBatch)
	return Result{Changed: changed}, nil
}

func (s *Session) applyFailure(ctx context.Context, in FetchFailed) (Result, error) {
	if in.Epoch != s.epoch || s.cycle.State() != StateFetching {
		s.logger.Debug("discarding stale failure", "epoch", in.Epoch, "current", s.epoch, "error", in.Err)
		return Result{}, ErrStaleResponse
	}

	failure := &Failure{Kind: Classify(in.Err), Err: in.Err, At: time.Now()}
	s.lastFailure = failure
	s.justUpdated = make(map[int64]struct{})
	if err := s.cycle.fire(ctx, eventFail); err != nil {
		return Result{}, err
	}

	s.logger.Error("failed to fetch updates", "error", in.Err, "kind", failure.Kind)
	s.notify(ChangeFailed)
	return Result{Failure: failure}, nil
}

func (s *Session) reset(ctx context.Context) (Result, error) {
	s.epoch++
	if err := s.cycle.reset(ctx); err != nil {
		return Result{}, err
	}

	changed := s.collection.Len() > 0
	s.collection = library.Collection{}
	s.watermark = library.Watermark{}
	s.received = 0
	s.processingCount = 0
	s.rescanCount = 0
	s.lastFailure = nil
	s.lastSync = time.Time{}
	s.justUpdated = make(map[int64]struct{})
	s.reconcile()

	err := s.resetStore()

	s.logger.Info("library reset")
	s.notify(ChangeReset)
	return Result{Changed: changed}, err
}

// resetStore clears the cache. On failure the cache is marked stale and no
// batch is written on top of it until a later reset succeeds.
func (s *Session) resetStore() error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Reset(); err != nil {
		s.cacheStale = true
		s.logger.Error("failed to reset library cache", "error", err)
		return fmt.Errorf("reset library cache: %w", err)
	}
	s.cacheStale = false
	return nil
}

func (s *Session) selectComics(ids []int64) Result {
	for _, id := range ids {
		if comic, ok := s.collection.Get(id); ok && !comic.IsDeleted() {
			s.selection.Add(id)
		}
	}
	s.notify(ChangeSelection)
	return Result{}
}

// reconcile recomputes everything derived from the collection.
func (s *Session) reconcile() {
	if dropped := s.selection.Reconcile(s.collection); len(dropped) > 0 {
		s.logger.Debug("dropped selection", "count", len(dropped))
	}
	s.indexes = library.BuildIndexes(s.collection)
}

func (s *Session) persist(comics []domain.Comic) {
	if s.store == nil {
		return
	}
	if s.cacheStale {
		if err := s.resetStore(); err != nil {
			return
		}
		// The cache was emptied, so everything held must be written.
		comics = s.collection.Comics()
	}
	cursor := domain.SyncCursor{
		Timestamp:       s.watermark.Timestamp,
		LastComicID:     s.watermark.LastComicID,
		ProcessingCount: s.processingCount,
		RescanCount:     s.rescanCount,
	}
	if err := s.store.SaveBatch(comics, cursor); err != nil {
		s.logger.Error("failed to save update batch", "error", err, "count", len(comics))
	}
}

func (s *Session) notify(change Change) {
	if len(s.listeners) == 0 {
		return
	}
	snap := s.Snapshot()
	snap.Change = change
	for _, l := range s.listeners {
		l.SessionChanged(snap)
	}
}
