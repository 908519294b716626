package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmcdole/longbox/internal/session"
)

var (
	namespace = "longbox"
	subsystem = "sync"

	cyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cycles_total",
			Help:      "Total number of finished fetch cycles by outcome",
		},
		[]string{"outcome"},
	)

	comicsReceivedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "comics_received_total",
			Help:      "Total number of distinct comics delivered in update batches",
		},
	)

	resetsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "resets_total",
			Help:      "Total number of library resets",
		},
	)

	collectionSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "collection_size",
			Help:      "Number of comics held, split by deleted flag",
		},
		[]string{"deleted"},
	)

	selectionSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "selection_size",
			Help:      "Number of selected comics",
		},
	)

	pendingWork = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "server_pending",
			Help:      "Server-side background work reported with the last batch",
		},
		[]string{"kind"},
	)

	watermarkSeconds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "watermark_timestamp_seconds",
			Help:      "Timestamp of the sync watermark as unix seconds",
		},
	)

	fetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of update requests in seconds",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"outcome"},
	)
)

// Recorder exports session changes as Prometheus metrics.
// It implements session.Listener.
type Recorder struct{}

var _ session.Listener = Recorder{}

// SessionChanged updates gauges and counters from a snapshot
func (Recorder) SessionChanged(snap session.Snapshot) {
	switch snap.Change {
	case session.ChangeBatch:
		cyclesTotal.WithLabelValues(string(snap.State)).Inc()
	case session.ChangeFailed:
		outcome := "failed"
		if snap.Failure != nil {
			outcome = "failed_" + snap.Failure.Kind.String()
		}
		cyclesTotal.WithLabelValues(outcome).Inc()
	case session.ChangeReset:
		resetsTotal.Inc()
	}

	if snap.Change == session.ChangeBatch {
		comicsReceivedTotal.Add(float64(len(snap.JustUpdated)))
	}

	active := snap.Collection.ActiveCount()
	collectionSize.WithLabelValues("false").Set(float64(active))
	collectionSize.WithLabelValues("true").Set(float64(snap.Collection.Len() - active))
	selectionSize.Set(float64(len(snap.Selected)))
	pendingWork.WithLabelValues("processing").Set(float64(snap.ProcessingCount))
	pendingWork.WithLabelValues("rescan").Set(float64(snap.RescanCount))
	watermarkSeconds.Set(float64(snap.Watermark.Timestamp) / 1000)
}

// ObserveFetch records how long one update request took
func (Recorder) ObserveFetch(d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = session.Classify(err).String()
	}
	fetchDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr until ctx is done
func Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listener started", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics listener failed", "error", err)
		return err
	}
	return nil
}
