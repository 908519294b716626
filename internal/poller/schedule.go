package poller

import (
	"math/rand"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/mmcdole/longbox/internal/session"
)

const initialBackoff = time.Second

// Schedule decides how long to wait before the next update request.
//
// While the server reports more work the next request goes out at once.
// Once exhausted the session re-polls every interval, jittered so many
// clients do not hit the server together. Failures back off exponentially
// up to maxBackoff and the backoff resets on the next success.
type Schedule struct {
	interval time.Duration
	jitter   float64
	rng      *rand.Rand
	backoff  *backoff.ExponentialBackOff
}

// NewSchedule creates a schedule
func NewSchedule(interval time.Duration, jitter float64, maxBackoff time.Duration) *Schedule {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initialBackoff
	b.MaxInterval = maxBackoff
	b.MaxElapsedTime = 0 // keep retrying; the caller decides when to stop
	b.Reset()

	return &Schedule{
		interval: interval,
		jitter:   clampJitterRatio(jitter),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		backoff:  b,
	}
}

// AfterBatch returns the delay after a successful response of received
// comics left the session in state. An empty response that is not
// exhausted means the server is still importing, so it waits a poll interval
// too instead of asking again at once.
func (s *Schedule) AfterBatch(state session.State, received int) time.Duration {
	s.backoff.Reset()
	if state == session.StateExhausted || received == 0 {
		return s.Poll()
	}
	return 0
}

// AfterFailure returns the next backoff delay.
func (s *Schedule) AfterFailure() time.Duration {
	d := s.backoff.NextBackOff()
	if d == backoff.Stop {
		return s.backoff.MaxInterval
	}
	return d
}

// Poll returns one jittered poll interval.
func (s *Schedule) Poll() time.Duration {
	return jitteredIntervalWithSample(s.interval, s.jitter, s.rng.Float64())
}

func clampJitterRatio(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}

func jitteredIntervalWithSample(base time.Duration, jitterRatio, sample float64) time.Duration {
	if base <= 0 {
		return 0
	}
	jitterRatio = clampJitterRatio(jitterRatio)
	if jitterRatio == 0 {
		return base
	}
	if sample < 0 {
		sample = 0
	} else if sample > 1 {
		sample = 1
	}
	factor := 1 + ((sample*2)-1)*jitterRatio
	if factor < 0 {
		factor = 0
	}
	delay := time.Duration(float64(base) * factor)
	if delay < time.Millisecond {
		return time.Millisecond
	}
	return delay
}
