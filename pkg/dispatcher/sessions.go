package dispatcher

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	cqerrors "github.com/shifthive/capturequeue/pkg/errors"
	"github.com/shifthive/capturequeue/pkg/logger"
	"github.com/shifthive/capturequeue/pkg/session"
)

// SessionClaimer is the subset of session.Repository the claim dispatcher
// needs, narrowed so tests can supply a fake without a database.
type SessionClaimer interface {
	ClaimNextClosedForProcessing(ctx context.Context) (*session.Session, error)
}

// SessionDispatcher is C5: a single-threaded cooperative loop that claims
// one closed session per cycle and hands it to the (out-of-scope) OCR
// worker by logging its id.
type SessionDispatcher struct {
	claimer      SessionClaimer
	clock        clockwork.Clock
	enabled      bool
	pollInterval time.Duration
	metrics      *sessionMetrics
}

// NewSessionDispatcher builds a SessionDispatcher. pollSeconds is floored to
// 1 by pkg/config before reaching here; clock is injected so tests can
// drive cycles without real sleeps.
func NewSessionDispatcher(claimer SessionClaimer, clock clockwork.Clock, enabled bool, pollSeconds int, reg prometheus.Registerer) *SessionDispatcher {
	return &SessionDispatcher{
		claimer:      claimer,
		clock:        clock,
		enabled:      enabled,
		pollInterval: time.Duration(pollSeconds) * time.Second,
		metrics:      newSessionMetrics(reg),
	}
}

// Run loops until ctx is cancelled. If the dispatcher is disabled, it logs
// once and returns immediately.
func (d *SessionDispatcher) Run(ctx context.Context) {
	if !d.enabled {
		logger.Info("session claim dispatcher disabled, not starting")
		return
	}

	for {
		d.cycle(ctx)

		select {
		case <-ctx.Done():
			return
		case <-d.clock.After(d.pollInterval):
		}
	}
}

func (d *SessionDispatcher) cycle(ctx context.Context) {
	s, err := d.claimWithRetry(ctx)
	if err != nil {
		if cqerrors.IsCancelled(err) {
			return
		}
		logger.Errorw("session claim cycle failed", "error", err)
		d.metrics.errorsTotal.Inc()
		return
	}
	d.metrics.lastPollEpoch.Set(float64(d.clock.Now().Unix()))

	if s == nil {
		return
	}
	logger.Infow("claimed closed session for processing", "session_id", s.ID, "state", s.State)
	d.metrics.claimsTotal.Inc()
}

// claimWithRetry retries Transient store errors with bounded exponential
// backoff; any other error (including Cancelled) is permanent and returns
// immediately.
func (d *SessionDispatcher) claimWithRetry(ctx context.Context) (*session.Session, error) {
	return backoff.Retry(ctx, func() (*session.Session, error) {
		s, err := d.claimer.ClaimNextClosedForProcessing(ctx)
		if err != nil {
			if cqerrors.IsTransient(err) {
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		return s, nil
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(3))
}
