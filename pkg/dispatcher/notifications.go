package dispatcher

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	cqerrors "github.com/shifthive/capturequeue/pkg/errors"
	"github.com/shifthive/capturequeue/pkg/logger"
	"github.com/shifthive/capturequeue/pkg/notification"
)

// dispatchResult is the tuple DispatchPending returns, named so it can
// travel through backoff.Retry's single-value generic result.
type dispatchResult struct {
	claimed, sent, failed int
}

// NotificationDispatcher is C6: periodically drains the pending
// schedule_notification queue via the injected send callback.
type NotificationDispatcher struct {
	repo         *notification.Repository
	send         notification.SendFunc
	clock        clockwork.Clock
	enabled      bool
	pollInterval time.Duration
	batchSize    int
	metrics      *notificationMetrics
}

// NewNotificationDispatcher builds a NotificationDispatcher. pollSeconds is
// floored to 1 and batchSize clamped to [1,100] by pkg/config before
// reaching here.
func NewNotificationDispatcher(
	repo *notification.Repository,
	send notification.SendFunc,
	clock clockwork.Clock,
	enabled bool,
	pollSeconds, batchSize int,
	reg prometheus.Registerer,
) *NotificationDispatcher {
	return &NotificationDispatcher{
		repo:         repo,
		send:         send,
		clock:        clock,
		enabled:      enabled,
		pollInterval: time.Duration(pollSeconds) * time.Second,
		batchSize:    batchSize,
		metrics:      newNotificationMetrics(reg),
	}
}

// Run loops until ctx is cancelled. If the dispatcher is disabled, it logs
// once and returns immediately.
func (d *NotificationDispatcher) Run(ctx context.Context) {
	if !d.enabled {
		logger.Info("notification dispatcher disabled, not starting")
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

func (d *NotificationDispatcher) cycle(ctx context.Context) {
	result, err := d.dispatchWithRetry(ctx)
	if err != nil {
		if cqerrors.IsCancelled(err) {
			return
		}
		logger.Errorw("notification dispatch cycle failed", "error", err)
		d.metrics.errorsTotal.Inc()
		return
	}
	d.metrics.lastPollEpoch.Set(float64(d.clock.Now().Unix()))
	d.metrics.sentTotal.Add(float64(result.sent))
	d.metrics.failedTotal.Add(float64(result.failed))

	if result.claimed > 0 {
		logger.Infow("dispatched notification batch",
			"claimed", result.claimed, "sent", result.sent, "failed", result.failed)
	}
}

func (d *NotificationDispatcher) dispatchWithRetry(ctx context.Context) (dispatchResult, error) {
	return backoff.Retry(ctx, func() (dispatchResult, error) {
		claimed, sent, failed, err := d.repo.DispatchPending(ctx, d.send, d.batchSize)
		result := dispatchResult{claimed: claimed, sent: sent, failed: failed}
		if err != nil {
			if cqerrors.IsTransient(err) {
				return dispatchResult{}, err
			}
			return result, backoff.Permanent(err)
		}
		return result, nil
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(3))
}
