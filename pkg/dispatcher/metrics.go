package dispatcher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// sessionMetrics instruments the session claim dispatcher (C5).
type sessionMetrics struct {
	claimsTotal   prometheus.Counter
	errorsTotal   prometheus.Counter
	lastPollEpoch prometheus.Gauge
}

func newSessionMetrics(reg prometheus.Registerer) *sessionMetrics {
	factory := promauto.With(reg)
	return &sessionMetrics{
		claimsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "capturequeue_session_claims_total",
			Help: "Closed sessions claimed for processing.",
		}),
		errorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "capturequeue_session_dispatcher_errors_total",
			Help: "Session claim cycles that ended in an error.",
		}),
		lastPollEpoch: factory.NewGauge(prometheus.GaugeOpts{
			Name: "capturequeue_session_dispatcher_last_poll_unixtime",
			Help: "Unix time of the last completed session claim cycle.",
		}),
	}
}

// notificationMetrics instruments the notification delivery dispatcher (C6).
type notificationMetrics struct {
	sentTotal     prometheus.Counter
	failedTotal   prometheus.Counter
	errorsTotal   prometheus.Counter
	lastPollEpoch prometheus.Gauge
}

func newNotificationMetrics(reg prometheus.Registerer) *notificationMetrics {
	factory := promauto.With(reg)
	return &notificationMetrics{
		sentTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "capturequeue_notifications_sent_total",
			Help: "Notifications successfully delivered.",
		}),
		failedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "capturequeue_notifications_failed_total",
			Help: "Notifications that failed delivery and were marked failed.",
		}),
		errorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "capturequeue_notification_dispatcher_errors_total",
			Help: "Notification dispatch cycles that ended in an error.",
		}),
		lastPollEpoch: factory.NewGauge(prometheus.GaugeOpts{
			Name: "capturequeue_notification_dispatcher_last_poll_unixtime",
			Help: "Unix time of the last completed notification dispatch cycle.",
		}),
	}
}
