package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		eventsPublishedTotal,
		notificationsTotal,
		workerQueueDropped,
	)
}

var (
	eventsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_events_published_total",
			Help: "Lifecycle events handed to the broker, by type and result.",
		},
		[]string{"type", "result"}, // result: ok|error
	)

	notificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_notifications_total",
			Help: "Operator notifications by delivery status.",
		},
		[]string{"status"}, // sent|error
	)

	workerQueueDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_worker_tasks_dropped_total",
			Help: "Background tasks dropped because the worker queue was full.",
		},
		[]string{"pool"},
	)
)

func IncEventPublished(typ, result string) {
	eventsPublishedTotal.WithLabelValues(norm(typ), norm(result)).Inc()
}

func IncNotification(status string) {
	notificationsTotal.WithLabelValues(norm(status)).Inc()
}

func IncWorkerDropped(pool string) {
	workerQueueDropped.WithLabelValues(norm(pool)).Inc()
}
