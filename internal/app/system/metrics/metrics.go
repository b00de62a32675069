// internal/app/system/metrics/metrics.go
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Publish outcomes.
const (
	OutcomeUploaded      = "uploaded"
	OutcomeAlreadyOnline = "already_published"
	OutcomeFailed        = "failed"
)

var (
	PublishTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidcollab_publish_total",
		Help: "Publish attempts by outcome.",
	}, []string{"outcome"})

	PublishDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "vidcollab_publish_duration_seconds",
		Help:    "Wall time of publish attempts that reached the platform.",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
	})

	ThumbnailUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidcollab_thumbnail_uploads_total",
		Help: "Thumbnail steps by status (uploaded, skipped, failed).",
	}, []string{"status"})

	NotificationsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vidcollab_notifications_dropped_total",
		Help: "Notifications that could not be handed to a worker.",
	})
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
