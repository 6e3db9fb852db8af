package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PurchaseDuration tracks the latency of sale transactions
	PurchaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "ticket_purchase_duration_seconds",
			Help: "Duration of ticket purchase transactions in seconds",
			Buckets: []float64{
				0.001, // 1ms
				0.005, // 5ms
				0.01,  // 10ms
				0.025, // 25ms
				0.05,  // 50ms
				0.1,   // 100ms
				0.25,  // 250ms
				0.5,   // 500ms
				1.0,   // 1s
				2.5,   // 2.5s
				5.0,   // 5s
				10.0,  // 10s
			},
		},
		[]string{"status"}, // committed, declined, not_found, invalid, error
	)
)

// RecordPurchaseDuration records the duration of a purchase attempt
func RecordPurchaseDuration(status string, duration float64) {
	PurchaseDuration.WithLabelValues(status).Observe(duration)
}
