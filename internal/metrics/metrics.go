// Package metrics registers the Prometheus collectors used across the bot.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics stores Prometheus collectors used across the service.
type Metrics struct {
	TGIncomingUpdates  *prometheus.CounterVec
	TGOutgoingMessages *prometheus.CounterVec
	ReminderScans      prometheus.Counter
	ScanDuration       prometheus.Histogram
	RemindersSent      prometheus.Counter
	SpeciesRequests    *prometheus.CounterVec
	SpeciesLatency     *prometheus.HistogramVec
	GardenerRequests   *prometheus.CounterVec
	Errors             *prometheus.CounterVec
}

var (
	regOnce         sync.Once
	metricsInstance *Metrics
)

// Registry builds and registers the metrics singleton with optional namespace.
func Registry(namespace string) *Metrics {
	regOnce.Do(func() {
		metricsInstance = &Metrics{
			TGIncomingUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tg_incoming_updates_total",
				Help:      "Total incoming Telegram updates processed.",
			}, []string{"type"}),
			TGOutgoingMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tg_outgoing_messages_total",
				Help:      "Total outgoing Telegram messages sent.",
			}, []string{"type"}),
			ReminderScans: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reminder_scans_total",
				Help:      "Total reminder dispatcher scans executed.",
			}),
			ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "reminder_scan_duration_seconds",
				Help:      "Duration distribution of reminder dispatcher scans.",
				Buckets:   prometheus.DefBuckets,
			}),
			RemindersSent: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reminders_sent_total",
				Help:      "Total watering reminders delivered.",
			}),
			SpeciesRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "species_requests_total",
				Help:      "Total species search API requests by outcome.",
			}, []string{"status"}),
			SpeciesLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "species_request_duration_seconds",
				Help:      "Latency distribution for species search API calls.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"status"}),
			GardenerRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gardener_requests_total",
				Help:      "Total gardener AI API requests by outcome.",
			}, []string{"status"}),
			Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total errors grouped by component.",
			}, []string{"component"}),
		}

		prometheus.MustRegister(
			metricsInstance.TGIncomingUpdates,
			metricsInstance.TGOutgoingMessages,
			metricsInstance.ReminderScans,
			metricsInstance.ScanDuration,
			metricsInstance.RemindersSent,
			metricsInstance.SpeciesRequests,
			metricsInstance.SpeciesLatency,
			metricsInstance.GardenerRequests,
			metricsInstance.Errors,
		)
	})
	return metricsInstance
}
