// Package metrics exposes dashboard build statistics to Prometheus, either
// scraped from the watch-mode server or dumped to a node-exporter textfile.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "potholes"

// DefaultBuckets are latency buckets in seconds. Portal fetches are slow, so
// the range reaches a minute.
var DefaultBuckets = []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60} //nolint: gochecknoglobals

// Collectors groups every metric a build updates.
type Collectors struct {
	RecordsFetched   prometheus.Gauge
	AddressesSkipped prometheus.Gauge
	MarkersRendered  prometheus.Gauge
	// Ranked is labelled by kind: street or intersection.
	Ranked        *prometheus.GaugeVec
	FetchDuration prometheus.Histogram
	// BuildFailures is labelled by reason, an serrors kind or "other".
	BuildFailures *prometheus.CounterVec
	LastSuccess   prometheus.Gauge
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered.
func New(reg prometheus.Registerer) *Collectors {
	f := promauto.With(reg)

	return &Collectors{
		RecordsFetched: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records_fetched",
			Help:      "Records returned by the last successful fetch.",
		}),
		AddressesSkipped: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "addresses_skipped",
			Help:      "Records without a usable street address in the last build.",
		}),
		MarkersRendered: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "markers_rendered",
			Help:      "Markers with valid coordinates written to the last map.",
		}),
		Ranked: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ranked_entries",
			Help:      "Entries in the last ranking.",
		}, []string{"kind"}),
		FetchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Time spent fetching records from the portal, retries included.",
			Buckets:   DefaultBuckets,
		}),
		BuildFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "build_failures_total",
			Help:      "Failed dashboard builds.",
		}, []string{"reason"}),
		LastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful build.",
		}),
	}
}

// WriteTextfile dumps g in the text exposition format to path.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
