package DS

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "flint"
	metricsSubsystem = "index"
)

// Metrics holds the index manager's Prometheus collectors. They are
// registered on a per-engine registry, never the global default.
type Metrics struct {
	Live          prometheus.Gauge
	Inserts       *prometheus.CounterVec
	InsertErrors  *prometheus.CounterVec
	Searches      *prometheus.CounterVec
	SnapshotBytes *prometheus.HistogramVec
}

// NewMetrics creates and registers the index collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Live: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "live",
			Help:      "Number of live index instances",
		}),
		Inserts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "inserts_total",
			Help:      "Successful index inserts by structure",
		}, []string{"structure"}),
		InsertErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "insert_errors_total",
			Help:      "Rejected index inserts by structure",
		}, []string{"structure"}),
		Searches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "searches_total",
			Help:      "Index lookups by structure and kind (exact, knn)",
		}, []string{"structure", "kind"}),
		SnapshotBytes: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "snapshot_bytes",
			Help:      "Size of encoded index snapshots",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 10),
		}, []string{"structure"}),
	}
}

// IndexStats is a point-in-time description of one live index.
type IndexStats struct {
	Name      string
	ID        string
	Structure string
	KeyType   string
	Entries   int
}
