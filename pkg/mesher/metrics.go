package mesher

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts render-path work. A nil *Metrics records nothing.
type Metrics struct {
	tiles     *prometheus.CounterVec
	triangles prometheus.Counter
	duration  prometheus.Histogram
}

// NewMetrics creates the render-path metrics and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		tiles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voxmesh",
			Subsystem: "mesher",
			Name:      "tiles_refreshed_total",
			Help:      "Tiles handed to the renderer, by kind of refresh.",
		}, []string{"kind"}),
		triangles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxmesh",
			Subsystem: "mesher",
			Name:      "triangles_emitted_total",
			Help:      "Triangles emitted by tile rebuilds.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "voxmesh",
			Subsystem: "mesher",
			Name:      "refresh_duration_seconds",
			Help:      "Time spent in one layer refresh.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}
	reg.MustRegister(m.tiles, m.triangles, m.duration)
	return m
}

func (m *Metrics) tile(kind string) {
	if m == nil {
		return
	}
	m.tiles.WithLabelValues(kind).Inc()
}

func (m *Metrics) observe(st Stats, d time.Duration) {
	if m == nil {
		return
	}
	m.triangles.Add(float64(st.Triangles))
	m.duration.Observe(d.Seconds())
}
