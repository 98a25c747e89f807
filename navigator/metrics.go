package navigator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes loop progress for scraping.
type Metrics struct {
	cyclesTotal     prometheus.Counter
	passRate        prometheus.Gauge
	avgConfidence   prometheus.Gauge
	triplesInserted prometheus.Counter
	gapsTotal       *prometheus.CounterVec
}

// NewMetrics registers loop metrics with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		cyclesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "catchfish",
			Subsystem: "navigator",
			Name:      "cycles_total",
			Help:      "Completed orchestration cycles.",
		}),
		passRate: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "catchfish",
			Subsystem: "navigator",
			Name:      "pass_rate",
			Help:      "Suite pass rate of the most recent cycle.",
		}),
		avgConfidence: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "catchfish",
			Subsystem: "navigator",
			Name:      "avg_confidence",
			Help:      "Suite average confidence of the most recent cycle.",
		}),
		triplesInserted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "catchfish",
			Subsystem: "extraction",
			Name:      "triples_inserted_total",
			Help:      "Triples inserted into the knowledge graph.",
		}),
		gapsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "catchfish",
			Subsystem: "validator",
			Name:      "gaps_total",
			Help:      "Diagnosed coverage gaps by kind.",
		}, []string{"kind"}),
	}
}

func (m *Metrics) observeCycle(record CycleRecord) {
	if m == nil {
		return
	}
	m.cyclesTotal.Inc()
	m.passRate.Set(record.PassRate)
	m.avgConfidence.Set(record.AvgConfidence)
	m.triplesInserted.Add(float64(record.Inserted))
	for kind, count := range record.Gaps {
		m.gapsTotal.WithLabelValues(string(kind)).Add(float64(count))
	}
}
