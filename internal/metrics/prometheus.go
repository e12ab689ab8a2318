package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/arloliu/slotwise/types"
)

// PrometheusCollector implements types.MetricsCollector backed by Prometheus.
//
// Collectors are created and registered lazily on first use.
type PrometheusCollector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	runDuration    *prometheus.HistogramVec
	runSlots       prometheus.Gauge
	categorySlots  *prometheus.GaugeVec
	layoutMoves    prometheus.Gauge
	movesTotal     prometheus.Counter
	eventsIgnored  *prometheus.CounterVec
	publishResults *prometheus.CounterVec
	layoutVersion  prometheus.Gauge
}

var _ types.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheus creates a new Prometheus-backed metrics collector.
//
// Parameters:
//   - reg: Prometheus registerer interface (uses prometheus.DefaultRegisterer if nil)
//   - namespace: Prometheus metrics namespace (defaults to "slotwise" if empty)
//
// Returns:
//   - *PrometheusCollector: A MetricsCollector implementation using Prometheus
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "slotwise"
	}

	return &PrometheusCollector{reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.runDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "Duration of pipeline runs in seconds by result.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms .. ~1s
		}, []string{"result"})

		p.runSlots = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "pipeline",
			Name:      "slots",
			Help:      "Number of physical slots in the latest snapshot.",
		})

		p.categorySlots = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "pipeline",
			Name:      "category_slots",
			Help:      "Number of slots per behavioral category in the latest run.",
		}, []string{"category"})

		p.layoutMoves = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "layout",
			Name:      "moves",
			Help:      "Number of slots whose content changes in the latest layout.",
		})

		p.movesTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "layout",
			Name:      "moves_total",
			Help:      "Total content moves proposed across runs.",
		})

		p.eventsIgnored = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "aggregate",
			Name:      "events_ignored_total",
			Help:      "Events excluded from aggregation by reason (out_of_window, unknown_type, unknown_slot).",
		}, []string{"reason"})

		p.publishResults = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "publisher",
			Name:      "publish_results_total",
			Help:      "Layout publish outcomes (success,failure).",
		}, []string{"result"})

		p.layoutVersion = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "publisher",
			Name:      "layout_version",
			Help:      "Version of the most recently published layout.",
		})

		p.reg.MustRegister(p.runDuration)
		p.reg.MustRegister(p.runSlots)
		p.reg.MustRegister(p.categorySlots)
		p.reg.MustRegister(p.layoutMoves)
		p.reg.MustRegister(p.movesTotal)
		p.reg.MustRegister(p.eventsIgnored)
		p.reg.MustRegister(p.publishResults)
		p.reg.MustRegister(p.layoutVersion)
	})
}

// RecordRun observes the run duration and slot count.
func (p *PrometheusCollector) RecordRun(duration float64, slots int, success bool) {
	p.ensureRegistered()
	p.runDuration.WithLabelValues(resultLabel(success)).Observe(duration)
	if success {
		p.runSlots.Set(float64(slots))
	}
}

// RecordCategoryCounts sets the per-category slot gauges.
func (p *PrometheusCollector) RecordCategoryCounts(counts map[types.Category]int) {
	p.ensureRegistered()
	for _, c := range types.Categories {
		p.categorySlots.WithLabelValues(string(c)).Set(float64(counts[c]))
	}
}

// RecordMoves sets the latest move gauge and adds to the total.
func (p *PrometheusCollector) RecordMoves(moves int) {
	p.ensureRegistered()
	p.layoutMoves.Set(float64(moves))
	p.movesTotal.Add(float64(moves))
}

// RecordEventsIgnored adds ignored events for the given reason.
func (p *PrometheusCollector) RecordEventsIgnored(reason string, count int) {
	if count <= 0 {
		return
	}
	p.ensureRegistered()
	p.eventsIgnored.WithLabelValues(reason).Add(float64(count))
}

// RecordPublish records a publish outcome and the published version.
func (p *PrometheusCollector) RecordPublish(version int64, success bool) {
	p.ensureRegistered()
	p.publishResults.WithLabelValues(resultLabel(success)).Inc()
	if success {
		p.layoutVersion.Set(float64(version))
	}
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}

	return "failure"
}
