package respool

import "github.com/prometheus/client_golang/prometheus"

// poolStatsSource is the minimal surface Metrics needs from whichever
// pool it is bound to.
type poolStatsSource interface {
	Capacity() int
	Available() int
	Used() int
}

// Metrics is an optional prometheus.Collector wired over a pool's own
// Stats(), grounded on the corpus's own use of
// github.com/prometheus/client_golang for runtime gauges (the same
// dependency kotahorii-merchant-tails and haasonsaas-nexus carry
// directly). A pool built without WithMetrics never touches the
// prometheus registry at all.
type Metrics struct {
	name string

	source    poolStatsSource
	queueSize func() int

	getErrors *prometheus.CounterVec
	available *prometheus.Desc
	used      *prometheus.Desc
	wasted    *prometheus.Desc
	queued    *prometheus.Desc
}

// NewMetrics creates a collector labeled with name, distinguishing
// multiple pools registered in the same process. Register it with a
// prometheus.Registerer the usual way; it implements prometheus.Collector.
func NewMetrics(name string) *Metrics {
	return &Metrics{
		name: name,
		getErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "respool_get_errors_total",
			Help: "Count of Get calls that failed, labeled by pool and error code.",
		}, []string{"pool", "code"}),
		available: prometheus.NewDesc("respool_available", "Cells currently available for lease.", []string{"pool"}, nil),
		used:      prometheus.NewDesc("respool_used", "Cells currently leased.", []string{"pool"}, nil),
		wasted:    prometheus.NewDesc("respool_wasted", "Empty reusable cell slots.", []string{"pool"}, nil),
		queued:    prometheus.NewDesc("respool_queue_size", "Pending async requests awaiting a cell.", []string{"pool"}, nil),
	}
}

func (m *Metrics) bind(source poolStatsSource, queueSize func() int) {
	m.source = source
	m.queueSize = queueSize
}

func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	ch <- m.available
	ch <- m.used
	ch <- m.wasted
	if m.queueSize != nil {
		ch <- m.queued
	}
	m.getErrors.Describe(ch)
}

func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	if m.source != nil {
		avail := m.source.Available()
		used := m.source.Used()
		wasted := m.source.Capacity() - avail - used
		ch <- prometheus.MustNewConstMetric(m.available, prometheus.GaugeValue, float64(avail), m.name)
		ch <- prometheus.MustNewConstMetric(m.used, prometheus.GaugeValue, float64(used), m.name)
		ch <- prometheus.MustNewConstMetric(m.wasted, prometheus.GaugeValue, float64(wasted), m.name)
		if m.queueSize != nil {
			ch <- prometheus.MustNewConstMetric(m.queued, prometheus.GaugeValue, float64(m.queueSize()), m.name)
		}
	}
	m.getErrors.Collect(ch)
}

// recordGetError is called internally on every failed Get. Nil-safe so
// pools built without WithMetrics can call it unconditionally.
func (m *Metrics) recordGetError(code Code) {
	if m == nil {
		return
	}
	m.getErrors.WithLabelValues(m.name, code.String()).Inc()
}
