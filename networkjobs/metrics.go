package networkjobs

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics count finished jobs by name and outcome
type Metrics struct {
	Jobs     *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

// NewMetrics creates the job metrics under namespace
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		Jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "finished_total",
			Help:      "Network jobs finished by job name and outcome.",
		}, []string{"job", "outcome"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "duration_seconds",
			Help:      "Time from start to result of network jobs.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 4, 8),
		}, []string{"job"}),
	}
}

// Collectors returns all prometheus metrics as collectors for registration.
func (m *Metrics) Collectors() []prometheus.Collector {
	if m == nil {
		return nil
	}
	return []prometheus.Collector{m.Jobs, m.Duration}
}

func (m *Metrics) observe(name string, err error, d time.Duration) {
	if m == nil {
		return
	}
	m.Jobs.WithLabelValues(name, outcome(err)).Inc()
	m.Duration.WithLabelValues(name).Observe(d.Seconds())
}
