// Package metrics exposes the campaign counters as Prometheus collectors on a
// private registry, served over HTTP or written in the text exposition
// format for the node exporter's textfile collector.
package metrics

import (
	"net/http"
	"time"

	"github.com/agbru/qarithcheck/internal/campaign"
	"github.com/agbru/qarithcheck/internal/engine"
	"github.com/agbru/qarithcheck/internal/sysmon"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "qarith"

// Metrics holds the collectors of one run. It implements campaign.Observer
// and protocol.Observer and is safe for concurrent use.
type Metrics struct {
	registry         *prometheus.Registry
	cases            *prometheus.CounterVec
	caseDuration     *prometheus.HistogramVec
	checks           *prometheus.CounterVec
	campaigns        *prometheus.CounterVec
	campaignDuration *prometheus.GaugeVec
	heapAlloc        prometheus.Gauge
	systemCPU        prometheus.Gauge
	systemMemory     prometheus.Gauge
	memory           *MemoryCollector
	sample           func() sysmon.Stats
}

// New registers the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		cases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "cases_total",
			Help:      "Verification cases by circuit, regime and result.",
		}, []string{"circuit", "regime", "result"}),
		caseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "case_duration_seconds",
			Help:      "Duration of one verification case.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"circuit", "regime"}),
		checks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "superposition_checks_total",
			Help:      "Superposition protocol checks by kind, operation and result.",
		}, []string{"kind", "op", "result"}),
		campaigns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "campaigns_total",
			Help:      "Completed campaigns by result.",
		}, []string{"result"}),
		campaignDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "campaign_duration_seconds",
			Help:      "Wall time of the last run of each campaign.",
		}, []string{"circuit"}),
		heapAlloc: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "heap_alloc_bytes",
			Help:      "Heap in use after the last completed campaign.",
		}),
		systemCPU: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "system_cpu_percent",
			Help:      "System-wide CPU usage after the last completed campaign.",
		}),
		systemMemory: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "system_memory_percent",
			Help:      "System-wide memory usage after the last completed campaign.",
		}),
		memory: NewMemoryCollector(),
		sample: sysmon.Sample,
	}
	m.registry.MustRegister(
		m.cases, m.caseDuration, m.checks, m.campaigns, m.campaignDuration,
		m.heapAlloc, m.systemCPU, m.systemMemory,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func result(ok bool) string {
	if ok {
		return "pass"
	}
	return "fail"
}

// ObserveCase implements campaign.Observer.
func (m *Metrics) ObserveCase(circuit, regime string, _ int, ok bool, elapsed time.Duration) {
	m.cases.WithLabelValues(circuit, regime, result(ok)).Inc()
	m.caseDuration.WithLabelValues(circuit, regime).Observe(elapsed.Seconds())
}

// ObserveCheck implements protocol.Observer.
func (m *Metrics) ObserveCheck(kind string, op engine.OpRef, _ []int, ok bool, _ time.Duration) {
	m.checks.WithLabelValues(kind, op.FullName(), result(ok)).Inc()
}

// ObserveCampaign records a finished campaign and samples the heap and the
// system load.
func (m *Metrics) ObserveCampaign(rep campaign.Report) {
	status := result(rep.OK())
	if rep.Err != nil {
		status = "aborted"
	}
	m.campaigns.WithLabelValues(status).Inc()
	m.campaignDuration.WithLabelValues(rep.Circuit).Set(rep.Duration.Seconds())
	m.heapAlloc.Set(float64(m.memory.Snapshot().HeapAlloc))
	sys := m.sample()
	m.systemCPU.Set(sys.CPUPercent)
	m.systemMemory.Set(sys.MemPercent)
}

// Gatherer returns the private registry.
func (m *Metrics) Gatherer() prometheus.Gatherer { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WriteTextfile writes the registry to path atomically, in the format read
// by the node exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
