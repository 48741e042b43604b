// Package metrics exposes application counters on a private Prometheus registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "autoapply"

type Metrics struct {
	registry     *prometheus.Registry
	applications *prometheus.CounterVec
	stages       *prometheus.CounterVec
	graphql      *prometheus.HistogramVec
	jobsSeen     *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		applications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "applications_total",
			Help:      "Application attempts by outcome.",
		}, []string{"outcome"}),
		stages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_failures_total",
			Help:      "Failed application runs by the stage they stopped at.",
		}, []string{"stage"}),
		graphql: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "graphql_duration_seconds",
			Help:      "Latency of Afriwork GraphQL operations.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}, []string{"operation"}),
		jobsSeen: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channel_posts_total",
			Help:      "Channel posts handled by the watcher, by decision.",
		}, []string{"decision"}),
	}

	m.registry.MustRegister(
		m.applications,
		m.stages,
		m.graphql,
		m.jobsSeen,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ApplicationOutcome(outcome string) {
	m.applications.WithLabelValues(outcome).Inc()
}

func (m *Metrics) StageFailure(stage string) {
	m.stages.WithLabelValues(stage).Inc()
}

// ObserveGraphQL matches afriwork.Options.Observe.
func (m *Metrics) ObserveGraphQL(operation string, elapsed time.Duration) {
	m.graphql.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ChannelPost counts a watcher decision such as "applied", "pending" or "no_match".
func (m *Metrics) ChannelPost(decision string) {
	m.jobsSeen.WithLabelValues(decision).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
