// Package metrics implements the observability hooks with Prometheus
// collectors.
//
// Collectors live on a private registry rather than the global default one,
// so several [Metrics] can coexist in one process and tests stay isolated.
// The CLI writes the registry to a node-exporter textfile after a run with
// [Metrics.WriteToTextfile].
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/segraph/pkg/observability"
)

// Metrics collects run, component, solver and cache statistics.
type Metrics struct {
	registry *prometheus.Registry

	runsTotal          *prometheus.CounterVec
	runDuration        prometheus.Histogram
	graphSize          *prometheus.GaugeVec
	componentsTotal    *prometheus.CounterVec
	componentDuration  *prometheus.HistogramVec
	componentNodes     prometheus.Histogram
	solvesTotal        *prometheus.CounterVec
	solveDuration      prometheus.Histogram
	solveExplored      prometheus.Histogram
	cacheRequestsTotal *prometheus.CounterVec
	cacheBytesTotal    *prometheus.CounterVec
}

// New creates a Metrics with all collectors registered on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		runsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "segraph_runs_total",
			Help: "Pipeline runs by result",
		}, []string{"result"}),
		runDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "segraph_run_duration_seconds",
			Help:    "Wall time of pipeline runs",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		}),
		graphSize: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "segraph_graph_size",
			Help: "Size of the last input graph",
		}, []string{"kind"}),
		componentsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "segraph_components_total",
			Help: "Processed components by outcome",
		}, []string{"outcome"}),
		componentDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "segraph_component_duration_seconds",
			Help:    "Time to resolve one component",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"outcome"}),
		componentNodes: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "segraph_component_nodes",
			Help:    "Node count of processed components",
			Buckets: prometheus.ExponentialBuckets(1, 2, 14),
		}),
		solvesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "segraph_solver_solves_total",
			Help: "Exact solves by status",
		}, []string{"status"}),
		solveDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "segraph_solver_duration_seconds",
			Help:    "Time spent in one exact solve",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 12),
		}),
		solveExplored: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "segraph_solver_explored_nodes",
			Help:    "Branch-and-bound nodes explored per solve",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}),
		cacheRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "segraph_cache_requests_total",
			Help: "Cache lookups by key type and result",
		}, []string{"key_type", "result"}),
		cacheBytesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "segraph_cache_written_bytes_total",
			Help: "Bytes written to the cache",
		}, []string{"key_type"}),
	}
}

// Registry returns the registry holding every collector.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// WriteToTextfile writes the registry in the text exposition format. The file
// is replaced atomically.
func (m *Metrics) WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

// OnRunStart records the size of the input graph.
func (m *Metrics) OnRunStart(_ context.Context, _ string, nodes, edges int) {
	m.graphSize.WithLabelValues("nodes").Set(float64(nodes))
	m.graphSize.WithLabelValues("edges").Set(float64(edges))
}

// OnRunComplete counts the run and observes its duration.
func (m *Metrics) OnRunComplete(_ context.Context, _ string, _ int, d time.Duration, err error) {
	m.runsTotal.WithLabelValues(result(err)).Inc()
	m.runDuration.Observe(d.Seconds())
}

// OnComponentStart observes the component size.
func (m *Metrics) OnComponentStart(_ context.Context, _ int, nodes int) {
	m.componentNodes.Observe(float64(nodes))
}

// OnComponentComplete counts the component by outcome.
func (m *Metrics) OnComponentComplete(_ context.Context, _ int, outcome string, d time.Duration, _ error) {
	m.componentsTotal.WithLabelValues(outcome).Inc()
	m.componentDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// OnSolve counts the solve and observes its cost.
func (m *Metrics) OnSolve(_ context.Context, status string, _ int, explored int, d time.Duration) {
	m.solvesTotal.WithLabelValues(status).Inc()
	m.solveDuration.Observe(d.Seconds())
	m.solveExplored.Observe(float64(explored))
}

// OnCacheHit counts a hit.
func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheRequestsTotal.WithLabelValues(keyType, "hit").Inc()
}

// OnCacheMiss counts a miss.
func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheRequestsTotal.WithLabelValues(keyType, "miss").Inc()
}

// OnCacheSet counts written bytes.
func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.cacheBytesTotal.WithLabelValues(keyType).Add(float64(size))
}

// Register installs m as the pipeline, solver and cache hooks.
func (m *Metrics) Register() {
	observability.SetPipelineHooks(m)
	observability.SetSolverHooks(m)
	observability.SetCacheHooks(m)
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

var (
	_ observability.PipelineHooks = (*Metrics)(nil)
	_ observability.SolverHooks   = (*Metrics)(nil)
	_ observability.CacheHooks    = (*Metrics)(nil)
)
