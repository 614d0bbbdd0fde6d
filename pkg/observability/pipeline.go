package observability

import "time"

// PipelineMetrics names the metrics the orchestrator reports.
type PipelineMetrics struct {
	registry *MetricsRegistry
}

func NewPipelineMetrics(registry *MetricsRegistry) *PipelineMetrics {
	if registry == nil {
		registry = NewMetricsRegistry()
	}
	return &PipelineMetrics{registry: registry}
}

func (m *PipelineMetrics) StageFinished(agent string, attempts int, fallback bool, elapsed time.Duration) {
	m.registry.Counter("stage." + agent + ".runs").Inc()
	m.registry.Counter("stage." + agent + ".attempts").Add(int64(attempts))
	if fallback {
		m.registry.Counter("stage." + agent + ".fallbacks").Inc()
	}
	m.registry.Histogram("stage." + agent + ".latency_ms").Observe(float64(elapsed.Milliseconds()))
}

func (m *PipelineMetrics) RunCompleted(degraded bool, elapsed time.Duration) {
	m.registry.Counter("runs.completed").Inc()
	if degraded {
		m.registry.Counter("runs.degraded").Inc()
	}
	m.registry.Histogram("runs.latency_ms").Observe(float64(elapsed.Milliseconds()))
}

func (m *PipelineMetrics) RunAborted() {
	m.registry.Counter("runs.aborted").Inc()
}

func (m *PipelineMetrics) Snapshot() map[string]interface{} {
	return m.registry.Snapshot()
}
