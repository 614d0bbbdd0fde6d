package observability

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCounterGaugeHistogram(t *testing.T) {
	r := NewMetricsRegistry()

	c := r.Counter("runs")
	c.Inc()
	c.Add(2)
	assert.EqualValues(t, 3, c.Value())
	assert.Same(t, c, r.Counter("runs"))

	g := r.Gauge("inflight")
	g.Set(5)
	g.Inc()
	g.Dec()
	assert.EqualValues(t, 5, g.Value())

	h := r.Histogram("latency")
	h.Observe(10)
	h.Observe(20)
	count, sum, avg := h.Snapshot()
	assert.EqualValues(t, 2, count)
	assert.EqualValues(t, 30, sum)
	assert.EqualValues(t, 15, avg)
}

func TestRegistrySnapshot(t *testing.T) {
	r := NewMetricsRegistry()
	r.Counter("a").Inc()
	r.Gauge("b").Set(7)
	r.Histogram("c").Observe(4)

	snap := r.Snapshot()
	assert.EqualValues(t, 1, snap["counter.a"])
	assert.EqualValues(t, 7, snap["gauge.b"])
	assert.EqualValues(t, 1, snap["histogram.c.count"])
}

func TestCounterConcurrency(t *testing.T) {
	r := NewMetricsRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Counter("shared").Inc()
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 50, r.Counter("shared").Value())
}

func TestPipelineMetricsNames(t *testing.T) {
	m := NewPipelineMetrics(nil)
	m.StageFinished("brief", 2, true, 30*time.Millisecond)
	m.RunCompleted(true, time.Second)
	m.RunAborted()

	snap := m.Snapshot()
	assert.EqualValues(t, 1, snap["counter.stage.brief.runs"])
	assert.EqualValues(t, 2, snap["counter.stage.brief.attempts"])
	assert.EqualValues(t, 1, snap["counter.stage.brief.fallbacks"])
	assert.EqualValues(t, 1, snap["counter.runs.completed"])
	assert.EqualValues(t, 1, snap["counter.runs.degraded"])
	assert.EqualValues(t, 1, snap["counter.runs.aborted"])
}
