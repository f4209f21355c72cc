// Package metrics records orchestration counters in a Prometheus registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder owns the collectors. A nil *Recorder is valid and records nothing.
type Recorder struct {
	Registry     *prometheus.Registry
	modelCalls   *prometheus.CounterVec
	toolCalls    *prometheus.CounterVec
	sessions     *prometheus.CounterVec
	repairRounds prometheus.Histogram
	cacheHits    prometheus.Counter
}

// New registers the collectors on a fresh registry.
func New() *Recorder {
	r := &Recorder{
		Registry: prometheus.NewRegistry(),
		modelCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "llhtml_model_calls_total",
			Help: "Model inference attempts by purpose and outcome.",
		}, []string{"purpose", "outcome"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "llhtml_tool_invocations_total",
			Help: "Tool invocations by tool and outcome.",
		}, []string{"tool", "outcome"}),
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "llhtml_sessions_total",
			Help: "Finished sessions by status.",
		}, []string{"status"}),
		repairRounds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "llhtml_repair_rounds",
			Help:    "Repair rounds used per session.",
			Buckets: []float64{0, 1, 2, 3, 5, 8},
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "llhtml_tool_cache_hits_total",
			Help: "Tool invocations answered from the session cache.",
		}),
	}
	r.Registry.MustRegister(r.modelCalls, r.toolCalls, r.sessions, r.repairRounds, r.cacheHits)
	return r
}

func (r *Recorder) ModelCall(purpose, outcome string) {
	if r == nil {
		return
	}
	r.modelCalls.WithLabelValues(purpose, outcome).Inc()
}

func (r *Recorder) ToolInvocation(tool, outcome string) {
	if r == nil {
		return
	}
	r.toolCalls.WithLabelValues(tool, outcome).Inc()
}

func (r *Recorder) CacheHit() {
	if r == nil {
		return
	}
	r.cacheHits.Inc()
}

func (r *Recorder) Session(status string) {
	if r == nil {
		return
	}
	r.sessions.WithLabelValues(status).Inc()
}

func (r *Recorder) RepairRounds(n int) {
	if r == nil {
		return
	}
	r.repairRounds.Observe(float64(n))
}
