package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorderCounts(t *testing.T) {
	r := New()
	r.ModelCall("reasoning", "ok")
	r.ModelCall("reasoning", "ok")
	r.ToolInvocation("catalog_sampler", "success")
	r.Session("completed")
	r.CacheHit()
	r.RepairRounds(2)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.modelCalls.WithLabelValues("reasoning", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.toolCalls.WithLabelValues("catalog_sampler", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.sessions.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.cacheHits))
	n, err := testutil.GatherAndCount(r.Registry)
	assert.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.ModelCall("generation", "error")
		r.ToolInvocation("web_search", "failure")
		r.Session("blocked")
		r.CacheHit()
		r.RepairRounds(1)
	})
}
