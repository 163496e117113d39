package metrics

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

var collectorNamespaceSeq uint64

// promauto registers against the default registry, so each test gets its own
// namespace to avoid duplicate registration panics.
func nextTestNamespace() string {
	return fmt.Sprintf("instaze_test_%d", atomic.AddUint64(&collectorNamespaceSeq, 1))
}

func TestCollector_RecordAction(t *testing.T) {
	c := NewCollector(nextTestNamespace(), zap.NewNop())

	c.RecordAction("follow", "success")
	c.RecordAction("follow", "success")
	c.RecordAction("follow", "failed")

	assert.Equal(t, float64(2), testutil.ToFloat64(c.actionsTotal.WithLabelValues("follow", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.actionsTotal.WithLabelValues("follow", "failed")))
}

func TestCollector_QuotaGauge(t *testing.T) {
	c := NewCollector(nextTestNamespace(), zap.NewNop())

	c.SetQuotaRemaining("like", 30)
	assert.Equal(t, float64(30), testutil.ToFloat64(c.quotaRemaining.WithLabelValues("like")))

	c.SetQuotaRemaining("like", 0)
	assert.Equal(t, float64(0), testutil.ToFloat64(c.quotaRemaining.WithLabelValues("like")))
}

func TestCollector_SkipsAndTransitions(t *testing.T) {
	c := NewCollector(nextTestNamespace(), zap.NewNop())

	c.RecordSkip("excluded")
	c.RecordSkip("excluded")
	c.RecordPhaseTransition("running", "paused")
	c.SetFailureStreak(2)
	c.ObserveAppend(5 * time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(c.skipsTotal.WithLabelValues("excluded")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.phaseTransitions.WithLabelValues("running", "paused")))
	assert.Equal(t, float64(2), testutil.ToFloat64(c.failureStreak))
}
