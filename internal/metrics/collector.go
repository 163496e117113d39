// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器
type Collector struct {
	// 动作指标
	actionsTotal *prometheus.CounterVec
	skipsTotal   *prometheus.CounterVec

	// 配额指标
	quotaRemaining *prometheus.GaugeVec

	// 工作流指标
	phaseTransitions *prometheus.CounterVec
	failureStreak    prometheus.Gauge

	// 存储指标
	appendDuration prometheus.Histogram

	logger *zap.Logger
}

// NewCollector 创建指标收集器
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.actionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Total executed actions by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	c.skipsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skips_total",
			Help:      "Targets skipped before execution, by reason",
		},
		[]string{"reason"},
	)

	c.quotaRemaining = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "quota_remaining",
			Help:      "Remaining quota headroom per action kind",
		},
		[]string{"kind"},
	)

	c.phaseTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "phase_transitions_total",
			Help:      "Orchestrator state transitions",
		},
		[]string{"from", "to"},
	)

	c.failureStreak = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "executor_failure_streak",
			Help:      "Consecutive executor failures in the current phase",
		},
	)

	c.appendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_append_duration_seconds",
			Help:      "Durable append latency",
			Buckets:   prometheus.DefBuckets,
		},
	)

	return c
}

// RecordAction 记录一次已执行动作
func (c *Collector) RecordAction(kind, outcome string) {
	c.actionsTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordSkip 记录一次跳过
func (c *Collector) RecordSkip(reason string) {
	c.skipsTotal.WithLabelValues(reason).Inc()
}

// SetQuotaRemaining 更新某动作种类的剩余配额
func (c *Collector) SetQuotaRemaining(kind string, remaining int) {
	c.quotaRemaining.WithLabelValues(kind).Set(float64(remaining))
}

// RecordPhaseTransition 记录一次状态转移
func (c *Collector) RecordPhaseTransition(from, to string) {
	c.phaseTransitions.WithLabelValues(from, to).Inc()
}

// SetFailureStreak 更新当前阶段的连续失败计数
func (c *Collector) SetFailureStreak(n int) {
	c.failureStreak.Set(float64(n))
}

// ObserveAppend 记录一次落盘耗时
func (c *Collector) ObserveAppend(d time.Duration) {
	c.appendDuration.Observe(d.Seconds())
}
