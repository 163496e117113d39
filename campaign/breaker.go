package campaign

import (
	"time"

	"go.uber.org/zap"
)

// BreakerState 熔断器状态
type BreakerState int

const (
	// BreakerClosed 正常状态，允许继续处理候选目标
	BreakerClosed BreakerState = iota
	// BreakerOpen 熔断状态：连续失败达到阈值，当前阶段必须暂停
	BreakerOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	default:
		return "unknown"
	}
}

// FailureBreaker trips a phase after a run of consecutive executor failures.
// A streak of failures signals a systemic problem such as session expiry;
// pausing the phase beats burning through the remaining candidates blindly.
//
// The breaker is phase-scoped and single-threaded like the orchestrator
// that owns it; one success resets the streak.
type FailureBreaker struct {
	threshold       int
	state           BreakerState
	failures        int
	lastFailureTime time.Time
	logger          *zap.Logger
}

// NewFailureBreaker 创建熔断器。threshold 小于 1 时取默认值 3。
func NewFailureBreaker(threshold int, logger *zap.Logger) *FailureBreaker {
	if threshold < 1 {
		threshold = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FailureBreaker{
		threshold: threshold,
		state:     BreakerClosed,
		logger:    logger,
	}
}

// RecordSuccess 记录成功，重置连续失败计数
func (b *FailureBreaker) RecordSuccess() {
	b.failures = 0
}

// RecordFailure 记录失败；达到阈值时熔断
func (b *FailureBreaker) RecordFailure() {
	b.failures++
	b.lastFailureTime = time.Now()

	if b.state == BreakerClosed && b.failures >= b.threshold {
		b.state = BreakerOpen
		b.logger.Warn("failure breaker tripped",
			zap.Int("consecutive_failures", b.failures),
			zap.Int("threshold", b.threshold))
	}
}

// Tripped 报告当前阶段是否应当暂停
func (b *FailureBreaker) Tripped() bool {
	return b.state == BreakerOpen
}

// Failures 返回当前连续失败次数
func (b *FailureBreaker) Failures() int {
	return b.failures
}

// State 返回熔断器状态
func (b *FailureBreaker) State() BreakerState {
	return b.state
}
