package campaign

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gotrekbr/instaze/automation"
	"github.com/gotrekbr/instaze/filter"
	"github.com/gotrekbr/instaze/internal/metrics"
	"github.com/gotrekbr/instaze/quota"
	"github.com/gotrekbr/instaze/types"
)

// State 工作流状态
type State string

const (
	// StateIdle 尚未开始
	StateIdle State = "idle"
	// StateRunning 正在执行某个阶段
	StateRunning State = "running"
	// StatePaused 阶段间冷却暂停
	StatePaused State = "paused"
	// StateCompleted 所有阶段执行完毕（终态）
	StateCompleted State = "completed"
	// StateAborted 取消或不可恢复错误（终态）。已落盘的记录保持有效，
	// 不做回滚：每条动作记录都是独立事实。
	StateAborted State = "aborted"
)

// Phase stop reasons reported per phase.
const (
	StopPhaseCap      = "phase_cap"
	StopQuota         = "quota_exhausted"
	StopNoCandidates  = "candidates_exhausted"
	StopFailureStreak = "failure_streak"
	StopAborted       = "aborted"
)

// ActionLog is the slice of the action store the orchestrator writes to.
// Defined locally to keep the dependency one-way (the store knows nothing
// about campaigns).
type ActionLog interface {
	Append(ctx context.Context, rec types.ActionRecord) error
	LastAction(ctx context.Context, targetID string, kind types.ActionKind) (*types.ActionRecord, error)
}

// Phase is one ordered stage of a campaign: a target population, one action
// kind, and its own caps and cooldowns. The phase budget is additionally
// capped by whatever global quota remains.
type Phase struct {
	Name     string
	Selector Selector
	Kind     types.ActionKind
	// MaxActions caps successful actions this phase; 0 means no phase cap.
	MaxActions      int
	PerUserCooldown time.Duration
	// LikeMediaMax: for follow phases, like up to this many media of each
	// newly followed account; for like phases, media liked per candidate.
	LikeMediaMax int
}

// Options configures an orchestrator run.
type Options struct {
	Phases             []Phase
	InterPhaseCooldown time.Duration
	// FailureThreshold trips the phase breaker; below 1 defaults to 3.
	FailureThreshold int
	// DryRun suppresses store appends. Pair it with automation.DryRunSession
	// so the platform is never touched either.
	DryRun bool
}

// PhaseReport summarizes one executed phase.
type PhaseReport struct {
	Name       string           `json:"name"`
	Kind       types.ActionKind `json:"kind"`
	Succeeded  int              `json:"succeeded"`
	Failed     int              `json:"failed"`
	Skipped    int              `json:"skipped"`
	StopReason string           `json:"stop_reason"`
}

// Report summarizes a whole run.
type Report struct {
	RunID  string        `json:"run_id"`
	State  State         `json:"state"`
	Phases []PhaseReport `json:"phases"`
}

// Orchestrator sequences campaign phases against a single automation
// session. Execution is strictly single-threaded: one action at a time, with
// cancellable suspension points after each action and between phases.
type Orchestrator struct {
	session   automation.Session
	log       ActionLog
	tracker   *quota.Tracker
	filter    *filter.Filter
	opts      Options
	runID     string
	state     State
	logger    *zap.Logger
	collector *metrics.Collector
	clock     func() time.Time
}

// New creates an orchestrator. collector may be nil.
func New(
	session automation.Session,
	log ActionLog,
	tracker *quota.Tracker,
	f *filter.Filter,
	opts Options,
	logger *zap.Logger,
	collector *metrics.Collector,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	runID := uuid.NewString()
	return &Orchestrator{
		session:   session,
		log:       log,
		tracker:   tracker,
		filter:    f,
		opts:      opts,
		runID:     runID,
		state:     StateIdle,
		logger:    logger.With(zap.String("component", "campaign"), zap.String("run_id", runID)),
		collector: collector,
		clock:     time.Now,
	}
}

// WithClock overrides the orchestrator's clock for tests.
func (o *Orchestrator) WithClock(clock func() time.Time) *Orchestrator {
	o.clock = clock
	return o
}

// RunID returns the run's unique identifier.
func (o *Orchestrator) RunID() string { return o.runID }

// State returns the current state.
func (o *Orchestrator) State() State { return o.state }

// Run executes every configured phase in order and returns the report.
// Quota exhaustion is not an error: phases end early and the run completes.
// The returned error is non-nil only for aborts (cancellation or fatal
// store failure); records appended before the abort remain valid.
func (o *Orchestrator) Run(ctx context.Context) (*Report, error) {
	report := &Report{RunID: o.runID, State: StateIdle}

	for i, phase := range o.opts.Phases {
		o.transition(StateRunning, phase.Name)

		pr, err := o.runPhase(ctx, phase)
		report.Phases = append(report.Phases, pr)
		if err != nil {
			o.transition(StateAborted, phase.Name)
			report.State = StateAborted
			return report, err
		}

		// Inter-phase cooldown: back-pressure between phases so the
		// platform never sees one burst rolling into the next.
		if i < len(o.opts.Phases)-1 && o.opts.InterPhaseCooldown > 0 {
			o.transition(StatePaused, phase.Name)
			if err := sleepCtx(ctx, o.opts.InterPhaseCooldown); err != nil {
				o.transition(StateAborted, phase.Name)
				report.State = StateAborted
				return report, types.NewError(types.ErrRunAborted, "cancelled during inter-phase cooldown").WithCause(err)
			}
		}
	}

	o.transition(StateCompleted, "")
	report.State = StateCompleted
	return report, nil
}

// runPhase loops over the phase's candidates until the phase cap, the
// global quota, the candidate list, or the failure breaker ends it.
func (o *Orchestrator) runPhase(ctx context.Context, phase Phase) (PhaseReport, error) {
	pr := PhaseReport{Name: phase.Name, Kind: phase.Kind}
	logger := o.logger.With(zap.String("phase", phase.Name), zap.String("kind", phase.Kind.String()))
	breaker := NewFailureBreaker(o.opts.FailureThreshold, logger)

	source, err := phase.Selector.Open(ctx)
	if err != nil {
		if types.IsFatal(err) {
			pr.StopReason = StopAborted
			return pr, err
		}
		logger.Error("selector failed, ending phase", zap.Error(err))
		pr.StopReason = StopNoCandidates
		return pr, nil
	}

	for {
		if ctx.Err() != nil {
			pr.StopReason = StopAborted
			return pr, types.NewError(types.ErrRunAborted, "cancelled").WithCause(ctx.Err())
		}

		if phase.MaxActions > 0 && pr.Succeeded >= phase.MaxActions {
			logger.Info("phase cap reached", zap.Int("succeeded", pr.Succeeded))
			pr.StopReason = StopPhaseCap
			return pr, nil
		}

		remaining, err := o.tracker.Remaining(ctx, phase.Kind)
		if err != nil {
			pr.StopReason = StopAborted
			return pr, err
		}
		o.gauge(phase.Kind, remaining)
		if remaining <= 0 {
			// Expected terminal condition, not an error.
			logger.Info("quota exhausted, ending phase")
			pr.StopReason = StopQuota
			return pr, nil
		}

		id, ok, err := source.Next(ctx)
		if err != nil {
			if types.IsFatal(err) {
				pr.StopReason = StopAborted
				return pr, err
			}
			logger.Warn("candidate enumeration failed, ending phase", zap.Error(err))
			pr.StopReason = StopNoCandidates
			return pr, nil
		}
		if !ok {
			logger.Info("candidates exhausted")
			pr.StopReason = StopNoCandidates
			return pr, nil
		}

		acted, err := o.processTarget(ctx, phase, id, breaker, &pr, logger)
		if err != nil {
			pr.StopReason = StopAborted
			return pr, err
		}

		if breaker.Tripped() {
			logger.Warn("consecutive failures, pausing phase",
				zap.Int("failures", breaker.Failures()))
			pr.StopReason = StopFailureStreak
			return pr, nil
		}

		if acted && phase.PerUserCooldown > 0 {
			if err := sleepCtx(ctx, phase.PerUserCooldown); err != nil {
				pr.StopReason = StopAborted
				return pr, types.NewError(types.ErrRunAborted, "cancelled during per-user cooldown").WithCause(err)
			}
		}
	}
}

// processTarget runs the per-candidate pipeline: profile → filter → quota →
// executor → store. It reports whether an action was actually executed
// (successful or failed), which is what arms the per-user cooldown.
func (o *Orchestrator) processTarget(
	ctx context.Context,
	phase Phase,
	id string,
	breaker *FailureBreaker,
	pr *PhaseReport,
	logger *zap.Logger,
) (bool, error) {
	profile, ok, err := o.loadProfile(ctx, phase, id, breaker, pr, logger)
	if err != nil || !ok {
		return false, err
	}

	decision, err := o.checkFilter(ctx, phase.Kind, profile)
	if err != nil {
		return false, err
	}
	if !decision.Eligible {
		o.skip(pr, logger, id, decision.Reason)
		return false, nil
	}

	switch phase.Kind {
	case types.KindLike:
		max := phase.LikeMediaMax
		if max <= 0 {
			max = 1
		}
		n, err := o.likeMedia(ctx, profile, max, breaker, pr, logger)
		return n > 0, err
	default:
		return o.executeAction(ctx, phase, profile, breaker, pr, logger)
	}
}

// executeAction performs one follow or unfollow against an approved target.
func (o *Orchestrator) executeAction(
	ctx context.Context,
	phase Phase,
	profile types.TargetProfile,
	breaker *FailureBreaker,
	pr *PhaseReport,
	logger *zap.Logger,
) (bool, error) {
	// Final atomic re-check right before the executor call; the durable
	// append below is the implicit decrement.
	ok, err := o.tracker.TryReserve(ctx, phase.Kind)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	var actErr error
	switch phase.Kind {
	case types.KindFollow:
		actErr = o.session.Follow(ctx, profile.UserID)
	case types.KindUnfollow:
		actErr = o.session.Unfollow(ctx, profile.UserID)
	}

	if err := o.recordOutcome(ctx, phase.Kind, profile.UserID, actErr, breaker, pr, logger); err != nil {
		return true, err
	}

	if actErr == nil && phase.Kind == types.KindFollow && phase.LikeMediaMax > 0 {
		if _, err := o.likeMedia(ctx, profile, phase.LikeMediaMax, breaker, pr, logger); err != nil {
			return true, err
		}
	}
	return true, nil
}

// likeMedia likes up to max media items owned by profile, each individually
// quota-checked. Returns the number of successful likes.
func (o *Orchestrator) likeMedia(
	ctx context.Context,
	profile types.TargetProfile,
	max int,
	breaker *FailureBreaker,
	pr *PhaseReport,
	logger *zap.Logger,
) (int, error) {
	mediaIDs, err := o.session.ListMedia(ctx, profile.UserID, max)
	if err != nil {
		logger.Warn("media listing failed",
			zap.String("target_id", profile.UserID), zap.Error(err))
		breaker.RecordFailure()
		o.streakGauge(breaker)
		return 0, nil
	}

	liked := 0
	for _, mediaID := range mediaIDs {
		if breaker.Tripped() || ctx.Err() != nil {
			break
		}

		ok, err := o.tracker.TryReserve(ctx, types.KindLike)
		if err != nil {
			return liked, err
		}
		if !ok {
			logger.Info("like quota exhausted, skipping remaining media",
				zap.String("target_id", profile.UserID))
			break
		}

		actErr := o.session.LikeMedia(ctx, mediaID)
		if err := o.recordOutcome(ctx, types.KindLike, mediaID, actErr, breaker, pr, logger); err != nil {
			return liked, err
		}
		if actErr == nil {
			liked++
		}
	}
	return liked, nil
}

// recordOutcome appends the record for an executed action (success or
// failure) and updates the breaker. Dry-run suppresses the append: a dry
// run leaves no trace in history.
func (o *Orchestrator) recordOutcome(
	ctx context.Context,
	kind types.ActionKind,
	targetID string,
	actErr error,
	breaker *FailureBreaker,
	pr *PhaseReport,
	logger *zap.Logger,
) error {
	outcome := types.OutcomeSuccess
	if actErr != nil {
		outcome = types.OutcomeFailed
	}

	if !o.opts.DryRun {
		start := time.Now()
		rec := types.ActionRecord{
			RunID:     o.runID,
			TargetID:  targetID,
			Kind:      kind,
			Outcome:   outcome,
			Timestamp: o.clock(),
		}
		if err := o.log.Append(ctx, rec); err != nil {
			// A store failure mid-run aborts: acting without a durable
			// history risks exceeding real-world limits.
			logger.Error("store append failed, aborting run", zap.Error(err))
			return err
		}
		if o.collector != nil {
			o.collector.ObserveAppend(time.Since(start))
		}
	}

	if o.collector != nil {
		o.collector.RecordAction(kind.String(), string(outcome))
	}

	if actErr != nil {
		pr.Failed++
		breaker.RecordFailure()
		logger.Warn("action failed",
			zap.String("kind", kind.String()),
			zap.String("target_id", targetID),
			zap.Error(actErr))
	} else {
		pr.Succeeded++
		breaker.RecordSuccess()
		logger.Info("action executed",
			zap.String("kind", kind.String()),
			zap.String("target_id", targetID),
			zap.Bool("dry_run", o.opts.DryRun))
	}
	o.streakGauge(breaker)
	return nil
}

// loadProfile resolves the candidate's profile. Follow and like candidates
// need the real profile for filtering; unfollow candidates are our own
// historical targets, so a synthetic profile avoids a platform round-trip.
func (o *Orchestrator) loadProfile(
	ctx context.Context,
	phase Phase,
	id string,
	breaker *FailureBreaker,
	pr *PhaseReport,
	logger *zap.Logger,
) (types.TargetProfile, bool, error) {
	if phase.Kind == types.KindUnfollow {
		return types.TargetProfile{UserID: id, Username: id}, true, nil
	}

	profile, err := o.session.FetchProfile(ctx, id)
	if err != nil {
		// A fetch failure is an automation-layer failure: it feeds the
		// breaker (session expiry manifests here first) but creates no
		// record, since no action was executed.
		o.skip(pr, logger, id, "profile_error")
		breaker.RecordFailure()
		o.streakGauge(breaker)
		return types.TargetProfile{}, false, nil
	}

	last, err := o.log.LastAction(ctx, id, types.KindFollow)
	if err != nil {
		return types.TargetProfile{}, false, err
	}
	if last != nil {
		profile.PreviouslyFollowed = true
		ts := last.Timestamp
		profile.LastFollowedAt = &ts
	}
	return profile, true, nil
}

func (o *Orchestrator) checkFilter(ctx context.Context, kind types.ActionKind, profile types.TargetProfile) (filter.Decision, error) {
	switch kind {
	case types.KindFollow:
		return o.filter.CheckFollow(ctx, profile)
	case types.KindUnfollow:
		return o.filter.CheckUnfollow(ctx, profile)
	default:
		return o.filter.CheckLike(ctx, profile)
	}
}

// skip logs and counts a pre-execution skip. Skips are never persisted, but
// they are never silent either.
func (o *Orchestrator) skip(pr *PhaseReport, logger *zap.Logger, id, reason string) {
	pr.Skipped++
	logger.Info("target skipped",
		zap.String("target_id", id),
		zap.String("reason", reason))
	if o.collector != nil {
		o.collector.RecordSkip(reason)
	}
}

// transition moves the state machine and logs the edge.
func (o *Orchestrator) transition(to State, phase string) {
	from := o.state
	o.state = to
	o.logger.Info("state transition",
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("phase", phase))
	if o.collector != nil {
		o.collector.RecordPhaseTransition(string(from), string(to))
	}
}

func (o *Orchestrator) gauge(kind types.ActionKind, remaining int) {
	if o.collector != nil && remaining != quota.Unlimited {
		o.collector.SetQuotaRemaining(kind.String(), remaining)
	}
}

func (o *Orchestrator) streakGauge(breaker *FailureBreaker) {
	if o.collector != nil {
		o.collector.SetFailureStreak(breaker.Failures())
	}
}

// sleepCtx suspends for d, waking immediately on cancellation. Both
// suspension points (per-user and inter-phase cooldown) go through here, so
// a shutdown signal is always observable while the orchestrator sleeps.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
