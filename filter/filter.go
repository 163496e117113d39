package filter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gotrekbr/instaze/types"
)

// Skip reasons reported in decisions and logs. Every ineligible target is
// logged with one of these; nothing is dropped silently.
const (
	ReasonExcluded      = "excluded"
	ReasonBounds        = "bounds"
	ReasonPrivate       = "private"
	ReasonBusiness      = "business"
	ReasonRuleRejected  = "rule_rejected"
	ReasonRuleError     = "rule_error"
	ReasonRecentlyActed = "recently_acted"
)

// Bounds constrains a candidate's follower and following counts. A nil field
// is unconstrained.
type Bounds struct {
	MinFollowers *int `yaml:"min_followers"`
	MaxFollowers *int `yaml:"max_followers"`
	MinFollowing *int `yaml:"min_following"`
	MaxFollowing *int `yaml:"max_following"`
}

// within reports whether the profile satisfies every set bound.
func (b Bounds) within(p types.TargetProfile) bool {
	if b.MinFollowers != nil && p.FollowerCount < *b.MinFollowers {
		return false
	}
	if b.MaxFollowers != nil && p.FollowerCount > *b.MaxFollowers {
		return false
	}
	if b.MinFollowing != nil && p.FollowingCount < *b.MinFollowing {
		return false
	}
	if b.MaxFollowing != nil && p.FollowingCount > *b.MaxFollowing {
		return false
	}
	return true
}

// Rule is a deployer-supplied eligibility predicate. A rule that returns an
// error makes the target ineligible; the error is logged but never aborts
// the run.
type Rule interface {
	Name() string
	Allow(profile types.TargetProfile) (bool, error)
}

// RuleFunc adapts a function to the Rule interface.
type RuleFunc struct {
	RuleName string
	Fn       func(profile types.TargetProfile) (bool, error)
}

func (r RuleFunc) Name() string { return r.RuleName }

func (r RuleFunc) Allow(profile types.TargetProfile) (bool, error) {
	return r.Fn(profile)
}

// KeywordRule rejects profiles whose username or biography contains any of
// the configured keywords, case-insensitive.
type KeywordRule struct {
	Keywords []string
}

func (r KeywordRule) Name() string { return "keyword" }

func (r KeywordRule) Allow(profile types.TargetProfile) (bool, error) {
	username := strings.ToLower(profile.Username)
	bio := strings.ToLower(profile.Biography)
	for _, kw := range r.Keywords {
		kw = strings.ToLower(kw)
		if kw == "" {
			continue
		}
		if strings.Contains(username, kw) || strings.Contains(bio, kw) {
			return false, nil
		}
	}
	return true, nil
}

// Toucher answers whether a target was recently acted on. *store.Store
// satisfies it.
type Toucher interface {
	WasActedOn(ctx context.Context, targetID string, kind types.ActionKind, within time.Duration, now time.Time) (bool, error)
}

// Config holds the static filter settings.
type Config struct {
	Bounds       Bounds
	ExcludeUsers []string
	SkipPrivate  bool
	SkipBusiness bool
	// RefollowCooldown suppresses re-following a target we already followed
	// within this duration. Distinct from the unfollow staleness ages: it
	// guards repeat touches, not unfollow timing.
	RefollowCooldown time.Duration
}

// Decision is the outcome of one eligibility check.
type Decision struct {
	Eligible bool
	// Reason names why the target was skipped; empty when eligible.
	Reason string
}

func approve() Decision           { return Decision{Eligible: true} }
func skip(reason string) Decision { return Decision{Reason: reason} }

// Filter evaluates eligibility for candidate targets. Checks run cheapest
// first and short-circuit: static bounds and the exclude list never touch
// the store or the deployer's rule.
type Filter struct {
	cfg        Config
	exclude    map[string]bool
	followRule Rule
	likeRule   Rule
	toucher    Toucher
	logger     *zap.Logger
	clock      func() time.Time
}

// New creates a filter. followRule and likeRule are optional deployer
// predicates; either may be nil.
func New(cfg Config, followRule, likeRule Rule, toucher Toucher, logger *zap.Logger) *Filter {
	if logger == nil {
		logger = zap.NewNop()
	}
	exclude := make(map[string]bool, len(cfg.ExcludeUsers))
	for _, u := range cfg.ExcludeUsers {
		exclude[strings.ToLower(u)] = true
	}
	return &Filter{
		cfg:        cfg,
		exclude:    exclude,
		followRule: followRule,
		likeRule:   likeRule,
		toucher:    toucher,
		logger:     logger.With(zap.String("component", "filter")),
		clock:      time.Now,
	}
}

// WithClock overrides the filter's clock for tests.
func (f *Filter) WithClock(clock func() time.Time) *Filter {
	f.clock = clock
	return f
}

// CheckFollow decides whether profile may be followed now.
func (f *Filter) CheckFollow(ctx context.Context, profile types.TargetProfile) (Decision, error) {
	if f.excluded(profile) {
		return skip(ReasonExcluded), nil
	}
	if !f.cfg.Bounds.within(profile) {
		return skip(ReasonBounds), nil
	}
	if f.cfg.SkipPrivate && profile.IsPrivate {
		return skip(ReasonPrivate), nil
	}
	if f.cfg.SkipBusiness && profile.IsBusinessAccount {
		return skip(ReasonBusiness), nil
	}

	if d, ok := f.applyRule(f.followRule, profile); !ok {
		return d, nil
	}

	if f.cfg.RefollowCooldown > 0 {
		touched, err := f.toucher.WasActedOn(ctx, profile.UserID, types.KindFollow, f.cfg.RefollowCooldown, f.clock())
		if err != nil {
			return Decision{}, err
		}
		if touched {
			return skip(ReasonRecentlyActed), nil
		}
	}
	return approve(), nil
}

// CheckUnfollow decides whether the target may be unfollowed. Only the
// exclude list applies: attribute bounds govern new follows, not cleanup.
func (f *Filter) CheckUnfollow(_ context.Context, profile types.TargetProfile) (Decision, error) {
	if f.excluded(profile) {
		return skip(ReasonExcluded), nil
	}
	return approve(), nil
}

// CheckLike decides whether media owned by profile may be liked.
func (f *Filter) CheckLike(_ context.Context, profile types.TargetProfile) (Decision, error) {
	if f.excluded(profile) {
		return skip(ReasonExcluded), nil
	}
	if d, ok := f.applyRule(f.likeRule, profile); !ok {
		return d, nil
	}
	return approve(), nil
}

// applyRule runs an optional deployer rule. Rule errors make the target
// ineligible and are logged, never fatal.
func (f *Filter) applyRule(rule Rule, profile types.TargetProfile) (Decision, bool) {
	if rule == nil {
		return approve(), true
	}
	allowed, err := rule.Allow(profile)
	if err != nil {
		f.logger.Warn("eligibility rule failed",
			zap.String("rule", rule.Name()),
			zap.String("username", profile.Username),
			zap.Error(err))
		return skip(fmt.Sprintf("%s: %s", ReasonRuleError, rule.Name())), false
	}
	if !allowed {
		return skip(ReasonRuleRejected), false
	}
	return approve(), true
}

func (f *Filter) excluded(profile types.TargetProfile) bool {
	return f.exclude[strings.ToLower(profile.Username)] || f.exclude[strings.ToLower(profile.UserID)]
}
