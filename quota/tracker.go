package quota

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/gotrekbr/instaze/types"
)

// Unlimited is returned by Remaining when no configured window applies to
// the requested kind.
const Unlimited = math.MaxInt

// Window bounds the number of successful actions of a set of kinds within a
// sliding duration. Multiple windows may cover the same kind (hourly and
// daily); all of them must be satisfied simultaneously.
//
// The window is half-open [now-Per, now): an action whose elapsed time
// equals Per exactly is outside the window.
type Window struct {
	// Name identifies the window in logs, e.g. "follows-hourly".
	Name string
	// Kinds is the set of action kinds sharing this budget. The original
	// platform limits count follows and unfollows jointly, which is why a
	// window carries a set rather than a single kind. Empty means every kind.
	Kinds []types.ActionKind
	// Per is the sliding window duration.
	Per time.Duration
	// Max is the maximum number of successful actions within Per.
	Max int
}

// AppliesTo reports whether the window constrains the given kind.
func (w Window) AppliesTo(kind types.ActionKind) bool {
	if len(w.Kinds) == 0 {
		return true
	}
	for _, k := range w.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// kindSet returns the kinds counted by this window.
func (w Window) kindSet() []types.ActionKind {
	if len(w.Kinds) == 0 {
		return types.AllKinds()
	}
	return w.Kinds
}

// Counter provides success counts from the append-only action log.
// *store.Store satisfies it.
type Counter interface {
	CountSuccessSince(ctx context.Context, kinds []types.ActionKind, since time.Time) (int64, error)
}

// Tracker answers "is one more action of kind K permitted right now?" by
// recounting the action log against every applicable window. There is no
// separate mutable counter to desynchronize: the durable append of the
// resulting record is the implicit decrement, so the tracker is trivially
// consistent after a crash or restart.
type Tracker struct {
	counter Counter
	windows []Window
	logger  *zap.Logger
	clock   func() time.Time
}

// NewTracker creates a tracker over the given log and windows.
func NewTracker(counter Counter, windows []Window, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		counter: counter,
		windows: windows,
		logger:  logger.With(zap.String("component", "quota")),
		clock:   time.Now,
	}
}

// WithClock overrides the tracker's clock. Tests use it to pin "now".
func (t *Tracker) WithClock(clock func() time.Time) *Tracker {
	t.clock = clock
	return t
}

// Remaining returns the minimum headroom across every window applicable to
// kind, clamped at zero. Only Success records count against a window.
func (t *Tracker) Remaining(ctx context.Context, kind types.ActionKind) (int, error) {
	now := t.clock()
	remaining := Unlimited

	for _, w := range t.windows {
		if !w.AppliesTo(kind) {
			continue
		}
		n, err := t.counter.CountSuccessSince(ctx, w.kindSet(), now.Add(-w.Per))
		if err != nil {
			return 0, err
		}
		headroom := w.Max - int(n)
		if headroom < 0 {
			headroom = 0
		}
		if headroom < remaining {
			remaining = headroom
		}
	}
	return remaining, nil
}

// TryReserve re-checks Remaining and reports whether one more action of the
// given kind may proceed. Under the single-writer model the check-then-append
// sequence is atomic by construction; the caller seals the reservation by
// appending the resulting record to the store.
func (t *Tracker) TryReserve(ctx context.Context, kind types.ActionKind) (bool, error) {
	remaining, err := t.Remaining(ctx, kind)
	if err != nil {
		return false, err
	}
	if remaining <= 0 {
		t.logger.Info("quota exhausted",
			zap.String("kind", kind.String()))
		return false, nil
	}
	t.logger.Debug("quota reserve approved",
		zap.String("kind", kind.String()),
		zap.Int("remaining", remaining))
	return true, nil
}

// Windows returns the configured windows.
func (t *Tracker) Windows() []Window {
	return t.windows
}
