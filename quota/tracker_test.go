package quota

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gotrekbr/instaze/types"
)

// memLog is an in-memory stand-in for the action store's success counter.
type memLog struct {
	recs []types.ActionRecord
}

func (m *memLog) append(kind types.ActionKind, outcome types.Outcome, ts time.Time) {
	m.recs = append(m.recs, types.ActionRecord{TargetID: "t", Kind: kind, Outcome: outcome, Timestamp: ts})
}

func (m *memLog) CountSuccessSince(_ context.Context, kinds []types.ActionKind, since time.Time) (int64, error) {
	set := make(map[types.ActionKind]bool, len(kinds))
	for _, k := range kinds {
		set[k] = true
	}
	var n int64
	for _, r := range m.recs {
		if r.Outcome == types.OutcomeSuccess && set[r.Kind] && r.Timestamp.After(since) {
			n++
		}
	}
	return n, nil
}

func followWindows() []Window {
	return []Window{
		{Name: "follows-hourly", Kinds: []types.ActionKind{types.KindFollow, types.KindUnfollow}, Per: time.Hour, Max: 20},
		{Name: "follows-daily", Kinds: []types.ActionKind{types.KindFollow, types.KindUnfollow}, Per: 24 * time.Hour, Max: 150},
		{Name: "likes-daily", Kinds: []types.ActionKind{types.KindLike}, Per: 24 * time.Hour, Max: 30},
	}
}

func TestTracker_RemainingEmptyLog(t *testing.T) {
	log := &memLog{}
	now := time.Now()
	tr := NewTracker(log, followWindows(), zap.NewNop()).WithClock(func() time.Time { return now })

	remaining, err := tr.Remaining(context.Background(), types.KindFollow)
	require.NoError(t, err)
	assert.Equal(t, 20, remaining, "hourly window is the tightest bound")

	remaining, err = tr.Remaining(context.Background(), types.KindLike)
	require.NoError(t, err)
	assert.Equal(t, 30, remaining)
}

func TestTracker_OverlappingWindowsTakeMin(t *testing.T) {
	log := &memLog{}
	now := time.Now()
	tr := NewTracker(log, followWindows(), zap.NewNop()).WithClock(func() time.Time { return now })
	ctx := context.Background()

	// 15 follows two hours ago: outside the hourly window, inside the daily.
	for i := 0; i < 15; i++ {
		log.append(types.KindFollow, types.OutcomeSuccess, now.Add(-2*time.Hour))
	}
	remaining, err := tr.Remaining(ctx, types.KindFollow)
	require.NoError(t, err)
	assert.Equal(t, 20, remaining, "hourly still tighter: min(20-0, 150-15)")

	// 130 more: daily becomes the binding constraint.
	for i := 0; i < 130; i++ {
		log.append(types.KindFollow, types.OutcomeSuccess, now.Add(-3*time.Hour))
	}
	remaining, err = tr.Remaining(ctx, types.KindFollow)
	require.NoError(t, err)
	assert.Equal(t, 5, remaining, "min(20-0, 150-145)")
}

func TestTracker_JointFollowUnfollowBudget(t *testing.T) {
	log := &memLog{}
	now := time.Now()
	tr := NewTracker(log, followWindows(), zap.NewNop()).WithClock(func() time.Time { return now })
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		log.append(types.KindUnfollow, types.OutcomeSuccess, now.Add(-10*time.Minute))
	}

	remaining, err := tr.Remaining(ctx, types.KindFollow)
	require.NoError(t, err)
	assert.Equal(t, 8, remaining, "unfollows burn the shared hourly budget")

	// Likes are a separate budget entirely.
	remaining, err = tr.Remaining(ctx, types.KindLike)
	require.NoError(t, err)
	assert.Equal(t, 30, remaining)
}

func TestTracker_FailuresDoNotCount(t *testing.T) {
	log := &memLog{}
	now := time.Now()
	tr := NewTracker(log, followWindows(), zap.NewNop()).WithClock(func() time.Time { return now })

	for i := 0; i < 50; i++ {
		log.append(types.KindFollow, types.OutcomeFailed, now.Add(-time.Minute))
	}

	remaining, err := tr.Remaining(context.Background(), types.KindFollow)
	require.NoError(t, err)
	assert.Equal(t, 20, remaining)
}

func TestTracker_ClampsAtZero(t *testing.T) {
	log := &memLog{}
	now := time.Now()
	tr := NewTracker(log, followWindows(), zap.NewNop()).WithClock(func() time.Time { return now })
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		log.append(types.KindFollow, types.OutcomeSuccess, now.Add(-time.Minute))
	}

	remaining, err := tr.Remaining(ctx, types.KindFollow)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining, "never negative")

	ok, err := tr.TryReserve(ctx, types.KindFollow)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTracker_BoundaryIsHalfOpen(t *testing.T) {
	log := &memLog{}
	now := time.Now()
	tr := NewTracker(log, []Window{
		{Name: "hourly", Kinds: []types.ActionKind{types.KindFollow}, Per: time.Hour, Max: 1},
	}, zap.NewNop()).WithClock(func() time.Time { return now })
	ctx := context.Background()

	// Exactly one window-duration old: excluded from the window.
	log.append(types.KindFollow, types.OutcomeSuccess, now.Add(-time.Hour))
	remaining, err := tr.Remaining(ctx, types.KindFollow)
	require.NoError(t, err)
	assert.Equal(t, 1, remaining)

	// One nanosecond fresher: inside.
	log.append(types.KindFollow, types.OutcomeSuccess, now.Add(-time.Hour+time.Nanosecond))
	remaining, err = tr.Remaining(ctx, types.KindFollow)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
}

func TestTracker_UnconstrainedKind(t *testing.T) {
	log := &memLog{}
	tr := NewTracker(log, []Window{
		{Name: "likes-daily", Kinds: []types.ActionKind{types.KindLike}, Per: 24 * time.Hour, Max: 30},
	}, zap.NewNop())

	remaining, err := tr.Remaining(context.Background(), types.KindFollow)
	require.NoError(t, err)
	assert.Equal(t, Unlimited, remaining)
}

func TestTracker_RemainingIsIdempotent(t *testing.T) {
	log := &memLog{}
	now := time.Now()
	tr := NewTracker(log, followWindows(), zap.NewNop()).WithClock(func() time.Time { return now })
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		log.append(types.KindFollow, types.OutcomeSuccess, now.Add(-time.Minute))
	}

	first, err := tr.Remaining(ctx, types.KindFollow)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := tr.Remaining(ctx, types.KindFollow)
		require.NoError(t, err)
		assert.Equal(t, first, again, "no append between calls, same answer")
	}
}

func TestWindow_AppliesTo(t *testing.T) {
	any := Window{Name: "global", Per: time.Hour, Max: 10}
	for _, k := range types.AllKinds() {
		assert.True(t, any.AppliesTo(k))
	}

	likes := Window{Name: "likes", Kinds: []types.ActionKind{types.KindLike}, Per: time.Hour, Max: 10}
	assert.True(t, likes.AppliesTo(types.KindLike))
	assert.False(t, likes.AppliesTo(types.KindFollow))
}
