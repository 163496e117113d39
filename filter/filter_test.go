package filter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gotrekbr/instaze/types"
)

type fakeToucher struct {
	touched map[string]time.Time // targetID -> last follow time
	err     error
}

func (f *fakeToucher) WasActedOn(_ context.Context, targetID string, _ types.ActionKind, within time.Duration, now time.Time) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	ts, ok := f.touched[targetID]
	if !ok {
		return false, nil
	}
	return now.Sub(ts) < within, nil
}

func intp(n int) *int { return &n }

func profile(username string) types.TargetProfile {
	return types.TargetProfile{
		UserID:         "id-" + username,
		Username:       username,
		FollowerCount:  500,
		FollowingCount: 300,
	}
}

func TestCheckFollow_Bounds(t *testing.T) {
	cfg := Config{Bounds: Bounds{
		MinFollowers: intp(100),
		MaxFollowers: intp(1000),
		MaxFollowing: intp(2000),
	}}
	f := New(cfg, nil, nil, &fakeToucher{}, zap.NewNop())
	ctx := context.Background()

	tests := []struct {
		name      string
		followers int
		following int
		eligible  bool
	}{
		{"within bounds", 500, 300, true},
		{"too few followers", 50, 300, false},
		{"too many followers", 5000, 300, false},
		{"too many following", 500, 9000, false},
		{"at min boundary", 100, 300, true},
		{"at max boundary", 1000, 2000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := profile("candidate")
			p.FollowerCount = tt.followers
			p.FollowingCount = tt.following
			d, err := f.CheckFollow(ctx, p)
			require.NoError(t, err)
			assert.Equal(t, tt.eligible, d.Eligible)
			if !tt.eligible {
				assert.Equal(t, ReasonBounds, d.Reason)
			}
		})
	}
}

func TestCheckFollow_UnsetBoundsUnconstrained(t *testing.T) {
	f := New(Config{}, nil, nil, &fakeToucher{}, zap.NewNop())

	p := profile("whale")
	p.FollowerCount = 10_000_000
	p.FollowingCount = 0

	d, err := f.CheckFollow(context.Background(), p)
	require.NoError(t, err)
	assert.True(t, d.Eligible)
}

func TestCheckFollow_ExcludeList(t *testing.T) {
	f := New(Config{ExcludeUsers: []string{"BestFriend", "id-partner"}}, nil, nil, &fakeToucher{}, zap.NewNop())
	ctx := context.Background()

	d, err := f.CheckFollow(ctx, profile("bestfriend"))
	require.NoError(t, err)
	assert.False(t, d.Eligible, "exclude match is case-insensitive")
	assert.Equal(t, ReasonExcluded, d.Reason)

	d, err = f.CheckFollow(ctx, profile("partner"))
	require.NoError(t, err)
	assert.False(t, d.Eligible, "user id matches too")

	d, err = f.CheckFollow(ctx, profile("stranger"))
	require.NoError(t, err)
	assert.True(t, d.Eligible)
}

func TestCheckFollow_PrivateAndBusiness(t *testing.T) {
	f := New(Config{SkipPrivate: true, SkipBusiness: true}, nil, nil, &fakeToucher{}, zap.NewNop())
	ctx := context.Background()

	p := profile("locked")
	p.IsPrivate = true
	d, err := f.CheckFollow(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, ReasonPrivate, d.Reason)

	p = profile("shop")
	p.IsBusinessAccount = true
	d, err = f.CheckFollow(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, ReasonBusiness, d.Reason)
}

func TestCheckFollow_CustomRule(t *testing.T) {
	rejectAll := RuleFunc{RuleName: "reject-all", Fn: func(types.TargetProfile) (bool, error) {
		return false, nil
	}}
	f := New(Config{}, rejectAll, nil, &fakeToucher{}, zap.NewNop())

	d, err := f.CheckFollow(context.Background(), profile("anyone"))
	require.NoError(t, err)
	assert.False(t, d.Eligible)
	assert.Equal(t, ReasonRuleRejected, d.Reason)
}

func TestCheckFollow_RuleErrorIsNonFatal(t *testing.T) {
	broken := RuleFunc{RuleName: "broken", Fn: func(types.TargetProfile) (bool, error) {
		return false, errors.New("upstream hiccup")
	}}
	f := New(Config{}, broken, nil, &fakeToucher{}, zap.NewNop())

	d, err := f.CheckFollow(context.Background(), profile("anyone"))
	require.NoError(t, err, "rule errors never abort the run")
	assert.False(t, d.Eligible)
	assert.Contains(t, d.Reason, ReasonRuleError)
}

func TestCheckFollow_RefollowCooldown(t *testing.T) {
	now := time.Now()
	toucher := &fakeToucher{touched: map[string]time.Time{
		"id-recent": now.Add(-24 * time.Hour),
		"id-old":    now.Add(-100 * 24 * time.Hour),
	}}
	f := New(Config{RefollowCooldown: 90 * 24 * time.Hour}, nil, nil, toucher, zap.NewNop()).
		WithClock(func() time.Time { return now })
	ctx := context.Background()

	d, err := f.CheckFollow(ctx, profile("recent"))
	require.NoError(t, err)
	assert.False(t, d.Eligible, "followed within the cooldown")
	assert.Equal(t, ReasonRecentlyActed, d.Reason)

	d, err = f.CheckFollow(ctx, profile("old"))
	require.NoError(t, err)
	assert.True(t, d.Eligible, "cooldown elapsed, may be touched again")
}

func TestCheckFollow_StoreErrorSurfaces(t *testing.T) {
	toucher := &fakeToucher{err: types.NewError(types.ErrStoreIO, "disk gone")}
	f := New(Config{RefollowCooldown: time.Hour}, nil, nil, toucher, zap.NewNop())

	_, err := f.CheckFollow(context.Background(), profile("anyone"))
	require.Error(t, err)
	assert.True(t, types.IsFatal(err))
}

func TestCheckUnfollow_OnlyExcludeApplies(t *testing.T) {
	cfg := Config{
		Bounds:       Bounds{MinFollowers: intp(1_000_000)},
		ExcludeUsers: []string{"friend"},
		SkipPrivate:  true,
	}
	f := New(cfg, nil, nil, &fakeToucher{}, zap.NewNop())
	ctx := context.Background()

	p := profile("smallprivate")
	p.FollowerCount = 3
	p.IsPrivate = true
	d, err := f.CheckUnfollow(ctx, p)
	require.NoError(t, err)
	assert.True(t, d.Eligible, "bounds and private do not protect from cleanup")

	d, err = f.CheckUnfollow(ctx, profile("friend"))
	require.NoError(t, err)
	assert.False(t, d.Eligible)
}

func TestCheckLike(t *testing.T) {
	noCrypto := KeywordRule{Keywords: []string{"crypto", "bitcoin"}}
	f := New(Config{ExcludeUsers: []string{"friend"}}, nil, noCrypto, &fakeToucher{}, zap.NewNop())
	ctx := context.Background()

	d, err := f.CheckLike(ctx, profile("regular"))
	require.NoError(t, err)
	assert.True(t, d.Eligible)

	p := profile("hodler")
	p.Biography = "Bitcoin maximalist"
	d, err = f.CheckLike(ctx, p)
	require.NoError(t, err)
	assert.False(t, d.Eligible)

	d, err = f.CheckLike(ctx, profile("friend"))
	require.NoError(t, err)
	assert.False(t, d.Eligible)
}

func TestKeywordRule(t *testing.T) {
	rule := KeywordRule{Keywords: []string{"crypto", "Bitcoin"}}

	tests := []struct {
		name     string
		username string
		bio      string
		allowed  bool
	}{
		{"clean profile", "traveler", "I like hiking", true},
		{"keyword in username", "cryptoKing", "", false},
		{"keyword in bio", "jane", "all about BITCOIN here", false},
		{"case-insensitive", "CRYPTOfan", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := types.TargetProfile{Username: tt.username, Biography: tt.bio}
			allowed, err := rule.Allow(p)
			require.NoError(t, err)
			assert.Equal(t, tt.allowed, allowed)
		})
	}
}
