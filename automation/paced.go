package automation

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/gotrekbr/instaze/types"
)

// PacedSession floors the gap between platform calls with a token-bucket
// limiter. This is burst smoothing below the quota windows: the quota
// tracker bounds how many actions happen per hour or day, the pacer keeps
// the individual calls from arriving in machine-speed bursts.
type PacedSession struct {
	inner   Session
	limiter *rate.Limiter
}

// NewPacedSession paces inner at the given sustained rate with burst 1.
func NewPacedSession(inner Session, r rate.Limit) *PacedSession {
	return &PacedSession{
		inner:   inner,
		limiter: rate.NewLimiter(r, 1),
	}
}

func (s *PacedSession) wait(ctx context.Context) error {
	return s.limiter.Wait(ctx)
}

func (s *PacedSession) Follow(ctx context.Context, targetID string) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	return s.inner.Follow(ctx, targetID)
}

func (s *PacedSession) Unfollow(ctx context.Context, targetID string) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	return s.inner.Unfollow(ctx, targetID)
}

func (s *PacedSession) LikeMedia(ctx context.Context, mediaID string) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	return s.inner.LikeMedia(ctx, mediaID)
}

func (s *PacedSession) FetchProfile(ctx context.Context, targetID string) (types.TargetProfile, error) {
	if err := s.wait(ctx); err != nil {
		return types.TargetProfile{}, err
	}
	return s.inner.FetchProfile(ctx, targetID)
}

func (s *PacedSession) ListFollowers(ctx context.Context, targetID string) (FollowerPager, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return s.inner.ListFollowers(ctx, targetID)
}

func (s *PacedSession) ListMedia(ctx context.Context, targetID string, max int) ([]string, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return s.inner.ListMedia(ctx, targetID, max)
}
