package automation

import (
	"context"

	"go.uber.org/zap"

	"github.com/gotrekbr/instaze/types"
)

// DryRunSession wraps a real session, replacing every mutating call with a
// logged no-op. Read calls pass through so filtering and quota evaluation
// exercise the real candidate data. The orchestrator additionally suppresses
// store appends in dry-run mode, so a dry run leaves no trace in history.
type DryRunSession struct {
	inner  Session
	logger *zap.Logger
}

// NewDryRunSession wraps inner in dry-run mode.
func NewDryRunSession(inner Session, logger *zap.Logger) *DryRunSession {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DryRunSession{
		inner:  inner,
		logger: logger.With(zap.String("component", "dry_run")),
	}
}

func (s *DryRunSession) Follow(_ context.Context, targetID string) error {
	s.logger.Info("dry-run: would follow", zap.String("target_id", targetID))
	return nil
}

func (s *DryRunSession) Unfollow(_ context.Context, targetID string) error {
	s.logger.Info("dry-run: would unfollow", zap.String("target_id", targetID))
	return nil
}

func (s *DryRunSession) LikeMedia(_ context.Context, mediaID string) error {
	s.logger.Info("dry-run: would like", zap.String("media_id", mediaID))
	return nil
}

func (s *DryRunSession) FetchProfile(ctx context.Context, targetID string) (types.TargetProfile, error) {
	return s.inner.FetchProfile(ctx, targetID)
}

func (s *DryRunSession) ListFollowers(ctx context.Context, targetID string) (FollowerPager, error) {
	return s.inner.ListFollowers(ctx, targetID)
}

func (s *DryRunSession) ListMedia(ctx context.Context, targetID string, max int) ([]string, error) {
	return s.inner.ListMedia(ctx, targetID, max)
}
