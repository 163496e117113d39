package automation

import (
	"context"

	"github.com/gotrekbr/instaze/types"
)

// FollowerPager pages through a target's followers. Pagination is
// restartable: a pager may be abandoned at any point and a new one opened
// later without breaking the underlying session.
type FollowerPager interface {
	// Next returns the next batch of follower user IDs. done reports that
	// the listing is exhausted; ids may be non-empty on the final call.
	Next(ctx context.Context) (ids []string, done bool, err error)
}

// Session is the boundary to the browser automation layer. The scheduler
// never inspects how these calls are implemented; it only decides when they
// are permitted.
//
// Action calls return nil when the platform confirmed the action and an
// error otherwise. Errors carrying types.ErrSessionExpired signal a
// systemic problem rather than a per-target failure.
type Session interface {
	Follow(ctx context.Context, targetID string) error
	Unfollow(ctx context.Context, targetID string) error
	LikeMedia(ctx context.Context, mediaID string) error

	FetchProfile(ctx context.Context, targetID string) (types.TargetProfile, error)
	ListFollowers(ctx context.Context, targetID string) (FollowerPager, error)
	// ListMedia returns up to max recent media IDs owned by the target.
	ListMedia(ctx context.Context, targetID string, max int) ([]string, error)
}

// SliceFollowerPager pages over an in-memory id list. Fake sessions and
// tests use it; real sessions implement cursor-based pagers.
type SliceFollowerPager struct {
	IDs      []string
	PageSize int
	pos      int
}

func (p *SliceFollowerPager) Next(_ context.Context) ([]string, bool, error) {
	if p.pos >= len(p.IDs) {
		return nil, true, nil
	}
	size := p.PageSize
	if size <= 0 {
		size = 50
	}
	end := p.pos + size
	if end > len(p.IDs) {
		end = len(p.IDs)
	}
	batch := p.IDs[p.pos:end]
	p.pos = end
	return batch, p.pos >= len(p.IDs), nil
}
