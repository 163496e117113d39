package campaign

import (
	"context"
	"sort"
	"time"

	"github.com/gotrekbr/instaze/automation"
)

// TargetSource yields candidate target IDs one at a time. Sources are lazy:
// a phase that exhausts its quota early never enumerates the rest.
type TargetSource interface {
	Next(ctx context.Context) (id string, ok bool, err error)
}

// Selector names a target population and opens a source over it.
type Selector interface {
	Name() string
	Open(ctx context.Context) (TargetSource, error)
}

// ---------------------------------------------------------------------------
// followers_of — followers of a configured seed list
// ---------------------------------------------------------------------------

// FollowersOfSelector enumerates the followers of each seed user in order,
// through the session's restartable pagination.
type FollowersOfSelector struct {
	Seeds   []string
	Session automation.Session
}

func (s *FollowersOfSelector) Name() string { return "followers_of" }

func (s *FollowersOfSelector) Open(_ context.Context) (TargetSource, error) {
	return &followersSource{selector: s}, nil
}

type followersSource struct {
	selector *FollowersOfSelector
	seedIdx  int
	pager    automation.FollowerPager
	buf      []string
	done     bool
}

func (src *followersSource) Next(ctx context.Context) (string, bool, error) {
	for {
		if len(src.buf) > 0 {
			id := src.buf[0]
			src.buf = src.buf[1:]
			return id, true, nil
		}
		if src.done {
			return "", false, nil
		}

		if src.pager == nil {
			if src.seedIdx >= len(src.selector.Seeds) {
				src.done = true
				continue
			}
			seed := src.selector.Seeds[src.seedIdx]
			src.seedIdx++
			pager, err := src.selector.Session.ListFollowers(ctx, seed)
			if err != nil {
				return "", false, err
			}
			src.pager = pager
		}

		ids, pageDone, err := src.pager.Next(ctx)
		if err != nil {
			return "", false, err
		}
		src.buf = append(src.buf, ids...)
		if pageDone {
			src.pager = nil
		}
	}
}

// ---------------------------------------------------------------------------
// stale_followed — accounts we auto-followed too long ago
// ---------------------------------------------------------------------------

// FollowedReader provides the currently-followed view from the action store.
type FollowedReader interface {
	FollowedActive(ctx context.Context) (map[string]time.Time, error)
}

// StaleFollowedSelector yields accounts whose last follow is older than
// OlderThan, oldest first, regardless of whether they follow back.
type StaleFollowedSelector struct {
	Store     FollowedReader
	OlderThan time.Duration
	Clock     func() time.Time
}

func (s *StaleFollowedSelector) Name() string { return "stale_followed" }

func (s *StaleFollowedSelector) Open(ctx context.Context) (TargetSource, error) {
	active, err := s.Store.FollowedActive(ctx)
	if err != nil {
		return nil, err
	}
	clock := s.Clock
	if clock == nil {
		clock = time.Now
	}
	cutoff := clock().Add(-s.OlderThan)

	ids := make([]string, 0, len(active))
	for id, followedAt := range active {
		if followedAt.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	// Oldest follow first, so cleanup always reclaims the longest-held slots.
	sort.Slice(ids, func(i, j int) bool {
		if !active[ids[i]].Equal(active[ids[j]]) {
			return active[ids[i]].Before(active[ids[j]])
		}
		return ids[i] < ids[j]
	})
	return &sliceSource{ids: ids}, nil
}

// ---------------------------------------------------------------------------
// non_mutual — followed accounts that never followed back
// ---------------------------------------------------------------------------

// NonMutualSelector yields accounts we followed at least MinAge ago that do
// not appear among our own followers. The minimum age gives targets a fair
// chance to follow back before cleanup touches them.
type NonMutualSelector struct {
	Store        FollowedReader
	Session      automation.Session
	SelfUsername string
	MinAge       time.Duration
	Clock        func() time.Time
}

func (s *NonMutualSelector) Name() string { return "non_mutual" }

func (s *NonMutualSelector) Open(ctx context.Context) (TargetSource, error) {
	active, err := s.Store.FollowedActive(ctx)
	if err != nil {
		return nil, err
	}
	clock := s.Clock
	if clock == nil {
		clock = time.Now
	}
	cutoff := clock().Add(-s.MinAge)

	followers, err := s.selfFollowers(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(active))
	for id, followedAt := range active {
		if followedAt.Before(cutoff) && !followers[id] {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		if !active[ids[i]].Equal(active[ids[j]]) {
			return active[ids[i]].Before(active[ids[j]])
		}
		return ids[i] < ids[j]
	})
	return &sliceSource{ids: ids}, nil
}

func (s *NonMutualSelector) selfFollowers(ctx context.Context) (map[string]bool, error) {
	pager, err := s.Session.ListFollowers(ctx, s.SelfUsername)
	if err != nil {
		return nil, err
	}
	followers := make(map[string]bool)
	for {
		ids, done, err := pager.Next(ctx)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			followers[id] = true
		}
		if done {
			return followers, nil
		}
	}
}

// sliceSource serves a precomputed id list.
type sliceSource struct {
	ids []string
	pos int
}

func (s *sliceSource) Next(_ context.Context) (string, bool, error) {
	if s.pos >= len(s.ids) {
		return "", false, nil
	}
	id := s.ids[s.pos]
	s.pos++
	return id, true, nil
}
