package campaign

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/gotrekbr/instaze/automation"
	"github.com/gotrekbr/instaze/types"
)

// fakeSession is an in-memory automation.Session that records every call.
type fakeSession struct {
	followers map[string][]string // username -> follower ids
	media     map[string][]string // username -> media ids
	profiles  map[string]types.TargetProfile

	followErr map[string]error // per-target follow failures
	fetchErr  map[string]error
	likeErr   map[string]error
	listErr   error
	mutations []string // "follow:bob", "unfollow:carol", "like:m1"
	readCalls int
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		followers: map[string][]string{},
		media:     map[string][]string{},
		profiles:  map[string]types.TargetProfile{},
		followErr: map[string]error{},
		fetchErr:  map[string]error{},
		likeErr:   map[string]error{},
	}
}

func (s *fakeSession) Follow(_ context.Context, targetID string) error {
	s.mutations = append(s.mutations, "follow:"+targetID)
	return s.followErr[targetID]
}

func (s *fakeSession) Unfollow(_ context.Context, targetID string) error {
	s.mutations = append(s.mutations, "unfollow:"+targetID)
	return nil
}

func (s *fakeSession) LikeMedia(_ context.Context, mediaID string) error {
	s.mutations = append(s.mutations, "like:"+mediaID)
	return s.likeErr[mediaID]
}

func (s *fakeSession) FetchProfile(_ context.Context, targetID string) (types.TargetProfile, error) {
	s.readCalls++
	if err := s.fetchErr[targetID]; err != nil {
		return types.TargetProfile{}, err
	}
	if p, ok := s.profiles[targetID]; ok {
		return p, nil
	}
	return types.TargetProfile{UserID: targetID, Username: targetID}, nil
}

func (s *fakeSession) ListFollowers(_ context.Context, targetID string) (automation.FollowerPager, error) {
	s.readCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	ids, ok := s.followers[targetID]
	if !ok {
		return nil, fmt.Errorf("unknown account %q", targetID)
	}
	return &automation.SliceFollowerPager{IDs: ids}, nil
}

func (s *fakeSession) ListMedia(_ context.Context, targetID string, max int) ([]string, error) {
	s.readCalls++
	ids := s.media[targetID]
	if len(ids) > max {
		ids = ids[:max]
	}
	return ids, nil
}

// memActionLog is an in-memory stand-in for the sqlite store, implementing
// the ActionLog, quota.Counter, filter.Toucher and FollowedReader views the
// orchestrator stack consumes.
type memActionLog struct {
	records   []types.ActionRecord
	appendErr error
}

func (m *memActionLog) Append(_ context.Context, rec types.ActionRecord) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *memActionLog) LastAction(_ context.Context, targetID string, kind types.ActionKind) (*types.ActionRecord, error) {
	var last *types.ActionRecord
	for i := range m.records {
		rec := m.records[i]
		if rec.TargetID != targetID || rec.Kind != kind || rec.Outcome != types.OutcomeSuccess {
			continue
		}
		if last == nil || rec.Timestamp.After(last.Timestamp) {
			last = &m.records[i]
		}
	}
	return last, nil
}

func (m *memActionLog) CountSuccessSince(_ context.Context, kinds []types.ActionKind, since time.Time) (int64, error) {
	kindSet := map[types.ActionKind]bool{}
	for _, k := range kinds {
		kindSet[k] = true
	}
	var n int64
	for _, rec := range m.records {
		if kindSet[rec.Kind] && rec.Outcome == types.OutcomeSuccess && rec.Timestamp.After(since) {
			n++
		}
	}
	return n, nil
}

func (m *memActionLog) WasActedOn(_ context.Context, targetID string, kind types.ActionKind, within time.Duration, now time.Time) (bool, error) {
	for _, rec := range m.records {
		if rec.TargetID == targetID && rec.Kind == kind && rec.Outcome == types.OutcomeSuccess &&
			rec.Timestamp.After(now.Add(-within)) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memActionLog) FollowedActive(_ context.Context) (map[string]time.Time, error) {
	recs := make([]types.ActionRecord, 0, len(m.records))
	for _, rec := range m.records {
		if rec.Outcome == types.OutcomeSuccess && (rec.Kind == types.KindFollow || rec.Kind == types.KindUnfollow) {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Timestamp.Before(recs[j].Timestamp) })

	active := map[string]time.Time{}
	for _, rec := range recs {
		if rec.Kind == types.KindFollow {
			active[rec.TargetID] = rec.Timestamp
		} else {
			delete(active, rec.TargetID)
		}
	}
	return active, nil
}

func (m *memActionLog) successCount(kind types.ActionKind) int {
	n := 0
	for _, rec := range m.records {
		if rec.Kind == kind && rec.Outcome == types.OutcomeSuccess {
			n++
		}
	}
	return n
}
