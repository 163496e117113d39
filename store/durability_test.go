package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gotrekbr/instaze/types"
)

// An acknowledged append must survive a process restart: the next run's
// quota accounting depends on it. Closing and reopening the same file
// simulates the restart; the record has to be present and counted.
func TestStore_AppendSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "actions.db")
	ctx := context.Background()
	now := time.Now().UTC()

	s, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, types.ActionRecord{
		TargetID:  "alice",
		Kind:      types.KindFollow,
		Outcome:   types.OutcomeSuccess,
		Timestamp: now,
	}))
	require.NoError(t, s.Close())

	reopened, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	defer reopened.Close()

	recs, err := reopened.QuerySince(ctx, types.KindFollow, now.Add(-time.Minute))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "alice", recs[0].TargetID)

	n, err := reopened.CountSuccessSince(ctx, []types.ActionKind{types.KindFollow}, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n, "reopened store must count the record")
}

// History accumulates across runs: per-run stores reading the same file see
// the union of all prior appends.
func TestStore_HistoryAccumulatesAcrossRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "actions.db")
	ctx := context.Background()
	base := time.Now().UTC()

	for i := 0; i < 3; i++ {
		s, err := Open(path, zap.NewNop())
		require.NoError(t, err)
		require.NoError(t, s.Append(ctx, types.ActionRecord{
			TargetID:  "target",
			Kind:      types.KindLike,
			Outcome:   types.OutcomeSuccess,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}))
		require.NoError(t, s.Close())
	}

	s, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	n, err := s.CountSuccessSince(ctx, []types.ActionKind{types.KindLike}, base.Add(-time.Minute))
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}
