package campaign

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFailureBreaker_TripsAtThreshold(t *testing.T) {
	b := NewFailureBreaker(3, zap.NewNop())

	b.RecordFailure()
	b.RecordFailure()
	assert.False(t, b.Tripped())
	assert.Equal(t, 2, b.Failures())

	b.RecordFailure()
	assert.True(t, b.Tripped())
	assert.Equal(t, BreakerOpen, b.State())
}

func TestFailureBreaker_SuccessResetsStreak(t *testing.T) {
	b := NewFailureBreaker(3, zap.NewNop())

	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()
	require.Equal(t, 0, b.Failures())

	// Two fresh failures after the reset must not trip.
	b.RecordFailure()
	b.RecordFailure()
	assert.False(t, b.Tripped())
}

func TestFailureBreaker_DefaultThreshold(t *testing.T) {
	b := NewFailureBreaker(0, nil)

	b.RecordFailure()
	b.RecordFailure()
	assert.False(t, b.Tripped())
	b.RecordFailure()
	assert.True(t, b.Tripped())
}

func TestBreakerState_String(t *testing.T) {
	assert.Equal(t, "closed", BreakerClosed.String())
	assert.Equal(t, "open", BreakerOpen.String())
}
