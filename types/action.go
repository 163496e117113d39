package types

import (
	"fmt"
	"time"
)

// ActionKind identifies the kind of platform action performed against a target.
type ActionKind string

const (
	// KindFollow follows a target account.
	KindFollow ActionKind = "follow"
	// KindUnfollow unfollows a target account.
	KindUnfollow ActionKind = "unfollow"
	// KindLike likes a single media item.
	KindLike ActionKind = "like"
)

// AllKinds returns every action kind, in stable order.
func AllKinds() []ActionKind {
	return []ActionKind{KindFollow, KindUnfollow, KindLike}
}

// Valid reports whether k is a known action kind.
func (k ActionKind) Valid() bool {
	switch k {
	case KindFollow, KindUnfollow, KindLike:
		return true
	}
	return false
}

func (k ActionKind) String() string { return string(k) }

// Outcome is the terminal result of one action attempt.
type Outcome string

const (
	// OutcomeSuccess means the platform confirmed the action.
	OutcomeSuccess Outcome = "success"
	// OutcomeFailed means the executor ran but the action did not land
	// (network error, platform rejection, session expiry).
	OutcomeFailed Outcome = "failed"
	// OutcomeSkipped means the action was never attempted. Skipped attempts
	// are logged but never persisted; only executed attempts become records.
	OutcomeSkipped Outcome = "skipped"
)

// ActionRecord is one executed action. Records are append-only: once written
// they are never mutated or deleted by normal operation.
type ActionRecord struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	RunID     string     `gorm:"size:36;index" json:"run_id"`
	TargetID  string     `gorm:"size:128;not null;index:idx_target_kind" json:"target_id"`
	Kind      ActionKind `gorm:"size:16;not null;index:idx_target_kind;index:idx_kind_ts" json:"kind"`
	Outcome   Outcome    `gorm:"size:16;not null" json:"outcome"`
	Timestamp time.Time  `gorm:"not null;index:idx_kind_ts" json:"timestamp"`
}

func (r ActionRecord) String() string {
	return fmt.Sprintf("%s %s target=%s at %s", r.Kind, r.Outcome, r.TargetID, r.Timestamp.Format(time.RFC3339))
}

// TargetProfile is the read-only view of a candidate account, supplied by the
// automation layer's profile fetch. The scheduler never writes to it.
type TargetProfile struct {
	UserID            string `json:"user_id"`
	Username          string `json:"username"`
	Biography         string `json:"biography"`
	FollowerCount     int    `json:"follower_count"`
	FollowingCount    int    `json:"following_count"`
	IsPrivate         bool   `json:"is_private"`
	IsBusinessAccount bool   `json:"is_business_account"`

	// PreviouslyFollowed and LastFollowedAt are populated from the action
	// store before filtering, not by the automation layer.
	PreviouslyFollowed bool       `json:"previously_followed"`
	LastFollowedAt     *time.Time `json:"last_followed_at,omitempty"`
}
