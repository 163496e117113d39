package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/gotrekbr/instaze/types"
)

// Store is the durable, append-only record of every action ever executed.
// It is the single source of truth for quota accounting: counts are always
// derived from the log, never from a separate counter, so a restart cannot
// desynchronize the tracker from history.
//
// The store is single-writer. Durability relies on SQLite WAL mode with
// synchronous=FULL: once Append returns nil, the record survives a crash.
type Store struct {
	db     *gorm.DB
	path   string
	logger *zap.Logger
}

// Open opens (or creates) the action store at path.
//
// Open fails closed: if the file exists but is unreadable or fails the
// SQLite integrity quick_check, an error is returned and the caller must not
// proceed. Operating with a zeroed history would let the quota tracker
// under-count and exceed real-world limits.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)&_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, types.NewError(types.ErrStoreIO, "open action store").WithCause(err)
	}

	s := &Store{
		db:     db,
		path:   path,
		logger: logger.With(zap.String("component", "store"), zap.String("path", path)),
	}

	if err := s.quickCheck(); err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&types.ActionRecord{}); err != nil {
		return nil, types.NewError(types.ErrStoreIO, "migrate action store").WithCause(err)
	}

	s.logger.Info("action store opened")
	return s, nil
}

// quickCheck runs SQLite's integrity quick_check and fails closed on
// anything other than "ok".
func (s *Store) quickCheck() error {
	var result string
	if err := s.db.Raw("PRAGMA quick_check").Scan(&result).Error; err != nil {
		return types.NewError(types.ErrStoreCorrupt, "integrity check failed").WithCause(err)
	}
	if result != "ok" {
		return types.NewError(types.ErrStoreCorrupt, fmt.Sprintf("integrity check: %s", result))
	}
	return nil
}

// Path returns the filesystem path backing the store.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Append durably writes one record. It returns only after the insert has
// been committed with synchronous=FULL, so an acknowledged record is never
// lost to a crash. Records are immutable once written.
func (s *Store) Append(ctx context.Context, rec types.ActionRecord) error {
	if !rec.Kind.Valid() {
		return types.NewError(types.ErrStoreIO, fmt.Sprintf("unknown action kind %q", rec.Kind))
	}
	if rec.Timestamp.IsZero() {
		return types.NewError(types.ErrStoreIO, "record timestamp not set")
	}
	rec.ID = 0
	rec.Timestamp = rec.Timestamp.UTC()

	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return types.NewError(types.ErrStoreIO, "append record").WithCause(err)
	}

	s.logger.Debug("record appended",
		zap.String("kind", rec.Kind.String()),
		zap.String("target_id", rec.TargetID),
		zap.String("outcome", string(rec.Outcome)))
	return nil
}

// QuerySince returns all records of the given kind with timestamp >= since,
// ordered by timestamp ascending.
func (s *Store) QuerySince(ctx context.Context, kind types.ActionKind, since time.Time) ([]types.ActionRecord, error) {
	var recs []types.ActionRecord
	err := s.db.WithContext(ctx).
		Where("kind = ? AND timestamp >= ?", kind, since.UTC()).
		Order("timestamp ASC").
		Find(&recs).Error
	if err != nil {
		return nil, types.NewError(types.ErrStoreIO, "query records").WithCause(err)
	}
	return recs, nil
}

// CountSuccessSince counts Success records of any of the given kinds with
// timestamp strictly after since. The strict inequality makes the caller's
// window half-open: a record exactly at the window boundary is excluded.
func (s *Store) CountSuccessSince(ctx context.Context, kinds []types.ActionKind, since time.Time) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&types.ActionRecord{}).
		Where("kind IN ? AND outcome = ? AND timestamp > ?", kinds, types.OutcomeSuccess, since.UTC()).
		Count(&n).Error
	if err != nil {
		return 0, types.NewError(types.ErrStoreIO, "count records").WithCause(err)
	}
	return n, nil
}

// WasActedOn reports whether targetID has a Success record of the given kind
// within the trailing duration ending at now.
func (s *Store) WasActedOn(ctx context.Context, targetID string, kind types.ActionKind, within time.Duration, now time.Time) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&types.ActionRecord{}).
		Where("target_id = ? AND kind = ? AND outcome = ? AND timestamp > ?",
			targetID, kind, types.OutcomeSuccess, now.UTC().Add(-within)).
		Count(&n).Error
	if err != nil {
		return false, types.NewError(types.ErrStoreIO, "re-touch lookup").WithCause(err)
	}
	return n > 0, nil
}

// LastAction returns the most recent Success record of the given kind for
// targetID, or nil when the target was never acted on.
func (s *Store) LastAction(ctx context.Context, targetID string, kind types.ActionKind) (*types.ActionRecord, error) {
	var rec types.ActionRecord
	err := s.db.WithContext(ctx).
		Where("target_id = ? AND kind = ? AND outcome = ?", targetID, kind, types.OutcomeSuccess).
		Order("timestamp DESC").
		First(&rec).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, types.NewError(types.ErrStoreIO, "last action lookup").WithCause(err)
	}
	return &rec, nil
}

// FollowedActive returns the targets our records say are currently followed
// by us: each target's latest successful follow with no successful unfollow
// after it. The map value is the time of that follow.
func (s *Store) FollowedActive(ctx context.Context) (map[string]time.Time, error) {
	var recs []types.ActionRecord
	err := s.db.WithContext(ctx).
		Where("kind IN ? AND outcome = ?", []types.ActionKind{types.KindFollow, types.KindUnfollow}, types.OutcomeSuccess).
		Order("timestamp ASC").
		Find(&recs).Error
	if err != nil {
		return nil, types.NewError(types.ErrStoreIO, "followed lookup").WithCause(err)
	}

	active := make(map[string]time.Time)
	for _, rec := range recs {
		switch rec.Kind {
		case types.KindFollow:
			active[rec.TargetID] = rec.Timestamp
		case types.KindUnfollow:
			delete(active, rec.TargetID)
		}
	}
	return active, nil
}

// Export writes every record of the given kind to w as newline-delimited
// JSON, oldest first. It exists for operability: the log partitions stay
// human-inspectable without SQLite tooling.
func (s *Store) Export(ctx context.Context, w io.Writer, kind types.ActionKind) error {
	recs, err := s.QuerySince(ctx, kind, time.Time{})
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	for _, rec := range recs {
		if err := enc.Encode(rec); err != nil {
			return types.NewError(types.ErrStoreIO, "export record").WithCause(err)
		}
	}
	return nil
}
