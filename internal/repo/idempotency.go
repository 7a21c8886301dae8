package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-poem-bot/internal/domain"
)

// ErrDuplicate indicates an idempotency record already exists for (nick, key).
var ErrDuplicate = errors.New("duplicate")

// GetIdempotency returns the record for (nick, key) that is still valid at
// now, or ErrNotFound.
func GetIdempotency(ctx context.Context, db *gorm.DB, nick, key string, now time.Time) (*domain.Idempotency, error) {
	if strings.TrimSpace(nick) == "" || key == "" {
		return nil, ErrNotFound
	}
	var rec domain.Idempotency
	err := db.WithContext(ctx).
		Where("nick = ? AND key = ? AND expires_at > ?", nick, key, now).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CreateIdempotency stores the outcome of a submission made under key at
// now, valid for ttl. A concurrent or repeated insert yields ErrDuplicate.
func CreateIdempotency(ctx context.Context, db *gorm.DB, nick, key, poemID string, status int, now time.Time, ttl time.Duration) (*domain.Idempotency, error) {
	rec := &domain.Idempotency{
		ID:        uuid.NewString(),
		Nick:      nick,
		Key:       key,
		PoemID:    poemID,
		Status:    status,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}

// RebindIdempotency points the existing (nick, key) record at poemID and
// restarts its ttl from now. It is used when the poem a record referenced is
// gone, or the record expired without being purged, and the submission was
// stored again. Returns ErrNotFound when no record exists.
func RebindIdempotency(ctx context.Context, db *gorm.DB, nick, key, poemID string, status int, now time.Time, ttl time.Duration) error {
	res := db.WithContext(ctx).
		Model(&domain.Idempotency{}).
		Where("nick = ? AND key = ?", nick, key).
		Updates(map[string]any{
			"poem_id":    poemID,
			"status":     status,
			"created_at": now,
			"expires_at": now.Add(ttl),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// PurgeExpiredIdempotency deletes records that expired before now and
// returns how many were removed.
func PurgeExpiredIdempotency(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&domain.Idempotency{})
	return res.RowsAffected, res.Error
}

// isUniqueViolation recognizes unique-constraint errors from both drivers.
// glebarez/sqlite reports them as plain text; pgx reports SQLSTATE 23505.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique") ||
		strings.Contains(low, "sqlstate 23505")
}
