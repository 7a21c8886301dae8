// Package repo implements the data persistence layer for poems, backed by
// GORM. This file provides a small aggregate query used for conditional
// responses (weak ETags) on the moderation listing.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-poem-bot/internal/domain"
)

// PoemsStats returns the total number of poems and the most recent activity
// timestamp, which is the later of the newest SubmittedTime and the newest
// LastServed. Any submission, selection, or deletion changes at least one of
// the two values.
//
// When the table is empty, the returned count is 0 and lastActivity is nil.
func PoemsStats(ctx context.Context, db *gorm.DB) (count int64, lastActivity *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Poem{})

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Latest submission (avoid MAX() -> TEXT in SQLite)
	var sub struct {
		SubmittedTime time.Time
	}
	if err = db.WithContext(ctx).Model(&domain.Poem{}).
		Select("submitted_time").
		Order("submitted_time DESC").
		Limit(1).
		Scan(&sub).Error; err != nil {
		return 0, nil, err
	}
	latest := sub.SubmittedTime

	// Latest selection, if any poem has been served.
	var served struct {
		LastServed *time.Time
	}
	if err = db.WithContext(ctx).Model(&domain.Poem{}).
		Select("last_served").
		Where("last_served IS NOT NULL").
		Order("last_served DESC").
		Limit(1).
		Scan(&served).Error; err != nil {
		return 0, nil, err
	}
	if served.LastServed != nil && served.LastServed.After(latest) {
		latest = *served.LastServed
	}
	return count, &latest, nil
}
