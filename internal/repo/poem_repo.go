// Package repo implements the data persistence layer for poems, backed by
// GORM. This file provides the PoemStore functions.
//
// All functions are context-aware, accept a *gorm.DB handle, and run their
// statements inside a single transaction so a caller never observes a
// partial update. They follow the "thin repository" approach: no business
// logic, only persistence and query composition.
//
// Error semantics:
//   - When a poem is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (connectivity, missing tables, constraint violations),
//     the raw gorm error is propagated and never retried here.
//
// Functions:
//
//   - CreatePoem(ctx, db, type, by, content, key, at) -> *domain.Poem, error
//   - QueryCandidates(ctx, db, type, filter) -> []domain.Poem, error
//     Up to CandidatePoolSize poems, least recently served first.
//   - RecordService(ctx, db, id, at) -> error
//   - DeleteBySecret(ctx, db, type, key) -> deleted id, error
//   - FindPoemsByIDs(ctx, db, ids) -> map[id]domain.Poem, error
//   - ListPoems(ctx, db) -> []domain.Poem, error
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-poem-bot/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CandidatePoolSize caps how many poems QueryCandidates returns.
const CandidatePoolSize = 5

// CandidateFilter narrows QueryCandidates. Nil fields do not filter.
type CandidateFilter struct {
	// Contains keeps poems whose content contains this exact (case-sensitive)
	// substring.
	Contains *string
	// SubmittedBy keeps poems submitted by exactly this nick.
	SubmittedBy *string
}

// CreatePoem inserts a new poem with TimesServed 0 and LastServed unset.
// The poem ID is a random UUID.
func CreatePoem(ctx context.Context, db *gorm.DB, poemType domain.PoemType, submittedBy, content, deletionKey string, submittedAt time.Time) (*domain.Poem, error) {
	p := &domain.Poem{
		ID:            uuid.NewString(),
		PoemType:      poemType,
		SubmittedBy:   submittedBy,
		SubmittedTime: submittedAt.UTC(),
		Content:       content,
		DeletionKey:   deletionKey,
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(p).Error
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// QueryCandidates returns poems of poemType matching f, ordered so that
// never-served poems come first, then by LastServed ascending (ties broken
// by submission time and id), limited to CandidatePoolSize. No match yields
// an empty slice and a nil error.
//
// NULL ordering differs between SQLite (first) and PostgreSQL (last), so the
// query sorts on "last_served IS NOT NULL" explicitly.
func QueryCandidates(ctx context.Context, db *gorm.DB, poemType domain.PoemType, f CandidateFilter) ([]domain.Poem, error) {
	out := []domain.Poem{}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Where("poem_type = ?", poemType)
		if f.Contains != nil {
			q = q.Where(containsClause(tx), *f.Contains)
		}
		if f.SubmittedBy != nil {
			q = q.Where("submitted_by = ?", *f.SubmittedBy)
		}
		return q.
			Order("last_served IS NOT NULL").
			Order("last_served ASC").
			Order("submitted_time ASC").
			Order("id ASC").
			Limit(CandidatePoolSize).
			Find(&out).Error
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// containsClause returns a case-sensitive substring predicate for the
// dialect behind db. LIKE is avoided: SQLite's LIKE ignores ASCII case and
// both engines treat % and _ in the needle as wildcards.
func containsClause(db *gorm.DB) string {
	if db.Dialector != nil && db.Dialector.Name() == "postgres" {
		return "strpos(content, ?) > 0"
	}
	return "instr(content, ?) > 0"
}

// RecordService increments TimesServed by one and sets LastServed to
// servedAt for the poem id. It returns ErrNotFound if the poem is gone.
func RecordService(ctx context.Context, db *gorm.DB, id string, servedAt time.Time) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Poem{}).
			Where("id = ?", id).
			Updates(map[string]any{
				"times_served": gorm.Expr("times_served + ?", 1),
				"last_served":  servedAt.UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// DeleteBySecret deletes at most one poem whose type and deletion key both
// match exactly, and returns its id. It returns ErrNotFound when nothing
// matches.
func DeleteBySecret(ctx context.Context, db *gorm.DB, poemType domain.PoemType, deletionKey string) (string, error) {
	var deleted string
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p domain.Poem
		if err := tx.
			Where("poem_type = ? AND deletion_key = ?", poemType, deletionKey).
			First(&p).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", p.ID).Delete(&domain.Poem{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		deleted = p.ID
		return nil
	})
	if err != nil {
		return "", err
	}
	return deleted, nil
}

// FindPoemsByIDs loads the poems with the given ids, keyed by id. Ids with no
// matching row are simply absent from the result.
func FindPoemsByIDs(ctx context.Context, db *gorm.DB, ids []string) (map[string]domain.Poem, error) {
	out := make(map[string]domain.Poem, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []domain.Poem
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Where("id IN ?", ids).Find(&rows).Error
	})
	if err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}

// ListPoems returns every poem ordered by submission time (oldest first).
func ListPoems(ctx context.Context, db *gorm.DB) ([]domain.Poem, error) {
	var out []domain.Poem
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Order("submitted_time ASC, id ASC").Find(&out).Error
	})
	return out, err
}
