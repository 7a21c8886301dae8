// Package services – PoemService
//
// This file implements PoemService, the component that owns the poem
// lifecycle: submission with a generated deletion key, fair random selection
// among the least recently served candidates, deletion by secret, and the
// bounded list of recently displayed poems used for moderation.
//
// Concurrency: one mutex guards the recency list and spans the store calls of
// PickRandom and Delete, so an id is never appended after its poem was
// deleted nor removed under a concurrent append.
//
// Observability: public methods are OpenTelemetry-instrumented and update the
// poems_* Prometheus collectors.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-poem-bot/internal/domain"
	"github.com/tbourn/go-poem-bot/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultRecentLimit is the recency list capacity used when none is configured.
const DefaultRecentLimit = 5

// Filter narrows random selection. Nil or empty fields do not filter.
type Filter = repo.CandidateFilter

// PoemRepo defines the repository contract required by PoemService.
type PoemRepo interface {
	// CreatePoem inserts a new, never-served poem.
	CreatePoem(ctx context.Context, db *gorm.DB, poemType domain.PoemType, submittedBy, content, deletionKey string, submittedAt time.Time) (*domain.Poem, error)

	// QueryCandidates returns up to repo.CandidatePoolSize matching poems,
	// least recently served first.
	QueryCandidates(ctx context.Context, db *gorm.DB, poemType domain.PoemType, f repo.CandidateFilter) ([]domain.Poem, error)

	// RecordService bumps the served counter and timestamp of one poem.
	RecordService(ctx context.Context, db *gorm.DB, id string, servedAt time.Time) error

	// DeleteBySecret removes the poem matching type and key and returns its id.
	DeleteBySecret(ctx context.Context, db *gorm.DB, poemType domain.PoemType, deletionKey string) (string, error)

	// FindPoemsByIDs loads poems keyed by id; missing ids are absent.
	FindPoemsByIDs(ctx context.Context, db *gorm.DB, ids []string) (map[string]domain.Poem, error)

	// ListPoems returns every stored poem.
	ListPoems(ctx context.Context, db *gorm.DB) ([]domain.Poem, error)
}

// RecentPoem is one entry of ListRecent. Display includes the deletion key.
type RecentPoem struct {
	Poem    domain.Poem `json:"poem"`
	Display string      `json:"display"`
}

// PoemService provides submission, selection and deletion of poems.
type PoemService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the poem repository used by this service.
	Repo PoemRepo
	// Rand supplies selection indexes and deletion keys.
	Rand Randomizer
	// Now returns the current time; used for submission and service stamps.
	Now func() time.Time

	mu     sync.Mutex
	recent *RecentList
}

// NewPoemService constructs a PoemService with the default randomizer and
// clock and a recency list of recentLimit ids.
func NewPoemService(db *gorm.DB, r PoemRepo, recentLimit int) *PoemService {
	if recentLimit < 1 {
		recentLimit = DefaultRecentLimit
	}
	return &PoemService{
		DB:     db,
		Repo:   r,
		Rand:   DefaultRandomizer{},
		Now:    func() time.Time { return time.Now().UTC() },
		recent: NewRecentList(recentLimit),
	}
}

func tracer() trace.Tracer { return otel.Tracer("services/PoemService") }

// Submit stores a poem and returns its freshly generated deletion key.
// Content is stored as-is; line-count checks belong to the caller.
func (s *PoemService) Submit(ctx context.Context, poemType domain.PoemType, submittedBy, content string) (string, error) {
	p, err := s.SubmitPoem(ctx, poemType, submittedBy, content)
	if err != nil {
		return "", err
	}
	return p.DeletionKey, nil
}

// SubmitPoem is Submit returning the stored record, for callers that also need
// the poem id.
func (s *PoemService) SubmitPoem(ctx context.Context, poemType domain.PoemType, submittedBy, content string) (*domain.Poem, error) {
	ctx, span := tracer().Start(ctx, "Submit",
		trace.WithAttributes(
			attribute.String("poem.type", poemType.String()),
			attribute.String("poem.submitted_by", submittedBy),
		),
	)
	defer span.End()

	if !poemType.Valid() {
		return nil, ErrUnknownPoemType
	}

	key := s.rand().Letters(DeletionKeyLength)
	p, err := s.Repo.CreatePoem(ctx, s.DB, poemType, submittedBy, content, key, s.now())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	poemsSubmitted.WithLabelValues(poemType.String()).Inc()
	span.SetAttributes(attribute.String("poem.id", p.ID))
	return p, nil
}

// PickRandom chooses uniformly among the least recently served matching
// poems, records the service, and appends the poem to the recency list. The
// returned poem carries the updated counters. It returns ErrNoMatchingPoems
// when nothing matches.
func (s *PoemService) PickRandom(ctx context.Context, poemType domain.PoemType, f Filter) (*domain.Poem, error) {
	ctx, span := tracer().Start(ctx, "PickRandom",
		trace.WithAttributes(
			attribute.String("poem.type", poemType.String()),
			attribute.Bool("filter.contains", f.Contains != nil),
			attribute.Bool("filter.submitted_by", f.SubmittedBy != nil),
		),
	)
	defer span.End()

	if !poemType.Valid() {
		return nil, ErrUnknownPoemType
	}
	f = normalizeFilter(f)

	s.mu.Lock()
	defer s.mu.Unlock()

	cands, err := s.Repo.QueryCandidates(ctx, s.DB, poemType, f)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if len(cands) == 0 {
		return nil, ErrNoMatchingPoems
	}
	span.SetAttributes(attribute.Int("candidates", len(cands)))

	chosen := cands[s.rand().Intn(len(cands))]
	now := s.now()
	if err := s.Repo.RecordService(ctx, s.DB, chosen.ID, now); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	chosen.TimesServed++
	chosen.LastServed = &now

	s.recentList().Add(chosen.ID)
	recentIDs.Set(float64(s.recent.Len()))
	poemsServed.WithLabelValues(poemType.String()).Inc()

	span.SetAttributes(attribute.String("poem.id", chosen.ID))
	return &chosen, nil
}

// FetchRandom is PickRandom rendered for chat. When nothing matches it
// returns the "No matching <type> found. Submit one!" text and a nil error.
func (s *PoemService) FetchRandom(ctx context.Context, poemType domain.PoemType, f Filter) (string, error) {
	p, err := s.PickRandom(ctx, poemType, f)
	if errors.Is(err, ErrNoMatchingPoems) {
		return NoMatchMessage(poemType), nil
	}
	if err != nil {
		return "", err
	}
	return p.DisplayMessage(false), nil
}

// NoMatchMessage is the reply used when no poem of poemType matches.
func NoMatchMessage(poemType domain.PoemType) string {
	return fmt.Sprintf("No matching %s found. Submit one!", poemType)
}

// Delete removes the poem of poemType whose deletion key matches exactly and
// drops it from the recency list. It reports false, nil when nothing matches.
func (s *PoemService) Delete(ctx context.Context, poemType domain.PoemType, deletionKey string) (bool, error) {
	ctx, span := tracer().Start(ctx, "Delete",
		trace.WithAttributes(attribute.String("poem.type", poemType.String())),
	)
	defer span.End()

	if !poemType.Valid() {
		return false, ErrUnknownPoemType
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.Repo.DeleteBySecret(ctx, s.DB, poemType, deletionKey)
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}

	s.recentList().Remove(id)
	recentIDs.Set(float64(s.recent.Len()))
	poemsDeleted.WithLabelValues(poemType.String()).Inc()

	span.SetAttributes(attribute.String("poem.id", id))
	return true, nil
}

// ListRecent returns the recently displayed poems in display order, each
// rendered with its deletion key. Ids whose poem no longer exists are skipped.
func (s *PoemService) ListRecent(ctx context.Context) ([]RecentPoem, error) {
	ctx, span := tracer().Start(ctx, "ListRecent")
	defer span.End()

	ids := s.RecentIDs()
	out := make([]RecentPoem, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	byID, err := s.Repo.FindPoemsByIDs(ctx, s.DB, ids)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			continue
		}
		out = append(out, RecentPoem{Poem: p, Display: p.DisplayMessage(true)})
	}
	return out, nil
}

// DumpAll returns every stored poem for moderation.
func (s *PoemService) DumpAll(ctx context.Context) ([]domain.Poem, error) {
	ctx, span := tracer().Start(ctx, "DumpAll")
	defer span.End()

	poems, err := s.Repo.ListPoems(ctx, s.DB)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("poems", len(poems)))
	return poems, nil
}

// RecentIDs returns a snapshot of the recency list, oldest first.
func (s *PoemService) RecentIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recentList().IDs()
}

func (s *PoemService) rand() Randomizer {
	if s.Rand == nil {
		return DefaultRandomizer{}
	}
	return s.Rand
}

func (s *PoemService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now()
}

// recentList lazily creates the list for zero-value services. Callers hold mu.
func (s *PoemService) recentList() *RecentList {
	if s.recent == nil {
		s.recent = NewRecentList(DefaultRecentLimit)
	}
	return s.recent
}

// normalizeFilter drops empty criteria so that an empty "with" or "by"
// argument behaves like no filter.
func normalizeFilter(f Filter) Filter {
	if f.Contains != nil && *f.Contains == "" {
		f.Contains = nil
	}
	if f.SubmittedBy != nil && *f.SubmittedBy == "" {
		f.SubmittedBy = nil
	}
	return f
}
