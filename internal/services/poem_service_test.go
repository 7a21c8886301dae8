package services

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"gorm.io/gorm"

	"github.com/tbourn/go-poem-bot/internal/domain"
	"github.com/tbourn/go-poem-bot/internal/repo"
)

// ----- Fakes -----

// stubRand picks a fixed index and hands out queued keys.
type stubRand struct {
	idx   int
	lastN int
	keys  []string
}

func (r *stubRand) Intn(n int) int {
	r.lastN = n
	if r.idx >= n {
		return n - 1
	}
	return r.idx
}

func (r *stubRand) Letters(n int) string {
	if len(r.keys) > 0 {
		k := r.keys[0]
		r.keys = r.keys[1:]
		return k
	}
	return DefaultRandomizer{}.Letters(n)
}

// sqlRepo proxies the repo package so service tests can run against SQLite.
type sqlRepo struct{}

func (sqlRepo) CreatePoem(ctx context.Context, db *gorm.DB, t domain.PoemType, by, content, key string, at time.Time) (*domain.Poem, error) {
	return repo.CreatePoem(ctx, db, t, by, content, key, at)
}
func (sqlRepo) QueryCandidates(ctx context.Context, db *gorm.DB, t domain.PoemType, f repo.CandidateFilter) ([]domain.Poem, error) {
	return repo.QueryCandidates(ctx, db, t, f)
}
func (sqlRepo) RecordService(ctx context.Context, db *gorm.DB, id string, at time.Time) error {
	return repo.RecordService(ctx, db, id, at)
}
func (sqlRepo) DeleteBySecret(ctx context.Context, db *gorm.DB, t domain.PoemType, key string) (string, error) {
	return repo.DeleteBySecret(ctx, db, t, key)
}
func (sqlRepo) FindPoemsByIDs(ctx context.Context, db *gorm.DB, ids []string) (map[string]domain.Poem, error) {
	return repo.FindPoemsByIDs(ctx, db, ids)
}
func (sqlRepo) ListPoems(ctx context.Context, db *gorm.DB) ([]domain.Poem, error) {
	return repo.ListPoems(ctx, db)
}

// fakePoemRepo is an in-memory PoemRepo with injectable errors.
type fakePoemRepo struct {
	mu    sync.Mutex
	poems map[string]domain.Poem
	seq   int

	createCalls int
	createErr   error
	queryErr    error
	recordErr   error
	deleteErr   error
	findErr     error
	listErr     error
}

func newFakeRepo() *fakePoemRepo { return &fakePoemRepo{poems: map[string]domain.Poem{}} }

func (r *fakePoemRepo) CreatePoem(_ context.Context, _ *gorm.DB, t domain.PoemType, by, content, key string, at time.Time) (*domain.Poem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCalls++
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.seq++
	p := domain.Poem{ID: "p" + strings.Repeat("x", r.seq), PoemType: t, SubmittedBy: by, SubmittedTime: at, Content: content, DeletionKey: key}
	r.poems[p.ID] = p
	return &p, nil
}

func (r *fakePoemRepo) QueryCandidates(_ context.Context, _ *gorm.DB, t domain.PoemType, f repo.CandidateFilter) ([]domain.Poem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.queryErr != nil {
		return nil, r.queryErr
	}
	out := []domain.Poem{}
	for _, p := range r.poems {
		if p.PoemType != t {
			continue
		}
		if f.Contains != nil && !strings.Contains(p.Content, *f.Contains) {
			continue
		}
		if f.SubmittedBy != nil && p.SubmittedBy != *f.SubmittedBy {
			continue
		}
		out = append(out, p)
		if len(out) == repo.CandidatePoolSize {
			break
		}
	}
	return out, nil
}

func (r *fakePoemRepo) RecordService(_ context.Context, _ *gorm.DB, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recordErr != nil {
		return r.recordErr
	}
	p, ok := r.poems[id]
	if !ok {
		return repo.ErrNotFound
	}
	p.TimesServed++
	p.LastServed = &at
	r.poems[id] = p
	return nil
}

func (r *fakePoemRepo) DeleteBySecret(_ context.Context, _ *gorm.DB, t domain.PoemType, key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return "", r.deleteErr
	}
	for id, p := range r.poems {
		if p.PoemType == t && p.DeletionKey == key {
			delete(r.poems, id)
			return id, nil
		}
	}
	return "", repo.ErrNotFound
}

func (r *fakePoemRepo) FindPoemsByIDs(_ context.Context, _ *gorm.DB, ids []string) (map[string]domain.Poem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	out := map[string]domain.Poem{}
	for _, id := range ids {
		if p, ok := r.poems[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (r *fakePoemRepo) ListPoems(context.Context, *gorm.DB) ([]domain.Poem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]domain.Poem, 0, len(r.poems))
	for _, p := range r.poems {
		out = append(out, p)
	}
	return out, nil
}

// ----- Helpers -----

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newSQLService(t *testing.T, limit int) (*PoemService, *gorm.DB) {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "poems.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	s := NewPoemService(db, sqlRepo{}, limit)
	s.Now = func() time.Time { return fixedNow }
	return s, db
}

func strp(s string) *string { return &s }

// ----- Tests -----

func TestNewPoemService_Defaults(t *testing.T) {
	r := newFakeRepo()
	s := NewPoemService(nil, r, 0)
	if s.Repo != r {
		t.Fatalf("repo not set")
	}
	if _, ok := s.Rand.(DefaultRandomizer); !ok {
		t.Fatalf("expected DefaultRandomizer, got %T", s.Rand)
	}
	if s.recent.Limit() != DefaultRecentLimit {
		t.Fatalf("recent limit = %d; want %d", s.recent.Limit(), DefaultRecentLimit)
	}
	if got := s.Now(); got.Location() != time.UTC {
		t.Fatalf("Now must be UTC, got %v", got.Location())
	}
}

func TestDefaultRandomizer_TenThousandKeysUnique(t *testing.T) {
	var r DefaultRandomizer
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		k := r.Letters(DeletionKeyLength)
		if len(k) != DeletionKeyLength {
			t.Fatalf("key %q has length %d", k, len(k))
		}
		for _, c := range k {
			if !strings.ContainsRune(keyAlphabet, c) {
				t.Fatalf("key %q contains %q outside [A-Za-z]", k, c)
			}
		}
		if _, dup := seen[k]; dup {
			t.Fatalf("duplicate key %q after %d draws", k, i)
		}
		seen[k] = struct{}{}
	}
}

func TestDefaultRandomizer_IntnInRange(t *testing.T) {
	var r DefaultRandomizer
	for i := 0; i < 1000; i++ {
		if v := r.Intn(5); v < 0 || v >= 5 {
			t.Fatalf("Intn(5) = %d", v)
		}
	}
}

func TestSubmit_UnknownType_NoStoreAccess(t *testing.T) {
	r := newFakeRepo()
	s := NewPoemService(nil, r, 5)
	if _, err := s.Submit(context.Background(), domain.PoemType("sonnet"), "alice", "x"); !errors.Is(err, ErrUnknownPoemType) {
		t.Fatalf("expected ErrUnknownPoemType, got %v", err)
	}
	if r.createCalls != 0 {
		t.Fatalf("store must not be touched, got %d creates", r.createCalls)
	}
}

func TestSubmit_UsesGeneratedKeyAndClock(t *testing.T) {
	r := newFakeRepo()
	s := NewPoemService(nil, r, 5)
	s.Rand = &stubRand{keys: []string{"ABCDEFGHIJKLMNOP"}}
	s.Now = func() time.Time { return fixedNow }

	before := testutil.ToFloat64(poemsSubmitted.WithLabelValues("tanka"))

	key, err := s.Submit(context.Background(), domain.Tanka, "bob", "no/line/check")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if key != "ABCDEFGHIJKLMNOP" {
		t.Fatalf("key = %q", key)
	}
	var stored domain.Poem
	for _, p := range r.poems {
		stored = p
	}
	if stored.Content != "no/line/check" || !stored.SubmittedTime.Equal(fixedNow) || stored.DeletionKey != key {
		t.Fatalf("unexpected stored poem: %+v", stored)
	}
	if got := testutil.ToFloat64(poemsSubmitted.WithLabelValues("tanka")); got != before+1 {
		t.Fatalf("poems_submitted_total{tanka} = %v; want %v", got, before+1)
	}
}

func TestSubmit_StoreErrorPropagates(t *testing.T) {
	boom := errors.New("disk full")
	r := newFakeRepo()
	r.createErr = boom
	s := NewPoemService(nil, r, 5)
	if _, err := s.Submit(context.Background(), domain.Haiku, "a", "x"); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestAliceExample_SubmitThenFetchBySubmitter(t *testing.T) {
	s, db := newSQLService(t, 5)
	ctx := context.Background()

	key, err := s.Submit(ctx, domain.Haiku, "alice", "a/b/c")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(key) != DeletionKeyLength {
		t.Fatalf("key length = %d", len(key))
	}

	msg, err := s.FetchRandom(ctx, domain.Haiku, Filter{SubmittedBy: strp("alice")})
	if err != nil {
		t.Fatalf("FetchRandom: %v", err)
	}
	if msg != "a/b/c -- submitted by alice" {
		t.Fatalf("message = %q", msg)
	}

	var p domain.Poem
	if err := db.First(&p, "deletion_key = ?", key).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.TimesServed != 1 || p.LastServed == nil || !p.LastServed.Equal(fixedNow) {
		t.Fatalf("bookkeeping = %+v", p)
	}
	if ids := s.RecentIDs(); len(ids) != 1 || ids[0] != p.ID {
		t.Fatalf("recent = %v; want [%s]", ids, p.ID)
	}
}

func TestDelete_ThenFetchNeverReturnsIt(t *testing.T) {
	s, _ := newSQLService(t, 5)
	ctx := context.Background()

	key, err := s.Submit(ctx, domain.Haiku, "alice", "a/b/c")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := s.PickRandom(ctx, domain.Haiku, Filter{}); err != nil {
		t.Fatalf("PickRandom: %v", err)
	}

	// Wrong type with the right key does nothing.
	ok, err := s.Delete(ctx, domain.Limerick, key)
	if err != nil || ok {
		t.Fatalf("wrong-type delete = %v, %v; want false, nil", ok, err)
	}

	ok, err = s.Delete(ctx, domain.Haiku, key)
	if err != nil || !ok {
		t.Fatalf("Delete = %v, %v; want true, nil", ok, err)
	}
	if ids := s.RecentIDs(); len(ids) != 0 {
		t.Fatalf("deleted id must leave the recency list, got %v", ids)
	}

	msg, err := s.FetchRandom(ctx, domain.Haiku, Filter{})
	if err != nil {
		t.Fatalf("FetchRandom: %v", err)
	}
	if msg != "No matching haiku found. Submit one!" {
		t.Fatalf("message = %q", msg)
	}

	ok, err = s.Delete(ctx, domain.Haiku, key)
	if err != nil || ok {
		t.Fatalf("second delete = %v, %v; want false, nil", ok, err)
	}
}

func TestFetchRandom_NoMatchMessagePerType(t *testing.T) {
	s := NewPoemService(nil, newFakeRepo(), 5)
	for _, pt := range domain.PoemTypes {
		msg, err := s.FetchRandom(context.Background(), pt, Filter{})
		if err != nil {
			t.Fatalf("FetchRandom(%s): %v", pt, err)
		}
		if want := "No matching " + string(pt) + " found. Submit one!"; msg != want {
			t.Fatalf("FetchRandom(%s) = %q; want %q", pt, msg, want)
		}
	}
}

func TestPickRandom_OnlyChosenPoemIsStamped(t *testing.T) {
	s, db := newSQLService(t, 5)
	ctx := context.Background()

	if _, err := s.Submit(ctx, domain.Tanka, "a", "1/2/3/4/5"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	s.Now = func() time.Time { return fixedNow.Add(time.Second) }
	if _, err := s.Submit(ctx, domain.Tanka, "b", "6/7/8/9/10"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	served := fixedNow.Add(time.Hour)
	s.Now = func() time.Time { return served }
	s.Rand = &stubRand{idx: 1}

	p, err := s.PickRandom(ctx, domain.Tanka, Filter{})
	if err != nil {
		t.Fatalf("PickRandom: %v", err)
	}
	// Candidates tie on last_served, so submission order decides: index 1 is b.
	if p.SubmittedBy != "b" || p.TimesServed != 1 || p.LastServed == nil || !p.LastServed.Equal(served) {
		t.Fatalf("returned poem = %+v", p)
	}

	var all []domain.Poem
	if err := db.Order("submitted_by").Find(&all).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if all[0].TimesServed != 0 || all[0].LastServed != nil {
		t.Fatalf("unchosen poem changed: %+v", all[0])
	}
	if all[1].TimesServed != 1 || !all[1].LastServed.Equal(served) {
		t.Fatalf("chosen poem not stamped: %+v", all[1])
	}
}

func TestPickRandom_SixLimericks_ChoosesAmongFiveLeastRecent(t *testing.T) {
	s, db := newSQLService(t, 10)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 6; i++ {
		s.Now = func() time.Time { return fixedNow.Add(time.Duration(i) * time.Minute) }
		p, err := s.SubmitPoem(ctx, domain.Limerick, "poet", "a/b/c/d/e")
		if err != nil {
			t.Fatalf("SubmitPoem: %v", err)
		}
		ids = append(ids, p.ID)
	}
	// Serve every limerick once; the last one served is the newest.
	for i, id := range ids {
		if err := repo.RecordService(ctx, db, id, fixedNow.Add(time.Duration(i+1)*time.Hour)); err != nil {
			t.Fatalf("RecordService: %v", err)
		}
	}

	rnd := &stubRand{idx: 4}
	s.Rand = rnd
	s.Now = func() time.Time { return fixedNow.Add(24 * time.Hour) }

	p, err := s.PickRandom(ctx, domain.Limerick, Filter{})
	if err != nil {
		t.Fatalf("PickRandom: %v", err)
	}
	if rnd.lastN != 5 {
		t.Fatalf("chose among %d candidates; want 5", rnd.lastN)
	}
	if p.ID == ids[5] {
		t.Fatalf("most recently served limerick must not be a candidate")
	}
	if p.ID != ids[4] {
		t.Fatalf("index 4 of least-recent order should be %s, got %s", ids[4], p.ID)
	}
}

func TestPickRandom_RecencyListBoundedAndUnique(t *testing.T) {
	r := newFakeRepo()
	s := NewPoemService(nil, r, 3)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, err := s.Submit(ctx, domain.Haiku, "a", "x/y/z"); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}

	for i := 0; i < 50; i++ {
		s.Rand = &stubRand{idx: i % 5}
		if _, err := s.PickRandom(ctx, domain.Haiku, Filter{}); err != nil {
			t.Fatalf("PickRandom: %v", err)
		}
		ids := s.RecentIDs()
		if len(ids) > 3 {
			t.Fatalf("recency list exceeded limit: %v", ids)
		}
		seen := map[string]bool{}
		for _, id := range ids {
			if seen[id] {
				t.Fatalf("duplicate id in recency list: %v", ids)
			}
			seen[id] = true
		}
	}
}

func TestPickRandom_EmptyFilterValuesAreIgnored(t *testing.T) {
	r := newFakeRepo()
	s := NewPoemService(nil, r, 5)
	ctx := context.Background()
	if _, err := s.Submit(ctx, domain.Haiku, "alice", "a/b/c"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := s.PickRandom(ctx, domain.Haiku, Filter{Contains: strp(""), SubmittedBy: strp("")}); err != nil {
		t.Fatalf("empty filters should match everything, got %v", err)
	}
}

func TestPickRandom_Errors(t *testing.T) {
	ctx := context.Background()

	s := NewPoemService(nil, newFakeRepo(), 5)
	if _, err := s.PickRandom(ctx, domain.PoemType("ode"), Filter{}); !errors.Is(err, ErrUnknownPoemType) {
		t.Fatalf("expected ErrUnknownPoemType, got %v", err)
	}
	if _, err := s.PickRandom(ctx, domain.Haiku, Filter{}); !errors.Is(err, ErrNoMatchingPoems) {
		t.Fatalf("expected ErrNoMatchingPoems, got %v", err)
	}

	boom := errors.New("db down")
	r := newFakeRepo()
	r.queryErr = boom
	s = NewPoemService(nil, r, 5)
	if _, err := s.FetchRandom(ctx, domain.Haiku, Filter{}); !errors.Is(err, boom) {
		t.Fatalf("expected query error, got %v", err)
	}

	r = newFakeRepo()
	s = NewPoemService(nil, r, 5)
	if _, err := s.Submit(ctx, domain.Haiku, "a", "x"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	r.recordErr = boom
	if _, err := s.PickRandom(ctx, domain.Haiku, Filter{}); !errors.Is(err, boom) {
		t.Fatalf("expected record error, got %v", err)
	}
	if ids := s.RecentIDs(); len(ids) != 0 {
		t.Fatalf("failed selection must not be recorded as displayed: %v", ids)
	}
}

func TestPickRandom_UpdatesServedCounter(t *testing.T) {
	r := newFakeRepo()
	s := NewPoemService(nil, r, 5)
	ctx := context.Background()
	if _, err := s.Submit(ctx, domain.Limerick, "a", "1/2/3/4/5"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	before := testutil.ToFloat64(poemsServed.WithLabelValues("limerick"))
	if _, err := s.PickRandom(ctx, domain.Limerick, Filter{}); err != nil {
		t.Fatalf("PickRandom: %v", err)
	}
	if got := testutil.ToFloat64(poemsServed.WithLabelValues("limerick")); got != before+1 {
		t.Fatalf("poems_served_total{limerick} = %v; want %v", got, before+1)
	}
	if got := testutil.ToFloat64(recentIDs); got != 1 {
		t.Fatalf("poems_recent_ids = %v; want 1", got)
	}
}

func TestDelete_Errors(t *testing.T) {
	ctx := context.Background()
	s := NewPoemService(nil, newFakeRepo(), 5)
	if _, err := s.Delete(ctx, domain.PoemType("ode"), "k"); !errors.Is(err, ErrUnknownPoemType) {
		t.Fatalf("expected ErrUnknownPoemType, got %v", err)
	}

	boom := errors.New("db down")
	r := newFakeRepo()
	r.deleteErr = boom
	s = NewPoemService(nil, r, 5)
	if ok, err := s.Delete(ctx, domain.Haiku, "k"); ok || !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v, %v", ok, err)
	}
}

func TestListRecent_OrderKeysAndMissingSkipped(t *testing.T) {
	r := newFakeRepo()
	s := NewPoemService(nil, r, 5)
	ctx := context.Background()

	s.Rand = &stubRand{keys: []string{"KEYONEKEYONEKEYO", "KEYTWOKEYTWOKEYT"}}
	p1, _ := s.SubmitPoem(ctx, domain.Haiku, "alice", "a/b/c")
	p2, _ := s.SubmitPoem(ctx, domain.Tanka, "bob", "1/2/3/4/5")

	s.Rand = &stubRand{}
	if _, err := s.PickRandom(ctx, domain.Tanka, Filter{}); err != nil {
		t.Fatalf("PickRandom tanka: %v", err)
	}
	if _, err := s.PickRandom(ctx, domain.Haiku, Filter{}); err != nil {
		t.Fatalf("PickRandom haiku: %v", err)
	}

	got, err := s.ListRecent(ctx)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(got) != 2 || got[0].Poem.ID != p2.ID || got[1].Poem.ID != p1.ID {
		t.Fatalf("unexpected order: %+v", got)
	}
	if got[1].Display != "a/b/c -- submitted by alice (Deletion Key: KEYONEKEYONEKEYO)" {
		t.Fatalf("display = %q", got[1].Display)
	}

	// A poem removed behind the service's back is skipped, not an error.
	r.mu.Lock()
	delete(r.poems, p2.ID)
	r.mu.Unlock()
	got, err = s.ListRecent(ctx)
	if err != nil || len(got) != 1 || got[0].Poem.ID != p1.ID {
		t.Fatalf("ListRecent after external delete = %+v, %v", got, err)
	}
}

func TestListRecent_EmptyAndError(t *testing.T) {
	r := newFakeRepo()
	r.findErr = errors.New("db down")
	s := NewPoemService(nil, r, 5)

	got, err := s.ListRecent(context.Background())
	if err != nil || len(got) != 0 {
		t.Fatalf("empty list must not hit the store: %v, %v", got, err)
	}

	if _, err := s.Submit(context.Background(), domain.Haiku, "a", "x"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := s.PickRandom(context.Background(), domain.Haiku, Filter{}); err != nil {
		t.Fatalf("PickRandom: %v", err)
	}
	if _, err := s.ListRecent(context.Background()); err == nil {
		t.Fatalf("expected store error")
	}
}

func TestDumpAll(t *testing.T) {
	s, _ := newSQLService(t, 5)
	ctx := context.Background()
	if _, err := s.Submit(ctx, domain.Haiku, "a", "a/b/c"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := s.Submit(ctx, domain.Limerick, "b", "1/2/3/4/5"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	all, err := s.DumpAll(ctx)
	if err != nil || len(all) != 2 {
		t.Fatalf("DumpAll = %d poems, %v", len(all), err)
	}

	r := newFakeRepo()
	r.listErr = errors.New("db down")
	if _, err := NewPoemService(nil, r, 5).DumpAll(ctx); err == nil {
		t.Fatalf("expected store error")
	}
}

func TestPoemService_ConcurrentPickAndDelete(t *testing.T) {
	r := newFakeRepo()
	s := NewPoemService(nil, r, 3)
	ctx := context.Background()

	var keys []string
	for i := 0; i < 20; i++ {
		k, err := s.Submit(ctx, domain.Haiku, "a", "x/y/z")
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		keys = append(keys, k)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = s.PickRandom(ctx, domain.Haiku, Filter{})
		}()
		go func(k string) {
			defer wg.Done()
			_, _ = s.Delete(ctx, domain.Haiku, k)
		}(keys[i])
	}
	wg.Wait()

	// Every poem is gone, so nothing may linger in the recency list.
	if ids := s.RecentIDs(); len(ids) != 0 {
		t.Fatalf("recency list references deleted poems: %v", ids)
	}
}

func TestZeroValueService_LazyDefaults(t *testing.T) {
	s := &PoemService{Repo: newFakeRepo()}
	ctx := context.Background()
	if _, err := s.Submit(ctx, domain.Haiku, "a", "x"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := s.PickRandom(ctx, domain.Haiku, Filter{}); err != nil {
		t.Fatalf("PickRandom: %v", err)
	}
	if len(s.RecentIDs()) != 1 {
		t.Fatalf("expected one recent id")
	}
}
