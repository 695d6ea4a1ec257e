package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"flexliving_reviews/internal/app"
	"flexliving_reviews/internal/domain"
)

// ---- fakes ----

type fakeAPI struct {
	mu         sync.Mutex
	reviews    []domain.Review
	properties []domain.Property
	fetchErr   error
	approveErr error
	calls      int
	approvals  map[string]bool
}

func (f *fakeAPI) GetReviews(ctx context.Context, q domain.ReviewsQuery) ([]domain.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	out := make([]domain.Review, len(f.reviews))
	copy(out, f.reviews)
	return out, nil
}

func (f *fakeAPI) SetApproval(ctx context.Context, id string, approved bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.approveErr != nil {
		return f.approveErr
	}
	if f.approvals == nil {
		f.approvals = map[string]bool{}
	}
	f.approvals[id] = approved
	return nil
}

func (f *fakeAPI) GetProperties(ctx context.Context) ([]domain.Property, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.properties, nil
}

// fakeCache round-trips through JSON like the Redis adapter does.
type fakeCache struct {
	mu    sync.Mutex
	store map[string][]byte
	dels  []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	c.dels = append(c.dels, key)
	return nil
}

func (c *fakeCache) DelPrefix(ctx context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.store {
		if strings.HasPrefix(k, prefix) {
			delete(c.store, k)
		}
	}
	c.dels = append(c.dels, prefix+"*")
	return nil
}

func sampleReviews() []domain.Review {
	return []domain.Review{
		{ID: "r1", PropertyName: "Seaside Villa", GuestName: "Ana", Rating: 9, Date: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "r2", PropertyName: "Camden Square", GuestName: "Bob", Rating: 6, Date: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), IsApproved: true},
	}
}

// ---- tests ----

func TestListReviews_CacheMissThenHit(t *testing.T) {
	api := &fakeAPI{reviews: sampleReviews()}
	cache := &fakeCache{}
	q := app.NewQueryService(api, cache, 10*time.Minute)

	out, err := q.ListReviews(context.Background(), domain.ReviewsQuery{})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(out) != 2 || out[0].GuestName != "Ana" {
		t.Fatalf("unexpected reviews: %+v", out)
	}

	// Change backend, call again -> should come from cache
	api.reviews[0].GuestName = "Changed"
	out2, _ := q.ListReviews(context.Background(), domain.ReviewsQuery{})
	if out2[0].GuestName != "Ana" {
		t.Fatalf("expected cached guest Ana, got %s", out2[0].GuestName)
	}
	if api.calls != 1 {
		t.Fatalf("expected one backend call, got %d", api.calls)
	}
}

func TestListReviews_NilCacheAlwaysFetches(t *testing.T) {
	api := &fakeAPI{reviews: sampleReviews()}
	q := app.NewQueryService(api, nil, time.Minute)
	for i := 0; i < 2; i++ {
		if _, err := q.ListReviews(context.Background(), domain.ReviewsQuery{Property: "villa"}); err != nil {
			t.Fatalf("err: %v", err)
		}
	}
	if api.calls != 2 {
		t.Fatalf("expected two backend calls, got %d", api.calls)
	}
}

func TestLoad_FetchFailureDegradesToEmpty(t *testing.T) {
	api := &fakeAPI{fetchErr: errors.New("connection refused")}
	q := app.NewQueryService(api, nil, time.Minute)
	st := app.NewStore()

	if n := q.Load(context.Background(), st); n != 0 {
		t.Fatalf("expected 0 reviews, got %d", n)
	}
	if !st.Loaded() || len(st.Snapshot()) != 0 {
		t.Fatalf("store should be loaded and empty")
	}
}

func TestLoad_FillsStore(t *testing.T) {
	api := &fakeAPI{reviews: sampleReviews()}
	q := app.NewQueryService(api, &fakeCache{}, time.Minute)
	st := app.NewStore()

	if n := q.Load(context.Background(), st); n != 2 {
		t.Fatalf("expected 2 reviews, got %d", n)
	}
	if r, ok := st.Get("r2"); !ok || !r.IsApproved {
		t.Fatalf("unexpected r2: %+v", r)
	}
}

func TestProperty_LookupAndMiss(t *testing.T) {
	api := &fakeAPI{properties: []domain.Property{
		{Name: "Seaside Villa", TotalReviews: 1, AverageRating: 9},
	}}
	q := app.NewQueryService(api, &fakeCache{}, time.Minute)

	p, err := q.Property(context.Background(), "Seaside Villa")
	if err != nil || p.TotalReviews != 1 {
		t.Fatalf("unexpected: %+v %v", p, err)
	}
	if _, err := q.Property(context.Background(), "seaside villa"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for case mismatch, got %v", err)
	}

	down := app.NewQueryService(&fakeAPI{fetchErr: errors.New("boom")}, nil, time.Minute)
	if _, err := down.Property(context.Background(), "Seaside Villa"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound when backend is down, got %v", err)
	}
}
