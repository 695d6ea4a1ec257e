package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"flexliving_reviews/internal/app"
	"flexliving_reviews/internal/domain"
)

type fakeAudit struct {
	mu     sync.Mutex
	events []domain.ApprovalEvent
}

func (a *fakeAudit) RecordApproval(ctx context.Context, e domain.ApprovalEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, e)
	return nil
}

func (a *fakeAudit) ListApprovals(ctx context.Context, id string, limit int) ([]domain.ApprovalEvent, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []domain.ApprovalEvent
	for i := len(a.events) - 1; i >= 0; i-- {
		if a.events[i].ReviewID == id {
			out = append(out, a.events[i])
		}
	}
	return out, nil
}

func loadedStore(t *testing.T) *app.Store {
	t.Helper()
	st := app.NewStore()
	st.Load(sampleReviews(), time.Now())
	return st
}

func TestToggle_SuccessUpdatesStoreBackendAndCache(t *testing.T) {
	api := &fakeAPI{}
	cache := &fakeCache{}
	_ = cache.Set(context.Background(), "reviews:||", []int{1}, 60)
	_ = cache.Set(context.Background(), "properties:all", []int{1}, 60)
	audit := &fakeAudit{}
	m := app.NewModerationService(api, cache, audit)
	st := loadedStore(t)

	got, err := m.Toggle(context.Background(), st, "r1")
	if err != nil || !got {
		t.Fatalf("toggle: %v %v", got, err)
	}
	if r, _ := st.Get("r1"); !r.IsApproved {
		t.Fatalf("store not updated")
	}
	if !api.approvals["r1"] {
		t.Fatalf("backend not called with approved=true")
	}
	if len(cache.store) != 0 {
		t.Fatalf("caches not invalidated: %v", cache.store)
	}
	if len(audit.events) != 1 || audit.events[0].Outcome != app.OutcomeOK || !audit.events[0].Approved {
		t.Fatalf("unexpected audit: %+v", audit.events)
	}
}

func TestToggle_RoundTrip(t *testing.T) {
	m := app.NewModerationService(&fakeAPI{}, nil, nil)
	st := loadedStore(t)
	before, _ := st.Get("r2")

	if _, err := m.Toggle(context.Background(), st, "r2"); err != nil {
		t.Fatalf("toggle 1: %v", err)
	}
	if _, err := m.Toggle(context.Background(), st, "r2"); err != nil {
		t.Fatalf("toggle 2: %v", err)
	}
	after, _ := st.Get("r2")
	if after.IsApproved != before.IsApproved {
		t.Fatalf("toggle twice should restore %v, got %v", before.IsApproved, after.IsApproved)
	}
}

func TestToggle_BackendFailureReverts(t *testing.T) {
	api := &fakeAPI{approveErr: domain.ErrBackend}
	cache := &fakeCache{}
	_ = cache.Set(context.Background(), "properties:all", []int{1}, 60)
	audit := &fakeAudit{}
	m := app.NewModerationService(api, cache, audit)
	st := loadedStore(t)

	got, err := m.Toggle(context.Background(), st, "r1")
	if !errors.Is(err, domain.ErrBackend) {
		t.Fatalf("expected ErrBackend, got %v", err)
	}
	if got {
		t.Fatalf("expected previous state false to be reported")
	}
	if r, _ := st.Get("r1"); r.IsApproved {
		t.Fatalf("store should be reverted")
	}
	if len(cache.store) != 1 {
		t.Fatalf("cache must not be invalidated on failure")
	}
	if len(audit.events) != 1 || audit.events[0].Outcome != app.OutcomeReverted || audit.events[0].Detail == "" {
		t.Fatalf("unexpected audit: %+v", audit.events)
	}
}

func TestToggle_UnknownReview(t *testing.T) {
	api := &fakeAPI{}
	m := app.NewModerationService(api, nil, nil)
	if _, err := m.Toggle(context.Background(), loadedStore(t), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(api.approvals) != 0 {
		t.Fatalf("backend must not be called")
	}
}

func TestSet_IdempotentSkipsBackend(t *testing.T) {
	api := &fakeAPI{}
	m := app.NewModerationService(api, nil, nil)
	st := loadedStore(t)

	changed, err := m.Set(context.Background(), st, "r2", true) // already approved
	if err != nil || changed {
		t.Fatalf("expected no-op, got changed=%v err=%v", changed, err)
	}
	if len(api.approvals) != 0 {
		t.Fatalf("backend must not be called for a no-op")
	}

	changed, err = m.Set(context.Background(), st, "r2", false)
	if err != nil || !changed {
		t.Fatalf("expected change, got changed=%v err=%v", changed, err)
	}
	if v, ok := api.approvals["r2"]; !ok || v {
		t.Fatalf("backend should have approved=false for r2: %+v", api.approvals)
	}
}

func TestHistory(t *testing.T) {
	audit := &fakeAudit{}
	m := app.NewModerationService(&fakeAPI{}, nil, audit)
	st := loadedStore(t)
	_, _ = m.Toggle(context.Background(), st, "r1")
	_, _ = m.Toggle(context.Background(), st, "r1")

	h, err := m.History(context.Background(), "r1", 10)
	if err != nil || len(h) != 2 || h[0].Approved || !h[1].Approved {
		t.Fatalf("unexpected history: %+v %v", h, err)
	}

	none, err := app.NewModerationService(&fakeAPI{}, nil, nil).History(context.Background(), "r1", 10)
	if err != nil || len(none) != 0 {
		t.Fatalf("expected empty history without audit log: %+v %v", none, err)
	}
}
