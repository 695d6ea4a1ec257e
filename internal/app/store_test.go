package app_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"flexliving_reviews/internal/app"
	"flexliving_reviews/internal/domain"
)

func TestStore_LoadCopiesInput(t *testing.T) {
	in := sampleReviews()
	st := app.NewStore()
	if st.Loaded() {
		t.Fatalf("new store must not be loaded")
	}
	at := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	st.Load(in, at)

	in[0].GuestName = "mutated"
	if r, _ := st.Get("r1"); r.GuestName != "Ana" {
		t.Fatalf("store aliases caller slice")
	}
	snap := st.Snapshot()
	snap[0].IsApproved = true
	if r, _ := st.Get("r1"); r.IsApproved {
		t.Fatalf("snapshot aliases store")
	}
	if !st.LoadedAt().Equal(at) {
		t.Fatalf("unexpected LoadedAt %v", st.LoadedAt())
	}
}

func TestStore_SetApprovalIdempotent(t *testing.T) {
	st := app.NewStore()
	st.Load(sampleReviews(), time.Now())

	prev, err := st.SetApproval("r1", true)
	if err != nil || prev {
		t.Fatalf("first set: prev=%v err=%v", prev, err)
	}
	prev, err = st.SetApproval("r1", true)
	if err != nil || !prev {
		t.Fatalf("second set: prev=%v err=%v", prev, err)
	}
	if r, _ := st.Get("r1"); !r.IsApproved {
		t.Fatalf("expected approved")
	}
	if _, err := st.SetApproval("missing", true); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_ToggleConcurrent(t *testing.T) {
	st := app.NewStore()
	st.Load(sampleReviews(), time.Now())

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = st.Toggle("r1")
		}()
	}
	wg.Wait()
	// even number of flips
	if r, _ := st.Get("r1"); r.IsApproved {
		t.Fatalf("expected original state after 100 toggles")
	}
}

func TestSessions_AcquireReuse(t *testing.T) {
	s := app.NewSessions(time.Hour)

	id, st := s.Acquire("")
	if id == "" || st == nil {
		t.Fatalf("expected new session")
	}
	id2, st2 := s.Acquire(id)
	if id2 != id || st2 != st {
		t.Fatalf("expected same session back")
	}
	id3, st3 := s.Acquire("unknown-id")
	if id3 == "unknown-id" || st3 == st {
		t.Fatalf("unknown id must get a fresh session")
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 sessions, got %d", s.Len())
	}
}
