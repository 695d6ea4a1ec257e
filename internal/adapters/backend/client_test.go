package backend_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"flexliving_reviews/internal/adapters/backend"
	"flexliving_reviews/internal/domain"
)

func newClient(t *testing.T, url string) *backend.Client {
	t.Helper()
	cl, err := backend.New(url+"/api/", 100, 2*time.Second) // high RPS for tests
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	return cl
}

func TestClient_GetReviews_ForwardsQueryAndDecodes(t *testing.T) {
	var gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/reviews/hostaway" {
			w.WriteHeader(404)
			return
		}
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"reviews":[{"id":"r1","propertyName":"Seaside Villa","rating":8.5,
			"categories":{"cleanliness":9,"value":7},"date":"2024-01-15T14:30:00Z","isApproved":true}]}`)
	}))
	defer ts.Close()

	cl := newClient(t, ts.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	got, err := cl.GetReviews(ctx, domain.ReviewsQuery{Property: "villa", Rating: "8"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if gotQuery != "property=villa&rating=8" {
		t.Fatalf("unexpected query: %q", gotQuery)
	}
	if len(got) != 1 || got[0].ID != "r1" || got[0].Rating != 8.5 || !got[0].IsApproved {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if got[0].Categories[0].Name != "cleanliness" || got[0].Date.Year() != 2024 {
		t.Fatalf("unexpected categories/date: %+v", got[0])
	}
}

func TestClient_GetReviews_MissingArrayIsEmpty(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	}))
	defer ts.Close()

	got, err := newClient(t, ts.URL).GetReviews(context.Background(), domain.ReviewsQuery{})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestClient_SetApproval_SendsPatch(t *testing.T) {
	var method, path string
	var body map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.EscapedPath()
		_ = json.NewDecoder(r.Body).Decode(&body)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "Review updated"})
	}))
	defer ts.Close()

	if err := newClient(t, ts.URL).SetApproval(context.Background(), "a/b", true); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if method != http.MethodPatch || path != "/api/reviews/a%2Fb/approve" {
		t.Fatalf("unexpected request: %s %s", method, path)
	}
	if v, ok := body["isApproved"].(bool); !ok || !v {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestClient_SetApproval_404(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	err := newClient(t, ts.URL).SetApproval(context.Background(), "missing", false)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClient_ServerErrorIsNotRetried(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	_, err := newClient(t, ts.URL).GetProperties(context.Background())
	if !errors.Is(err, domain.ErrBackend) {
		t.Fatalf("expected ErrBackend, got %v", err)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("expected exactly one call, got %d", n)
	}
}

func TestClient_MalformedBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"properties": [`)
	}))
	defer ts.Close()

	if _, err := newClient(t, ts.URL).GetProperties(context.Background()); !errors.Is(err, domain.ErrBackend) {
		t.Fatalf("expected ErrBackend, got %v", err)
	}
}

func TestNew_RequiresBase(t *testing.T) {
	if _, err := backend.New("  ", 1, time.Second); err == nil {
		t.Fatalf("expected error for empty base")
	}
}

func TestClient_GetReviews_MixedDateForms(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"reviews":[
			{"id":"a","date":"2024-08-10T14:30:00Z"},
			{"id":"b","date":"2024-08-10"},
			{"id":"c","date":"2024-08-10T14:30:00"},
			{"id":"d","date":"2024-08-10 14:30:00"}]}`)
	}))
	defer ts.Close()

	got, err := newClient(t, ts.URL).GetReviews(context.Background(), domain.ReviewsQuery{})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 reviews, got %d", len(got))
	}
	for _, r := range got {
		if r.Date.Year() != 2024 || r.Date.Month() != time.August || r.Date.Day() != 10 {
			t.Fatalf("review %s: unexpected date %v", r.ID, r.Date)
		}
	}
}
