// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"flexliving_reviews/internal/analytics"
	"flexliving_reviews/internal/app"
	"flexliving_reviews/internal/domain"
)

type Handlers struct {
	Q        *app.QueryService
	M        *app.ModerationService
	Sessions *app.Sessions
	Now      func() time.Time
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	if h.Now == nil {
		h.Now = time.Now
	}
	v := mustViews()

	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
	})
	s.mux.Get("/property/{propertyName}", h.propertyPage(v))

	s.mux.Group(func(r chi.Router) {
		r.Use(Session(h.Sessions))
		r.Get("/dashboard", h.dashboardPage(v))
		r.Post("/dashboard/reviews/{id}/toggle", h.toggleForm)

		r.Get("/api/dashboard/reviews", h.listReviews)
		r.Get("/api/dashboard/stats", h.propertyStats)
		r.Get("/api/dashboard/trends", h.trends)
		r.Patch("/api/dashboard/reviews/{id}/approve", h.approve)
		r.Get("/api/dashboard/reviews/{id}/history", h.history)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeJSON serves v with a weak ETag and honours If-None-Match.
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "response encoding failed")
		return
	}
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write JSON body")
	}
}

// loadedStore returns the session store, fetching the review list on first
// use or when ?refresh=1 is given.
func (h *Handlers) loadedStore(r *http.Request) *app.Store {
	st := storeFrom(r.Context())
	if !st.Loaded() || r.URL.Query().Get("refresh") == "1" {
		n := h.Q.Load(r.Context(), st)
		log.Debug().Int("reviews", n).Msg("session store loaded")
	}
	return st
}

func criteriaFromQuery(r *http.Request) (analytics.Criteria, error) {
	q := r.URL.Query()
	sortKey, err := analytics.ParseSortKey(q.Get("sort"))
	if err != nil {
		return analytics.Criteria{}, err
	}
	minRating, err := analytics.ParseMinRating(q.Get("rating"))
	if err != nil {
		return analytics.Criteria{}, err
	}
	return analytics.Criteria{Property: q.Get("property"), MinRating: minRating, Sort: sortKey}, nil
}

type reviewsResponse struct {
	Reviews []domain.Review `json:"reviews"`
	Total   int             `json:"total"`
}

func (h *Handlers) listReviews(w http.ResponseWriter, r *http.Request) {
	c, err := criteriaFromQuery(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid filter", err.Error())
		return
	}
	all := h.loadedStore(r).Snapshot()
	writeJSON(w, r, reviewsResponse{Reviews: analytics.Filter(all, c), Total: len(all)})
}

func (h *Handlers) propertyStats(w http.ResponseWriter, r *http.Request) {
	stats := analytics.PropertyStats(h.loadedStore(r).Snapshot())
	writeJSON(w, r, map[string]any{"properties": stats})
}

func (h *Handlers) trends(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, analytics.Trends(h.loadedStore(r).Snapshot(), h.Now()))
}

func (h *Handlers) approve(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body struct {
		IsApproved *bool `json:"isApproved"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10)).Decode(&body); err != nil || body.IsApproved == nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", `expected {"isApproved": true|false}`)
		return
	}

	st := h.loadedStore(r)
	changed, err := h.M.Set(r.Context(), st, id, *body.IsApproved)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "review not found")
		return
	case err != nil:
		writeProblem(w, http.StatusBadGateway, "Approval failed", "the reviews backend rejected the change")
		return
	}
	rv, _ := st.Get(id)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{"review": rv, "changed": changed}); err != nil {
		log.Error().Err(err).Msg("failed to write approve body")
	}
}

func (h *Handlers) history(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > 200 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 200")
			return
		}
		limit = l
	}
	events, err := h.M.History(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		log.Error().Err(err).Msg("approval history failed")
		writeProblem(w, http.StatusServiceUnavailable, "Unavailable", "approval history is unavailable")
		return
	}
	writeJSON(w, r, map[string]any{"events": events})
}
