package httpserver

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"flexliving_reviews/internal/analytics"
	"flexliving_reviews/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

type views struct {
	dashboard *template.Template
	property  *template.Template
}

var funcs = template.FuncMap{
	"rating": func(f float64) string { return fmt.Sprintf("%.1f", f) },
	"score":  func(f float64) string { return strings.TrimSuffix(fmt.Sprintf("%.1f", f), ".0") },
	"day":    func(t time.Time) string { return t.Format("Jan 2, 2006") },
	"label":  analytics.CategoryLabel,
	"list":   func(xs ...string) []string { return xs },
	"path":   url.PathEscape,
	"arrow": func(d analytics.Direction) string {
		switch d {
		case analytics.Improving:
			return "↗"
		case analytics.Declining:
			return "↘"
		}
		return "→"
	},
	"plural": func(n int, word string) string {
		if n == 1 {
			return fmt.Sprintf("%d %s", n, word)
		}
		return fmt.Sprintf("%d %ss", n, word)
	},
}

func mustViews() *views {
	parse := func(page string) *template.Template {
		return template.Must(template.New(page).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+page))
	}
	return &views{
		dashboard: parse("dashboard.html"),
		property:  parse("property.html"),
	}
}

// render executes into a buffer first so a template error never leaves a
// half-written page.
func render(w http.ResponseWriter, t *template.Template, status int, data any) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		log.Error().Err(err).Str("template", t.Name()).Msg("render failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		log.Error().Err(err).Msg("failed to write page")
	}
}

type filterForm struct {
	Property string
	Rating   string
	Sort     string
}

func (f filterForm) Query() string {
	v := url.Values{}
	if f.Property != "" {
		v.Set("property", f.Property)
	}
	if f.Rating != "" {
		v.Set("rating", f.Rating)
	}
	if f.Sort != "" && f.Sort != string(analytics.SortDate) {
		v.Set("sort", f.Sort)
	}
	return v.Encode()
}

type dashboardData struct {
	Title      string
	Flash      string
	Filters    filterForm
	Properties []analytics.PropertySummary
	Trends     analytics.TrendsReport
	Reviews    []domain.Review
	Total      int
}

func (h *Handlers) dashboardPage(v *views) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		form := filterForm{Property: q.Get("property"), Rating: q.Get("rating"), Sort: q.Get("sort")}

		// bad filter values fall back to "no filter" / date order
		c := analytics.Criteria{Property: form.Property, Sort: analytics.SortDate}
		if k, err := analytics.ParseSortKey(form.Sort); err == nil {
			c.Sort = k
		}
		form.Sort = string(c.Sort)
		if mr, err := analytics.ParseMinRating(form.Rating); err == nil {
			c.MinRating = mr
		} else {
			form.Rating = ""
		}

		all := h.loadedStore(r).Snapshot()
		render(w, v.dashboard, http.StatusOK, dashboardData{
			Title:      "Reviews Dashboard",
			Flash:      q.Get("error"),
			Filters:    form,
			Properties: analytics.PropertyStats(all),
			Trends:     analytics.Trends(all, h.Now()),
			Reviews:    analytics.Filter(all, c),
			Total:      len(all),
		})
	}
}

func (h *Handlers) toggleForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	form := filterForm{Property: r.PostFormValue("property"), Rating: r.PostFormValue("rating"), Sort: r.PostFormValue("sort")}
	q, _ := url.ParseQuery(form.Query())

	id := chi.URLParam(r, "id")
	if _, err := h.M.Toggle(r.Context(), storeFrom(r.Context()), id); err != nil {
		msg := "Failed to update review approval"
		if errors.Is(err, domain.ErrNotFound) {
			msg = "Review not found, refresh the dashboard"
		}
		q.Set("error", msg)
	}
	target := "/dashboard"
	if enc := q.Encode(); enc != "" {
		target += "?" + enc
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

type propertyData struct {
	Title    string
	Property domain.Property
	Found    bool
}

func (h *Handlers) propertyPage(v *views) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, err := url.PathUnescape(chi.URLParam(r, "propertyName"))
		if err != nil {
			name = chi.URLParam(r, "propertyName")
		}
		p, err := h.Q.Property(r.Context(), name)
		if err != nil {
			render(w, v.property, http.StatusNotFound, propertyData{Title: "Property not found"})
			return
		}
		render(w, v.property, http.StatusOK, propertyData{Title: p.Name, Property: p, Found: true})
	}
}
