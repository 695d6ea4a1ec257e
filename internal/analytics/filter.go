package analytics

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"flexliving_reviews/internal/domain"
)

type SortKey string

const (
	SortDate   SortKey = "date"
	SortRating SortKey = "rating"
)

// Criteria selects and orders the reviews shown on the dashboard.
// Zero Property and nil MinRating disable those filters.
type Criteria struct {
	Property  string
	MinRating *float64
	Sort      SortKey
}

func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortDate:
		return SortDate, nil
	case SortRating:
		return SortRating, nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrInvalidSort, s)
}

// ParseMinRating accepts "" (no filter) or a decimal number.
func ParseMinRating(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid rating %q: %w", s, err)
	}
	return &f, nil
}

// Filter returns the reviews matching c, ordered by c.Sort. The input slice
// is never reordered; the result is always a fresh slice.
func Filter(reviews []domain.Review, c Criteria) []domain.Review {
	needle := strings.ToLower(c.Property)
	out := make([]domain.Review, 0, len(reviews))
	for _, r := range reviews {
		if needle != "" && !strings.Contains(strings.ToLower(r.PropertyName), needle) {
			continue
		}
		if c.MinRating != nil && r.Rating < *c.MinRating {
			continue
		}
		out = append(out, r)
	}

	switch c.Sort {
	case SortRating:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	case SortDate, "":
		sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	}
	return out
}
