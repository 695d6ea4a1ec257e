// Package analytics holds the pure filtering and aggregation functions the
// dashboard renders from. Nothing here mutates its input or does I/O.
package analytics

import "flexliving_reviews/internal/domain"

type PropertySummary struct {
	Name      string  `json:"name"`
	Count     int     `json:"count"`
	AvgRating float64 `json:"avgRating"`
	Approved  int     `json:"approved"`
}

// PropertyStats groups reviews by exact property name, in order of first
// appearance.
func PropertyStats(reviews []domain.Review) []PropertySummary {
	idx := make(map[string]int)
	out := make([]PropertySummary, 0)
	sums := make([]float64, 0)

	for _, r := range reviews {
		i, ok := idx[r.PropertyName]
		if !ok {
			i = len(out)
			idx[r.PropertyName] = i
			out = append(out, PropertySummary{Name: r.PropertyName})
			sums = append(sums, 0)
		}
		out[i].Count++
		sums[i] += r.Rating
		if r.IsApproved {
			out[i].Approved++
		}
	}
	for i := range out {
		out[i].AvgRating = mean(sums[i], out[i].Count)
	}
	return out
}

// BuildProperties derives the property list the public page reads from:
// totals and averages over all reviews, approved reviews only in
// ApprovedReviews.
func BuildProperties(reviews []domain.Review) []domain.Property {
	stats := PropertyStats(reviews)
	out := make([]domain.Property, 0, len(stats))
	idx := make(map[string]int, len(stats))
	for i, s := range stats {
		idx[s.Name] = i
		out = append(out, domain.Property{Name: s.Name, TotalReviews: s.Count, AverageRating: s.AvgRating})
	}
	for _, r := range reviews {
		if r.IsApproved {
			i := idx[r.PropertyName]
			out[i].ApprovedReviews = append(out[i].ApprovedReviews, r)
		}
	}
	return out
}

// FindProperty looks a property up by exact name.
func FindProperty(props []domain.Property, name string) (domain.Property, bool) {
	for _, p := range props {
		if p.Name == name {
			return p, true
		}
	}
	return domain.Property{}, false
}

func mean(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
