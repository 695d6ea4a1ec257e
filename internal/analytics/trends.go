package analytics

import (
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"flexliving_reviews/internal/domain"
)

const (
	PoorScoreThreshold    = 6.0 // an observation <= this is a "low rating"
	IssueAverageThreshold = 7.0
	IssueMinPoor          = 2
	FairAverageThreshold  = 8.5
	RecentWindow          = 30 * 24 * time.Hour
)

type Tier string

const (
	TierPoor Tier = "poor"
	TierFair Tier = "fair"
	TierGood Tier = "good"
)

type Direction string

const (
	Improving Direction = "improving"
	Declining Direction = "declining"
	Stable    Direction = "stable"
)

type CategoryStat struct {
	Name    string  `json:"name"`
	Average float64 `json:"average"`
	Count   int     `json:"count"`
	Poor    int     `json:"poor"`
	Tier    Tier    `json:"tier"`
}

type RecentTrend struct {
	RecentAvg   float64   `json:"recentAvg"`
	OverallAvg  float64   `json:"overallAvg"`
	RecentCount int       `json:"recentCount"`
	Direction   Direction `json:"direction"`
}

type TrendsReport struct {
	CategoryStats   []CategoryStat `json:"categoryStats"`
	RecurringIssues []CategoryStat `json:"recurringIssues"`
	RecentTrend     RecentTrend    `json:"recentTrend"`
}

// Trends computes category performance, recurring issues and the 30-day
// rating trend relative to now.
func Trends(reviews []domain.Review, now time.Time) TrendsReport {
	cats := CategoryStats(reviews)

	issues := make([]CategoryStat, 0)
	for _, c := range cats {
		if IsRecurringIssue(c) {
			issues = append(issues, c)
		}
	}

	return TrendsReport{
		CategoryStats:   cats,
		RecurringIssues: issues,
		RecentTrend:     RecentTrendOf(reviews, now),
	}
}

// CategoryStats aggregates every observed category across reviews, sorted
// ascending by average (worst first), ties by name. Reviews that do not
// define a category do not count towards it.
func CategoryStats(reviews []domain.Review) []CategoryStat {
	type acc struct {
		total float64
		n     int
		poor  int
	}
	byName := make(map[string]*acc)
	var order []string

	for _, r := range reviews {
		for _, cs := range r.Categories {
			a, ok := byName[cs.Name]
			if !ok {
				a = &acc{}
				byName[cs.Name] = a
				order = append(order, cs.Name)
			}
			a.total += cs.Score
			a.n++
			if cs.Score <= PoorScoreThreshold {
				a.poor++
			}
		}
	}

	out := make([]CategoryStat, 0, len(order))
	for _, name := range order {
		a := byName[name]
		avg := mean(a.total, a.n)
		out = append(out, CategoryStat{Name: name, Average: avg, Count: a.n, Poor: a.poor, Tier: TierOf(avg)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Average != out[j].Average {
			return out[i].Average < out[j].Average
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// IsRecurringIssue requires both a low average and at least two low
// observations.
func IsRecurringIssue(c CategoryStat) bool {
	return c.Average <= IssueAverageThreshold && c.Poor >= IssueMinPoor
}

func TierOf(avg float64) Tier {
	switch {
	case avg <= IssueAverageThreshold:
		return TierPoor
	case avg <= FairAverageThreshold:
		return TierFair
	}
	return TierGood
}

// RecentTrendOf compares the mean rating of reviews dated strictly after
// now-30d with the mean over all reviews. The comparison is exact.
func RecentTrendOf(reviews []domain.Review, now time.Time) RecentTrend {
	cutoff := now.Add(-RecentWindow)
	var recentSum, allSum float64
	recentN := 0
	for _, r := range reviews {
		allSum += r.Rating
		if r.Date.After(cutoff) {
			recentSum += r.Rating
			recentN++
		}
	}

	t := RecentTrend{
		RecentAvg:   mean(recentSum, recentN),
		OverallAvg:  mean(allSum, len(reviews)),
		RecentCount: recentN,
	}
	switch {
	case t.RecentAvg > t.OverallAvg:
		t.Direction = Improving
	case t.RecentAvg < t.OverallAvg:
		t.Direction = Declining
	default:
		t.Direction = Stable
	}
	return t
}

// CategoryLabel turns "check_in" into "Check in" for display.
func CategoryLabel(name string) string {
	s := strings.ReplaceAll(name, "_", " ")
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
