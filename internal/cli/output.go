package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"flexliving_reviews/internal/analytics"
	"flexliving_reviews/internal/domain"
)

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

func approvedMark(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func writeReviews(w io.Writer, rs []domain.Review) error {
	if len(rs) == 0 {
		_, err := fmt.Fprintln(w, "No reviews match the current filters.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	ew := &errWriter{w: tw}
	ew.println("ID\tDATE\tRATING\tAPPROVED\tPROPERTY\tGUEST")
	for _, r := range rs {
		ew.printf("%s\t%s\t%.1f\t%s\t%s\t%s\n",
			r.ID, r.Date.Format("2006-01-02"), r.Rating, approvedMark(r.IsApproved), r.PropertyName, r.GuestName)
	}
	if ew.err != nil {
		return ew.err
	}
	return tw.Flush()
}

func writeStats(w io.Writer, stats []analytics.PropertySummary) error {
	if len(stats) == 0 {
		_, err := fmt.Fprintln(w, "No reviews yet.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	ew := &errWriter{w: tw}
	ew.println("PROPERTY\tREVIEWS\tAVERAGE\tAPPROVED")
	for _, s := range stats {
		ew.printf("%s\t%d\t%.1f\t%d\n", s.Name, s.Count, s.AvgRating, s.Approved)
	}
	if ew.err != nil {
		return ew.err
	}
	return tw.Flush()
}

func trendArrow(d analytics.Direction) string {
	switch d {
	case analytics.Improving:
		return "↗"
	case analytics.Declining:
		return "↘"
	}
	return "→"
}

func writeTrends(w io.Writer, rep analytics.TrendsReport) error {
	ew := &errWriter{w: w}
	t := rep.RecentTrend
	ew.printf("Last 30 days: %.1f vs %.1f overall %s %s (%d recent)\n",
		t.RecentAvg, t.OverallAvg, trendArrow(t.Direction), t.Direction, t.RecentCount)
	ew.println(strings.Repeat("─", 50))

	for _, c := range rep.CategoryStats {
		ew.printf("  %-20s %4.1f  %-4s  %d ratings, %d low\n", analytics.CategoryLabel(c.Name), c.Average, c.Tier, c.Count, c.Poor)
	}
	ew.println("")
	if len(rep.RecurringIssues) == 0 {
		ew.println("No recurring issues.")
		return ew.err
	}
	ew.println("Recurring issues:")
	for _, c := range rep.RecurringIssues {
		ew.printf("  ! %s: %.1f average, %d low ratings\n", analytics.CategoryLabel(c.Name), c.Average, c.Poor)
	}
	return ew.err
}

func writeProperty(w io.Writer, p domain.Property) error {
	ew := &errWriter{w: w}
	noun := "reviews"
	if p.TotalReviews == 1 {
		noun = "review"
	}
	ew.printf("%s\n%.1f average from %d %s\n", p.Name, p.AverageRating, p.TotalReviews, noun)
	ew.println(strings.Repeat("─", 50))
	if len(p.ApprovedReviews) == 0 {
		ew.println("No approved reviews yet.")
		return ew.err
	}
	for _, r := range p.ApprovedReviews {
		ew.printf("\n%s · %s · %.1f\n  %s\n", r.GuestName, r.Date.Format("Jan 2, 2006"), r.Rating, r.Review)
	}
	return ew.err
}

func writeHistory(w io.Writer, id string, events []domain.ApprovalEvent) error {
	ew := &errWriter{w: w}
	if len(events) == 0 {
		ew.printf("No approval changes recorded for %s.\n", id)
		return ew.err
	}
	for _, e := range events {
		state := "unapproved"
		if e.Approved {
			state = "approved"
		}
		ew.printf("%s  %-10s  %s", e.RecordedAt.Format("2006-01-02 15:04:05"), state, e.Outcome)
		if e.Detail != "" {
			ew.printf("  (%s)", e.Detail)
		}
		ew.println("")
	}
	return ew.err
}

// writeApprovals prints one line per review and a summary, returning the
// number of failures.
func writeApprovals(w io.Writer, results []approveResult, approved bool) (int, error) {
	verb := "approved"
	if !approved {
		verb = "unapproved"
	}
	ew := &errWriter{w: w}
	var changed, unchanged, failed int
	for _, r := range results {
		switch {
		case errors.Is(r.err, domain.ErrNotFound):
			failed++
			ew.printf("%s: not found\n", r.id)
		case r.err != nil:
			failed++
			ew.printf("%s: failed: %v\n", r.id, r.err)
		case r.changed:
			changed++
			ew.printf("%s: %s\n", r.id, verb)
		default:
			unchanged++
			ew.printf("%s: already %s\n", r.id, verb)
		}
	}
	ew.printf("%s %d, unchanged %d, failed %d\n", verb, changed, unchanged, failed)
	return failed, ew.err
}
