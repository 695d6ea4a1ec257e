package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"flexliving_reviews/internal/analytics"
	"flexliving_reviews/internal/domain"
)

type listFlags struct {
	property string
	rating   string
	sort     string
	json     bool
}

func (r *runner) reviewsCmd() *cobra.Command {
	var f listFlags
	cmd := &cobra.Command{
		Use:   "reviews",
		Short: "List reviews, filtered and sorted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := criteria(f)
			if err != nil {
				return err // usage error
			}
			return r.withDeps(cmd, func(ctx context.Context, d *deps) error {
				all, err := d.q.ListReviews(ctx, domain.ReviewsQuery{Property: f.property, Sort: string(c.Sort), Rating: f.rating})
				if err != nil {
					return fmt.Errorf("fetch reviews: %w", err)
				}
				// the backend may ignore the query, so apply it here too
				rs := analytics.Filter(all, c)
				if f.json {
					return writeJSON(cmd.OutOrStdout(), map[string]any{"reviews": rs})
				}
				return writeReviews(cmd.OutOrStdout(), rs)
			})
		},
	}
	cmd.Flags().StringVar(&f.property, "property", "", "only reviews whose property name contains this (case-insensitive)")
	cmd.Flags().StringVar(&f.rating, "rating", "", "minimum overall rating")
	cmd.Flags().StringVar(&f.sort, "sort", "date", "sort order: date or rating")
	cmd.Flags().BoolVar(&f.json, "json", false, "emit JSON")
	return cmd
}

func criteria(f listFlags) (analytics.Criteria, error) {
	sortKey, err := analytics.ParseSortKey(f.sort)
	if err != nil {
		return analytics.Criteria{}, err
	}
	minRating, err := analytics.ParseMinRating(f.rating)
	if err != nil {
		return analytics.Criteria{}, err
	}
	return analytics.Criteria{Property: f.property, MinRating: minRating, Sort: sortKey}, nil
}

func (r *runner) statsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Per-property review counts, averages and approvals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withDeps(cmd, func(ctx context.Context, d *deps) error {
				all, err := d.q.ListReviews(ctx, domain.ReviewsQuery{})
				if err != nil {
					return fmt.Errorf("fetch reviews: %w", err)
				}
				stats := analytics.PropertyStats(all)
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), map[string]any{"properties": stats})
				}
				return writeStats(cmd.OutOrStdout(), stats)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON")
	return cmd
}

func (r *runner) trendsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "trends",
		Short: "Category performance, recurring issues and the 30-day trend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withDeps(cmd, func(ctx context.Context, d *deps) error {
				all, err := d.q.ListReviews(ctx, domain.ReviewsQuery{})
				if err != nil {
					return fmt.Errorf("fetch reviews: %w", err)
				}
				rep := analytics.Trends(all, time.Now())
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), rep)
				}
				return writeTrends(cmd.OutOrStdout(), rep)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON")
	return cmd
}

func (r *runner) propertyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "property NAME",
		Short: "Show a property with its approved reviews",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withDeps(cmd, func(ctx context.Context, d *deps) error {
				p, err := d.q.Property(ctx, args[0])
				if errors.Is(err, domain.ErrNotFound) {
					return fmt.Errorf("property %q not found", args[0])
				}
				if err != nil {
					return err
				}
				return writeProperty(cmd.OutOrStdout(), p)
			})
		},
	}
}

func (r *runner) historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history REVIEW_ID",
		Short: "Show recorded approval changes for a review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withDeps(cmd, func(ctx context.Context, d *deps) error {
				events, err := d.m.History(ctx, args[0], limit)
				if err != nil {
					return fmt.Errorf("approval history: %w", err)
				}
				return writeHistory(cmd.OutOrStdout(), args[0], events)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of events")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
