package cli

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/semaphore"

	"flexliving_reviews/internal/analytics"
	"flexliving_reviews/internal/app"
	"flexliving_reviews/internal/domain"
)

type approveFlags struct {
	revoke    bool
	property  string
	minRating string
}

type approveResult struct {
	id      string
	changed bool
	err     error
}

func (r *runner) approveCmd() *cobra.Command {
	var f approveFlags
	cmd := &cobra.Command{
		Use:   "approve [REVIEW_ID...]",
		Short: "Approve (or with --revoke, unapprove) reviews",
		Long: "Approve the given reviews, or every review matching --property and --min-rating.\n" +
			"Reviews already in the requested state are left untouched.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && f.property == "" && f.minRating == "" {
				return errors.New("give review ids or a --property / --min-rating selection")
			}
			minRating, err := analytics.ParseMinRating(f.minRating)
			if err != nil {
				return err
			}
			return r.withDeps(cmd, func(ctx context.Context, d *deps) error {
				all, err := d.q.ListReviews(ctx, domain.ReviewsQuery{})
				if err != nil {
					return fmt.Errorf("fetch reviews: %w", err)
				}
				st := app.NewStore()
				st.Load(all, time.Now())

				ids := args
				if len(ids) == 0 {
					for _, rv := range analytics.Filter(all, analytics.Criteria{Property: f.property, MinRating: minRating}) {
						ids = append(ids, rv.ID)
					}
				}
				results, err := bulkSet(ctx, d, st, uniqueIDs(ids), !f.revoke)
				if err != nil {
					return err
				}
				failed, werr := writeApprovals(cmd.OutOrStdout(), results, !f.revoke)
				if failed > 0 {
					r.exit = ExitPartial
				}
				return werr
			})
		},
	}
	cmd.Flags().BoolVar(&f.revoke, "revoke", false, "unapprove instead of approve")
	cmd.Flags().StringVar(&f.property, "property", "", "select reviews of this property")
	cmd.Flags().StringVar(&f.minRating, "min-rating", "", "select reviews rated at least this")
	return cmd
}

// uniqueIDs drops repeated ids, keeping first occurrences in order.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// bulkSet applies the approval to ids with at most d.workers backend calls
// in flight. Results keep the order of ids.
func bulkSet(ctx context.Context, d *deps, st *app.Store, ids []string, approved bool) ([]approveResult, error) {
	workers := d.workers
	if workers <= 0 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))
	results := make([]approveResult, len(ids))
	var wg sync.WaitGroup

	for i, id := range ids {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return nil, fmt.Errorf("semaphore acquire: %w", err)
		}

		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			defer sem.Release(1)

			changed, err := d.m.Set(ctx, st, id, approved)
			if err != nil {
				log.Warn().Str("review_id", id).Err(err).Msg("approval failed")
			}
			results[i] = approveResult{id: id, changed: changed, err: err}
		}(i, id)
	}

	wg.Wait()
	return results, nil
}
