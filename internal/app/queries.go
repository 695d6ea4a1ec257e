package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"flexliving_reviews/internal/adapters/observability"
	"flexliving_reviews/internal/domain"
)

const (
	reviewsKeyPrefix = "reviews:"
	propertiesKey    = "properties:all"
)

type QueryService struct {
	api      domain.ReviewsAPI
	cache    domain.Cache // optional
	cacheTTL time.Duration
	now      func() time.Time
}

func NewQueryService(api domain.ReviewsAPI, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{api: api, cache: c, cacheTTL: ttl, now: time.Now}
}

func reviewsKey(q domain.ReviewsQuery) string {
	return fmt.Sprintf("%s%s|%s|%s", reviewsKeyPrefix, q.Property, q.Sort, q.Rating)
}

// ListReviews fetches reviews from the backend, read-through cached.
func (s *QueryService) ListReviews(ctx context.Context, q domain.ReviewsQuery) ([]domain.Review, error) {
	key := reviewsKey(q)
	var out []domain.Review
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &out); ok {
			return out, nil
		}
	}

	rs, err := s.api.GetReviews(ctx, q)
	if err != nil {
		return nil, err
	}
	if s.cache != nil && s.cacheTTL > 0 {
		if err := s.cache.Set(ctx, key, rs, int(s.cacheTTL.Seconds())); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cache set failed")
		}
	}
	return rs, nil
}

func (s *QueryService) ListProperties(ctx context.Context) ([]domain.Property, error) {
	var out []domain.Property
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, propertiesKey, &out); ok {
			return out, nil
		}
	}

	ps, err := s.api.GetProperties(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil && s.cacheTTL > 0 {
		if err := s.cache.Set(ctx, propertiesKey, ps, int(s.cacheTTL.Seconds())); err != nil {
			log.Warn().Err(err).Str("key", propertiesKey).Msg("cache set failed")
		}
	}
	return ps, nil
}

// Load fills st with the full review list. A failed fetch is logged and
// leaves st loaded with an empty list; the dashboard never shows the error.
func (s *QueryService) Load(ctx context.Context, st *Store) int {
	rs, err := s.ListReviews(ctx, domain.ReviewsQuery{})
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch reviews")
		observability.ObserveDegraded("reviews")
		rs = []domain.Review{}
	}
	st.Load(rs, s.now())
	return len(rs)
}

// Property looks a property up by exact name. Fetch failures degrade to an
// empty property list, so both cases surface as domain.ErrNotFound.
func (s *QueryService) Property(ctx context.Context, name string) (domain.Property, error) {
	ps, err := s.ListProperties(ctx)
	if err != nil {
		log.Error().Err(err).Str("property", name).Msg("failed to fetch properties")
		observability.ObserveDegraded("properties")
		ps = nil
	}
	for _, p := range ps {
		if p.Name == name {
			return p, nil
		}
	}
	return domain.Property{}, domain.ErrNotFound
}
