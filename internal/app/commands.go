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
	OutcomeOK       = "ok"
	OutcomeReverted = "reverted"
)

// ModerationService applies approval changes: locally first, then on the
// backend. A rejected backend call reverts the local flag.
type ModerationService struct {
	api   domain.ReviewsAPI
	cache domain.Cache    // optional
	audit domain.AuditLog // optional
	now   func() time.Time
}

func NewModerationService(api domain.ReviewsAPI, c domain.Cache, a domain.AuditLog) *ModerationService {
	return &ModerationService{api: api, cache: c, audit: a, now: time.Now}
}

// Toggle flips the approval of review id in st and returns the new value.
// On backend failure the store is restored and the error returned.
func (s *ModerationService) Toggle(ctx context.Context, st *Store, id string) (bool, error) {
	next, err := st.Toggle(id)
	if err != nil {
		return false, err
	}
	if err := s.commit(ctx, st, id, next, !next); err != nil {
		return !next, err
	}
	return next, nil
}

// Set moves review id to the given state. It reports false without
// calling the backend when the review is already in that state.
func (s *ModerationService) Set(ctx context.Context, st *Store, id string, approved bool) (bool, error) {
	prev, err := st.SetApproval(id, approved)
	if err != nil {
		return false, err
	}
	if prev == approved {
		return false, nil
	}
	if err := s.commit(ctx, st, id, approved, prev); err != nil {
		return false, err
	}
	return true, nil
}

func (s *ModerationService) commit(ctx context.Context, st *Store, id string, next, prev bool) error {
	if err := s.api.SetApproval(ctx, id, next); err != nil {
		// rollback; id exists since the local apply succeeded
		_, _ = st.SetApproval(id, prev)
		log.Warn().Err(err).Str("review_id", id).Bool("approved", next).Msg("approval rejected, reverted")
		observability.ObserveApproval(next, OutcomeReverted)
		s.record(ctx, id, next, OutcomeReverted, err.Error())
		return fmt.Errorf("set approval for %s: %w", id, err)
	}

	observability.ObserveApproval(next, OutcomeOK)
	s.invalidate(ctx)
	s.record(ctx, id, next, OutcomeOK, "")
	log.Info().Str("review_id", id).Bool("approved", next).Msg("approval updated")
	return nil
}

// invalidate drops cached review and property lists so the next load sees
// the new approval state.
func (s *ModerationService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DelPrefix(ctx, reviewsKeyPrefix); err != nil {
		log.Warn().Err(err).Msg("invalidate reviews cache failed")
	}
	if err := s.cache.Del(ctx, propertiesKey); err != nil {
		log.Warn().Err(err).Msg("invalidate properties cache failed")
	}
}

func (s *ModerationService) record(ctx context.Context, id string, approved bool, outcome, detail string) {
	if s.audit == nil {
		return
	}
	e := domain.ApprovalEvent{ReviewID: id, Approved: approved, Outcome: outcome, Detail: detail, RecordedAt: s.now()}
	if err := s.audit.RecordApproval(ctx, e); err != nil {
		log.Error().Err(err).Str("review_id", id).Msg("audit record failed")
	}
}

// History returns the recorded approval changes for a review, newest first.
func (s *ModerationService) History(ctx context.Context, id string, limit int) ([]domain.ApprovalEvent, error) {
	if s.audit == nil {
		return []domain.ApprovalEvent{}, nil
	}
	return s.audit.ListApprovals(ctx, id, limit)
}
