package domain

import (
	"context"
	"time"
)

// ReviewsAPI is the backend contract the dashboard consumes.
type ReviewsAPI interface {
	GetReviews(ctx context.Context, q ReviewsQuery) ([]Review, error)
	SetApproval(ctx context.Context, reviewID string, approved bool) error
	GetProperties(ctx context.Context) ([]Property, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
	DelPrefix(ctx context.Context, prefix string) error
}

// AuditLog records moderation decisions. Best-effort; never blocks a toggle.
type AuditLog interface {
	RecordApproval(ctx context.Context, e ApprovalEvent) error
	ListApprovals(ctx context.Context, reviewID string, limit int) ([]ApprovalEvent, error)
}

// ReviewsQuery mirrors the backend's optional query parameters.
// Zero values mean "no filter".
type ReviewsQuery struct {
	Property string
	Sort     string
	Rating   string
}

type ApprovalEvent struct {
	ReviewID   string
	Approved   bool
	Outcome    string // ok|reverted
	Detail     string
	RecordedAt time.Time
}
