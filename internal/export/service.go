// Package export feeds finalized feedback records to the export pipeline
// (PDF/email), which this backend treats as an opaque sink. The only real
// logic here is the per-principal rate limit and scope-correct collection.
package export

import (
	"context"
	"log/slog"

	"teampulse/internal/export/ratelimit"
	"teampulse/internal/feedback/models"
	"teampulse/internal/platform/metrics"
	"teampulse/pkg/domain"
	dErrors "teampulse/pkg/domain-errors"
)

// FeedbackLister is the read-only slice of the lifecycle service the exporter
// needs: records come back already scoped to the principal.
type FeedbackLister interface {
	List(ctx context.Context, principal domain.Principal, query models.ListQuery) (*models.Page, error)
}

// Service collects everything the principal may see, in creation order.
type Service struct {
	feedback FeedbackLister
	limiter  *ratelimit.Limiter
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(feedback FeedbackLister, limiter *ratelimit.Limiter, opts ...Option) *Service {
	s := &Service{feedback: feedback, limiter: limiter}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// pageSize matches the store's maximum page size.
const pageSize = 50

// Export returns the full scope-visible record set for the principal, or a
// rate-limited error once the window budget is spent.
func (s *Service) Export(ctx context.Context, principal domain.Principal) ([]*models.Record, error) {
	allowed, err := s.limiter.Allow(ctx, principal.ID.String())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "rate limit check failed")
	}
	if !allowed {
		if s.metrics != nil {
			s.metrics.ExportsDenied.Inc()
		}
		if s.logger != nil {
			s.logger.WarnContext(ctx, "export denied by rate limiter", "principal_id", principal.ID.String())
		}
		return nil, dErrors.New(dErrors.CodeRateLimited, "export limit reached; try again later")
	}

	var records []*models.Record
	for page := 1; ; page++ {
		result, err := s.feedback.List(ctx, principal, models.ListQuery{
			Page:     page,
			Limit:    pageSize,
			SortBy:   models.SortByCreatedAt,
			SortDesc: false,
		})
		if err != nil {
			return nil, err
		}
		records = append(records, result.Items...)
		if len(records) >= result.TotalCount || len(result.Items) == 0 {
			break
		}
	}
	return records, nil
}
