package billing

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jwalitptl/clinic-portal/internal/cachekey"
	"github.com/jwalitptl/clinic-portal/internal/model"
	"github.com/jwalitptl/clinic-portal/internal/repository"
	"github.com/jwalitptl/clinic-portal/pkg/errors"
	"github.com/jwalitptl/clinic-portal/pkg/query"
)

// MaxRange bounds a single summary request.
const MaxRange = 366 * 24 * time.Hour

type Service struct {
	repo    repository.BillingRepository
	queries *query.Client
}

func NewService(repo repository.BillingRepository, queries *query.Client) *Service {
	return &Service{repo: repo, queries: queries}
}

// Summary aggregates revenue from completed appointments in [from, to).
// Both ends are truncated to whole days.
func (s *Service) Summary(ctx context.Context, from, to time.Time) (*model.BillingSummary, error) {
	from, to = day(from), day(to)
	if !to.After(from) {
		return nil, errors.BadRequest("'to' must be after 'from'", nil)
	}
	if to.Sub(from) > MaxRange {
		return nil, errors.BadRequest("date range is limited to one year", nil)
	}

	return query.Fetch(ctx, s.queries, cachekey.Billing(from, to), func(ctx context.Context) (*model.BillingSummary, error) {
		summary := &model.BillingSummary{From: from, To: to}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			summary.ByMonth, err = s.repo.RevenueByMonth(gctx, from, to)
			return err
		})
		g.Go(func() error {
			var err error
			summary.ByProfessional, err = s.repo.RevenueByProfessional(gctx, from, to)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}

		if summary.ByMonth == nil {
			summary.ByMonth = []*model.RevenuePoint{}
		}
		if summary.ByProfessional == nil {
			summary.ByProfessional = []*model.RevenuePoint{}
		}
		for _, p := range summary.ByMonth {
			summary.TotalRevenue += p.Revenue
			summary.Appointments += p.Appointments
		}
		return summary, nil
	})
}

func day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
