// Package services orchestrates the engines, storage and event
// publishing. All write paths run their read-modify-write sequence
// under a per-entity lock; the engines themselves are stateless.
package services

import (
	"context"
	"fmt"

	"bossika/internal/amqp"
	"bossika/internal/core"
	"bossika/internal/ledger"
	"bossika/internal/loans"
	"bossika/internal/storage"
)

// EventPublisher is the outbound event hook. A nil publisher disables
// publishing; event failures never fail the write that triggered them.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event *amqp.Event) error
}

// BusinessService manages business profiles and their dashboard summary.
type BusinessService struct {
	store storage.Store
}

func NewBusinessService(store storage.Store) *BusinessService {
	return &BusinessService{store: store}
}

// Create validates and persists a new business profile. Type and size
// default the way the onboarding flow does.
func (s *BusinessService) Create(ctx context.Context, b *core.BusinessProfile) error {
	if b.Type == "" {
		b.Type = core.BusinessService
	}
	if b.Size == "" {
		b.Size = core.SizeMicro
	}
	if err := b.Validate(); err != nil {
		return err
	}
	if err := s.store.CreateBusiness(ctx, b); err != nil {
		return fmt.Errorf("create business: %w", err)
	}
	return nil
}

func (s *BusinessService) Get(ctx context.Context, id int64) (core.BusinessProfile, error) {
	return s.store.GetBusiness(ctx, id)
}

func (s *BusinessService) List(ctx context.Context) ([]core.BusinessProfile, error) {
	return s.store.ListBusinesses(ctx)
}

// Summary aggregates the business's net cash flow and loan position.
// Loans whose total is not computable are counted, never summed as zero.
func (s *BusinessService) Summary(ctx context.Context, businessID int64) (core.DashboardSummary, error) {
	if _, err := s.store.GetBusiness(ctx, businessID); err != nil {
		return core.DashboardSummary{}, err
	}

	records, err := s.store.ListCashFlows(ctx, businessID)
	if err != nil {
		return core.DashboardSummary{}, fmt.Errorf("list cashflows: %w", err)
	}

	summary := core.DashboardSummary{
		BusinessID:  businessID,
		NetCashFlow: ledger.NetCashFlow(records),
		Records:     len(records),
	}
	for _, r := range records {
		signed := ledger.SignedAmount(r)
		if signed.IsNegative() {
			summary.TotalOutflow = summary.TotalOutflow.Add(r.Amount)
		} else {
			summary.TotalInflow = summary.TotalInflow.Add(r.Amount)
		}
	}

	businessLoans, err := s.store.ListLoans(ctx, businessID)
	if err != nil {
		return core.DashboardSummary{}, fmt.Errorf("list loans: %w", err)
	}
	summary.Loans.TotalLoans = len(businessLoans)
	for _, l := range businessLoans {
		if l.Status == core.LoanPending {
			summary.Loans.PendingLoans++
		}
		total, err := loans.TotalAmount(l)
		if err != nil {
			// Not computable without a rate; tracked separately.
			summary.Loans.NotComputable++
			continue
		}
		repayments, err := s.store.ListRepayments(ctx, l.ID)
		if err != nil {
			return core.DashboardSummary{}, fmt.Errorf("list repayments for loan %d: %w", l.ID, err)
		}
		summary.Loans.TotalOwed = summary.Loans.TotalOwed.Add(total)
		summary.Loans.TotalOutstanding = summary.Loans.TotalOutstanding.Add(total.Sub(loans.SumRepaid(repayments)))
	}

	return summary, nil
}
