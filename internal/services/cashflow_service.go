package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"bossika/internal/amqp"
	"bossika/internal/core"
	"bossika/internal/ledger"
	"bossika/internal/storage"
)

// CashFlowService records ledger entries. Balance computation and the
// insert are serialized per business so concurrent writes cannot chain
// off a stale previous balance.
type CashFlowService struct {
	store     storage.Store
	publisher EventPublisher
	locks     *keyedLocks
}

func NewCashFlowService(store storage.Store, publisher EventPublisher) *CashFlowService {
	return &CashFlowService{
		store:     store,
		publisher: publisher,
		locks:     newKeyedLocks(),
	}
}

// Create computes the record's running balance and persists it. A
// record arriving with a preset balance keeps it (manual override); a
// record with neither balance nor date is rejected by the engine.
func (s *CashFlowService) Create(ctx context.Context, cf *core.CashFlow) error {
	if cf.BusinessID == 0 {
		return core.NewValidationError("business", "business reference is required")
	}
	if err := cf.Validate(); err != nil {
		return err
	}
	if _, err := s.store.GetBusiness(ctx, cf.BusinessID); err != nil {
		return err
	}

	unlock := s.locks.Lock(businessKey(cf.BusinessID))
	defer unlock()

	balance, err := ledger.ComputeBalance(ctx, s.store, *cf)
	if err != nil {
		return err
	}
	cf.Balance = &balance

	if err := s.store.CreateCashFlow(ctx, cf); err != nil {
		return fmt.Errorf("save cashflow: %w", err)
	}

	s.publish(ctx, amqp.NewCashFlowRecorded(cf.ID, cf.BusinessID))

	slog.InfoContext(ctx, "Cash flow recorded",
		"id", cf.ID,
		"business_id", cf.BusinessID,
		"type", cf.Type,
		"amount", cf.Amount.String(),
		"balance", balance.String())
	return nil
}

func (s *CashFlowService) List(ctx context.Context, businessID int64) ([]core.CashFlow, error) {
	if _, err := s.store.GetBusiness(ctx, businessID); err != nil {
		return nil, err
	}
	return s.store.ListCashFlows(ctx, businessID)
}

// Recompute rebuilds the business's whole balance chain. A backdated
// insert does not cascade on its own; this is the explicit repair for
// operators who backdate.
func (s *CashFlowService) Recompute(ctx context.Context, businessID int64) (int, error) {
	if _, err := s.store.GetBusiness(ctx, businessID); err != nil {
		return 0, err
	}

	unlock := s.locks.Lock(businessKey(businessID))
	defer unlock()

	n, err := s.store.RecomputeBalances(ctx, businessID)
	if err != nil {
		return 0, fmt.Errorf("recompute balances: %w", err)
	}

	slog.InfoContext(ctx, "Balances recomputed", "business_id", businessID, "records", n)
	return n, nil
}

func (s *CashFlowService) publish(ctx context.Context, event *amqp.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishEvent(ctx, event); err != nil {
		// The record is already saved; the event stream is best effort.
		slog.ErrorContext(ctx, "Failed to publish event",
			"type", event.Type,
			"id", event.ID,
			"error", err)
	}
}

func businessKey(id int64) string {
	return "business:" + strconv.FormatInt(id, 10)
}
