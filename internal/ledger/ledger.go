// Package ledger computes running cash-flow balances for a business.
//
// The engine is stateless: it reads prior records through a Querier
// supplied by the persistence layer and returns computed values. Callers
// are responsible for serializing writes per business; two concurrent
// balance computations against the same ledger are a check-then-act race
// the engine cannot detect.
package ledger

import (
	"context"
	"fmt"

	"bossika/internal/core"
)

// Querier is the read capability the engine needs from persistence.
type Querier interface {
	// LatestCashFlowBefore returns the business's record with the
	// greatest (date_recorded, id) strictly earlier-dated than before,
	// or nil when no such record exists. Records without a date never
	// participate in the ordering.
	LatestCashFlowBefore(ctx context.Context, businessID int64, before core.Date) (*core.CashFlow, error)
}

// SignedAmount applies the sign convention: outflows (EXPENSE,
// LOAN_REPAYMENT) are negative, everything else passes through.
func SignedAmount(record core.CashFlow) core.Money {
	switch record.Type {
	case core.CashFlowExpense, core.CashFlowLoanRepayment:
		return record.Amount.Neg()
	default:
		return record.Amount
	}
}

// ComputeBalance returns the running balance for a new record: the
// balance of the latest earlier-dated record plus this record's signed
// amount, starting from zero when no history exists.
//
// A record that already carries a balance is never recomputed; the
// preset value is returned untouched so manual corrections survive.
// A record without a date cannot be ordered against its neighbors and
// is rejected rather than silently given a wrong balance.
func ComputeBalance(ctx context.Context, q Querier, record core.CashFlow) (core.Money, error) {
	if record.Balance != nil {
		return *record.Balance, nil
	}
	if record.DateRecorded == nil {
		return core.Money{}, core.NewValidationError("date_recorded", "date is required to compute a balance")
	}

	previous, err := q.LatestCashFlowBefore(ctx, record.BusinessID, *record.DateRecorded)
	if err != nil {
		return core.Money{}, fmt.Errorf("query previous record: %w", err)
	}

	var prevBalance core.Money
	if previous != nil && previous.Balance != nil {
		prevBalance = *previous.Balance
	}

	return prevBalance.Add(SignedAmount(record)), nil
}

// NetCashFlow sums signed amounts over a business's records. The result
// does not depend on ordering; an empty ledger nets to zero.
func NetCashFlow(records []core.CashFlow) core.Money {
	var total core.Money
	for _, r := range records {
		total = total.Add(SignedAmount(r))
	}
	return total
}
