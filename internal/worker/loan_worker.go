// Package worker keeps loan statuses in step with their repayments by
// consuming repayment events, with a periodic sweep as a backstop for
// lost messages.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"bossika/internal/amqp"
	"bossika/internal/core"
	"bossika/internal/loans"
	"bossika/internal/storage"
)

// LoanStatusWorker re-derives loan status from the outstanding balance.
type LoanStatusWorker struct {
	store storage.Store
}

func NewLoanStatusWorker(store storage.Store) *LoanStatusWorker {
	return &LoanStatusWorker{store: store}
}

// HandleEvent processes one event from the queue. Cash-flow events need
// no action here; repayment events trigger a status check for the loan.
func (w *LoanStatusWorker) HandleEvent(ctx context.Context, event *amqp.Event) error {
	switch event.Type {
	case amqp.EventRepaymentRecorded:
		return w.reconcileLoan(ctx, event.LoanID)
	case amqp.EventCashFlowRecorded:
		return nil
	default:
		slog.WarnContext(ctx, "Ignoring unknown event type", "type", event.Type)
		return nil
	}
}

// ReconcilePendingLoans sweeps every PENDING loan. This is the backup
// path for events lost between the API process and the broker.
func (w *LoanStatusWorker) ReconcilePendingLoans(ctx context.Context) error {
	pending, err := w.store.ListPendingLoans(ctx)
	if err != nil {
		return fmt.Errorf("list pending loans: %w", err)
	}

	for _, loan := range pending {
		if err := w.reconcileLoan(ctx, loan.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to reconcile loan", "loan_id", loan.ID, "error", err)
		}
	}

	slog.InfoContext(ctx, "Reconcile sweep complete", "pending_loans", len(pending))
	return nil
}

func (w *LoanStatusWorker) reconcileLoan(ctx context.Context, loanID int64) error {
	loan, err := w.store.GetLoan(ctx, loanID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// The loan was deleted after the event was queued.
			slog.WarnContext(ctx, "Loan gone, skipping", "loan_id", loanID)
			return nil
		}
		return fmt.Errorf("get loan %d: %w", loanID, err)
	}

	repayments, err := w.store.ListRepayments(ctx, loanID)
	if err != nil {
		return fmt.Errorf("list repayments for loan %d: %w", loanID, err)
	}

	outstanding, err := loans.OutstandingBalance(loan, repayments)
	if err != nil {
		if errors.Is(err, core.ErrNoInterestRate) {
			// Status cannot be derived without a computable total.
			return nil
		}
		return fmt.Errorf("outstanding for loan %d: %w", loanID, err)
	}

	want := core.LoanPending
	if outstanding.IsZero() {
		want = core.LoanPaid
	}
	if want == loan.Status {
		return nil
	}

	if err := w.store.UpdateLoanStatus(ctx, loanID, want); err != nil {
		return fmt.Errorf("update status for loan %d: %w", loanID, err)
	}

	slog.InfoContext(ctx, "Loan status reconciled",
		"loan_id", loanID,
		"status", want,
		"outstanding", outstanding.String())
	return nil
}
