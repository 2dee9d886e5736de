package worker

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"bossika/internal/amqp"
	"bossika/internal/core"
	"bossika/internal/storage"
)

func money(t *testing.T, s string) core.Money {
	t.Helper()
	m, err := core.ParseMoney(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return m
}

func setupLoan(t *testing.T, store storage.Store, rate string, repaid ...string) core.BusinessLoan {
	t.Helper()
	ctx := context.Background()

	b := core.BusinessProfile{Name: "Shop", Type: core.BusinessRetail, Size: core.SizeMicro, OperationPeriod: decimal.NewFromInt(1)}
	if err := store.CreateBusiness(ctx, &b); err != nil {
		t.Fatalf("create business: %v", err)
	}

	l := core.BusinessLoan{
		BusinessID: b.ID,
		Lender:     "Bank",
		Principal:  money(t, "1000"),
		LoanPeriod: decimal.NewFromInt(1),
		Status:     core.LoanPending,
	}
	if rate != "" {
		d := decimal.RequireFromString(rate)
		l.InterestRate = &d
	}
	if err := store.CreateLoan(ctx, &l); err != nil {
		t.Fatalf("create loan: %v", err)
	}

	for _, amount := range repaid {
		r := core.LoanRepayment{LoanID: l.ID, AmountPaid: money(t, amount)}
		if err := store.CreateRepayment(ctx, &r); err != nil {
			t.Fatalf("create repayment: %v", err)
		}
	}
	return l
}

func TestHandleEventMarksLoanPaid(t *testing.T) {
	store := storage.NewMemoryStore()
	w := NewLoanStatusWorker(store)
	loan := setupLoan(t, store, "0.1", "600", "500") // total 1100, fully repaid
	ctx := context.Background()

	if err := w.HandleEvent(ctx, amqp.NewRepaymentRecorded(2, loan.ID)); err != nil {
		t.Fatalf("handle event: %v", err)
	}

	got, err := store.GetLoan(ctx, loan.ID)
	if err != nil {
		t.Fatalf("get loan: %v", err)
	}
	if got.Status != core.LoanPaid {
		t.Fatalf("expected PAID, got %s", got.Status)
	}
}

func TestHandleEventLeavesPartiallyRepaidPending(t *testing.T) {
	store := storage.NewMemoryStore()
	w := NewLoanStatusWorker(store)
	loan := setupLoan(t, store, "0.1", "600")
	ctx := context.Background()

	if err := w.HandleEvent(ctx, amqp.NewRepaymentRecorded(1, loan.ID)); err != nil {
		t.Fatalf("handle event: %v", err)
	}

	got, _ := store.GetLoan(ctx, loan.ID)
	if got.Status != core.LoanPending {
		t.Fatalf("expected PENDING, got %s", got.Status)
	}
}

func TestHandleEventIgnoresCashFlowAndUnknown(t *testing.T) {
	store := storage.NewMemoryStore()
	w := NewLoanStatusWorker(store)
	ctx := context.Background()

	if err := w.HandleEvent(ctx, amqp.NewCashFlowRecorded(1, 1)); err != nil {
		t.Fatalf("cashflow event must be a no-op: %v", err)
	}
	if err := w.HandleEvent(ctx, &amqp.Event{Type: "something.else"}); err != nil {
		t.Fatalf("unknown event must be a no-op: %v", err)
	}
	// A repayment event for a deleted loan acks instead of requeueing forever.
	if err := w.HandleEvent(ctx, amqp.NewRepaymentRecorded(1, 9999)); err != nil {
		t.Fatalf("missing loan must not error: %v", err)
	}
}

func TestHandleEventNoRateLoanSkipped(t *testing.T) {
	store := storage.NewMemoryStore()
	w := NewLoanStatusWorker(store)
	loan := setupLoan(t, store, "")
	ctx := context.Background()

	if err := w.HandleEvent(ctx, amqp.NewRepaymentRecorded(1, loan.ID)); err != nil {
		t.Fatalf("no-rate loan must be skipped, got %v", err)
	}
	got, _ := store.GetLoan(ctx, loan.ID)
	if got.Status != core.LoanPending {
		t.Fatalf("status must be untouched, got %s", got.Status)
	}
}

func TestReconcilePendingLoans(t *testing.T) {
	store := storage.NewMemoryStore()
	w := NewLoanStatusWorker(store)
	paidOff := setupLoan(t, store, "0.1", "1100")
	open := setupLoan(t, store, "0.1", "100")
	ctx := context.Background()

	if err := w.ReconcilePendingLoans(ctx); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	got, _ := store.GetLoan(ctx, paidOff.ID)
	if got.Status != core.LoanPaid {
		t.Fatalf("paid-off loan: expected PAID, got %s", got.Status)
	}
	got, _ = store.GetLoan(ctx, open.ID)
	if got.Status != core.LoanPending {
		t.Fatalf("open loan: expected PENDING, got %s", got.Status)
	}
}
