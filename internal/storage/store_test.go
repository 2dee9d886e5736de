package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"bossika/internal/core"
)

// Both implementations must agree on Store semantics, so every case
// runs against each.
func withStores(t *testing.T, fn func(t *testing.T, store Store)) {
	t.Helper()

	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemoryStore())
	})

	t.Run("sqlite", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "bossika_test.db")
		store, err := NewSQLiteStore(dbPath)
		if err != nil {
			t.Fatalf("open sqlite store: %v", err)
		}
		t.Cleanup(func() { store.Close() })
		fn(t, store)
	})
}

func money(t *testing.T, s string) core.Money {
	t.Helper()
	m, err := core.ParseMoney(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return m
}

func seedBusiness(t *testing.T, store Store) core.BusinessProfile {
	t.Helper()
	b := core.BusinessProfile{
		Name:            "Test Traders",
		Type:            core.BusinessRetail,
		Size:            core.SizeMicro,
		OperationPeriod: decimal.RequireFromString("1.5"),
	}
	if err := store.CreateBusiness(context.Background(), &b); err != nil {
		t.Fatalf("create business: %v", err)
	}
	if b.ID == 0 {
		t.Fatalf("expected assigned business id")
	}
	return b
}

func TestBusinessRoundTrip(t *testing.T) {
	withStores(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		b := seedBusiness(t, store)

		got, err := store.GetBusiness(ctx, b.ID)
		if err != nil {
			t.Fatalf("get business: %v", err)
		}
		if got.Name != b.Name || got.Type != b.Type || got.Size != b.Size {
			t.Fatalf("round trip mismatch: %+v vs %+v", got, b)
		}
		if !got.OperationPeriod.Equal(b.OperationPeriod) {
			t.Fatalf("operation period mismatch: %s vs %s", got.OperationPeriod, b.OperationPeriod)
		}

		if _, err := store.GetBusiness(ctx, 9999); err != ErrNotFound {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}

		all, err := store.ListBusinesses(ctx)
		if err != nil {
			t.Fatalf("list businesses: %v", err)
		}
		if len(all) != 1 {
			t.Fatalf("expected 1 business, got %d", len(all))
		}
	})
}

func TestCashFlowRoundTripAndOrdering(t *testing.T) {
	withStores(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		b := seedBusiness(t, store)

		d1 := core.NewDate(2025, 1, 10)
		d2 := core.NewDate(2025, 1, 12)
		bal := money(t, "100.00")
		records := []core.CashFlow{
			{BusinessID: b.ID, Type: core.CashFlowIncome, Category: core.CategorySales, Amount: money(t, "100"), Balance: &bal, DateRecorded: &d1},
			{BusinessID: b.ID, Type: core.CashFlowExpense, Amount: money(t, "30"), DateRecorded: &d2},
			{BusinessID: b.ID, Type: core.CashFlowLoanInflow, Amount: money(t, "50")}, // undated
		}
		for i := range records {
			if err := store.CreateCashFlow(ctx, &records[i]); err != nil {
				t.Fatalf("create cashflow %d: %v", i, err)
			}
		}

		listed, err := store.ListCashFlows(ctx, b.ID)
		if err != nil {
			t.Fatalf("list cashflows: %v", err)
		}
		if len(listed) != 3 {
			t.Fatalf("expected 3 records, got %d", len(listed))
		}
		if listed[0].Balance == nil || !listed[0].Balance.Equal(bal) {
			t.Fatalf("stored balance lost: %+v", listed[0])
		}
		if listed[0].Category != core.CategorySales {
			t.Fatalf("expected SALES category, got %q", listed[0].Category)
		}
		if listed[1].Balance != nil {
			t.Fatalf("expected nil balance for uncomputed record")
		}
		if listed[2].DateRecorded != nil {
			t.Fatalf("expected nil date for undated record")
		}

		// Strictly-before lookup: only d1 qualifies before d2.
		prev, err := store.LatestCashFlowBefore(ctx, b.ID, d2)
		if err != nil {
			t.Fatalf("latest before: %v", err)
		}
		if prev == nil || prev.ID != records[0].ID {
			t.Fatalf("expected record %d, got %+v", records[0].ID, prev)
		}

		// Nothing strictly before the earliest date; undated rows never match.
		prev, err = store.LatestCashFlowBefore(ctx, b.ID, d1)
		if err != nil {
			t.Fatalf("latest before earliest: %v", err)
		}
		if prev != nil {
			t.Fatalf("expected nil, got %+v", prev)
		}
	})
}

func TestLatestCashFlowBeforeTieBreak(t *testing.T) {
	withStores(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		b := seedBusiness(t, store)

		day := core.NewDate(2025, 1, 12)
		first := core.CashFlow{BusinessID: b.ID, Type: core.CashFlowIncome, Amount: money(t, "100"), DateRecorded: &day}
		second := core.CashFlow{BusinessID: b.ID, Type: core.CashFlowExpense, Amount: money(t, "40"), DateRecorded: &day}
		if err := store.CreateCashFlow(ctx, &first); err != nil {
			t.Fatalf("create first: %v", err)
		}
		if err := store.CreateCashFlow(ctx, &second); err != nil {
			t.Fatalf("create second: %v", err)
		}

		prev, err := store.LatestCashFlowBefore(ctx, b.ID, core.NewDate(2025, 1, 13))
		if err != nil {
			t.Fatalf("latest before: %v", err)
		}
		if prev == nil || prev.ID != second.ID {
			t.Fatalf("tie must resolve to the most recently created record, got %+v", prev)
		}
	})
}

func TestRecomputeBalances(t *testing.T) {
	withStores(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		b := seedBusiness(t, store)

		d1 := core.NewDate(2025, 1, 1)
		d2 := core.NewDate(2025, 1, 2)
		d3 := core.NewDate(2025, 1, 3)
		records := []core.CashFlow{
			{BusinessID: b.ID, Type: core.CashFlowIncome, Amount: money(t, "100"), DateRecorded: &d1},
			{BusinessID: b.ID, Type: core.CashFlowExpense, Amount: money(t, "30"), DateRecorded: &d2},
			{BusinessID: b.ID, Type: core.CashFlowLoanInflow, Amount: money(t, "50"), DateRecorded: &d3},
			{BusinessID: b.ID, Type: core.CashFlowIncome, Amount: money(t, "999")}, // undated, untouched
		}
		for i := range records {
			if err := store.CreateCashFlow(ctx, &records[i]); err != nil {
				t.Fatalf("create cashflow %d: %v", i, err)
			}
		}

		n, err := store.RecomputeBalances(ctx, b.ID)
		if err != nil {
			t.Fatalf("recompute: %v", err)
		}
		if n != 3 {
			t.Fatalf("expected 3 records recomputed, got %d", n)
		}

		listed, err := store.ListCashFlows(ctx, b.ID)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		want := map[int64]string{
			records[0].ID: "100.00",
			records[1].ID: "70.00",
			records[2].ID: "120.00",
		}
		for _, cf := range listed {
			expected, dated := want[cf.ID]
			if !dated {
				if cf.Balance != nil {
					t.Fatalf("undated record must keep nil balance, got %s", cf.Balance)
				}
				continue
			}
			if cf.Balance == nil || cf.Balance.String() != expected {
				t.Fatalf("record %d: expected balance %s, got %v", cf.ID, expected, cf.Balance)
			}
		}
	})
}

func TestLoanRoundTrip(t *testing.T) {
	withStores(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		b := seedBusiness(t, store)

		rate := decimal.RequireFromString("0.1")
		loan := core.BusinessLoan{
			BusinessID:   b.ID,
			Lender:       "Equity Bank",
			Reason:       "stock purchase",
			Category:     core.LoanInventory,
			Principal:    money(t, "1000"),
			InterestRate: &rate,
			LoanPeriod:   decimal.RequireFromString("1.5"),
		}
		if err := store.CreateLoan(ctx, &loan); err != nil {
			t.Fatalf("create loan: %v", err)
		}

		got, err := store.GetLoan(ctx, loan.ID)
		if err != nil {
			t.Fatalf("get loan: %v", err)
		}
		if got.Status != core.LoanPending {
			t.Fatalf("expected default PENDING status, got %s", got.Status)
		}
		if got.InterestRate == nil || !got.InterestRate.Equal(rate) {
			t.Fatalf("interest rate mismatch: %v", got.InterestRate)
		}
		if !got.LoanPeriod.Equal(loan.LoanPeriod) {
			t.Fatalf("loan period mismatch: %s", got.LoanPeriod)
		}

		// A loan without a rate must come back with a nil rate, not zero.
		noRate := core.BusinessLoan{BusinessID: b.ID, Lender: "Uncle", Principal: money(t, "200"), LoanPeriod: decimal.NewFromInt(1)}
		if err := store.CreateLoan(ctx, &noRate); err != nil {
			t.Fatalf("create no-rate loan: %v", err)
		}
		got, err = store.GetLoan(ctx, noRate.ID)
		if err != nil {
			t.Fatalf("get no-rate loan: %v", err)
		}
		if got.InterestRate != nil {
			t.Fatalf("expected nil interest rate, got %s", got.InterestRate)
		}

		pending, err := store.ListPendingLoans(ctx)
		if err != nil {
			t.Fatalf("list pending: %v", err)
		}
		if len(pending) != 2 {
			t.Fatalf("expected 2 pending loans, got %d", len(pending))
		}

		if err := store.UpdateLoanStatus(ctx, loan.ID, core.LoanPaid); err != nil {
			t.Fatalf("update status: %v", err)
		}
		pending, err = store.ListPendingLoans(ctx)
		if err != nil {
			t.Fatalf("list pending after update: %v", err)
		}
		if len(pending) != 1 {
			t.Fatalf("expected 1 pending loan, got %d", len(pending))
		}

		if err := store.UpdateLoanStatus(ctx, 9999, core.LoanPaid); err != ErrNotFound {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestRepaymentRoundTrip(t *testing.T) {
	withStores(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		b := seedBusiness(t, store)

		loan := core.BusinessLoan{BusinessID: b.ID, Lender: "Bank", Principal: money(t, "1000"), LoanPeriod: decimal.NewFromInt(1)}
		if err := store.CreateLoan(ctx, &loan); err != nil {
			t.Fatalf("create loan: %v", err)
		}

		paid := core.NewDate(2025, 2, 1)
		r := core.LoanRepayment{LoanID: loan.ID, AmountPaid: money(t, "250.50"), DatePaid: &paid}
		if err := store.CreateRepayment(ctx, &r); err != nil {
			t.Fatalf("create repayment: %v", err)
		}

		got, err := store.GetRepayment(ctx, r.ID)
		if err != nil {
			t.Fatalf("get repayment: %v", err)
		}
		if got.AmountPaid.String() != "250.50" {
			t.Fatalf("amount mismatch: %s", got.AmountPaid)
		}
		if got.DatePaid == nil || got.DatePaid.String() != "2025-02-01" {
			t.Fatalf("date mismatch: %v", got.DatePaid)
		}

		got.AmountPaid = money(t, "300")
		if err := store.UpdateRepayment(ctx, &got); err != nil {
			t.Fatalf("update repayment: %v", err)
		}
		listed, err := store.ListRepayments(ctx, loan.ID)
		if err != nil {
			t.Fatalf("list repayments: %v", err)
		}
		if len(listed) != 1 || listed[0].AmountPaid.String() != "300.00" {
			t.Fatalf("update not visible: %+v", listed)
		}

		missing := core.LoanRepayment{ID: 9999, LoanID: loan.ID, AmountPaid: money(t, "1")}
		if err := store.UpdateRepayment(ctx, &missing); err != ErrNotFound {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestSeed(t *testing.T) {
	withStores(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		if err := Seed(ctx, store); err != nil {
			t.Fatalf("seed: %v", err)
		}

		businesses, err := store.ListBusinesses(ctx)
		if err != nil {
			t.Fatalf("list businesses: %v", err)
		}
		if len(businesses) != 1 {
			t.Fatalf("expected 1 seeded business, got %d", len(businesses))
		}

		flows, err := store.ListCashFlows(ctx, businesses[0].ID)
		if err != nil {
			t.Fatalf("list cashflows: %v", err)
		}
		if len(flows) != 3 {
			t.Fatalf("expected 3 seeded cashflows, got %d", len(flows))
		}
		// 6000 income, 2000 expense, 1000 inflow on the same day chain to 5000.
		last := flows[len(flows)-1]
		if last.Balance == nil || last.Balance.String() != "5000.00" {
			t.Fatalf("expected final balance 5000.00, got %v", last.Balance)
		}

		// Seeding twice must not duplicate.
		if err := Seed(ctx, store); err != nil {
			t.Fatalf("second seed: %v", err)
		}
		businesses, _ = store.ListBusinesses(ctx)
		if len(businesses) != 1 {
			t.Fatalf("seed must be idempotent, got %d businesses", len(businesses))
		}
	})
}
