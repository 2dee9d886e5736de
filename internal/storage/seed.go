package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"bossika/internal/core"
)

// Seed inserts a demo business with a few cash flows and a loan so a
// fresh database has something to look at. It is a no-op when any
// business already exists.
func Seed(ctx context.Context, store Store) error {
	existing, err := store.ListBusinesses(ctx)
	if err != nil {
		return fmt.Errorf("check existing businesses: %w", err)
	}
	if len(existing) > 0 {
		slog.InfoContext(ctx, "Seed skipped, businesses already present", "count", len(existing))
		return nil
	}

	business := core.BusinessProfile{
		Name:            "Bossika's First Business",
		Type:            core.BusinessService,
		Size:            core.SizeMicro,
		OperationPeriod: decimal.NewFromInt(1),
	}
	if err := store.CreateBusiness(ctx, &business); err != nil {
		return fmt.Errorf("seed business: %w", err)
	}

	date := core.NewDate(2025, 1, 12)
	flows := []core.CashFlow{
		{BusinessID: business.ID, Type: core.CashFlowIncome, Category: core.CategorySales, Amount: core.MoneyFromInt(6000), DateRecorded: &date},
		{BusinessID: business.ID, Type: core.CashFlowExpense, Category: core.CategoryEmployeeSalary, Amount: core.MoneyFromInt(2000), DateRecorded: &date},
		{BusinessID: business.ID, Type: core.CashFlowLoanInflow, Amount: core.MoneyFromInt(1000), DateRecorded: &date},
	}
	for i := range flows {
		if err := store.CreateCashFlow(ctx, &flows[i]); err != nil {
			return fmt.Errorf("seed cashflow %d: %w", i, err)
		}
	}
	// Balances chain through the seed entries in insertion order.
	if _, err := store.RecomputeBalances(ctx, business.ID); err != nil {
		return fmt.Errorf("seed balances: %w", err)
	}

	rate := decimal.RequireFromString("0.1")
	loan := core.BusinessLoan{
		BusinessID:   business.ID,
		Lender:       "Equity Bank",
		Principal:    core.MoneyFromInt(1000),
		InterestRate: &rate,
		LoanPeriod:   decimal.NewFromInt(1),
		Status:       core.LoanPending,
	}
	if err := store.CreateLoan(ctx, &loan); err != nil {
		return fmt.Errorf("seed loan: %w", err)
	}

	slog.InfoContext(ctx, "Seeded demo data",
		"business_id", business.ID,
		"cashflows", len(flows),
		"loan_id", loan.ID)
	return nil
}
