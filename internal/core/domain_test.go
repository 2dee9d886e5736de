package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestDateParse(t *testing.T) {
	d, err := ParseDate("2025-01-12")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if d.String() != "2025-01-12" {
		t.Fatalf("expected 2025-01-12, got %s", d)
	}
	if _, err := ParseDate("12/01/2025"); err == nil {
		t.Fatalf("expected error for wrong format")
	}
	if err := (Date{}).Validate(); err == nil {
		t.Fatalf("expected error for zero date")
	}
}

func TestBusinessProfileValidate(t *testing.T) {
	good := BusinessProfile{
		Name:            "Bossika Traders",
		Type:            BusinessRetail,
		Size:            SizeMicro,
		OperationPeriod: decimal.RequireFromString("1.5"),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []BusinessProfile{
		{Type: "SHOP", Size: SizeMicro},
		{Type: BusinessRetail, Size: "huge"},
		{Type: BusinessRetail, Size: SizeMicro, OperationPeriod: decimal.RequireFromString("-1")},
	}
	for i, b := range bads {
		if err := b.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestCashFlowValidate(t *testing.T) {
	date := NewDate(2025, 1, 12)
	good := CashFlow{
		BusinessID:   1,
		Type:         CashFlowIncome,
		Category:     CategorySales,
		Amount:       MoneyFromInt(100),
		DateRecorded: &date,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	// Category is optional, date may be absent at this layer.
	uncategorized := CashFlow{BusinessID: 1, Type: CashFlowLoanInflow, Amount: MoneyFromInt(50)}
	if err := uncategorized.Validate(); err != nil {
		t.Fatalf("expected ok for optional fields, got %v", err)
	}

	bads := []CashFlow{
		{Type: "TRANSFER", Amount: MoneyFromInt(1)},
		{Type: CashFlowIncome, Category: "RENT", Amount: MoneyFromInt(1)},
	}
	for i, c := range bads {
		if err := c.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestBusinessLoanValidate(t *testing.T) {
	rate := decimal.RequireFromString("0.1")
	good := BusinessLoan{
		BusinessID:   1,
		Lender:       "Equity Bank",
		Category:     LoanWorkingCapital,
		Principal:    MoneyFromInt(1000),
		InterestRate: &rate,
		LoanPeriod:   decimal.NewFromInt(1),
		Status:       LoanPending,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	// A nil interest rate is legal; the total simply isn't computable.
	noRate := good
	noRate.InterestRate = nil
	if err := noRate.Validate(); err != nil {
		t.Fatalf("expected ok without rate, got %v", err)
	}

	bads := []BusinessLoan{
		{Lender: "", Status: LoanPending},
		{Lender: "Bank", Status: "OVERDUE"},
		{Lender: "Bank", Status: LoanPending, Category: "PERSONAL"},
		{Lender: "Bank", Status: LoanPending, LoanPeriod: decimal.RequireFromString("-0.5")},
	}
	for i, l := range bads {
		if err := l.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestLoanRepaymentValidate(t *testing.T) {
	good := LoanRepayment{LoanID: 1, AmountPaid: MoneyFromInt(100)}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (LoanRepayment{LoanID: 1}).Validate(); err == nil {
		t.Fatalf("expected error for zero amount")
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("amount_paid", "exceeds remaining balance")
	ve, ok := AsValidation(err)
	if !ok {
		t.Fatalf("expected ValidationError")
	}
	if ve.Field != "amount_paid" {
		t.Fatalf("expected field amount_paid, got %s", ve.Field)
	}
	if err.Error() != "amount_paid: exceeds remaining balance" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
	if _, ok := AsValidation(ErrNoInterestRate); ok {
		t.Fatalf("sentinel must not be a ValidationError")
	}
}
