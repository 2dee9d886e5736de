package ledger

import (
	"context"
	"errors"
	"testing"

	"bossika/internal/core"
)

// fakeQuerier serves canned records sorted the way storage would:
// latest (date, id) strictly before the requested date wins.
type fakeQuerier struct {
	records []core.CashFlow
	err     error
}

func (f *fakeQuerier) LatestCashFlowBefore(_ context.Context, businessID int64, before core.Date) (*core.CashFlow, error) {
	if f.err != nil {
		return nil, f.err
	}
	var best *core.CashFlow
	for i := range f.records {
		r := &f.records[i]
		if r.BusinessID != businessID || r.DateRecorded == nil {
			continue
		}
		if !r.DateRecorded.Before(before) {
			continue
		}
		if best == nil ||
			best.DateRecorded.Before(*r.DateRecorded) ||
			(best.DateRecorded.Equal(r.DateRecorded.Time) && r.ID > best.ID) {
			best = r
		}
	}
	return best, nil
}

func datePtr(d core.Date) *core.Date { return &d }

func moneyPtr(m core.Money) *core.Money { return &m }

func money(t *testing.T, s string) core.Money {
	t.Helper()
	m, err := core.ParseMoney(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return m
}

func TestSignedAmount(t *testing.T) {
	cases := []struct {
		typ core.CashFlowType
		out string
	}{
		{core.CashFlowIncome, "100.00"},
		{core.CashFlowLoanInflow, "100.00"},
		{core.CashFlowExpense, "-100.00"},
		{core.CashFlowLoanRepayment, "-100.00"},
	}
	for _, tc := range cases {
		r := core.CashFlow{Type: tc.typ, Amount: core.MoneyFromInt(100)}
		if got := SignedAmount(r).String(); got != tc.out {
			t.Fatalf("%s: expected %s, got %s", tc.typ, tc.out, got)
		}
	}
}

func TestComputeBalanceChaining(t *testing.T) {
	// INCOME 100 < EXPENSE 30 < LOAN_INFLOW 50 => balances 100, 70, 120.
	q := &fakeQuerier{}
	ctx := context.Background()

	entries := []struct {
		date    core.Date
		typ     core.CashFlowType
		amount  int64
		balance string
	}{
		{core.NewDate(2025, 1, 1), core.CashFlowIncome, 100, "100.00"},
		{core.NewDate(2025, 1, 2), core.CashFlowExpense, 30, "70.00"},
		{core.NewDate(2025, 1, 3), core.CashFlowLoanInflow, 50, "120.00"},
	}
	for i, e := range entries {
		rec := core.CashFlow{
			ID:           int64(i + 1),
			BusinessID:   1,
			Type:         e.typ,
			Amount:       core.MoneyFromInt(e.amount),
			DateRecorded: datePtr(e.date),
		}
		bal, err := ComputeBalance(ctx, q, rec)
		if err != nil {
			t.Fatalf("entry %d: %v", i, err)
		}
		if bal.String() != e.balance {
			t.Fatalf("entry %d: expected balance %s, got %s", i, e.balance, bal)
		}
		rec.Balance = moneyPtr(bal)
		q.records = append(q.records, rec)
	}
}

func TestComputeBalanceNoHistory(t *testing.T) {
	q := &fakeQuerier{}
	rec := core.CashFlow{
		BusinessID:   7,
		Type:         core.CashFlowExpense,
		Amount:       core.MoneyFromInt(30),
		DateRecorded: datePtr(core.NewDate(2025, 3, 1)),
	}
	bal, err := ComputeBalance(context.Background(), q, rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bal.String() != "-30.00" {
		t.Fatalf("expected -30.00, got %s", bal)
	}
}

func TestComputeBalancePresetNotRecomputed(t *testing.T) {
	q := &fakeQuerier{records: []core.CashFlow{{
		ID:           1,
		BusinessID:   1,
		Type:         core.CashFlowIncome,
		Amount:       core.MoneyFromInt(500),
		Balance:      moneyPtr(core.MoneyFromInt(500)),
		DateRecorded: datePtr(core.NewDate(2025, 1, 1)),
	}}}

	override := money(t, "42.42")
	rec := core.CashFlow{
		ID:           2,
		BusinessID:   1,
		Type:         core.CashFlowIncome,
		Amount:       core.MoneyFromInt(100),
		Balance:      &override,
		DateRecorded: datePtr(core.NewDate(2025, 1, 2)),
	}
	bal, err := ComputeBalance(context.Background(), q, rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bal.Equal(override) {
		t.Fatalf("preset balance must win: expected %s, got %s", override, bal)
	}
}

func TestComputeBalanceNilDateRejected(t *testing.T) {
	rec := core.CashFlow{BusinessID: 1, Type: core.CashFlowIncome, Amount: core.MoneyFromInt(10)}
	_, err := ComputeBalance(context.Background(), &fakeQuerier{}, rec)
	ve, ok := core.AsValidation(err)
	if !ok {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Field != "date_recorded" {
		t.Fatalf("expected field date_recorded, got %s", ve.Field)
	}
}

func TestComputeBalanceSameDateTieBreak(t *testing.T) {
	// Two records on the same day: the most recently created (highest id)
	// provides the previous balance.
	day := core.NewDate(2025, 1, 12)
	q := &fakeQuerier{records: []core.CashFlow{
		{ID: 1, BusinessID: 1, Type: core.CashFlowIncome, Amount: core.MoneyFromInt(100), Balance: moneyPtr(core.MoneyFromInt(100)), DateRecorded: datePtr(day)},
		{ID: 2, BusinessID: 1, Type: core.CashFlowExpense, Amount: core.MoneyFromInt(40), Balance: moneyPtr(core.MoneyFromInt(60)), DateRecorded: datePtr(day)},
	}}

	rec := core.CashFlow{
		ID:           3,
		BusinessID:   1,
		Type:         core.CashFlowIncome,
		Amount:       core.MoneyFromInt(10),
		DateRecorded: datePtr(core.NewDate(2025, 1, 13)),
	}
	bal, err := ComputeBalance(context.Background(), q, rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bal.String() != "70.00" {
		t.Fatalf("expected 70.00 (60 from id=2 + 10), got %s", bal)
	}
}

func TestComputeBalanceIgnoresOtherBusinesses(t *testing.T) {
	q := &fakeQuerier{records: []core.CashFlow{{
		ID:           1,
		BusinessID:   99,
		Type:         core.CashFlowIncome,
		Amount:       core.MoneyFromInt(1000),
		Balance:      moneyPtr(core.MoneyFromInt(1000)),
		DateRecorded: datePtr(core.NewDate(2025, 1, 1)),
	}}}

	rec := core.CashFlow{
		BusinessID:   1,
		Type:         core.CashFlowIncome,
		Amount:       core.MoneyFromInt(5),
		DateRecorded: datePtr(core.NewDate(2025, 2, 1)),
	}
	bal, err := ComputeBalance(context.Background(), q, rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bal.String() != "5.00" {
		t.Fatalf("expected 5.00, got %s", bal)
	}
}

func TestComputeBalanceQueryError(t *testing.T) {
	boom := errors.New("db gone")
	q := &fakeQuerier{err: boom}
	rec := core.CashFlow{
		BusinessID:   1,
		Type:         core.CashFlowIncome,
		Amount:       core.MoneyFromInt(5),
		DateRecorded: datePtr(core.NewDate(2025, 2, 1)),
	}
	if _, err := ComputeBalance(context.Background(), q, rec); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped query error, got %v", err)
	}
}

func TestNetCashFlow(t *testing.T) {
	if got := NetCashFlow(nil); !got.IsZero() {
		t.Fatalf("empty ledger should net to zero, got %s", got)
	}

	records := []core.CashFlow{
		{Type: core.CashFlowIncome, Amount: core.MoneyFromInt(100)},
		{Type: core.CashFlowExpense, Amount: core.MoneyFromInt(30)},
		{Type: core.CashFlowLoanInflow, Amount: core.MoneyFromInt(50)},
	}
	if got := NetCashFlow(records).String(); got != "120.00" {
		t.Fatalf("expected 120.00, got %s", got)
	}

	// Order independence: reverse yields the same net.
	reversed := []core.CashFlow{records[2], records[1], records[0]}
	if got := NetCashFlow(reversed).String(); got != "120.00" {
		t.Fatalf("expected 120.00 reversed, got %s", got)
	}
}
