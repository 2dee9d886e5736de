// Package storage is the persistence collaborator the engines read
// through. It exposes a Store interface with a SQLite implementation
// for production and an in-memory one for tests and local development.
package storage

import (
	"context"
	"errors"

	"bossika/internal/core"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store is the full persistence contract. Its read side doubles as the
// query capability the ledger engine consumes (LatestCashFlowBefore).
type Store interface {
	CreateBusiness(ctx context.Context, b *core.BusinessProfile) error
	GetBusiness(ctx context.Context, id int64) (core.BusinessProfile, error)
	ListBusinesses(ctx context.Context) ([]core.BusinessProfile, error)

	CreateCashFlow(ctx context.Context, cf *core.CashFlow) error
	ListCashFlows(ctx context.Context, businessID int64) ([]core.CashFlow, error)
	// LatestCashFlowBefore returns the record with the greatest
	// (date_recorded, id) strictly before the given date for the
	// business, nil when none exists. Null-dated records are skipped.
	LatestCashFlowBefore(ctx context.Context, businessID int64, before core.Date) (*core.CashFlow, error)
	// RecomputeBalances rebuilds every dated record's balance for the
	// business in (date_recorded, id) order, atomically. Returns the
	// number of records updated. Null-dated records are left untouched.
	RecomputeBalances(ctx context.Context, businessID int64) (int, error)

	CreateLoan(ctx context.Context, l *core.BusinessLoan) error
	GetLoan(ctx context.Context, id int64) (core.BusinessLoan, error)
	ListLoans(ctx context.Context, businessID int64) ([]core.BusinessLoan, error)
	ListPendingLoans(ctx context.Context) ([]core.BusinessLoan, error)
	UpdateLoanStatus(ctx context.Context, loanID int64, status core.LoanStatus) error

	CreateRepayment(ctx context.Context, r *core.LoanRepayment) error
	GetRepayment(ctx context.Context, id int64) (core.LoanRepayment, error)
	UpdateRepayment(ctx context.Context, r *core.LoanRepayment) error
	ListRepayments(ctx context.Context, loanID int64) ([]core.LoanRepayment, error)

	Close() error
}
