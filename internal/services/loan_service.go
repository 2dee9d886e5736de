package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"bossika/internal/amqp"
	"bossika/internal/core"
	"bossika/internal/loans"
	"bossika/internal/storage"
)

// LoanDetail is a loan together with its derived figures. TotalAmount
// and OutstandingBalance stay nil when the loan has no interest rate,
// which callers must render as "not computable" rather than zero.
type LoanDetail struct {
	core.BusinessLoan
	TotalAmount        *core.Money
	OutstandingBalance *core.Money
	TotalRepaid        core.Money
	Repayments         []core.LoanRepayment
}

// LoanService is the only write path for loans and repayments. Every
// repayment write validates against the outstanding balance inside the
// loan's lock; nothing persists a repayment around that check.
type LoanService struct {
	store     storage.Store
	publisher EventPublisher
	locks     *keyedLocks
}

func NewLoanService(store storage.Store, publisher EventPublisher) *LoanService {
	return &LoanService{
		store:     store,
		publisher: publisher,
		locks:     newKeyedLocks(),
	}
}

func (s *LoanService) CreateLoan(ctx context.Context, l *core.BusinessLoan) error {
	if l.BusinessID == 0 {
		return core.NewValidationError("business", "business reference is required")
	}
	if l.Status == "" {
		l.Status = core.LoanPending
	}
	if err := l.Validate(); err != nil {
		return err
	}
	if _, err := s.store.GetBusiness(ctx, l.BusinessID); err != nil {
		return err
	}
	if err := s.store.CreateLoan(ctx, l); err != nil {
		return fmt.Errorf("create loan: %w", err)
	}
	return nil
}

// GetLoan loads a loan and derives its totals.
func (s *LoanService) GetLoan(ctx context.Context, id int64) (LoanDetail, error) {
	loan, err := s.store.GetLoan(ctx, id)
	if err != nil {
		return LoanDetail{}, err
	}
	repayments, err := s.store.ListRepayments(ctx, id)
	if err != nil {
		return LoanDetail{}, fmt.Errorf("list repayments: %w", err)
	}
	return s.detail(loan, repayments), nil
}

func (s *LoanService) ListLoans(ctx context.Context, businessID int64) ([]LoanDetail, error) {
	if _, err := s.store.GetBusiness(ctx, businessID); err != nil {
		return nil, err
	}
	businessLoans, err := s.store.ListLoans(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	details := make([]LoanDetail, 0, len(businessLoans))
	for _, l := range businessLoans {
		repayments, err := s.store.ListRepayments(ctx, l.ID)
		if err != nil {
			return nil, fmt.Errorf("list repayments for loan %d: %w", l.ID, err)
		}
		details = append(details, s.detail(l, repayments))
	}
	return details, nil
}

func (s *LoanService) detail(loan core.BusinessLoan, repayments []core.LoanRepayment) LoanDetail {
	d := LoanDetail{
		BusinessLoan: loan,
		TotalRepaid:  loans.SumRepaid(repayments),
		Repayments:   repayments,
	}
	if total, err := loans.TotalAmount(loan); err == nil {
		d.TotalAmount = &total
		outstanding := total.Sub(d.TotalRepaid)
		d.OutstandingBalance = &outstanding
	}
	return d
}

// CreateRepayment validates a new repayment against the loan's
// remaining balance and persists it. The loan flips to PAID when the
// outstanding balance reaches zero.
func (s *LoanService) CreateRepayment(ctx context.Context, r *core.LoanRepayment) error {
	if err := requireRepaymentFields(r); err != nil {
		return err
	}
	if err := r.Validate(); err != nil {
		return err
	}

	unlock := s.locks.Lock(loanKey(r.LoanID))
	defer unlock()

	loan, err := s.store.GetLoan(ctx, r.LoanID)
	if err != nil {
		return err
	}
	existing, err := s.store.ListRepayments(ctx, r.LoanID)
	if err != nil {
		return fmt.Errorf("list repayments: %w", err)
	}

	if err := loans.ValidateRepayment(*r, loan, existing, false); err != nil {
		return err
	}

	if err := s.store.CreateRepayment(ctx, r); err != nil {
		return fmt.Errorf("save repayment: %w", err)
	}

	s.reconcileStatusLocked(ctx, loan, append(existing, *r))
	s.publish(ctx, amqp.NewRepaymentRecorded(r.ID, r.LoanID))

	slog.InfoContext(ctx, "Repayment recorded",
		"id", r.ID,
		"loan_id", r.LoanID,
		"amount_paid", r.AmountPaid.String())
	return nil
}

// UpdateRepayment edits an existing repayment. The ceiling check sees
// the balance as if the old value did not exist, so raising a payment
// up to its own headroom is allowed.
func (s *LoanService) UpdateRepayment(ctx context.Context, r *core.LoanRepayment) error {
	if r.ID == 0 {
		return core.NewValidationError("id", "repayment id is required")
	}
	if err := requireRepaymentFields(r); err != nil {
		return err
	}
	if err := r.Validate(); err != nil {
		return err
	}

	unlock := s.locks.Lock(loanKey(r.LoanID))
	defer unlock()

	stored, err := s.store.GetRepayment(ctx, r.ID)
	if err != nil {
		return err
	}
	if stored.LoanID != r.LoanID {
		return core.NewValidationError("business_loan", "repayment belongs to a different loan")
	}

	loan, err := s.store.GetLoan(ctx, r.LoanID)
	if err != nil {
		return err
	}
	existing, err := s.store.ListRepayments(ctx, r.LoanID)
	if err != nil {
		return fmt.Errorf("list repayments: %w", err)
	}

	if err := loans.ValidateRepayment(*r, loan, existing, true); err != nil {
		return err
	}

	r.CreatedAt = stored.CreatedAt
	if err := s.store.UpdateRepayment(ctx, r); err != nil {
		return fmt.Errorf("update repayment: %w", err)
	}

	updated := make([]core.LoanRepayment, 0, len(existing))
	for _, prev := range existing {
		if prev.ID == r.ID {
			updated = append(updated, *r)
		} else {
			updated = append(updated, prev)
		}
	}
	s.reconcileStatusLocked(ctx, loan, updated)
	s.publish(ctx, amqp.NewRepaymentRecorded(r.ID, r.LoanID))

	slog.InfoContext(ctx, "Repayment updated",
		"id", r.ID,
		"loan_id", r.LoanID,
		"amount_paid", r.AmountPaid.String())
	return nil
}

func (s *LoanService) ListRepayments(ctx context.Context, loanID int64) ([]core.LoanRepayment, error) {
	if _, err := s.store.GetLoan(ctx, loanID); err != nil {
		return nil, err
	}
	return s.store.ListRepayments(ctx, loanID)
}

// reconcileStatusLocked keeps loan status in step with the outstanding
// balance: PAID at zero, PENDING otherwise. Callers hold the loan lock.
func (s *LoanService) reconcileStatusLocked(ctx context.Context, loan core.BusinessLoan, repayments []core.LoanRepayment) {
	outstanding, err := loans.OutstandingBalance(loan, repayments)
	if err != nil {
		if !errors.Is(err, core.ErrNoInterestRate) {
			slog.ErrorContext(ctx, "Failed to derive outstanding balance", "loan_id", loan.ID, "error", err)
		}
		return
	}

	var want core.LoanStatus
	switch {
	case outstanding.IsZero():
		want = core.LoanPaid
	default:
		want = core.LoanPending
	}
	if want == loan.Status {
		return
	}
	if err := s.store.UpdateLoanStatus(ctx, loan.ID, want); err != nil {
		slog.ErrorContext(ctx, "Failed to update loan status",
			"loan_id", loan.ID,
			"status", want,
			"error", err)
		return
	}
	slog.InfoContext(ctx, "Loan status updated", "loan_id", loan.ID, "status", want)
}

func (s *LoanService) publish(ctx context.Context, event *amqp.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishEvent(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish event",
			"type", event.Type,
			"id", event.ID,
			"error", err)
	}
}

// requireRepaymentFields rejects incomplete records before the
// validator runs; the validator itself skips records with missing
// fields, so presence is enforced here at the write boundary.
func requireRepaymentFields(r *core.LoanRepayment) error {
	if r.LoanID == 0 {
		return core.NewValidationError("business_loan", "loan reference is required")
	}
	if r.AmountPaid.IsZero() {
		return core.NewValidationError("amount_paid", "amount paid is required")
	}
	return nil
}

func loanKey(id int64) string {
	return "loan:" + strconv.FormatInt(id, 10)
}
