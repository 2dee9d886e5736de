// Package loans computes what a business owes on a loan and validates
// repayments against the outstanding balance.
package loans

import (
	"bossika/internal/core"
)

// TotalAmount returns the total owed under simple interest:
// principal + principal * rate * period. When the loan has no interest
// rate the total is not computable and core.ErrNoInterestRate is
// returned; callers must not conflate that with a zero total.
func TotalAmount(loan core.BusinessLoan) (core.Money, error) {
	if loan.InterestRate == nil {
		return core.Money{}, core.ErrNoInterestRate
	}
	interest := loan.Principal.Mul(loan.InterestRate.Mul(loan.LoanPeriod))
	return loan.Principal.Add(interest), nil
}

// SumRepaid adds up amount_paid across repayments.
func SumRepaid(repayments []core.LoanRepayment) core.Money {
	var total core.Money
	for _, r := range repayments {
		total = total.Add(r.AmountPaid)
	}
	return total
}

// OutstandingBalance returns the total owed minus everything repaid so
// far. It fails with core.ErrNoInterestRate when the total itself is not
// computable.
func OutstandingBalance(loan core.BusinessLoan, repayments []core.LoanRepayment) (core.Money, error) {
	total, err := TotalAmount(loan)
	if err != nil {
		return core.Money{}, err
	}
	return total.Sub(SumRepaid(repayments)), nil
}

// ValidateRepayment checks a proposed repayment against the loan's
// remaining balance. existing must hold every persisted repayment for
// the loan, including the old row of the repayment being edited when
// isUpdate is set; that old value is added back so the comparison sees
// the balance as if the edited repayment did not exist yet.
//
// A repayment with no amount or no loan reference is treated as having
// nothing to validate and passes; required-field enforcement happens
// before this runs, at the service boundary.
func ValidateRepayment(repayment core.LoanRepayment, loan core.BusinessLoan, existing []core.LoanRepayment, isUpdate bool) error {
	if repayment.AmountPaid.IsZero() || repayment.LoanID == 0 {
		return nil
	}

	remaining, err := OutstandingBalance(loan, existing)
	if err != nil {
		return err
	}

	if isUpdate {
		for _, prev := range existing {
			if prev.ID == repayment.ID {
				remaining = remaining.Add(prev.AmountPaid)
				break
			}
		}
	}

	if repayment.AmountPaid.GreaterThan(remaining) {
		return core.NewValidationError("amount_paid",
			"repayment of "+repayment.AmountPaid.String()+" exceeds remaining balance of "+remaining.String())
	}
	return nil
}
