package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type (
	BusinessType     string
	SizeBucket       string
	CashFlowType     string
	CashFlowCategory string
	LoanCategory     string
	LoanStatus       string
)

const (
	BusinessService       BusinessType = "SERVICE"
	BusinessWholesale     BusinessType = "WHOLESALE"
	BusinessRetail        BusinessType = "RETAIL"
	BusinessManufacturing BusinessType = "MANUFACTURING"
	BusinessTechnology    BusinessType = "TECHNOLOGY"
)

const (
	SizeMicro  SizeBucket = "0-10"
	SizeSmall  SizeBucket = "10-20"
	SizeMedium SizeBucket = "20-30"
	SizeLarge  SizeBucket = "30-40"
)

const (
	CashFlowIncome        CashFlowType = "INCOME"
	CashFlowExpense       CashFlowType = "EXPENSE"
	CashFlowLoanInflow    CashFlowType = "LOAN_INFLOW"
	CashFlowLoanRepayment CashFlowType = "LOAN_REPAYMENT"
)

const (
	CategorySales          CashFlowCategory = "SALES"
	CategoryStock          CashFlowCategory = "STOCK"
	CategoryEmployeeSalary CashFlowCategory = "EMPLOYEE_SALARY"
)

const (
	LoanWorkingCapital LoanCategory = "WORKING_CAPITAL"
	LoanInventory      LoanCategory = "INVENTORY"
	LoanEquipment      LoanCategory = "EQUIPMENT"
	LoanExpansion      LoanCategory = "EXPANSION"
	LoanOperations     LoanCategory = "OPERATIONS"
)

const (
	LoanPending LoanStatus = "PENDING"
	LoanPaid    LoanStatus = "PAID"
)

var (
	ErrInvalidDate     = errors.New("invalid date")
	ErrEmptyLender     = errors.New("empty lender")
	ErrInvalidType     = errors.New("invalid type")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidSize     = errors.New("invalid size bucket")
	ErrInvalidStatus   = errors.New("invalid loan status")
	ErrInvalidPeriod   = errors.New("invalid period")
)

// Date is a calendar day without a time component, stored in UTC.
type Date struct {
	time.Time
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Before reports whether d falls strictly before other.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

// BusinessProfile is one tracked business. It owns cash-flow records and
// loans; deletion cascades are a persistence concern, the engines never
// remove a profile.
type BusinessProfile struct {
	ID              int64
	Name            string
	Type            BusinessType
	Size            SizeBucket
	Address         string
	OperationPeriod decimal.Decimal // years, fractional allowed
	CreatedAt       time.Time
}

func (b BusinessProfile) Validate() error {
	switch b.Type {
	case BusinessService, BusinessWholesale, BusinessRetail, BusinessManufacturing, BusinessTechnology:
	default:
		return ErrInvalidType
	}
	switch b.Size {
	case SizeMicro, SizeSmall, SizeMedium, SizeLarge:
	default:
		return ErrInvalidSize
	}
	if b.OperationPeriod.IsNegative() {
		return ErrInvalidPeriod
	}
	if len(b.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	return nil
}

// CashFlow is a single ledger entry for a business. Balance is the
// running balance after this entry; it stays nil until the ledger engine
// computes it, and a preset value is treated as a manual override.
type CashFlow struct {
	ID           int64
	BusinessID   int64
	Type         CashFlowType
	Category     CashFlowCategory // optional, empty when uncategorized
	Amount       Money
	Balance      *Money
	DateRecorded *Date
	CreatedAt    time.Time
}

func (c CashFlow) Validate() error {
	switch c.Type {
	case CashFlowIncome, CashFlowExpense, CashFlowLoanInflow, CashFlowLoanRepayment:
	default:
		return ErrInvalidType
	}
	switch c.Category {
	case "", CategorySales, CategoryStock, CategoryEmployeeSalary:
	default:
		return ErrInvalidCategory
	}
	if c.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if c.DateRecorded != nil {
		if err := c.DateRecorded.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// BusinessLoan is a loan taken by a business. InterestRate is nil when
// the rate was never recorded, which makes the total owed not
// computable rather than zero.
type BusinessLoan struct {
	ID           int64
	BusinessID   int64
	Lender       string
	Reason       string
	Category     LoanCategory // optional
	Principal    Money
	InterestRate *decimal.Decimal // fractional, e.g. 0.1 = 10%
	LoanPeriod   decimal.Decimal  // years
	DateOfLoan   *Date
	Status       LoanStatus
	CreatedAt    time.Time
}

func (l BusinessLoan) Validate() error {
	if strings.TrimSpace(l.Lender) == "" {
		return ErrEmptyLender
	}
	if len(l.Lender) > 30 {
		return errors.New("lender too long (max 30 characters)")
	}
	switch l.Category {
	case "", LoanWorkingCapital, LoanInventory, LoanEquipment, LoanExpansion, LoanOperations:
	default:
		return ErrInvalidCategory
	}
	switch l.Status {
	case LoanPending, LoanPaid:
	default:
		return ErrInvalidStatus
	}
	if l.Principal.IsNegative() {
		return ErrInvalidAmount
	}
	if l.LoanPeriod.IsNegative() {
		return ErrInvalidPeriod
	}
	return nil
}

// LoanRepayment is one payment against a loan.
type LoanRepayment struct {
	ID         int64
	LoanID     int64
	AmountPaid Money
	DatePaid   *Date
	CreatedAt  time.Time
}

func (r LoanRepayment) Validate() error {
	if r.AmountPaid.IsZero() || r.AmountPaid.IsNegative() {
		return ErrInvalidAmount
	}
	if r.DatePaid != nil {
		if err := r.DatePaid.Validate(); err != nil {
			return err
		}
	}
	return nil
}
