package http

import (
	"time"

	"github.com/shopspring/decimal"

	"bossika/internal/core"
	"bossika/internal/services"
)

type businessRequest struct {
	Name            string           `json:"name"`
	Type            string           `json:"type"`
	Size            string           `json:"size"`
	Address         string           `json:"address"`
	OperationPeriod *decimal.Decimal `json:"operation_period"`
}

type businessResponse struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	Type            string          `json:"type"`
	Size            string          `json:"size"`
	Address         string          `json:"address,omitempty"`
	OperationPeriod decimal.Decimal `json:"operation_period"`
	CreatedAt       time.Time       `json:"created_at"`
}

func (req businessRequest) toDomain() core.BusinessProfile {
	b := core.BusinessProfile{
		Name:    req.Name,
		Type:    core.BusinessType(req.Type),
		Size:    core.SizeBucket(req.Size),
		Address: req.Address,
	}
	if req.OperationPeriod != nil {
		b.OperationPeriod = *req.OperationPeriod
	}
	return b
}

func toBusinessResponse(b core.BusinessProfile) businessResponse {
	return businessResponse{
		ID:              b.ID,
		Name:            b.Name,
		Type:            string(b.Type),
		Size:            string(b.Size),
		Address:         b.Address,
		OperationPeriod: b.OperationPeriod,
		CreatedAt:       b.CreatedAt,
	}
}

type cashFlowRequest struct {
	Type         string      `json:"type"`
	Category     string      `json:"category,omitempty"`
	Amount       core.Money  `json:"amount"`
	Balance      *core.Money `json:"balance,omitempty"`
	DateRecorded string      `json:"date_recorded"`
}

type cashFlowResponse struct {
	ID           int64       `json:"id"`
	BusinessID   int64       `json:"business_id"`
	Type         string      `json:"type"`
	Category     string      `json:"category,omitempty"`
	Amount       core.Money  `json:"amount"`
	Balance      *core.Money `json:"balance"`
	DateRecorded string      `json:"date_recorded,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

func (req cashFlowRequest) toDomain(businessID int64) (core.CashFlow, error) {
	cf := core.CashFlow{
		BusinessID: businessID,
		Type:       core.CashFlowType(req.Type),
		Category:   core.CashFlowCategory(req.Category),
		Amount:     req.Amount,
		Balance:    req.Balance,
	}
	if req.DateRecorded != "" {
		date, err := core.ParseDate(req.DateRecorded)
		if err != nil {
			return core.CashFlow{}, core.NewValidationError("date_recorded", "must be a YYYY-MM-DD date")
		}
		cf.DateRecorded = &date
	}
	return cf, nil
}

func toCashFlowResponse(cf core.CashFlow) cashFlowResponse {
	resp := cashFlowResponse{
		ID:         cf.ID,
		BusinessID: cf.BusinessID,
		Type:       string(cf.Type),
		Category:   string(cf.Category),
		Amount:     cf.Amount,
		Balance:    cf.Balance,
		CreatedAt:  cf.CreatedAt,
	}
	if cf.DateRecorded != nil {
		resp.DateRecorded = cf.DateRecorded.String()
	}
	return resp
}

func toCashFlowResponses(records []core.CashFlow) []cashFlowResponse {
	out := make([]cashFlowResponse, 0, len(records))
	for _, cf := range records {
		out = append(out, toCashFlowResponse(cf))
	}
	return out
}

type loanRequest struct {
	Lender       string           `json:"lender"`
	Reason       string           `json:"reason,omitempty"`
	Category     string           `json:"category,omitempty"`
	Principal    core.Money       `json:"principal"`
	InterestRate *decimal.Decimal `json:"interest_rate"`
	LoanPeriod   *decimal.Decimal `json:"loan_period"`
	DateOfLoan   string           `json:"date_of_loan,omitempty"`
}

type loanResponse struct {
	ID                 int64               `json:"id"`
	BusinessID         int64               `json:"business_id"`
	Lender             string              `json:"lender"`
	Reason             string              `json:"reason,omitempty"`
	Category           string              `json:"category,omitempty"`
	Principal          core.Money          `json:"principal"`
	InterestRate       *decimal.Decimal    `json:"interest_rate"`
	LoanPeriod         decimal.Decimal     `json:"loan_period"`
	DateOfLoan         string              `json:"date_of_loan,omitempty"`
	Status             string              `json:"status"`
	TotalAmount        *core.Money         `json:"total_amount"`
	OutstandingBalance *core.Money         `json:"outstanding_balance"`
	TotalRepaid        core.Money          `json:"total_repaid"`
	Repayments         []repaymentResponse `json:"repayments,omitempty"`
}

func (req loanRequest) toDomain(businessID int64) (core.BusinessLoan, error) {
	l := core.BusinessLoan{
		BusinessID:   businessID,
		Lender:       req.Lender,
		Reason:       req.Reason,
		Category:     core.LoanCategory(req.Category),
		Principal:    req.Principal,
		InterestRate: req.InterestRate,
	}
	if req.LoanPeriod != nil {
		l.LoanPeriod = *req.LoanPeriod
	}
	if req.DateOfLoan != "" {
		date, err := core.ParseDate(req.DateOfLoan)
		if err != nil {
			return core.BusinessLoan{}, core.NewValidationError("date_of_loan", "must be a YYYY-MM-DD date")
		}
		l.DateOfLoan = &date
	}
	return l, nil
}

func toLoanResponse(d services.LoanDetail, includeRepayments bool) loanResponse {
	resp := loanResponse{
		ID:                 d.ID,
		BusinessID:         d.BusinessID,
		Lender:             d.Lender,
		Reason:             d.Reason,
		Category:           string(d.Category),
		Principal:          d.Principal,
		InterestRate:       d.InterestRate,
		LoanPeriod:         d.LoanPeriod,
		Status:             string(d.Status),
		TotalAmount:        d.TotalAmount,
		OutstandingBalance: d.OutstandingBalance,
		TotalRepaid:        d.TotalRepaid,
	}
	if d.DateOfLoan != nil {
		resp.DateOfLoan = d.DateOfLoan.String()
	}
	if includeRepayments {
		resp.Repayments = toRepaymentResponses(d.Repayments)
	}
	return resp
}

type repaymentRequest struct {
	LoanID     int64      `json:"loan_id,omitempty"`
	AmountPaid core.Money `json:"amount_paid"`
	DatePaid   string     `json:"date_paid,omitempty"`
}

type repaymentResponse struct {
	ID         int64      `json:"id"`
	LoanID     int64      `json:"loan_id"`
	AmountPaid core.Money `json:"amount_paid"`
	DatePaid   string     `json:"date_paid,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (req repaymentRequest) toDomain(loanID int64) (core.LoanRepayment, error) {
	r := core.LoanRepayment{
		LoanID:     loanID,
		AmountPaid: req.AmountPaid,
	}
	if req.DatePaid != "" {
		date, err := core.ParseDate(req.DatePaid)
		if err != nil {
			return core.LoanRepayment{}, core.NewValidationError("date_paid", "must be a YYYY-MM-DD date")
		}
		r.DatePaid = &date
	}
	return r, nil
}

func toRepaymentResponse(r core.LoanRepayment) repaymentResponse {
	resp := repaymentResponse{
		ID:         r.ID,
		LoanID:     r.LoanID,
		AmountPaid: r.AmountPaid,
		CreatedAt:  r.CreatedAt,
	}
	if r.DatePaid != nil {
		resp.DatePaid = r.DatePaid.String()
	}
	return resp
}

func toRepaymentResponses(repayments []core.LoanRepayment) []repaymentResponse {
	out := make([]repaymentResponse, 0, len(repayments))
	for _, r := range repayments {
		out = append(out, toRepaymentResponse(r))
	}
	return out
}

type loanSummaryResponse struct {
	TotalLoans       int        `json:"total_loans"`
	PendingLoans     int        `json:"pending_loans"`
	TotalOwed        core.Money `json:"total_owed"`
	TotalOutstanding core.Money `json:"total_outstanding"`
	NotComputable    int        `json:"not_computable"`
}

type summaryResponse struct {
	BusinessID   int64               `json:"business_id"`
	NetCashFlow  core.Money          `json:"net_cash_flow"`
	TotalInflow  core.Money          `json:"total_inflow"`
	TotalOutflow core.Money          `json:"total_outflow"`
	Records      int                 `json:"records"`
	Loans        loanSummaryResponse `json:"loans"`
}

func toSummaryResponse(s core.DashboardSummary) summaryResponse {
	return summaryResponse{
		BusinessID:   s.BusinessID,
		NetCashFlow:  s.NetCashFlow,
		TotalInflow:  s.TotalInflow,
		TotalOutflow: s.TotalOutflow,
		Records:      s.Records,
		Loans: loanSummaryResponse{
			TotalLoans:       s.Loans.TotalLoans,
			PendingLoans:     s.Loans.PendingLoans,
			TotalOwed:        s.Loans.TotalOwed,
			TotalOutstanding: s.Loans.TotalOutstanding,
			NotComputable:    s.Loans.NotComputable,
		},
	}
}
