package http

import (
	"net/http"

	applog "bossika/internal/log"
)

func (s *Server) handleListLoans(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	details, err := s.loans.ListLoans(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]loanResponse, 0, len(details))
	for _, d := range details {
		out = append(out, toLoanResponse(d, false))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateLoan(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req loanRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	loan, err := req.toDomain(id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.loans.CreateLoan(r.Context(), &loan); err != nil {
		writeError(w, r, err)
		return
	}

	detail, err := s.loans.GetLoan(r.Context(), loan.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Loan created",
		applog.FieldLoanID, loan.ID, applog.FieldBusinessID, id, "lender", loan.Lender)
	writeJSON(w, http.StatusCreated, toLoanResponse(detail, false))
}

func (s *Server) handleGetLoan(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	detail, err := s.loans.GetLoan(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toLoanResponse(detail, true))
}

func (s *Server) handleListRepayments(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	repayments, err := s.loans.ListRepayments(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRepaymentResponses(repayments))
}

func (s *Server) handleCreateRepayment(w http.ResponseWriter, r *http.Request) {
	loanID, ok := pathID(w, r)
	if !ok {
		return
	}

	var req repaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.LoanID != 0 && req.LoanID != loanID {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Message: "loan_id does not match the URL",
			Field:   "business_loan",
		})
		return
	}
	repayment, err := req.toDomain(loanID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.loans.CreateRepayment(r.Context(), &repayment); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateLoanSummary(r, loanID)

	writeJSON(w, http.StatusCreated, toRepaymentResponse(repayment))
}

func (s *Server) handleUpdateRepayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req repaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	repayment, err := req.toDomain(req.LoanID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	repayment.ID = id

	if err := s.loans.UpdateRepayment(r.Context(), &repayment); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateLoanSummary(r, repayment.LoanID)

	writeJSON(w, http.StatusOK, toRepaymentResponse(repayment))
}

// invalidateLoanSummary drops the cached summary of the business that
// owns the given loan.
func (s *Server) invalidateLoanSummary(r *http.Request, loanID int64) {
	detail, err := s.loans.GetLoan(r.Context(), loanID)
	if err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Failed resolving loan for cache invalidation",
			applog.FieldLoanID, loanID, "error", err)
		s.summaryCache.Purge()
		return
	}
	s.invalidateSummary(detail.BusinessID)
}
