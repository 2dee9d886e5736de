package http

import (
	"net/http"

	applog "bossika/internal/log"
)

func (s *Server) handleListCashFlows(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	records, err := s.cashflows.List(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCashFlowResponses(records))
}

func (s *Server) handleCreateCashFlow(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req cashFlowRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	cf, err := req.toDomain(id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.cashflows.Create(r.Context(), &cf); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateSummary(id)

	writeJSON(w, http.StatusCreated, toCashFlowResponse(cf))
}

// handleRecompute rebuilds the running balances of every dated record
// for a business, oldest first. Needed after backdated inserts, which
// do not cascade on write.
func (s *Server) handleRecompute(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	updated, err := s.cashflows.Recompute(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateSummary(id)

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Balances recomputed",
		applog.FieldBusinessID, id, "records_updated", updated)
	writeJSON(w, http.StatusOK, map[string]int{"records_updated": updated})
}
