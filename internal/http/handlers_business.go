package http

import (
	"net/http"

	applog "bossika/internal/log"
)

func (s *Server) handleListBusinesses(w http.ResponseWriter, r *http.Request) {
	businesses, err := s.businesses.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]businessResponse, 0, len(businesses))
	for _, b := range businesses {
		out = append(out, toBusinessResponse(b))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateBusiness(w http.ResponseWriter, r *http.Request) {
	var req businessRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	business := req.toDomain()
	if err := s.businesses.Create(r.Context(), &business); err != nil {
		writeError(w, r, err)
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Business created",
		applog.FieldBusinessID, business.ID, "name", business.Name)
	writeJSON(w, http.StatusCreated, toBusinessResponse(business))
}

func (s *Server) handleGetBusiness(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	business, err := s.businesses.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBusinessResponse(business))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	key := summaryKey(id)
	if summary, found := s.summaryCache.Get(key); found {
		applog.FromContext(r.Context()).DebugContext(r.Context(), "Summary cache hit", applog.FieldBusinessID, id)
		writeJSON(w, http.StatusOK, toSummaryResponse(summary))
		return
	}

	summary, err := s.businesses.Summary(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.summaryCache.Set(key, summary)

	writeJSON(w, http.StatusOK, toSummaryResponse(summary))
}
