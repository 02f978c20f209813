// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"strconv"

	"github.com/danielhkuo/lunch-poll/candidates"
	"github.com/danielhkuo/lunch-poll/middleware"
	"github.com/danielhkuo/lunch-poll/models"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

type CandidateHandler struct {
	store candidates.Store
}

func NewCandidateHandler(store candidates.Store) *CandidateHandler {
	return &CandidateHandler{store: store}
}

// ListCandidates handles GET /candidates?offset=&limit=
// Records come in popularity order.
func (h *CandidateHandler) ListCandidates(w http.ResponseWriter, r *http.Request) {
	offset, ok := queryInt(w, r, "offset", 0)
	if !ok {
		return
	}
	limit, ok := queryInt(w, r, "limit", defaultPageLimit)
	if !ok {
		return
	}
	limit = min(limit, maxPageLimit)

	recs, err := h.store.ListPage(r.Context(), offset, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if recs == nil {
		recs = []models.CandidateRecord{}
	}

	middleware.JSONResponse(w, http.StatusOK, models.CandidateListResponse{
		Candidates: recs,
		Offset:     offset,
		Limit:      limit,
	})
}

func queryInt(w http.ResponseWriter, r *http.Request, key string, def int) (int, bool) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, key+" must be a non-negative integer")
		return 0, false
	}
	return n, true
}
