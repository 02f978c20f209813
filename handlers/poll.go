// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/danielhkuo/lunch-poll/candidates"
	"github.com/danielhkuo/lunch-poll/cliparse"
	"github.com/danielhkuo/lunch-poll/middleware"
	"github.com/danielhkuo/lunch-poll/models"
	"github.com/danielhkuo/lunch-poll/poll"
)

const defaultOptionsLimit = 25

type PollHandler struct {
	ctrl *poll.Controller
	cfg  cliparse.Config
}

func NewPollHandler(ctrl *poll.Controller, cfg cliparse.Config) *PollHandler {
	return &PollHandler{ctrl: ctrl, cfg: cfg}
}

// StartPoll handles POST /poll
func (h *PollHandler) StartPoll(w http.ResponseWriter, r *http.Request) {
	var req models.StartPollRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if strings.TrimSpace(req.OriginID) == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "origin_id is required")
		return
	}

	view, err := h.ctrl.Start(r.Context(), req.OriginID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, models.PollResponse{Poll: view})
}

// GetPoll handles GET /poll
func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	view, err := h.ctrl.View(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.PollResponse{Poll: view})
}

// AddCandidate handles POST /poll/candidates
// Takes either name and url, or text pasted from a delivery app's share sheet.
func (h *PollHandler) AddCandidate(w http.ResponseWriter, r *http.Request) {
	var req models.AddCandidateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	name, url := req.Name, req.URL
	if strings.TrimSpace(name) == "" && req.Text != "" {
		var err error
		name, url, err = candidates.ParseShareText(req.Text)
		if err != nil {
			writeError(w, r, err)
			return
		}
	}
	if strings.TrimSpace(name) == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name or text is required")
		return
	}

	view, err := h.ctrl.AddCandidate(r.Context(), name, url)
	if err != nil {
		writeError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, models.PollResponse{Poll: view})
}

// LoadMore handles POST /poll/load-more
// Running out of candidates is not an error; the unchanged poll comes back
// with a notice.
func (h *PollHandler) LoadMore(w http.ResponseWriter, r *http.Request) {
	req := models.LoadMoreRequest{Count: h.cfg.LoadMoreCount}
	if r.ContentLength != 0 {
		if err := middleware.ParseJSONBody(r, &req); err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
	}
	if req.Count <= 0 {
		req.Count = max(1, h.cfg.LoadMoreCount)
	}

	view, err := h.ctrl.LoadMore(r.Context(), req.Count)
	if errors.Is(err, models.ErrNoMoreCandidates) {
		view, err = h.ctrl.View(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		middleware.JSONResponse(w, http.StatusOK, models.PollResponse{
			Poll:   view,
			Notice: "No more candidates to show",
		})
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.PollResponse{Poll: view})
}

// ListOptions handles GET /poll/options?limit=
func (h *PollHandler) ListOptions(w http.ResponseWriter, r *http.Request) {
	limit := defaultOptionsLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			middleware.ErrorResponse(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	opts, err := h.ctrl.MoreOptions(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.OptionsResponse{Options: opts})
}

// Offer handles POST /poll/offer
func (h *PollHandler) Offer(w http.ResponseWriter, r *http.Request) {
	var req models.OfferRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}

	view, err := h.ctrl.Offer(r.Context(), req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.PollResponse{Poll: view})
}

// Vote handles POST /poll/votes
// Requires X-User-ID header
func (h *PollHandler) Vote(w http.ResponseWriter, r *http.Request) {
	voterID := strings.TrimSpace(r.Header.Get(middleware.HeaderUserID))
	if voterID == "" {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "X-User-ID header required")
		return
	}

	var req models.VoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Candidate == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "candidate is required")
		return
	}
	kind, err := models.ParsePreferenceKind(req.Kind)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.ctrl.Vote(r.Context(), voterID, req.Candidate, kind)
	if err != nil {
		writeError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.PollResponse{Poll: view})
}

// ClosePoll handles POST /poll/close
func (h *PollHandler) ClosePoll(w http.ResponseWriter, r *http.Request) {
	result, err := h.ctrl.Close(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, result)
}
