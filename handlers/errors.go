// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/lunch-poll/candidates"
	"github.com/danielhkuo/lunch-poll/middleware"
	"github.com/danielhkuo/lunch-poll/models"
	"github.com/danielhkuo/lunch-poll/poll"
)

// writeError maps a domain error onto an HTTP status.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, poll.ErrInvalidInput),
		errors.Is(err, candidates.ErrInvalidPage),
		errors.Is(err, candidates.ErrMalformedShareText):
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrSessionAlreadyActive),
		errors.Is(err, models.ErrDuplicateInSession),
		errors.Is(err, models.ErrPollClosing),
		errors.Is(err, models.ErrDuplicateCandidate):
		middleware.ErrorResponse(w, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrNoActiveSession),
		errors.Is(err, models.ErrUnknownCandidate):
		middleware.ErrorResponse(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrStoreUnavailable):
		slog.Error("store unavailable", "path", r.URL.Path, "error", err)
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Store unavailable, try again")
	default:
		slog.Error("request failed", "path", r.URL.Path, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Internal error")
	}
}
