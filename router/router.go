// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielhkuo/lunch-poll/candidates"
	"github.com/danielhkuo/lunch-poll/cliparse"
	"github.com/danielhkuo/lunch-poll/handlers"
	"github.com/danielhkuo/lunch-poll/middleware"
	"github.com/danielhkuo/lunch-poll/poll"
)

func NewRouter(ctrl *poll.Controller, store candidates.Store, gatherer prometheus.Gatherer, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	pollHandler := handlers.NewPollHandler(ctrl, cfg)
	candidateHandler := handlers.NewCandidateHandler(store)

	signed := middleware.RequireSignature(cfg.SigningSecret, time.Now)
	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, signed(middleware.WithLogging(h)))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Metrics
	if gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	// Poll lifecycle (chat surface)
	handle("POST /poll", pollHandler.StartPoll)
	handle("GET /poll", pollHandler.GetPoll)
	handle("POST /poll/candidates", pollHandler.AddCandidate)
	handle("POST /poll/load-more", pollHandler.LoadMore)
	handle("GET /poll/options", pollHandler.ListOptions)
	handle("POST /poll/offer", pollHandler.Offer)
	handle("POST /poll/votes", pollHandler.Vote)
	handle("POST /poll/close", pollHandler.ClosePoll)

	// Catalogue
	handle("GET /candidates", candidateHandler.ListCandidates)

	// Root endpoint, exact match only
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("lunch-poll API v1"))
	})

	return mux
}
