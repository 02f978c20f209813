// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the lunch poll API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(ctrl, store, registry, cfg)

# Endpoints

Open:

	GET /health
	GET /metrics  - Prometheus exposition of the given gatherer
	GET /         - Exact match; other unknown paths are 404

Poll (signed when SIGNING_SECRET is set):

	POST /poll             - Start a poll
	GET  /poll             - Current render model
	POST /poll/candidates  - Add a place
	POST /poll/load-more   - Offer the next most popular places
	GET  /poll/options     - Places not yet offered
	POST /poll/offer       - Offer one of those places
	POST /poll/votes       - Like or dislike (X-User-ID)
	POST /poll/close       - Pick the winner and update popularity

Catalogue (signed):

	GET /candidates?offset=&limit=

Signed routes are wrapped as RequireSignature(WithLogging(handler)), so
rejected requests are logged by the signature check itself.
*/
package router
