// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the lunch poll API.

# Handler Types

  - PollHandler: the single active poll (start, grow, vote, close)
  - CandidateHandler: read-only paging over the persistent catalogue

Handlers hold no storage of their own; they call into the poll controller
or the candidate store:

	pollHandler := handlers.NewPollHandler(ctrl, cfg)
	candidateHandler := handlers.NewCandidateHandler(store)

# Poll Lifecycle

	POST /poll             → StartPoll (seeds the most popular candidates)
	GET  /poll             → GetPoll
	POST /poll/candidates  → AddCandidate (name+url, or pasted share text)
	POST /poll/load-more   → LoadMore
	GET  /poll/options     → ListOptions (catalogue entries not yet offered)
	POST /poll/offer       → Offer
	POST /poll/votes       → Vote
	POST /poll/close       → ClosePoll (writes popularity, ends the poll)

Voting requires the X-User-ID header, which the chat surface fills in with
the clicking user's id.

# Errors

Domain errors map onto statuses in one place (errors.go):

	invalid input, malformed share text  → 400
	already active, duplicate, closing   → 409
	no active poll, unknown candidate    → 404
	session or catalogue store down      → 503

Running out of candidates on load-more is reported as a notice on a 200,
not as an error.
*/
package handlers
