// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

// Request types

type StartPollRequest struct {
	OriginID string `json:"origin_id"`
}

// AddCandidateRequest takes either name+url or pasted share text.
type AddCandidateRequest struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Text string `json:"text"`
}

type LoadMoreRequest struct {
	Count int `json:"count"`
}

type OfferRequest struct {
	Name string `json:"name"`
}

type VoteRequest struct {
	Candidate string `json:"candidate"`
	Kind      string `json:"kind"`
}

// Response types

// PollResponse carries the render model plus an optional user-facing notice.
type PollResponse struct {
	Poll   PollView `json:"poll"`
	Notice string   `json:"notice,omitempty"`
}

type OptionsResponse struct {
	Options []CandidateRecord `json:"options"`
}

type CandidateListResponse struct {
	Candidates []CandidateRecord `json:"candidates"`
	Offset     int               `json:"offset"`
	Limit      int               `json:"limit"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
