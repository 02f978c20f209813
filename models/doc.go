// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines domain, render, request, and response types.

# Domain Types

  - CandidateRecord: persistent place with popularity score and selection count
  - SessionData: snapshot of the active poll session
  - PreferenceKind: like (+1) or dislike (-1)
  - Badge: display tier for a normalized score

# Render Model

PollView is the projection the chat surface displays. Candidates are listed
in rank order with their score, badge, and voter lists:

	view.Candidates[0].Name       // current leader
	view.Candidates[0].BadgeEmoji // e.g. ":yum:"

CloseResult adds the winner and every persistent score update.

# Request Types

  - StartPollRequest: origin_id
  - AddCandidateRequest: name + url, or pasted share text
  - LoadMoreRequest: count
  - OfferRequest: name
  - VoteRequest: candidate, kind

# Errors

Sentinel errors for the poll lifecycle:

	ErrSessionAlreadyActive
	ErrNoActiveSession
	ErrUnknownCandidate
	ErrDuplicateCandidate
	ErrDuplicateInSession
	ErrNoMoreCandidates
	ErrStoreUnavailable

Store I/O failures are wrapped in *StoreError, which matches both
ErrStoreUnavailable and the underlying cause with errors.Is:

	if errors.Is(err, models.ErrStoreUnavailable) {
		// retry later
	}
*/
package models
