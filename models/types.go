// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"fmt"
	"strings"
	"time"
)

// MaxPopularity is the score a new or freshly selected candidate gets.
const MaxPopularity = 100.0

// PreferenceKind is one of the mutually exclusive vote categories.
type PreferenceKind string

const (
	Like    PreferenceKind = "like"
	Dislike PreferenceKind = "dislike"
)

// PreferenceKinds lists every kind in display order.
func PreferenceKinds() []PreferenceKind {
	return []PreferenceKind{Like, Dislike}
}

// Weight returns the signed contribution of one vote of this kind.
func (k PreferenceKind) Weight() int {
	switch k {
	case Like:
		return 1
	case Dislike:
		return -1
	}
	return 0
}

func (k PreferenceKind) Valid() bool {
	return k == Like || k == Dislike
}

// ParsePreferenceKind accepts "like"/"dislike" and the older "good"/"bad".
func ParsePreferenceKind(s string) (PreferenceKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "like", "good":
		return Like, nil
	case "dislike", "bad":
		return Dislike, nil
	}
	return "", fmt.Errorf("unknown preference kind %q", s)
}

// Domain types

// CandidateRecord is one persistent, selectable place to order from.
type CandidateRecord struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	URL             string     `json:"url"`
	SelectionCount  int64      `json:"selection_count"`
	PopularityScore float64    `json:"popularity_score"`
	LastSelectedAt  *time.Time `json:"last_selected_at,omitempty"`
}

// SessionData is a point-in-time read of the active poll session.
type SessionData struct {
	ID           string
	OriginID     string
	CreatedAt    time.Time
	Participants []string
	// Candidates is in display order.
	Candidates []string
	// Votes maps candidate name -> kind -> sorted voter ids.
	Votes map[string]map[PreferenceKind][]string
}

// VotesFor returns the voter lists of one candidate, never nil.
func (d SessionData) VotesFor(candidate string) map[PreferenceKind][]string {
	if v, ok := d.Votes[candidate]; ok && v != nil {
		return v
	}
	return map[PreferenceKind][]string{}
}

// Badge is a display tier derived from a normalized score.
type Badge int

const (
	BadgeRejected Badge = iota
	BadgeLukewarm
	BadgeLiked
	BadgeLoved
	BadgeFavourite
)

var badgeEmoji = [...]string{
	BadgeRejected:  ":skull:",
	BadgeLukewarm:  ":neutral_face:",
	BadgeLiked:     ":slightly_smiling_face:",
	BadgeLoved:     ":yum:",
	BadgeFavourite: ":heart_eyes:",
}

// Emoji returns the chat shortcode shown next to a candidate.
func (b Badge) Emoji() string {
	if b < BadgeRejected || b > BadgeFavourite {
		return ""
	}
	return badgeEmoji[b]
}

// Render model

type CandidateView struct {
	CandidateID     int64                       `json:"candidate_id"`
	Name            string                      `json:"name"`
	URL             string                      `json:"url"`
	Score           int                         `json:"score"`
	NormalizedScore float64                     `json:"normalized_score"`
	Badge           Badge                       `json:"badge"`
	BadgeEmoji      string                      `json:"badge_emoji"`
	Voters          map[PreferenceKind][]string `json:"voters"`
}

// PollView is what the chat surface renders; candidates are in rank order.
type PollView struct {
	SessionID        string          `json:"session_id"`
	OriginID         string          `json:"origin_id"`
	OriginTime       time.Time       `json:"origin_time"`
	OriginAge        string          `json:"origin_age"`
	ParticipantCount int             `json:"participant_count"`
	Participants     []string        `json:"participants"`
	Candidates       []CandidateView `json:"candidates"`
}

// ScoreUpdate is one persistent write made when a poll closes.
type ScoreUpdate struct {
	CandidateID int64   `json:"candidate_id"`
	Name        string  `json:"name"`
	Score       int     `json:"score"`
	Winner      bool    `json:"winner"`
	Factor      float64 `json:"factor,omitempty"`
}

type CloseResult struct {
	Winner  *CandidateView `json:"winner,omitempty"`
	Updates []ScoreUpdate  `json:"updates"`
	Poll    PollView       `json:"poll"`
}
