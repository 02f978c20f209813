// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package poll

import (
	"slices"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/lunch-poll/models"
	"github.com/danielhkuo/lunch-poll/ranking"
)

// project builds the render model. Candidates come out in rank order, ties
// in display order.
func project(data models.SessionData, records []models.CandidateRecord, now time.Time) models.PollView {
	byName := make(map[string]models.CandidateRecord, len(records))
	for _, r := range records {
		byName[r.Name] = r
	}

	participants := len(data.Participants)
	views := make([]models.CandidateView, 0, len(data.Candidates))
	for _, name := range data.Candidates {
		rec := byName[name]
		votes := data.VotesFor(name)

		voters := make(map[models.PreferenceKind][]string, len(models.PreferenceKinds()))
		for _, kind := range models.PreferenceKinds() {
			voters[kind] = slices.Clone(votes[kind])
			if voters[kind] == nil {
				voters[kind] = []string{}
			}
		}

		score := ranking.Score(votes)
		normalized := ranking.NormalizedScore(score, participants)
		badge := ranking.BadgeFor(normalized)
		views = append(views, models.CandidateView{
			CandidateID:     rec.ID,
			Name:            name,
			URL:             rec.URL,
			Score:           score,
			NormalizedScore: normalized,
			Badge:           badge,
			BadgeEmoji:      badge.Emoji(),
			Voters:          voters,
		})
	}

	view := models.PollView{
		SessionID:        data.ID,
		OriginID:         data.OriginID,
		OriginTime:       data.CreatedAt,
		ParticipantCount: participants,
		Participants:     slices.Clone(data.Participants),
		Candidates:       ranking.Rank(views, func(v models.CandidateView) int { return v.Score }),
	}
	if view.Participants == nil {
		view.Participants = []string{}
	}
	if !data.CreatedAt.IsZero() {
		view.OriginAge = humanize.RelTime(data.CreatedAt, now, "ago", "from now")
	}
	return view
}
