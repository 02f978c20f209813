// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ranking

import "github.com/danielhkuo/lunch-poll/models"

// Update is one write to make to the candidate store when a poll closes.
type Update struct {
	Candidate models.CandidateRecord
	Score     int
	Winner    bool
	// Factor is the decay multiplier; zero for the winner.
	Factor float64
}

// ClosePlan is the full set of writes for one close.
type ClosePlan struct {
	Winner  *models.CandidateRecord
	Updates []Update
}

// PlanClose decides the winner and every score write for a session.
// Offered names with no record are skipped. Updates follow the session's
// display order.
func PlanClose(data models.SessionData, records []models.CandidateRecord) ClosePlan {
	byName := make(map[string]models.CandidateRecord, len(records))
	for _, r := range records {
		byName[r.Name] = r
	}

	participants := len(data.Participants)
	var (
		updates []Update
		scores  = make(map[int64]int)
	)
	for _, name := range data.Candidates {
		rec, ok := byName[name]
		if !ok {
			continue
		}
		if _, dup := scores[rec.ID]; dup {
			continue
		}
		s := Score(data.VotesFor(name))
		scores[rec.ID] = s
		updates = append(updates, Update{
			Candidate: rec,
			Score:     s,
			Factor:    DecayFactorFor(s, participants),
		})
	}

	winnerID, ok := PickWinner(scores)
	if !ok {
		return ClosePlan{Updates: updates}
	}

	plan := ClosePlan{Updates: updates}
	for i := range plan.Updates {
		if plan.Updates[i].Candidate.ID == winnerID {
			plan.Updates[i].Winner = true
			plan.Updates[i].Factor = 0
			w := plan.Updates[i].Candidate
			plan.Winner = &w
		}
	}
	return plan
}
