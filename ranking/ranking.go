// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ranking

import (
	"cmp"
	"slices"

	"github.com/danielhkuo/lunch-poll/models"
)

// MinDecayFactor is the floor on the multiplier applied to losers.
const MinDecayFactor = 0.5

// Score sums the weight of every vote on one candidate.
func Score(votes map[models.PreferenceKind][]string) int {
	total := 0
	for kind, voters := range votes {
		total += kind.Weight() * len(voters)
	}
	return total
}

// NormalizedScore scales score by the number of participants, treating an
// empty poll as one participant.
func NormalizedScore(score, participants int) float64 {
	return float64(score) / float64(max(1, participants))
}

// BadgeFor maps a normalized score onto its display tier.
func BadgeFor(normalized float64) models.Badge {
	switch {
	case normalized <= 0.0:
		return models.BadgeRejected
	case normalized <= 0.3:
		return models.BadgeLukewarm
	case normalized <= 0.6:
		return models.BadgeLiked
	case normalized <= 0.9:
		return models.BadgeLoved
	default:
		return models.BadgeFavourite
	}
}

// Rank returns a copy of items ordered by score, highest first. Equal
// scores keep their input order.
func Rank[T any](items []T, score func(T) int) []T {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b T) int {
		return cmp.Compare(score(b), score(a))
	})
	return out
}

// DecayFactorFor returns the multiplier applied to a candidate that lost.
// Factors above 1 are possible and are not clamped.
func DecayFactorFor(score, participants int) float64 {
	return max(MinDecayFactor, NormalizedScore(score, participants))
}

// PickWinner returns the id with the highest score. Ties go to the lowest
// id. ok is false when scores is empty.
func PickWinner(scores map[int64]int) (id int64, ok bool) {
	best := 0
	for cand, s := range scores {
		if !ok || s > best || (s == best && cand < id) {
			id, best, ok = cand, s, true
		}
	}
	return id, ok
}
