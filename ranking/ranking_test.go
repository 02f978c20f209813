// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ranking

import (
	"slices"
	"testing"

	"github.com/danielhkuo/lunch-poll/models"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name  string
		votes map[models.PreferenceKind][]string
		want  int
	}{
		{"no votes", nil, 0},
		{"likes only", map[models.PreferenceKind][]string{models.Like: {"U1", "U2"}}, 2},
		{"mixed", map[models.PreferenceKind][]string{
			models.Like:    {"U1"},
			models.Dislike: {"U2", "U3"},
		}, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.votes); got != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestNormalizedScore(t *testing.T) {
	if got := NormalizedScore(3, 0); got != 3 {
		t.Errorf("zero participants should divide by 1, got %v", got)
	}
	if got := NormalizedScore(1, 4); got != 0.25 {
		t.Errorf("Expected 0.25, got %v", got)
	}
}

func TestBadgeFor(t *testing.T) {
	tests := []struct {
		normalized float64
		want       models.Badge
	}{
		{-1, models.BadgeRejected},
		{0, models.BadgeRejected},
		{0.1, models.BadgeLukewarm},
		{0.3, models.BadgeLukewarm},
		{0.31, models.BadgeLiked},
		{0.6, models.BadgeLiked},
		{0.9, models.BadgeLoved},
		{0.91, models.BadgeFavourite},
		{1, models.BadgeFavourite},
	}

	for _, tt := range tests {
		if got := BadgeFor(tt.normalized); got != tt.want {
			t.Errorf("BadgeFor(%v): expected %v, got %v", tt.normalized, tt.want, got)
		}
	}

	if got := BadgeFor(0.3).Emoji(); got != ":neutral_face:" {
		t.Errorf("Expected :neutral_face:, got %s", got)
	}
}

func TestRank_Stable(t *testing.T) {
	type item struct {
		name  string
		score int
	}
	in := []item{{"A", 1}, {"B", 3}, {"C", 1}, {"D", 3}, {"E", -2}}

	got := Rank(in, func(i item) int { return i.score })

	var names []string
	for _, i := range got {
		names = append(names, i.name)
	}
	want := []string{"B", "D", "A", "C", "E"}
	if !slices.Equal(names, want) {
		t.Errorf("Expected %v, got %v", want, names)
	}
	if in[0].name != "A" {
		t.Error("Rank must not reorder its input")
	}
}

func TestDecayFactorFor(t *testing.T) {
	tests := []struct {
		score, participants int
		want                float64
	}{
		{0, 2, 0.5},
		{-2, 2, 0.5},
		{1, 2, 0.5},
		{3, 4, 0.75},
		{2, 2, 1},
		{2, 0, 2},
	}
	for _, tt := range tests {
		if got := DecayFactorFor(tt.score, tt.participants); got != tt.want {
			t.Errorf("DecayFactorFor(%d, %d): expected %v, got %v", tt.score, tt.participants, tt.want, got)
		}
	}
}

func TestPickWinner(t *testing.T) {
	if _, ok := PickWinner(nil); ok {
		t.Error("empty scores should have no winner")
	}

	id, ok := PickWinner(map[int64]int{7: 2, 3: 2, 9: 1})
	if !ok || id != 3 {
		t.Errorf("tie should go to the lowest id, got %d", id)
	}

	id, _ = PickWinner(map[int64]int{1: -1, 2: 0})
	if id != 2 {
		t.Errorf("Expected 2, got %d", id)
	}
}

func TestPlanClose(t *testing.T) {
	records := []models.CandidateRecord{
		{ID: 1, Name: "X", PopularityScore: 40},
		{ID: 2, Name: "Y", PopularityScore: 40},
	}
	data := models.SessionData{
		Participants: []string{"U1", "U2"},
		Candidates:   []string{"X", "Y", "Ghost"},
		Votes: map[string]map[models.PreferenceKind][]string{
			"X": {models.Like: {"U1", "U2"}},
			"Y": {models.Dislike: {"U1"}},
		},
	}

	plan := PlanClose(data, records)

	if plan.Winner == nil || plan.Winner.Name != "X" {
		t.Fatalf("Expected winner X, got %+v", plan.Winner)
	}
	if len(plan.Updates) != 2 {
		t.Fatalf("Expected 2 updates, got %d", len(plan.Updates))
	}

	x, y := plan.Updates[0], plan.Updates[1]
	if !x.Winner || x.Score != 2 || x.Factor != 0 {
		t.Errorf("unexpected winner update %+v", x)
	}
	if y.Winner || y.Score != -1 || y.Factor != 0.5 {
		t.Errorf("unexpected loser update %+v", y)
	}
	if got := y.Candidate.PopularityScore * y.Factor; got != 20 {
		t.Errorf("Expected Y to decay to 20, got %v", got)
	}
}

func TestPlanClose_Empty(t *testing.T) {
	plan := PlanClose(models.SessionData{}, nil)
	if plan.Winner != nil || len(plan.Updates) != 0 {
		t.Errorf("Expected empty plan, got %+v", plan)
	}
}
