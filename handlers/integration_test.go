// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/lunch-poll/models"
	"github.com/danielhkuo/lunch-poll/testutil"
)

// TestFullPollWorkflow tests the complete end-to-end workflow across two
// lunches:
// 1. Start a poll seeded from the catalogue
// 2. Add a new place from share text
// 3. Load more and offer from the remaining options
// 4. Vote, including a changed vote
// 5. Close and verify the score writes
// 6. Start the next poll and check the new ordering
func TestFullPollWorkflow(t *testing.T) {
	cfg := testutil.GetTestConfig()
	cfg.SeedCount = 2
	env := testutil.NewTestEnv(t, cfg)
	pollHandler := NewPollHandler(env.Controller, cfg)
	candidateHandler := NewCandidateHandler(env.Candidates)

	testutil.SeedCandidate(t, env.Candidates, "Pho", 100)
	testutil.SeedCandidate(t, env.Candidates, "Tacos", 90)
	testutil.SeedCandidate(t, env.Candidates, "Ramen", 80)
	testutil.SeedCandidate(t, env.Candidates, "Sushi", 70)

	// Step 1: Start
	view := startPoll(t, pollHandler)
	if len(view.Candidates) != 2 {
		t.Fatalf("Step 1 - Expected 2 seeded candidates, got %d", len(view.Candidates))
	}
	t.Logf("Step 1 - Started poll: %s", view.SessionID)

	// Step 2: Add from share text
	w := httptest.NewRecorder()
	pollHandler.AddCandidate(w, testutil.MakeRequest("POST", "/poll/candidates",
		models.AddCandidateRequest{Text: "Order from 'Burger Lab' today https://baemin.me/bl01"}, nil))
	if w.Code != http.StatusCreated {
		t.Fatalf("Step 2 - Add candidate failed: %d - %s", w.Code, w.Body.String())
	}

	// Step 3: Load one more, then offer a specific one
	w = httptest.NewRecorder()
	pollHandler.LoadMore(w, testutil.MakeRequest("POST", "/poll/load-more", models.LoadMoreRequest{Count: 1}, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Step 3 - Load more failed: %d - %s", w.Code, w.Body.String())
	}
	w = httptest.NewRecorder()
	pollHandler.Offer(w, testutil.MakeRequest("POST", "/poll/offer", models.OfferRequest{Name: "Sushi"}, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Step 3 - Offer failed: %d - %s", w.Code, w.Body.String())
	}
	var resp models.PollResponse
	testutil.AssertJSON(t, w, &resp)
	if len(resp.Poll.Candidates) != 5 {
		t.Fatalf("Step 3 - Expected 5 offered candidates, got %d", len(resp.Poll.Candidates))
	}

	// Step 4: Vote. U3 changes their mind about Pho.
	votes := []struct{ voter, candidate, kind string }{
		{"U1", "Burger Lab", "like"},
		{"U2", "Burger Lab", "like"},
		{"U3", "Burger Lab", "like"},
		{"U1", "Pho", "like"},
		{"U3", "Pho", "like"},
		{"U3", "Pho", "dislike"},
		{"U2", "Tacos", "dislike"},
		{"U4", "Ramen", "like"},
	}
	for _, v := range votes {
		if w := vote(pollHandler, v.voter, v.candidate, v.kind); w.Code != http.StatusOK {
			t.Fatalf("Step 4 - Vote %+v failed: %d - %s", v, w.Code, w.Body.String())
		}
	}

	// Step 5: Close
	w = httptest.NewRecorder()
	pollHandler.ClosePoll(w, testutil.MakeRequest("POST", "/poll/close", nil, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Step 5 - Close failed: %d - %s", w.Code, w.Body.String())
	}
	var result models.CloseResult
	testutil.AssertJSON(t, w, &result)
	if result.Winner == nil || result.Winner.Name != "Burger Lab" {
		t.Fatalf("Step 5 - Expected Burger Lab to win, got %+v", result.Winner)
	}
	if result.Poll.ParticipantCount != 4 {
		t.Errorf("Step 5 - Expected 4 participants, got %d", result.Poll.ParticipantCount)
	}

	// With 4 participants no loser normalizes above 0.25, so every one of
	// them decays by the 0.5 floor.
	expected := map[string]float64{
		"Burger Lab": models.MaxPopularity,
		"Pho":        50,
		"Tacos":      45,
		"Ramen":      40,
		"Sushi":      35,
	}
	for name, score := range expected {
		rec := testutil.GetCandidate(t, env.Candidates, name)
		if math.Abs(rec.PopularityScore-score) > 1e-9 {
			t.Errorf("Step 5 - Expected %s popularity %v, got %v", name, score, rec.PopularityScore)
		}
	}

	// Step 6: The next poll is seeded from the new popularity order
	w = httptest.NewRecorder()
	pollHandler.StartPoll(w, testutil.MakeRequest("POST", "/poll", models.StartPollRequest{OriginID: "C42/2"}, nil))
	if w.Code != http.StatusCreated {
		t.Fatalf("Step 6 - Restart failed: %d - %s", w.Code, w.Body.String())
	}
	resp = models.PollResponse{}
	testutil.AssertJSON(t, w, &resp)
	if len(resp.Poll.Candidates) != 2 || resp.Poll.Candidates[0].Name != "Burger Lab" || resp.Poll.Candidates[1].Name != "Pho" {
		t.Errorf("Step 6 - Expected [Burger Lab Pho], got %+v", resp.Poll.Candidates)
	}
	if resp.Poll.ParticipantCount != 0 {
		t.Errorf("Step 6 - Expected votes not to carry over, got %d participants", resp.Poll.ParticipantCount)
	}

	w = httptest.NewRecorder()
	candidateHandler.ListCandidates(w, testutil.MakeRequest("GET", "/candidates?limit=1", nil, nil))
	var list models.CandidateListResponse
	testutil.AssertJSON(t, w, &list)
	if len(list.Candidates) != 1 || list.Candidates[0].SelectionCount != 1 {
		t.Errorf("Step 6 - Expected the winner first with one selection, got %+v", list.Candidates)
	}
}
