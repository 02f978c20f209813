// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/danielhkuo/lunch-poll/models"
	"github.com/danielhkuo/lunch-poll/testutil"
)

// TestConcurrentVotes verifies that simultaneous votes from different voters
// are all recorded and none are lost
func TestConcurrentVotes(t *testing.T) {
	h, env := newPollHandler(t)
	testutil.SeedCandidate(t, env.Candidates, "Pho", 100)
	testutil.SeedCandidate(t, env.Candidates, "Tacos", 90)
	startPoll(t, h)

	numVoters := 20
	var successCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < numVoters; i++ {
		wg.Add(1)
		go func(voterIdx int) {
			defer wg.Done()

			candidate := "Pho"
			if voterIdx%4 == 0 {
				candidate = "Tacos"
			}
			w := vote(h, fmt.Sprintf("U%02d", voterIdx), candidate, "like")
			if w.Code == http.StatusOK {
				successCount.Add(1)
			}
		}(i)
	}

	wg.Wait()

	if int(successCount.Load()) != numVoters {
		t.Errorf("Expected %d successful votes, got %d", numVoters, successCount.Load())
	}

	w := httptest.NewRecorder()
	h.GetPoll(w, testutil.MakeRequest("GET", "/poll", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.PollResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Poll.ParticipantCount != numVoters {
		t.Errorf("Expected %d participants, got %d", numVoters, resp.Poll.ParticipantCount)
	}
	if resp.Poll.Candidates[0].Name != "Pho" || resp.Poll.Candidates[0].Score != 15 {
		t.Errorf("Expected Pho first with score 15, got %+v", resp.Poll.Candidates[0])
	}
	if resp.Poll.Candidates[1].Score != 5 {
		t.Errorf("Expected Tacos score 5, got %d", resp.Poll.Candidates[1].Score)
	}
}

// TestConcurrentVoteFlips verifies that after a burst of concurrent flips from
// one voter, the next vote leaves exactly one recorded preference
func TestConcurrentVoteFlips(t *testing.T) {
	h, env := newPollHandler(t)
	testutil.SeedCandidate(t, env.Candidates, "Pho", 100)
	startPoll(t, h)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			kind := "like"
			if n%2 == 1 {
				kind = "dislike"
			}
			vote(h, "U1", "Pho", kind)
		}(i)
	}
	wg.Wait()

	// Settle on a known final state
	vote(h, "U1", "Pho", "dislike")

	w := httptest.NewRecorder()
	h.GetPoll(w, testutil.MakeRequest("GET", "/poll", nil, nil))
	var resp models.PollResponse
	testutil.AssertJSON(t, w, &resp)

	pho := resp.Poll.Candidates[0]
	if len(pho.Voters[models.Like]) != 0 || len(pho.Voters[models.Dislike]) != 1 {
		t.Errorf("Expected a single dislike, got %v", pho.Voters)
	}
	if pho.Score != -1 {
		t.Errorf("Expected score -1, got %d", pho.Score)
	}
}

// TestConcurrentClose verifies that racing close requests apply the score
// writes exactly once
func TestConcurrentClose(t *testing.T) {
	h, env := newPollHandler(t)
	testutil.SeedCandidate(t, env.Candidates, "Pho", 100)
	testutil.SeedCandidate(t, env.Candidates, "Tacos", 80)
	startPoll(t, h)
	vote(h, "U1", "Tacos", "like")
	vote(h, "U2", "Pho", "dislike")

	numClosers := 8
	var okCount, goneCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < numClosers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := httptest.NewRecorder()
			h.ClosePoll(w, testutil.MakeRequest("POST", "/poll/close", nil, nil))
			switch w.Code {
			case http.StatusOK:
				okCount.Add(1)
			case http.StatusNotFound:
				goneCount.Add(1)
			}
		}()
	}

	wg.Wait()

	if okCount.Load() < 1 {
		t.Error("Expected at least one successful close")
	}
	if got := okCount.Load() + goneCount.Load(); int(got) != numClosers {
		t.Errorf("Expected every close to succeed or find no poll, got %d of %d", got, numClosers)
	}

	tacos := testutil.GetCandidate(t, env.Candidates, "Tacos")
	if tacos.SelectionCount != 1 || tacos.PopularityScore != models.MaxPopularity {
		t.Errorf("Expected Tacos selected once at max popularity, got %+v", tacos)
	}
	pho := testutil.GetCandidate(t, env.Candidates, "Pho")
	if pho.PopularityScore != 50 {
		t.Errorf("Expected Pho decayed once to 50, got %v", pho.PopularityScore)
	}
}
