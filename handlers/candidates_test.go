// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/lunch-poll/models"
	"github.com/danielhkuo/lunch-poll/testutil"
)

func TestListCandidates(t *testing.T) {
	env := testutil.NewTestEnv(t, testutil.GetTestConfig())
	h := NewCandidateHandler(env.Candidates)

	for i := 0; i < 5; i++ {
		testutil.SeedCandidate(t, env.Candidates, fmt.Sprintf("Place %d", i), float64(100-10*i))
	}

	testCases := []struct {
		name           string
		query          string
		expectedStatus int
		expectedNames  []string
	}{
		{"first page", "?limit=2", http.StatusOK, []string{"Place 0", "Place 1"}},
		{"second page", "?offset=2&limit=2", http.StatusOK, []string{"Place 2", "Place 3"}},
		{"past the end", "?offset=10", http.StatusOK, []string{}},
		{"default limit", "", http.StatusOK, []string{"Place 0", "Place 1", "Place 2", "Place 3", "Place 4"}},
		{"negative offset", "?offset=-1", http.StatusBadRequest, nil},
		{"bad limit", "?limit=ten", http.StatusBadRequest, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.ListCandidates(w, testutil.MakeRequest("GET", "/candidates"+tc.query, nil, nil))
			testutil.AssertStatus(t, w, tc.expectedStatus)

			if tc.expectedNames == nil {
				return
			}
			var resp models.CandidateListResponse
			testutil.AssertJSON(t, w, &resp)
			if len(resp.Candidates) != len(tc.expectedNames) {
				t.Fatalf("Expected %d candidates, got %d", len(tc.expectedNames), len(resp.Candidates))
			}
			for i, name := range tc.expectedNames {
				if resp.Candidates[i].Name != name {
					t.Errorf("Expected %s at %d, got %s", name, i, resp.Candidates[i].Name)
				}
			}
		})
	}
}

func TestListCandidates_ClampsLimit(t *testing.T) {
	env := testutil.NewTestEnv(t, testutil.GetTestConfig())
	h := NewCandidateHandler(env.Candidates)

	w := httptest.NewRecorder()
	h.ListCandidates(w, testutil.MakeRequest("GET", "/candidates?limit=100000", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.CandidateListResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Limit != maxPageLimit {
		t.Errorf("Expected limit clamped to %d, got %d", maxPageLimit, resp.Limit)
	}
	if resp.Candidates == nil {
		t.Error("Expected an empty list, not null")
	}
}
