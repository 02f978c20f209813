// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/danielhkuo/lunch-poll/auth"
	"github.com/danielhkuo/lunch-poll/candidates"
	"github.com/danielhkuo/lunch-poll/cliparse"
	"github.com/danielhkuo/lunch-poll/db"
	"github.com/danielhkuo/lunch-poll/kvstore"
	"github.com/danielhkuo/lunch-poll/middleware"
	"github.com/danielhkuo/lunch-poll/models"
	"github.com/danielhkuo/lunch-poll/poll"
	"github.com/danielhkuo/lunch-poll/session"
)

// TestDBURL is the connection string for the test database
const TestDBURL = ":memory:"

// SetupTestDB creates a fresh in-memory sqlite database with the full schema
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open(db.SQLite, TestDBURL)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn, db.SQLite); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:             3318,
		DatabaseURL:      TestDBURL,
		DatabaseType:     "sqlite",
		SessionBackend:   cliparse.BackendMemory,
		KeyPrefix:        session.DefaultPrefix,
		SeedCount:        poll.DefaultSeedCount,
		LoadMoreCount:    1,
		StoreTimeout:     poll.DefaultStoreTimeout,
		DecayConcurrency: poll.DefaultDecayConcurrency,
		LogLevel:         "info",
	}
}

// Env is a fully wired poll stack over sqlite and an in-memory KV.
type Env struct {
	DB         *sql.DB
	Candidates *candidates.SQLStore
	KV         *kvstore.Memory
	Sessions   *session.Store
	Controller *poll.Controller
	Config     cliparse.Config
}

// NewTestEnv wires a controller the same way main does.
func NewTestEnv(t *testing.T, cfg cliparse.Config, opts ...poll.Option) *Env {
	t.Helper()

	conn := SetupTestDB(t)
	store := candidates.NewSQLStore(conn, db.SQLite)
	kv := kvstore.NewMemory()
	sessions := session.NewStore(kv, cfg.KeyPrefix)

	opts = append([]poll.Option{
		poll.WithSeedCount(cfg.SeedCount),
		poll.WithStoreTimeout(cfg.StoreTimeout),
		poll.WithDecayConcurrency(cfg.DecayConcurrency),
	}, opts...)

	return &Env{
		DB:         conn,
		Candidates: store,
		KV:         kv,
		Sessions:   sessions,
		Controller: poll.New(sessions, store, opts...),
		Config:     cfg,
	}
}

// SeedCandidate creates a candidate with the given popularity and returns its id
func SeedCandidate(t *testing.T, store candidates.Store, name string, popularity float64) int64 {
	t.Helper()
	ctx := context.Background()

	id, err := store.Create(ctx, name, "https://example.com/"+name)
	if err != nil {
		t.Fatalf("Failed to create test candidate: %v", err)
	}
	if popularity != models.MaxPopularity {
		if err := store.ApplyDecay(ctx, id, popularity/models.MaxPopularity); err != nil {
			t.Fatalf("Failed to set test candidate popularity: %v", err)
		}
	}
	return id
}

// GetCandidate loads a candidate by name, failing the test if it is missing
func GetCandidate(t *testing.T, store candidates.Store, name string) models.CandidateRecord {
	t.Helper()
	rec, err := store.FindByName(context.Background(), name)
	if err != nil {
		t.Fatalf("Failed to load candidate %s: %v", name, err)
	}
	if rec == nil {
		t.Fatalf("Candidate %s not found", name)
	}
	return *rec
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body any, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// MakeSignedRequest creates a request signed the way the chat surface signs it
func MakeSignedRequest(method, path string, body any, secret string, at time.Time) *http.Request {
	var raw []byte
	if body != nil {
		raw, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.HeaderSignatureTimestamp, strconv.FormatInt(at.Unix(), 10))
	req.Header.Set(middleware.HeaderSignature, auth.Sign(secret, at.Unix(), raw))
	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
