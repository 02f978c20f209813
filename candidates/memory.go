// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package candidates

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/danielhkuo/lunch-poll/models"
)

// MemoryStore is an in-process Store for tests and local development.
type MemoryStore struct {
	mu      sync.Mutex
	nextID  int64
	records map[int64]*models.CandidateRecord
	byName  map[string]int64

	// FailOn, when set, is consulted before every mutation; a non-nil
	// return is reported as a store failure.
	FailOn func(op string, id int64) error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:  1,
		records: make(map[int64]*models.CandidateRecord),
		byName:  make(map[string]int64),
	}
}

func (s *MemoryStore) Create(ctx context.Context, name, url string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, models.Unavailable("create candidate", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byName[name]; exists {
		return 0, models.ErrDuplicateCandidate
	}
	if err := s.fail("create", 0); err != nil {
		return 0, err
	}

	id := s.nextID
	s.nextID++
	s.records[id] = &models.CandidateRecord{
		ID:              id,
		Name:            name,
		URL:             url,
		PopularityScore: models.MaxPopularity,
	}
	s.byName[name] = id
	return id, nil
}

// Put inserts a fully specified record, for seeding tests.
func (s *MemoryStore) Put(rec models.CandidateRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byName[rec.Name]; exists {
		return 0, models.ErrDuplicateCandidate
	}
	if rec.ID == 0 {
		rec.ID = s.nextID
	}
	if _, taken := s.records[rec.ID]; taken {
		return 0, fmt.Errorf("candidate id %d already used", rec.ID)
	}
	if rec.ID >= s.nextID {
		s.nextID = rec.ID + 1
	}
	r := rec
	s.records[r.ID] = &r
	s.byName[r.Name] = r.ID
	return r.ID, nil
}

func (s *MemoryStore) FindByName(ctx context.Context, name string) (*models.CandidateRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byName[name]
	if !ok {
		return nil, nil
	}
	rec := clone(*s.records[id])
	return &rec, nil
}

func (s *MemoryStore) FindByNames(ctx context.Context, names []string) ([]models.CandidateRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.CandidateRecord{}
	seen := make(map[int64]bool)
	for _, n := range names {
		id, ok := s.byName[n]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, clone(*s.records[id]))
	}
	sortByPopularity(out)
	return out, nil
}

func (s *MemoryStore) ListAll(ctx context.Context) ([]models.CandidateRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sorted(), nil
}

func (s *MemoryStore) ListPage(ctx context.Context, offset, limit int) ([]models.CandidateRecord, error) {
	if err := validatePage(offset, limit); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.sorted()
	if offset >= len(all) {
		return []models.CandidateRecord{}, nil
	}
	end := min(offset+limit, len(all))
	return all[offset:end], nil
}

func (s *MemoryStore) RecordSelection(ctx context.Context, id int64) error {
	return s.update("record selection", id, func(r *models.CandidateRecord) {
		r.SelectionCount++
	})
}

func (s *MemoryStore) ResetToMaximum(ctx context.Context, id int64, at time.Time) error {
	return s.update("reset score", id, func(r *models.CandidateRecord) {
		t := at.UTC()
		r.PopularityScore = models.MaxPopularity
		r.LastSelectedAt = &t
	})
}

func (s *MemoryStore) ApplyDecay(ctx context.Context, id int64, factor float64) error {
	return s.update("decay score", id, func(r *models.CandidateRecord) {
		r.PopularityScore *= factor
	})
}

func (s *MemoryStore) update(op string, id int64, fn func(*models.CandidateRecord)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fail(op, id); err != nil {
		return err
	}
	// Matches SQL semantics: updating a missing id is not an error.
	if rec, ok := s.records[id]; ok {
		fn(rec)
	}
	return nil
}

func (s *MemoryStore) fail(op string, id int64) error {
	if s.FailOn == nil {
		return nil
	}
	return models.Unavailable(op, s.FailOn(op, id))
}

func (s *MemoryStore) sorted() []models.CandidateRecord {
	out := make([]models.CandidateRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, clone(*r))
	}
	sortByPopularity(out)
	return out
}

func sortByPopularity(recs []models.CandidateRecord) {
	slices.SortFunc(recs, func(a, b models.CandidateRecord) int {
		switch {
		case a.PopularityScore > b.PopularityScore:
			return -1
		case a.PopularityScore < b.PopularityScore:
			return 1
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

func clone(r models.CandidateRecord) models.CandidateRecord {
	if r.LastSelectedAt != nil {
		t := *r.LastSelectedAt
		r.LastSelectedAt = &t
	}
	return r
}
