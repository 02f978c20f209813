// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package candidates

import (
	"context"
	"errors"
	"time"

	"github.com/danielhkuo/lunch-poll/models"
)

var ErrInvalidPage = errors.New("offset and limit must not be negative")

// Store persists candidate records. Records are never deleted.
type Store interface {
	// Create inserts a new record with maximum popularity and returns its id.
	// It fails with models.ErrDuplicateCandidate if the name exists.
	Create(ctx context.Context, name, url string) (int64, error)
	// FindByName returns nil, nil when no record has the name.
	FindByName(ctx context.Context, name string) (*models.CandidateRecord, error)
	// FindByNames returns the records that exist; missing names are skipped.
	FindByNames(ctx context.Context, names []string) ([]models.CandidateRecord, error)
	// ListAll orders by popularity descending, then id ascending.
	ListAll(ctx context.Context) ([]models.CandidateRecord, error)
	// ListPage uses the ListAll order. An offset past the end yields no records.
	ListPage(ctx context.Context, offset, limit int) ([]models.CandidateRecord, error)
	RecordSelection(ctx context.Context, id int64) error
	ResetToMaximum(ctx context.Context, id int64, at time.Time) error
	// ApplyDecay multiplies the popularity score by factor without clamping.
	ApplyDecay(ctx context.Context, id int64, factor float64) error
}

func validatePage(offset, limit int) error {
	if offset < 0 || limit < 0 {
		return ErrInvalidPage
	}
	return nil
}
