// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package poll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/danielhkuo/lunch-poll/candidates"
	"github.com/danielhkuo/lunch-poll/metrics"
	"github.com/danielhkuo/lunch-poll/models"
	"github.com/danielhkuo/lunch-poll/session"
)

const (
	DefaultSeedCount        = 5
	DefaultStoreTimeout     = 5 * time.Second
	DefaultDecayConcurrency = 4

	// pageSize is how many records one load-more scan reads per query.
	pageSize = 20
)

// ErrInvalidInput is returned for empty names, voters, or unknown kinds.
var ErrInvalidInput = errors.New("invalid input")

// Controller runs the poll lifecycle. Idle and Active are not held in
// memory; they are read from the session store on every call, so several
// processes can share one store.
type Controller struct {
	sessions   *session.Store
	candidates candidates.Store
	metrics    *metrics.Poll

	now              func() time.Time
	storeTimeout     time.Duration
	decayConcurrency int
	seedCount        int

	closing singleflight.Group
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock sets the time source used for session and selection timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func WithMetrics(m *metrics.Poll) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithStoreTimeout bounds each operation's store I/O. Close bounds every
// score write separately.
func WithStoreTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.storeTimeout = d
		}
	}
}

// WithDecayConcurrency limits how many close-time writes run at once.
func WithDecayConcurrency(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.decayConcurrency = n
		}
	}
}

// WithSeedCount sets how many top candidates a new poll starts with.
func WithSeedCount(n int) Option {
	return func(c *Controller) {
		if n >= 0 {
			c.seedCount = n
		}
	}
}

// New returns a controller over the given stores.
func New(sessions *session.Store, store candidates.Store, opts ...Option) *Controller {
	c := &Controller{
		sessions:         sessions,
		candidates:       store,
		now:              time.Now,
		storeTimeout:     DefaultStoreTimeout,
		decayConcurrency: DefaultDecayConcurrency,
		seedCount:        DefaultSeedCount,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.storeTimeout)
}

// Start opens a poll anchored at originID, seeded with the most popular
// candidates.
func (c *Controller) Start(ctx context.Context, originID string) (models.PollView, error) {
	originID = strings.TrimSpace(originID)
	if originID == "" {
		return models.PollView{}, fmt.Errorf("%w: origin id is required", ErrInvalidInput)
	}

	ctx, cancel := c.bound(ctx)
	defer cancel()

	id, err := c.sessions.StartSession(ctx, originID, c.now())
	if err != nil {
		return models.PollView{}, err
	}

	if err := c.seed(ctx); err != nil {
		// A half-seeded poll is not worth keeping.
		if endErr := c.sessions.EndSession(context.WithoutCancel(ctx)); endErr != nil {
			slog.Error("failed to tear down unseeded poll", "session_id", id, "error", endErr)
		}
		return models.PollView{}, fmt.Errorf("failed to seed poll: %w", err)
	}

	c.metrics.SessionStarted()
	slog.Info("poll started", "session_id", id, "origin", originID)

	return c.view(ctx)
}

func (c *Controller) seed(ctx context.Context) error {
	if c.seedCount == 0 {
		return nil
	}
	top, err := c.candidates.ListPage(ctx, 0, c.seedCount)
	if err != nil {
		return err
	}
	for _, rec := range top {
		if _, err := c.sessions.AddCandidate(ctx, rec.Name); err != nil {
			return err
		}
	}
	return nil
}

// AddCandidate offers name in the active poll, creating the record if this
// is the first time the name is seen.
func (c *Controller) AddCandidate(ctx context.Context, name, url string) (models.PollView, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.PollView{}, fmt.Errorf("%w: candidate name is required", ErrInvalidInput)
	}

	ctx, cancel := c.bound(ctx)
	defer cancel()

	if err := c.requireOpen(ctx); err != nil {
		return models.PollView{}, err
	}
	offered, err := c.sessions.IsOffered(ctx, name)
	if err != nil {
		return models.PollView{}, err
	}
	if offered {
		return models.PollView{}, models.ErrDuplicateInSession
	}

	rec, err := c.resolveOrCreate(ctx, name, strings.TrimSpace(url))
	if err != nil {
		return models.PollView{}, err
	}

	added, err := c.sessions.AddCandidate(ctx, rec.Name)
	if err != nil {
		return models.PollView{}, err
	}
	if !added {
		return models.PollView{}, models.ErrDuplicateInSession
	}

	c.metrics.CandidateAdded()
	slog.Info("candidate added", "candidate_id", rec.ID, "name", rec.Name)

	return c.view(ctx)
}

func (c *Controller) resolveOrCreate(ctx context.Context, name, url string) (*models.CandidateRecord, error) {
	rec, err := c.candidates.FindByName(ctx, name)
	if err != nil || rec != nil {
		return rec, err
	}

	id, err := c.candidates.Create(ctx, name, url)
	switch {
	case err == nil:
		return &models.CandidateRecord{
			ID:              id,
			Name:            name,
			URL:             url,
			PopularityScore: models.MaxPopularity,
		}, nil
	case errors.Is(err, models.ErrDuplicateCandidate):
		// Someone else created it between our read and insert.
		rec, err = c.candidates.FindByName(ctx, name)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			return nil, fmt.Errorf("candidate %q vanished after duplicate insert", name)
		}
		return rec, nil
	default:
		return nil, err
	}
}

// LoadMore offers up to count more candidates in popularity order, skipping
// those already offered. It returns models.ErrNoMoreCandidates, leaving
// the poll unchanged, when every candidate is already offered.
func (c *Controller) LoadMore(ctx context.Context, count int) (models.PollView, error) {
	count = max(1, count)

	ctx, cancel := c.bound(ctx)
	defer cancel()

	if err := c.requireOpen(ctx); err != nil {
		return models.PollView{}, err
	}
	next, err := c.unoffered(ctx, count)
	if err != nil {
		return models.PollView{}, err
	}
	if len(next) == 0 {
		return models.PollView{}, models.ErrNoMoreCandidates
	}

	for _, rec := range next {
		if _, err := c.sessions.AddCandidate(ctx, rec.Name); err != nil {
			return models.PollView{}, err
		}
	}
	slog.Info("more candidates loaded", "count", len(next))

	return c.view(ctx)
}

// MoreOptions lists up to limit candidates not yet offered, for a picker.
func (c *Controller) MoreOptions(ctx context.Context, limit int) ([]models.CandidateRecord, error) {
	if limit < 1 {
		return nil, fmt.Errorf("%w: limit must be positive", ErrInvalidInput)
	}

	ctx, cancel := c.bound(ctx)
	defer cancel()

	return c.unoffered(ctx, limit)
}

// unoffered scans the candidate store in popularity order and collects up
// to n records missing from the active poll.
func (c *Controller) unoffered(ctx context.Context, n int) ([]models.CandidateRecord, error) {
	data, err := c.sessions.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	offered := make(map[string]struct{}, len(data.Candidates))
	for _, name := range data.Candidates {
		offered[name] = struct{}{}
	}

	out := make([]models.CandidateRecord, 0, n)
	for offset := 0; len(out) < n; offset += pageSize {
		page, err := c.candidates.ListPage(ctx, offset, pageSize)
		if err != nil {
			return nil, err
		}
		for _, rec := range page {
			if _, ok := offered[rec.Name]; ok {
				continue
			}
			out = append(out, rec)
			if len(out) == n {
				break
			}
		}
		if len(page) < pageSize {
			break
		}
	}
	return out, nil
}

// Offer adds one existing candidate, usually picked from MoreOptions.
func (c *Controller) Offer(ctx context.Context, name string) (models.PollView, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.PollView{}, fmt.Errorf("%w: candidate name is required", ErrInvalidInput)
	}

	ctx, cancel := c.bound(ctx)
	defer cancel()

	if err := c.requireOpen(ctx); err != nil {
		return models.PollView{}, err
	}
	rec, err := c.candidates.FindByName(ctx, name)
	if err != nil {
		return models.PollView{}, err
	}
	if rec == nil {
		return models.PollView{}, models.ErrUnknownCandidate
	}

	added, err := c.sessions.AddCandidate(ctx, rec.Name)
	if err != nil {
		return models.PollView{}, err
	}
	if !added {
		return models.PollView{}, models.ErrDuplicateInSession
	}
	slog.Info("candidate offered", "candidate_id", rec.ID, "name", rec.Name)

	return c.view(ctx)
}

// Vote sets voterID's preference for an offered candidate.
func (c *Controller) Vote(ctx context.Context, voterID, candidate string, kind models.PreferenceKind) (models.PollView, error) {
	voterID = strings.TrimSpace(voterID)
	if voterID == "" {
		return models.PollView{}, fmt.Errorf("%w: voter id is required", ErrInvalidInput)
	}
	if !kind.Valid() {
		return models.PollView{}, fmt.Errorf("%w: unknown preference kind %q", ErrInvalidInput, kind)
	}

	ctx, cancel := c.bound(ctx)
	defer cancel()

	if err := c.requireOpen(ctx); err != nil {
		return models.PollView{}, err
	}
	offered, err := c.sessions.IsOffered(ctx, candidate)
	if err != nil {
		return models.PollView{}, err
	}
	if !offered {
		return models.PollView{}, models.ErrUnknownCandidate
	}

	if err := c.sessions.CastVote(ctx, voterID, candidate, kind); err != nil {
		return models.PollView{}, err
	}
	c.metrics.Vote(kind)
	slog.Debug("vote cast", "voter", voterID, "candidate", candidate, "kind", kind)

	return c.view(ctx)
}

// View returns the render model of the active poll.
func (c *Controller) View(ctx context.Context) (models.PollView, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()
	return c.view(ctx)
}

func (c *Controller) view(ctx context.Context) (models.PollView, error) {
	data, err := c.sessions.Snapshot(ctx)
	if err != nil {
		return models.PollView{}, err
	}
	records, err := c.candidates.FindByNames(ctx, data.Candidates)
	if err != nil {
		return models.PollView{}, err
	}
	return project(data, records, c.now()), nil
}

// requireOpen fails unless a session is active and no close has started.
func (c *Controller) requireOpen(ctx context.Context) error {
	closing, err := c.sessions.Closing(ctx)
	if err != nil {
		return err
	}
	if closing {
		return models.ErrPollClosing
	}
	return nil
}
