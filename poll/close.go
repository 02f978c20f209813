// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package poll

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/danielhkuo/lunch-poll/metrics"
	"github.com/danielhkuo/lunch-poll/models"
	"github.com/danielhkuo/lunch-poll/ranking"
)

// Close ends the active poll. The winner is reset to maximum popularity and
// its selection count incremented; every other offered candidate decays.
//
// The first attempt freezes the plan (winner, scores and decay factors) and
// the poll stops taking votes, additions and load-more. Concurrent closes of
// the same session share one execution. If any score write fails, the
// session is kept and the joined errors are returned; calling Close again
// replays the frozen plan and retries only the writes that did not land.
func (c *Controller) Close(ctx context.Context) (models.CloseResult, error) {
	idCtx, cancel := c.bound(ctx)
	id, err := c.sessions.ID(idCtx)
	cancel()
	if err != nil {
		return models.CloseResult{}, err
	}

	// Writes must finish even if the caller goes away.
	v, err, shared := c.closing.Do(id, func() (any, error) {
		return c.close(context.WithoutCancel(ctx), id)
	})
	if shared {
		slog.Debug("joined in-flight close", "session_id", id)
	}
	if err != nil {
		return models.CloseResult{}, err
	}
	return v.(models.CloseResult), nil
}

func (c *Controller) close(ctx context.Context, id string) (models.CloseResult, error) {
	started := time.Now()

	readCtx, cancel := c.bound(ctx)
	defer cancel()

	data, err := c.sessions.Snapshot(readCtx)
	if err != nil {
		return models.CloseResult{}, err
	}
	if data.ID != id {
		// The session we were asked to close is already gone.
		return models.CloseResult{}, models.ErrNoActiveSession
	}
	records, err := c.candidates.FindByNames(readCtx, data.Candidates)
	if err != nil {
		return models.CloseResult{}, err
	}

	plan, err := c.freeze(readCtx, id, ranking.PlanClose(data, records))
	if err != nil {
		return models.CloseResult{}, err
	}
	at := c.now()

	errs := make([]error, len(plan.Updates))
	g := new(errgroup.Group)
	g.SetLimit(c.decayConcurrency)
	for i, u := range plan.Updates {
		g.Go(func() error {
			errs[i] = c.apply(ctx, id, u, at)
			return nil
		})
	}
	g.Wait()

	if err := errors.Join(errs...); err != nil {
		if errors.Is(err, models.ErrNoActiveSession) {
			// Another process finished this close first.
			discardCtx, discardCancel := c.bound(ctx)
			defer discardCancel()
			if derr := c.sessions.DiscardClose(discardCtx, id); derr != nil {
				slog.Error("failed to discard stale close state", "session_id", id, "error", derr)
			}
			return models.CloseResult{}, models.ErrNoActiveSession
		}
		slog.Error("poll close incomplete, session kept", "session_id", id, "error", err)
		return models.CloseResult{}, fmt.Errorf("failed to apply poll results: %w", err)
	}

	endCtx, endCancel := c.bound(ctx)
	defer endCancel()
	if err := c.sessions.EndSession(endCtx); err != nil {
		return models.CloseResult{}, err
	}

	result := models.CloseResult{
		Updates: make([]models.ScoreUpdate, 0, len(plan.Updates)),
		Poll:    project(data, records, at),
	}
	for _, u := range plan.Updates {
		result.Updates = append(result.Updates, models.ScoreUpdate{
			CandidateID: u.Candidate.ID,
			Name:        u.Candidate.Name,
			Score:       u.Score,
			Winner:      u.Winner,
			Factor:      u.Factor,
		})
	}
	if plan.Winner != nil {
		for i := range result.Poll.Candidates {
			if result.Poll.Candidates[i].CandidateID == plan.Winner.ID {
				w := result.Poll.Candidates[i]
				result.Winner = &w
				break
			}
		}
	}

	c.metrics.SessionClosed(time.Since(started))
	winner := ""
	if plan.Winner != nil {
		winner = plan.Winner.Name
	}
	slog.Info("poll closed", "session_id", id, "winner", winner, "updates", len(plan.Updates))

	return result, nil
}

// freeze stores plan as the close plan of session id, or returns the plan
// an earlier attempt stored.
func (c *Controller) freeze(ctx context.Context, id string, plan ranking.ClosePlan) (ranking.ClosePlan, error) {
	encoded, err := json.Marshal(plan)
	if err != nil {
		return ranking.ClosePlan{}, fmt.Errorf("failed to encode close plan: %w", err)
	}
	stored, err := c.sessions.FreezePlan(ctx, id, string(encoded))
	if err != nil {
		return ranking.ClosePlan{}, err
	}
	if stored == string(encoded) {
		return plan, nil
	}

	var frozen ranking.ClosePlan
	if err := json.Unmarshal([]byte(stored), &frozen); err != nil {
		return ranking.ClosePlan{}, fmt.Errorf("corrupt close plan for session %s: %w", id, err)
	}
	slog.Info("replaying frozen close plan", "session_id", id, "updates", len(frozen.Updates))
	return frozen, nil
}

// apply makes one candidate's close-time write at most once per session.
func (c *Controller) apply(ctx context.Context, id string, u ranking.Update, at time.Time) error {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	name := u.Candidate.Name
	claimed, err := c.sessions.ClaimConclusion(ctx, id, name)
	if err != nil {
		c.metrics.ScoreWrite(u.Winner, metrics.OutcomeFailed)
		return fmt.Errorf("candidate %q: %w", name, err)
	}
	if !claimed {
		c.metrics.ScoreWrite(u.Winner, metrics.OutcomeSkipped)
		return nil
	}

	// EndSession drops the id before the claims, so a claim that succeeds
	// after the id is gone belongs to a close that already finished.
	current, err := c.sessions.ID(ctx)
	if err != nil || current != id {
		c.metrics.ScoreWrite(u.Winner, metrics.OutcomeSkipped)
		c.release(ctx, id, name)
		if err == nil || errors.Is(err, models.ErrNoActiveSession) {
			err = models.ErrNoActiveSession
		}
		return fmt.Errorf("candidate %q: %w", name, err)
	}

	if u.Winner {
		err = c.candidates.ResetToMaximum(ctx, u.Candidate.ID, at)
		if err == nil {
			err = c.candidates.RecordSelection(ctx, u.Candidate.ID)
		}
	} else {
		err = c.candidates.ApplyDecay(ctx, u.Candidate.ID, u.Factor)
	}
	if err == nil {
		c.metrics.ScoreWrite(u.Winner, metrics.OutcomeApplied)
		return nil
	}

	c.metrics.ScoreWrite(u.Winner, metrics.OutcomeFailed)
	if relErr := c.release(ctx, id, name); relErr != nil {
		err = errors.Join(err, relErr)
	}
	return fmt.Errorf("candidate %q: %w", name, err)
}

func (c *Controller) release(ctx context.Context, id, name string) error {
	ctx, cancel := c.bound(context.WithoutCancel(ctx))
	defer cancel()
	err := c.sessions.ReleaseConclusion(ctx, id, name)
	if err != nil {
		slog.Error("failed to release close claim, candidate will be skipped on retry",
			"candidate", name, "error", err)
	}
	return err
}
