// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/danielhkuo/lunch-poll/kvstore"
	"github.com/danielhkuo/lunch-poll/models"
)

const DefaultPrefix = "lunchpoll:"

// Store keeps the state of the single active poll in a KV.
type Store struct {
	kv     kvstore.KV
	prefix string
}

// NewStore namespaces every key under prefix (DefaultPrefix when empty).
func NewStore(kv kvstore.KV, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{kv: kv, prefix: prefix}
}

func (s *Store) keyID() string           { return s.prefix + "id" }
func (s *Store) keyOrigin() string       { return s.prefix + "origin" }
func (s *Store) keyCreatedAt() string    { return s.prefix + "created_at" }
func (s *Store) keyParticipants() string { return s.prefix + "participants" }
func (s *Store) keyCandidates() string   { return s.prefix + "candidates" }
func (s *Store) keyOrder() string        { return s.prefix + "candidates:order" }
func (s *Store) keyVoteKeys() string     { return s.prefix + "votekeys" }

// Close bookkeeping is keyed by session id so a stale close of an ended
// session can never collide with the next one.
func (s *Store) keyConcluded(id string) string { return s.prefix + "concluded:" + id }
func (s *Store) keyPlan(id string) string      { return s.prefix + "plan:" + id }

func (s *Store) keyVotes(candidate string, kind models.PreferenceKind) string {
	return s.prefix + "votes:" + candidate + ":" + string(kind)
}

// StartSession claims the session slot and returns the new session id.
func (s *Store) StartSession(ctx context.Context, originID string, ts time.Time) (string, error) {
	id := uuid.NewString()

	claimed, err := s.kv.SetNX(ctx, s.keyID(), id)
	if err != nil {
		return "", models.Unavailable("start session", err)
	}
	if !claimed {
		return "", models.ErrSessionAlreadyActive
	}

	// Late writes from the previous session may have recreated data keys.
	if err := s.clearData(ctx); err != nil {
		s.rollback(id)
		return "", models.Unavailable("start session", err)
	}
	if err := s.kv.Set(ctx, s.keyOrigin(), originID); err != nil {
		s.rollback(id)
		return "", models.Unavailable("start session", err)
	}
	if err := s.kv.Set(ctx, s.keyCreatedAt(), ts.UTC().Format(time.RFC3339Nano)); err != nil {
		s.rollback(id)
		return "", models.Unavailable("start session", err)
	}
	return id, nil
}

// rollback releases a half-started session on a fresh context, since the
// caller's context may be the reason the start failed.
func (s *Store) rollback(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if current, found, err := s.kv.Get(ctx, s.keyID()); err == nil && found && current == id {
		s.EndSession(ctx)
	}
}

// EndSession deletes every session key. Ending when idle is a no-op.
// The close bookkeeping goes last, after the id, so a concurrent claim
// either loses to the finished close or finds the session gone.
func (s *Store) EndSession(ctx context.Context) error {
	id, found, err := s.kv.Get(ctx, s.keyID())
	if err != nil {
		return models.Unavailable("end session", err)
	}
	if err := s.clearData(ctx); err != nil {
		return models.Unavailable("end session", err)
	}
	if err := s.kv.Del(ctx, s.keyID(), s.keyOrigin(), s.keyCreatedAt()); err != nil {
		return models.Unavailable("end session", err)
	}
	if !found {
		return nil
	}
	return s.DiscardClose(ctx, id)
}

func (s *Store) clearData(ctx context.Context) error {
	voteKeys, err := s.kv.SMembers(ctx, s.keyVoteKeys())
	if err != nil {
		return err
	}
	keys := append(voteKeys,
		s.keyParticipants(), s.keyCandidates(), s.keyOrder(), s.keyVoteKeys())
	return s.kv.Del(ctx, keys...)
}

// Active reports whether a session is in progress.
func (s *Store) Active(ctx context.Context) (bool, error) {
	_, found, err := s.kv.Get(ctx, s.keyID())
	if err != nil {
		return false, models.Unavailable("read session", err)
	}
	return found, nil
}

// ID returns the active session id.
func (s *Store) ID(ctx context.Context) (string, error) {
	id, found, err := s.kv.Get(ctx, s.keyID())
	if err != nil {
		return "", models.Unavailable("read session", err)
	}
	if !found {
		return "", models.ErrNoActiveSession
	}
	return id, nil
}

// AddCandidate offers name in the session and reports whether it was new.
func (s *Store) AddCandidate(ctx context.Context, name string) (bool, error) {
	added, err := s.kv.SAdd(ctx, s.keyCandidates(), name)
	if err != nil {
		return false, models.Unavailable("add candidate", err)
	}
	if !added {
		return false, nil
	}
	if err := s.kv.RPush(ctx, s.keyOrder(), name); err != nil {
		// Keep membership and display order in step.
		s.kv.SRem(context.WithoutCancel(ctx), s.keyCandidates(), name)
		return false, models.Unavailable("add candidate", err)
	}
	return true, nil
}

func (s *Store) IsOffered(ctx context.Context, name string) (bool, error) {
	ok, err := s.kv.SIsMember(ctx, s.keyCandidates(), name)
	if err != nil {
		return false, models.Unavailable("read candidates", err)
	}
	return ok, nil
}

// AddParticipant records voterID as taking part; a no-op if already present.
func (s *Store) AddParticipant(ctx context.Context, voterID string) error {
	_, err := s.kv.SAdd(ctx, s.keyParticipants(), voterID)
	return models.Unavailable("add participant", err)
}

// CastVote sets voterID's preference for candidate to kind, replacing any
// earlier preference for that candidate. The switch is one atomic move, so
// a failure leaves the earlier preference in place.
func (s *Store) CastVote(ctx context.Context, voterID, candidate string, kind models.PreferenceKind) error {
	if !kind.Valid() {
		return fmt.Errorf("invalid preference kind %q", kind)
	}

	// Register every kind's key so clearData finds them; an empty
	// registered set costs nothing.
	var from []string
	for _, k := range models.PreferenceKinds() {
		key := s.keyVotes(candidate, k)
		if _, err := s.kv.SAdd(ctx, s.keyVoteKeys(), key); err != nil {
			return models.Unavailable("cast vote", err)
		}
		if k != kind {
			from = append(from, key)
		}
	}

	to := []string{s.keyVotes(candidate, kind), s.keyParticipants()}
	return models.Unavailable("cast vote", s.kv.SMove(ctx, voterID, to, from))
}

// FreezePlan stores plan as the close plan for session id unless one is
// already stored, and returns whichever plan is in effect.
func (s *Store) FreezePlan(ctx context.Context, id, plan string) (string, error) {
	stored, err := s.kv.SetNX(ctx, s.keyPlan(id), plan)
	if err != nil {
		return "", models.Unavailable("freeze plan", err)
	}
	if stored {
		return plan, nil
	}
	existing, found, err := s.kv.Get(ctx, s.keyPlan(id))
	if err != nil {
		return "", models.Unavailable("freeze plan", err)
	}
	if !found {
		// Discarded between the two calls: the session has ended.
		return "", models.ErrNoActiveSession
	}
	return existing, nil
}

// Closing reports whether the active session has a frozen close plan.
func (s *Store) Closing(ctx context.Context) (bool, error) {
	id, err := s.ID(ctx)
	if err != nil {
		return false, err
	}
	_, found, err := s.kv.Get(ctx, s.keyPlan(id))
	if err != nil {
		return false, models.Unavailable("read session", err)
	}
	return found, nil
}

// DiscardClose drops the close plan and claims of session id.
func (s *Store) DiscardClose(ctx context.Context, id string) error {
	err := s.kv.Del(ctx, s.keyPlan(id), s.keyConcluded(id))
	return models.Unavailable("discard close", err)
}

// ClaimConclusion marks candidate's close-time write for session id as
// taken. It reports false if another close already claimed it.
func (s *Store) ClaimConclusion(ctx context.Context, id, candidate string) (bool, error) {
	ok, err := s.kv.SAdd(ctx, s.keyConcluded(id), candidate)
	if err != nil {
		return false, models.Unavailable("claim conclusion", err)
	}
	return ok, nil
}

// ReleaseConclusion undoes a claim whose write failed.
func (s *Store) ReleaseConclusion(ctx context.Context, id, candidate string) error {
	return models.Unavailable("release conclusion", s.kv.SRem(ctx, s.keyConcluded(id), candidate))
}

// Snapshot reads the whole session. Reads run concurrently and are not
// isolated from concurrent writers.
func (s *Store) Snapshot(ctx context.Context) (models.SessionData, error) {
	id, err := s.ID(ctx)
	if err != nil {
		return models.SessionData{}, err
	}

	var (
		data      = models.SessionData{ID: id}
		createdAt string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, _, err := s.kv.Get(gctx, s.keyOrigin())
		data.OriginID = v
		return err
	})
	g.Go(func() error {
		v, _, err := s.kv.Get(gctx, s.keyCreatedAt())
		createdAt = v
		return err
	})
	g.Go(func() error {
		members, err := s.kv.SMembers(gctx, s.keyParticipants())
		slices.Sort(members)
		data.Participants = members
		return err
	})
	g.Go(func() error {
		order, err := s.kv.LRange(gctx, s.keyOrder())
		data.Candidates = order
		return err
	})
	if err := g.Wait(); err != nil {
		return models.SessionData{}, models.Unavailable("read session", err)
	}

	if createdAt != "" {
		t, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return models.SessionData{}, fmt.Errorf("corrupt session timestamp %q: %w", createdAt, err)
		}
		data.CreatedAt = t
	}
	if data.Participants == nil {
		data.Participants = []string{}
	}
	if data.Candidates == nil {
		data.Candidates = []string{}
	}

	votes, err := s.readVotes(ctx, data.Candidates)
	if err != nil {
		return models.SessionData{}, models.Unavailable("read votes", err)
	}
	data.Votes = votes
	return data, nil
}

func (s *Store) readVotes(ctx context.Context, candidates []string) (map[string]map[models.PreferenceKind][]string, error) {
	var mu sync.Mutex
	votes := make(map[string]map[models.PreferenceKind][]string, len(candidates))
	for _, c := range candidates {
		votes[c] = make(map[models.PreferenceKind][]string)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range candidates {
		for _, kind := range models.PreferenceKinds() {
			g.Go(func() error {
				voters, err := s.kv.SMembers(gctx, s.keyVotes(c, kind))
				if err != nil {
					return err
				}
				slices.Sort(voters)
				if voters == nil {
					voters = []string{}
				}
				mu.Lock()
				votes[c][kind] = voters
				mu.Unlock()
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return votes, nil
}

// IsUnavailable reports whether err came from the backing store.
func IsUnavailable(err error) bool {
	return errors.Is(err, models.ErrStoreUnavailable)
}
