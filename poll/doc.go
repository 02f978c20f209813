// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package poll runs the lifecycle of the single lunch poll.

A Controller ties a session.Store (the ephemeral poll) to a candidates.Store
(persistent popularity) and moves between two states:

	Idle --Start--> Active --AddCandidate/LoadMore/Offer/Vote--> Active --Close--> Closing --> Idle

The state is never cached: Active means the session store holds a session,
Closing that it also holds a frozen close plan. A Closing poll rejects
votes, additions and load-more with models.ErrPollClosing.

# Closing

Close snapshots the session and plans one write per offered candidate with
ranking.PlanClose. The first attempt freezes the plan in the session store;
retries replay it instead of planning again. The winner (highest score, lowest id on ties) is reset to
the maximum popularity and has its selection count incremented; the others
are multiplied by max(0.5, score/participants).

Writes run concurrently, bounded by WithDecayConcurrency. Each write first
claims the candidate in the session's concluded set, so a candidate is
written at most once per session. A claim taken after the session is gone is
released and Close reports models.ErrNoActiveSession. The session is only deleted when every
write has landed. On any failure Close returns the joined errors, the
session stays Active, and a later Close finishes the remaining writes.

Concurrent Close calls for the same session share a single execution
(golang.org/x/sync/singleflight).

# Timeouts

Each operation bounds its store calls with WithStoreTimeout (default 5s).
Close detaches from the caller's cancellation once it starts writing and
bounds each write on its own.
*/
package poll
