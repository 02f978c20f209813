// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package session holds the one active poll session in a key-value store.

There is at most one session at a time. Its presence is the "id" key, claimed
with SetNX, so two concurrent starts cannot both succeed. Everything else is
plain sets and lists under the same prefix:

	lunchpoll:id                      session id (uuid)
	lunchpoll:origin                  chat message the poll lives in
	lunchpoll:created_at              RFC 3339 start time
	lunchpoll:participants            set of voter ids
	lunchpoll:candidates              set of offered names
	lunchpoll:candidates:order        offered names in display order
	lunchpoll:votes:<name>:<kind>     set of voter ids
	lunchpoll:votekeys                every votes:* key written this session
	lunchpoll:plan:<id>               frozen close plan (JSON)
	lunchpoll:concluded:<id>          names whose close write is done

EndSession deletes the vote keys listed in votekeys, so votes never carry over
into the next session. The per-id close keys are deleted after the id, so a
close racing a finished one in another process sees the session gone.

CastVote switches a voter between kinds with KV.SMove, so a failed switch
keeps the earlier vote.

Every store failure is returned as a *models.StoreError, which matches
models.ErrStoreUnavailable under errors.Is.
*/
package session
