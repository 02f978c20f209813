// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the lunch poll API server.

A team chat posts one lunch poll at a time. Members like or dislike the
places on offer, and closing the poll picks a winner and feeds the result
back into each place's popularity, which decides what gets offered first
next time.

# Starting the Server

Only DATABASE_URL is required. By default the server uses sqlite and an
in-process session store:

	DATABASE_URL=lunch.db go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." -session redis

A .env file in the working directory is loaded first; variables already
set in the environment win over it, and flags win over both.

# Configuration

  - PORT (-p): Server port (default: 3318)
  - DATABASE_URL (-d), DATABASE_TYPE (-t): sqlite, postgres or mysql
  - SESSION_BACKEND (-session): memory, redis or badger
  - REDIS_ADDR, REDIS_PASSWORD, REDIS_DB, BADGER_DIR, KEY_PREFIX
  - SEED_COUNT, LOAD_MORE_COUNT: how many places are offered
  - STORE_TIMEOUT, DECAY_CONCURRENCY: store I/O bounds
  - SIGNING_SECRET: verify chat-surface request signatures
  - LOG_LEVEL: debug, info, warn or error

# Architecture

  - poll: session lifecycle controller (start, offer, vote, close)
  - ranking: scoring, badges, ordering and close-time decay planning
  - session: the active poll's state over a key-value store
  - kvstore: memory, Redis and Badger key-value backends
  - candidates: persistent places to order from (SQL or memory)
  - handlers, router, middleware: HTTP surface
  - auth: request signature verification
  - metrics: Prometheus collectors
  - models: shared types and errors
  - db: schema and dialects
  - cliparse: configuration parsing

See package documentation for each component.
*/
package main
