// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

Sources, lowest precedence first:

 1. defaults in the Config struct tags
 2. a .env file in the working directory (github.com/joho/godotenv), if present
 3. environment variables (github.com/kelseyhightower/envconfig)
 4. CLI flags

# Environment Variables and Flags

	PORT               -p                  server port (3318)
	DATABASE_URL       -d                  candidate database URL (required)
	DATABASE_TYPE      -t                  sqlite, postgres or mysql (sqlite)
	SESSION_BACKEND    -session            memory, redis or badger (memory)
	REDIS_ADDR         -redis-addr         redis address (localhost:6379)
	REDIS_PASSWORD                         redis password
	REDIS_DB           -redis-db           redis database number (0)
	BADGER_DIR         -badger-dir         badger directory, empty for in-memory
	KEY_PREFIX         -key-prefix         session key prefix (lunchpoll:)
	SEED_COUNT         -seed               candidates offered at start (5)
	LOAD_MORE_COUNT    -load-more          candidates per load-more (1)
	STORE_TIMEOUT      -store-timeout      store call timeout (5s)
	DECAY_CONCURRENCY  -decay-concurrency  parallel writes on close (4)
	SIGNING_SECRET     -signing-secret     chat surface signing secret
	LOG_LEVEL          -log-level          debug, info, warn or error (info)

REDIS_PASSWORD has no flag so it never shows up in a process listing.

# Validation

ParseFlags returns an error if DATABASE_URL is missing or any value is out
of range.
*/
package cliparse
