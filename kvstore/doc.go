// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package kvstore provides the key-value primitives behind the poll session.

KV is a small Redis-shaped interface: scalars (Get, Set, SetNX), sets (SAdd,
SRem, SIsMember, SMembers, SCard, SMove), lists (RPush, LRange), and Del.
SMove is atomic: MULTI/EXEC on Redis, one transaction on Badger, one locked
section in Memory.

# Backends

  - Memory: mutex-guarded maps, for tests and single-process development
  - Redis: github.com/redis/go-redis/v9, for shared deployments
  - Badger: github.com/dgraph-io/badger/v4, embedded on disk or in memory

	kv, err := kvstore.NewRedis(ctx, kvstore.RedisOptions{Addr: "localhost:6379"})
	kv, err := kvstore.NewBadger("/var/lib/lunch-poll")
	kv := kvstore.NewMemory()

All backends pass the same behavioural tests; the Redis tests run against
miniredis.
*/
package kvstore
