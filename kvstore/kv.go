// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package kvstore

import "context"

// KV is the subset of Redis-style primitives the session store needs.
// A key holds exactly one kind of value: scalar, set, or list.
type KV interface {
	// Get reports found=false for a missing key.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	// SetNX sets key only if it does not exist and reports whether it did.
	SetNX(ctx context.Context, key, value string) (bool, error)
	// Del removes keys of any kind; missing keys are ignored.
	Del(ctx context.Context, keys ...string) error

	// SAdd reports whether member was newly added.
	SAdd(ctx context.Context, key, member string) (bool, error)
	SRem(ctx context.Context, key, member string) error
	SIsMember(ctx context.Context, key, member string) (bool, error)
	SMembers(ctx context.Context, key string) ([]string, error)
	SCard(ctx context.Context, key string) (int64, error)
	// SMove removes member from every set in from and adds it to every set
	// in to as one atomic step. Either all writes land or none do.
	SMove(ctx context.Context, member string, to, from []string) error

	RPush(ctx context.Context, key, value string) error
	// LRange returns the whole list in insertion order.
	LRange(ctx context.Context, key string) ([]string, error)

	Close() error
}
