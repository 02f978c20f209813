// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package kvstore

import (
	"context"
	"sync"
)

// Memory is a process-local KV. All state is lost on exit.
type Memory struct {
	mu      sync.Mutex
	scalars map[string]string
	sets    map[string]map[string]struct{}
	lists   map[string][]string

	// FailOn, when set, is consulted before every call; a non-nil return
	// is passed back to the caller unchanged.
	FailOn func(op, key string) error
}

func NewMemory() *Memory {
	return &Memory{
		scalars: make(map[string]string),
		sets:    make(map[string]map[string]struct{}),
		lists:   make(map[string][]string),
	}
}

func (m *Memory) check(ctx context.Context, op, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.FailOn != nil {
		return m.FailOn(op, key)
	}
	return nil
}

func (m *Memory) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "get", key); err != nil {
		return "", false, err
	}
	v, ok := m.scalars[key]
	return v, ok, nil
}

func (m *Memory) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "set", key); err != nil {
		return err
	}
	m.scalars[key] = value
	return nil
}

func (m *Memory) SetNX(ctx context.Context, key, value string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "setnx", key); err != nil {
		return false, err
	}
	if _, exists := m.scalars[key]; exists {
		return false, nil
	}
	m.scalars[key] = value
	return true, nil
}

func (m *Memory) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		if err := m.check(ctx, "del", k); err != nil {
			return err
		}
	}
	for _, k := range keys {
		delete(m.scalars, k)
		delete(m.sets, k)
		delete(m.lists, k)
	}
	return nil
}

func (m *Memory) SAdd(ctx context.Context, key, member string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "sadd", key); err != nil {
		return false, err
	}
	set, ok := m.sets[key]
	if !ok {
		set = make(map[string]struct{})
		m.sets[key] = set
	}
	if _, exists := set[member]; exists {
		return false, nil
	}
	set[member] = struct{}{}
	return true, nil
}

func (m *Memory) SRem(ctx context.Context, key, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "srem", key); err != nil {
		return err
	}
	if set, ok := m.sets[key]; ok {
		delete(set, member)
		if len(set) == 0 {
			delete(m.sets, key)
		}
	}
	return nil
}

func (m *Memory) SIsMember(ctx context.Context, key, member string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "sismember", key); err != nil {
		return false, err
	}
	_, ok := m.sets[key][member]
	return ok, nil
}

func (m *Memory) SMembers(ctx context.Context, key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "smembers", key); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(m.sets[key]))
	for member := range m.sets[key] {
		out = append(out, member)
	}
	return out, nil
}

func (m *Memory) SCard(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "scard", key); err != nil {
		return 0, err
	}
	return int64(len(m.sets[key])), nil
}

func (m *Memory) SMove(ctx context.Context, member string, to, from []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range append(append([]string{}, from...), to...) {
		if err := m.check(ctx, "smove", k); err != nil {
			return err
		}
	}
	for _, k := range from {
		if set, ok := m.sets[k]; ok {
			delete(set, member)
			if len(set) == 0 {
				delete(m.sets, k)
			}
		}
	}
	for _, k := range to {
		set, ok := m.sets[k]
		if !ok {
			set = make(map[string]struct{})
			m.sets[k] = set
		}
		set[member] = struct{}{}
	}
	return nil
}

func (m *Memory) RPush(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "rpush", key); err != nil {
		return err
	}
	m.lists[key] = append(m.lists[key], value)
	return nil
}

func (m *Memory) LRange(ctx context.Context, key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx, "lrange", key); err != nil {
		return nil, err
	}
	return append([]string{}, m.lists[key]...), nil
}

// Len reports how many keys of any kind exist.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.scalars) + len(m.sets) + len(m.lists)
}

func (m *Memory) Close() error {
	return nil
}
