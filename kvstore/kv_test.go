// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package kvstore

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// forEachBackend runs fn against every KV implementation
func forEachBackend(t *testing.T, fn func(t *testing.T, kv KV)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemory())
	})

	t.Run("redis", func(t *testing.T) {
		srv := miniredis.RunT(t)
		kv := NewRedisFromClient(redis.NewClient(&redis.Options{Addr: srv.Addr()}))
		t.Cleanup(func() { kv.Close() })
		fn(t, kv)
	})

	t.Run("badger", func(t *testing.T) {
		kv, err := NewBadger("")
		if err != nil {
			t.Fatalf("NewBadger failed: %v", err)
		}
		t.Cleanup(func() { kv.Close() })
		fn(t, kv)
	})
}

func TestScalars(t *testing.T) {
	forEachBackend(t, func(t *testing.T, kv KV) {
		ctx := context.Background()

		if _, found, err := kv.Get(ctx, "origin"); err != nil || found {
			t.Fatalf("expected missing key, got found=%v err=%v", found, err)
		}

		if err := kv.Set(ctx, "origin", "C123"); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		v, found, err := kv.Get(ctx, "origin")
		if err != nil || !found || v != "C123" {
			t.Fatalf("expected C123, got %q found=%v err=%v", v, found, err)
		}

		ok, err := kv.SetNX(ctx, "origin", "C999")
		if err != nil {
			t.Fatalf("SetNX failed: %v", err)
		}
		if ok {
			t.Error("SetNX should not overwrite an existing key")
		}
		ok, err = kv.SetNX(ctx, "fresh", "x")
		if err != nil || !ok {
			t.Errorf("SetNX on a new key: ok=%v err=%v", ok, err)
		}

		if err := kv.Del(ctx, "origin", "fresh", "never-existed"); err != nil {
			t.Fatalf("Del failed: %v", err)
		}
		if _, found, _ := kv.Get(ctx, "origin"); found {
			t.Error("origin should be deleted")
		}
	})
}

func TestSets(t *testing.T) {
	forEachBackend(t, func(t *testing.T, kv KV) {
		ctx := context.Background()

		added, err := kv.SAdd(ctx, "participants", "U1")
		if err != nil || !added {
			t.Fatalf("first SAdd: added=%v err=%v", added, err)
		}
		added, err = kv.SAdd(ctx, "participants", "U1")
		if err != nil || added {
			t.Fatalf("repeated SAdd: added=%v err=%v", added, err)
		}
		kv.SAdd(ctx, "participants", "U2")
		kv.SAdd(ctx, "participants:other", "U9")

		n, err := kv.SCard(ctx, "participants")
		if err != nil || n != 2 {
			t.Fatalf("expected 2 members, got %d err=%v", n, err)
		}

		members, err := kv.SMembers(ctx, "participants")
		if err != nil {
			t.Fatalf("SMembers failed: %v", err)
		}
		slices.Sort(members)
		if !slices.Equal(members, []string{"U1", "U2"}) {
			t.Errorf("expected [U1 U2], got %v", members)
		}

		if ok, _ := kv.SIsMember(ctx, "participants", "U2"); !ok {
			t.Error("U2 should be a member")
		}
		if err := kv.SRem(ctx, "participants", "U2"); err != nil {
			t.Fatalf("SRem failed: %v", err)
		}
		if ok, _ := kv.SIsMember(ctx, "participants", "U2"); ok {
			t.Error("U2 should be removed")
		}
		if err := kv.SRem(ctx, "participants", "nobody"); err != nil {
			t.Errorf("SRem of a non-member should not fail: %v", err)
		}

		if err := kv.Del(ctx, "participants"); err != nil {
			t.Fatalf("Del failed: %v", err)
		}
		if n, _ := kv.SCard(ctx, "participants"); n != 0 {
			t.Errorf("expected empty set after Del, got %d", n)
		}
		if n, _ := kv.SCard(ctx, "participants:other"); n != 1 {
			t.Errorf("Del must not touch other keys, got %d members", n)
		}

		empty, err := kv.SMembers(ctx, "missing")
		if err != nil || len(empty) != 0 {
			t.Errorf("expected empty members, got %v err=%v", empty, err)
		}
	})
}

func TestSMove(t *testing.T) {
	forEachBackend(t, func(t *testing.T, kv KV) {
		ctx := context.Background()

		kv.SAdd(ctx, "votes:Pho:like", "U1")
		kv.SAdd(ctx, "votes:Pho:like", "U2")

		// Switch U1 from like to dislike and record them as a participant.
		err := kv.SMove(ctx, "U1",
			[]string{"votes:Pho:dislike", "participants"},
			[]string{"votes:Pho:like"})
		if err != nil {
			t.Fatalf("SMove failed: %v", err)
		}

		tests := []struct {
			key  string
			want []string
		}{
			{"votes:Pho:like", []string{"U2"}},
			{"votes:Pho:dislike", []string{"U1"}},
			{"participants", []string{"U1"}},
		}
		for _, tt := range tests {
			got, err := kv.SMembers(ctx, tt.key)
			if err != nil {
				t.Fatalf("SMembers(%s) failed: %v", tt.key, err)
			}
			slices.Sort(got)
			if !slices.Equal(got, tt.want) {
				t.Errorf("%s: expected %v, got %v", tt.key, tt.want, got)
			}
		}

		// Moving again is a no-op, and a missing source set is fine.
		err = kv.SMove(ctx, "U1",
			[]string{"votes:Pho:dislike", "participants"},
			[]string{"votes:Pho:like", "votes:Pho:missing"})
		if err != nil {
			t.Fatalf("repeated SMove failed: %v", err)
		}
		if n, _ := kv.SCard(ctx, "votes:Pho:dislike"); n != 1 {
			t.Errorf("Expected 1 dislike, got %d", n)
		}
		if n, _ := kv.SCard(ctx, "votes:Pho:like"); n != 1 {
			t.Errorf("Expected 1 like, got %d", n)
		}
	})
}

func TestMemory_SMoveAllOrNothing(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection reset")

	testCases := []struct {
		name    string
		failKey string
	}{
		{"source fails", "votes:Pho:like"},
		{"destination fails", "votes:Pho:dislike"},
		{"participants fails", "participants"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			kv := NewMemory()
			kv.SAdd(ctx, "votes:Pho:like", "U1")
			kv.FailOn = func(op, key string) error {
				if op == "smove" && key == tc.failKey {
					return boom
				}
				return nil
			}

			err := kv.SMove(ctx, "U1",
				[]string{"votes:Pho:dislike", "participants"},
				[]string{"votes:Pho:like"})
			if !errors.Is(err, boom) {
				t.Fatalf("Expected injected error, got %v", err)
			}

			kv.FailOn = nil
			if ok, _ := kv.SIsMember(ctx, "votes:Pho:like", "U1"); !ok {
				t.Error("Expected the like to survive a failed move")
			}
			if n, _ := kv.SCard(ctx, "votes:Pho:dislike"); n != 0 {
				t.Errorf("Expected no dislike after a failed move, got %d", n)
			}
			if n, _ := kv.SCard(ctx, "participants"); n != 0 {
				t.Errorf("Expected no participant after a failed move, got %d", n)
			}
		})
	}
}

func TestLists(t *testing.T) {
	forEachBackend(t, func(t *testing.T, kv KV) {
		ctx := context.Background()

		for _, v := range []string{"Pho", "Tacos", "Bibimbap", "Pho"} {
			if err := kv.RPush(ctx, "order", v); err != nil {
				t.Fatalf("RPush failed: %v", err)
			}
		}

		got, err := kv.LRange(ctx, "order")
		if err != nil {
			t.Fatalf("LRange failed: %v", err)
		}
		want := []string{"Pho", "Tacos", "Bibimbap", "Pho"}
		if !slices.Equal(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}

		if err := kv.Del(ctx, "order"); err != nil {
			t.Fatalf("Del failed: %v", err)
		}
		got, _ = kv.LRange(ctx, "order")
		if len(got) != 0 {
			t.Errorf("expected empty list after Del, got %v", got)
		}

		// A deleted list starts over.
		kv.RPush(ctx, "order", "Ramen")
		got, _ = kv.LRange(ctx, "order")
		if !slices.Equal(got, []string{"Ramen"}) {
			t.Errorf("expected [Ramen], got %v", got)
		}
	})
}

func TestConcurrentSAdd(t *testing.T) {
	forEachBackend(t, func(t *testing.T, kv KV) {
		ctx := context.Background()
		const workers = 20

		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				kv.SAdd(ctx, "voters", string(rune('a'+i)))
			}(i)
		}
		wg.Wait()

		n, err := kv.SCard(ctx, "voters")
		if err != nil {
			t.Fatalf("SCard failed: %v", err)
		}
		if n != workers {
			t.Errorf("expected %d members, got %d", workers, n)
		}
	})
}

func TestMemory_FailOn(t *testing.T) {
	kv := NewMemory()
	boom := errors.New("connection reset")
	kv.FailOn = func(op, key string) error {
		if op == "sadd" && key == "bad" {
			return boom
		}
		return nil
	}

	if _, err := kv.SAdd(context.Background(), "bad", "x"); !errors.Is(err, boom) {
		t.Errorf("expected injected error, got %v", err)
	}
	if _, err := kv.SAdd(context.Background(), "good", "x"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if kv.Len() != 1 {
		t.Errorf("expected 1 key, got %d", kv.Len())
	}
}

func TestContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := NewMemory().Set(ctx, "k", "v"); !errors.Is(err, context.Canceled) {
		t.Errorf("memory: expected context.Canceled, got %v", err)
	}

	b, err := NewBadger("")
	if err != nil {
		t.Fatalf("NewBadger failed: %v", err)
	}
	defer b.Close()
	if err := b.Set(ctx, "k", "v"); !errors.Is(err, context.Canceled) {
		t.Errorf("badger: expected context.Canceled, got %v", err)
	}
}
