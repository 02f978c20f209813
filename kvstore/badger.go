// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package kvstore

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

// Key spaces inside badger. Logical keys must not contain a NUL byte.
const (
	scalarSpace  = "v\x00"
	setSpace     = "s\x00"
	listSpace    = "l\x00"
	counterSpace = "n\x00"
	sep          = "\x00"
)

const maxConflictRetries = 16

// Badger is an embedded KV for single-node deployments. Sets are stored as
// one badger key per member and lists as sequence-numbered keys.
type Badger struct {
	db *badger.DB
}

// NewBadger opens a store in dir, or an in-memory store when dir is empty.
func NewBadger(dir string) (*Badger, error) {
	opts := badger.DefaultOptions(dir).
		WithLogger(badgerLogger{})
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger store: %w", err)
	}
	return &Badger{db: db}, nil
}

func (b *Badger) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	for i := 0; i < maxConflictRetries; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := b.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return badger.ErrConflict
}

func (b *Badger) view(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.View(fn)
}

func (b *Badger) Get(ctx context.Context, key string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := b.view(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(scalarSpace + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		v, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		value, found = string(v), true
		return nil
	})
	return value, found, err
}

func (b *Badger) Set(ctx context.Context, key, value string) error {
	return b.update(ctx, func(txn *badger.Txn) error {
		return txn.Set([]byte(scalarSpace+key), []byte(value))
	})
}

func (b *Badger) SetNX(ctx context.Context, key, value string) (bool, error) {
	var set bool
	err := b.update(ctx, func(txn *badger.Txn) error {
		set = false
		k := []byte(scalarSpace + key)
		_, err := txn.Get(k)
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		set = true
		return txn.Set(k, []byte(value))
	})
	return set, err
}

func (b *Badger) Del(ctx context.Context, keys ...string) error {
	return b.update(ctx, func(txn *badger.Txn) error {
		for _, key := range keys {
			doomed := [][]byte{
				[]byte(scalarSpace + key),
				[]byte(counterSpace + key),
			}
			doomed = append(doomed, prefixKeys(txn, []byte(setSpace+key+sep))...)
			doomed = append(doomed, prefixKeys(txn, []byte(listSpace+key+sep))...)
			for _, k := range doomed {
				if err := txn.Delete(k); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (b *Badger) SAdd(ctx context.Context, key, member string) (bool, error) {
	var added bool
	err := b.update(ctx, func(txn *badger.Txn) error {
		added = false
		k := []byte(setSpace + key + sep + member)
		_, err := txn.Get(k)
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		added = true
		return txn.Set(k, nil)
	})
	return added, err
}

func (b *Badger) SRem(ctx context.Context, key, member string) error {
	return b.update(ctx, func(txn *badger.Txn) error {
		return txn.Delete([]byte(setSpace + key + sep + member))
	})
}

func (b *Badger) SMove(ctx context.Context, member string, to, from []string) error {
	return b.update(ctx, func(txn *badger.Txn) error {
		for _, k := range from {
			if err := txn.Delete([]byte(setSpace + k + sep + member)); err != nil {
				return err
			}
		}
		for _, k := range to {
			if err := txn.Set([]byte(setSpace+k+sep+member), nil); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *Badger) SIsMember(ctx context.Context, key, member string) (bool, error) {
	var ok bool
	err := b.view(ctx, func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(setSpace + key + sep + member))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		ok = err == nil
		return err
	})
	return ok, err
}

func (b *Badger) SMembers(ctx context.Context, key string) ([]string, error) {
	prefix := []byte(setSpace + key + sep)
	members := []string{}
	err := b.view(ctx, func(txn *badger.Txn) error {
		for _, k := range prefixKeys(txn, prefix) {
			members = append(members, string(k[len(prefix):]))
		}
		return nil
	})
	return members, err
}

func (b *Badger) SCard(ctx context.Context, key string) (int64, error) {
	var n int64
	err := b.view(ctx, func(txn *badger.Txn) error {
		n = int64(len(prefixKeys(txn, []byte(setSpace+key+sep))))
		return nil
	})
	return n, err
}

func (b *Badger) RPush(ctx context.Context, key, value string) error {
	return b.update(ctx, func(txn *badger.Txn) error {
		counter := []byte(counterSpace + key)
		var seq uint64
		item, err := txn.Get(counter)
		switch {
		case err == nil:
			raw, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			seq = binary.BigEndian.Uint64(raw)
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		next := make([]byte, 8)
		binary.BigEndian.PutUint64(next, seq+1)
		if err := txn.Set(counter, next); err != nil {
			return err
		}

		itemKey := append([]byte(listSpace+key+sep), next...)
		return txn.Set(itemKey, []byte(value))
	})
}

func (b *Badger) LRange(ctx context.Context, key string) ([]string, error) {
	prefix := []byte(listSpace + key + sep)
	values := []string{}
	err := b.view(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		// Big-endian sequence numbers iterate in push order.
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			v, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			values = append(values, string(v))
		}
		return nil
	})
	return values, err
}

func (b *Badger) Close() error {
	return b.db.Close()
}

func prefixKeys(txn *badger.Txn, prefix []byte) [][]byte {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	var keys [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	return keys
}

// badgerLogger routes badger's own logging into slog.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...any) {
	slog.Error(fmt.Sprintf(format, args...), "component", "badger")
}

func (badgerLogger) Warningf(format string, args ...any) {
	slog.Warn(fmt.Sprintf(format, args...), "component", "badger")
}

// Badger is chatty at info level; keep it at debug.
func (badgerLogger) Infof(format string, args ...any) {
	slog.Debug(fmt.Sprintf(format, args...), "component", "badger")
}

func (badgerLogger) Debugf(format string, args ...any) {
	slog.Debug(fmt.Sprintf(format, args...), "component", "badger")
}
