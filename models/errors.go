// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"errors"
	"fmt"
)

var (
	ErrSessionAlreadyActive = errors.New("a poll session is already active")
	ErrNoActiveSession      = errors.New("no active poll session")
	ErrPollClosing          = errors.New("poll is closing")
	ErrUnknownCandidate     = errors.New("unknown candidate")
	ErrDuplicateCandidate   = errors.New("candidate already exists")
	ErrDuplicateInSession   = errors.New("candidate already offered in this poll")
	ErrNoMoreCandidates     = errors.New("no more candidates")
	ErrStoreUnavailable     = errors.New("store unavailable")
)

// StoreError wraps an I/O failure from a backing store.
// errors.Is matches both ErrStoreUnavailable and the underlying cause.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, ErrStoreUnavailable, e.Err)
}

func (e *StoreError) Unwrap() []error {
	return []error{ErrStoreUnavailable, e.Err}
}

// Unavailable wraps err as a StoreError, or returns nil for a nil err.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}
