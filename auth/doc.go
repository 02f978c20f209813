// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth verifies that inbound requests come from the chat surface.

The chat surface signs each request body with a shared secret:

	base      = "v0:" + timestamp + ":" + body
	signature = "v0=" + hex(HMAC-SHA256(secret, base))

and sends the timestamp and signature as headers. Verify recomputes the
signature and compares it in constant time:

	err := auth.Verify(secret, r.Header.Get("X-Signature-Timestamp"),
		r.Header.Get("X-Signature"), body, time.Now())

Requests older or newer than MaxSkew (5 minutes) are rejected with
ErrStaleTimestamp to limit replays.

Sign produces the same header value and is used by tests and by clients
that need to call the API directly.

This authenticates the transport only. Voter identity is whatever the
chat surface asserts in X-User-ID.
*/
package auth
