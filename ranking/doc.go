// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package ranking scores poll votes and decides what a close writes back.
//
// Nothing here does I/O. A like counts +1 and a dislike -1; the normalized
// score divides by the participant count (at least 1). The winner is reset
// to the maximum popularity; every other offered candidate is multiplied by
// max(0.5, normalized score).
package ranking
