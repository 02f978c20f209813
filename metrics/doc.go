// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package metrics defines the Prometheus collectors for poll activity.
//
// All series live under the lunchpoll_ namespace:
//
//	lunchpoll_sessions_started_total
//	lunchpoll_sessions_closed_total
//	lunchpoll_votes_total{kind}
//	lunchpoll_candidates_added_total
//	lunchpoll_score_writes_total{role,outcome}
//	lunchpoll_close_duration_seconds
//
// The router serves them on /metrics.
package metrics
