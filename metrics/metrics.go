// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/danielhkuo/lunch-poll/models"
)

const namespace = "lunchpoll"

// Decay write outcomes.
const (
	OutcomeApplied = "applied"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// Poll holds the controller's collectors. A nil *Poll is valid and records
// nothing.
type Poll struct {
	sessionsStarted prometheus.Counter
	sessionsClosed  prometheus.Counter
	votes           *prometheus.CounterVec
	candidatesAdded prometheus.Counter
	scoreWrites     *prometheus.CounterVec
	closeDuration   prometheus.Histogram
}

// New registers the poll collectors with reg.
func New(reg prometheus.Registerer) *Poll {
	factory := promauto.With(reg)
	return &Poll{
		sessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "number of poll sessions started",
		}),
		sessionsClosed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_closed_total",
			Help:      "number of poll sessions closed",
		}),
		votes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_total",
			Help:      "votes cast, by preference kind",
		}, []string{"kind"}),
		candidatesAdded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_added_total",
			Help:      "candidates offered in a poll after it started",
		}),
		scoreWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "score_writes_total",
			Help:      "close-time score writes, by role and outcome",
		}, []string{"role", "outcome"}),
		closeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "close_duration_seconds",
			Help:      "time spent closing a poll",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func (p *Poll) SessionStarted() {
	if p == nil {
		return
	}
	p.sessionsStarted.Inc()
}

func (p *Poll) SessionClosed(d time.Duration) {
	if p == nil {
		return
	}
	p.sessionsClosed.Inc()
	p.closeDuration.Observe(d.Seconds())
}

func (p *Poll) Vote(kind models.PreferenceKind) {
	if p == nil {
		return
	}
	p.votes.WithLabelValues(string(kind)).Inc()
}

func (p *Poll) CandidateAdded() {
	if p == nil {
		return
	}
	p.candidatesAdded.Inc()
}

// ScoreWrite records one close-time write. role is "winner" or "decay".
func (p *Poll) ScoreWrite(winner bool, outcome string) {
	if p == nil {
		return
	}
	role := "decay"
	if winner {
		role = "winner"
	}
	p.scoreWrites.WithLabelValues(role, outcome).Inc()
}
