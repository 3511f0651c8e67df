// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesHandled counts chat turns by the route that answered them
	// (greeting, contact, lookup, negotiation, machine, generator, help).
	MessagesHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collabmatch_messages_handled_total",
			Help: "Total number of chat messages handled, by route",
		},
		[]string{"route"},
	)

	MatchRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collabmatch_match_runs_total",
			Help: "Total number of match runs, by direction and outcome",
		},
		[]string{"direction", "outcome"},
	)

	MatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "collabmatch_match_duration_seconds",
			Help: "Duration of match runs in seconds",
		},
		[]string{"direction"},
	)

	ValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collabmatch_validation_failures_total",
			Help: "Total number of rejected slot answers, by slot",
		},
		[]string{"slot"},
	)

	GenerationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "collabmatch_generation_failures_total",
			Help: "Total number of reply generator failures answered with the fallback",
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "collabmatch_active_sessions",
			Help: "Number of conversation sessions held in memory",
		},
	)

	Registrations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collabmatch_registrations_total",
			Help: "Total number of registered entities, by kind",
		},
		[]string{"kind"},
	)
)
