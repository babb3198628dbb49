// Package services – domain metrics
//
// This file exposes Prometheus collectors for game activity. Label sets are
// kept small and closed (award source, streak day) so cardinality stays
// bounded. All collectors are safe for concurrent use.
package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// xpAwards counts successful XP awards and their totals by source.
	xpAwards = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "game_xp_awards_total",
			Help: "Total number of successful XP awards.",
		},
		[]string{"source"},
	)

	// xpAwarded sums the XP actually granted by source.
	xpAwarded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "game_xp_awarded_points_total",
			Help: "Total XP points granted.",
		},
		[]string{"source"},
	)

	// levelUps counts awards that raised the user's level.
	levelUps = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "game_level_ups_total",
			Help: "Total number of level-ups across all users.",
		},
	)

	// questCompletions counts completed quests.
	questCompletions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "game_quest_completions_total",
			Help: "Total number of quest completions.",
		},
	)

	// dailyClaims counts daily-reward claims by streak day ("1".."7").
	dailyClaims = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "game_daily_claims_total",
			Help: "Total number of daily reward claims.",
		},
		[]string{"streak_day"},
	)
)

func init() {
	prometheus.MustRegister(xpAwards, xpAwarded, levelUps, questCompletions, dailyClaims)
}
