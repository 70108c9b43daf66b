// Package metrics exposes Prometheus collectors for the automation engines.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var XPAwards = promauto.NewCounter(prometheus.CounterOpts{
	Name: "xlzr_xp_awards_total",
	Help: "Number of XP awards granted",
})

var LevelUps = promauto.NewCounter(prometheus.CounterOpts{
	Name: "xlzr_level_ups_total",
	Help: "Number of level-ups",
})

var WarningsIssued = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "xlzr_warnings_total",
	Help: "Warning attempts by result",
}, []string{"result"})

var Escalations = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "xlzr_escalations_total",
	Help: "Automatic kicks and bans by action and result",
}, []string{"action", "result"})

var Verifications = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "xlzr_verifications_total",
	Help: "Verification attempts by source and result",
}, []string{"source", "result"})

var RoleChanges = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "xlzr_keyword_role_changes_total",
	Help: "Keyword role synchronisation results",
}, []string{"change"})

var SweepRecords = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "xlzr_sweep_records_total",
	Help: "Verification records processed by the sweep, by status",
}, []string{"status"})

var SweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "xlzr_sweep_duration_seconds",
	Help:    "Duration of reconciliation sweeps",
	Buckets: prometheus.ExponentialBuckets(1, 2, 12),
})

var LookupDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "xlzr_profile_lookup_duration_seconds",
	Help:    "Duration of external profile lookups",
	Buckets: prometheus.DefBuckets,
}, []string{"result"})

var Flushes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "xlzr_state_flushes_total",
	Help: "State flushes by result",
}, []string{"result"})

var SkippedTicks = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "xlzr_scheduler_skipped_ticks_total",
	Help: "Scheduler ticks skipped because the previous run was still in progress",
}, []string{"task"})
