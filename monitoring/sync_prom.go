// Copyright 2025 l3montree UG (haftungsbeschraenkt).
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var SweepScheduleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "policyhub_sweep_schedule_duration_seconds",
	Help:    "Duration of scheduling one fan-out sweep in seconds",
	Buckets: prometheus.DefBuckets,
})

var FanoutTasksScheduled = promauto.NewCounter(prometheus.CounterOpts{
	Name: "policyhub_fanout_tasks_scheduled_total",
	Help: "The total number of per-project reconciliation tasks scheduled",
})

var ReconcileDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "policyhub_reconcile_duration_seconds",
	Help:    "Duration of one per-project reconciliation in seconds",
	Buckets: prometheus.DefBuckets,
})

var ReconcileSucceeded = promauto.NewCounter(prometheus.CounterOpts{
	Name: "policyhub_reconcile_succeeded_total",
	Help: "The total number of successful per-project reconciliations",
})

var ReconcileFailed = promauto.NewCounter(prometheus.CounterOpts{
	Name: "policyhub_reconcile_failed_total",
	Help: "The total number of failed per-project reconciliations",
})

var TasksEnqueued = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "policyhub_tasks_enqueued_total",
	Help: "The total number of tasks enqueued per kind",
}, []string{"kind"})

var TasksDeduplicated = promauto.NewCounter(prometheus.CounterOpts{
	Name: "policyhub_tasks_deduplicated_total",
	Help: "The total number of task enqueues collapsed by the dedup key",
})

var QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "policyhub_queue_depth",
	Help: "The number of pending tasks in the queue",
})
