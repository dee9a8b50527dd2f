// SPDX-License-Identifier: MIT
// Grounded on server/service/metrics/metrics.go's promauto package-var
// registry, trimmed from a search engine's HTTP/DB/cache/search metric
// families down to the job-queue daemon's admission/scheduling/auth
// surface.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TasksAdmittedTotal counts tasks the scheduler has started.
	TasksAdmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "queued_tasks_admitted_total",
		Help: "Total number of tasks admitted and started by the scheduler.",
	})

	// TasksRejectedTotal counts admission passes that rejected a
	// candidate for lack of CPU or memory headroom.
	TasksRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "queued_tasks_rejected_total",
		Help: "Total number of admission attempts rejected for insufficient weighted capacity.",
	})

	// TasksFinishedTotal counts child processes that have exited,
	// labeled by reason. The scheduler records every exit under the
	// single reason "exit"; natural completions and forced stops are
	// not told apart.
	TasksFinishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "queued_tasks_finished_total",
		Help: "Total number of tasks that finished, labeled by how they finished.",
	}, []string{"reason"})

	// LiveTasks is the current number of running child processes.
	LiveTasks = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "queued_tasks_live",
		Help: "Number of tasks currently running.",
	})

	// PendingTasks is the current number of tasks awaiting admission.
	PendingTasks = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "queued_tasks_pending",
		Help: "Number of tasks waiting for admission.",
	})

	// WeightedCPUInUse and WeightedMemoryInUse track the scheduler's
	// current admitted-weight totals, each in [0,1].
	WeightedCPUInUse = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "queued_weighted_cpu_in_use",
		Help: "Fraction of host CPU weight currently committed to live tasks.",
	})
	WeightedMemoryInUse = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "queued_weighted_memory_in_use",
		Help: "Fraction of host memory weight currently committed to live tasks.",
	})

	// AuthAttemptsTotal counts /auth calls, labeled by outcome.
	AuthAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "queued_auth_attempts_total",
		Help: "Total number of authentication attempts.",
	}, []string{"outcome"})

	// ActiveTokens is the current number of unexpired bearer tokens.
	ActiveTokens = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "queued_active_tokens",
		Help: "Number of currently valid bearer tokens.",
	})

	// RetentionSweepsTotal counts retention sweep firings, labeled by
	// which table's cleanup ran.
	RetentionSweepsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "queued_retention_sweeps_total",
		Help: "Total number of retention sweep passes, labeled by table.",
	}, []string{"table", "outcome"})
)

// Handler returns the standard Prometheus scrape endpoint for wiring
// into the HTTP router's /metrics route.
func Handler() http.Handler {
	return promhttp.Handler()
}
