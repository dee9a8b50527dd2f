// SPDX-License-Identifier: MIT
// C11: periodic cleanup sweep over tasks/tokens/users.
//
// Grounded on server/service/scheduler's robfig/cron/v3 usage for
// periodic jobs, generalized from "run N independently-scheduled named
// jobs" to "run one cutoff-cleanup sweep on the DatabaseInterval
// setting, with each table's cleanup isolated so one failing DELETE
// never blocks the others".
package retention

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/queued/queued/internal/logging"
	"github.com/queued/queued/internal/metrics"
	"github.com/queued/queued/internal/settings"
	"github.com/queued/queued/internal/store"
)

// Timer is C11's periodic sweep driver.
type Timer struct {
	st       *store.Store
	settings *settings.Settings
	log      *logging.Logger
	cron     *cron.Cron
	entryID  cron.EntryID
}

// New constructs a Timer bound to the store and settings cache.
func New(st *store.Store, set *settings.Settings, log *logging.Logger) *Timer {
	return &Timer{st: st, settings: set, log: log, cron: cron.New()}
}

// Start schedules the sweep on the current DatabaseInterval setting (in
// milliseconds) and begins running it. Call Stop to halt.
func (t *Timer) Start(ctx context.Context) error {
	interval := t.intervalMs()
	spec := "@every " + time.Duration(interval*int64(time.Millisecond)).String()

	id, err := t.cron.AddFunc(spec, func() { t.sweep(ctx) })
	if err != nil {
		return err
	}
	t.entryID = id
	t.cron.Start()
	return nil
}

// Stop halts the cron scheduler and waits for any in-flight sweep.
func (t *Timer) Stop() {
	c := t.cron.Stop()
	<-c.Done()
}

// SweepNow runs one cleanup pass immediately, outside the cron
// schedule.
func (t *Timer) SweepNow(ctx context.Context) {
	t.sweep(ctx)
}

// sweep independently cleans tasks, tokens, and users per spec.md §4.11:
// a KeepX setting of 0 means "keep forever" (skip that table), and a
// failure cleaning one table never prevents the others from running.
func (t *Timer) sweep(ctx context.Context) {
	now := time.Now()

	if keepMs := t.keepMs("KeepTasks"); keepMs > 0 {
		cutoff := store.FormatTime(now.Add(-time.Duration(keepMs) * time.Millisecond))
		if err := t.st.RemoveTasks(ctx, cutoff); err != nil {
			t.log.Warn("task retention sweep failed", map[string]any{"err": err.Error()})
			metrics.RetentionSweepsTotal.WithLabelValues("tasks", "error").Inc()
		} else {
			metrics.RetentionSweepsTotal.WithLabelValues("tasks", "ok").Inc()
		}
	}

	// Tokens are always swept against "now" — an expired token is never
	// kept, regardless of KeepTasks/KeepUsers.
	if err := t.st.RemoveTokens(ctx, store.FormatTime(now)); err != nil {
		t.log.Warn("token retention sweep failed", map[string]any{"err": err.Error()})
		metrics.RetentionSweepsTotal.WithLabelValues("tokens", "error").Inc()
	} else {
		metrics.RetentionSweepsTotal.WithLabelValues("tokens", "ok").Inc()
	}

	if keepMs := t.keepMs("KeepUsers"); keepMs > 0 {
		cutoff := store.FormatTime(now.Add(-time.Duration(keepMs) * time.Millisecond))
		if err := t.st.RemoveUsers(ctx, cutoff); err != nil {
			t.log.Warn("user retention sweep failed", map[string]any{"err": err.Error()})
			metrics.RetentionSweepsTotal.WithLabelValues("users", "error").Inc()
		} else {
			metrics.RetentionSweepsTotal.WithLabelValues("users", "ok").Inc()
		}
	}
}

func (t *Timer) intervalMs() int64 {
	return parseMs(t.settings.Get("DatabaseInterval"), 86400000)
}

func (t *Timer) keepMs(key string) int64 {
	return parseMs(t.settings.Get(key), 0)
}

func parseMs(s string, fallback int64) int64 {
	if s == "" {
		return fallback
	}
	var n int64
	for _, c := range s {
		if c < '0' || c > '9' {
			return fallback
		}
		n = n*10 + int64(c-'0')
	}
	return n
}
