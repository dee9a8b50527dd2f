// SPDX-License-Identifier: MIT
// C7: weighted admission engine + single-serializer task lifecycle.
//
// Grounded on server/service/scheduler's mutex-guarded task table and
// goroutine-driven run loop, generalized from "run registered funcs on a
// cron/interval schedule" to "admit pending tasks against live resource
// weight and supervise their OS children". The single-serializer
// dispatch loop (a buffered channel of closures drained by one
// goroutine) follows the same "one owner goroutine mutates state"
// discipline the teacher's scheduler.mu enforces, generalized to also
// marshal asynchronous child-exit events without racing admission.
package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/queued/queued/internal/apierrors"
	"github.com/queued/queued/internal/logging"
	"github.com/queued/queued/internal/metrics"
	"github.com/queued/queued/internal/model"
	"github.com/queued/queued/internal/process"
	"github.com/queued/queued/internal/resourcegroup"
	"github.com/queued/queued/internal/settings"
	"github.com/queued/queued/internal/store"
)

// FinishWatcher is notified once a task's process exits (successfully or
// not), after bookkeeping (EndTime, resource-group teardown) completes.
type FinishWatcher func(task model.Task)

// running is the live supervision state for one admitted task.
type running struct {
	task  model.Task
	proc  *process.Process
	group *resourcegroup.ResourceGroup
}

// Scheduler is C7: it owns the pending queue and the live-task table,
// and is the only component that starts or stops OS children.
type Scheduler struct {
	st       *store.Store
	settings *settings.Settings
	log      *logging.Logger

	mu      sync.Mutex
	pending map[int64]model.Task
	live    map[int64]*running

	cmds   chan func()
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	watchers []FinishWatcher
}

// New constructs a Scheduler bound to the given store and settings
// cache. Call Start to begin processing.
func New(st *store.Store, set *settings.Settings, log *logging.Logger) *Scheduler {
	return &Scheduler{
		st:       st,
		settings: set,
		log:      log,
		pending:  make(map[int64]model.Task),
		live:     make(map[int64]*running),
		cmds:     make(chan func(), 256),
	}
}

// OnFinish registers a watcher invoked (from the serializer goroutine)
// whenever a task completes.
func (s *Scheduler) OnFinish(w FinishWatcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchers = append(s.watchers, w)
}

// Start launches the serializer goroutine and loads every non-finished
// task from the store, running one admission pass afterward, per
// spec.md §4.7's startup contract.
func (s *Scheduler) Start(ctx context.Context, rows []store.Row) {
	runCtx, cancel := context.WithCancel(ctx)
	s.ctx = runCtx
	s.cancel = cancel

	s.wg.Add(1)
	go s.serialize(runCtx)

	for _, r := range rows {
		task := rowToTask(r)
		if task.ComputeState() != model.StateFinished {
			s.submitLocked(task)
		}
	}
	s.Dispatch(s.admit)
}

// Stop cancels the serializer loop and waits for it to drain.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// Dispatch marshals fn onto the single serializer goroutine. All
// mutation of pending/live state must go through this.
func (s *Scheduler) Dispatch(fn func()) {
	s.cmds <- fn
}

func (s *Scheduler) serialize(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-s.cmds:
			fn()
		}
	}
}

// Submit enqueues a new pending task and runs one admission pass.
func (s *Scheduler) Submit(task model.Task) {
	s.Dispatch(func() {
		s.submitLocked(task)
		s.admit()
	})
}

func (s *Scheduler) submitLocked(task model.Task) {
	s.mu.Lock()
	s.pending[task.ID] = task
	s.mu.Unlock()
}

// admit runs the weighted admission algorithm over every pending task,
// in nice-then-id order, per spec.md §4.5/§4.7: a task is rejected
// only if both its CPU weight and its memory weight overflow the
// remaining host capacity (see rejectAdmission), so a task that fits on
// either axis is started; rejected tasks stay pending and are
// reconsidered on the next pass.
func (s *Scheduler) admit() {
	s.mu.Lock()
	candidates := make([]model.Task, 0, len(s.pending))
	for _, t := range s.pending {
		candidates = append(candidates, t)
	}
	usedCPU, usedMem := s.usedWeightLocked()
	s.mu.Unlock()

	sortByNiceThenID(candidates)

	for _, task := range candidates {
		cpuW := resourcegroup.CPUWeight(task.Limits.CPU)
		memW := resourcegroup.MemoryWeight(task.Limits.Memory)
		if rejectAdmission(usedCPU, cpuW, usedMem, memW) {
			metrics.TasksRejectedTotal.Inc()
			continue
		}
		if err := s.startLocked(task); err != nil {
			s.log.Error("admission start failed", map[string]any{"task": task.ID, "err": err.Error()})
			continue
		}
		usedCPU += cpuW
		usedMem += memW
		metrics.TasksAdmittedTotal.Inc()
	}

	s.mu.Lock()
	metrics.PendingTasks.Set(float64(len(s.pending)))
	metrics.LiveTasks.Set(float64(len(s.live)))
	metrics.WeightedCPUInUse.Set(usedCPU)
	metrics.WeightedMemoryInUse.Set(usedMem)
	s.mu.Unlock()
}

// rejectAdmission reports whether a candidate should stay pending: only
// when NEITHER its CPU weight nor its memory weight fits in remaining
// host capacity (an AND-of-insufficiency rejection, equivalently an
// OR-of-sufficiency admission), per spec.md §4.5/§4.7's admission-safety
// invariant.
func rejectAdmission(usedCPU, cpuWeight, usedMem, memWeight float64) bool {
	cpuInsufficient := usedCPU+cpuWeight > 1.0
	memInsufficient := usedMem+memWeight > 1.0
	return cpuInsufficient && memInsufficient
}

// sortByNiceThenID orders candidates ascending by nice, ties broken by
// ascending id, per spec.md §4.7's admission tie-break rule.
func sortByNiceThenID(tasks []model.Task) {
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].Nice != tasks[j].Nice {
			return tasks[i].Nice < tasks[j].Nice
		}
		return tasks[i].ID < tasks[j].ID
	})
}

// usedWeightLocked sums the CPU/memory weight of every currently live
// task. Callers must hold s.mu.
func (s *Scheduler) usedWeightLocked() (cpu, mem float64) {
	for _, r := range s.live {
		cpu += resourcegroup.CPUWeight(r.task.Limits.CPU)
		mem += resourcegroup.MemoryWeight(r.task.Limits.Memory)
	}
	return cpu, mem
}

// ForceStart bypasses admission entirely, per spec.md §4.7's
// administrative override.
func (s *Scheduler) ForceStart(task model.Task) error {
	errCh := make(chan error, 1)
	s.Dispatch(func() {
		errCh <- s.startLocked(task)
	})
	return <-errCh
}

func (s *Scheduler) startLocked(task model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	group := resourcegroup.New(task.ID)
	if err := group.Create(); err != nil {
		return err
	}
	if err := group.SetCPULimit(task.Limits.CPU); err != nil {
		return err
	}
	if err := group.SetMemoryLimit(task.Limits.Memory); err != nil {
		return err
	}

	proc := process.New(task)
	action := s.onExitAction()
	pid, err := proc.Start(process.ChildDeathSignal(action))
	if err != nil {
		_ = group.Remove()
		return err
	}
	if err := group.Attach(pid); err != nil {
		s.log.Warn("attach to resource group failed", map[string]any{"task": task.ID, "err": err.Error()})
	}

	now := time.Now()
	task.StartTime = &now
	delete(s.pending, task.ID)
	s.live[task.ID] = &running{task: task, proc: proc, group: group}

	if !s.st.Modify(s.ctx, store.TableTasks, task.ID, store.Row{"start_time": store.FormatTime(now)}) {
		s.log.Warn("persisting start_time failed", map[string]any{"task": task.ID})
	}

	go s.awaitExit(task.ID, proc)
	return nil
}

// awaitExit blocks on the child's exit and marshals the resulting
// finish event back onto the serializer, per spec.md §4.6/§4.7: the OS
// signal that a child exited must not race an in-flight admission pass.
func (s *Scheduler) awaitExit(taskID int64, proc *process.Process) {
	_ = proc.Wait()
	s.Dispatch(func() {
		s.finishLocked(taskID)
	})
}

func (s *Scheduler) finishLocked(taskID int64) {
	s.mu.Lock()
	r, ok := s.live[taskID]
	if !ok {
		s.mu.Unlock()
		return
	}
	delete(s.live, taskID)
	now := time.Now()
	r.task.EndTime = &now
	watchers := append([]FinishWatcher(nil), s.watchers...)
	s.mu.Unlock()

	if !s.st.Modify(s.ctx, store.TableTasks, taskID, store.Row{"end_time": store.FormatTime(now)}) {
		s.log.Warn("persisting end_time failed", map[string]any{"task": taskID})
	}

	r.proc.ChownLogs()
	if err := r.group.Remove(); err != nil {
		s.log.Warn("resource group teardown failed", map[string]any{"task": taskID, "err": err.Error()})
	}

	metrics.TasksFinishedTotal.WithLabelValues("exit").Inc()
	for _, w := range watchers {
		w(r.task)
	}
	s.admit()
}

// ForceStop stops a live task immediately, bypassing the normal
// on-exit policy lookup in favor of the caller-supplied action.
func (s *Scheduler) ForceStop(taskID int64, action model.OnExitAction) error {
	s.mu.Lock()
	r, ok := s.live[taskID]
	s.mu.Unlock()
	if !ok {
		return apierrors.New(apierrors.KindInvalidArgument, "task is not running")
	}
	return r.proc.Stop(action)
}

// onExitAction reads the current OnExitAction setting, defaulting to
// Kill per spec.md §3.
func (s *Scheduler) onExitAction() model.OnExitAction {
	v := s.settings.Get("OnExitAction")
	switch v {
	case "1":
		return model.OnExitTerminate
	default:
		return model.OnExitKill
	}
}

// IsLive reports whether taskID currently has a supervised OS child.
func (s *Scheduler) IsLive(taskID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.live[taskID]
	return ok
}

// LiveTasks returns a snapshot of every currently running task.
func (s *Scheduler) LiveTasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Task, 0, len(s.live))
	for _, r := range s.live {
		out = append(out, r.task)
	}
	return out
}

// PendingTasks returns a snapshot of every not-yet-admitted task.
func (s *Scheduler) PendingTasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Task, 0, len(s.pending))
	for _, t := range s.pending {
		out = append(out, t)
	}
	return out
}

func rowToTask(r store.Row) model.Task {
	t := model.Task{}
	if v, ok := r["_id"].(int64); ok {
		t.ID = v
	}
	if v, ok := r["user_id"].(int64); ok {
		t.UserID = v
	}
	if v, ok := r["command"].(string); ok {
		t.Command = v
	}
	if v, ok := r["working_directory"].(string); ok {
		t.WorkingDirectory = v
	}
	if v, ok := r["uid"].(int64); ok {
		t.UID = int(v)
	}
	if v, ok := r["gid"].(int64); ok {
		t.GID = int(v)
	}
	if v, ok := r["nice"].(int64); ok {
		t.Nice = int(v)
	}
	if v, ok := r["limits"].(string); ok {
		t.Limits = model.DecodeLimits(v)
	}
	if v, ok := r["arguments"].(string); ok && v != "" {
		t.Arguments = splitArguments(v)
	}
	if v, ok := r["start_time"].(string); ok && v != "" {
		if ts, err := store.ParseTime(v); err == nil {
			t.StartTime = &ts
		}
	}
	if v, ok := r["end_time"].(string); ok && v != "" {
		if ts, err := store.ParseTime(v); err == nil {
			t.EndTime = &ts
		}
	}
	return t
}

// splitArguments decodes the newline-joined argument wire encoding used
// when persisting a Task row, mirroring EncodeLimits' LF-join scheme.
func splitArguments(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}
