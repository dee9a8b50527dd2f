// SPDX-License-Identifier: MIT
// C6: task entity + OS child-process wrapper.
//
// Grounded on server/daemon/daemon_unix.go's exec.Command + SysProcAttr
// re-exec pattern and server/signal/signal_unix.go's SIGTERM-then-SIGKILL
// shutdown policy, generalized from "daemonize myself" to "supervise one
// child task".
package process

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/queued/queued/internal/model"
)

// Process wraps one task's live (or about-to-be-live) OS child.
type Process struct {
	mu      sync.Mutex
	task    model.Task
	cmd     *exec.Cmd
	started bool
}

// New constructs a Process from a task row; WorkingDirectory defaults to
// the system temp directory when unset, per spec.md §4.6.
func New(task model.Task) *Process {
	if task.WorkingDirectory == "" {
		task.WorkingDirectory = os.TempDir()
	}
	return &Process{task: task}
}

// Task returns the wrapped task row.
func (p *Process) Task() model.Task {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.task
}

// Name is "queued-task-<id>", per spec.md §4.6.
func (p *Process) Name() string {
	return fmt.Sprintf("queued-task-%d", p.task.ID)
}

// LogOutput/LogError are the derived append-mode log file paths.
func (p *Process) LogOutput() string {
	return filepath.Join(p.task.WorkingDirectory, p.Name()+"-out.log")
}
func (p *Process) LogError() string {
	return filepath.Join(p.task.WorkingDirectory, p.Name()+"-err.log")
}

// NativeLimits parses the task's persisted limits string.
func (p *Process) NativeLimits() model.Limits {
	return p.task.Limits
}

// ChildDeathSignal maps the on-exit policy to the signal a child should
// receive if its parent (the daemon) dies unexpectedly, per spec.md §4.6
// step 3.
func ChildDeathSignal(action model.OnExitAction) syscall.Signal {
	if action == model.OnExitTerminate {
		return syscall.SIGTERM
	}
	return syscall.SIGKILL
}

// Start launches the child per spec.md §4.6 steps 2-3: stdout/stderr
// redirected to append-mode log files, and — in the child context, before
// exec — parent-death-signal, setgid, then setuid. Step 1 (resource group
// creation) and step 4 (PID attach) are the caller's responsibility
// (internal/scheduler), since they need the constructed *os.Process pid.
func (p *Process) Start(deathSignal syscall.Signal) (pid int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return 0, fmt.Errorf("process: task %d already started", p.task.ID)
	}

	outFile, err := os.OpenFile(p.LogOutput(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return 0, fmt.Errorf("process: opening stdout log: %w", err)
	}
	errFile, err := os.OpenFile(p.LogError(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		outFile.Close()
		return 0, fmt.Errorf("process: opening stderr log: %w", err)
	}

	cmd := exec.Command(p.task.Command, p.task.Arguments...)
	cmd.Dir = p.task.WorkingDirectory
	cmd.Stdout = outFile
	cmd.Stderr = errFile
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Pdeathsig:  deathSignal,
		Credential: &syscall.Credential{Uid: uint32(p.task.UID), Gid: uint32(p.task.GID)},
	}

	if err := cmd.Start(); err != nil {
		outFile.Close()
		errFile.Close()
		return 0, fmt.Errorf("process: starting task %d: %w", p.task.ID, err)
	}

	p.cmd = cmd
	p.started = true
	return cmd.Process.Pid, nil
}

// Wait blocks until the child exits, returning its error (nil on a clean
// exit). Callers run this on its own goroutine and marshal the resulting
// finish event onto the scheduler's serializer.
func (p *Process) Wait() error {
	p.mu.Lock()
	cmd := p.cmd
	p.mu.Unlock()
	if cmd == nil {
		return fmt.Errorf("process: task %d never started", p.task.ID)
	}
	return cmd.Wait()
}

// ChownLogs changes ownership of the two log files to the task's
// uid/gid, best-effort, per spec.md §4.6 finish handling.
func (p *Process) ChownLogs() {
	_ = os.Chown(p.LogOutput(), p.task.UID, p.task.GID)
	_ = os.Chown(p.LogError(), p.task.UID, p.task.GID)
}

// KillChildren sends SIGTERM to every descendant of the root child, then
// SIGKILL to any still alive, per spec.md §4.6.
func (p *Process) KillChildren() {
	p.mu.Lock()
	cmd := p.cmd
	p.mu.Unlock()
	if cmd == nil || cmd.Process == nil {
		return
	}
	for _, pid := range ChildrenPids(cmd.Process.Pid) {
		_ = syscall.Kill(pid, syscall.SIGTERM)
	}
	time.Sleep(200 * time.Millisecond)
	for _, pid := range ChildrenPids(cmd.Process.Pid) {
		_ = syscall.Kill(pid, syscall.SIGKILL)
	}
}

// Stop issues SIGTERM or SIGKILL (per the current on-exit policy) to the
// root child, after first calling KillChildren, per spec.md §4.6.
func (p *Process) Stop(action model.OnExitAction) error {
	p.KillChildren()
	p.mu.Lock()
	cmd := p.cmd
	p.mu.Unlock()
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	return cmd.Process.Signal(ChildDeathSignal(action))
}

// Pid returns the root child's OS pid, or 0 if not yet started.
func (p *Process) Pid() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd == nil || p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}
