// SPDX-License-Identifier: MIT
package process

import (
	"testing"

	"github.com/queued/queued/internal/model"
)

func TestNameIsTaskScoped(t *testing.T) {
	p := New(model.Task{ID: 42})
	if got, want := p.Name(), "queued-task-42"; got != want {
		t.Fatalf("Name() = %q, want %q", got, want)
	}
}

func TestNewDefaultsWorkingDirectory(t *testing.T) {
	p := New(model.Task{ID: 1})
	if p.Task().WorkingDirectory == "" {
		t.Fatal("expected a non-empty default working directory")
	}
}

func TestLogPathsAreDistinctAndScoped(t *testing.T) {
	p := New(model.Task{ID: 7, WorkingDirectory: "/tmp/queued-test"})
	out, errp := p.LogOutput(), p.LogError()
	if out == errp {
		t.Fatal("stdout and stderr logs must not collide")
	}
	for _, path := range []string{out, errp} {
		if want := "queued-task-7"; !contains(path, want) {
			t.Fatalf("path %q missing task name %q", path, want)
		}
	}
}

func TestChildDeathSignalFollowsOnExitAction(t *testing.T) {
	cases := []struct {
		action model.OnExitAction
		want   string
	}{
		{model.OnExitTerminate, "terminated"},
		{model.OnExitKill, "killed"},
	}
	for _, c := range cases {
		sig := ChildDeathSignal(c.action)
		if sig.String() != c.want {
			t.Errorf("ChildDeathSignal(%v) = %v, want %v", c.action, sig, c.want)
		}
	}
}

func TestWaitBeforeStartErrors(t *testing.T) {
	p := New(model.Task{ID: 1})
	if err := p.Wait(); err == nil {
		t.Fatal("expected Wait on an unstarted process to error")
	}
}

func TestPidZeroBeforeStart(t *testing.T) {
	p := New(model.Task{ID: 1})
	if p.Pid() != 0 {
		t.Fatalf("Pid() = %d before Start, want 0", p.Pid())
	}
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && indexOf(s, substr) >= 0
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
