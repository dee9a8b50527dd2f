// SPDX-License-Identifier: MIT
package scheduler

import (
	"testing"

	"github.com/queued/queued/internal/model"
)

func TestSortByNiceThenID(t *testing.T) {
	tasks := []model.Task{
		{ID: 3, Nice: 0},
		{ID: 1, Nice: 5},
		{ID: 2, Nice: 0},
	}
	sortByNiceThenID(tasks)
	wantOrder := []int64{2, 3, 1}
	for i, want := range wantOrder {
		if tasks[i].ID != want {
			t.Fatalf("position %d = task %d, want task %d", i, tasks[i].ID, want)
		}
	}
}

func TestRejectAdmissionOnlyWhenBothAxesInsufficient(t *testing.T) {
	cases := []struct {
		name                       string
		usedCPU, cpuW, usedMem, memW float64
		want                       bool
	}{
		{"both fit", 0.1, 0.2, 0.1, 0.2, false},
		{"cpu overflow, mem exact fit", 0.5, 0.75, 0.0, 1.0, false},
		{"both overflow", 0.5, 0.75, 0.9, 0.5, true},
		{"cpu fits, mem overflows", 0.1, 0.2, 0.9, 0.5, false},
	}
	for _, c := range cases {
		got := rejectAdmission(c.usedCPU, c.cpuW, c.usedMem, c.memW)
		if got != c.want {
			t.Fatalf("%s: rejectAdmission() = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestSplitArgumentsRoundTrips(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", []string{""}},
		{"--flag", []string{"--flag"}},
		{"--flag\nvalue\n--other", []string{"--flag", "value", "--other"}},
	}
	for _, c := range cases {
		got := splitArguments(c.in)
		if len(got) != len(c.want) {
			t.Fatalf("splitArguments(%q) = %v, want %v", c.in, got, c.want)
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Fatalf("splitArguments(%q)[%d] = %q, want %q", c.in, i, got[i], c.want[i])
			}
		}
	}
}
