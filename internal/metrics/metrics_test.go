// SPDX-License-Identifier: MIT
package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestTasksAdmittedTotalIncrements(t *testing.T) {
	before := testutil.ToFloat64(TasksAdmittedTotal)
	TasksAdmittedTotal.Inc()
	after := testutil.ToFloat64(TasksAdmittedTotal)
	if after != before+1 {
		t.Fatalf("TasksAdmittedTotal = %v, want %v", after, before+1)
	}
}

func TestTasksFinishedTotalLabelsIndependently(t *testing.T) {
	before := testutil.ToFloat64(TasksFinishedTotal.WithLabelValues("completed"))
	TasksFinishedTotal.WithLabelValues("completed").Inc()
	after := testutil.ToFloat64(TasksFinishedTotal.WithLabelValues("completed"))
	if after != before+1 {
		t.Fatalf("TasksFinishedTotal{completed} = %v, want %v", after, before+1)
	}
	// A different label value must not be affected.
	stopped := testutil.ToFloat64(TasksFinishedTotal.WithLabelValues("stopped"))
	TasksFinishedTotal.WithLabelValues("completed").Inc()
	if got := testutil.ToFloat64(TasksFinishedTotal.WithLabelValues("stopped")); got != stopped {
		t.Fatalf("TasksFinishedTotal{stopped} changed to %v after incrementing completed", got)
	}
}

func TestHandlerServesPrometheusFormat(t *testing.T) {
	LiveTasks.Set(2)
	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "queued_tasks_live") {
		t.Fatalf("response body missing queued_tasks_live metric family")
	}
}
