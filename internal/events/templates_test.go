package events

import (
	"testing"
	"time"
)

func TestMessageTemplateEngine_Render(t *testing.T) {
	engine := NewMessageTemplateEngine()

	tests := []struct {
		name   string
		reason Reason
		data   MessageData
		want   string
	}{
		{
			name:   "running after starting",
			reason: ReasonJobRunning,
			data:   MessageData{Name: "job-7", AppID: 42, OldState: "STARTING"},
			want:   "Flink job 42 on job-7 is running (was STARTING)",
		},
		{
			name:   "running from unknown drops previous state",
			reason: ReasonJobRunning,
			data:   MessageData{Name: "job-7", AppID: 42, OldState: "UNKNOWN"},
			want:   "Flink job 42 on job-7 is running",
		},
		{
			name:   "satisfied via watch",
			reason: ReasonExpectationSatisfied,
			data:   MessageData{Name: "job-7", AppID: 42, Expected: "CANCELLED", Source: "watch"},
			want:   "Flink job 42 on job-7 reached expected state CANCELLED via watch",
		},
		{
			name:   "timeout without age",
			reason: ReasonExpectationTimeout,
			data:   MessageData{Name: "job-7", AppID: 42, Expected: "RUNNING"},
			want:   "Flink job 42 on job-7 did not reach RUNNING",
		},
		{
			name:   "timeout with age",
			reason: ReasonExpectationTimeout,
			data:   MessageData{Name: "job-7", AppID: 42, Expected: "RUNNING", NewState: "STARTING", Age: 90 * time.Second},
			want:   "Flink job 42 on job-7 did not reach RUNNING within 1m30s, last observed STARTING",
		},
		{
			name:   "unknown reason falls back",
			reason: Reason("Other"),
			data:   MessageData{Name: "job-7", Namespace: "prod"},
			want:   "Event: Other for prod/job-7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := engine.Render(tt.reason, tt.data); got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMessageTemplateEngine_SetTemplate(t *testing.T) {
	engine := NewMessageTemplateEngine()
	engine.SetTemplate(ReasonJobLost, "{{.Namespace}}/{{.Name}} gone")

	tmpl, ok := engine.GetTemplate(ReasonJobLost)
	if !ok || tmpl != "{{.Namespace}}/{{.Name}} gone" {
		t.Fatalf("GetTemplate() = %q, %v", tmpl, ok)
	}

	got := engine.Render(ReasonJobLost, MessageData{Name: "job-7", Namespace: "prod"})
	if got != "prod/job-7 gone" {
		t.Errorf("Render() = %q", got)
	}
}
