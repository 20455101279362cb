package queue

import (
	"encoding/json"
	"testing"
)

func TestJobGeneration(t *testing.T) {
	job, err := NewGenerationJob(GenerationPayload{JobID: 7, VideoID: 3, UserID: 1})
	if err != nil {
		t.Fatalf("NewGenerationJob() error = %v", err)
	}
	if job.ID == "" {
		t.Error("envelope id is empty")
	}
	p, err := job.Generation()
	if err != nil {
		t.Fatalf("Generation() error = %v", err)
	}
	if p.JobID != 7 || p.VideoID != 3 || p.UserID != 1 {
		t.Errorf("payload = %+v", p)
	}
}

func TestJobGeneration_Rejects(t *testing.T) {
	tests := []struct {
		name string
		job  Job
	}{
		{"wrong type", Job{Type: "email", Payload: json.RawMessage(`{"video_id":1,"user_id":1}`)}},
		{"bad json", Job{Type: JobTypeGenerateClips, Payload: json.RawMessage(`{`)}},
		{"missing ids", Job{Type: JobTypeGenerateClips, Payload: json.RawMessage(`{"job_id":1}`)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.job.Generation(); err == nil {
				t.Error("Generation() error = nil, want error")
			}
		})
	}
}
