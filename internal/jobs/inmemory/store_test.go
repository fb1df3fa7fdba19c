package inmemory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dvloznov/financeiro/internal/importer"
	"github.com/dvloznov/financeiro/internal/jobs"
)

func TestStore_GetJobNotFound(t *testing.T) {
	_, err := NewStore().GetJob(context.Background(), "missing")
	if !errors.Is(err, jobs.ErrJobNotFound) {
		t.Errorf("err = %v, want ErrJobNotFound", err)
	}
	if err := NewStore().UpdateJobStatus(context.Background(), "missing", jobs.JobStatusFailed, ""); !errors.Is(err, jobs.ErrJobNotFound) {
		t.Errorf("UpdateJobStatus err = %v", err)
	}
}

func TestStore_SaveRequiresID(t *testing.T) {
	if err := NewStore().SaveJob(context.Background(), &jobs.ImportJob{}); err == nil {
		t.Error("expected error for empty job ID")
	}
}

func TestStore_SaveCopies(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	job := &jobs.ImportJob{JobID: "j1", Status: jobs.JobStatusPending, Report: &importer.Report{Imported: 1}}
	if err := s.SaveJob(ctx, job); err != nil {
		t.Fatal(err)
	}
	job.Status = jobs.JobStatusFailed
	job.Report.Imported = 99

	got, err := s.GetJob(ctx, "j1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != jobs.JobStatusPending || got.Report.Imported != 1 {
		t.Errorf("stored job changed through caller pointer: %+v", got)
	}
}

func TestStore_ListJobs(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, st := range []jobs.JobStatus{jobs.JobStatusCompleted, jobs.JobStatusFailed, jobs.JobStatusCompleted} {
		_ = s.SaveJob(ctx, &jobs.ImportJob{
			JobID:     string(rune('a' + i)),
			Status:    st,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}

	tests := []struct {
		name   string
		filter jobs.JobFilter
		want   []string
	}{
		{name: "all newest first", filter: jobs.JobFilter{}, want: []string{"c", "b", "a"}},
		{name: "by status", filter: jobs.JobFilter{Status: jobs.JobStatusCompleted}, want: []string{"c", "a"}},
		{name: "limit", filter: jobs.JobFilter{Limit: 1}, want: []string{"c"}},
		{name: "offset past end", filter: jobs.JobFilter{Offset: 5}, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListJobs(ctx, tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i, j := range got {
				if j.JobID != tt.want[i] {
					t.Errorf("got[%d] = %s, want %s", i, j.JobID, tt.want[i])
				}
			}
		})
	}
}
