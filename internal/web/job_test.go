package web

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func finish(t *testing.T, jm *JobManager, id string, status JobStatus) {
	t.Helper()
	if err := jm.UpdateJob(id, func(j *Job) { j.Status = status }); err != nil {
		t.Fatal(err)
	}
}

func TestCleanup(t *testing.T) {
	jm := NewJobManager()

	old, err := jm.CreateJob()
	if err != nil {
		t.Fatal(err)
	}
	finish(t, jm, old.ID, StatusCompleted)
	// Backdate CompletedAt
	jm.mu.Lock()
	past := time.Now().Add(-2 * time.Hour)
	jm.jobs[old.ID].CompletedAt = &past
	jm.mu.Unlock()

	recent, err := jm.CreateJob()
	if err != nil {
		t.Fatal(err)
	}
	finish(t, jm, recent.ID, StatusFailed)

	running, err := jm.CreateJob()
	if err != nil {
		t.Fatal(err)
	}
	finish(t, jm, running.ID, StatusRunning)

	jm.cleanup()

	if _, err := jm.GetJob(old.ID); err == nil {
		t.Error("old completed job should have been cleaned up")
	}
	if _, err := jm.GetJob(recent.ID); err != nil {
		t.Error("recent finished job should NOT have been cleaned up")
	}
	if _, err := jm.GetJob(running.ID); err != nil {
		t.Error("running job should NOT have been cleaned up")
	}
}

func TestCreateJobUniqueIDs(t *testing.T) {
	jm := NewJobManager()

	ids := make(map[string]bool)
	for i := 0; i < 100; i++ {
		job, err := jm.CreateJob()
		if err != nil {
			t.Fatalf("CreateJob() error: %v", err)
		}
		if ids[job.ID] {
			t.Fatalf("duplicate job ID: %s", job.ID)
		}
		ids[job.ID] = true
		finish(t, jm, job.ID, StatusCompleted)
	}
}

func TestJobIDFormat(t *testing.T) {
	jm := NewJobManager()
	job, err := jm.CreateJob()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := uuid.Parse(job.ID); err != nil {
		t.Errorf("job ID %q is not a UUID: %v", job.ID, err)
	}
}

func TestCreateJobRejectsConcurrentSync(t *testing.T) {
	jm := NewJobManager()
	first, err := jm.CreateJob()
	if err != nil {
		t.Fatal(err)
	}

	if _, err := jm.CreateJob(); err == nil {
		t.Fatal("expected error while a job is pending")
	}

	finish(t, jm, first.ID, StatusRunning)
	if _, err := jm.CreateJob(); err == nil {
		t.Fatal("expected error while a job is running")
	}

	finish(t, jm, first.ID, StatusCancelled)
	if _, err := jm.CreateJob(); err != nil {
		t.Fatalf("expected new job after cancel, got %v", err)
	}
}

func TestUpdateJobTimestamps(t *testing.T) {
	jm := NewJobManager()
	job, _ := jm.CreateJob()

	// Pending → Running should set StartedAt
	finish(t, jm, job.ID, StatusRunning)
	j, _ := jm.GetJob(job.ID)
	if j.StartedAt == nil {
		t.Error("StartedAt should be set when status changes to running")
	}

	// Running → Completed should set CompletedAt
	finish(t, jm, job.ID, StatusCompleted)
	j, _ = jm.GetJob(job.ID)
	if j.CompletedAt == nil {
		t.Error("CompletedAt should be set when status changes to completed")
	}
}

func TestGetJobReturnsCopy(t *testing.T) {
	jm := NewJobManager()
	job, _ := jm.CreateJob()

	j, _ := jm.GetJob(job.ID)
	j.Progress = 99

	again, _ := jm.GetJob(job.ID)
	if again.Progress != 0 {
		t.Errorf("mutating a returned job changed the stored job: progress %d", again.Progress)
	}
}

func TestUpdateJobNotFound(t *testing.T) {
	jm := NewJobManager()
	err := jm.UpdateJob("nonexistent", func(j *Job) {})
	if err == nil {
		t.Error("UpdateJob should return error for nonexistent job")
	}
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	jm := NewJobManager()
	job, _ := jm.CreateJob()

	ch := jm.Subscribe(job.ID)

	jm.UpdateJob(job.ID, func(j *Job) {
		j.Status = StatusRunning
		j.Progress = 4
	})

	select {
	case update := <-ch:
		if update.Status != StatusRunning || update.Progress != 4 {
			t.Errorf("unexpected update %+v", update)
		}
	case <-time.After(time.Second):
		t.Error("timed out waiting for update")
	}

	jm.Unsubscribe(job.ID, ch)
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after Unsubscribe")
	}
}
