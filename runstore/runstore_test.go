package runstore

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/carbocation/ldsccts/batch"
)

func openTest(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "ledger.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })

	clock := time.Date(2019, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	return s
}

func TestRunRoundTrip(t *testing.T) {
	s := openTest(t)

	id, err := s.BeginRun("celltypes")
	if err != nil {
		t.Fatal(err)
	}

	run, err := s.Run(id)
	if err != nil {
		t.Fatal(err)
	}
	if run.Name != "celltypes" || run.Finished() || run.Failed.Valid {
		t.Errorf("Unexpected fresh run %+v", run)
	}

	statuses := []batch.ExitStatus{
		{Command: "ldsc.py --h2-cts a", PID: 100, Code: 0, Index: 1, Batch: 1},
		{Command: "ldsc.py --h2-cts b", PID: 101, Code: 3, Index: 2, Batch: 1},
	}
	if err := s.RecordJob(id, "make_annot", batch.ExitStatus{Command: "make_annot", PID: 99, Index: 1, Batch: 1}); err != nil {
		t.Fatal(err)
	}
	for _, st := range statuses {
		if err := s.RecordJob(id, "regression", st); err != nil {
			t.Fatal(err)
		}
	}

	if err := s.FinishRun(id, 1); err != nil {
		t.Fatal(err)
	}

	run, err = s.Run(id)
	if err != nil {
		t.Fatal(err)
	}
	if !run.Finished() || run.Failed.Int64 != 1 || !run.FinishedAt.Time.After(run.StartedAt) {
		t.Errorf("Unexpected finished run %+v", run)
	}

	jobs, err := s.Jobs(id)
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 3 {
		t.Fatalf("Expected 3 jobs, got %d", len(jobs))
	}
	if jobs[0].Kind != "make_annot" || jobs[2].Command != "ldsc.py --h2-cts b" || jobs[2].ExitCode != 3 || jobs[2].PID != 101 || jobs[2].Index != 2 {
		t.Errorf("Unexpected jobs %+v", jobs)
	}
}

func TestRunsNewestFirst(t *testing.T) {
	s := openTest(t)

	first, _ := s.BeginRun("first")
	second, _ := s.BeginRun("second")

	runs, err := s.Runs()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 || runs[0].ID != second || runs[1].ID != first {
		t.Errorf("Unexpected order %+v", runs)
	}

	jobs, err := s.Jobs(first)
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 0 {
		t.Errorf("Expected no jobs, got %+v", jobs)
	}
}

func TestMissingRun(t *testing.T) {
	s := openTest(t)

	if _, err := s.Run(42); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Expected ErrRunNotFound, got %v", err)
	}
	if err := s.FinishRun(42, 0); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Expected ErrRunNotFound, got %v", err)
	}
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.sqlite")

	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	id, err := s.BeginRun("persisted")
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	run, err := s.Run(id)
	if err != nil || run.Name != "persisted" {
		t.Errorf("Expected the run to survive a reopen: %+v %v", run, err)
	}
}
