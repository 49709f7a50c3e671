package flow

import (
	"context"
	"strings"
	"testing"
)

func TestTaskNameFormatsAndTruncatesCommand(t *testing.T) {
	short := taskName("echo hi")
	if short != "bash: echo hi" {
		t.Fatalf("unexpected short name: %q", short)
	}

	long := "echo " + strings.Repeat("x", 60)
	got := taskName(long)
	want := "bash: " + long[:taskNameLimit] + "..."
	if got != want {
		t.Fatalf("unexpected truncated name: %q, want %q", got, want)
	}
}

func TestRunTaskOutsideJobContextFails(t *testing.T) {
	root, _ := newTestRoot(t)
	ctx := withRoot(context.Background(), root)

	if _, err := RunTask(ctx, "echo hi", "", nil); err == nil {
		t.Fatal("expected error when no Job is bound to context")
	}
}

func TestRunTaskSucceedsInsideJob(t *testing.T) {
	root, w := newTestRoot(t)
	job, _ := NewJob("build", func(ctx context.Context) (any, error) {
		return RunTask(ctx, "echo hello", "", nil)
	})
	root.AddOutlet("default", job)

	if err := root.Flow(context.Background(), "default"); err != nil {
		t.Fatal(err)
	}

	found := false
	w.mu.Lock()
	for _, r := range w.records {
		if r.ParentID == job.ID() {
			found = true
		}
	}
	w.mu.Unlock()
	if !found {
		t.Fatal("expected at least one task Record parented to the job")
	}
}

func TestRunTaskAssignsFreshIDPerCall(t *testing.T) {
	root, w := newTestRoot(t)
	job, _ := NewJob("build", func(ctx context.Context) (any, error) {
		if _, err := RunTask(ctx, "echo one", "", nil); err != nil {
			return nil, err
		}
		return RunTask(ctx, "echo two", "", nil)
	})
	root.AddOutlet("default", job)

	if err := root.Flow(context.Background(), "default"); err != nil {
		t.Fatal(err)
	}

	seen := map[string]bool{}
	w.mu.Lock()
	for _, r := range w.records {
		if r.ParentID == job.ID() {
			seen[r.ID] = true
		}
	}
	w.mu.Unlock()
	if len(seen) != 2 {
		t.Fatalf("expected 2 distinct task ids, got %d: %v", len(seen), seen)
	}
}

func TestRunTaskNonZeroExitIsTaskExecutionError(t *testing.T) {
	root, _ := newTestRoot(t)
	job, _ := NewJob("build", func(ctx context.Context) (any, error) {
		return RunTask(ctx, "exit 3", "", nil)
	})
	root.AddOutlet("default", job)

	err := root.Flow(context.Background(), "default")
	if err == nil {
		t.Fatal("expected failure")
	}
	fe, ok := err.(*Error)
	if !ok || fe.Kind != ErrTaskExecution {
		t.Fatalf("expected ErrTaskExecution, got %v", err)
	}
	if fe.ExitCode != 3 {
		t.Fatalf("expected exit code 3, got %d", fe.ExitCode)
	}
}
