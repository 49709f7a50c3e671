package flow

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/flowrun/flowrun/sandbox"
	"github.com/flowrun/flowrun/status"
)

type captureWriter struct {
	mu      sync.Mutex
	records []status.Record
}

func (c *captureWriter) Emit(r status.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, r)
}

func (c *captureWriter) statusesFor(id string) []status.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []status.Status
	for _, r := range c.records {
		if r.ID == id {
			out = append(out, r.Status)
		}
	}
	return out
}

func newTestRoot(t *testing.T) (*Root, *captureWriter) {
	t.Helper()
	mgr := sandbox.NewLocalManager(t.TempDir(), sandbox.NewMemCache())
	w := &captureWriter{}
	return NewRoot("test-root", mgr, w), w
}

func TestRunSucceedsAndEmitsTransitions(t *testing.T) {
	root, w := newTestRoot(t)
	job, err := NewJob("build", func(ctx context.Context) (any, error) {
		return "ok", nil
	})
	if err != nil {
		t.Fatal(err)
	}
	root.AddOutlet("default", job)

	if err := root.Flow(context.Background(), "default"); err != nil {
		t.Fatal(err)
	}

	statuses := w.statusesFor(job.ID())
	if len(statuses) < 2 || statuses[0] != status.Running || statuses[len(statuses)-1] != status.Success {
		t.Fatalf("expected Running then Success transitions, got %v", statuses)
	}
}

func TestRunPropagatesUpstreamFailureAsSkip(t *testing.T) {
	root, _ := newTestRoot(t)
	boom := errors.New("boom")
	upstream, _ := NewJob("upstream", func(ctx context.Context) (any, error) {
		return nil, boom
	})
	downstream, err := NewJob("downstream", func(ctx context.Context) (any, error) {
		t.Fatal("downstream Main must not run when upstream fails")
		return nil, nil
	}, upstream)
	if err != nil {
		t.Fatal(err)
	}
	root.AddOutlet("default", downstream)

	flowErr := root.Flow(context.Background(), "default")
	if flowErr == nil {
		t.Fatal("expected Flow to propagate the upstream failure")
	}

	downstream.mu.Lock()
	st := downstream.st
	downstream.mu.Unlock()
	if st != status.Skipped {
		t.Fatalf("expected downstream to be Skipped, got %v", st)
	}
}

func TestRunIsIdempotentOnAlreadyFinishedJob(t *testing.T) {
	root, _ := newTestRoot(t)
	calls := 0
	job, _ := NewJob("build", func(ctx context.Context) (any, error) {
		calls++
		return nil, nil
	})
	ctx := withRoot(context.Background(), root)

	if err := Run(ctx, job); err != nil {
		t.Fatal(err)
	}
	if err := Run(ctx, job); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Fatalf("expected Main to run exactly once, ran %d times", calls)
	}
}

func TestRunOutsideRootContextFails(t *testing.T) {
	job, _ := NewJob("build", trivialMain)
	if err := Run(context.Background(), job); err == nil {
		t.Fatal("expected error when no Root is bound to context")
	}
}

var cacheTestCalls int

func cacheTestMain(ctx context.Context) (any, error) {
	cacheTestCalls++
	return "value", nil
}

func TestRunCachesResultAcrossRootInstances(t *testing.T) {
	dir := t.TempDir()
	cache := sandbox.NewMemCache()
	cacheTestCalls = 0

	creator := func(ctx context.Context) (sandbox.Sandbox, error) {
		mgr := sandbox.NewLocalManager(dir, cache)
		return mgr.Create(ctx, "")
	}

	job, _ := NewJob("build", cacheTestMain)
	job.SandboxCreator = creator

	mgr := sandbox.NewLocalManager(dir, cache)
	root := NewRoot("root", mgr, &captureWriter{})
	root.AddOutlet("default", job)
	if err := root.Flow(context.Background(), "default"); err != nil {
		t.Fatal(err)
	}
	if cacheTestCalls != 1 {
		t.Fatalf("expected 1 call, got %d", cacheTestCalls)
	}

	// A fresh Job with the identical spec (same function value, same
	// upstream names) against the same cache should hit the snapshot and
	// never invoke Main again.
	job2, _ := NewJob("build", cacheTestMain)
	job2.SandboxCreator = creator
	root2 := NewRoot("root2", mgr, &captureWriter{})
	root2.AddOutlet("default", job2)
	if err := root2.Flow(context.Background(), "default"); err != nil {
		t.Fatal(err)
	}
	if cacheTestCalls != 1 {
		t.Fatalf("expected cache hit to avoid re-running Main, calls=%d", cacheTestCalls)
	}
}
