package flow

import (
	"context"
	"time"

	"github.com/flowrun/flowrun/fingerprint"
	"github.com/flowrun/flowrun/status"
)

// Run executes job: first its upstreams (recursively, each run at most
// once), then job's own Main, unless a prior run already finished it or a
// snapshot cache already holds its result for the current fingerprint. Run
// is idempotent — calling it again on an already-finished Job is a no-op —
// and returns ErrAlreadyRunning if called reentrantly on a Job mid-flight.
func Run(ctx context.Context, j *Job) error {
	root, err := CurrentRoot(ctx)
	if err != nil {
		return err
	}

	j.mu.Lock()
	if j.st == status.Running {
		j.mu.Unlock()
		return newError(ErrAlreadyRunning, "job %q is already running", j.Name)
	}
	if isFinished(j.st) {
		j.mu.Unlock()
		return nil
	}
	j.mu.Unlock()

	skip, err := runUpstreams(ctx, j)
	if skip {
		j.setStatus(ctx, status.Skipped, nil)
		j.mu.Lock()
		j.result = &JobResult{Status: status.Skipped, OriginID: j.id}
		j.mu.Unlock()
		if root.Metrics != nil {
			root.Metrics.RecordJob(string(status.Skipped), 0)
		}
		return err
	}
	if err != nil {
		return err
	}

	fp, err := fingerprint.Of(j.spec())
	if err != nil {
		j.fail(ctx, err)
		if root.Metrics != nil {
			root.Metrics.RecordJob(string(status.Failed), 0)
		}
		return err
	}

	if hit, err := root.Manager.SnapshotExists(ctx, fp); err == nil && hit {
		cached, err := loadCachedResult(ctx, root, fp)
		if err != nil {
			j.fail(ctx, err)
			if root.Metrics != nil {
				root.Metrics.RecordJob(string(status.Failed), 0)
			}
			return err
		}
		if root.Metrics != nil {
			root.Metrics.RecordCacheHit()
			root.Metrics.RecordJob(string(cached.Status), 0)
		}
		j.mu.Lock()
		j.result = cached
		j.st = cached.Status
		j.mu.Unlock()
		j.setStatus(ctx, cached.Status, nil)
		return nil
	}
	if root.Metrics != nil {
		root.Metrics.RecordCacheMiss()
	}

	if j.SandboxCreator != nil {
		sb, err := j.SandboxCreator(ctx)
		if err != nil {
			wrapped := wrapSandboxError(err)
			j.fail(ctx, wrapped)
			if root.Metrics != nil {
				root.Metrics.RecordJob(string(status.Failed), 0)
			}
			return wrapped
		}
		j.mu.Lock()
		j.sandbox = sb
		j.mu.Unlock()
		if root.Metrics != nil {
			root.Metrics.SandboxCreated()
		}
	}

	defer func() {
		j.mu.Lock()
		sb := j.sandbox
		j.mu.Unlock()
		if sb != nil {
			_ = root.Manager.Destroy(ctx, sb)
			if root.Metrics != nil {
				root.Metrics.SandboxDestroyed()
			}
		}
	}()

	started := time.Now()
	j.setStatus(ctx, status.Running, nil)
	runCtx := withJob(ctx, j)
	value, mainErr := j.main(runCtx)
	if mainErr != nil {
		j.fail(ctx, mainErr)
		if root.Metrics != nil {
			root.Metrics.RecordJob(string(status.Failed), time.Since(started).Seconds())
		}
		return mainErr
	}

	result := &JobResult{Status: status.Success, OriginID: j.id, Value: value}
	j.mu.Lock()
	j.result = result
	j.st = status.Success
	sb := j.sandbox
	j.mu.Unlock()
	j.setStatus(ctx, status.Success, nil)
	if root.Metrics != nil {
		root.Metrics.RecordJob(string(status.Success), time.Since(started).Seconds())
	}

	if sb != nil {
		if err := cacheResult(ctx, root, sb, fp, result); err != nil {
			// Caching failure doesn't retroactively fail a Job that already
			// succeeded; it only means the next run won't get a cache hit.
			return nil
		}
	}
	return nil
}

func isFinished(s status.Status) bool {
	return s == status.Success || s == status.Failed || s == status.Skipped
}

// runUpstreams runs every upstream of j and reports whether j should be
// skipped because one of them did not succeed. When it reports a skip, err
// is the error the failing upstream's Run returned, if any.
func runUpstreams(ctx context.Context, j *Job) (skip bool, err error) {
	for _, up := range j.upstreams {
		runErr := Run(ctx, up)
		up.mu.Lock()
		st := up.st
		up.mu.Unlock()
		if st == status.Failed || st == status.Skipped {
			return true, runErr
		}
		if runErr != nil {
			return false, runErr
		}
	}
	return false, nil
}

func (j *Job) fail(ctx context.Context, cause error) {
	j.mu.Lock()
	j.st = status.Failed
	j.err = cause
	j.result = &JobResult{Status: status.Failed, OriginID: j.id}
	j.mu.Unlock()
	j.setStatus(ctx, status.Failed, cause)
}

// setStatus updates j's in-memory status and, if a Root is bound to ctx,
// appends a status.Record to its Writer.
func (j *Job) setStatus(ctx context.Context, st status.Status, cause error) {
	j.mu.Lock()
	j.st = st
	var originID string
	if j.result != nil {
		originID = j.result.OriginID
	}
	j.mu.Unlock()

	root, err := CurrentRoot(ctx)
	if err != nil {
		return
	}

	rec := status.Record{
		ID:       j.id,
		Kind:     status.KindJob,
		Name:     j.Name,
		ParentID: root.ID(),
		Status:   st,
		OriginID: originID,
	}
	if cause != nil {
		rec.Error = cause.Error()
		if fe, ok := cause.(*Error); ok {
			rec.ErrorKind = string(fe.Kind)
		} else {
			rec.ErrorKind = string(ErrTaskExecution)
		}
	}
	root.Writer.Emit(rec)
}
