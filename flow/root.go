package flow

import (
	"context"
	"fmt"
	"time"

	"github.com/flowrun/flowrun/metrics"
	"github.com/flowrun/flowrun/sandbox"
	"github.com/flowrun/flowrun/status"
	"github.com/google/uuid"
)

// Root is the entry point of a DAG run: it owns the sandbox Manager, the
// status Writer every Job/Task reports through, and a table of named
// outlets — the Jobs a caller can Flow() into.
type Root struct {
	id   string
	Name string

	Manager sandbox.Manager
	Writer  status.Writer

	// DefaultSandboxImage is the image used by DefaultSandboxCreator.
	DefaultSandboxImage string
	// MaxParallelJobs is accepted for forward compatibility with a
	// parallel scheduler; the shipped engine runs a single-goroutine DFS
	// regardless of its value.
	MaxParallelJobs int

	// Metrics is optional; when set, Job terminal transitions and cache
	// hit/miss outcomes are recorded against it. Nil-safe when unset.
	Metrics *metrics.Collector

	outlets map[string]*Job
	st      status.Status
}

// NewRoot constructs a Root named name, using manager for sandbox lifecycle
// and writer for the status stream. A nil writer defaults to status.NullWriter{}.
func NewRoot(name string, manager sandbox.Manager, writer status.Writer, opts ...Option) *Root {
	if writer == nil {
		writer = status.NullWriter{}
	}
	r := &Root{
		id:      uuid.New().String(),
		Name:    name,
		Manager: manager,
		Writer:  writer,
		outlets: make(map[string]*Job),
		st:      status.Pending,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ID is the Root's stable identifier, used as ParentID on every Job
// Record emitted during this run (Task Records carry their Job's id).
func (r *Root) ID() string { return r.id }

// AddOutlet registers job as reachable under name via Flow.
func (r *Root) AddOutlet(name string, job *Job) {
	r.outlets[name] = job
}

// Flow runs the Job registered under outlet to completion. It sets the
// Root's own status to Running, then Success or Failed, and re-raises the
// underlying error to the caller on failure (rather than swallowing it),
// matching the original SDK's propagate-after-Failed behavior.
func (r *Root) Flow(ctx context.Context, outlet string) error {
	job, ok := r.outlets[outlet]
	if !ok {
		err := newError(ErrUnknownOutlet, "no outlet named %q", outlet)
		r.setStatus(ctx, status.Failed, err)
		return err
	}

	r.setStatus(ctx, status.Running, nil)
	ctx = withRoot(ctx, r)

	if err := Run(ctx, job); err != nil {
		r.setStatus(ctx, status.Failed, err)
		return err
	}

	job.mu.Lock()
	jobStatus := job.st
	jobErr := job.err
	job.mu.Unlock()

	if jobStatus == status.Failed {
		r.setStatus(ctx, status.Failed, jobErr)
		return jobErr
	}

	r.setStatus(ctx, status.Success, nil)
	return nil
}

// DefaultSandboxCreator returns a SandboxCreator that starts a fresh
// sandbox from r.DefaultSandboxImage via r.Manager.
func (r *Root) DefaultSandboxCreator() func(ctx context.Context) (sandbox.Sandbox, error) {
	return func(ctx context.Context) (sandbox.Sandbox, error) {
		return r.Manager.Create(ctx, r.DefaultSandboxImage)
	}
}

// SandboxForker returns a SandboxCreator that forks upstream's sandbox
// snapshot rather than starting from DefaultSandboxImage. Use this to wire
// a downstream Job's SandboxCreator onto a specific upstream Job.
func (r *Root) SandboxForker(upstream *Job) func(ctx context.Context) (sandbox.Sandbox, error) {
	return func(ctx context.Context) (sandbox.Sandbox, error) {
		upstream.mu.Lock()
		sb := upstream.sandbox
		upstream.mu.Unlock()
		if sb == nil {
			return nil, fmt.Errorf("flow: %q has no sandbox to fork from: %w", upstream.Name, sandbox.ErrNoSnapshot)
		}
		return r.Manager.Fork(ctx, sb)
	}
}

func (r *Root) setStatus(ctx context.Context, st status.Status, cause error) {
	r.st = st
	rec := status.Record{
		ID:     r.id,
		Kind:   status.KindRoot,
		Name:   r.Name,
		Status: st,
	}
	if cause != nil {
		rec.Error = cause.Error()
		if fe, ok := cause.(*Error); ok {
			rec.ErrorKind = string(fe.Kind)
		}
	}
	r.Writer.Emit(rec)
}
