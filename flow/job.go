package flow

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/flowrun/flowrun/fingerprint"
	"github.com/flowrun/flowrun/sandbox"
	"github.com/flowrun/flowrun/status"
	"github.com/google/uuid"
)

// jobInstanceCounter assigns each constructed Job a process-unique nonce,
// the Go-idiomatic replacement for the original SDK's use of the Python
// object's memory address: a stable-for-this-process token with no
// reliance on unsafe pointer arithmetic.
var jobInstanceCounter int64

// Main is the work a Job performs once its upstreams have all succeeded and
// no cached result was found. It runs with ctx carrying this Job as the
// current job, so RunTask calls inside it resolve back to the right
// sandbox and status stream.
type Main func(ctx context.Context) (any, error)

// Job is one node of the DAG: a named unit of work with zero or more
// upstream dependencies, optionally run inside a Sandbox, whose result can
// be cached by fingerprint across runs.
type Job struct {
	id   string
	Name string

	main      Main
	upstreams []*Job

	// SandboxCreator constructs a fresh Sandbox for this Job, or nil if the
	// Job runs without one (commands dispatch straight to the local host).
	SandboxCreator func(ctx context.Context) (sandbox.Sandbox, error)
	// Image is part of the Job's fingerprint spec, so changing it
	// invalidates cached results. It is not passed to SandboxCreator;
	// Root.DefaultSandboxCreator starts from Root.DefaultSandboxImage.
	Image string

	mu      sync.Mutex
	st      status.Status
	result  *JobResult
	sandbox sandbox.Sandbox
	err     error
}

// JobResult is what a Job produced: its terminal status, the id of the Job
// whose execution actually produced it (equal to the Job's own id unless
// the result was recovered from the snapshot cache), and the opaque value
// Main returned.
type JobResult struct {
	Status   status.Status
	OriginID string
	Value    any
}

// OK reports whether the result represents a successful execution.
func (r JobResult) OK() bool {
	return r.Status == status.Success
}

// NewJob constructs a Job named name that runs fn after all of upstreams
// have completed successfully. Joining upstreams that would introduce a
// cycle back to this Job fails immediately with ErrCycleDetected.
func NewJob(name string, fn Main, upstreams ...*Job) (*Job, error) {
	nonce := atomic.AddInt64(&jobInstanceCounter, 1)
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("job-%d", nonce))).String()

	j := &Job{
		id:   id,
		Name: name,
		main: fn,
		st:   status.Pending,
	}
	if err := j.join(upstreams); err != nil {
		return nil, err
	}
	return j, nil
}

// ID is the Job's stable identifier.
func (j *Job) ID() string { return j.id }

func (j *Job) join(upstreams []*Job) error {
	for _, up := range upstreams {
		if path := findCyclePath(up, j, nil); path != nil {
			names := make([]string, len(path))
			for i, p := range path {
				names[i] = p.Name
			}
			return newCycleError(names)
		}
		j.upstreams = append(j.upstreams, up)
	}
	return nil
}

// findCyclePath performs a DFS from start looking for target, returning the
// path from start to target (inclusive) if reachable, so the caller can
// render the exact cycle that joining would introduce.
func findCyclePath(start, target *Job, path []*Job) []*Job {
	path = append(path, start)
	if start == target {
		out := make([]*Job, len(path))
		copy(out, path)
		return out
	}
	for _, up := range start.upstreams {
		if found := findCyclePath(up, target, path); found != nil {
			return found
		}
	}
	return nil
}

func (j *Job) spec() fingerprint.Spec {
	upstreamNames := make([]string, len(j.upstreams))
	for i, up := range j.upstreams {
		upstreamNames[i] = up.Name
	}
	return fingerprint.Spec{
		Name:          j.Name,
		Image:         j.Image,
		UpstreamNames: upstreamNames,
		HandlerSymbol: funcSymbol(j.main),
	}
}

func funcSymbol(fn Main) string {
	if fn == nil {
		return ""
	}
	pc := reflectFuncPC(fn)
	if f := runtime.FuncForPC(pc); f != nil {
		return f.Name()
	}
	return ""
}
