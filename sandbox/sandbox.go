// Package sandbox provides the capability interfaces a Job executes inside:
// a Sandbox runs commands and can be snapshotted to an image; a Manager
// creates, forks, snapshots, and destroys sandboxes; a Cache remembers which
// fingerprints already have a snapshot so a Job with no changed inputs can
// skip re-execution entirely.
package sandbox

import (
	"context"

	"github.com/flowrun/flowrun/cmdexec"
)

// ScratchRoot is the well-known directory inside every sandbox reserved for
// engine bookkeeping (currently just the serialized Job result blob).
const ScratchRoot = "/flowrun"

// ResultFile is where a Job's result is written inside its sandbox so a
// later Job forking from this sandbox's snapshot can read it back out.
const ResultFile = ScratchRoot + "/job_result"

// Sandbox is a running execution environment a Job's Tasks dispatch
// commands into.
type Sandbox interface {
	// ID identifies the running sandbox (e.g. a container ID).
	ID() string
	// Execute runs command inside the sandbox.
	Execute(ctx context.Context, command, cwd string, env map[string]string) (cmdexec.Result, error)
	// Snapshot is the image tag this sandbox was committed to, if any.
	// Empty until TakeSnapshot has been called by the owning Manager.
	Snapshot() string
}

// Manager creates, forks, snapshots, and tears down Sandboxes, and owns the
// content-addressed Cache of already-snapshotted fingerprints.
type Manager interface {
	// Create starts a fresh sandbox from the given base image.
	Create(ctx context.Context, image string) (Sandbox, error)
	// Fork starts a new sandbox from an upstream sandbox's snapshot. It is
	// an error to fork a sandbox that was never snapshotted.
	Fork(ctx context.Context, upstream Sandbox) (Sandbox, error)
	// Destroy tears the sandbox down. Safe to call on an already-destroyed
	// sandbox.
	Destroy(ctx context.Context, sb Sandbox) error

	// SnapshotExists reports whether a snapshot for fingerprint is already
	// available, without creating anything.
	SnapshotExists(ctx context.Context, fp string) (bool, error)
	// TakeSnapshot commits sb's current state under fingerprint fp.
	TakeSnapshot(ctx context.Context, sb Sandbox, fp string) error

	// SetJobResultToSandbox writes a Job's serialized result into sb so it
	// can be recovered from a future snapshot of sb.
	SetJobResultToSandbox(ctx context.Context, sb Sandbox, result []byte) error
	// GetJobResultFromSnapshot recovers a Job's serialized result from the
	// snapshot tagged with fingerprint fp, without starting a sandbox.
	GetJobResultFromSnapshot(ctx context.Context, fp string) ([]byte, error)
}
