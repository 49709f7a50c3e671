package sandbox

import "errors"

// ErrNoSnapshot is returned by Fork when the upstream sandbox has never been
// snapshotted, mirroring the original SDK's fork() guard.
var ErrNoSnapshot = errors.New("sandbox: upstream has no snapshot to fork from")

// ErrSnapshotFailed wraps a failure committing a sandbox to a snapshot.
var ErrSnapshotFailed = errors.New("sandbox: snapshot failed")

// ErrCacheMiss is an internal signal that a fingerprint has no cache entry;
// callers use Has to check existence rather than relying on this error.
var ErrCacheMiss = errors.New("sandbox: cache miss")
