package sandbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/flowrun/flowrun/cmdexec"
	"github.com/google/uuid"
)

// localSandbox runs every command through a Local executor rooted at a
// private temp directory, standing in for a container. A Job with no
// sandbox creator gets no sandbox at all; its Tasks run through a plain
// Local executor.
type localSandbox struct {
	id       string
	root     string
	snapshot string
}

func (s *localSandbox) ID() string { return s.id }

func (s *localSandbox) Execute(ctx context.Context, command, cwd string, env map[string]string) (cmdexec.Result, error) {
	exec := cmdexec.NewLocal()
	if cwd == "" {
		cwd = s.root
	}
	return exec.Run(ctx, command, cwd, env)
}

func (s *localSandbox) Snapshot() string { return s.snapshot }

// LocalManager is a Manager that models sandboxes as private scratch
// directories on the local filesystem rather than containers. Snapshots are
// modeled as a directory copy tagged by fingerprint under the manager's
// snapshot root. Intended for tests and for deployments with no container
// runtime available.
type LocalManager struct {
	mu        sync.Mutex
	cache     Cache
	scratchDir string
}

// NewLocalManager returns a LocalManager rooted at scratchDir, using cache
// to track which fingerprints already have a snapshot.
func NewLocalManager(scratchDir string, cache Cache) *LocalManager {
	return &LocalManager{scratchDir: scratchDir, cache: cache}
}

func (m *LocalManager) Create(ctx context.Context, image string) (Sandbox, error) {
	id := uuid.NewString()
	root := filepath.Join(m.scratchDir, id)
	if err := os.MkdirAll(filepath.Join(root, ScratchRoot), 0o755); err != nil {
		return nil, fmt.Errorf("sandbox: create local scratch dir: %w", err)
	}
	return &localSandbox{id: id, root: root}, nil
}

func (m *LocalManager) Fork(ctx context.Context, upstream Sandbox) (Sandbox, error) {
	if upstream.Snapshot() == "" {
		return nil, ErrNoSnapshot
	}
	sb, err := m.Create(ctx, "")
	if err != nil {
		return nil, err
	}
	ls := sb.(*localSandbox)
	src := filepath.Join(m.scratchDir, "snapshots", upstream.Snapshot())
	if err := copyDir(src, ls.root); err != nil {
		return nil, fmt.Errorf("sandbox: fork from snapshot %s: %w", upstream.Snapshot(), err)
	}
	return sb, nil
}

func (m *LocalManager) Destroy(ctx context.Context, sb Sandbox) error {
	ls, ok := sb.(*localSandbox)
	if !ok {
		return nil
	}
	return os.RemoveAll(ls.root)
}

func (m *LocalManager) SnapshotExists(ctx context.Context, fp string) (bool, error) {
	return m.cache.Has(ctx, fp)
}

func (m *LocalManager) TakeSnapshot(ctx context.Context, sb Sandbox, fp string) error {
	ls := sb.(*localSandbox)
	dst := filepath.Join(m.scratchDir, "snapshots", fp)
	if err := copyDir(ls.root, dst); err != nil {
		return fmt.Errorf("sandbox: take local snapshot: %w", err)
	}
	ls.snapshot = fp
	return m.cache.MarkSnapshotted(ctx, fp, fp)
}

func (m *LocalManager) SetJobResultToSandbox(ctx context.Context, sb Sandbox, result []byte) error {
	ls := sb.(*localSandbox)
	return os.WriteFile(filepath.Join(ls.root, ResultFile), result, 0o644)
}

func (m *LocalManager) GetJobResultFromSnapshot(ctx context.Context, fp string) ([]byte, error) {
	path := filepath.Join(m.scratchDir, "snapshots", fp, ResultFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("sandbox: read job result from snapshot %s: %w", fp, err)
	}
	return data, nil
}

func copyDir(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, info.Mode())
	})
}
