package sandbox

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/flowrun/flowrun/cmdexec"
	"github.com/sirupsen/logrus"
)

const dockerTagPrefix = "flowrun-sandbox"

// dockerSandbox is a running Docker container.
type dockerSandbox struct {
	id       string
	cli      *client.Client
	snapshot string
}

func (s *dockerSandbox) ID() string { return s.id }

func (s *dockerSandbox) Snapshot() string { return s.snapshot }

func (s *dockerSandbox) Execute(ctx context.Context, command, cwd string, env map[string]string) (cmdexec.Result, error) {
	if err := cmdexec.SanitizeEnv(env); err != nil {
		return cmdexec.Result{}, err
	}

	envList := make([]string, 0, len(env))
	for k, v := range env {
		envList = append(envList, k+"="+v)
	}

	execCfg := container.ExecOptions{
		Cmd:          []string{"bash", "-c", command},
		Env:          envList,
		WorkingDir:   cwd,
		AttachStdout: true,
		AttachStderr: true,
	}

	execID, err := s.cli.ContainerExecCreate(ctx, s.id, execCfg)
	if err != nil {
		return cmdexec.Result{}, fmt.Errorf("sandbox: exec create in container %s: %w", s.id, err)
	}

	attach, err := s.cli.ContainerExecAttach(ctx, execID.ID, container.ExecStartOptions{})
	if err != nil {
		return cmdexec.Result{}, fmt.Errorf("sandbox: exec attach in container %s: %w", s.id, err)
	}
	defer attach.Close()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, attach.Reader); err != nil && err != io.EOF {
		return cmdexec.Result{}, fmt.Errorf("sandbox: read exec output: %w", err)
	}

	inspect, err := s.cli.ContainerExecInspect(ctx, execID.ID)
	if err != nil {
		return cmdexec.Result{}, fmt.Errorf("sandbox: exec inspect in container %s: %w", s.id, err)
	}

	return cmdexec.Result{
		Command:  command,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: inspect.ExitCode,
	}, nil
}

// DockerManager drives sandboxes as Docker containers, mirroring the
// original SDK's DockerSandbox/DockerSandboxManager: create starts a
// container and provisions the scratch root, fork starts a new container
// from an upstream's committed snapshot image, take_snapshot commits a
// container to an image tagged "flowrun-sandbox:<fingerprint>".
type DockerManager struct {
	cli   *client.Client
	cache Cache
}

// NewDockerManager returns a DockerManager using cli for all Docker API
// calls and cache to track fingerprint -> image tag bookkeeping.
func NewDockerManager(cli *client.Client, cache Cache) *DockerManager {
	return &DockerManager{cli: cli, cache: cache}
}

func (m *DockerManager) Create(ctx context.Context, img string) (Sandbox, error) {
	if err := pullIfMissing(ctx, m.cli, img); err != nil {
		return nil, err
	}

	resp, err := m.cli.ContainerCreate(ctx, &container.Config{
		Image: img,
		Cmd:   []string{"tail", "-f", "/dev/null"},
	}, nil, nil, nil, "")
	if err != nil {
		return nil, fmt.Errorf("sandbox: create container from %s: %w", img, err)
	}
	if err := m.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return nil, fmt.Errorf("sandbox: start container %s: %w", resp.ID, err)
	}

	sb := &dockerSandbox{id: resp.ID, cli: m.cli}
	if _, err := sb.Execute(ctx, "mkdir -p "+ScratchRoot, "", nil); err != nil {
		return nil, fmt.Errorf("sandbox: provision scratch root: %w", err)
	}
	return sb, nil
}

func (m *DockerManager) Fork(ctx context.Context, upstream Sandbox) (Sandbox, error) {
	if upstream.Snapshot() == "" {
		return nil, ErrNoSnapshot
	}
	return m.Create(ctx, upstream.Snapshot())
}

func (m *DockerManager) Destroy(ctx context.Context, sb Sandbox) error {
	ds, ok := sb.(*dockerSandbox)
	if !ok {
		return nil
	}
	timeout := 0
	if err := m.cli.ContainerStop(ctx, ds.id, container.StopOptions{Timeout: &timeout}); err != nil {
		logrus.WithError(err).WithField("container", ds.id).Warn("sandbox: stop failed, attempting remove anyway")
	}
	if err := m.cli.ContainerRemove(ctx, ds.id, container.RemoveOptions{Force: true}); err != nil {
		return fmt.Errorf("sandbox: remove container %s: %w", ds.id, err)
	}
	return nil
}

func (m *DockerManager) tag(fp string) string {
	return dockerTagPrefix + ":" + fp
}

func (m *DockerManager) SnapshotExists(ctx context.Context, fp string) (bool, error) {
	has, err := m.cache.Has(ctx, fp)
	if err != nil || !has {
		return has, err
	}
	tag, err := m.cache.ImageTag(ctx, fp)
	if err != nil {
		return false, err
	}
	if _, _, err := m.cli.ImageInspectWithRaw(ctx, tag); err != nil {
		return false, nil
	}
	return true, nil
}

func (m *DockerManager) TakeSnapshot(ctx context.Context, sb Sandbox, fp string) error {
	ds, ok := sb.(*dockerSandbox)
	if !ok {
		return fmt.Errorf("%w: not a docker sandbox", ErrSnapshotFailed)
	}
	tag := m.tag(fp)
	_, err := m.cli.ContainerCommit(ctx, ds.id, container.CommitOptions{Reference: tag})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSnapshotFailed, err)
	}
	ds.snapshot = tag
	return m.cache.MarkSnapshotted(ctx, fp, tag)
}

func (m *DockerManager) SetJobResultToSandbox(ctx context.Context, sb Sandbox, result []byte) error {
	ds := sb.(*dockerSandbox)
	// base64 over a single shell line avoids any quoting/escaping hazard
	// from the JobResult's JSON content reaching the container's shell.
	encoded := base64.StdEncoding.EncodeToString(result)
	cmd := fmt.Sprintf("printf '%%s' '%s' | base64 -d > %s", encoded, ResultFile)
	_, err := ds.Execute(ctx, cmd, "", nil)
	return err
}

func (m *DockerManager) GetJobResultFromSnapshot(ctx context.Context, fp string) ([]byte, error) {
	tag, err := m.cache.ImageTag(ctx, fp)
	if err != nil {
		return nil, err
	}
	resp, err := m.cli.ContainerCreate(ctx, &container.Config{
		Image: tag,
		Cmd:   []string{"cat", ResultFile},
	}, nil, nil, nil, "")
	if err != nil {
		return nil, fmt.Errorf("sandbox: create reader container from %s: %w", tag, err)
	}
	defer func() {
		_ = m.cli.ContainerRemove(ctx, resp.ID, container.RemoveOptions{Force: true})
	}()

	attachResp, err := m.cli.ContainerAttach(ctx, resp.ID, container.AttachOptions{Stream: true, Stdout: true, Stderr: true})
	if err != nil {
		return nil, fmt.Errorf("sandbox: attach to reader container: %w", err)
	}
	defer attachResp.Close()

	if err := m.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return nil, fmt.Errorf("sandbox: start reader container: %w", err)
	}

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, attachResp.Reader); err != nil && err != io.EOF {
		return nil, fmt.Errorf("sandbox: read job result from snapshot %s: %w", fp, err)
	}
	return stdout.Bytes(), nil
}

// pullIfMissing pulls img unless it already exists locally; used by Create
// for base images that are never expected to have been committed locally.
func pullIfMissing(ctx context.Context, cli *client.Client, img string) error {
	_, _, err := cli.ImageInspectWithRaw(ctx, img)
	if err == nil {
		return nil
	}
	rc, err := cli.ImagePull(ctx, img, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("sandbox: pull image %s: %w", img, err)
	}
	defer rc.Close()
	_, err = io.Copy(io.Discard, rc)
	return err
}
