package cmdexec

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
)

// Remote runs commands on another host over SSH, authenticating either with
// a private key file or a password. Port defaults to 22 when zero, matching
// the original SDK's RemoteCommandExecutor defaults.
type Remote struct {
	Host        string
	User        string
	KeyFilename string
	Password    string
	Port        int
	DialTimeout time.Duration
}

// NewRemote returns a Remote executor for the given host/user, authenticated
// with either keyFilename or password (keyFilename takes precedence when
// both are set).
func NewRemote(host, user, keyFilename, password string, port int) *Remote {
	if port == 0 {
		port = 22
	}
	return &Remote{
		Host:        host,
		User:        user,
		KeyFilename: keyFilename,
		Password:    password,
		Port:        port,
		DialTimeout: 10 * time.Second,
	}
}

func (r *Remote) authMethod() (ssh.AuthMethod, error) {
	if r.KeyFilename != "" {
		key, err := os.ReadFile(r.KeyFilename)
		if err != nil {
			return nil, fmt.Errorf("cmdexec: read private key %q: %w", r.KeyFilename, err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("cmdexec: parse private key %q: %w", r.KeyFilename, err)
		}
		return ssh.PublicKeys(signer), nil
	}
	return ssh.Password(r.Password), nil
}

func (r *Remote) Run(ctx context.Context, command string, cwd string, env map[string]string) (Result, error) {
	if err := SanitizeEnv(env); err != nil {
		return Result{}, err
	}

	auth, err := r.authMethod()
	if err != nil {
		return Result{}, err
	}

	config := &ssh.ClientConfig{
		User:            r.User,
		Auth:            []ssh.AuthMethod{auth},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec // sandbox hosts are ephemeral and not pre-provisioned with known_hosts
		Timeout:         r.DialTimeout,
	}

	addr := net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
	client, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		return Result{Command: command, ExitCode: 1, Stderr: err.Error()}, nil
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return Result{Command: command, ExitCode: 1, Stderr: err.Error()}, nil
	}
	defer session.Close()

	full := buildRemoteCommand(command, cwd, env)

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan error, 1)
	go func() { done <- session.Run(full) }()

	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		return Result{}, ctx.Err()
	case runErr := <-done:
		result := Result{Command: command, Stdout: stdout.String(), Stderr: stderr.String()}
		if exitErr, ok := runErr.(*ssh.ExitError); ok {
			result.ExitCode = exitErr.ExitStatus()
			return result, nil
		}
		if runErr != nil {
			// A connection-level failure mid-session (not an exit error)
			// collapses to a non-zero Result, same as dial/session setup.
			result.ExitCode = 1
			result.Stderr = runErr.Error()
			return result, nil
		}
		return result, nil
	}
}

// buildRemoteCommand wraps command with a cd and exported env vars so a
// single SSH exec channel carries cwd/env the way a local "sh -c" does.
func buildRemoteCommand(command, cwd string, env map[string]string) string {
	var b strings.Builder
	if cwd != "" {
		fmt.Fprintf(&b, "cd %s && ", shellQuote(cwd))
	}
	for k, v := range env {
		fmt.Fprintf(&b, "export %s=%s && ", k, shellQuote(v))
	}
	b.WriteString(command)
	return b.String()
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
