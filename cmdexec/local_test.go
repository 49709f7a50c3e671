package cmdexec

import (
	"context"
	"strings"
	"testing"
)

func TestLocalRunCapturesStdout(t *testing.T) {
	l := NewLocal()
	result, err := l.Run(context.Background(), "echo hello", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(result.Stdout) != "hello" {
		t.Fatalf("expected stdout %q, got %q", "hello", result.Stdout)
	}
	if result.ExitCode != 0 {
		t.Fatalf("expected exit code 0, got %d", result.ExitCode)
	}
}

func TestLocalRunReportsNonZeroExitAsResultNotError(t *testing.T) {
	l := NewLocal()
	result, err := l.Run(context.Background(), "exit 7", "", nil)
	if err != nil {
		t.Fatalf("expected nil error for a command that ran and exited non-zero, got %v", err)
	}
	if result.ExitCode != 7 {
		t.Fatalf("expected exit code 7, got %d", result.ExitCode)
	}
}

func TestLocalRunRejectsEmptyEnvKey(t *testing.T) {
	l := NewLocal()
	_, err := l.Run(context.Background(), "true", "", map[string]string{"": "value"})
	if err == nil {
		t.Fatal("expected error for empty environment variable name")
	}
}

func TestLocalRunPassesEnv(t *testing.T) {
	l := NewLocal()
	result, err := l.Run(context.Background(), `echo "$FOO"`, "", map[string]string{"FOO": "bar"})
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(result.Stdout) != "bar" {
		t.Fatalf("expected env var to be passed through, got %q", result.Stdout)
	}
}
