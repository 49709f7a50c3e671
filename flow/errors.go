package flow

import (
	"errors"
	"fmt"

	"github.com/flowrun/flowrun/cmdexec"
	"github.com/flowrun/flowrun/sandbox"
)

// ErrKind is the machine-readable taxonomy of errors the engine produces,
// carried on the status stream as a Record's error_kind field.
type ErrKind string

const (
	ErrCycleDetected     ErrKind = "CycleDetected"
	ErrAlreadyRunning    ErrKind = "AlreadyRunning"
	ErrUnknownOutlet     ErrKind = "UnknownOutlet"
	ErrNoJobContext      ErrKind = "NoJobContext"
	ErrNoRootContext     ErrKind = "NoRootContext"
	ErrNoSnapshotKind    ErrKind = "NoSnapshot"
	ErrSnapshotFailedKnd ErrKind = "SnapshotFailed"
	ErrTaskExecution     ErrKind = "TaskExecutionError"
	ErrInvalidArgument   ErrKind = "InvalidArgument"
	ErrInterrupted       ErrKind = "Interrupted"
)

// Error is the concrete error type the engine itself produces from Run,
// Flow, and RunTask. It always carries a Kind from the taxonomy above so a
// caller (or the status stream) can branch on failure category without
// string matching. Errors returned by a Job's Main or by an Executor are
// passed through unchanged.
type Error struct {
	Kind    ErrKind
	Message string

	// TaskExecutionError detail, populated when Kind == ErrTaskExecution.
	Command  string
	Stdout   string
	Stderr   string
	ExitCode int

	Cause error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("flow: %s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("flow: %s", e.Kind)
}

func (e *Error) Unwrap() error { return e.Cause }

func newError(kind ErrKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func newCycleError(path []string) *Error {
	return &Error{Kind: ErrCycleDetected, Message: "joining would create a cycle: " + cyclePath(path)}
}

func cyclePath(path []string) string {
	if len(path) == 0 {
		return ""
	}
	closed := append(append([]string(nil), path...), path[0])
	out := closed[0]
	for _, name := range closed[1:] {
		out += " -> " + name
	}
	return out
}

// wrapSandboxError maps a sandbox-layer sentinel error to its flow.Error
// taxonomy entry, so a Job's SandboxCreator failure reaches the status
// stream with a machine-readable error_kind instead of a raw message.
// Errors the sandbox package didn't originate pass through as ErrTaskExecution.
func wrapSandboxError(err error) *Error {
	switch {
	case errors.Is(err, sandbox.ErrNoSnapshot):
		return &Error{Kind: ErrNoSnapshotKind, Message: err.Error(), Cause: err}
	case errors.Is(err, sandbox.ErrSnapshotFailed):
		return &Error{Kind: ErrSnapshotFailedKnd, Message: err.Error(), Cause: err}
	default:
		return &Error{Kind: ErrTaskExecution, Message: err.Error(), Cause: err}
	}
}

func taskExecutionError(result cmdexec.Result) *Error {
	return &Error{
		Kind:     ErrTaskExecution,
		Message:  fmt.Sprintf("command exited with status %d", result.ExitCode),
		Command:  result.Command,
		Stdout:   result.Stdout,
		Stderr:   result.Stderr,
		ExitCode: result.ExitCode,
	}
}
