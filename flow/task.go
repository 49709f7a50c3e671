package flow

import (
	"context"

	"github.com/flowrun/flowrun/cmdexec"
	"github.com/flowrun/flowrun/status"
	"github.com/google/uuid"
)

// taskNameLimit is the number of command characters kept in a Task's
// default name before it's truncated with a "..." marker.
const taskNameLimit = 50

// RunTask dispatches command inside the current Job's sandbox (or, if the
// Job has none, straight to the local host) and emits Running/Success/Failed
// Records around it. It must be called with a ctx derived from inside a
// Job's Main — calling it outside any Job returns ErrNoJobContext.
func RunTask(ctx context.Context, command, cwd string, env map[string]string) (cmdexec.Result, error) {
	job, err := CurrentJob(ctx)
	if err != nil {
		return cmdexec.Result{}, err
	}
	root, err := CurrentRoot(ctx)
	if err != nil {
		return cmdexec.Result{}, err
	}

	taskID := uuid.NewString()
	emitTask(root, job, taskID, command, status.Running, nil)

	job.mu.Lock()
	sb := job.sandbox
	job.mu.Unlock()

	var result cmdexec.Result
	var runErr error
	if sb != nil {
		result, runErr = sb.Execute(ctx, command, cwd, env)
	} else {
		result, runErr = cmdexec.NewLocal().Run(ctx, command, cwd, env)
	}

	if runErr != nil {
		emitTask(root, job, taskID, command, status.Failed, runErr)
		return result, runErr
	}
	if result.ExitCode != 0 {
		err := taskExecutionError(result)
		emitTask(root, job, taskID, command, status.Failed, err)
		return result, err
	}

	emitTask(root, job, taskID, command, status.Success, nil)
	return result, nil
}

// taskName formats the default Task name from its command, matching the
// original SDK's "bash: <command>" display with a 50-char truncation.
func taskName(command string) string {
	if len(command) > taskNameLimit {
		return "bash: " + command[:taskNameLimit] + "..."
	}
	return "bash: " + command
}

func emitTask(root *Root, job *Job, taskID, command string, st status.Status, cause error) {
	rec := status.Record{
		ID:       taskID,
		Kind:     status.KindTask,
		Name:     taskName(command),
		ParentID: job.id,
		Status:   st,
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
