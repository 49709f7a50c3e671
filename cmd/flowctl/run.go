package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"

	"github.com/flowrun/flowrun/render"
	"github.com/flowrun/flowrun/status"
	"github.com/spf13/cobra"
)

func buildRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:                "run -- <workflow-binary> [args...]",
		Short:              "Run a workflow program and render its status stream",
		Args:               cobra.MinimumNArgs(1),
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Flag parsing is off, so a leading "--" reaches args as-is.
			if args[0] == "--" {
				args = args[1:]
			}
			if len(args) == 0 {
				return fmt.Errorf("flowctl: run needs a workflow binary")
			}
			return runWorkflow(cmd.Context(), args)
		},
	}
	return cmd
}

// runWorkflow execs the workflow program named by args, feeding its stdout
// line-by-line into a render.Tree while mirroring stderr directly, then
// prints the finished tree and a failure summary and exits with the child's
// own exit code.
func runWorkflow(ctx context.Context, args []string) error {
	child := exec.CommandContext(ctx, args[0], args[1:]...)
	child.Stderr = os.Stderr

	stdout, err := child.StdoutPipe()
	if err != nil {
		return fmt.Errorf("flowctl: attach stdout: %w", err)
	}

	tr := render.NewTree()
	if err := child.Start(); err != nil {
		return fmt.Errorf("flowctl: start %s: %w", args[0], err)
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		var rec status.Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			continue
		}
		tr.Feed(rec)
	}

	waitErr := child.Wait()

	tr.Render(os.Stdout)
	tr.Summary(os.Stdout)

	if waitErr != nil {
		if exitErr, ok := waitErr.(*exec.ExitError); ok {
			os.Exit(exitErr.ExitCode())
		}
		return fmt.Errorf("flowctl: %s: %w", args[0], waitErr)
	}
	return nil
}
