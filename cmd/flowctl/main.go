// Command flowctl is the operator-facing entry point for the Flow Engine:
// it execs a compiled workflow program, builds a tree from the JSON status
// stream that program writes to stdout, and prints the tree and a failure
// summary once the program exits. The tree is not redrawn while the program
// is still running.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := buildCLI().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "flowctl:", err)
		os.Exit(1)
	}
}
