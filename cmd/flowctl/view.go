package main

import (
	"fmt"
	"os"

	"github.com/flowrun/flowrun/render"
	"github.com/spf13/cobra"
)

func buildViewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view [file]",
		Short: "Render a saved status stream (defaults to stdin)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return viewStream(args)
		},
	}
	return cmd
}

func viewStream(args []string) error {
	r := os.Stdin
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("flowctl: open %s: %w", args[0], err)
		}
		defer f.Close()
		r = f
	}

	tr := render.NewTree()
	if err := tr.ReadFrom(r); err != nil {
		return fmt.Errorf("flowctl: read status stream: %w", err)
	}
	tr.Render(os.Stdout)
	tr.Summary(os.Stdout)
	return nil
}
