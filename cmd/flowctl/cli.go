package main

import (
	"github.com/spf13/cobra"
)

var configFile string

func buildCLI() *cobra.Command {
	root := &cobra.Command{
		Use:     "flowctl",
		Short:   "Run and watch Flow Engine workflows",
		Version: "0.1.0",
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "flowctl config file (YAML)")

	root.AddCommand(buildRunCommand())
	root.AddCommand(buildViewCommand())
	return root
}
