package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:     "slated",
		Short:   "Slated — AI assist broker for production paperwork",
		Version: version,
	}

	root.AddCommand(
		newServeCmd(),
		newStatusCmd(),
		newStatsCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
