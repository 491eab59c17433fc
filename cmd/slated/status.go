package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/slated-ai/slated/pkg/backend"
	"github.com/slated-ai/slated/pkg/config"
)

func newStatusCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Probe the inference backend and list available targets",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			client := backend.New(cfg.Backend.URL)
			targets, available := client.Probe(context.Background(), cfg.Backend.ProbeTimeout)

			fmt.Printf("Backend:   %s\n", client.Endpoint())
			if !available {
				fmt.Println("Available: no (probe failed)")
				return nil
			}
			fmt.Println("Available: yes")

			if len(targets) == 0 {
				fmt.Println("No models installed on the backend.")
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "MODEL\tSIZE")
			for _, tgt := range targets {
				size := tgt.SizeHint
				if size == "" {
					size = "-"
				}
				fmt.Fprintf(w, "%s\t%s\n", tgt.Name, size)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "slated.yaml", "path to config file")
	return cmd
}
