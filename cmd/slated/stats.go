package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/slated-ai/slated/pkg/config"
	"github.com/slated-ai/slated/pkg/tracker"
)

func newStatsCmd() *cobra.Command {
	var (
		configPath string
		recent     int
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show assist request statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			tr, err := tracker.New(cfg.DBPath)
			if err != nil {
				return err
			}
			defer tr.Close()

			ctx := context.Background()

			// Recent request view
			if recent > 0 {
				records, err := tr.Recent(ctx, recent)
				if err != nil {
					return err
				}
				if len(records) == 0 {
					fmt.Println("No requests recorded yet.")
					return nil
				}
				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "TIME\tKIND\tTARGET\tDURATION\tCACHED\tOUTCOME")
				for _, r := range records {
					cached := "-"
					if r.Cached {
						cached = "yes"
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%dms\t%s\t%s\n",
						r.CreatedAt.Format("2006-01-02T15:04:05"), r.Kind, r.Target, r.DurationMs, cached, r.Outcome)
				}
				return w.Flush()
			}

			// Aggregate view
			summaries, err := tr.Summary(ctx)
			if err != nil {
				return err
			}
			if len(summaries) == 0 {
				fmt.Println("No requests recorded yet.")
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "KIND\tREQUESTS\tCACHE HITS\tERRORS\tTIMEOUTS\tAVG DURATION")
			for _, s := range summaries {
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%dms\n",
					s.Kind, s.Requests, s.CacheHits, s.Errors, s.Timeouts, s.AvgDurationMs)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "slated.yaml", "path to config file")
	cmd.Flags().IntVarP(&recent, "recent", "n", 0, "show the N most recent requests instead of aggregates")
	return cmd
}
