package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/slated-ai/slated/pkg/assist"
	"github.com/slated-ai/slated/pkg/backend"
	"github.com/slated-ai/slated/pkg/broker"
	"github.com/slated-ai/slated/pkg/cache"
	"github.com/slated-ai/slated/pkg/config"
	"github.com/slated-ai/slated/pkg/metrics"
	"github.com/slated-ai/slated/pkg/server"
	"github.com/slated-ai/slated/pkg/tracker"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the assist broker server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			tr, err := tracker.New(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("init request log: %w", err)
			}
			defer func() { _ = tr.Close() }()

			client := backend.New(cfg.Backend.URL)
			responseCache := cache.New(cfg.Broker.CacheTTL, cfg.Broker.CacheMaxEntries)
			brk := broker.New(client, responseCache, cfg.Broker.MaxConcurrent, cfg.Backend.Timeout)
			m := metrics.New(brk.Stats)
			svc := assist.New(brk, client, cfg, tr, m)
			srv := server.New(cfg, svc, m)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logrus.Infof("starting slated assist (backend %s, max concurrent %d)", cfg.Backend.URL, cfg.Broker.MaxConcurrent)
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "slated.yaml", "path to config file")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	return cmd
}
