package cmd

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"datecalc/internal/config"
	appLog "datecalc/internal/log"
	"datecalc/internal/maintenance"
	"datecalc/internal/mcp"
	"datecalc/internal/web"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server over stdio or HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	addServeFlags(cmd, opts)
	return cmd
}

func addServeFlags(cmd *cobra.Command, opts *rootOptions) {
	cmd.Flags().StringVar(&opts.transport, "transport", "", "stdio or http")
	cmd.Flags().StringVar(&opts.host, "host", "", "HTTP bind host")
	cmd.Flags().IntVar(&opts.port, "port", 0, "HTTP bind port")
}

func runServe(ctx context.Context, opts *rootOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	appLog.Info("datecalc starting", "version", Version)
	appLog.Info("effective config",
		"transport", cfg.Transport,
		"listen", cfg.Listen,
		"default_timezone", cfg.DefaultTimezone,
		"cache_enabled", cfg.Cache.Enabled,
		"notes_driver", cfg.Notes.Driver,
		"maintenance_cron", cfg.MaintenanceCron,
	)

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			appLog.Error("failed to close note store", err)
		}
	}()

	sched, err := maintenance.New(cfg.MaintenanceCron, a.engine, a.store)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sched.Run(gctx) })
	g.Go(func() error {
		// The stdio transport ends on EOF; take housekeeping down with it.
		defer cancel()
		if cfg.Transport == config.TransportHTTP {
			return web.Run(gctx, cfg, a.server)
		}
		return mcp.ServeStdio(gctx, a.server, os.Stdin, os.Stdout)
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	appLog.Info("datecalc exiting")
	return err
}
