package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-grantforms/internal/metrics"
	"github.com/goliatone/go-grantforms/internal/server"
	"github.com/goliatone/go-grantforms/pkg/renderers/vanilla"
	"github.com/goliatone/go-grantforms/pkg/session"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the grant forms over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd, vanilla.WithAssetURLPrefix(server.AssetsPrefix))
			if err != nil {
				return err
			}
			defer func() { _ = a.logger.Sync() }()

			store, err := openStore(a.cfg.Storage)
			if err != nil {
				return err
			}
			defer func() {
				if err := store.Close(); err != nil {
					a.logger.Warn("close store", zap.Error(err))
				}
			}()

			opts := []server.Option{
				server.WithLogger(a.logger),
				server.WithTitle(a.cfg.Title),
				server.WithTheme(a.cfg.Theme.Name, a.cfg.Theme.Variant),
				server.WithPruning(a.cfg.Storage.PruneEvery, a.cfg.Storage.RetainFor),
				server.WithSessions(session.NewManager(session.Config{
					CookieName: a.cfg.Session.CookieName,
					TTL:        a.cfg.Session.TTL,
					Secure:     a.cfg.Session.Secure,
				})),
			}
			if a.cfg.Metrics.Enabled {
				opts = append(opts, server.WithMetrics(metrics.New(true), a.cfg.Metrics.Path))
			}
			srv, err := server.New(a.orch, store, opts...)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			a.logger.Info("starting",
				zap.String("addr", a.cfg.Addr),
				zap.String("storage", a.cfg.Storage.Driver),
			)
			return srv.Run(ctx, a.cfg.Addr, a.cfg.ShutdownGrace)
		},
	}
	flags := cmd.Flags()
	flags.String("addr", ":8080", "listen address")
	flags.String("storage.driver", "memory", "storage backend (memory, sqlite)")
	flags.String("storage.path", "grantforms.db", "sqlite database path")
	flags.Bool("session.secure", false, "mark the session cookie Secure")
	flags.Bool("metrics.enabled", true, "expose Prometheus metrics")
	flags.Duration("shutdown-grace", 10*time.Second, "time allowed for in-flight requests on shutdown")
	return cmd
}
