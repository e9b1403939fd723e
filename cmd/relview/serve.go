package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/relview/internal/config"
	"github.com/aretw0/relview/internal/demo"
	"github.com/aretw0/relview/internal/logging"
	"github.com/aretw0/relview/pkg/observability"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Starts the customer portal, storing sessions in the configured backend.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}
		return serve(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Address to listen on (overrides server.addr)")
}

func serve(ctx context.Context, cfg config.Config) error {
	logger := logging.New(logging.ParseLevel(cfg.Log.Level), cfg.Log.Format)

	st, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn("failed to close storage", "err", err)
		}
	}()

	opts := []demo.Option{
		demo.WithLogger(logger),
		demo.WithFlow(cfg.Flow.LoginRedirect, cfg.Flow.HomeRoute),
		demo.WithCookie(cfg.Session.CookieName, cfg.Session.Secure, int(cfg.Session.TTL.Seconds())),
	}
	if cfg.Memo.Enabled {
		opts = append(opts, demo.WithCache(st.cache, cfg.Memo.Duration))
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, demo.WithMetrics(observability.NewMetrics("relview")))
	}
	if cfg.TabsFile != "" {
		tabs, err := config.LoadTabs(cfg.TabsFile)
		if err != nil {
			return err
		}
		opts = append(opts, demo.WithTabs(tabs))
	}

	app, err := demo.NewApp(st.manager(logger), opts...)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: app,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting relview server", "addr", srv.Addr, "routes", len(app.Routes().Names()))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info("shutting down", "signal", sig.String())

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("graceful shutdown did not complete", "timeout", cfg.Server.ShutdownTimeout, "err", err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("failed to close server: %w", err)
			}
		}
		logger.Info("relview server stopped gracefully")
		return nil
	}
}
