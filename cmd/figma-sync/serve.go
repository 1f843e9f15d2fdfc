package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	figmasync "github.com/kataras/figma-sync"
	"github.com/kataras/figma-sync/internal/api"
	"github.com/kataras/figma-sync/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the cache over HTTP and run automatic syncs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return serve(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (overrides server.addr)")
	return cmd
}

func serve(ctx context.Context) error {
	logger, _, err := logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		return err
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	opts, err := serviceOptions(cfg, sugar)
	if err != nil {
		return err
	}
	// Other processes (a CLI sync) may commit to the same cache.
	opts.Watch = true

	svc, err := figmasync.New(opts)
	if err != nil {
		return err
	}
	defer svc.Close()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.AutoSyncInterval > 0 {
		go func() {
			if err := svc.AutoSync(ctx); err != nil && !errors.Is(err, context.Canceled) {
				sugar.Errorf("Auto sync stopped: %v", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.New(svc, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr), zap.String("cache", opts.CacheDir))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
