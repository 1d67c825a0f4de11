// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// main.go — standalone codec service entry point. External tooling that
// cannot link the codec natively (the workflow-history viewer) calls this
// service to encode and decode claim-checked payload batches over HTTP.

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/AndrewDonelson/claimcheck"
)

func main() {
	zl, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer zl.Sync()
	logger := zl.Sugar()

	cfg, err := claimcheck.FromEnv()
	if err != nil {
		logger.Fatalw("load config", "error", err)
	}
	cfg.Logger = zapAdapter{s: logger}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The server exists to resolve tokens for external tooling, so it
	// builds a live codec regardless of the USE_CLAIM_CHECK switch.
	codec, err := claimcheck.NewFromConfig(ctx, cfg)
	if err != nil {
		logger.Fatalw("build codec", "backend", cfg.Backend, "error", err)
	}
	defer codec.Close(context.Background())

	if cfg.SweepInterval > 0 {
		go runSweeper(ctx, codec, cfg.SweepInterval, logger)
	}

	srv := &http.Server{
		Addr: cfg.ServerAddr,
		Handler: newRouter(&codecServer{
			codec:    codec,
			uiOrigin: cfg.UIOrigin,
			logger:   logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infow("codec server listening",
			"addr", cfg.ServerAddr, "backend", cfg.Backend, "version", claimcheck.Version())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalw("serve", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("shutdown", "error", err)
	}
}

// runSweeper periodically removes expired blobs. Sweep failures are logged
// and swallowed: maintenance must never take down the serving path.
func runSweeper(ctx context.Context, codec *claimcheck.Codec, interval time.Duration, logger *zap.SugaredLogger) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := codec.SweepExpired(ctx); err != nil {
				logger.Warnw("expiry sweep failed", "error", err)
			}
		}
	}
}
