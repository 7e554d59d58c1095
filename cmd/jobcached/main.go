package main

import (
	"context"
	"log"
	"os"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/fedjobfinder/jobcache/internal/api"
	"github.com/fedjobfinder/jobcache/internal/app"
	"github.com/fedjobfinder/jobcache/internal/config"
	"github.com/fedjobfinder/jobcache/pkg/logging"
	"github.com/fedjobfinder/jobcache/pkg/shutdown"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logging.New(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	application, cleanup, err := app.InitializeApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize application", "err", err)
		os.Exit(1)
	}
	defer cleanup()

	srv := api.NewServer(application, cfg, logger)

	go shutdown.Graceful(
		[]os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP},
		10*time.Second,
		logger,
		srv,
		application,
	)

	logger.Info("jobcache daemon starting",
		"data_dir", cfg.DataDir,
		"cache_max_age", cfg.CacheMaxAge,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return application.Run(gctx) })
	g.Go(func() error {
		err := srv.Run()
		// HTTP listener stopping also stops the background loops.
		_ = application.Shutdown(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Error("daemon exited with error", "err", err)
	} else {
		logger.Info("daemon stopped")
	}
}
