package shutdown

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/fedjobfinder/jobcache/pkg/logging"
)

type Stoppable interface {
	Shutdown(ctx context.Context) error
}

// Graceful blocks until one of signals arrives, then shuts the targets
// down in order, sharing a single timeout across them.
func Graceful(signals []os.Signal, timeout time.Duration, log *logging.Logger, targets ...Stoppable) {
	sigCtx, stop := signal.NotifyContext(context.Background(), signals...)
	defer stop()

	<-sigCtx.Done()
	log.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for _, t := range targets {
		if err := t.Shutdown(ctx); err != nil {
			log.Warn("graceful shutdown completed with error", "err", err)
		}
	}

	log.Info("graceful shutdown completed")
}
