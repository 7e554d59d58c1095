//go:build wireinject
// +build wireinject

package app

import (
	"context"

	"github.com/google/wire"

	"github.com/fedjobfinder/jobcache/internal/config"
	"github.com/fedjobfinder/jobcache/internal/connectivity"
	"github.com/fedjobfinder/jobcache/internal/housekeeping"
	"github.com/fedjobfinder/jobcache/internal/syncer"
	"github.com/fedjobfinder/jobcache/pkg/logging"
	"github.com/fedjobfinder/jobcache/pkg/usajobs"
)

// InitializeApp wires the full application graph
func InitializeApp(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, func(), error) {
	wire.Build(
		// Infrastructure - local store
		provideStore,

		// Infrastructure - USAJobs
		provideUSAJobsConfig,
		usajobs.NewClient,
		wire.Bind(new(JobAPI), new(*usajobs.Client)),
		wire.Bind(new(syncer.RemoteClient), new(*usajobs.Client)),

		// Connectivity
		provideMonitor,
		wire.Bind(new(syncer.Connectivity), new(*connectivity.Monitor)),

		// Sync coordination
		provideSyncerConfig,
		syncer.NewCoordinator,
		wire.Bind(new(housekeeping.LastSyncSource), new(*syncer.Coordinator)),

		// Housekeeping
		provideHousekeeper,

		newApp,
	)

	return &App{}, nil, nil
}
