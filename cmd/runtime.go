package cmd

import (
	"context"
	"errors"
	"fmt"

	"infra-inventory/core/config"
	"infra-inventory/core/database"
	"infra-inventory/core/events"
	"infra-inventory/core/storage"
	"infra-inventory/core/telemetry"
	"infra-inventory/feature/vmsync"
	"infra-inventory/feature/vmsync/discovery"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// connectDatabase is replaced in tests.
var connectDatabase = database.Connect

// runtime is the wired sync stack shared by the start and sync commands.
type runtime struct {
	cfg          *config.Config
	logger       *zap.Logger
	db           *gorm.DB
	storage      storage.Client
	store        *vmsync.GormStore
	history      vmsync.History
	archive      *vmsync.ReportArchive
	orchestrator *vmsync.Orchestrator
	closers      []func(ctx context.Context) error
}

// newRuntime connects the database, storage, metrics and events and builds the
// orchestrator. Only the database is mandatory; every side channel that fails
// to initialize is disabled with a warning.
func newRuntime(ctx context.Context, cfg *config.Config, logg *zap.Logger) (*runtime, error) {
	db, err := connectDatabase(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	rt := &runtime{
		cfg:    cfg,
		logger: logg,
		db:     db,
		store:  vmsync.NewGormStore(db),
	}
	rt.closers = append(rt.closers, func(context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})

	if err := vmsync.Migrate(db); err != nil {
		rt.close(ctx)
		return nil, err
	}
	logg.Info("Connected to inventory database", zap.String("driver", cfg.Database.Driver))

	rt.storage, err = storage.NewClient(cfg.Storage)
	if err != nil {
		rt.close(ctx)
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	shutdownMetrics, err := telemetry.Setup(ctx, cfg.Metrics, cfg.Server.Name, Version)
	switch {
	case errors.Is(err, telemetry.ErrDisabled):
		logg.Debug("Metrics export disabled")
	case err != nil:
		logg.Warn("Failed to set up metrics export", zap.Error(err))
	default:
		rt.closers = append(rt.closers, shutdownMetrics)
		logg.Info("Metrics export enabled", zap.String("endpoint", cfg.Metrics.OTLPEndpoint))
	}

	metrics, err := vmsync.NewMetrics(nil)
	if err != nil {
		logg.Warn("Failed to register sync metrics", zap.Error(err))
		metrics = vmsync.NoopMetrics{}
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Events.Enabled {
		js, closeNATS, err := events.Connect(ctx, cfg.Events, logg)
		if err != nil {
			logg.Warn("Event publishing disabled", zap.Error(err))
		} else {
			publisher = js
			rt.closers = append(rt.closers, func(context.Context) error {
				closeNATS()
				return nil
			})
			logg.Info("Publishing sync events", zap.String("subject", cfg.Events.Subject))
		}
	}

	deps := vmsync.Dependencies{
		Resolver:  vmsync.NewEndpointResolver(cfg.Discovery, cfg.Sync, db),
		Source:    discovery.NewClient(cfg.Discovery, logg),
		Store:     rt.store,
		Metrics:   metrics,
		Publisher: publisher,
		Logger:    logg,
	}

	if cfg.Sync.History {
		history := vmsync.NewGormHistory(db)
		rt.history = history
		deps.History = history
	}

	if cfg.Sync.ArchiveReports {
		if err := storage.EnsureBucket(ctx, rt.storage, cfg.Storage.Bucket, cfg.Storage.Region); err != nil {
			logg.Warn("Report archive disabled", zap.Error(err))
		} else {
			rt.archive = vmsync.NewReportArchive(rt.storage, cfg.Storage.Bucket, cfg.Sync.ReportPrefix, logg)
			deps.Archive = rt.archive
		}
	}

	rt.orchestrator = vmsync.NewOrchestrator(cfg.Sync, deps)
	return rt, nil
}

// service returns the API facade over the runtime.
func (rt *runtime) service() *vmsync.Service {
	return vmsync.NewService(rt.orchestrator, rt.store, rt.history, rt.archive, rt.logger)
}

// close releases resources in reverse order of acquisition.
func (rt *runtime) close(ctx context.Context) {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](ctx); err != nil {
			rt.logger.Warn("Shutdown step failed", zap.Error(err))
		}
	}
}
