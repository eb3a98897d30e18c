package cmd

import (
	"context"
	"fmt"
	"time"

	"purchase-reconciler/core/billing/httpclient"
	"purchase-reconciler/core/billing/push"
	"purchase-reconciler/core/config"
	"purchase-reconciler/core/database"
	"purchase-reconciler/core/diagnostics"
	"purchase-reconciler/core/orders"
	"purchase-reconciler/core/reconcile"
	"purchase-reconciler/core/storage"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

// services bundles everything a reconciliation needs.
type services struct {
	engine       *reconcile.Engine
	archive      *reconcile.StorageArchive
	closers      []func()
	drainTimeout time.Duration
	logger       *zap.Logger
}

// Close waits up to drainTimeout for acknowledgments in flight, then releases
// the engine session, the update feed and other resources.
func (s *services) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), s.drainTimeout)
	defer cancel()
	if err := s.engine.Drain(ctx); err != nil {
		s.logger.Warn("Acknowledgments still in flight at shutdown", zap.Error(err))
	}

	s.engine.Close()
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// buildServices wires the engine to its provider client, diagnostics and archive.
func buildServices(ctx context.Context, cfg *config.Config, logg *zap.Logger, store orders.Store) *services {
	svc := &services{drainTimeout: cfg.Reconcile.DrainTimeout(), logger: logg}

	var feed push.Feed = push.NopFeed{}
	if cfg.Billing.NatsURL != "" {
		nats, err := push.Dial(cfg.Billing, logg)
		if err != nil {
			logg.Warn("Purchase update feed unavailable, continuing without push", zap.Error(err))
		} else {
			feed = nats
			svc.closers = append(svc.closers, func() { _ = nats.Close() })
			logg.Info("Subscribed to purchase update feed", zap.String("subject", nats.Subject(cfg.Billing.AccountID)))
		}
	}

	client := httpclient.New(cfg.Billing, feed, logg)
	svc.engine = reconcile.NewEngine(store, client, newSink(logg), logg, cfg.Reconcile)

	if archive := newArchive(ctx, cfg, logg); archive != nil {
		svc.archive = archive
		svc.engine.SetArchiver(archive)
	}

	return svc
}

// newSink mirrors reports to the log and the reconcile.reports counter.
func newSink(logg *zap.Logger) diagnostics.Sink {
	zapSink := diagnostics.NewZapSink(logg)
	metrics, err := diagnostics.NewMetricsSink(otel.Meter("purchase-reconciler"))
	if err != nil {
		logg.Warn("Report metrics unavailable", zap.Error(err))
		return zapSink
	}
	return diagnostics.Multi{zapSink, metrics}
}

// newArchive returns nil when archiving is disabled or storage is unreachable.
func newArchive(ctx context.Context, cfg *config.Config, logg *zap.Logger) *reconcile.StorageArchive {
	if !cfg.Storage.Enabled {
		return nil
	}

	client, err := storage.NewClient(cfg.Storage)
	if err != nil {
		logg.Warn("Failed to create storage client, report archiving disabled", zap.Error(err))
		return nil
	}
	if err := storage.EnsureBucket(ctx, client, cfg.Storage.Bucket, cfg.Storage.Region); err != nil {
		logg.Warn("Report bucket unavailable, report archiving disabled", zap.Error(err))
		return nil
	}

	return reconcile.NewStorageArchive(client, cfg.Storage.Bucket, cfg.Reconcile.ArchivePrefix)
}

// openStore connects to the local order database and checks its schema.
func openStore(cfg *config.Config, logg *zap.Logger) (*orders.GormStore, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := orders.NewGormStore(db, cfg.Billing.AccountID)
	if err := store.VerifySchema(); err != nil {
		logg.Warn("Local order schema check failed", zap.Error(err))
	}
	return store, nil
}
