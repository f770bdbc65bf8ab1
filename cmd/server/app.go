package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"regverify/internal/platform/config"
	"regverify/internal/platform/postgres"
	platformredis "regverify/internal/platform/redis"
	"regverify/internal/registration/cache"
	"regverify/internal/registration/domain"
	"regverify/internal/registration/metrics"
	"regverify/internal/registration/persister"
	"regverify/internal/registration/providers/partner"
	"regverify/internal/registration/queue"
	"regverify/internal/registration/service"
	"regverify/internal/registration/store"
	"regverify/pkg/platform/circuit"
)

// app holds the wired pipeline and the resources it owns.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	store   store.Store
	service *service.Service
	closers []func() error
}

// buildApp wires config into the verification pipeline. Without a Postgres
// DSN the process runs on the in-memory store.
func buildApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) (*app, error) {
	a := &app{cfg: cfg, logger: logger, metrics: metrics.New(reg)}

	st, err := a.openStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.store = st

	opts := []service.Option{
		service.WithLogger(logger),
		service.WithMetrics(a.metrics),
	}
	if cfg.Partner.Configured() {
		client, err := a.partnerClient()
		if err != nil {
			a.Close()
			return nil, err
		}
		opts = append(opts, service.WithPartner(client))
	} else {
		logger.WarnContext(ctx, "partner registry not configured, cache misses go to manual review")
	}

	policy := domain.FreshnessPolicy{VerifiedTTL: cfg.Cache.VerifiedTTL, UnsettledTTL: cfg.Cache.UnsettledTTL}
	a.service = service.New(
		cache.New(st, policy, cache.WithLookupTimeout(cfg.Cache.LookupTimeout), cache.WithMetrics(a.metrics)),
		persister.New(st, persister.WithLogger(logger), persister.WithMetrics(a.metrics)),
		queue.New(st,
			queue.WithTurnaround(cfg.Queue.Turnaround),
			queue.WithLogger(logger),
			queue.WithMetrics(a.metrics),
		),
		opts...,
	)
	return a, nil
}

func (a *app) openStore(ctx context.Context) (store.Store, error) {
	if a.cfg.Postgres.DSN == "" {
		a.logger.WarnContext(ctx, "postgres not configured, using in-memory registration store")
		return store.NewInMemoryStore(), nil
	}

	db, err := postgres.Open(ctx, a.cfg.Postgres)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, db.Close)
	if a.cfg.Server.AutoMigrate {
		if err := postgres.Migrate(ctx, db, a.logger); err != nil {
			return nil, err
		}
	}
	return a.withRedis(ctx, db)
}

func (a *app) withRedis(ctx context.Context, db *sql.DB) (store.Store, error) {
	durable := store.NewPostgresStore(db)
	rc, err := platformredis.New(ctx, a.cfg.Redis)
	if err != nil {
		return nil, err
	}
	if rc == nil {
		return durable, nil
	}
	a.closers = append(a.closers, rc.Close)
	return store.NewRedisStore(durable, rc.Client, a.cfg.Cache.VerifiedTTL,
		store.WithRepairTTL(a.cfg.Redis.RepairTTL),
		store.WithRedisMetrics(a.metrics),
		store.WithRedisLogger(a.logger),
	), nil
}

func (a *app) partnerClient() (*partner.Client, error) {
	pc := a.cfg.Partner
	breaker := circuit.New(partner.DefaultProviderID,
		circuit.WithFailureThreshold(pc.FailureThreshold),
		circuit.WithSuccessThreshold(pc.SuccessThreshold),
		circuit.WithCooldown(pc.Cooldown),
	)
	client, err := partner.New(partner.Config{
		BaseURL:    pc.BaseURL,
		VerifyPath: pc.VerifyPath,
		APIKey:     pc.APIKey,
		Timeout:    pc.Timeout,
	},
		partner.WithBreaker(breaker),
		partner.WithMetrics(a.metrics),
		partner.WithLogger(a.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("partner client: %w", err)
	}
	return client, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
