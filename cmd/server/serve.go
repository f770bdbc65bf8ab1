package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"regverify/internal/platform/config"
	"regverify/internal/platform/httpserver"
	"regverify/internal/platform/kafka"
	"regverify/internal/platform/logger"
	platformmetrics "regverify/internal/platform/metrics"
	"regverify/internal/registration/alerts"
	"regverify/internal/registration/handler"
)

const (
	alertTopicPartitions  = 3
	alertTopicReplication = 1
)

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the verification API and relay compliance alerts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(parent context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logger.New(cfg.Log)
	reg := platformmetrics.NewRegistry()

	a, err := buildApp(ctx, cfg, log, reg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error("failed to release resources", "error", err)
		}
	}()

	var relay *alerts.Relay
	if cfg.Kafka.Enabled() {
		producer, err := kafka.NewProducer(cfg.Kafka)
		if err != nil {
			return err
		}
		defer producer.Close()
		if err := producer.Ping(ctx); err != nil {
			log.WarnContext(ctx, "kafka unreachable at startup, relay will keep retrying", "error", err)
		} else if err := producer.EnsureTopic(ctx, alertTopicPartitions, alertTopicReplication); err != nil {
			log.WarnContext(ctx, "could not ensure alert topic, relying on auto-creation", "error", err)
		}
		relay = alerts.NewRelay(a.store, producer,
			alerts.WithBatchSize(cfg.Kafka.BatchSize),
			alerts.WithPollInterval(cfg.Kafka.PollInterval),
			alerts.WithLogger(log),
			alerts.WithMetrics(a.metrics),
		)
	} else {
		log.WarnContext(ctx, "kafka not configured, compliance alerts stay in the outbox")
	}

	router := chi.NewRouter()
	handler.New(a.service, a.store, log).Register(router)
	router.Handle("/metrics", platformmetrics.Handler(reg))
	srv := httpserver.New(cfg.Server, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.InfoContext(gctx, "starting regverify", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down http server")
		return srv.Shutdown(shutdownCtx)
	})
	if relay != nil {
		g.Go(func() error { return relay.Run(gctx) })
	}

	return g.Wait()
}
