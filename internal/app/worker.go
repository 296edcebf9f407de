package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/config"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/messaging/kafka"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/monitoring/logging"
	httpserver "github.com/themastyogi/Counterfeit-Detector-sub000/internal/interfaces/http"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/interfaces/http/handlers"
)

// RunWorker consumes submitted jobs until ctx is cancelled. Probes and,
// unless metrics.addr names another listener, metrics are served on the
// server address.
func (a *App) RunWorker(ctx context.Context) error {
	if a.cfg.Dispatch.Mode != config.DispatchKafka {
		return fmt.Errorf("worker needs dispatch.mode %q, got %q", config.DispatchKafka, a.cfg.Dispatch.Mode)
	}

	consumer, err := kafka.NewConsumer(a.cfg.Kafka.Consumer(), a.logger)
	if err != nil {
		return fmt.Errorf("kafka consumer: %w", err)
	}
	defer func() {
		if err := consumer.Close(); err != nil {
			a.logger.Warn("failed to close kafka consumer", logging.Err(err))
		}
	}()
	consumer.Subscribe(a.cfg.Kafka.Topics.Submitted, kafka.JobHandler(a.scans, a.logger))

	g, gctx := errgroup.WithContext(ctx)
	if err := consumer.Start(gctx); err != nil {
		return err
	}
	a.startBackground(g, gctx)

	critical, optional := a.infra.HealthCheckers()
	optional = append(optional, visionChecker(a.vision))
	rc := httpserver.RouterConfig{
		HealthHandler: handlers.NewHealthHandler(a.opts.Version, critical...).WithOptional(optional...),
		Logger:        a.logger,
	}
	if a.collector != nil && a.cfg.Metrics.Addr == "" {
		rc.MetricsCollector = a.collector
		rc.MetricsPath = a.cfg.Metrics.Path
	}
	probes := httpserver.NewServer(a.cfg.Server, httpserver.NewRouter(rc), a.logger.Named("probes"))
	g.Go(func() error { return probes.Run(gctx) })

	a.logger.Info("scan worker started",
		logging.String("topic", a.cfg.Kafka.Topics.Submitted),
		logging.String("group", a.cfg.Kafka.GroupID))
	err = g.Wait()

	st := consumer.Snapshot()
	a.logger.Info("scan worker stopped",
		logging.Int64("consumed", st.Consumed),
		logging.Int64("processed", st.Processed),
		logging.Int64("dead_lettered", st.DeadLettered))
	return err
}

//Personal.AI order the ending
