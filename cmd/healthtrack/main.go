package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	adapthttp "healthtrack/internal/adapter/http"
	"healthtrack/internal/adapter/memory"
	"healthtrack/internal/adapter/postgres"
	redisstore "healthtrack/internal/adapter/redis"
	"healthtrack/internal/app"
	"healthtrack/internal/config"
	"healthtrack/internal/domain"
	"healthtrack/internal/observability"
	"healthtrack/internal/trigger"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.IsProduction())
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	kv, closeStore, err := openStore(cfg)
	if err != nil {
		logger.Fatal("store open", zap.Error(err))
	}
	defer closeStore()

	// Platform adapters. The in-memory fakes stand in for the device
	// health-data service and notification center.
	source := memory.NewSource()
	sink := memory.NewSink(true)

	ctx := context.Background()

	history := app.NewHistoryService(kv, logger)
	metrics := app.NewMetricsService(kv, history, logger)
	defer metrics.Close()
	if err := metrics.Load(ctx); err != nil {
		logger.Fatal("load metrics", zap.Error(err))
	}

	reset := app.NewResetService(metrics, logger)
	gate := app.NewPermissionGate(sink)
	reminders := app.NewReminderService(sink, kv, gate, metrics, logger)
	if err := reminders.Load(ctx); err != nil {
		logger.Fatal("load reminders", zap.Error(err))
	}
	reminders.OnDenied(func() {
		logger.Info("notification permission denied, reminders disabled")
	})
	charts := app.NewChartsService(history, source, logger)

	metrics.OnChange(func(domain.MetricSnapshot) {
		if err := reminders.Recompute(context.Background()); err != nil {
			logger.Warn("recompute reminders", zap.Error(err))
		}
	})
	reset.OnReset(func(app.ResetResult) {
		metrics.RefreshFromSource(context.Background(), source)
		if err := reminders.Recompute(context.Background()); err != nil {
			logger.Warn("recompute reminders", zap.Error(err))
		}
	})
	kinds := []domain.MetricKind{domain.MetricSteps, domain.MetricCalories}
	for _, kind := range kinds {
		source.Observe(kind, func() {
			metrics.RefreshFromSource(context.Background(), source)
		})
		if err := source.EnableBackgroundDelivery(kind); err != nil {
			logger.Warn("background delivery", zap.String("kind", string(kind)), zap.Error(err))
		}
	}

	if granted, err := source.RequestAuthorization(ctx, kinds); err != nil {
		logger.Warn("health data authorization", zap.Error(err))
	} else if !granted {
		logger.Warn("health data authorization not granted")
	}

	// Process-start triggers: rollover check, initial fetch, initial
	// schedule.
	if _, err := reset.CheckAndReset(ctx, time.Now()); err != nil {
		logger.Warn("reset check", zap.Error(err))
	}
	metrics.RefreshFromSource(ctx, source)
	if err := reminders.Recompute(ctx); err != nil {
		logger.Warn("recompute reminders", zap.Error(err))
	}

	sched, err := trigger.New(logger,
		func(ctx context.Context) { metrics.RefreshFromSource(ctx, source) },
		func(ctx context.Context, now time.Time) {
			if _, err := reset.CheckAndReset(ctx, now); err != nil {
				logger.Warn("reset check", zap.Error(err))
			}
		})
	if err != nil {
		logger.Fatal("trigger", zap.Error(err))
	}
	sched.Start()
	defer sched.Stop()

	h := adapthttp.New(metrics, reminders, charts, logger).Handler()
	logger.Info("listening", zap.String("addr", cfg.Addr))
	if err := http.ListenAndServe(cfg.Addr, h); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server", zap.Error(err))
	}
}

func openStore(cfg config.Config) (domain.KeyValueStore, func(), error) {
	switch cfg.Store {
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, nil, errors.New("DATABASE_URL is required for the postgres store")
		}
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return db, func() { _ = db.Close() }, nil

	case "redis":
		st, err := redisstore.Open(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		return st, func() { _ = st.Close() }, nil

	case "memory":
		return memory.NewKV(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}
