package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"kowaiquest/internal/catalog"
	"kowaiquest/internal/config"
	"kowaiquest/internal/gateway"
	"kowaiquest/internal/logger"
	"kowaiquest/internal/repository"
	"kowaiquest/internal/service"
	"kowaiquest/internal/session"
	"kowaiquest/internal/telemetry"
)

// app holds the wired services for one command invocation
type app struct {
	cfg      *config.Config
	out      io.Writer
	log      *logger.Logger
	catalog  *catalog.Catalog
	store    gateway.Store
	sink     telemetry.Sink
	redis    *telemetry.RedisSink
	sessions *service.SessionService
	trainers *service.TrainerService
	progress *service.ProgressService
	closers  []io.Closer
}

func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log, out: io.Discard}

	cat, err := loadCatalog(cfg)
	if err != nil {
		return nil, err
	}
	a.catalog = cat

	store, err := gateway.Open(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open gateway: %w", err)
	}
	a.store = store
	a.closers = append(a.closers, store)

	if err := a.setupTelemetry(ctx); err != nil {
		a.Close()
		return nil, err
	}

	trainerRepo := repository.NewTrainerRepository(store)
	historyRepo := repository.NewStatsHistoryRepository(store)
	attemptRepo := repository.NewAttemptRepository(store)

	sessions, err := service.NewSessionService(session.NewFileStore(cfg.SessionFile), trainerRepo, a.sink, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.sessions = sessions

	current := service.NewTrainerStore()
	a.trainers = service.NewTrainerService(trainerRepo, sessions, cat, current, a.sink, log)
	a.progress = service.NewProgressService(trainerRepo, historyRepo, attemptRepo, cat, current, a.sink, log, cfg.StrictProgression)
	return a, nil
}

func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.CatalogPath == "" {
		return catalog.Default()
	}
	return catalog.Load(cfg.CatalogPath)
}

func (a *app) setupTelemetry(ctx context.Context) error {
	switch strings.ToLower(a.cfg.Telemetry) {
	case "none", "off":
		a.sink = telemetry.Nop{}
	case "log", "":
		a.sink = telemetry.NewLogSink(a.log)
	case "redis":
		rdb, err := gateway.NewRedisClient(ctx, a.cfg)
		if err != nil {
			return fmt.Errorf("failed to connect telemetry redis: %w", err)
		}
		a.closers = append(a.closers, closerFunc(rdb.Close))
		a.redis = telemetry.NewRedisSink(rdb, a.cfg.TelemetryChannel, a.log)
		a.sink = telemetry.Multi{telemetry.NewLogSink(a.log), a.redis}
	default:
		return fmt.Errorf("unknown telemetry sink: %s", a.cfg.Telemetry)
	}
	return nil
}

// Close releases connections in reverse order
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.log.Warn("failed to close resource", "error", err)
		}
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

