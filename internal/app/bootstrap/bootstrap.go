package bootstrap

import (
	"context"
	"log/slog"
	"strings"
	"time"

	ballotbox "safeballot/contexts/election-core/ballot-box"
	postgresadapter "safeballot/contexts/election-core/ballot-box/adapters/postgres"
	"safeballot/contexts/election-core/ballot-box/application/workers"
	"safeballot/internal/platform/config"
	"safeballot/internal/platform/db"
	"safeballot/internal/platform/httpserver"
	"safeballot/internal/platform/votecrypt"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres *db.Postgres
	sweep    workers.StatusSweep
	interval time.Duration
	logger   *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	codec, err := votecrypt.New(cfg.BallotKey)
	if err != nil {
		return nil, err
	}

	// No DSN means dev mode on the in-memory store. Ballots do not
	// survive a restart in this mode.
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		logger.Warn("no postgres dsn configured, using in-memory store",
			"event", "bootstrap_memory_store",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
		module := ballotbox.NewInMemoryModule(codec, logger)
		return &APIApp{
			server: httpserver.New(module, logger, normalizeAddr(cfg.HTTPPort)),
			logger: logger,
		}, nil
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	if err := postgresadapter.Migrate(pg.DB); err != nil {
		_ = pg.Close()
		return nil, err
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)
	module := ballotbox.NewModule(ballotbox.Dependencies{
		Elections:   repo,
		Candidates:  repo,
		Ballots:     repo,
		Eligibility: repo,
		BallotBox:   repo,
		Codec:       codec,
		Clock:       ballotbox.SystemClock{},
		IDGen:       ballotbox.UUIDGenerator{},
		Logger:      logger,
	})

	return &APIApp{
		server:   httpserver.New(module, logger, normalizeAddr(cfg.HTTPPort)),
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		// The sweep only matters when state is shared; an in-memory
		// api process syncs statuses on read.
		logger.Warn("no postgres dsn configured, status sweep idle",
			"event", "bootstrap_sweep_idle",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
		return &WorkerApp{
			interval: cfg.SweepInterval,
			logger:   logger,
		}, nil
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	if err := postgresadapter.Migrate(pg.DB); err != nil {
		_ = pg.Close()
		return nil, err
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)
	return &WorkerApp{
		postgres: pg,
		sweep: workers.StatusSweep{
			Elections: repo,
			Clock:     ballotbox.SystemClock{},
			Logger:    logger,
		},
		interval: cfg.SweepInterval,
		logger:   logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
	)
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	if w.postgres == nil {
		<-ctx.Done()
		return nil
	}
	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"sweep_interval", w.interval.String(),
	)
	return w.sweep.Run(ctx, w.interval)
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
