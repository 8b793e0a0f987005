package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	nftmarketplace "nftmarket/contexts/trading/nft-marketplace"
	"nftmarket/contexts/trading/nft-marketplace/adapters/memory"
	postgresadapter "nftmarket/contexts/trading/nft-marketplace/adapters/postgres"
	workerapp "nftmarket/contexts/trading/nft-marketplace/application/workers"
	"nftmarket/internal/platform/config"
	"nftmarket/internal/platform/db"
	"nftmarket/internal/platform/httpserver"
	"nftmarket/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	outboxRelay  workerapp.OutboxRelay
	auditor      workerapp.ListingAuditor
	auditorOn    bool
	relayOn      bool
	pollInterval time.Duration
	logger       *slog.Logger
}

// BuildAPI composes the API process. With POSTGRES_DSN set the listing and
// earnings state lives in postgres; without it the whole stack runs on the
// in-memory adapters. The asset registry and value vault are always the
// in-memory chain stand-ins until a real chain gateway lands.
func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")

	var (
		pg     *db.Postgres
		module nftmarketplace.Module
	)
	if strings.TrimSpace(cfg.PostgresDSN) != "" {
		pg, err = db.Connect(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}

		repo := postgresadapter.NewRepository(pg.DB, logger)
		registry := memory.NewRegistry(cfg.MarketplaceAddress, logger)
		vault := memory.NewVault(logger)
		module = nftmarketplace.NewModule(nftmarketplace.Dependencies{
			Listings:    repo,
			Earnings:    repo,
			Registry:    registry,
			Vault:       vault,
			Clock:       postgresadapter.SystemClock{},
			IDGenerator: postgresadapter.UUIDGenerator{},
			Logger:      logger,
		})
		module.Registry = registry
		module.Vault = vault
	} else {
		logger.Warn("running without postgres, state is in-memory",
			"event", "bootstrap_memory_mode",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
		module = nftmarketplace.NewInMemoryModule(logger)
	}

	server := httpserver.New(module, logger, normalizeAddr(cfg.HTTPPort), httpserver.Options{
		EnableDevChain: cfg.EnableDevChainEndpoints,
	})
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

// BuildWorker composes the background process: the outbox relay and the
// stale-listing auditor. It needs postgres because the outbox lives there.
func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)
	registry := memory.NewRegistry(cfg.MarketplaceAddress, logger)
	return &WorkerApp{
		postgres: pg,
		outboxRelay: workerapp.OutboxRelay{
			Outbox:    repo,
			Publisher: kafka,
			Clock:     postgresadapter.SystemClock{},
			BatchSize: 100,
			Logger:    logger,
		},
		auditor: workerapp.ListingAuditor{
			Listings:    repo,
			Registry:    registry,
			Clock:       postgresadapter.SystemClock{},
			IDGenerator: postgresadapter.UUIDGenerator{},
			BatchSize:   cfg.AuditorPageSize,
			Logger:      logger,
		},
		relayOn:      cfg.EnableOutboxRelay,
		auditorOn:    cfg.EnableListingAuditor,
		pollInterval: cfg.AuditorInterval,
		logger:       logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
		"outbox_relay", w.relayOn,
		"listing_auditor", w.auditorOn,
	)

	for {
		if w.relayOn {
			if err := w.outboxRelay.RunOnce(ctx); err != nil {
				return err
			}
		}
		if w.auditorOn {
			if err := w.auditor.RunOnce(ctx); err != nil {
				return err
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
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
