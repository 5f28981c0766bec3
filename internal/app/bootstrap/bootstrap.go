package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	issuanceservice "openprofiles/contexts/badge-ledger/issuance-service"
	"openprofiles/contexts/badge-ledger/issuance-service/adapters/memory"
	postgresadapter "openprofiles/contexts/badge-ledger/issuance-service/adapters/postgres"
	application "openprofiles/contexts/badge-ledger/issuance-service/application"
	"openprofiles/contexts/badge-ledger/issuance-service/application/workers"
	"openprofiles/internal/platform/config"
	"openprofiles/internal/platform/db"
	"openprofiles/internal/platform/httpserver"
	"openprofiles/internal/platform/messaging"
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
	relay        workers.SideEffectRelay
	templateSync workers.TemplateSyncConsumer
	enableRelay  bool
	enableSync   bool
	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	if err := pg.Migrate(postgresadapter.Models()...); err != nil {
		_ = pg.Close()
		return nil, err
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)
	// Preference, billing and asset collaborators run in-process while
	// external endpoints are finalized; the outbox keeps their call sites
	// stable either way.
	module := issuanceservice.NewModule(issuanceservice.Dependencies{
		Issuers:        repo,
		Orgs:           repo,
		Badges:         repo,
		Achievements:   repo,
		Outbox:         repo,
		Idempotency:    repo,
		Dedup:          repo,
		Preferences:    memory.NewPreferenceRecorder(),
		Billing:        memory.NewBillingRecorder(),
		Assets:         memory.NewAssetServiceSim(nil, application.EventTypeTemplateCreated),
		Clock:          postgresadapter.SystemClock{},
		IDGenerator:    postgresadapter.UUIDGenerator{},
		Collection:     cfg.AssetCollection,
		Schema:         cfg.AssetSchema,
		MintBatchLimit: cfg.MintBatchLimit,
		IdempotencyTTL: 7 * 24 * time.Hour,
		DedupTTL:       7 * 24 * time.Hour,
		OutboxBatch:    cfg.OutboxBatchSize,
		OutboxRetries:  cfg.OutboxMaxRetries,
		Logger:         logger,
	})

	server := httpserver.New(module, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
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
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	if err := pg.Migrate(postgresadapter.Models()...); err != nil {
		_ = pg.Close()
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)
	// The asset collaborator answers template creation with an
	// assets.template_created event on the bus, which the sync consumer
	// below picks up.
	assets := memory.NewAssetServiceSim(kafka, application.EventTypeTemplateCreated)

	return &WorkerApp{
		postgres: pg,
		relay: workers.SideEffectRelay{
			Outbox:     repo,
			Billing:    memory.NewBillingRecorder(),
			Assets:     assets,
			Clock:      postgresadapter.SystemClock{},
			BatchSize:  cfg.OutboxBatchSize,
			MaxRetries: cfg.OutboxMaxRetries,
			Logger:     logger,
		},
		templateSync: workers.TemplateSyncConsumer{
			Subscriber: kafka,
			Badges:     repo,
			Dedup:      repo,
			Clock:      postgresadapter.SystemClock{},
			DedupTTL:   7 * 24 * time.Hour,
			Logger:     logger,
		},
		enableRelay:  cfg.EnableSideEffectRelay,
		enableSync:   cfg.EnableTemplateSync,
		pollInterval: 2 * time.Second,
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
	if w.enableSync {
		if err := w.templateSync.Start(ctx); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if w.enableRelay {
			if err := w.relay.RunOnce(ctx); err != nil {
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
