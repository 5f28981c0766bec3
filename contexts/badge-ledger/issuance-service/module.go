package issuanceservice

import (
	"log/slog"
	"time"

	httpadapter "openprofiles/contexts/badge-ledger/issuance-service/adapters/http"
	"openprofiles/contexts/badge-ledger/issuance-service/adapters/memory"
	application "openprofiles/contexts/badge-ledger/issuance-service/application"
	"openprofiles/contexts/badge-ledger/issuance-service/application/commands"
	"openprofiles/contexts/badge-ledger/issuance-service/application/queries"
	"openprofiles/contexts/badge-ledger/issuance-service/application/workers"
	"openprofiles/contexts/badge-ledger/issuance-service/ports"
)

// Module is the composition surface for the badge issuance ledger.
// Runtime wiring should consume Handler and the workers; Store is exposed for
// tests/inspection when the in-memory bootstrap path is used.
type Module struct {
	Handler         httpadapter.Handler
	SideEffectRelay workers.SideEffectRelay
	TemplateSync    workers.TemplateSyncConsumer

	// In-memory bootstrap internals, nil when wired against real adapters.
	Store       *memory.Store
	Bus         *memory.Bus
	Preferences *memory.PreferenceRecorder
	Billing     *memory.BillingRecorder
	Assets      *memory.AssetServiceSim
}

type Dependencies struct {
	Issuers        ports.IssuerRepository
	Orgs           ports.OrgRepository
	Badges         ports.BadgeRepository
	Achievements   ports.AchievementRepository
	Outbox         ports.OutboxRepository
	Idempotency    ports.IdempotencyStore
	Dedup          ports.EventDedupStore
	Preferences    ports.PreferenceService
	Billing        ports.BillingService
	Assets         ports.AssetService
	Subscriber     ports.EventSubscriber
	Clock          ports.Clock
	IDGenerator    ports.IDGenerator
	Collection     string
	Schema         string
	MintBatchLimit uint64
	IdempotencyTTL time.Duration
	DedupTTL       time.Duration
	OutboxBatch    int
	OutboxRetries  int
	Logger         *slog.Logger
}

// NewModule wires the use-cases and workers against explicit ports.
func NewModule(deps Dependencies) Module {
	addIssuer := commands.AddTrustedIssuerUseCase{
		Issuers: deps.Issuers,
		Logger:  deps.Logger,
	}
	deleteOrg := commands.DeleteOrgUseCase{
		Orgs:   deps.Orgs,
		Logger: deps.Logger,
	}
	initBadge := commands.InitBadgeUseCase{
		Issuers:        deps.Issuers,
		Badges:         deps.Badges,
		Idempotency:    deps.Idempotency,
		Clock:          deps.Clock,
		IDGen:          deps.IDGenerator,
		Collection:     deps.Collection,
		Schema:         deps.Schema,
		IdempotencyTTL: deps.IdempotencyTTL,
		Logger:         deps.Logger,
	}
	recordAchievement := commands.RecordAchievementUseCase{
		Issuers:        deps.Issuers,
		Badges:         deps.Badges,
		Achievements:   deps.Achievements,
		Preferences:    deps.Preferences,
		Idempotency:    deps.Idempotency,
		Clock:          deps.Clock,
		IDGen:          deps.IDGenerator,
		Collection:     deps.Collection,
		Schema:         deps.Schema,
		MintBatchLimit: deps.MintBatchLimit,
		IdempotencyTTL: deps.IdempotencyTTL,
		Logger:         deps.Logger,
	}

	handler := httpadapter.Handler{
		AddTrustedIssuer:  addIssuer,
		DeleteOrg:         deleteOrg,
		InitBadge:         initBadge,
		RecordAchievement: recordAchievement,
		GetBadge: queries.GetBadgeUseCase{
			Badges: deps.Badges,
			Logger: deps.Logger,
		},
		ListBadges: queries.ListBadgesUseCase{
			Badges: deps.Badges,
			Logger: deps.Logger,
		},
		ListAccountAchievements: queries.ListAccountAchievementsUseCase{
			Achievements: deps.Achievements,
			Logger:       deps.Logger,
		},
		ListTrustedIssuers: queries.ListTrustedIssuersUseCase{
			Issuers: deps.Issuers,
			Logger:  deps.Logger,
		},
		Logger: deps.Logger,
	}

	relay := workers.SideEffectRelay{
		Outbox:     deps.Outbox,
		Billing:    deps.Billing,
		Assets:     deps.Assets,
		Clock:      deps.Clock,
		BatchSize:  deps.OutboxBatch,
		MaxRetries: deps.OutboxRetries,
		Logger:     deps.Logger,
	}
	templateSync := workers.TemplateSyncConsumer{
		Subscriber: deps.Subscriber,
		Badges:     deps.Badges,
		Dedup:      deps.Dedup,
		Clock:      deps.Clock,
		DedupTTL:   deps.DedupTTL,
		Logger:     deps.Logger,
	}

	return Module{
		Handler:         handler,
		SideEffectRelay: relay,
		TemplateSync:    templateSync,
	}
}

// NewInMemoryModule wires the module against in-memory adapters and simulated
// collaborators. The asset simulator answers template creation with an
// assets.template_created event through the store's bus, so the reconcile
// loop is exercisable without Kafka or Postgres.
func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	bus := memory.NewBus()
	preferences := memory.NewPreferenceRecorder()
	billing := memory.NewBillingRecorder()
	assets := memory.NewAssetServiceSim(bus, application.EventTypeTemplateCreated)

	module := NewModule(Dependencies{
		Issuers:        store,
		Orgs:           store,
		Badges:         store,
		Achievements:   store,
		Outbox:         store,
		Idempotency:    store,
		Dedup:          store,
		Preferences:    preferences,
		Billing:        billing,
		Assets:         assets,
		Subscriber:     bus,
		Clock:          store,
		IDGenerator:    store,
		Collection:     "openprofiles",
		Schema:         "openschema",
		MintBatchLimit: 100,
		IdempotencyTTL: 7 * 24 * time.Hour,
		DedupTTL:       7 * 24 * time.Hour,
		OutboxBatch:    100,
		OutboxRetries:  5,
		Logger:         logger,
	})
	module.Store = store
	module.Bus = bus
	module.Preferences = preferences
	module.Billing = billing
	module.Assets = assets
	return module
}
