package commands

import (
	"openprofiles/contexts/badge-ledger/issuance-service/adapters/memory"
)

// fixture wires every command use case against one in-memory store so tests
// can assert cross-operation effects (outbox contents, snapshots).
type fixture struct {
	store *memory.Store
	prefs *memory.PreferenceRecorder

	addIssuer         AddTrustedIssuerUseCase
	deleteOrg         DeleteOrgUseCase
	initBadge         InitBadgeUseCase
	recordAchievement RecordAchievementUseCase
}

func newFixture() *fixture {
	store := memory.NewStore()
	prefs := memory.NewPreferenceRecorder()

	return &fixture{
		store: store,
		prefs: prefs,
		addIssuer: AddTrustedIssuerUseCase{
			Issuers: store,
		},
		deleteOrg: DeleteOrgUseCase{
			Orgs: store,
		},
		initBadge: InitBadgeUseCase{
			Issuers:     store,
			Badges:      store,
			Idempotency: store,
			Clock:       store,
			IDGen:       store,
			Collection:  "openprofiles",
			Schema:      "openschema",
		},
		recordAchievement: RecordAchievementUseCase{
			Issuers:      store,
			Badges:       store,
			Achievements: store,
			Preferences:  prefs,
			Idempotency:  store,
			Clock:        store,
			IDGen:        store,
			Collection:   "openprofiles",
			Schema:       "openschema",
		},
	}
}
