package issuanceservice

import (
	"context"
	"testing"

	"openprofiles/contexts/badge-ledger/issuance-service/application/commands"
	"openprofiles/contexts/badge-ledger/issuance-service/application/queries"
	"openprofiles/contexts/badge-ledger/issuance-service/domain/services"
)

// TestMirroredBadgeLifecycle drives the full loop: register a mirrored badge,
// drain the outbox (billing deduction + template-create request), receive the
// template-created notification through the bus, reconcile the template id,
// then record achievements that stage per-unit mints.
func TestMirroredBadgeLifecycle(t *testing.T) {
	module := NewInMemoryModule(nil)
	ctx := context.Background()

	if err := module.TemplateSync.Start(ctx); err != nil {
		t.Fatalf("start template sync: %v", err)
	}

	if _, err := module.Handler.AddTrustedIssuer.Execute(ctx, commands.AddTrustedIssuerCommand{
		OrgID:    "acme",
		CallerID: "acme",
		IssuerID: "acme.issr",
	}); err != nil {
		t.Fatalf("grant issuer: %v", err)
	}

	badge, err := module.Handler.InitBadge.Execute(ctx, commands.InitBadgeCommand{
		OrgID:          "acme",
		CallerID:       "acme.issr",
		BadgeName:      "explorer",
		URI:            "ipfs://explorer",
		Details:        "frontier badge",
		MirrorToAssets: true,
	})
	if err != nil {
		t.Fatalf("init badge: %v", err)
	}
	if badge.Badge.Reconciled() {
		t.Fatalf("badge must start unreconciled")
	}

	// Relay cycle 1: billing deduction plus the template-create request. The
	// asset simulator answers synchronously on the bus, so by the time
	// RunOnce returns the consumer has written the template id back.
	if err := module.SideEffectRelay.RunOnce(ctx); err != nil {
		t.Fatalf("relay cycle: %v", err)
	}

	if len(module.Billing.Calls) != 1 {
		t.Fatalf("billing calls = %d, want 1", len(module.Billing.Calls))
	}
	if got, want := module.Billing.Calls[0].BytesUsed, services.BadgeInitBytes("frontier badge", "ipfs://explorer"); got != want {
		t.Fatalf("badge credit deduction = %d, want %d", got, want)
	}
	if len(module.Assets.Templates) != 1 {
		t.Fatalf("template creates = %d, want 1", len(module.Assets.Templates))
	}

	reconciled, err := module.Handler.GetBadge.Execute(ctx, queries.GetBadgeQuery{
		OrgID:     "acme",
		IssuerID:  "acme.issr",
		BadgeName: "explorer",
	})
	if err != nil {
		t.Fatalf("get badge: %v", err)
	}
	if !reconciled.Badge.Reconciled() {
		t.Fatalf("template id was not reconciled onto the badge")
	}
	templateID := reconciled.Badge.TemplateID

	result, err := module.Handler.RecordAchievement.Execute(ctx, commands.RecordAchievementCommand{
		OrgID:     "acme",
		CallerID:  "acme.issr",
		BadgeName: "explorer",
		AccountID: "alice",
		Count:     3,
	})
	if err != nil {
		t.Fatalf("record achievement: %v", err)
	}
	if result.TotalMinted != 3 {
		t.Fatalf("total minted = %d, want 3", result.TotalMinted)
	}

	// Relay cycle 2: achievement credit deduction plus three unit mints.
	if err := module.SideEffectRelay.RunOnce(ctx); err != nil {
		t.Fatalf("relay cycle: %v", err)
	}
	if module.Assets.MintCount() != 3 {
		t.Fatalf("unit mints = %d, want 3", module.Assets.MintCount())
	}
	for _, mint := range module.Assets.Mints {
		if mint.TemplateID != templateID {
			t.Fatalf("mint template id = %d, want %d", mint.TemplateID, templateID)
		}
		if mint.OwnerID != "alice" {
			t.Fatalf("mint owner = %q, want alice", mint.OwnerID)
		}
	}
	if len(module.Billing.Calls) != 2 {
		t.Fatalf("billing calls = %d, want 2", len(module.Billing.Calls))
	}
	if got, want := module.Billing.Calls[1].BytesUsed, services.AchievementBytes(); got != want {
		t.Fatalf("achievement credit deduction = %d, want %d", got, want)
	}

	if pending := module.Store.PendingOutboxByType(); len(pending) != 0 {
		t.Fatalf("outbox should be drained, still pending: %v", pending)
	}
}

func TestMintsBeforeReconcileCarryZeroTemplateID(t *testing.T) {
	module := NewInMemoryModule(nil)
	ctx := context.Background()

	module.Store.SeedTrustedIssuer("acme", "acme.issr")
	if _, err := module.Handler.InitBadge.Execute(ctx, commands.InitBadgeCommand{
		OrgID:          "acme",
		CallerID:       "acme.issr",
		BadgeName:      "explorer",
		URI:            "ipfs://explorer",
		MirrorToAssets: true,
	}); err != nil {
		t.Fatalf("init badge: %v", err)
	}

	// No relay cycle yet: the template id is still unknown.
	if _, err := module.Handler.RecordAchievement.Execute(ctx, commands.RecordAchievementCommand{
		OrgID:     "acme",
		CallerID:  "acme.issr",
		BadgeName: "explorer",
		AccountID: "alice",
		Count:     1,
	}); err != nil {
		t.Fatalf("record achievement: %v", err)
	}

	if err := module.SideEffectRelay.RunOnce(ctx); err != nil {
		t.Fatalf("relay cycle: %v", err)
	}
	if module.Assets.MintCount() != 1 {
		t.Fatalf("unit mints = %d, want 1", module.Assets.MintCount())
	}
	if module.Assets.Mints[0].TemplateID != 0 {
		t.Fatalf("pre-reconcile mint template id = %d, want 0", module.Assets.Mints[0].TemplateID)
	}
}
