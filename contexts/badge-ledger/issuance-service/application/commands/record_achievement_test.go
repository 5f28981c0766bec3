package commands

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	application "openprofiles/contexts/badge-ledger/issuance-service/application"
	domainerrors "openprofiles/contexts/badge-ledger/issuance-service/domain/errors"
	"openprofiles/contexts/badge-ledger/issuance-service/ports"
)

func (f *fixture) mustInitBadge(t *testing.T, name string, mirror bool) {
	t.Helper()
	if _, err := f.initBadge.Execute(context.Background(), InitBadgeCommand{
		OrgID:          "acme",
		CallerID:       "acme.issr",
		BadgeName:      name,
		URI:            "ipfs://" + name,
		MirrorToAssets: mirror,
	}); err != nil {
		t.Fatalf("init badge %s: %v", name, err)
	}
}

func TestRecordAchievementAccumulates(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.store.SeedTrustedIssuer("acme", "acme.issr")
	f.mustInitBadge(t, "explorer", false)

	first, err := f.recordAchievement.Execute(ctx, RecordAchievementCommand{
		OrgID:     "acme",
		CallerID:  "acme.issr",
		BadgeName: "explorer",
		AccountID: "alice",
		Count:     3,
	})
	if err != nil {
		t.Fatalf("first record: %v", err)
	}
	if !first.NewlyCreated || first.Count != 3 || first.RarityCount != 3 {
		t.Fatalf("unexpected first result: %+v", first)
	}

	second, err := f.recordAchievement.Execute(ctx, RecordAchievementCommand{
		OrgID:     "acme",
		CallerID:  "acme.issr",
		BadgeName: "explorer",
		AccountID: "alice",
		Count:     2,
	})
	if err != nil {
		t.Fatalf("second record: %v", err)
	}
	if second.NewlyCreated {
		t.Fatalf("second record must increment the existing row")
	}
	if second.Count != 5 || second.RarityCount != 5 {
		t.Fatalf("counts after second record = %d/%d, want 5/5", second.Count, second.RarityCount)
	}

	row, found, err := f.store.GetAchievement(ctx, "acme", "alice", first.BadgeID)
	if err != nil || !found {
		t.Fatalf("achievement lookup failed: found=%v err=%v", found, err)
	}
	if row.Count != 5 {
		t.Fatalf("stored count = %d, want 5", row.Count)
	}
}

func TestRecordAchievementRarityCountsAllAccounts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.store.SeedTrustedIssuer("acme", "acme.issr")
	f.mustInitBadge(t, "explorer", false)

	for _, grant := range []struct {
		account string
		count   uint64
	}{
		{"alice", 2},
		{"bob", 3},
	} {
		if _, err := f.recordAchievement.Execute(ctx, RecordAchievementCommand{
			OrgID:     "acme",
			CallerID:  "acme.issr",
			BadgeName: "explorer",
			AccountID: grant.account,
			Count:     grant.count,
		}); err != nil {
			t.Fatalf("record for %s: %v", grant.account, err)
		}
	}

	badge, err := f.store.GetBadge(ctx, "acme", "acme.issr", "explorer")
	if err != nil {
		t.Fatalf("get badge: %v", err)
	}
	if badge.RarityCount != 5 {
		t.Fatalf("rarity counter = %d, want 5", badge.RarityCount)
	}
}

func TestRecordAchievementUnauthorizedLeavesNothing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.store.SeedTrustedIssuer("acme", "acme.issr")
	f.mustInitBadge(t, "explorer", false)

	before := f.store.SnapshotOrg("acme")
	_, err := f.recordAchievement.Execute(ctx, RecordAchievementCommand{
		OrgID:     "acme",
		CallerID:  "stranger",
		BadgeName: "explorer",
		AccountID: "alice",
		Count:     1,
	})
	if !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if !reflect.DeepEqual(before, f.store.SnapshotOrg("acme")) {
		t.Fatalf("rejected record must not change any org state")
	}
}

func TestRecordAchievementVetoedByPreferences(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.store.SeedTrustedIssuer("acme", "acme.issr")
	f.mustInitBadge(t, "explorer", false)
	f.prefs.Deny("acme", "alice")

	before := f.store.SnapshotOrg("acme")
	pendingBefore := f.store.PendingOutboxByType()

	_, err := f.recordAchievement.Execute(ctx, RecordAchievementCommand{
		OrgID:     "acme",
		CallerID:  "acme.issr",
		BadgeName: "explorer",
		AccountID: "alice",
		Count:     1,
	})
	if !errors.Is(err, domainerrors.ErrAchievementVetoed) {
		t.Fatalf("expected ErrAchievementVetoed, got %v", err)
	}

	if !reflect.DeepEqual(before, f.store.SnapshotOrg("acme")) {
		t.Fatalf("vetoed record must not change any org state")
	}
	if !reflect.DeepEqual(pendingBefore, f.store.PendingOutboxByType()) {
		t.Fatalf("vetoed record must not stage side effects")
	}
}

func TestRecordAchievementUnknownBadge(t *testing.T) {
	f := newFixture()
	f.store.SeedTrustedIssuer("acme", "acme.issr")

	_, err := f.recordAchievement.Execute(context.Background(), RecordAchievementCommand{
		OrgID:     "acme",
		CallerID:  "acme.issr",
		BadgeName: "ghost",
		AccountID: "alice",
		Count:     1,
	})
	if !errors.Is(err, domainerrors.ErrBadgeNotFound) {
		t.Fatalf("expected ErrBadgeNotFound, got %v", err)
	}
}

func TestRecordAchievementZeroCountRejected(t *testing.T) {
	f := newFixture()
	f.store.SeedTrustedIssuer("acme", "acme.issr")

	_, err := f.recordAchievement.Execute(context.Background(), RecordAchievementCommand{
		OrgID:     "acme",
		CallerID:  "acme.issr",
		BadgeName: "explorer",
		AccountID: "alice",
		Count:     0,
	})
	if !errors.Is(err, domainerrors.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for zero count, got %v", err)
	}
}

func TestRecordAchievementMirroredStagesUnitMints(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.store.SeedTrustedIssuer("acme", "acme.issr")
	f.mustInitBadge(t, "explorer", true)

	result, err := f.recordAchievement.Execute(ctx, RecordAchievementCommand{
		OrgID:     "acme",
		CallerID:  "acme.issr",
		BadgeName: "explorer",
		AccountID: "alice",
		Count:     5,
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if result.TotalMinted != 5 {
		t.Fatalf("total minted = %d, want 5", result.TotalMinted)
	}
	if result.Count != 5 {
		t.Fatalf("ledger count = %d, want one aggregated update of 5", result.Count)
	}

	counts := f.store.PendingOutboxByType()
	if counts[application.EventTypeMintRequested] != 5 {
		t.Fatalf("staged mint requests = %d, want one per unit", counts[application.EventTypeMintRequested])
	}

	pending, err := f.store.ListPendingOutbox(ctx, 50)
	if err != nil {
		t.Fatalf("list outbox: %v", err)
	}
	for _, message := range pending {
		if message.EventType != application.EventTypeMintRequested {
			continue
		}
		var envelope ports.EventEnvelope
		if err := json.Unmarshal(message.Payload, &envelope); err != nil {
			t.Fatalf("decode envelope: %v", err)
		}
		var mint ports.MintAssetRequest
		if err := json.Unmarshal(envelope.Data, &mint); err != nil {
			t.Fatalf("decode mint request: %v", err)
		}
		if mint.OwnerID != "alice" {
			t.Fatalf("mint owner = %q, want alice", mint.OwnerID)
		}
	}
}

func TestRecordAchievementNonMirroredStagesNoMints(t *testing.T) {
	f := newFixture()
	f.store.SeedTrustedIssuer("acme", "acme.issr")
	f.mustInitBadge(t, "explorer", false)

	result, err := f.recordAchievement.Execute(context.Background(), RecordAchievementCommand{
		OrgID:     "acme",
		CallerID:  "acme.issr",
		BadgeName: "explorer",
		AccountID: "alice",
		Count:     5,
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if result.TotalMinted != 0 {
		t.Fatalf("non-mirrored badge must not mint, got %d", result.TotalMinted)
	}
	if f.store.PendingOutboxByType()[application.EventTypeMintRequested] != 0 {
		t.Fatalf("non-mirrored badge must stage no mint requests")
	}
}

func TestRecordAchievementMintCeiling(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.store.SeedTrustedIssuer("acme", "acme.issr")
	f.mustInitBadge(t, "explorer", true)
	f.recordAchievement.MintBatchLimit = 10

	before := f.store.SnapshotOrg("acme")
	pendingBefore := f.store.PendingOutboxByType()

	_, err := f.recordAchievement.Execute(ctx, RecordAchievementCommand{
		OrgID:     "acme",
		CallerID:  "acme.issr",
		BadgeName: "explorer",
		AccountID: "alice",
		Count:     11,
	})
	if !errors.Is(err, domainerrors.ErrResourceExhausted) {
		t.Fatalf("expected ErrResourceExhausted above the ceiling, got %v", err)
	}
	if !reflect.DeepEqual(before, f.store.SnapshotOrg("acme")) {
		t.Fatalf("ceiling rejection must leave ledger state untouched")
	}
	if !reflect.DeepEqual(pendingBefore, f.store.PendingOutboxByType()) {
		t.Fatalf("ceiling rejection must stage nothing")
	}

	// At the ceiling exactly the call goes through.
	result, err := f.recordAchievement.Execute(ctx, RecordAchievementCommand{
		OrgID:     "acme",
		CallerID:  "acme.issr",
		BadgeName: "explorer",
		AccountID: "alice",
		Count:     10,
	})
	if err != nil {
		t.Fatalf("record at ceiling: %v", err)
	}
	if result.TotalMinted != 10 {
		t.Fatalf("total minted = %d, want 10", result.TotalMinted)
	}
}

func TestRecordAchievementIdempotentReplay(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.store.SeedTrustedIssuer("acme", "acme.issr")
	f.mustInitBadge(t, "explorer", false)

	cmd := RecordAchievementCommand{
		OrgID:          "acme",
		CallerID:       "acme.issr",
		BadgeName:      "explorer",
		AccountID:      "alice",
		Count:          2,
		IdempotencyKey: "grant-1",
	}
	first, err := f.recordAchievement.Execute(ctx, cmd)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}

	replay, err := f.recordAchievement.Execute(ctx, cmd)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !replay.Replayed {
		t.Fatalf("second call with same key should replay")
	}
	if replay.Count != first.Count || replay.RarityCount != first.RarityCount {
		t.Fatalf("replay must echo the original result: %+v vs %+v", replay, first)
	}

	row, found, err := f.store.GetAchievement(ctx, "acme", "alice", first.BadgeID)
	if err != nil || !found {
		t.Fatalf("achievement lookup failed: found=%v err=%v", found, err)
	}
	if row.Count != 2 {
		t.Fatalf("replay must not double-apply, stored count = %d", row.Count)
	}
}
