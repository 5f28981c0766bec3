package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"openprofiles/contexts/badge-ledger/issuance-service/domain/entities"
	domainerrors "openprofiles/contexts/badge-ledger/issuance-service/domain/errors"
	"openprofiles/contexts/badge-ledger/issuance-service/ports"
)

func TestStoreBadgeIDsArePerOrg(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	a, err := store.CreateBadgeWithOutbox(ctx, entities.Badge{OrgID: "acme", IssuerID: "i", Name: "one"}, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	b, err := store.CreateBadgeWithOutbox(ctx, entities.Badge{OrgID: "acme", IssuerID: "i", Name: "two"}, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	other, err := store.CreateBadgeWithOutbox(ctx, entities.Badge{OrgID: "globex", IssuerID: "i", Name: "one"}, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if a.BadgeID != 0 || b.BadgeID != 1 {
		t.Fatalf("same-org ids = %d,%d, want 0,1", a.BadgeID, b.BadgeID)
	}
	if other.BadgeID != 0 {
		t.Fatalf("badge ids must restart per org, got %d", other.BadgeID)
	}
}

func TestStoreRecordAchievementIsAtomicWithOutbox(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if _, err := store.CreateBadgeWithOutbox(ctx, entities.Badge{OrgID: "acme", IssuerID: "i", Name: "one"}, nil); err != nil {
		t.Fatalf("create badge: %v", err)
	}

	row, err := store.RecordAchievementWithOutbox(ctx, ports.RecordAchievementParams{
		OrgID:     "acme",
		IssuerID:  "i",
		BadgeName: "one",
		AccountID: "alice",
		Count:     2,
		Messages: []ports.OutboxMessage{{
			OutboxID:  "m-1",
			EventType: "billing.credit_used",
			Status:    ports.OutboxStatusPending,
		}},
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if !row.NewlyCreated || row.RowID != 0 || row.Count != 2 || row.RarityCount != 2 {
		t.Fatalf("unexpected row: %+v", row)
	}

	pending, err := store.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 || pending[0].OutboxID != "m-1" {
		t.Fatalf("staged message missing from outbox: %+v", pending)
	}

	// A miss stages nothing.
	_, err = store.RecordAchievementWithOutbox(ctx, ports.RecordAchievementParams{
		OrgID:     "acme",
		IssuerID:  "i",
		BadgeName: "ghost",
		AccountID: "alice",
		Count:     1,
		Messages:  []ports.OutboxMessage{{OutboxID: "m-2", Status: ports.OutboxStatusPending}},
	})
	if !errors.Is(err, domainerrors.ErrBadgeNotFound) {
		t.Fatalf("expected ErrBadgeNotFound, got %v", err)
	}
	pending, _ = store.ListPendingOutbox(ctx, 10)
	if len(pending) != 1 {
		t.Fatalf("failed record must not stage messages, got %d", len(pending))
	}
}

func TestStoreIdempotencyRecordExpiry(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	now := time.Now().UTC()

	if err := store.PutRecord(ctx, ports.IdempotencyRecord{
		Key:         "k",
		RequestHash: "h",
		ExpiresAt:   now.Add(time.Hour),
	}); err != nil {
		t.Fatalf("put: %v", err)
	}

	if _, found, _ := store.GetRecord(ctx, "k", now); !found {
		t.Fatalf("record should be visible before expiry")
	}
	if _, found, _ := store.GetRecord(ctx, "k", now.Add(2*time.Hour)); found {
		t.Fatalf("record should expire")
	}

	if err := store.PutRecord(ctx, ports.IdempotencyRecord{Key: "x", RequestHash: "a"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	err := store.PutRecord(ctx, ports.IdempotencyRecord{Key: "x", RequestHash: "b"})
	if !errors.Is(err, domainerrors.ErrIdempotencyKeyConflict) {
		t.Fatalf("expected hash conflict, got %v", err)
	}
}

func TestStoreReserveEvent(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	expiry := time.Now().UTC().Add(time.Hour)

	replayed, err := store.ReserveEvent(ctx, "evt", "hash", expiry)
	if err != nil || replayed {
		t.Fatalf("first reservation: replayed=%v err=%v", replayed, err)
	}
	replayed, err = store.ReserveEvent(ctx, "evt", "hash", expiry)
	if err != nil || !replayed {
		t.Fatalf("second reservation should report replay: replayed=%v err=%v", replayed, err)
	}
	if _, err := store.ReserveEvent(ctx, "evt", "other-hash", expiry); !errors.Is(err, domainerrors.ErrIdempotencyKeyConflict) {
		t.Fatalf("same id with different payload must conflict, got %v", err)
	}
}
