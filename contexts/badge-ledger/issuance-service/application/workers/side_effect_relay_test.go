package workers

import (
	"context"
	"testing"
	"time"

	"openprofiles/contexts/badge-ledger/issuance-service/adapters/memory"
	application "openprofiles/contexts/badge-ledger/issuance-service/application"
	"openprofiles/contexts/badge-ledger/issuance-service/domain/entities"
	"openprofiles/contexts/badge-ledger/issuance-service/ports"
)

func stageEffect(t *testing.T, store *memory.Store, eventType string, payload any) ports.OutboxMessage {
	t.Helper()
	message, err := application.StageSideEffect(
		context.Background(), store, time.Now().UTC(), eventType, "acme", payload,
	)
	if err != nil {
		t.Fatalf("stage %s: %v", eventType, err)
	}
	return message
}

// seedOutbox persists staged messages through a throwaway badge write, the
// same transactional path production code uses.
func seedOutbox(t *testing.T, store *memory.Store, messages ...ports.OutboxMessage) {
	t.Helper()
	_, err := store.CreateBadgeWithOutbox(context.Background(), entities.Badge{
		OrgID:    "seed-org",
		IssuerID: "seed-issuer",
		Name:     "seed-" + t.Name(),
	}, messages)
	if err != nil {
		t.Fatalf("seed outbox: %v", err)
	}
}

func TestSideEffectRelayDispatchesEachType(t *testing.T) {
	store := memory.NewStore()
	billing := memory.NewBillingRecorder()
	assets := memory.NewAssetServiceSim(nil, application.EventTypeTemplateCreated)

	seedOutbox(t, store,
		stageEffect(t, store, application.EventTypeCreditUsed, application.CreditUsedPayload{
			OrgID:     "acme",
			BytesUsed: 288,
		}),
		stageEffect(t, store, application.EventTypeTemplateCreateRequested, ports.CreateTemplateRequest{
			Creator:    application.SourceService,
			Collection: "openprofiles",
			Schema:     "openschema",
			ImmutableAttributes: map[string]string{
				application.AttributeOrg:    "acme",
				application.AttributeBadge:  "explorer",
				application.AttributeIssuer: "acme.issr",
			},
		}),
		stageEffect(t, store, application.EventTypeMintRequested, ports.MintAssetRequest{
			Creator:    application.SourceService,
			Collection: "openprofiles",
			Schema:     "openschema",
			OwnerID:    "alice",
		}),
	)

	relay := SideEffectRelay{
		Outbox:  store,
		Billing: billing,
		Assets:  assets,
		Clock:   store,
	}
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("relay run: %v", err)
	}

	if len(billing.Calls) != 1 || billing.Calls[0].BytesUsed != 288 {
		t.Fatalf("billing calls = %+v, want one 288-byte deduction", billing.Calls)
	}
	if len(assets.Templates) != 1 {
		t.Fatalf("template creates = %d, want 1", len(assets.Templates))
	}
	if assets.MintCount() != 1 {
		t.Fatalf("mints = %d, want 1", assets.MintCount())
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("all rows should be marked sent, %d still pending", len(pending))
	}
}

func TestSideEffectRelayRetriesFailedDispatch(t *testing.T) {
	store := memory.NewStore()
	billing := memory.NewBillingRecorder()
	billing.FailNext = true
	assets := memory.NewAssetServiceSim(nil, application.EventTypeTemplateCreated)

	message := stageEffect(t, store, application.EventTypeCreditUsed, application.CreditUsedPayload{
		OrgID:     "acme",
		BytesUsed: 288,
	})
	seedOutbox(t, store, message)

	relay := SideEffectRelay{
		Outbox:     store,
		Billing:    billing,
		Assets:     assets,
		Clock:      store,
		MaxRetries: 5,
	}

	if err := relay.RunOnce(context.Background()); err == nil {
		t.Fatalf("expected first cycle to surface the dispatch failure")
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("failed row must stay pending, got %d rows", len(pending))
	}
	if pending[0].RetryCount != 1 {
		t.Fatalf("retry count = %d, want 1", pending[0].RetryCount)
	}

	// Next cycle succeeds and drains the row.
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("second cycle: %v", err)
	}
	if len(billing.Calls) != 1 {
		t.Fatalf("billing should have been retried exactly once more, calls = %d", len(billing.Calls))
	}
}

func TestSideEffectRelayTerminalAfterMaxRetries(t *testing.T) {
	store := memory.NewStore()
	billing := memory.NewBillingRecorder()
	assets := memory.NewAssetServiceSim(nil, application.EventTypeTemplateCreated)

	message := stageEffect(t, store, application.EventTypeCreditUsed, application.CreditUsedPayload{
		OrgID:     "acme",
		BytesUsed: 288,
	})
	seedOutbox(t, store, message)

	relay := SideEffectRelay{
		Outbox:     store,
		Billing:    billing,
		Assets:     assets,
		Clock:      store,
		MaxRetries: 2,
	}

	for i := 0; i < 2; i++ {
		billing.FailNext = true
		if err := relay.RunOnce(context.Background()); err == nil {
			t.Fatalf("cycle %d should fail", i)
		}
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("row should be terminal after max retries, %d still pending", len(pending))
	}
}
