package workers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"openprofiles/contexts/badge-ledger/issuance-service/adapters/memory"
	application "openprofiles/contexts/badge-ledger/issuance-service/application"
	"openprofiles/contexts/badge-ledger/issuance-service/domain/entities"
	domainerrors "openprofiles/contexts/badge-ledger/issuance-service/domain/errors"
	"openprofiles/contexts/badge-ledger/issuance-service/ports"
)

func templateCreatedEvent(t *testing.T, eventID string, payload application.TemplateCreatedPayload) ports.EventEnvelope {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return ports.EventEnvelope{
		EventID:       eventID,
		EventType:     application.EventTypeTemplateCreated,
		OccurredAt:    time.Now().UTC(),
		SourceService: "atomicassets-sim",
		SchemaVersion: 1,
		PartitionKey:  "openprofiles",
		Data:          data,
	}
}

func newSyncFixture(t *testing.T) (*memory.Store, *memory.Bus, TemplateSyncConsumer) {
	t.Helper()
	store := memory.NewStore()
	bus := memory.NewBus()

	if _, err := store.CreateBadgeWithOutbox(context.Background(), entities.Badge{
		OrgID:          "acme",
		IssuerID:       "acme.issr",
		Name:           "explorer",
		MirrorToAssets: true,
	}, nil); err != nil {
		t.Fatalf("seed badge: %v", err)
	}

	consumer := TemplateSyncConsumer{
		Subscriber: bus,
		Badges:     store,
		Dedup:      store,
		Clock:      store,
	}
	if err := consumer.Start(context.Background()); err != nil {
		t.Fatalf("start consumer: %v", err)
	}
	return store, bus, consumer
}

func TestTemplateSyncReconcilesTemplateID(t *testing.T) {
	store, bus, _ := newSyncFixture(t)

	event := templateCreatedEvent(t, "evt-1", application.TemplateCreatedPayload{
		TemplateID: 42,
		Collection: "openprofiles",
		Schema:     "openschema",
		ImmutableAttributes: map[string]string{
			application.AttributeOrg:    "acme",
			application.AttributeIssuer: "acme.issr",
			application.AttributeBadge:  "explorer",
		},
	})
	if err := bus.Publish(context.Background(), application.EventTypeTemplateCreated, event); err != nil {
		t.Fatalf("publish: %v", err)
	}

	badge, err := store.GetBadge(context.Background(), "acme", "acme.issr", "explorer")
	if err != nil {
		t.Fatalf("get badge: %v", err)
	}
	if badge.TemplateID != 42 {
		t.Fatalf("template id = %d, want 42", badge.TemplateID)
	}
	if !badge.Reconciled() {
		t.Fatalf("badge should report reconciled")
	}
}

func TestTemplateSyncRejectsMalformedNotification(t *testing.T) {
	store, bus, _ := newSyncFixture(t)

	cases := []struct {
		name    string
		payload application.TemplateCreatedPayload
	}{
		{
			name: "missing attributes",
			payload: application.TemplateCreatedPayload{
				TemplateID:          7,
				ImmutableAttributes: map[string]string{},
			},
		},
		{
			name: "non-positive template id",
			payload: application.TemplateCreatedPayload{
				TemplateID: 0,
				ImmutableAttributes: map[string]string{
					application.AttributeOrg:    "acme",
					application.AttributeIssuer: "acme.issr",
					application.AttributeBadge:  "explorer",
				},
			},
		},
		{
			name: "blank badge attribute",
			payload: application.TemplateCreatedPayload{
				TemplateID: 7,
				ImmutableAttributes: map[string]string{
					application.AttributeOrg:    "acme",
					application.AttributeIssuer: "acme.issr",
					application.AttributeBadge:  "   ",
				},
			},
		},
	}

	for i, tc := range cases {
		event := templateCreatedEvent(t, "evt-bad-"+tc.name, tc.payload)
		err := bus.Publish(context.Background(), application.EventTypeTemplateCreated, event)
		if !errors.Is(err, domainerrors.ErrMalformedNotification) {
			t.Fatalf("case %d (%s): expected ErrMalformedNotification, got %v", i, tc.name, err)
		}
	}

	badge, err := store.GetBadge(context.Background(), "acme", "acme.issr", "explorer")
	if err != nil {
		t.Fatalf("get badge: %v", err)
	}
	if badge.TemplateID != 0 {
		t.Fatalf("malformed notifications must not touch the badge, template id = %d", badge.TemplateID)
	}
}

func TestTemplateSyncUnknownBadgeSurfacesError(t *testing.T) {
	_, bus, _ := newSyncFixture(t)

	event := templateCreatedEvent(t, "evt-ghost", application.TemplateCreatedPayload{
		TemplateID: 9,
		ImmutableAttributes: map[string]string{
			application.AttributeOrg:    "acme",
			application.AttributeIssuer: "acme.issr",
			application.AttributeBadge:  "ghost",
		},
	})
	err := bus.Publish(context.Background(), application.EventTypeTemplateCreated, event)
	if !errors.Is(err, domainerrors.ErrBadgeNotFound) {
		t.Fatalf("an unmatched notification signals an integrity problem, got %v", err)
	}
}

func TestTemplateSyncDeduplicatesReplays(t *testing.T) {
	store, bus, _ := newSyncFixture(t)

	event := templateCreatedEvent(t, "evt-dup", application.TemplateCreatedPayload{
		TemplateID: 42,
		ImmutableAttributes: map[string]string{
			application.AttributeOrg:    "acme",
			application.AttributeIssuer: "acme.issr",
			application.AttributeBadge:  "explorer",
		},
	})
	for i := 0; i < 2; i++ {
		if err := bus.Publish(context.Background(), application.EventTypeTemplateCreated, event); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}

	badge, err := store.GetBadge(context.Background(), "acme", "acme.issr", "explorer")
	if err != nil {
		t.Fatalf("get badge: %v", err)
	}
	if badge.TemplateID != 42 {
		t.Fatalf("template id = %d, want 42", badge.TemplateID)
	}
}
