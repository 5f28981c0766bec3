package workers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	application "openprofiles/contexts/badge-ledger/issuance-service/application"
	domainerrors "openprofiles/contexts/badge-ledger/issuance-service/domain/errors"
	"openprofiles/contexts/badge-ledger/issuance-service/ports"
)

const templateSyncConsumerGroup = "badge-ledger-template-sync-cg"

// TemplateSyncConsumer reconciles external template ids back onto badge rows.
// It is the only inbound trust boundary from the asset system into the
// ledger's write path: the org/issuer/badge triple embedded at
// template-creation-request time must decode cleanly or the notification is
// rejected as malformed rather than guessed at.
type TemplateSyncConsumer struct {
	Subscriber    ports.EventSubscriber
	Badges        ports.BadgeRepository
	Dedup         ports.EventDedupStore
	Clock         ports.Clock
	ConsumerGroup string
	DedupTTL      time.Duration
	Logger        *slog.Logger
}

func (c TemplateSyncConsumer) Start(ctx context.Context) error {
	group := c.ConsumerGroup
	if group == "" {
		group = templateSyncConsumerGroup
	}
	return c.Subscriber.Subscribe(ctx, application.EventTypeTemplateCreated, group, c.handleTemplateCreated)
}

func (c TemplateSyncConsumer) handleTemplateCreated(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(c.Logger)
	now := time.Now().UTC()
	if c.Clock != nil {
		now = c.Clock.Now().UTC()
	}

	payloadHash := hashPayload(event.Data)
	alreadyProcessed, err := c.Dedup.ReserveEvent(ctx, event.EventID, payloadHash, now.Add(c.dedupTTL()))
	if err != nil {
		return err
	}
	if alreadyProcessed {
		logger.Debug("template notification already processed",
			"event", "template_sync_replayed",
			"module", "badge-ledger/issuance-service",
			"layer", "worker",
			"event_id", event.EventID,
		)
		return nil
	}

	orgID, issuerID, badgeName, templateID, err := decodeTemplateCreated(event.Data)
	if err != nil {
		logger.Error("template notification rejected",
			"event", "template_sync_malformed",
			"module", "badge-ledger/issuance-service",
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}

	if err := c.Badges.SetTemplateID(ctx, orgID, issuerID, badgeName, templateID); err != nil {
		logger.Error("template id reconcile failed",
			"event", "template_sync_reconcile_failed",
			"module", "badge-ledger/issuance-service",
			"layer", "worker",
			"event_id", event.EventID,
			"org_id", orgID,
			"issuer_id", issuerID,
			"badge", badgeName,
			"template_id", templateID,
			"error", err.Error(),
		)
		return err
	}

	logger.Info("template id reconciled",
		"event", "template_sync_reconciled",
		"module", "badge-ledger/issuance-service",
		"layer", "worker",
		"event_id", event.EventID,
		"org_id", orgID,
		"issuer_id", issuerID,
		"badge", badgeName,
		"template_id", templateID,
	)
	return nil
}

// decodeTemplateCreated extracts the badge identity a template was created
// for. Any missing piece fails with ErrMalformedNotification.
func decodeTemplateCreated(data []byte) (orgID, issuerID, badgeName string, templateID int32, err error) {
	var payload application.TemplateCreatedPayload
	if jsonErr := json.Unmarshal(data, &payload); jsonErr != nil {
		return "", "", "", 0, domainerrors.ErrMalformedNotification
	}
	if payload.TemplateID <= 0 {
		return "", "", "", 0, domainerrors.ErrMalformedNotification
	}
	orgID = strings.TrimSpace(payload.ImmutableAttributes[application.AttributeOrg])
	issuerID = strings.TrimSpace(payload.ImmutableAttributes[application.AttributeIssuer])
	badgeName = strings.TrimSpace(payload.ImmutableAttributes[application.AttributeBadge])
	if orgID == "" || issuerID == "" || badgeName == "" {
		return "", "", "", 0, domainerrors.ErrMalformedNotification
	}
	return orgID, issuerID, badgeName, payload.TemplateID, nil
}

func (c TemplateSyncConsumer) dedupTTL() time.Duration {
	if c.DedupTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return c.DedupTTL
}

func hashPayload(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
