package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	application "openprofiles/contexts/badge-ledger/issuance-service/application"
	"openprofiles/contexts/badge-ledger/issuance-service/ports"
)

// SideEffectRelay drains the outbox and dispatches each staged row to its
// external collaborator. Rows stay pending on dispatch failure and are
// retried on the next cycle; once MaxRetries is exhausted the row moves to
// the failed status and requires operator attention. Local ledger state is
// never unwound after commit — the compensation path is retry, not rollback.
type SideEffectRelay struct {
	Outbox     ports.OutboxRepository
	Billing    ports.BillingService
	Assets     ports.AssetService
	Clock      ports.Clock
	BatchSize  int
	MaxRetries int
	Logger     *slog.Logger
}

func (r SideEffectRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("outbox list pending failed",
			"event", "side_effect_outbox_list_failed",
			"module", "badge-ledger/issuance-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}

	for _, message := range pending {
		if err := r.dispatch(ctx, message); err != nil {
			retries := message.RetryCount + 1
			terminal := r.MaxRetries > 0 && retries >= r.MaxRetries
			logger.Error("side effect dispatch failed",
				"event", "side_effect_dispatch_failed",
				"module", "badge-ledger/issuance-service",
				"layer", "worker",
				"outbox_id", message.OutboxID,
				"event_type", message.EventType,
				"retry_count", retries,
				"terminal", terminal,
				"error", err.Error(),
			)
			if markErr := r.Outbox.MarkOutboxFailed(ctx, message.OutboxID, retries, terminal); markErr != nil {
				return markErr
			}
			return err
		}
		if err := r.Outbox.MarkOutboxSent(ctx, message.OutboxID, now); err != nil {
			logger.Error("outbox mark sent failed",
				"event", "side_effect_outbox_mark_sent_failed",
				"module", "badge-ledger/issuance-service",
				"layer", "worker",
				"outbox_id", message.OutboxID,
				"error", err.Error(),
			)
			return err
		}
	}

	if len(pending) > 0 {
		logger.Info("side effect relay cycle completed",
			"event", "side_effect_relay_completed",
			"module", "badge-ledger/issuance-service",
			"layer", "worker",
			"sent_count", len(pending),
		)
	}
	return nil
}

func (r SideEffectRelay) dispatch(ctx context.Context, message ports.OutboxMessage) error {
	var envelope ports.EventEnvelope
	if err := json.Unmarshal(message.Payload, &envelope); err != nil {
		return fmt.Errorf("decode outbox envelope: %w", err)
	}

	switch envelope.EventType {
	case application.EventTypeCreditUsed:
		var payload application.CreditUsedPayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return fmt.Errorf("decode credit payload: %w", err)
		}
		return r.Billing.UseCredit(ctx, payload.OrgID, payload.BytesUsed)
	case application.EventTypeTemplateCreateRequested:
		var payload ports.CreateTemplateRequest
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return fmt.Errorf("decode template payload: %w", err)
		}
		return r.Assets.CreateTemplate(ctx, payload)
	case application.EventTypeMintRequested:
		var payload ports.MintAssetRequest
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return fmt.Errorf("decode mint payload: %w", err)
		}
		return r.Assets.MintAsset(ctx, payload)
	default:
		return fmt.Errorf("unknown side effect event type %q", envelope.EventType)
	}
}
