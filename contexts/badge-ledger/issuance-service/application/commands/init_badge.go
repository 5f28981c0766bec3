package commands

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "openprofiles/contexts/badge-ledger/issuance-service/application"
	"openprofiles/contexts/badge-ledger/issuance-service/domain/entities"
	domainerrors "openprofiles/contexts/badge-ledger/issuance-service/domain/errors"
	"openprofiles/contexts/badge-ledger/issuance-service/domain/services"
	"openprofiles/contexts/badge-ledger/issuance-service/ports"
)

type InitBadgeCommand struct {
	OrgID          string
	CallerID       string
	BadgeName      string
	URI            string
	Details        string
	MirrorToAssets bool
	IdempotencyKey string
}

type InitBadgeResult struct {
	Badge    entities.Badge
	Replayed bool
}

type InitBadgeUseCase struct {
	Issuers        ports.IssuerRepository
	Badges         ports.BadgeRepository
	Idempotency    ports.IdempotencyStore
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	Collection     string
	Schema         string
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

// Execute registers a badge for the calling trusted issuer. The badge row and
// its staged side effects (credit deduction, optional template-create
// request) commit in one transaction; any failure leaves no partial writes.
// Templates are requested with the org/badge/issuer triple embedded as
// immutable attributes so the created template can be reconciled back, and
// with no counts since the template id is not yet known.
func (u InitBadgeUseCase) Execute(ctx context.Context, cmd InitBadgeCommand) (InitBadgeResult, error) {
	logger := application.ResolveLogger(u.Logger)
	orgID := strings.TrimSpace(cmd.OrgID)
	badgeName := strings.TrimSpace(cmd.BadgeName)
	if orgID == "" || badgeName == "" {
		return InitBadgeResult{}, domainerrors.ErrInvalidRequest
	}

	issuerID, err := resolveTrustedIssuer(ctx, u.Issuers, orgID, cmd.CallerID)
	if err != nil {
		logger.Warn("init badge rejected",
			"event", "init_badge_unauthorized",
			"module", "badge-ledger/issuance-service",
			"layer", "application",
			"org_id", orgID,
			"caller_id", cmd.CallerID,
			"badge", badgeName,
		)
		return InitBadgeResult{}, err
	}

	now := u.now()
	idempotencyKey := strings.TrimSpace(cmd.IdempotencyKey)
	requestHash := hashRequest(map[string]any{
		"request_type": "init_badge",
		"org_id":       orgID,
		"issuer_id":    issuerID,
		"badge":        badgeName,
		"uri":          cmd.URI,
		"details":      cmd.Details,
		"mirror":       cmd.MirrorToAssets,
	})
	if idempotencyKey != "" {
		record, found, err := u.Idempotency.GetRecord(ctx, idempotencyKey, now)
		if err != nil {
			return InitBadgeResult{}, err
		}
		if found {
			if record.RequestHash != requestHash {
				return InitBadgeResult{}, domainerrors.ErrIdempotencyKeyConflict
			}
			var replayed InitBadgeResult
			if err := json.Unmarshal(record.ResponsePayload, &replayed); err != nil {
				return InitBadgeResult{}, err
			}
			replayed.Replayed = true
			return replayed, nil
		}
	}

	messages := make([]ports.OutboxMessage, 0, 2)
	credit, err := application.StageSideEffect(ctx, u.IDGen, now, application.EventTypeCreditUsed, orgID,
		application.CreditUsedPayload{
			OrgID:     orgID,
			BytesUsed: services.BadgeInitBytes(cmd.Details, cmd.URI),
		})
	if err != nil {
		return InitBadgeResult{}, err
	}
	messages = append(messages, credit)

	if cmd.MirrorToAssets {
		template, err := application.StageSideEffect(ctx, u.IDGen, now, application.EventTypeTemplateCreateRequested, orgID,
			ports.CreateTemplateRequest{
				Creator:      application.SourceService,
				Collection:   u.Collection,
				Schema:       u.Schema,
				Transferable: false,
				Burnable:     false,
				MaxSupply:    0,
				ImmutableAttributes: map[string]string{
					application.AttributeOrg:    orgID,
					application.AttributeBadge:  badgeName,
					application.AttributeIssuer: issuerID,
				},
			})
		if err != nil {
			return InitBadgeResult{}, err
		}
		messages = append(messages, template)
	}

	badge, err := u.Badges.CreateBadgeWithOutbox(ctx, entities.Badge{
		OrgID:          orgID,
		IssuerID:       issuerID,
		Name:           badgeName,
		MirrorToAssets: cmd.MirrorToAssets,
		URI:            cmd.URI,
		Details:        cmd.Details,
		RarityCount:    0,
	}, messages)
	if err != nil {
		if errors.Is(err, domainerrors.ErrBadgeAlreadyExists) {
			logger.Warn("init badge duplicate",
				"event", "init_badge_duplicate",
				"module", "badge-ledger/issuance-service",
				"layer", "application",
				"org_id", orgID,
				"issuer_id", issuerID,
				"badge", badgeName,
			)
		}
		return InitBadgeResult{}, err
	}

	result := InitBadgeResult{Badge: badge}
	if idempotencyKey != "" {
		payload, err := json.Marshal(result)
		if err != nil {
			return InitBadgeResult{}, err
		}
		if err := u.Idempotency.PutRecord(ctx, ports.IdempotencyRecord{
			Key:             idempotencyKey,
			RequestHash:     requestHash,
			ResponsePayload: payload,
			ExpiresAt:       now.Add(u.idempotencyTTL()),
		}); err != nil {
			return InitBadgeResult{}, err
		}
	}

	logger.Info("badge registered",
		"event", "badge_registered",
		"module", "badge-ledger/issuance-service",
		"layer", "application",
		"org_id", orgID,
		"issuer_id", issuerID,
		"badge", badgeName,
		"badge_id", badge.BadgeID,
		"mirror_to_assets", badge.MirrorToAssets,
	)
	return result, nil
}

func (u InitBadgeUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}

func (u InitBadgeUseCase) idempotencyTTL() time.Duration {
	if u.IdempotencyTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return u.IdempotencyTTL
}
