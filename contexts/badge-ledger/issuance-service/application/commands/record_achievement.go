package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	application "openprofiles/contexts/badge-ledger/issuance-service/application"
	domainerrors "openprofiles/contexts/badge-ledger/issuance-service/domain/errors"
	"openprofiles/contexts/badge-ledger/issuance-service/domain/services"
	"openprofiles/contexts/badge-ledger/issuance-service/ports"
)

type RecordAchievementCommand struct {
	OrgID          string
	CallerID       string
	BadgeName      string
	AccountID      string
	Count          uint64
	IdempotencyKey string
}

type RecordAchievementResult struct {
	BadgeID      uint64
	NewlyCreated bool
	Count        uint64
	RarityCount  uint64
	TotalMinted  uint64
	Replayed     bool
}

type RecordAchievementUseCase struct {
	Issuers        ports.IssuerRepository
	Badges         ports.BadgeRepository
	Achievements   ports.AchievementRepository
	Preferences    ports.PreferenceService
	Idempotency    ports.IdempotencyStore
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	Collection     string
	Schema         string
	MintBatchLimit uint64
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

// Execute records count achievement units for (account, badge) in this order:
// 1) trusted-issuer authorization
// 2) idempotency lookup/replay
// 3) synchronous preference check, the one collaborator able to veto
// 4) atomic transaction: rarity bump, create-or-increment achievement row,
//    staged credit deduction plus count unit mint requests when mirroring.
// The ledger counter moves by the full count in one update while mirroring
// stages count discrete unit mints: the external system has no bulk mint.
func (u RecordAchievementUseCase) Execute(ctx context.Context, cmd RecordAchievementCommand) (RecordAchievementResult, error) {
	logger := application.ResolveLogger(u.Logger)
	orgID := strings.TrimSpace(cmd.OrgID)
	badgeName := strings.TrimSpace(cmd.BadgeName)
	accountID := strings.TrimSpace(cmd.AccountID)
	if orgID == "" || badgeName == "" || accountID == "" || cmd.Count == 0 {
		return RecordAchievementResult{}, domainerrors.ErrInvalidRequest
	}

	issuerID, err := resolveTrustedIssuer(ctx, u.Issuers, orgID, cmd.CallerID)
	if err != nil {
		logger.Warn("record achievement rejected",
			"event", "record_achievement_unauthorized",
			"module", "badge-ledger/issuance-service",
			"layer", "application",
			"org_id", orgID,
			"caller_id", cmd.CallerID,
			"badge", badgeName,
			"account_id", accountID,
		)
		return RecordAchievementResult{}, err
	}

	now := u.now()
	idempotencyKey := strings.TrimSpace(cmd.IdempotencyKey)
	requestHash := hashRequest(map[string]any{
		"request_type": "record_achievement",
		"org_id":       orgID,
		"issuer_id":    issuerID,
		"badge":        badgeName,
		"account_id":   accountID,
		"count":        cmd.Count,
	})
	if idempotencyKey != "" {
		record, found, err := u.Idempotency.GetRecord(ctx, idempotencyKey, now)
		if err != nil {
			return RecordAchievementResult{}, err
		}
		if found {
			if record.RequestHash != requestHash {
				return RecordAchievementResult{}, domainerrors.ErrIdempotencyKeyConflict
			}
			var replayed RecordAchievementResult
			if err := json.Unmarshal(record.ResponsePayload, &replayed); err != nil {
				return RecordAchievementResult{}, err
			}
			replayed.Replayed = true
			return replayed, nil
		}
	}

	if err := u.Preferences.CheckAllow(ctx, orgID, accountID); err != nil {
		logger.Warn("achievement vetoed by account preferences",
			"event", "record_achievement_vetoed",
			"module", "badge-ledger/issuance-service",
			"layer", "application",
			"org_id", orgID,
			"account_id", accountID,
			"error", err.Error(),
		)
		return RecordAchievementResult{}, domainerrors.ErrAchievementVetoed
	}

	badge, err := u.Badges.GetBadge(ctx, orgID, issuerID, badgeName)
	if err != nil {
		return RecordAchievementResult{}, err
	}

	totalMinted := uint64(0)
	if badge.MirrorToAssets {
		if limit := u.mintBatchLimit(); cmd.Count > limit {
			logger.Warn("mint ceiling exceeded",
				"event", "record_achievement_mint_ceiling",
				"module", "badge-ledger/issuance-service",
				"layer", "application",
				"org_id", orgID,
				"badge_id", badge.BadgeID,
				"count", cmd.Count,
				"limit", limit,
			)
			return RecordAchievementResult{}, domainerrors.ErrResourceExhausted
		}
		totalMinted = cmd.Count
	}

	messages := make([]ports.OutboxMessage, 0, 1+totalMinted)
	credit, err := application.StageSideEffect(ctx, u.IDGen, now, application.EventTypeCreditUsed, orgID,
		application.CreditUsedPayload{
			OrgID:     orgID,
			BytesUsed: services.AchievementBytes(),
		})
	if err != nil {
		return RecordAchievementResult{}, err
	}
	messages = append(messages, credit)

	// One message per unit: mint requests carry no quantity field.
	for i := uint64(0); i < totalMinted; i++ {
		mint, err := application.StageSideEffect(ctx, u.IDGen, now, application.EventTypeMintRequested, orgID,
			ports.MintAssetRequest{
				Creator:             application.SourceService,
				Collection:          u.Collection,
				Schema:              u.Schema,
				TemplateID:          badge.TemplateID,
				OwnerID:             accountID,
				ImmutableAttributes: map[string]string{},
				MutableAttributes:   map[string]string{},
				BackingAssets:       nil,
			})
		if err != nil {
			return RecordAchievementResult{}, err
		}
		messages = append(messages, mint)
	}

	row, err := u.Achievements.RecordAchievementWithOutbox(ctx, ports.RecordAchievementParams{
		OrgID:     orgID,
		IssuerID:  issuerID,
		BadgeName: badgeName,
		AccountID: accountID,
		Count:     cmd.Count,
		Messages:  messages,
	})
	if err != nil {
		return RecordAchievementResult{}, err
	}

	result := RecordAchievementResult{
		BadgeID:      row.BadgeID,
		NewlyCreated: row.NewlyCreated,
		Count:        row.Count,
		RarityCount:  row.RarityCount,
		TotalMinted:  totalMinted,
	}
	if idempotencyKey != "" {
		payload, err := json.Marshal(result)
		if err != nil {
			return RecordAchievementResult{}, err
		}
		if err := u.Idempotency.PutRecord(ctx, ports.IdempotencyRecord{
			Key:             idempotencyKey,
			RequestHash:     requestHash,
			ResponsePayload: payload,
			ExpiresAt:       now.Add(u.idempotencyTTL()),
		}); err != nil {
			return RecordAchievementResult{}, err
		}
	}

	logger.Info("achievement recorded",
		"event", "achievement_recorded",
		"module", "badge-ledger/issuance-service",
		"layer", "application",
		"org_id", orgID,
		"issuer_id", issuerID,
		"badge_id", row.BadgeID,
		"account_id", accountID,
		"count", cmd.Count,
		"cumulative_count", row.Count,
		"rarity_count", row.RarityCount,
		"newly_created", row.NewlyCreated,
		"total_minted", totalMinted,
	)
	return result, nil
}

func (u RecordAchievementUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}

func (u RecordAchievementUseCase) idempotencyTTL() time.Duration {
	if u.IdempotencyTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return u.IdempotencyTTL
}

func (u RecordAchievementUseCase) mintBatchLimit() uint64 {
	if u.MintBatchLimit == 0 {
		return 100
	}
	return u.MintBatchLimit
}
