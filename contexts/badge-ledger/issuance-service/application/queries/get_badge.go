package queries

import (
	"context"
	"log/slog"
	"strings"

	application "openprofiles/contexts/badge-ledger/issuance-service/application"
	"openprofiles/contexts/badge-ledger/issuance-service/domain/entities"
	domainerrors "openprofiles/contexts/badge-ledger/issuance-service/domain/errors"
	"openprofiles/contexts/badge-ledger/issuance-service/ports"
)

type GetBadgeQuery struct {
	OrgID     string
	IssuerID  string
	BadgeName string
}

type GetBadgeResult struct {
	Badge entities.Badge
}

type GetBadgeUseCase struct {
	Badges ports.BadgeRepository
	Logger *slog.Logger
}

func (u GetBadgeUseCase) Execute(ctx context.Context, query GetBadgeQuery) (GetBadgeResult, error) {
	logger := application.ResolveLogger(u.Logger)
	orgID := strings.TrimSpace(query.OrgID)
	issuerID := strings.TrimSpace(query.IssuerID)
	badgeName := strings.TrimSpace(query.BadgeName)
	if orgID == "" || issuerID == "" || badgeName == "" {
		return GetBadgeResult{}, domainerrors.ErrInvalidRequest
	}

	badge, err := u.Badges.GetBadge(ctx, orgID, issuerID, badgeName)
	if err != nil {
		logger.Error("get badge failed",
			"event", "get_badge_failed",
			"module", "badge-ledger/issuance-service",
			"layer", "application",
			"org_id", orgID,
			"issuer_id", issuerID,
			"badge", badgeName,
			"error", err.Error(),
		)
		return GetBadgeResult{}, err
	}
	return GetBadgeResult{Badge: badge}, nil
}
