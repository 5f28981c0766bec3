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

type ListBadgesQuery struct {
	OrgID string
}

type ListBadgesResult struct {
	Items []entities.Badge
}

type ListBadgesUseCase struct {
	Badges ports.BadgeRepository
	Logger *slog.Logger
}

func (u ListBadgesUseCase) Execute(ctx context.Context, query ListBadgesQuery) (ListBadgesResult, error) {
	logger := application.ResolveLogger(u.Logger)
	orgID := strings.TrimSpace(query.OrgID)
	if orgID == "" {
		return ListBadgesResult{}, domainerrors.ErrInvalidRequest
	}

	items, err := u.Badges.ListBadges(ctx, orgID)
	if err != nil {
		logger.Error("list badges failed",
			"event", "list_badges_failed",
			"module", "badge-ledger/issuance-service",
			"layer", "application",
			"org_id", orgID,
			"error", err.Error(),
		)
		return ListBadgesResult{}, err
	}
	return ListBadgesResult{Items: items}, nil
}
