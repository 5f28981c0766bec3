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

type ListAccountAchievementsQuery struct {
	OrgID     string
	AccountID string
}

type ListAccountAchievementsResult struct {
	Items []entities.Achievement
}

type ListAccountAchievementsUseCase struct {
	Achievements ports.AchievementRepository
	Logger       *slog.Logger
}

func (u ListAccountAchievementsUseCase) Execute(
	ctx context.Context,
	query ListAccountAchievementsQuery,
) (ListAccountAchievementsResult, error) {
	logger := application.ResolveLogger(u.Logger)
	orgID := strings.TrimSpace(query.OrgID)
	accountID := strings.TrimSpace(query.AccountID)
	if orgID == "" || accountID == "" {
		return ListAccountAchievementsResult{}, domainerrors.ErrInvalidRequest
	}

	items, err := u.Achievements.ListAchievementsByAccount(ctx, orgID, accountID)
	if err != nil {
		logger.Error("list account achievements failed",
			"event", "list_account_achievements_failed",
			"module", "badge-ledger/issuance-service",
			"layer", "application",
			"org_id", orgID,
			"account_id", accountID,
			"error", err.Error(),
		)
		return ListAccountAchievementsResult{}, err
	}
	return ListAccountAchievementsResult{Items: items}, nil
}
