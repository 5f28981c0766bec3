package commands

import (
	"context"
	"log/slog"
	"strings"

	application "openprofiles/contexts/badge-ledger/issuance-service/application"
	domainerrors "openprofiles/contexts/badge-ledger/issuance-service/domain/errors"
	"openprofiles/contexts/badge-ledger/issuance-service/domain/services"
	"openprofiles/contexts/badge-ledger/issuance-service/ports"
)

type DeleteOrgCommand struct {
	OrgID    string
	CallerID string
}

type DeleteOrgResult struct {
	Removed ports.OrgPurgeResult
}

type DeleteOrgUseCase struct {
	Orgs   ports.OrgRepository
	Logger *slog.Logger
}

// Execute deletes the org's trust set. Badge and achievement rows share the
// org lifecycle and are purged in the same atomic unit.
func (u DeleteOrgUseCase) Execute(ctx context.Context, cmd DeleteOrgCommand) (DeleteOrgResult, error) {
	logger := application.ResolveLogger(u.Logger)
	orgID := strings.TrimSpace(cmd.OrgID)
	if orgID == "" {
		return DeleteOrgResult{}, domainerrors.ErrInvalidRequest
	}
	if !services.HoldsOrgAuthority(orgID, strings.TrimSpace(cmd.CallerID)) {
		return DeleteOrgResult{}, domainerrors.ErrOrgAuthorityRequired
	}

	removed, err := u.Orgs.PurgeOrg(ctx, orgID)
	if err != nil {
		return DeleteOrgResult{}, err
	}

	logger.Info("org deleted",
		"event", "org_deleted",
		"module", "badge-ledger/issuance-service",
		"layer", "application",
		"org_id", orgID,
		"issuers_removed", removed.Issuers,
		"badges_removed", removed.Badges,
		"achievements_removed", removed.Achievements,
	)
	return DeleteOrgResult{Removed: removed}, nil
}
