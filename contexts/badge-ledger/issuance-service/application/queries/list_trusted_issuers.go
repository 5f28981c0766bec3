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

type ListTrustedIssuersQuery struct {
	OrgID string
}

type ListTrustedIssuersResult struct {
	Items []entities.TrustedIssuer
}

type ListTrustedIssuersUseCase struct {
	Issuers ports.IssuerRepository
	Logger  *slog.Logger
}

func (u ListTrustedIssuersUseCase) Execute(
	ctx context.Context,
	query ListTrustedIssuersQuery,
) (ListTrustedIssuersResult, error) {
	logger := application.ResolveLogger(u.Logger)
	orgID := strings.TrimSpace(query.OrgID)
	if orgID == "" {
		return ListTrustedIssuersResult{}, domainerrors.ErrInvalidRequest
	}

	items, err := u.Issuers.ListTrustedIssuers(ctx, orgID)
	if err != nil {
		logger.Error("list trusted issuers failed",
			"event", "list_trusted_issuers_failed",
			"module", "badge-ledger/issuance-service",
			"layer", "application",
			"org_id", orgID,
			"error", err.Error(),
		)
		return ListTrustedIssuersResult{}, err
	}
	return ListTrustedIssuersResult{Items: items}, nil
}
