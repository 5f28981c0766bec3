package commands

import (
	"context"
	"log/slog"
	"strings"

	application "openprofiles/contexts/badge-ledger/issuance-service/application"
	"openprofiles/contexts/badge-ledger/issuance-service/domain/entities"
	domainerrors "openprofiles/contexts/badge-ledger/issuance-service/domain/errors"
	"openprofiles/contexts/badge-ledger/issuance-service/domain/services"
	"openprofiles/contexts/badge-ledger/issuance-service/ports"
)

type AddTrustedIssuerCommand struct {
	OrgID    string
	CallerID string
	IssuerID string
}

type AddTrustedIssuerResult struct {
	Issuer   entities.TrustedIssuer
	Inserted bool
}

type AddTrustedIssuerUseCase struct {
	Issuers ports.IssuerRepository
	Logger  *slog.Logger
}

// Execute inserts an issuer into the org's trust set. Requires org authority.
// Duplicate grants are silently idempotent: the trust set is membership-only
// and re-granting must stay safe for provisioning retries.
func (u AddTrustedIssuerUseCase) Execute(ctx context.Context, cmd AddTrustedIssuerCommand) (AddTrustedIssuerResult, error) {
	logger := application.ResolveLogger(u.Logger)
	orgID := strings.TrimSpace(cmd.OrgID)
	issuerID := strings.TrimSpace(cmd.IssuerID)
	if orgID == "" || issuerID == "" {
		return AddTrustedIssuerResult{}, domainerrors.ErrInvalidRequest
	}
	if !services.HoldsOrgAuthority(orgID, strings.TrimSpace(cmd.CallerID)) {
		return AddTrustedIssuerResult{}, domainerrors.ErrOrgAuthorityRequired
	}

	inserted, err := u.Issuers.AddTrustedIssuer(ctx, orgID, issuerID)
	if err != nil {
		return AddTrustedIssuerResult{}, err
	}

	logger.Info("trusted issuer granted",
		"event", "issuer_trust_granted",
		"module", "badge-ledger/issuance-service",
		"layer", "application",
		"org_id", orgID,
		"issuer_id", issuerID,
		"inserted", inserted,
	)
	return AddTrustedIssuerResult{
		Issuer:   entities.TrustedIssuer{OrgID: orgID, IssuerID: issuerID},
		Inserted: inserted,
	}, nil
}
