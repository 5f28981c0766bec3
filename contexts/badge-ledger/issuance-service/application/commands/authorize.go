package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	domainerrors "openprofiles/contexts/badge-ledger/issuance-service/domain/errors"
	"openprofiles/contexts/badge-ledger/issuance-service/domain/services"
	"openprofiles/contexts/badge-ledger/issuance-service/ports"
)

// resolveTrustedIssuer is the authorization gate on every issuer operation.
// The caller identity must match an entry in the org's trust set; an empty
// set or no match aborts the whole operation before any write.
func resolveTrustedIssuer(
	ctx context.Context,
	issuers ports.IssuerRepository,
	orgID string,
	caller string,
) (string, error) {
	caller = strings.TrimSpace(caller)
	if caller == "" {
		return "", domainerrors.ErrUnauthorized
	}
	trusted, err := issuers.ListTrustedIssuers(ctx, orgID)
	if err != nil {
		return "", err
	}
	matched, ok := services.ResolveIssuer(trusted, caller)
	if !ok {
		return "", domainerrors.ErrUnauthorized
	}
	return matched, nil
}

func hashRequest(payload map[string]any) string {
	raw, _ := json.Marshal(payload)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
