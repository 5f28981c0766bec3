package services

import (
	"openprofiles/contexts/badge-ledger/issuance-service/domain/entities"
)

// ResolveIssuer reports whether caller matches one of the org's trusted
// issuers. First match wins; duplicate trust grants are tolerated. An empty
// trust set never authorizes.
func ResolveIssuer(issuers []entities.TrustedIssuer, caller string) (string, bool) {
	for _, issuer := range issuers {
		if issuer.IssuerID == caller {
			return issuer.IssuerID, true
		}
	}
	return "", false
}

// HoldsOrgAuthority reports whether caller may run org admin operations
// (trust-set changes and org deletion). Org authority is possession of the
// org identity itself.
func HoldsOrgAuthority(orgID string, caller string) bool {
	return orgID != "" && caller == orgID
}
