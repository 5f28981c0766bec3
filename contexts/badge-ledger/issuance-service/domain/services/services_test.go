package services

import (
	"testing"

	"openprofiles/contexts/badge-ledger/issuance-service/domain/entities"
)

func TestResolveIssuerFirstMatchWins(t *testing.T) {
	issuers := []entities.TrustedIssuer{
		{OrgID: "acme", IssuerID: "alpha"},
		{OrgID: "acme", IssuerID: "beta"},
	}

	matched, ok := ResolveIssuer(issuers, "beta")
	if !ok || matched != "beta" {
		t.Fatalf("expected beta to resolve, got %q ok=%v", matched, ok)
	}

	if _, ok := ResolveIssuer(issuers, "gamma"); ok {
		t.Fatalf("expected unknown caller to be rejected")
	}

	if _, ok := ResolveIssuer(nil, "alpha"); ok {
		t.Fatalf("expected empty trust set to never authorize")
	}
}

func TestHoldsOrgAuthority(t *testing.T) {
	if !HoldsOrgAuthority("acme", "acme") {
		t.Fatalf("org identity must hold org authority")
	}
	if HoldsOrgAuthority("acme", "alpha") {
		t.Fatalf("non-org caller must not hold org authority")
	}
	if HoldsOrgAuthority("", "") {
		t.Fatalf("empty org must never authorize")
	}
}

func TestAchievementBytes(t *testing.T) {
	if got := AchievementBytes(); got != 4*64+32 {
		t.Fatalf("achievement byte cost = %d, want %d", got, 4*64+32)
	}
}

func TestBadgeInitBytesScalesWithText(t *testing.T) {
	base := BadgeInitBytes("", "")
	if base != 2*(3*64+2*32) {
		t.Fatalf("empty-text badge cost = %d, want %d", base, 2*(3*64+2*32))
	}

	withText := BadgeInitBytes("abcd", "ipfs://hash")
	if withText != base+2*uint64(len("abcd")+len("ipfs://hash")) {
		t.Fatalf("badge cost with text = %d, want %d", withText, base+2*uint64(len("abcd")+len("ipfs://hash")))
	}
}
