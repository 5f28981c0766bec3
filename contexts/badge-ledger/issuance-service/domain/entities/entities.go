package entities

// TrustedIssuer is one entry in an org's trust set. Membership-only: the set
// is unordered and duplicate grants collapse into one row.
type TrustedIssuer struct {
	OrgID    string
	IssuerID string
}

// Badge is org-scoped badge metadata, unique per (issuer, name) within the
// org. BadgeID is allocated once from the org's monotonic counter and never
// changes. RarityCount accumulates every achievement unit ever recorded
// against the badge, across all accounts.
type Badge struct {
	OrgID          string
	BadgeID        uint64
	IssuerID       string
	Name           string
	MirrorToAssets bool
	TemplateID     int32
	URI            string
	Details        string
	RarityCount    uint64
}

// Reconciled reports whether the external template id has been written back
// by the asset-templating system.
func (b Badge) Reconciled() bool {
	return b.TemplateID != 0
}

// Achievement is the cumulative count of one badge for one account. Exactly
// one row exists per (account, badge) once any achievement has been recorded.
type Achievement struct {
	OrgID     string
	RowID     uint64
	AccountID string
	BadgeID   uint64
	Count     uint64
}
