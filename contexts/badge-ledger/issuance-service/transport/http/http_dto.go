package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type AddTrustedIssuerRequest struct {
	IssuerID string `json:"issuer_id"`
}

type AddTrustedIssuerResponse struct {
	Status string `json:"status"`
	Data   struct {
		OrgID    string `json:"org_id"`
		IssuerID string `json:"issuer_id"`
		Inserted bool   `json:"inserted"`
	} `json:"data"`
}

type DeleteOrgResponse struct {
	Status string `json:"status"`
	Data   struct {
		OrgID               string `json:"org_id"`
		IssuersRemoved      int    `json:"issuers_removed"`
		BadgesRemoved       int    `json:"badges_removed"`
		AchievementsRemoved int    `json:"achievements_removed"`
	} `json:"data"`
}

type InitBadgeRequest struct {
	Name           string `json:"name"`
	URI            string `json:"uri"`
	Details        string `json:"details,omitempty"`
	MirrorToAssets bool   `json:"mirror_to_assets"`
}

type InitBadgeResponse struct {
	Status   string   `json:"status"`
	Replayed bool     `json:"replayed,omitempty"`
	Data     BadgeDTO `json:"data"`
}

type BadgeDTO struct {
	OrgID          string `json:"org_id"`
	BadgeID        uint64 `json:"badge_id"`
	IssuerID       string `json:"issuer_id"`
	Name           string `json:"name"`
	MirrorToAssets bool   `json:"mirror_to_assets"`
	TemplateID     int32  `json:"template_id"`
	URI            string `json:"uri"`
	Details        string `json:"details,omitempty"`
	RarityCount    uint64 `json:"rarity_count"`
}

type RecordAchievementRequest struct {
	BadgeName string `json:"badge_name"`
	AccountID string `json:"account_id"`
	Count     uint64 `json:"count"`
}

type RecordAchievementResponse struct {
	Status   string `json:"status"`
	Replayed bool   `json:"replayed,omitempty"`
	Data     struct {
		BadgeID      uint64 `json:"badge_id"`
		AccountID    string `json:"account_id"`
		NewlyCreated bool   `json:"newly_created"`
		Count        uint64 `json:"count"`
		RarityCount  uint64 `json:"rarity_count"`
		TotalMinted  uint64 `json:"total_minted"`
	} `json:"data"`
}

type GetBadgeResponse struct {
	Status string   `json:"status"`
	Data   BadgeDTO `json:"data"`
}

type ListBadgesResponse struct {
	Status string     `json:"status"`
	Data   []BadgeDTO `json:"data"`
}

type AchievementDTO struct {
	OrgID     string `json:"org_id"`
	RowID     uint64 `json:"row_id"`
	AccountID string `json:"account_id"`
	BadgeID   uint64 `json:"badge_id"`
	Count     uint64 `json:"count"`
}

type ListAccountAchievementsResponse struct {
	Status string           `json:"status"`
	Data   []AchievementDTO `json:"data"`
}

type TrustedIssuerDTO struct {
	OrgID    string `json:"org_id"`
	IssuerID string `json:"issuer_id"`
}

type ListTrustedIssuersResponse struct {
	Status string             `json:"status"`
	Data   []TrustedIssuerDTO `json:"data"`
}
