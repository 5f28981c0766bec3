package httpadapter

import (
	"context"
	"log/slog"

	application "openprofiles/contexts/badge-ledger/issuance-service/application"
	"openprofiles/contexts/badge-ledger/issuance-service/application/commands"
	"openprofiles/contexts/badge-ledger/issuance-service/application/queries"
	"openprofiles/contexts/badge-ledger/issuance-service/domain/entities"
	httptransport "openprofiles/contexts/badge-ledger/issuance-service/transport/http"
)

type Handler struct {
	AddTrustedIssuer        commands.AddTrustedIssuerUseCase
	DeleteOrg               commands.DeleteOrgUseCase
	InitBadge               commands.InitBadgeUseCase
	RecordAchievement       commands.RecordAchievementUseCase
	GetBadge                queries.GetBadgeUseCase
	ListBadges              queries.ListBadgesUseCase
	ListAccountAchievements queries.ListAccountAchievementsUseCase
	ListTrustedIssuers      queries.ListTrustedIssuersUseCase
	Logger                  *slog.Logger
}

// AddTrustedIssuerHandler godoc
// @Summary Grant issuer trust
// @Description Adds an issuer account to the org's trust set. Org authority required. Duplicate grants are idempotent.
// @Tags badge-ledger
// @Accept json
// @Produce json
// @Param X-Caller-Id header string true "Caller account id"
// @Param org path string true "Org id"
// @Param request body httptransport.AddTrustedIssuerRequest true "Issuer grant"
// @Success 200 {object} httptransport.AddTrustedIssuerResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/orgs/{org}/issuers [post]
func (h Handler) AddTrustedIssuerHandler(
	ctx context.Context,
	orgID string,
	callerID string,
	req httptransport.AddTrustedIssuerRequest,
) (httptransport.AddTrustedIssuerResponse, error) {
	result, err := h.AddTrustedIssuer.Execute(ctx, commands.AddTrustedIssuerCommand{
		OrgID:    orgID,
		CallerID: callerID,
		IssuerID: req.IssuerID,
	})
	if err != nil {
		return httptransport.AddTrustedIssuerResponse{}, err
	}
	resp := httptransport.AddTrustedIssuerResponse{Status: "success"}
	resp.Data.OrgID = result.Issuer.OrgID
	resp.Data.IssuerID = result.Issuer.IssuerID
	resp.Data.Inserted = result.Inserted
	return resp, nil
}

// DeleteOrgHandler godoc
// @Summary Delete an org's ledger
// @Description Removes the org's trust set, badges and achievements atomically. Org authority required.
// @Tags badge-ledger
// @Produce json
// @Param X-Caller-Id header string true "Caller account id"
// @Param org path string true "Org id"
// @Success 200 {object} httptransport.DeleteOrgResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/orgs/{org} [delete]
func (h Handler) DeleteOrgHandler(
	ctx context.Context,
	orgID string,
	callerID string,
) (httptransport.DeleteOrgResponse, error) {
	result, err := h.DeleteOrg.Execute(ctx, commands.DeleteOrgCommand{
		OrgID:    orgID,
		CallerID: callerID,
	})
	if err != nil {
		return httptransport.DeleteOrgResponse{}, err
	}
	resp := httptransport.DeleteOrgResponse{Status: "success"}
	resp.Data.OrgID = orgID
	resp.Data.IssuersRemoved = result.Removed.Issuers
	resp.Data.BadgesRemoved = result.Removed.Badges
	resp.Data.AchievementsRemoved = result.Removed.Achievements
	return resp, nil
}

// InitBadgeHandler godoc
// @Summary Register a badge
// @Description Registers a badge under the calling trusted issuer. Optionally requests an external asset template.
// @Tags badge-ledger
// @Accept json
// @Produce json
// @Param X-Caller-Id header string true "Caller account id"
// @Param Idempotency-Key header string false "Idempotency key"
// @Param org path string true "Org id"
// @Param request body httptransport.InitBadgeRequest true "Badge definition"
// @Success 201 {object} httptransport.InitBadgeResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/orgs/{org}/badges [post]
func (h Handler) InitBadgeHandler(
	ctx context.Context,
	orgID string,
	callerID string,
	idempotencyKey string,
	req httptransport.InitBadgeRequest,
) (httptransport.InitBadgeResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Info("init badge request received",
		"event", "http_init_badge_received",
		"module", "badge-ledger/issuance-service",
		"layer", "transport",
		"org_id", orgID,
	)

	result, err := h.InitBadge.Execute(ctx, commands.InitBadgeCommand{
		OrgID:          orgID,
		CallerID:       callerID,
		BadgeName:      req.Name,
		URI:            req.URI,
		Details:        req.Details,
		MirrorToAssets: req.MirrorToAssets,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return httptransport.InitBadgeResponse{}, err
	}
	return httptransport.InitBadgeResponse{
		Status:   "success",
		Replayed: result.Replayed,
		Data:     mapBadge(result.Badge),
	}, nil
}

// RecordAchievementHandler godoc
// @Summary Record achievement units
// @Description Adds count units to the (account, badge) tally and stages per-unit mints when the badge mirrors to assets.
// @Tags badge-ledger
// @Accept json
// @Produce json
// @Param X-Caller-Id header string true "Caller account id"
// @Param Idempotency-Key header string false "Idempotency key"
// @Param org path string true "Org id"
// @Param request body httptransport.RecordAchievementRequest true "Achievement grant"
// @Success 200 {object} httptransport.RecordAchievementResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 422 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/orgs/{org}/achievements [post]
func (h Handler) RecordAchievementHandler(
	ctx context.Context,
	orgID string,
	callerID string,
	idempotencyKey string,
	req httptransport.RecordAchievementRequest,
) (httptransport.RecordAchievementResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Info("record achievement request received",
		"event", "http_record_achievement_received",
		"module", "badge-ledger/issuance-service",
		"layer", "transport",
		"org_id", orgID,
	)

	result, err := h.RecordAchievement.Execute(ctx, commands.RecordAchievementCommand{
		OrgID:          orgID,
		CallerID:       callerID,
		BadgeName:      req.BadgeName,
		AccountID:      req.AccountID,
		Count:          req.Count,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return httptransport.RecordAchievementResponse{}, err
	}
	resp := httptransport.RecordAchievementResponse{
		Status:   "success",
		Replayed: result.Replayed,
	}
	resp.Data.BadgeID = result.BadgeID
	resp.Data.AccountID = req.AccountID
	resp.Data.NewlyCreated = result.NewlyCreated
	resp.Data.Count = result.Count
	resp.Data.RarityCount = result.RarityCount
	resp.Data.TotalMinted = result.TotalMinted
	return resp, nil
}

// GetBadgeHandler godoc
// @Summary Get one badge
// @Description Returns a badge by its issuer and name.
// @Tags badge-ledger
// @Produce json
// @Param org path string true "Org id"
// @Param issuer query string true "Issuer id"
// @Param name query string true "Badge name"
// @Success 200 {object} httptransport.GetBadgeResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/orgs/{org}/badges/lookup [get]
func (h Handler) GetBadgeHandler(
	ctx context.Context,
	orgID string,
	issuerID string,
	badgeName string,
) (httptransport.GetBadgeResponse, error) {
	result, err := h.GetBadge.Execute(ctx, queries.GetBadgeQuery{
		OrgID:     orgID,
		IssuerID:  issuerID,
		BadgeName: badgeName,
	})
	if err != nil {
		return httptransport.GetBadgeResponse{}, err
	}
	return httptransport.GetBadgeResponse{
		Status: "success",
		Data:   mapBadge(result.Badge),
	}, nil
}

// ListBadgesHandler godoc
// @Summary List an org's badges
// @Tags badge-ledger
// @Produce json
// @Param org path string true "Org id"
// @Success 200 {object} httptransport.ListBadgesResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/orgs/{org}/badges [get]
func (h Handler) ListBadgesHandler(ctx context.Context, orgID string) (httptransport.ListBadgesResponse, error) {
	result, err := h.ListBadges.Execute(ctx, queries.ListBadgesQuery{OrgID: orgID})
	if err != nil {
		return httptransport.ListBadgesResponse{}, err
	}
	resp := httptransport.ListBadgesResponse{
		Status: "success",
		Data:   make([]httptransport.BadgeDTO, 0, len(result.Items)),
	}
	for _, badge := range result.Items {
		resp.Data = append(resp.Data, mapBadge(badge))
	}
	return resp, nil
}

// ListAccountAchievementsHandler godoc
// @Summary List an account's achievements within an org
// @Tags badge-ledger
// @Produce json
// @Param org path string true "Org id"
// @Param account path string true "Account id"
// @Success 200 {object} httptransport.ListAccountAchievementsResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/orgs/{org}/accounts/{account}/achievements [get]
func (h Handler) ListAccountAchievementsHandler(
	ctx context.Context,
	orgID string,
	accountID string,
) (httptransport.ListAccountAchievementsResponse, error) {
	result, err := h.ListAccountAchievements.Execute(ctx, queries.ListAccountAchievementsQuery{
		OrgID:     orgID,
		AccountID: accountID,
	})
	if err != nil {
		return httptransport.ListAccountAchievementsResponse{}, err
	}
	resp := httptransport.ListAccountAchievementsResponse{
		Status: "success",
		Data:   make([]httptransport.AchievementDTO, 0, len(result.Items)),
	}
	for _, item := range result.Items {
		resp.Data = append(resp.Data, httptransport.AchievementDTO{
			OrgID:     item.OrgID,
			RowID:     item.RowID,
			AccountID: item.AccountID,
			BadgeID:   item.BadgeID,
			Count:     item.Count,
		})
	}
	return resp, nil
}

// ListTrustedIssuersHandler godoc
// @Summary List an org's trusted issuers
// @Tags badge-ledger
// @Produce json
// @Param org path string true "Org id"
// @Success 200 {object} httptransport.ListTrustedIssuersResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/orgs/{org}/issuers [get]
func (h Handler) ListTrustedIssuersHandler(
	ctx context.Context,
	orgID string,
) (httptransport.ListTrustedIssuersResponse, error) {
	result, err := h.ListTrustedIssuers.Execute(ctx, queries.ListTrustedIssuersQuery{OrgID: orgID})
	if err != nil {
		return httptransport.ListTrustedIssuersResponse{}, err
	}
	resp := httptransport.ListTrustedIssuersResponse{
		Status: "success",
		Data:   make([]httptransport.TrustedIssuerDTO, 0, len(result.Items)),
	}
	for _, item := range result.Items {
		resp.Data = append(resp.Data, httptransport.TrustedIssuerDTO{
			OrgID:    item.OrgID,
			IssuerID: item.IssuerID,
		})
	}
	return resp, nil
}

func mapBadge(badge entities.Badge) httptransport.BadgeDTO {
	return httptransport.BadgeDTO{
		OrgID:          badge.OrgID,
		BadgeID:        badge.BadgeID,
		IssuerID:       badge.IssuerID,
		Name:           badge.Name,
		MirrorToAssets: badge.MirrorToAssets,
		TemplateID:     badge.TemplateID,
		URI:            badge.URI,
		Details:        badge.Details,
		RarityCount:    badge.RarityCount,
	}
}
