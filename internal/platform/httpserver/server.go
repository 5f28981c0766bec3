package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	issuanceservice "openprofiles/contexts/badge-ledger/issuance-service"
	ledgererrors "openprofiles/contexts/badge-ledger/issuance-service/domain/errors"
	ledgerhttp "openprofiles/contexts/badge-ledger/issuance-service/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "openprofiles/internal/platform/httpserver/docs"
)

type Server struct {
	mux    *http.ServeMux
	logger *slog.Logger
	addr   string
	ledger issuanceservice.Module
}

func New(ledger issuanceservice.Module, logger *slog.Logger, addr string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:    http.NewServeMux(),
		logger: logger,
		addr:   addr,
		ledger: ledger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the mux for httptest wiring.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /v1/orgs/{org}/issuers", s.handleAddTrustedIssuer)
	s.mux.HandleFunc("GET /v1/orgs/{org}/issuers", s.handleListTrustedIssuers)
	s.mux.HandleFunc("DELETE /v1/orgs/{org}", s.handleDeleteOrg)
	s.mux.HandleFunc("POST /v1/orgs/{org}/badges", s.handleInitBadge)
	s.mux.HandleFunc("GET /v1/orgs/{org}/badges", s.handleListBadges)
	s.mux.HandleFunc("GET /v1/orgs/{org}/badges/lookup", s.handleGetBadge)
	s.mux.HandleFunc("POST /v1/orgs/{org}/achievements", s.handleRecordAchievement)
	s.mux.HandleFunc("GET /v1/orgs/{org}/accounts/{account}/achievements", s.handleListAccountAchievements)
}

func (s *Server) handleAddTrustedIssuer(w http.ResponseWriter, r *http.Request) {
	callerID := resolveCallerID(r)
	if callerID == "" {
		writeLedgerError(w, http.StatusUnauthorized, "missing_caller", "X-Caller-Id header is required")
		return
	}

	var req ledgerhttp.AddTrustedIssuerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.ledger.Handler.AddTrustedIssuerHandler(r.Context(), r.PathValue("org"), callerID, req)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListTrustedIssuers(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.ListTrustedIssuersHandler(r.Context(), r.PathValue("org"))
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteOrg(w http.ResponseWriter, r *http.Request) {
	callerID := resolveCallerID(r)
	if callerID == "" {
		writeLedgerError(w, http.StatusUnauthorized, "missing_caller", "X-Caller-Id header is required")
		return
	}

	resp, err := s.ledger.Handler.DeleteOrgHandler(r.Context(), r.PathValue("org"), callerID)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleInitBadge(w http.ResponseWriter, r *http.Request) {
	callerID := resolveCallerID(r)
	if callerID == "" {
		writeLedgerError(w, http.StatusUnauthorized, "missing_caller", "X-Caller-Id header is required")
		return
	}

	var req ledgerhttp.InitBadgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.ledger.Handler.InitBadgeHandler(
		r.Context(),
		r.PathValue("org"),
		callerID,
		r.Header.Get("Idempotency-Key"),
		req,
	)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	status := http.StatusCreated
	if resp.Replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleListBadges(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.ListBadgesHandler(r.Context(), r.PathValue("org"))
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetBadge(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	resp, err := s.ledger.Handler.GetBadgeHandler(
		r.Context(),
		r.PathValue("org"),
		query.Get("issuer"),
		query.Get("name"),
	)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRecordAchievement(w http.ResponseWriter, r *http.Request) {
	callerID := resolveCallerID(r)
	if callerID == "" {
		writeLedgerError(w, http.StatusUnauthorized, "missing_caller", "X-Caller-Id header is required")
		return
	}

	var req ledgerhttp.RecordAchievementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.ledger.Handler.RecordAchievementHandler(
		r.Context(),
		r.PathValue("org"),
		callerID,
		r.Header.Get("Idempotency-Key"),
		req,
	)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListAccountAchievements(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.ListAccountAchievementsHandler(
		r.Context(),
		r.PathValue("org"),
		r.PathValue("account"),
	)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeLedgerDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledgererrors.ErrInvalidRequest):
		writeLedgerError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, ledgererrors.ErrUnauthorized):
		writeLedgerError(w, http.StatusUnauthorized, "issuer_not_trusted", err.Error())
	case errors.Is(err, ledgererrors.ErrOrgAuthorityRequired):
		writeLedgerError(w, http.StatusForbidden, "org_authority_required", err.Error())
	case errors.Is(err, ledgererrors.ErrBadgeAlreadyExists):
		writeLedgerError(w, http.StatusConflict, "badge_already_exists", err.Error())
	case errors.Is(err, ledgererrors.ErrBadgeNotFound):
		writeLedgerError(w, http.StatusNotFound, "badge_not_found", err.Error())
	case errors.Is(err, ledgererrors.ErrAchievementVetoed):
		writeLedgerError(w, http.StatusForbidden, "achievement_vetoed", err.Error())
	case errors.Is(err, ledgererrors.ErrResourceExhausted):
		writeLedgerError(w, http.StatusUnprocessableEntity, "mint_batch_too_large", err.Error())
	case errors.Is(err, ledgererrors.ErrIdempotencyKeyConflict):
		writeLedgerError(w, http.StatusConflict, "idempotency_conflict", err.Error())
	default:
		writeLedgerError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeLedgerError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, ledgerhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func resolveCallerID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-Caller-Id"))
}
