// Package api provides the HTTP API of the Hypixel gateway
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/alexbotov/hypixel/internal/audit"
	"github.com/alexbotov/hypixel/internal/auth"
	"github.com/alexbotov/hypixel/internal/control"
	"github.com/alexbotov/hypixel/internal/domain"
	"github.com/alexbotov/hypixel/pkg/hypixel"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// Handler contains all HTTP handlers
type Handler struct {
	client       *hypixel.Client
	auth         *auth.Service
	audit        *audit.Service
	control      *control.Service
	logger       *slog.Logger
	feedInterval time.Duration
	status       domain.GatewayStatus
}

// Options configures a Handler
type Options struct {
	Upstream     string
	FeedInterval time.Duration
	Logger       *slog.Logger
}

// New creates a new API handler
func New(client *hypixel.Client, authSvc *auth.Service, auditSvc *audit.Service, controlSvc *control.Service, opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	interval := opts.FeedInterval
	if interval <= 0 {
		interval = 20 * time.Second
	}

	return &Handler{
		client:       client,
		auth:         authSvc,
		audit:        auditSvc,
		control:      controlSvc,
		logger:       logger.With("component", "api"),
		feedInterval: interval,
		status: domain.GatewayStatus{
			Upstream:     opts.Upstream,
			AuditEnabled: auditSvc.Enabled(),
			StartedAt:    time.Now().UTC(),
		},
	}
}

// Response helpers

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(APIResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
		},
	})
}

// upstreamEndpoints are the upstream paths the gateway proxies
var upstreamEndpoints = map[string]bool{
	"player":                         true,
	"friends":                        true,
	"status":                         true,
	"skyblock/profiles":              true,
	"skyblock/profile":               true,
	"skyblock/auctions":              true,
	"skyblock/auction":               true,
	"skyblock/bazaar":                true,
	"skyblock/news":                  true,
	"resources/skyblock/collections": true,
	"resources/skyblock/skills":      true,
}

// accessError maps a control error to the gateway status, code and message
func accessError(err error) (int, string, string) {
	if errors.Is(err, control.ErrProxyDisabled) {
		return http.StatusServiceUnavailable, "MAINTENANCE", "Gateway is in maintenance"
	}
	return http.StatusServiceUnavailable, "ENDPOINT_DISABLED", err.Error()
}

// upstreamError maps a library error to the gateway status, code and message
func upstreamError(err error) (int, string, string) {
	var (
		rejected  *hypixel.UpstreamRejectedError
		malformed *hypixel.MalformedResponseError
		transport *hypixel.TransportError
		mapping   *hypixel.MappingError
	)

	switch {
	case errors.Is(err, hypixel.ErrPlayerNotFound):
		return http.StatusNotFound, "PLAYER_NOT_FOUND", "Player not found"
	case errors.Is(err, hypixel.ErrProfileNotFound):
		return http.StatusNotFound, "PROFILE_NOT_FOUND", "SkyBlock profile not found"
	case errors.Is(err, hypixel.ErrInvalidAuctionQuery):
		return http.StatusBadRequest, "INVALID_QUERY", err.Error()
	case errors.As(err, &rejected):
		msg := "Upstream rejected the request"
		if rejected.Cause != "" {
			msg += ": " + rejected.Cause
		}
		return http.StatusBadGateway, "UPSTREAM_REJECTED", msg
	case errors.As(err, &malformed):
		return http.StatusBadGateway, "MALFORMED_RESPONSE", "Upstream returned a malformed response"
	case errors.As(err, &transport):
		return http.StatusGatewayTimeout, "UPSTREAM_UNREACHABLE", "Upstream could not be reached"
	case errors.As(err, &mapping):
		return http.StatusBadGateway, "MAPPING_FAILED", mapping.Error()
	case errors.Is(err, context.Canceled):
		return 499, "CANCELED", "Request canceled"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error"
	}
}

// getClientIP extracts client IP from request
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}
	if xrip := r.Header.Get("X-Real-IP"); xrip != "" {
		return xrip
	}
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

// proxy runs one facade call, writes its result and records the call
func (h *Handler) proxy(w http.ResponseWriter, r *http.Request, endpoint string, call func(ctx context.Context) (interface{}, error)) {
	if err := h.control.CheckAccess(endpoint); err != nil {
		status, code, msg := accessError(err)
		respondError(w, status, code, msg)
		return
	}

	start := time.Now()
	data, err := call(r.Context())
	duration := time.Since(start)

	if err != nil {
		status, code, msg := upstreamError(err)
		respondError(w, status, code, msg)
		h.recordCall(r, audit.EventUpstreamError, domain.SeverityError, endpoint, status, duration,
			map[string]string{"code": code, "error": err.Error()})
		return
	}

	respondJSON(w, http.StatusOK, data)
	h.recordCall(r, audit.EventUpstreamCall, domain.SeverityInfo, endpoint, http.StatusOK, duration, nil)
}

func (h *Handler) recordCall(r *http.Request, eventType string, severity domain.EventSeverity, endpoint string, status int, duration time.Duration, data interface{}) {
	opts := []audit.EventOption{
		audit.WithUpstream(endpoint, status, duration),
		audit.WithIP(getClientIP(r)),
	}
	if session, ok := SessionFromContext(r.Context()); ok {
		opts = append(opts, audit.WithClient(session.ClientID), audit.WithSession(session.ID))
	}
	if err := h.audit.Log(r.Context(), eventType, severity, r.Method+" "+endpoint, data, opts...); err != nil {
		h.logger.WarnContext(r.Context(), "audit write failed", "error", err)
	}
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_UUID", "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// === Health & Info ===

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if !h.control.IsProxyEnabled() {
		status = "maintenance"
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":        status,
		"audit_enabled": h.status.AuditEnabled,
		"uptime":        time.Since(h.status.StartedAt).Truncate(time.Second).String(),
	})
}

// ServerInfo handles GET /
func (h *Handler) ServerInfo(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"name":        "hypixel-gateway",
		"version":     "1.0.0",
		"description": "Authenticated gateway to the Hypixel public API",
		"upstream":    h.status.Upstream,
		"started_at":  h.status.StartedAt,
	})
}

// === Authentication ===

// IssueToken handles POST /api/v1/auth/token
func (h *Handler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req auth.TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	session, token, err := h.auth.IssueToken(r.Context(), &req, getClientIP(r))
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			respondError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid client id or secret")
		default:
			respondError(w, http.StatusInternalServerError, "TOKEN_FAILED", "Token issuance failed")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"token":      token,
		"session_id": session.ID,
		"expires_at": session.ExpiresAt,
	})
}

// GetSession handles GET /api/v1/auth/session
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, _ := SessionFromContext(r.Context())
	respondJSON(w, http.StatusOK, session)
}

// === Players ===

// GetPlayer handles GET /api/v1/players/{uuid}
func (h *Handler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "uuid")
	if !ok {
		return
	}
	h.proxy(w, r, "player", func(ctx context.Context) (interface{}, error) {
		return h.client.Players().Get(ctx, id)
	})
}

// GetFriends handles GET /api/v1/players/{uuid}/friends
func (h *Handler) GetFriends(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "uuid")
	if !ok {
		return
	}
	h.proxy(w, r, "friends", func(ctx context.Context) (interface{}, error) {
		return h.client.Players().Friends(ctx, id)
	})
}

// GetStatus handles GET /api/v1/players/{uuid}/status
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "uuid")
	if !ok {
		return
	}
	h.proxy(w, r, "status", func(ctx context.Context) (interface{}, error) {
		return h.client.Players().Status(ctx, id)
	})
}

// GetProfiles handles GET /api/v1/players/{uuid}/profiles
func (h *Handler) GetProfiles(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "uuid")
	if !ok {
		return
	}
	h.proxy(w, r, "skyblock/profiles", func(ctx context.Context) (interface{}, error) {
		return h.client.Players().SkyblockProfiles(ctx, id)
	})
}

// === SkyBlock ===

// GetProfile handles GET /api/v1/skyblock/profiles/{profile}
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "profile")
	if !ok {
		return
	}
	h.proxy(w, r, "skyblock/profile", func(ctx context.Context) (interface{}, error) {
		return h.client.Skyblock().Profile(ctx, id)
	})
}

// GetAuctions handles GET /api/v1/skyblock/auctions?page=
func (h *Handler) GetAuctions(w http.ResponseWriter, r *http.Request) {
	page := 0
	if p := r.URL.Query().Get("page"); p != "" {
		parsed, err := strconv.Atoi(p)
		if err != nil || parsed < 0 {
			respondError(w, http.StatusBadRequest, "INVALID_PAGE", "Page must be a non-negative integer")
			return
		}
		page = parsed
	}
	h.proxy(w, r, "skyblock/auctions", func(ctx context.Context) (interface{}, error) {
		return h.client.Skyblock().Auctions(ctx, page)
	})
}

// GetAuction handles GET /api/v1/skyblock/auction?player=|profile=|uuid=
func (h *Handler) GetAuction(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var query hypixel.AuctionQuery
	for _, kind := range []hypixel.AuctionQueryKind{hypixel.AuctionByID, hypixel.AuctionByPlayer, hypixel.AuctionByProfile} {
		if v := q.Get(string(kind)); v != "" {
			if query.By != "" {
				respondError(w, http.StatusBadRequest, "INVALID_QUERY", "Exactly one of uuid, player or profile is required")
				return
			}
			query = hypixel.AuctionQuery{By: kind, Value: v}
		}
	}
	h.proxy(w, r, "skyblock/auction", func(ctx context.Context) (interface{}, error) {
		return h.client.Skyblock().AuctionsOf(ctx, query)
	})
}

// GetBazaar handles GET /api/v1/skyblock/bazaar
func (h *Handler) GetBazaar(w http.ResponseWriter, r *http.Request) {
	h.proxy(w, r, "skyblock/bazaar", func(ctx context.Context) (interface{}, error) {
		return h.client.Skyblock().Bazaar(ctx)
	})
}

// GetNews handles GET /api/v1/skyblock/news
func (h *Handler) GetNews(w http.ResponseWriter, r *http.Request) {
	h.proxy(w, r, "skyblock/news", func(ctx context.Context) (interface{}, error) {
		return h.client.Skyblock().News(ctx)
	})
}

// GetCollections handles GET /api/v1/skyblock/collections
func (h *Handler) GetCollections(w http.ResponseWriter, r *http.Request) {
	h.proxy(w, r, "resources/skyblock/collections", func(ctx context.Context) (interface{}, error) {
		return h.client.Skyblock().Collections(ctx)
	})
}

// GetSkills handles GET /api/v1/skyblock/skills
func (h *Handler) GetSkills(w http.ResponseWriter, r *http.Request) {
	h.proxy(w, r, "resources/skyblock/skills", func(ctx context.Context) (interface{}, error) {
		return h.client.Skyblock().Skills(ctx)
	})
}

// === Audit ===

// GetAuditEvents handles GET /api/v1/audit/events for the calling client
func (h *Handler) GetAuditEvents(w http.ResponseWriter, r *http.Request) {
	if !h.audit.Enabled() {
		respondError(w, http.StatusServiceUnavailable, "AUDIT_DISABLED", "Audit storage is not configured")
		return
	}
	session, _ := SessionFromContext(r.Context())

	filter := &audit.EventFilter{
		ClientID: session.ClientID,
		Type:     r.URL.Query().Get("type"),
		Endpoint: r.URL.Query().Get("endpoint"),
		Limit:    50,
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 && l <= 500 {
		filter.Limit = l
	}

	events, err := h.audit.GetEvents(r.Context(), filter)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "audit query failed", "error", err)
		respondError(w, http.StatusInternalServerError, "AUDIT_ERROR", "Failed to get audit events")
		return
	}
	respondJSON(w, http.StatusOK, events)
}

// === Control ===

// GetControlStatus handles GET /api/v1/control/status
func (h *Handler) GetControlStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.control.Status())
}

// SetProxyState handles POST /api/v1/control/proxy
func (h *Handler) SetProxyState(w http.ResponseWriter, r *http.Request) {
	session, _ := SessionFromContext(r.Context())

	var req struct {
		Enabled *bool  `json:"enabled"`
		Reason  string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Body must set enabled")
		return
	}

	var err error
	if *req.Enabled {
		err = h.control.EnableProxy(r.Context(), session.ClientID)
	} else {
		if req.Reason == "" {
			respondError(w, http.StatusBadRequest, "REASON_REQUIRED", "A reason is required to disable the proxy")
			return
		}
		err = h.control.DisableProxy(r.Context(), req.Reason, session.ClientID)
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "proxy state change failed", "error", err)
		respondError(w, http.StatusInternalServerError, "CONTROL_FAILED", "Failed to change proxy state")
		return
	}
	respondJSON(w, http.StatusOK, h.control.Status())
}

// SetEndpointState handles POST /api/v1/control/endpoints
func (h *Handler) SetEndpointState(w http.ResponseWriter, r *http.Request) {
	session, _ := SessionFromContext(r.Context())

	var req struct {
		Endpoint string `json:"endpoint"`
		Enabled  *bool  `json:"enabled"`
		Reason   string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Body must set endpoint and enabled")
		return
	}
	if !upstreamEndpoints[req.Endpoint] {
		respondError(w, http.StatusBadRequest, "INVALID_ENDPOINT", "Unknown endpoint: "+req.Endpoint)
		return
	}

	var err error
	if *req.Enabled {
		err = h.control.EnableEndpoint(r.Context(), req.Endpoint, session.ClientID)
	} else {
		err = h.control.DisableEndpoint(r.Context(), req.Endpoint, req.Reason, session.ClientID)
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "endpoint state change failed", "endpoint", req.Endpoint, "error", err)
		respondError(w, http.StatusInternalServerError, "CONTROL_FAILED", "Failed to change endpoint state")
		return
	}
	respondJSON(w, http.StatusOK, h.control.Status())
}
