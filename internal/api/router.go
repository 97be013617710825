package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// SetupRouter creates and configures the HTTP router
func (h *Handler) SetupRouter() *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(NotFoundHandler)

	r.Use(h.RecoveryMiddleware)
	r.Use(CORSMiddleware)
	r.Use(h.LoggingMiddleware)

	// Public routes
	r.HandleFunc("/", h.ServerInfo).Methods("GET")
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/auth/token", h.IssueToken).Methods("POST")

	// Protected routes
	protected := api.PathPrefix("").Subrouter()
	protected.Use(h.AuthMiddleware)

	protected.HandleFunc("/auth/session", h.GetSession).Methods("GET")

	// Players
	protected.HandleFunc("/players/{uuid}", h.GetPlayer).Methods("GET")
	protected.HandleFunc("/players/{uuid}/friends", h.GetFriends).Methods("GET")
	protected.HandleFunc("/players/{uuid}/status", h.GetStatus).Methods("GET")
	protected.HandleFunc("/players/{uuid}/profiles", h.GetProfiles).Methods("GET")

	// SkyBlock
	protected.HandleFunc("/skyblock/profiles/{profile}", h.GetProfile).Methods("GET")
	protected.HandleFunc("/skyblock/auctions", h.GetAuctions).Methods("GET")
	protected.HandleFunc("/skyblock/auction", h.GetAuction).Methods("GET")
	protected.HandleFunc("/skyblock/bazaar", h.GetBazaar).Methods("GET")
	protected.HandleFunc("/skyblock/news", h.GetNews).Methods("GET")
	protected.HandleFunc("/skyblock/collections", h.GetCollections).Methods("GET")
	protected.HandleFunc("/skyblock/skills", h.GetSkills).Methods("GET")

	protected.HandleFunc("/audit/events", h.GetAuditEvents).Methods("GET")

	// Operator control
	admin := protected.PathPrefix("/control").Subrouter()
	admin.Use(h.AdminMiddleware)
	admin.HandleFunc("/status", h.GetControlStatus).Methods("GET")
	admin.HandleFunc("/proxy", h.SetProxyState).Methods("POST")
	admin.HandleFunc("/endpoints", h.SetEndpointState).Methods("POST")

	// Live bazaar quotes
	protected.HandleFunc("/ws/bazaar", h.HandleBazaarFeed).Methods("GET")

	return r
}

// NotFoundHandler handles 404 errors
func NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
}
