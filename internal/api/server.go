package api

import (
	"github.com/gorilla/mux"

	"github.com/shehryarbajwa/courtscout/internal/proxy"
	"github.com/shehryarbajwa/courtscout/internal/ratelimit"
)

// SetupRoutes configures all HTTP routes
func (h *Handler) SetupRoutes(proxyServer *proxy.Server, rateLimiter *ratelimit.Limiter, requestsPerHour int) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.Health).Methods("GET", "OPTIONS")

	// API v1 routes
	api := r.PathPrefix("/v1").Subrouter()

	// Scraping endpoints (rate limited)
	scrape := api.PathPrefix("").Subrouter()
	scrape.Use(RateLimitMiddleware(rateLimiter, requestsPerHour))
	scrape.HandleFunc("/availability", h.GetAvailability).Methods("GET", "OPTIONS")
	scrape.HandleFunc("/price", h.GetPrice).Methods("GET", "OPTIONS")

	// Debug endpoints (not rate limited)
	api.HandleFunc("/sessions", h.ListSessions).Methods("GET", "OPTIONS")
	if proxyServer != nil {
		api.HandleFunc("/engine/ws", proxyServer.HandleDebugConnection).Methods("GET")
	}

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(h.log.Named("http")))
	r.Use(corsMiddleware)

	return r
}
